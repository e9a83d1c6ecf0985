// Package soaptest provides in-process fakes of the crop (JAX-WS) and
// billing (WCF) backends. They speak the same wire dialects as the real
// services, so connector and gateway tests exercise the full bridge.
package soaptest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/agriservices/farmbridge/internal/connector/soap"
)

// Request is one exchange recorded by a fake.
type Request struct {
	Action        string
	Authorization string
	CorrelationID string
	ContentType   string
	Body          []byte
}

// Failure overrides the next answer of a fake.
type Failure struct {
	// Delay holds the answer back; the fake gives up early when the client
	// disconnects.
	Delay time.Duration

	// Status and Body replace the answer when Status is non-zero. An empty
	// Body with Status >= 500 is filled with a SOAP 1.1 fault.
	Status int
	Body   string
}

// server carries what both fakes share: request recording, injected failures
// and the envelope writer.
type server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
	failures []Failure
}

func (s *server) record(r *http.Request, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{
		Action:        r.Header.Get("SOAPAction"),
		Authorization: r.Header.Get("Authorization"),
		CorrelationID: r.Header.Get(soap.CorrelationHeader),
		ContentType:   r.Header.Get("Content-Type"),
		Body:          body,
	})
}

// Requests returns every exchange received so far.
func (s *server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// FailNext queues failures, consumed one per request.
func (s *server) FailNext(f ...Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, f...)
}

func (s *server) nextFailure() (Failure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.failures) == 0 {
		return Failure{}, false
	}
	f := s.failures[0]
	s.failures = s.failures[1:]
	return f, true
}

// intercept reads and records the request and applies a queued failure. It
// returns the body and false when the request was already answered.
func (s *server) intercept(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	s.record(r, body)

	f, ok := s.nextFailure()
	if !ok {
		return body, true
	}
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-r.Context().Done():
			return nil, false
		}
	}
	if f.Status == 0 {
		return body, true
	}
	if f.Body == "" && f.Status >= http.StatusInternalServerError {
		writeFault(w, f.Status, "soap:Server", "injected failure")
		return nil, false
	}
	w.WriteHeader(f.Status)
	_, _ = io.WriteString(w, f.Body)
	return nil, false
}

// operation parses an incoming envelope and returns its operation element.
func operation(body []byte) (*soap.Node, error) {
	root, err := soap.ParseDocument(body)
	if err != nil {
		return nil, err
	}
	b := root.Body()
	if b == nil || len(b.Children) != 1 {
		return nil, fmt.Errorf("expected one operation element in Body")
	}
	return b.Children[0], nil
}

// =============================================================================
// RESPONSE WRITING
// =============================================================================

func esc(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func writeEnvelope(w http.ResponseWriter, status int, envPrefix, inner string) {
	w.Header().Set("Content-Type", soap.ContentType)
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><%[1]s:Envelope xmlns:%[1]s="%[2]s"><%[1]s:Body>%[3]s</%[1]s:Body></%[1]s:Envelope>`,
		envPrefix, soap.EnvelopeNamespace, inner)
}

func writeFault(w http.ResponseWriter, status int, code, reason string) {
	writeEnvelope(w, status, "S", fmt.Sprintf(`<S:Fault><faultcode>%s</faultcode><faultstring>%s</faultstring></S:Fault>`,
		esc(code), esc(reason)))
}
