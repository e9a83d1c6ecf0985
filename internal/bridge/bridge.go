// Package bridge defines the protocol bridge between typed farm operations and
// the legacy XML services that implement them.
//
// Architecture:
//
//	Registry     - operationId -> OperationDescriptor + Codec (read-only after init)
//	Codec        - per backend family: Build(envelope) and Parse(response)
//	Sender       - transport: one POST per call, no retries
//	Dispatcher   - Invoke: lookup -> build -> send -> parse, one error taxonomy
//
// Backend families plug in through Adapter. Adding a family never touches the
// Dispatcher.
package bridge

import (
	"context"
	"net/http"
)

// Params maps slot names to caller-supplied values.
type Params map[string]any

// Envelope is the serialized request document for a single call.
type Envelope []byte

// RawResponse is the unparsed answer of a backend.
type RawResponse struct {
	StatusCode  int
	Body        []byte
	ContentType string
}

// Success reports whether the backend answered with a 2xx status.
func (r *RawResponse) Success() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// Codec builds requests and parses responses for one backend family.
type Codec interface {
	// Build renders the envelope for desc with the given parameters.
	Build(desc *OperationDescriptor, params Params) (Envelope, error)

	// Parse turns a raw response into the operation's domain value.
	// An empty outcome is reported as an error wrapping ErrNoResult.
	Parse(desc *OperationDescriptor, raw *RawResponse) (any, error)
}

// Sender performs the HTTP exchange for a built envelope.
type Sender interface {
	Send(ctx context.Context, address string, action Action, env Envelope) (*RawResponse, error)
}

// Adapter bundles everything a backend family contributes to the registry.
type Adapter interface {
	// Family returns the backend family identifier (e.g. "soap.jaxws.crop").
	Family() string

	// Codec returns the family's envelope/response codec.
	Codec() Codec

	// Operations returns the descriptors served by this family.
	Operations() []*OperationDescriptor
}

// Invoker is the caller-facing contract of the bridge.
type Invoker interface {
	Invoke(ctx context.Context, operationID string, params Params) (*Result, error)
}

// Result is the outcome of a successful call.
type Result struct {
	OperationID string
	CallID      string

	// Value holds the parsed domain value. For list operations it is an
	// empty slice when Empty is set; for single-record operations it is nil.
	Value any

	// Empty marks a legitimate "no data" answer from the backend.
	Empty bool
}
