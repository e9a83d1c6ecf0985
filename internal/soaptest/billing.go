package soaptest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agriservices/farmbridge/internal/connector/soap"
	"github.com/agriservices/farmbridge/internal/idalloc"
)

const (
	billingNamespace = "http://tempuri.org/"
	billingContract  = billingNamespace + "IBillingService/"
	modelsNamespace  = "http://schemas.datacontract.org/2004/07/Models"
)

// BillingServer fakes the WCF billing service mounted at /BillingService.svc.
type BillingServer struct {
	*server

	alloc     idalloc.Allocator
	issueDate time.Time
	missing   map[int64]bool
}

// BillingOption configures a BillingServer.
type BillingOption func(*BillingServer)

// WithAllocator replaces the invoice id source (default: a counter whose
// first id is 102).
func WithAllocator(a idalloc.Allocator) BillingOption {
	return func(s *BillingServer) { s.alloc = a }
}

// WithIssueDate fixes the issue date reported for every invoice.
func WithIssueDate(t time.Time) BillingOption {
	return func(s *BillingServer) { s.issueDate = t }
}

// WithMissingInvoices makes lookups of ids answer with a nil result.
func WithMissingInvoices(ids ...int64) BillingOption {
	return func(s *BillingServer) {
		for _, id := range ids {
			s.missing[id] = true
		}
	}
}

// NewBillingServer starts a billing fake. It is closed when the test ends.
func NewBillingServer(t testing.TB, opts ...BillingOption) *BillingServer {
	t.Helper()
	s := &BillingServer{
		server:    &server{},
		alloc:     idalloc.NewCounter(idalloc.DefaultSeed),
		issueDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		missing:   map[int64]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/BillingService.svc", s.handle)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *BillingServer) handle(w http.ResponseWriter, r *http.Request) {
	body, ok := s.intercept(w, r)
	if !ok {
		return
	}
	op, err := operation(body)
	if err != nil {
		writeFault(w, http.StatusBadRequest, "s:Client", err.Error())
		return
	}

	// WCF dispatches on the action header alone.
	action := r.Header.Get("SOAPAction")
	want := `"` + billingContract + op.Name.Local + `"`
	if action != want || op.Name.Space != billingNamespace {
		writeFault(w, http.StatusInternalServerError, "a:ActionNotSupported",
			fmt.Sprintf("The message with Action '%s' cannot be processed at the receiver", action))
		return
	}

	switch op.Name.Local {
	case "GetInvoiceDetailsAsync":
		s.getInvoice(w, op)
	case "GenerateNewInvoiceAsync":
		s.generate(w, r, op)
	default:
		writeFault(w, http.StatusInternalServerError, "a:ActionNotSupported", "unknown operation "+op.Name.Local)
	}
}

// Parameters outside the contract namespace are invisible to WCF.
func qualified(op *soap.Node, local string) (string, bool) {
	for _, c := range op.Children {
		if c.Name.Local == local && c.Name.Space == billingNamespace {
			return c.Text, true
		}
	}
	return "", false
}

func (s *BillingServer) getInvoice(w http.ResponseWriter, op *soap.Node) {
	raw, _ := qualified(op, "invoiceId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeFault(w, http.StatusInternalServerError, "a:DeserializationFailed", "invoiceId: "+err.Error())
		return
	}

	result := `<GetInvoiceDetailsAsyncResult xmlns:i="http://www.w3.org/2001/XMLSchema-instance" i:nil="true"/>`
	if !s.missing[id] {
		result = fmt.Sprintf(`<GetInvoiceDetailsAsyncResult xmlns:a="%s" xmlns:i="http://www.w3.org/2001/XMLSchema-instance">`+
			`<a:Amount>450.75</a:Amount><a:FarmerName>Simulated Farmer</a:FarmerName><a:Id>%d</a:Id><a:IssueDate>%s</a:IssueDate>`+
			`</GetInvoiceDetailsAsyncResult>`,
			modelsNamespace, id, s.issueDate.Format("2006-01-02T15:04:05.9999999"))
	}
	s.reply(w, "GetInvoiceDetailsAsync", result)
}

func (s *BillingServer) generate(w http.ResponseWriter, r *http.Request, op *soap.Node) {
	name, _ := qualified(op, "farmerName")
	rawAmount, _ := qualified(op, "amount")
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		writeFault(w, http.StatusInternalServerError, "a:DeserializationFailed", "amount: "+err.Error())
		return
	}

	id, err := s.alloc.Next(r.Context())
	if err != nil {
		writeFault(w, http.StatusInternalServerError, "s:Server", err.Error())
		return
	}
	msg := fmt.Sprintf("Facture %d générée pour %s d'un montant de %s €.", id, name, amount.StringFixed(2))
	s.reply(w, "GenerateNewInvoiceAsync", "<GenerateNewInvoiceAsyncResult>"+esc(msg)+"</GenerateNewInvoiceAsyncResult>")
}

func (s *BillingServer) reply(w http.ResponseWriter, op, inner string) {
	writeEnvelope(w, http.StatusOK, "s", fmt.Sprintf(`<%[1]sResponse xmlns="%[2]s">%[3]s</%[1]sResponse>`, op, billingNamespace, inner))
}
