package billing

import (
	"strings"

	"github.com/agriservices/farmbridge/internal/bridge"
	"github.com/agriservices/farmbridge/internal/connector/soap"
)

// Family is the backend family identifier of the billing service.
const Family = "soap.wcf.billing"

const (
	// Namespace is the WCF default contract namespace.
	Namespace = "http://tempuri.org/"
	// Contract is the service contract name used in action URIs.
	Contract = "IBillingService"
	// Path is where the service endpoint is mounted.
	Path = "/BillingService.svc"

	prefix = "tem"
)

// Operation identifiers.
const (
	OpGetInvoice      = "billing.invoice.get"
	OpGenerateInvoice = "billing.invoice.generate"
)

// Adapter contributes the billing operations to a bridge.Registry.
type Adapter struct {
	address string
	codec   *soap.Codec
}

// NewAdapter creates the adapter for a billing service reachable at baseURL.
func NewAdapter(baseURL string) *Adapter {
	return &Adapter{
		address: strings.TrimSuffix(baseURL, "/") + Path,
		codec:   soap.NewCodec(),
	}
}

func (a *Adapter) Family() string { return Family }

func (a *Adapter) Codec() bridge.Codec { return a.codec }

// Address returns the endpoint every billing operation posts to.
func (a *Adapter) Address() string { return a.address }

func (a *Adapter) Operations() []*bridge.OperationDescriptor {
	return []*bridge.OperationDescriptor{
		a.op(OpGetInvoice, "GetInvoiceDetailsAsync", "Fetch invoice details", true,
			[]bridge.Param{
				{Name: "invoiceId", Element: "invoiceId", Type: bridge.TypeInt, Positive: true},
			}, extractInvoice),
		a.op(OpGenerateInvoice, "GenerateNewInvoiceAsync", "Issue a new invoice", false,
			[]bridge.Param{
				{Name: "farmerName", Element: "farmerName", Type: bridge.TypeString},
				{Name: "amount", Element: "amount", Type: bridge.TypeDecimal, NonNegative: true},
			}, extractGenerated),
	}
}

// ActionURI returns the WCF action for an operation of the contract.
func ActionURI(wire string) string {
	return Namespace + Contract + "/" + wire
}

func (a *Adapter) op(id, wire, description string, idempotent bool, params []bridge.Param, extract bridge.Extractor) *bridge.OperationDescriptor {
	return &bridge.OperationDescriptor{
		ID:          id,
		Family:      Family,
		Description: description,
		Address:     a.address,
		Action:      bridge.Action{Header: "SOAPAction", Value: `"` + ActionURI(wire) + `"`},
		Template: bridge.Template{
			Namespace:       Namespace,
			Prefix:          prefix,
			Operation:       wire,
			QualifiedParams: true,
		},
		Params:     params,
		Extract:    extract,
		Idempotent: idempotent,
	}
}
