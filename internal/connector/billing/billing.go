// Package billing connects the bridge to the invoicing backend, a WCF
// BasicHttpBinding service in document/literal style: parameters qualified in
// the tempuri namespace and a quoted, fully-qualified SOAPAction.
package billing

import (
	"encoding/json"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is one issued invoice.
type Invoice struct {
	ID         int64
	FarmerName string
	Amount     decimal.Decimal
	IssueDate  time.Time
}

// MarshalJSON renders Amount as a JSON number so clients see 450.75, not
// "450.75".
func (inv Invoice) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         int64       `json:"id"`
		FarmerName string      `json:"farmerName"`
		Amount     json.Number `json:"amount"`
		IssueDate  time.Time   `json:"issueDate"`
	}{
		ID:         inv.ID,
		FarmerName: inv.FarmerName,
		Amount:     json.Number(inv.Amount.String()),
		IssueDate:  inv.IssueDate,
	})
}

// Generated is the outcome of issuing an invoice.
type Generated struct {
	Message string `json:"message"`

	// InvoiceID is recovered from Message; zero when the backend's wording
	// carries no number.
	InvoiceID int64 `json:"invoiceId,omitempty"`
}

var invoiceNumberPattern = regexp.MustCompile(`(?i)(?:facture|invoice)\s*(?:n[o°]\.?\s*)?#?\s*(\d+)`)

// InvoiceNumber extracts the invoice id from a generation message such as
// "Facture 102 générée pour Alice Martin ...".
func InvoiceNumber(msg string) (int64, bool) {
	m := invoiceNumberPattern.FindStringSubmatch(msg)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
