package billing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agriservices/farmbridge/internal/bridge"
	"github.com/agriservices/farmbridge/internal/connector/soap"
)

// WCF wraps answers in <OpResponse><OpResult>...</OpResult></OpResponse>.
// A null result is serialized as <OpResult i:nil="true"/>.
func resultElement(root *soap.Node, wire string) (*soap.Node, error) {
	resp, err := soap.ResponseElement(root, wire+"Response")
	if err != nil {
		return nil, err
	}
	res := resp.Child(wire + "Result")
	if res == nil || res.IsNil() {
		return nil, bridge.ErrNoResult
	}
	return res, nil
}

var extractGenerated = soap.Extract(func(root *soap.Node) (any, error) {
	res, err := resultElement(root, "GenerateNewInvoiceAsync")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Text), nil
})

var extractInvoice = soap.Extract(func(root *soap.Node) (any, error) {
	res, err := resultElement(root, "GetInvoiceDetailsAsync")
	if err != nil {
		return (*Invoice)(nil), err
	}
	inv, err := invoiceFromFields(res)
	if err != nil {
		return (*Invoice)(nil), err
	}
	return inv, nil
})

var invoiceFields = []string{"Id", "FarmerName", "Amount", "IssueDate"}

func invoiceFromFields(res *soap.Node) (*Invoice, error) {
	fields := map[string]string{}
	var missing []string
	for _, name := range invoiceFields {
		if v, ok := res.Field(name); ok {
			fields[name] = v
		} else {
			missing = append(missing, name)
		}
	}
	if len(fields) == 0 {
		return nil, bridge.ErrNoResult
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: invoice missing %s", bridge.ErrMalformedResponse, strings.Join(missing, ", "))
	}

	id, err := strconv.ParseInt(fields["Id"], 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: invoice id %q is not a positive integer", bridge.ErrMalformedResponse, fields["Id"])
	}
	if fields["FarmerName"] == "" {
		return nil, fmt.Errorf("%w: invoice %d has an empty farmer name", bridge.ErrMalformedResponse, id)
	}
	amount, err := decimal.NewFromString(fields["Amount"])
	if err != nil || amount.IsNegative() {
		return nil, fmt.Errorf("%w: invoice %d amount %q is not a non-negative decimal", bridge.ErrMalformedResponse, id, fields["Amount"])
	}
	issued, err := ParseDateTime(fields["IssueDate"])
	if err != nil {
		return nil, fmt.Errorf("%w: invoice %d: %v", bridge.ErrMalformedResponse, id, err)
	}

	return &Invoice{
		ID:         id,
		FarmerName: fields["FarmerName"],
		Amount:     amount,
		IssueDate:  issued,
	}, nil
}

// ParseDateTime reads an xs:dateTime as serialized by the DataContract
// serializer: up to seven fractional digits, with an offset, a Z, or no zone
// at all (read as UTC).
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("issue date %q is not an xs:dateTime", s)
	}
	return t.UTC(), nil
}
