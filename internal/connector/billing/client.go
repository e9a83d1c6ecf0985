package billing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/agriservices/farmbridge/internal/bridge"
)

// Client is the typed view of the billing operations.
type Client struct {
	invoker bridge.Invoker
}

// NewClient wraps invoker (usually a *bridge.Dispatcher).
func NewClient(invoker bridge.Invoker) *Client {
	return &Client{invoker: invoker}
}

// GetInvoice returns the invoice with id, or nil when the backend has none.
func (c *Client) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	res, err := c.invoker.Invoke(ctx, OpGetInvoice, bridge.Params{"invoiceId": id})
	if err != nil {
		return nil, err
	}
	if res.Empty {
		return nil, nil
	}
	inv, ok := res.Value.(*Invoice)
	if !ok {
		return nil, fmt.Errorf("%w: %s produced %T", bridge.ErrMalformedResponse, OpGetInvoice, res.Value)
	}
	return inv, nil
}

// GenerateInvoice issues an invoice. The bridge never predicts the id: it is
// read back from the backend's confirmation message.
func (c *Client) GenerateInvoice(ctx context.Context, farmerName string, amount decimal.Decimal) (*Generated, error) {
	res, err := c.invoker.Invoke(ctx, OpGenerateInvoice, bridge.Params{
		"farmerName": farmerName,
		"amount":     amount,
	})
	if err != nil {
		return nil, err
	}
	if res.Empty {
		return &Generated{}, nil
	}
	msg, ok := res.Value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s produced %T", bridge.ErrMalformedResponse, OpGenerateInvoice, res.Value)
	}
	g := &Generated{Message: msg}
	if id, ok := InvoiceNumber(msg); ok {
		g.InvoiceID = id
	}
	return g, nil
}
