package crop

import (
	"context"
	"fmt"

	"github.com/agriservices/farmbridge/internal/bridge"
)

// Client is the typed view of the crop operations over any bridge.Invoker.
type Client struct {
	invoker bridge.Invoker
}

// NewClient wraps invoker (usually a *bridge.Dispatcher).
func NewClient(invoker bridge.Invoker) *Client {
	return &Client{invoker: invoker}
}

// Hello returns the service greeting.
func (c *Client) Hello(ctx context.Context) (string, error) {
	return c.text(ctx, OpHello, nil)
}

// List returns every crop in backend order. An empty backend yields an empty
// slice, not an error.
func (c *Client) List(ctx context.Context) ([]Crop, error) {
	res, err := c.invoker.Invoke(ctx, OpList, nil)
	if err != nil {
		return nil, err
	}
	crops, ok := res.Value.([]Crop)
	if !ok {
		return nil, unexpected(OpList, res.Value)
	}
	return crops, nil
}

// Get returns the crop with id, or nil when the backend has none.
func (c *Client) Get(ctx context.Context, id int) (*Crop, error) {
	res, err := c.invoker.Invoke(ctx, OpGet, bridge.Params{"id": id})
	if err != nil {
		return nil, err
	}
	if res.Empty {
		return nil, nil
	}
	crop, ok := res.Value.(*Crop)
	if !ok {
		return nil, unexpected(OpGet, res.Value)
	}
	return crop, nil
}

// Create records a new crop and returns the backend's confirmation.
func (c *Client) Create(ctx context.Context, in Input) (string, error) {
	return c.text(ctx, OpCreate, bridge.Params{
		"name":          in.Name,
		"type":          in.Type,
		"diseaseStatus": in.DiseaseStatus,
	})
}

// Update replaces the crop with id.
func (c *Client) Update(ctx context.Context, id int, in Input) (string, error) {
	return c.text(ctx, OpUpdate, bridge.Params{
		"id":            id,
		"name":          in.Name,
		"type":          in.Type,
		"diseaseStatus": in.DiseaseStatus,
	})
}

// Delete removes the crop with id.
func (c *Client) Delete(ctx context.Context, id int) (string, error) {
	return c.text(ctx, OpDelete, bridge.Params{"id": id})
}

func (c *Client) text(ctx context.Context, op string, params bridge.Params) (string, error) {
	res, err := c.invoker.Invoke(ctx, op, params)
	if err != nil {
		return "", err
	}
	if res.Empty {
		return "", nil
	}
	s, ok := res.Value.(string)
	if !ok {
		return "", unexpected(op, res.Value)
	}
	return s, nil
}

func unexpected(op string, v any) error {
	return fmt.Errorf("%w: %s produced %T", bridge.ErrMalformedResponse, op, v)
}
