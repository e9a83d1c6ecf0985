// Package connector assembles the backend adapters into a ready bridge.
package connector

import (
	"go.uber.org/zap"

	"github.com/agriservices/farmbridge/internal/bridge"
	"github.com/agriservices/farmbridge/internal/connector/billing"
	"github.com/agriservices/farmbridge/internal/connector/crop"
	"github.com/agriservices/farmbridge/internal/connector/soap"
)

// Endpoints are the base URLs of the legacy services.
type Endpoints struct {
	CropURL    string
	BillingURL string
}

// NewRegistry registers every backend family.
func NewRegistry(e Endpoints) *bridge.Registry {
	r := bridge.NewRegistry()
	r.RegisterAdapter(crop.NewAdapter(e.CropURL))
	r.RegisterAdapter(billing.NewAdapter(e.BillingURL))
	return r
}

// NewDispatcher wires the registry to a SOAP transport.
func NewDispatcher(e Endpoints, transport *soap.ClientConfig, logger *zap.Logger) *bridge.Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return bridge.NewDispatcher(
		NewRegistry(e),
		soap.NewClient(transport, logger.Named("soap")),
		bridge.WithLogger(logger.Named("bridge")),
	)
}
