package soap

import (
	"fmt"

	"github.com/agriservices/farmbridge/internal/bridge"
)

// Codec is the bridge.Codec shared by every SOAP family. Families differ only
// in their descriptors (template, action, extractor); the response policy is
// the same for all of them:
//
//  1. a Fault element anywhere in the body is a BackendFault, whatever the status
//  2. a non-2xx status without a fault is a BackendFault carrying the status
//  3. a 2xx body that is not well-formed XML is a MalformedResponse
//  4. otherwise the descriptor's extractor decides
type Codec struct{}

// NewCodec returns the SOAP codec.
func NewCodec() *Codec { return &Codec{} }

// Build renders the request envelope for desc.
func (c *Codec) Build(desc *bridge.OperationDescriptor, params bridge.Params) (bridge.Envelope, error) {
	values, err := bridge.SlotValues(desc, params)
	if err != nil {
		return nil, err
	}
	return BuildEnvelope(desc.Template, desc.Params, values)
}

// Parse applies the fault and status policy, then runs desc.Extract.
func (c *Codec) Parse(desc *bridge.OperationDescriptor, raw *bridge.RawResponse) (any, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: no response", bridge.ErrMalformedResponse)
	}

	root, parseErr := ParseDocument(raw.Body)
	if parseErr == nil {
		if fault, ok := FindFault(root); ok {
			if !raw.Success() {
				return nil, fmt.Errorf("%w (HTTP %d)", fault, raw.StatusCode)
			}
			return nil, fault
		}
	}

	if !raw.Success() {
		return nil, fmt.Errorf("%w: %w", bridge.ErrBackendFault, &HTTPError{
			StatusCode: raw.StatusCode,
			Message:    snippet(raw.Body),
		})
	}
	if parseErr != nil {
		return nil, parseErr
	}
	if desc.Extract == nil {
		return nil, fmt.Errorf("%w: operation %s has no extractor", bridge.ErrMalformedResponse, desc.ID)
	}
	return desc.Extract(raw.Body)
}

func snippet(body []byte) string {
	const limit = 256
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
