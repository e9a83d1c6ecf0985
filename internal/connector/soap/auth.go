package soap

import (
	"encoding/base64"
	"net/http"

	"github.com/agriservices/farmbridge/internal/bridge"
)

// =============================================================================
// AUTHENTICATION STRATEGIES
// =============================================================================

// AuthConfig decorates an outgoing backend request with credentials.
type AuthConfig interface {
	Apply(req *http.Request)
}

// NoAuth sends no credentials.
type NoAuth struct{}

func (a NoAuth) Apply(req *http.Request) {}

// ContextBearer forwards the caller's bearer token attached with
// bridge.WithBearer. Requests without one go out unauthenticated.
type ContextBearer struct{}

// Apply copies the context credential into the Authorization header.
func (a ContextBearer) Apply(req *http.Request) {
	if token, ok := bridge.BearerFromContext(req.Context()); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// BasicAuth uses HTTP Basic Authentication (service accounts on the WCF host).
type BasicAuth struct {
	Username string
	Password string
}

// Apply adds the Basic auth header to the request.
func (a BasicAuth) Apply(req *http.Request) {
	if a.Username == "" && a.Password == "" {
		return
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
	req.Header.Set("Authorization", "Basic "+credentials)
}

// Chain applies each strategy in order; later ones win on the same header.
type Chain []AuthConfig

func (c Chain) Apply(req *http.Request) {
	for _, a := range c {
		if a != nil {
			a.Apply(req)
		}
	}
}
