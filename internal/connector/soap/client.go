package soap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/agriservices/farmbridge/internal/bridge"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// CorrelationHeader carries the dispatcher call id to the backend.
const CorrelationHeader = "X-Correlation-ID"

// ClientConfig configures the SOAP transport.
type ClientConfig struct {
	// Auth configures credentials (default: ContextBearer).
	Auth AuthConfig

	// Timeout bounds one exchange, connection through body read (default: 30s).
	Timeout time.Duration

	// RateLimit requests per second across all backends (default: 20).
	RateLimit float64

	// RateBurst maximum burst size (default: 10).
	RateBurst int

	// MaxResponseBytes caps the response body (default: 4 MiB).
	MaxResponseBytes int64

	// Headers to add to all requests.
	Headers map[string]string

	// UserAgent string (default: "farmbridge/1.0").
	UserAgent string

	// Transport allows injecting a custom HTTP transport (for tests/stubs).
	Transport http.RoundTripper
}

// DefaultClientConfig returns a client config with sensible defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Auth:             ContextBearer{},
		Timeout:          30 * time.Second,
		RateLimit:        20,
		RateBurst:        10,
		MaxResponseBytes: 4 << 20,
		UserAgent:        "farmbridge/1.0",
		Headers:          make(map[string]string),
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a rate-limited SOAP-over-HTTP transport implementing
// bridge.Sender. It performs exactly one POST per call and never retries.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewClient creates a transport with the given configuration. Zero fields
// take their defaults.
func NewClient(config *ClientConfig, logger *zap.Logger) *Client {
	cfg := *DefaultClientConfig()
	if config != nil {
		if config.Auth != nil {
			cfg.Auth = config.Auth
		}
		if config.Timeout > 0 {
			cfg.Timeout = config.Timeout
		}
		if config.RateLimit > 0 {
			cfg.RateLimit = config.RateLimit
		}
		if config.RateBurst > 0 {
			cfg.RateBurst = config.RateBurst
		}
		if config.MaxResponseBytes > 0 {
			cfg.MaxResponseBytes = config.MaxResponseBytes
		}
		if config.UserAgent != "" {
			cfg.UserAgent = config.UserAgent
		}
		for k, v := range config.Headers {
			cfg.Headers[k] = v
		}
		cfg.Transport = config.Transport
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config: cfg,
		// The deadline is carried by the request context, so no client-level
		// timeout is set here.
		httpClient:  &http.Client{Transport: cfg.Transport},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		logger:      logger,
	}
}

// Send posts env to address. Non-2xx answers are returned as a RawResponse,
// not an error: the codec decides what they mean.
func (c *Client) Send(ctx context.Context, address string, action bridge.Action, env bridge.Envelope) (*bridge.RawResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, waitError(ctx, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, address, bytes.NewReader(env))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", bridge.ErrTransportFailure, err)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", ContentType)
	if action.Header != "" {
		req.Header.Set(action.Header, action.Value)
	}
	correlation, ok := bridge.CallIDFromContext(ctx)
	if !ok {
		correlation = uuid.NewString()
	}
	req.Header.Set(CorrelationHeader, correlation)
	c.config.Auth.Apply(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseBytes+1))
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("read body: %w", err))
	}
	if int64(len(body)) > c.config.MaxResponseBytes {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", bridge.ErrTransportFailure, c.config.MaxResponseBytes)
	}

	c.logger.Debug("soap exchange",
		zap.String("address", address),
		zap.String("action", action.Value),
		zap.String("correlation_id", correlation),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	return &bridge.RawResponse{
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// waitError classifies a rate limiter refusal. The limiter refuses up front
// when the deadline cannot be met; a caller cancellation is not a timeout.
func waitError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: rate limiter: %w", bridge.ErrTransportFailure, err)
	}
	return fmt.Errorf("%w: rate limiter: %w", bridge.ErrTimeout, err)
}

// classify maps a failed exchange to Timeout or TransportFailure.
func classify(ctx context.Context, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(ctx.Err(), context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", bridge.ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %w", bridge.ErrTransportFailure, err)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// HTTPError describes a non-2xx backend answer that carried no SOAP fault.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}
