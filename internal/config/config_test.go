package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriservices/farmbridge/internal/bridge"
	"github.com/agriservices/farmbridge/internal/connector/soap"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "farmbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Unit_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "http://localhost:8082", cfg.Endpoints().CropURL)
}

func TestLoad_Unit_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
backends:
  cropUrl: http://crop-service:8082
  billingUrl: http://billing-service:8085
transport:
  timeout: 5s
  rateBurst: 3
log:
  level: debug
  json: false
`)
	t.Setenv("FARMBRIDGE_BILLING_URL", "https://billing.internal")
	t.Setenv("FARMBRIDGE_SOAP_RATE_LIMIT", "2.5")
	t.Setenv("FARMBRIDGE_SOAP_RATE_BURST", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://crop-service:8082", cfg.Backends.CropURL)
	assert.Equal(t, "https://billing.internal", cfg.Backends.BillingURL, "env wins over file")
	assert.Equal(t, 5*time.Second, cfg.Transport.Timeout)
	assert.Equal(t, 2.5, cfg.Transport.RateLimit)
	assert.Equal(t, 3, cfg.Transport.RateBurst, "unparseable env keeps file value")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.JSON)
	assert.Equal(t, ":8080", cfg.Gateway.HTTPAddr, "untouched defaults survive")

	cc := cfg.Transport.ClientConfig()
	assert.Equal(t, 5*time.Second, cc.Timeout)
	assert.Equal(t, 3, cc.RateBurst)
}

func TestLoad_Unit_ValidationJoinsErrors(t *testing.T) {
	path := writeFile(t, `
backends:
  cropUrl: "crop-service:8082"
transport:
  timeout: 0s
  rateLimit: -1
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backends.cropUrl")
	assert.Contains(t, err.Error(), "transport.timeout must be positive")
	assert.Contains(t, err.Error(), "transport.rateLimit must be positive")
}

func authHeader(t *testing.T, ctx context.Context, strategy soap.AuthConfig) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", nil).WithContext(ctx)
	strategy.Apply(req)
	return req.Header.Get("Authorization")
}

func TestLoad_Unit_AuthModes(t *testing.T) {
	withBearer := bridge.WithBearer(context.Background(), "farmer-token")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, soap.ContextBearer{}, cfg.Transport.ClientConfig().Auth)
	assert.Equal(t, "Bearer farmer-token", authHeader(t, withBearer, cfg.Transport.ClientConfig().Auth))

	path := writeFile(t, `
transport:
  auth:
    mode: basic
    username: billing-svc
`)
	t.Setenv("FARMBRIDGE_SOAP_PASSWORD", "s3cret")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, AuthConfig{Mode: AuthBasic, Username: "billing-svc", Password: "s3cret"}, cfg.Transport.Auth)

	auth := cfg.Transport.ClientConfig().Auth
	assert.Equal(t, "Basic YmlsbGluZy1zdmM6czNjcmV0", authHeader(t, context.Background(), auth))
	assert.Equal(t, "Bearer farmer-token", authHeader(t, withBearer, auth), "caller bearer wins")

	t.Setenv("FARMBRIDGE_SOAP_AUTH_MODE", "none")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Empty(t, authHeader(t, withBearer, cfg.Transport.ClientConfig().Auth))
}

func TestLoad_Unit_AuthValidation(t *testing.T) {
	t.Setenv("FARMBRIDGE_SOAP_AUTH_MODE", "basic")
	_, err := Load("")
	assert.ErrorContains(t, err, "transport.auth.username is required")

	t.Setenv("FARMBRIDGE_SOAP_AUTH_MODE", "kerberos")
	_, err = Load("")
	assert.ErrorContains(t, err, `transport.auth.mode "kerberos"`)
}

func TestLoad_Unit_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
