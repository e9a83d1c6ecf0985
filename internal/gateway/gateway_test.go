package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/agriservices/farmbridge/internal/bridge"
	"github.com/agriservices/farmbridge/internal/connector"
	"github.com/agriservices/farmbridge/internal/soaptest"
)

type fixture struct {
	crops      *soaptest.CropServer
	billing    *soaptest.BillingServer
	dispatcher *bridge.Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		crops: soaptest.NewCropServer(t,
			soaptest.CropRecord{ID: 1, Name: "Wheat", Type: "Cereal", DiseaseStatus: "Healthy"},
			soaptest.CropRecord{ID: 2, Name: "Tomato", Type: "Vegetable", DiseaseStatus: "At Risk"},
		),
		billing: soaptest.NewBillingServer(t, soaptest.WithMissingInvoices(404)),
	}
	f.dispatcher = connector.NewDispatcher(connector.Endpoints{
		CropURL:    f.crops.URL,
		BillingURL: f.billing.URL,
	}, nil, nil)
	return f
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestClassify_Unit_Mapping(t *testing.T) {
	tests := []struct {
		err      error
		kind     bridge.Kind
		http     int
		grpc     codes.Code
		detailed bool
	}{
		{fmt.Errorf("%w: %q", bridge.ErrUnknownOperation, "x"), bridge.KindUnknownOperation, http.StatusNotFound, codes.NotFound, true},
		{fmt.Errorf("%w: id", bridge.ErrMissingParameter), bridge.KindMissingParameter, http.StatusBadRequest, codes.InvalidArgument, true},
		{fmt.Errorf("%w: id", bridge.ErrInvalidParameter), bridge.KindInvalidParameter, http.StatusBadRequest, codes.InvalidArgument, true},
		{fmt.Errorf("%w: secret host", bridge.ErrTimeout), bridge.KindTimeout, http.StatusGatewayTimeout, codes.DeadlineExceeded, false},
		{fmt.Errorf("%w: secret host", bridge.ErrTransportFailure), bridge.KindTransportFailure, http.StatusBadGateway, codes.Unavailable, false},
		{fmt.Errorf("%w: secret host", bridge.ErrMalformedResponse), bridge.KindMalformedResponse, http.StatusBadGateway, codes.Internal, false},
		{fmt.Errorf("%w: secret host", bridge.ErrBackendFault), bridge.KindBackendFault, http.StatusBadGateway, codes.FailedPrecondition, false},
		{errors.New("secret host"), "", http.StatusInternalServerError, codes.Internal, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			kind, msg := classify(tt.err)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.http, httpStatus(kind))
			assert.Equal(t, tt.grpc, grpcCode(kind))
			if tt.detailed {
				assert.Equal(t, tt.err.Error(), msg)
			} else {
				assert.NotContains(t, msg, "secret host")
			}
		})
	}
}

func TestBearerToken_Unit(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("  bearer   abc "))
	assert.Empty(t, bearerToken("Basic dXNlcjpwYXNz"))
	assert.Empty(t, bearerToken("Bearer "))
	assert.Empty(t, bearerToken(""))
}

// =============================================================================
// HTTP FACADE
// =============================================================================

func do(t *testing.T, h http.Handler, method, path string, body any, header ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestRouter_Integration_Health(t *testing.T) {
	f := newFixture(t)
	rec, body := do(t, NewRouter(f.dispatcher, nil), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_Integration_CropLifecycle(t *testing.T) {
	f := newFixture(t)
	h := NewRouter(f.dispatcher, nil)

	rec, _ := do(t, h, http.MethodGet, "/api/crops", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"id":1,"name":"Wheat","type":"Cereal","diseaseStatus":"Healthy"},
		{"id":2,"name":"Tomato","type":"Vegetable","diseaseStatus":"At Risk"}
	]`, rec.Body.String())

	rec, body := do(t, h, http.MethodPost, "/api/crops", map[string]string{
		"name": "Maize", "type": "cereal", "diseaseStatus": "healthy",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Crop created with ID: 3", body["message"])

	rec, body = do(t, h, http.MethodGet, "/api/crops/3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Maize", body["name"])
	assert.Equal(t, "Cereal", body["type"])

	rec, body = do(t, h, http.MethodPut, "/api/crops/3", map[string]string{
		"name": "Maize", "type": "Cereal", "diseaseStatus": "High Risk",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Crop updated: 3", body["message"])

	rec, _ = do(t, h, http.MethodDelete, "/api/crops/3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = do(t, h, http.MethodGet, "/api/crops/3", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "crop not found", body["message"])
}

func TestRouter_Integration_InvalidCropNeverReachesBackend(t *testing.T) {
	f := newFixture(t)
	h := NewRouter(f.dispatcher, nil)

	rec, body := do(t, h, http.MethodPost, "/api/crops", map[string]string{"name": "", "type": "Tree", "diseaseStatus": "Healthy"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(bridge.KindInvalidParameter), body["kind"])
	assert.Contains(t, body["message"], "name is required")
	assert.Contains(t, body["message"], `unknown crop type "Tree"`)

	rec, _ = do(t, h, http.MethodGet, "/api/crops/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, f.crops.Requests())
}

func TestRouter_Integration_Billing(t *testing.T) {
	f := newFixture(t)
	h := NewRouter(f.dispatcher, nil)

	rec, body := do(t, h, http.MethodPost, "/api/billing/invoices", map[string]any{"farmerName": "Alice Martin", "amount": "1250.75"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.EqualValues(t, 102, body["invoiceId"])

	rec, _ = do(t, h, http.MethodGet, "/api/billing/invoices/101", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":101,"farmerName":"Simulated Farmer","amount":450.75,"issueDate":"2025-01-01T00:00:00Z"}`, rec.Body.String())

	rec, _ = do(t, h, http.MethodGet, "/api/billing/invoices/404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	requests := len(f.billing.Requests())
	rec, body = do(t, h, http.MethodGet, "/api/billing/invoices/0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(bridge.KindInvalidParameter), body["kind"])
	assert.Len(t, f.billing.Requests(), requests, "invoice 0 never reaches the backend")

	rec, body = do(t, h, http.MethodPost, "/api/billing/invoices", map[string]any{"farmerName": "Bob"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(bridge.KindMissingParameter), body["kind"])

	rec, body = do(t, h, http.MethodPost, "/api/billing/invoices", map[string]any{"farmerName": "Bob", "amount": -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(bridge.KindInvalidParameter), body["kind"])
}

func TestRouter_Integration_ForwardsBearer(t *testing.T) {
	f := newFixture(t)
	h := NewRouter(f.dispatcher, nil)

	rec, _ := do(t, h, http.MethodGet, "/api/crops", nil, "Authorization", "Bearer caller-token")
	require.Equal(t, http.StatusOK, rec.Code)

	reqs := f.crops.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer caller-token", reqs[0].Authorization)
}

func TestRouter_Integration_BackendFaultIsGeneric(t *testing.T) {
	f := newFixture(t)
	h := NewRouter(f.dispatcher, nil)
	f.crops.FailNext(soaptest.Failure{Status: http.StatusInternalServerError})

	rec, body := do(t, h, http.MethodGet, "/api/crops", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, string(bridge.KindBackendFault), body["kind"])
	assert.NotContains(t, body["message"], "injected failure")
}

func TestRouter_Integration_GenericOperations(t *testing.T) {
	f := newFixture(t)
	h := NewRouter(f.dispatcher, nil)

	rec, body := do(t, h, http.MethodGet, "/api/operations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ops, ok := body["operations"].([]any)
	require.True(t, ok)
	assert.Len(t, ops, 8)

	rec, body = do(t, h, http.MethodPost, "/api/operations/crop.hello", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello World from Crop Service (SOAP)!", body["value"])
	assert.NotEmpty(t, body["callId"])

	rec, body = do(t, h, http.MethodPost, "/api/operations/billing.invoice.get", map[string]any{"invoiceId": 404})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["empty"])

	rec, body = do(t, h, http.MethodPost, "/api/operations/crop.plant", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, string(bridge.KindUnknownOperation), body["kind"])

	rec, body = do(t, h, http.MethodPost, "/api/operations/crop.get", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(bridge.KindMissingParameter), body["kind"])
}

func TestRouter_Integration_ContextCancelled(t *testing.T) {
	f := newFixture(t)
	h := NewRouter(f.dispatcher, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/crops", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.GreaterOrEqual(t, rec.Code, http.StatusInternalServerError)
}
