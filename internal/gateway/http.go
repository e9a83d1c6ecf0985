package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/agriservices/farmbridge/internal/bridge"
	"github.com/agriservices/farmbridge/internal/connector/billing"
	"github.com/agriservices/farmbridge/internal/connector/crop"
)

const maxBodyBytes = 1 << 20

// API is the HTTP/JSON facade over the bridge.
type API struct {
	dispatcher *bridge.Dispatcher
	crops      *crop.Client
	billing    *billing.Client
	logger     *zap.Logger
}

// NewRouter builds the HTTP routes.
func NewRouter(dispatcher *bridge.Dispatcher, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &API{
		dispatcher: dispatcher,
		crops:      crop.NewClient(dispatcher),
		billing:    billing.NewClient(dispatcher),
		logger:     logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.accessLog)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "farmbridge"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(forwardBearer)

		api.Route("/crops", func(cr chi.Router) {
			cr.Get("/", a.listCrops)
			cr.Post("/", a.createCrop)
			cr.Get("/{id}", a.getCrop)
			cr.Put("/{id}", a.updateCrop)
			cr.Delete("/{id}", a.deleteCrop)
		})

		api.Post("/billing/invoices", a.generateInvoice)
		api.Get("/billing/invoices/{id}", a.getInvoice)

		api.Get("/operations", a.listOperations)
		api.Post("/operations/{operationID}", a.invokeOperation)
	})
	return r
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func forwardBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r.Header.Get("Authorization")); token != "" {
			r = r.WithContext(bridge.WithBearer(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.logger.Info("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Duration("duration", time.Since(start)))
	})
}

// =============================================================================
// CROPS
// =============================================================================

func (a *API) listCrops(w http.ResponseWriter, r *http.Request) {
	crops, err := a.crops.List(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, crops)
}

func (a *API) getCrop(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	c, err := a.crops.Get(r.Context(), int(id))
	if err != nil {
		a.writeError(w, err)
		return
	}
	if c == nil {
		writeMessage(w, http.StatusNotFound, "crop not found", "")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) createCrop(w http.ResponseWriter, r *http.Request) {
	in, ok := a.cropInput(w, r)
	if !ok {
		return
	}
	msg, err := a.crops.Create(r.Context(), in)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeMessage(w, http.StatusCreated, msg, "")
}

func (a *API) updateCrop(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	in, ok := a.cropInput(w, r)
	if !ok {
		return
	}
	msg, err := a.crops.Update(r.Context(), int(id), in)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, msg, "")
}

func (a *API) deleteCrop(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	msg, err := a.crops.Delete(r.Context(), int(id))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, msg, "")
}

func (a *API) cropInput(w http.ResponseWriter, r *http.Request) (crop.Input, bool) {
	var in crop.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body: "+err.Error(), bridge.KindInvalidParameter)
		return in, false
	}
	if err := in.Validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error(), bridge.KindInvalidParameter)
		return in, false
	}
	return in, true
}

// =============================================================================
// BILLING
// =============================================================================

type generateInvoiceRequest struct {
	FarmerName string           `json:"farmerName"`
	Amount     *decimal.Decimal `json:"amount"`
}

func (a *API) generateInvoice(w http.ResponseWriter, r *http.Request) {
	var req generateInvoiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body: "+err.Error(), bridge.KindInvalidParameter)
		return
	}
	if req.FarmerName == "" || req.Amount == nil {
		writeMessage(w, http.StatusBadRequest, "farmerName and amount are required", bridge.KindMissingParameter)
		return
	}
	g, err := a.billing.GenerateInvoice(r.Context(), req.FarmerName, *req.Amount)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (a *API) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	inv, err := a.billing.GetInvoice(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if inv == nil {
		writeMessage(w, http.StatusNotFound, "invoice not found", "")
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// =============================================================================
// GENERIC OPERATIONS
// =============================================================================

func (a *API) listOperations(w http.ResponseWriter, r *http.Request) {
	ops := make([]map[string]any, 0)
	for _, d := range a.dispatcher.Registry().List() {
		ops = append(ops, describe(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"operations": ops})
}

func (a *API) invokeOperation(w http.ResponseWriter, r *http.Request) {
	params := map[string]any{}
	if err := decodeJSON(w, r, &params); err != nil && !errors.Is(err, io.EOF) {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body: "+err.Error(), bridge.KindInvalidParameter)
		return
	}
	res, err := a.dispatcher.Invoke(r.Context(), chi.URLParam(r, "operationID"), bridge.Params(params))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"operationId": res.OperationID,
		"callId":      res.CallID,
		"empty":       res.Empty,
		"value":       res.Value,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (a *API) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 0 {
		writeMessage(w, http.StatusBadRequest, "id must be a non-negative integer", bridge.KindInvalidParameter)
		return 0, false
	}
	return id, true
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	kind, msg := classify(err)
	a.logger.Warn("request failed", zap.String("kind", string(kind)), zap.Error(err))
	writeMessage(w, httpStatus(kind), msg, kind)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	return dec.Decode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string, kind bridge.Kind) {
	body := map[string]string{"message": msg}
	if kind != "" {
		body["kind"] = string(kind)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
