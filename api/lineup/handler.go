// Package lineup exposes the optimizer over HTTP.
package lineup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/lineup/core/catalog"
	"github.com/kilianp07/lineup/core/model"
	"github.com/kilianp07/lineup/core/optimizer"
	"github.com/kilianp07/lineup/core/requestlog"
	"github.com/kilianp07/lineup/infra/logger"
)

// RequestIDHeader carries the caller's request id, echoed on the response.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 1 << 20

// Optimizer answers lineup requests.
type Optimizer interface {
	Optimize(ctx context.Context, req model.Request) ([]model.Lineup, error)
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// NewRouter wires the lineup endpoints:
//
//	GET  /health
//	POST /optimize-lineup/
//	GET  /catalog
//	GET  /requests
func NewRouter(opt Optimizer, cat *catalog.Catalog, reqlog requestlog.Store) http.Handler {
	log := logger.New("http_api")
	mux := http.NewServeMux()
	mux.Handle("GET /health", NewHealthHandler())
	optimize := NewOptimizeHandler(opt)
	mux.Handle("POST /optimize-lineup/{$}", optimize)
	mux.Handle("POST /optimize-lineup", optimize)
	mux.Handle("GET /catalog", NewCatalogHandler(cat))
	if reqlog != nil {
		mux.Handle("GET /requests", NewRequestLogHandler(reqlog))
	}
	return withAccessLog(log, withRecover(log, mux))
}

// NewHealthHandler reports liveness.
func NewHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// NewOptimizeHandler decodes a model.Request and returns the top lineups.
// Naming one driver as both turbo and no_turbo is rejected with 400 and kind
// conflicting_override; the turbo pick does not silently win.
func NewOptimizeHandler(opt Optimizer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		var req model.Request
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:     fmt.Sprintf("decode request: %v", err),
				Kind:      "invalid_request",
				RequestID: id,
			})
			return
		}
		ctx := optimizer.WithRequestInfo(r.Context(), optimizer.RequestInfo{ID: id, Source: "http"})
		lineups, err := opt.Optimize(ctx, req)
		if err != nil {
			status, kind := classify(err)
			writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind, RequestID: id})
			return
		}
		if lineups == nil {
			lineups = []model.Lineup{}
		}
		writeJSON(w, http.StatusOK, lineups)
	})
}

// classify maps an optimizer error to an HTTP status and error kind.
func classify(err error) (int, string) {
	kind := model.ErrorKind(err)
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		return http.StatusBadRequest, kind
	case errors.Is(err, model.ErrInfeasible):
		return http.StatusUnprocessableEntity, kind
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "canceled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// NewCatalogHandler returns the catalog definition the service solves against.
func NewCatalogHandler(cat *catalog.Catalog) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, cat.Definition())
	})
}

// NewRequestLogHandler exposes the request audit log. Supported query
// parameters: start, end (RFC3339), source, outcome, request_id, limit.
func NewRequestLogHandler(store requestlog.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()
		q := requestlog.Query{
			Source:    params.Get("source"),
			Outcome:   params.Get("outcome"),
			RequestID: params.Get("request_id"),
		}
		for name, dst := range map[string]*time.Time{"start": &q.Start, "end": &q.End} {
			if s := params.Get(name); s != "" {
				t, err := time.Parse(time.RFC3339, s)
				if err != nil {
					writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("%s: %v", name, err), Kind: "invalid_request"})
					return
				}
				*dst = t
			}
		}
		if s := params.Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer", Kind: "invalid_request"})
				return
			}
			q.Limit = n
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Kind: "internal"})
			return
		}
		if records == nil {
			records = []requestlog.Record{}
		}
		writeJSON(w, http.StatusOK, records)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.New("http_api").Warnf("encode response: %v", err)
	}
}
