package lineup

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/lineup/core/monitoring"
	"github.com/kilianp07/lineup/infra/logger"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func withAccessLog(log logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Infow("http request", map[string]any{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
			"request_id": w.Header().Get(RequestIDHeader),
		})
	})
}

// withRecover turns a handler panic into a 500 and reports it.
func withRecover(log logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				err := fmt.Errorf("panic serving %s %s: %v", r.Method, r.URL.Path, v)
				log.Errorf("%v", err)
				monitoring.CaptureException(err, map[string]string{"module": "http_api"})
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error", Kind: "internal"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
