package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Recorder observes completed requests.
type Recorder interface {
	ObserveRequest(method string, status int, bytes int64, duration time.Duration)
}

// RequestLogger logs one line per request and forwards the outcome to rec
// when it is not nil.
func RequestLogger(rec Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			slog.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"range", r.Header.Get("Range"),
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", elapsed,
			)

			if rec != nil {
				rec.ObserveRequest(r.Method, status, int64(ww.BytesWritten()), elapsed)
			}
		})
	}
}
