package middleware

import (
	"net/http"
	"scanstation/internal/logger"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs every API request with its status and duration.
// Static assets and the viewer socket are not logged.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/api/view" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			reqID := chimw.GetReqID(r.Context())
			switch {
			case status >= 500:
				log.Error("[%s] %s %s -> %d (%s)", reqID, r.Method, r.URL.Path, status, time.Since(start))
			case status >= 400:
				log.Warning("[%s] %s %s -> %d (%s)", reqID, r.Method, r.URL.Path, status, time.Since(start))
			default:
				log.Info("[%s] %s %s -> %d (%s)", reqID, r.Method, r.URL.Path, status, time.Since(start))
			}
		})
	}
}
