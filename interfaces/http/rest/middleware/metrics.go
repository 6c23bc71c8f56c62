package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"lumina-backend/pkg/common"
	"lumina-backend/pkg/observability"
)

// Metrics emits request count, error count and latency per request. A
// nil emitter turns the middleware into a pass-through.
func Metrics(metrics *observability.Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			method := observability.Dimension("method", r.Method)
			metrics.IncrementCount(observability.MetricRequestCount, method)
			if ww.Status() >= 500 {
				metrics.IncrementCount(observability.MetricRequestErrors, method)
			}
			metrics.RecordDuration(observability.MetricRequestLatency, time.Since(start), method)
		})
	}
}

// Tracing annotates the active trace segment with the resolved caller.
// It must sit inside Authenticate.
func Tracing(tracer *observability.Tracer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity, ok := common.GetIdentity(r.Context()); ok {
				tracer.AnnotateIdentity(r.Context(), identity.UserID)
			}
			next.ServeHTTP(w, r)
		})
	}
}
