package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Tracing instruments requests with otel spans named after chi's matched
// route pattern, keeping span cardinality per endpoint rather than per URL.
func Tracing() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rctx := chi.RouteContext(r.Context())
			var operation string
			if rctx != nil && rctx.RoutePattern() != "" {
				operation = fmt.Sprintf("%s %s", r.Method, rctx.RoutePattern())
			} else {
				operation = fmt.Sprintf("%s %s", r.Method, r.URL.Path)
			}
			otelhttp.NewHandler(next, operation).ServeHTTP(w, r)
		})
	}
}
