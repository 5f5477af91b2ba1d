package middleware

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/ohan/internal/metrics"
)

// Metrics counts requests by chi route pattern and status. Unmatched paths
// are counted under "other".
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := wrapWriter(w)

		next.ServeHTTP(ww, r)

		route := "other"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(ww.status)).Inc()
	})
}
