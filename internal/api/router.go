package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khanglvm/vidrank/internal/logging"
	"github.com/khanglvm/vidrank/internal/metrics"
)

// RouterOptions configures middleware.
type RouterOptions struct {
	// RateLimit is requests per RateLimitWindow per client IP. Zero disables it.
	RateLimit       int
	RateLimitWindow time.Duration
}

// NewRouter builds the HTTP handler tree.
func NewRouter(svc Service, opts RouterOptions) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health/live", h.Live)
		r.Get("/health/ready", h.Ready)

		r.Group(func(r chi.Router) {
			if opts.RateLimit > 0 {
				r.Use(httprate.LimitByIP(opts.RateLimit, opts.RateLimitWindow))
			}
			r.Get("/recommend", h.Recommend)
			r.Post("/recommend", h.Recommend)
			r.Get("/search", h.Search)
			r.Post("/search", h.Search)
			r.Get("/catalog/stats", h.CatalogStats)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	return r
}

// requestLogger logs each request and records its metrics under the matched
// route pattern.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		metrics.RecordAPIRequest(r.Method, route, strconv.Itoa(status), d)

		log := logging.Component("api")
		log.Debug().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Dur("took", d).
			Msg("request")
	})
}
