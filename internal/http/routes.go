package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/subscription-intake-service/internal/observability"
)

// Paths served by the router.
const (
	HealthCheckPath   = "/health_check"
	SubscriptionsPath = "/subscriptions"
	MetricsPath       = "/metrics"
)

// RouterConfig tunes the /subscriptions middleware. Zero values disable each limit.
type RouterConfig struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	Limiter        *rate.Limiter
}

// NewRouter registers the health check, subscription and metrics routes.
// Unknown paths get 404 and wrong methods on known paths get 405.
func NewRouter(h *Handler, logger *zap.Logger, cfg RouterConfig) *mux.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	router.HandleFunc(HealthCheckPath, h.GetHealthCheck).Methods(http.MethodGet)
	router.Handle(SubscriptionsPath, chain(
		http.HandlerFunc(h.PostSubscription),
		RateLimitMiddleware(cfg.Limiter),
		BodyLimitMiddleware(cfg.MaxBodyBytes),
		TimeoutMiddleware(cfg.RequestTimeout),
	)).Methods(http.MethodPost)
	router.Handle(MetricsPath, observability.MetricsHandler()).Methods(http.MethodGet)

	return router
}

// chain wraps h so the first middleware runs outermost.
func chain(h http.Handler, mws ...mux.MiddlewareFunc) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
