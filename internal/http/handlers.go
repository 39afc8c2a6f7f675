package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kjstillabower/subscription-intake-service/internal/observability"
	"github.com/kjstillabower/subscription-intake-service/internal/traffic"
	"github.com/kjstillabower/subscription-intake-service/internal/validation"
)

// Handler holds dependencies for HTTP handlers. Handlers keep no per-request
// state on it, so one Handler serves all connections concurrently.
type Handler struct {
	logger *zap.Logger
}

// NewHandler returns a new Handler. A nil logger discards output.
func NewHandler(logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logger: logger}
}

// GetHealthCheck handles GET /health_check: 200 with an empty body, unconditionally.
func (h *Handler) GetHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(http.StatusOK)
}

// PostSubscription handles POST /subscriptions. Any decode or validation
// failure is a 400; the error code does not distinguish which field failed.
func (h *Handler) PostSubscription(w http.ResponseWriter, r *http.Request) {
	logger := loggerFrom(r, h.logger)

	sub, err := validation.DecodeSubscription(r.Context(), r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		observability.RecordSubscription(traffic.Rejected)
		logger.Debug("subscription rejected",
			zap.Bool("parse_error", validation.IsParseError(err)),
			zap.Error(err))
		writeError(w, r, http.StatusBadRequest, "INVALID_SUBSCRIPTION", flattenError(err))
		return
	}

	observability.RecordSubscription(traffic.Accepted)
	logger.Info("subscription accepted", zap.String("subscriber_name", sub.Name))
	w.WriteHeader(http.StatusOK)
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": CorrelationID(r.Context()),
		},
	})
}

// flattenError renders joined errors on one line.
func flattenError(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", "; ")
}
