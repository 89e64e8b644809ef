package logging

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	loggerKey        contextKey = "logger"
	userIDKey        contextKey = "user_id"
)

// InitLogger initializes the global logger.
func InitLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware adds a correlation ID to the request context and logs the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get("X-Correlation-ID")
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		// Create a logger with the correlation ID
		logger := log.With().Str("correlation_id", correlationID).Logger()

		// Add logger and correlation ID to context
		ctx := context.WithValue(r.Context(), correlationIDKey, correlationID)
		ctx = context.WithValue(ctx, loggerKey, logger)

		start := time.Now()

		// Wrap response writer to capture status code
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		// Log request start
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Msg("Request started")

		next.ServeHTTP(ww, r.WithContext(ctx))

		// Log request completion
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.statusCode).
			Dur("duration_ms", time.Since(start)).
			Msg("Request completed")
	})
}

// FromContext returns the logger from the context, or the global logger if not found.
func FromContext(ctx context.Context) *zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return &logger
	}
	return &log.Logger
}

// GetCorrelationID returns the correlation ID from the context.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// LogError logs an error with context
func LogError(ctx context.Context, err error, message string, fields map[string]interface{}) {
	logger := FromContext(ctx)
	event := logger.Error().Err(err)
	
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	
	event.Msg(message)
}

// LogInfo logs an info message with context
func LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	logger := FromContext(ctx)
	event := logger.Info()
	
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	
	event.Msg(message)
}

// LogWarning logs a warning message with context
func LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	logger := FromContext(ctx)
	event := logger.Warn()

	for k, v := range fields {
		event = event.Interface(k, v)
	}

	event.Msg(message)
}

// Planner-core structured events. These take an injected *zerolog.Logger
// rather than reading the package-global logger or a context, so the
// planner/worldstate/schedule packages stay embeddable in a host
// process that has its own logging setup; cmd/plannerd passes
// &log.Logger (the global logger InitLogger configures) when it builds
// a Problem.

// LogGoalActivated reports a goal reaching the top of its priority band.
func LogGoalActivated(logger *zerolog.Logger, problemID string, priority int) {
	logger.Debug().Str("problem_id", problemID).Int("priority", priority).Msg("goal activated")
}

// LogGoalDropped reports a goal leaving the stack, either satisfied or
// dropped by inactivity.
func LogGoalDropped(logger *zerolog.Logger, problemID, reason string, priority int) {
	logger.Debug().Str("problem_id", problemID).Str("reason", reason).Int("priority", priority).Msg("goal dropped")
}

// LogPlanFound reports a successful regression search.
func LogPlanFound(logger *zerolog.Logger, problemID string, priority, steps int) {
	logger.Info().Str("problem_id", problemID).Int("priority", priority).Int("steps", steps).Msg("plan found")
}

// LogPlanExhausted reports a regression search with no viable action —
// planning termination, not an error (spec.md §7).
func LogPlanExhausted(logger *zerolog.Logger, problemID string, priority int) {
	logger.Debug().Str("problem_id", problemID).Int("priority", priority).Msg("plan exhausted")
}

// LogEventFired reports a Domain event whose precondition held during a
// ProcessEvents round.
func LogEventFired(logger *zerolog.Logger, domainUUID, eventKey string, round int) {
	logger.Debug().Str("domain_uuid", domainUUID).Str("event", eventKey).Int("round", round).Msg("event fired")
}

// LogCacheInvalidated reports a WorldStateCache invalidation triggered
// by a Domain rebuild.
func LogCacheInvalidated(logger *zerolog.Logger, domainUUID string) {
	logger.Debug().Str("domain_uuid", domainUUID).Msg("cache invalidated")
}

// Nop returns a logger that discards every event, for embedders that
// want the planner silent by default.
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
