package handlers

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/storyflow/gateway/internal/dispatch"

	huma "github.com/danielgtaylor/huma/v2"
)

var newRequestID = func() string {
	return uuid.NewString()
}

// RequestID makes sure every request carries an X-Request-Id. An inbound
// id is kept, otherwise a new one is generated. The id is echoed in the
// response and forwarded to subservices.
func RequestID(ctx huma.Context, next func(huma.Context)) {
	id := strings.TrimSpace(ctx.Header(dispatch.RequestIDHeader))
	if id == "" {
		id = newRequestID()
	}
	ctx.SetHeader(dispatch.RequestIDHeader, id)
	ctx = huma.WithContext(ctx, dispatch.ContextWithRequestID(ctx.Context(), id))
	next(ctx)
}

// AccessLog returns a middleware that logs one line per handled request.
func AccessLog(logger zerolog.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()
		next(ctx)

		status := ctx.Status()
		event := logger.Info()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}
		event.
			Str("method", ctx.Method()).
			Str("path", ctx.URL().Path).
			Str("operation", ctx.Operation().OperationID).
			Str("request_id", dispatch.RequestIDFromContext(ctx.Context())).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	}
}
