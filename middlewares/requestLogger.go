package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const RequestIDHeader = "X-Request-ID"

func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		requestID := ctx.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Header(RequestIDHeader, requestID)

		reqLogger := logger.With().Str("request_id", requestID).Logger()
		ctx.Request = ctx.Request.WithContext(reqLogger.WithContext(ctx.Request.Context()))

		ctx.Next()

		status := ctx.Writer.Status()
		event := reqLogger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = reqLogger.Error()
		case status >= http.StatusBadRequest:
			event = reqLogger.Warn()
		}
		if len(ctx.Errors) > 0 {
			event = event.Str("errors", ctx.Errors.String())
		}
		event.
			Str("method", ctx.Request.Method).
			Str("path", ctx.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", ctx.ClientIP()).
			Msg("request handled")
	}
}

// Recovery logs panics and answers with the generic error page or envelope.
func Recovery(logger zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(ctx *gin.Context, recovered any) {
		logger.Error().
			Interface("panic", recovered).
			Str("path", ctx.Request.URL.Path).
			Msg("recovered from panic")

		if IsAjax(ctx) {
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "An unexpected error occurred."})
			return
		}
		ctx.Redirect(http.StatusFound, "/Error/500")
		ctx.Abort()
	})
}
