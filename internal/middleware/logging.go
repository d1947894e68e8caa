package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vcscsvcscs/symptom-checker/pkg/model"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// RequestLoggingMiddleware logs every request once it completes. Bodies are
// never logged since they carry symptom descriptions.
func RequestLoggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(startTime)),
			zap.Int("response_size", c.Writer.Size()),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Time("timestamp", startTime),
		}

		if requestID := c.GetString("request_id"); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}
		if spanContext := trace.SpanContextFromContext(c.Request.Context()); spanContext.HasTraceID() {
			fields = append(fields, zap.String("trace_id", spanContext.TraceID().String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("Request completed with server error", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("Request completed with client error", fields...)
		default:
			logger.Info("Request completed", fields...)
		}
	}
}

// ErrorLoggingMiddleware logs errors attached to the context with c.Error
func ErrorLoggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, err := range c.Errors {
			logger.Error("Request error occurred",
				zap.Error(err.Err),
				zap.Uint64("error_type", uint64(err.Type)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetString("request_id")),
				zap.String("ip", c.ClientIP()),
				zap.Stack("stack_trace"),
			)
		}
	}
}

// RecoveryMiddleware turns panics into an INTERNAL_ERROR envelope
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				logger.Error("Panic recovered",
					zap.Any("error", recovered),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString("request_id")),
					zap.String("ip", c.ClientIP()),
					zap.Stack("stack_trace"),
				)

				c.Header("Access-Control-Allow-Origin", "*")
				c.AbortWithStatusJSON(http.StatusInternalServerError, model.APIResponse{
					Success: false,
					Error:   "An unexpected error occurred. Please try again later.",
					Code:    model.ErrorCodeInternalError,
					Details: fmt.Sprint(recovered),
				})
			}
		}()

		c.Next()
	}
}

// RequestIDMiddleware propagates or assigns an X-Request-ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()
	}
}

// TracingMiddleware starts a server span per request
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}
