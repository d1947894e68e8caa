package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/symptom-checker/internal/handler"
	"github.com/vcscsvcscs/symptom-checker/internal/middleware"
	"go.uber.org/zap"
)

// RouterOptions wires the handlers and middleware settings into a router
type RouterOptions struct {
	Symptoms    *handler.SymptomHandler
	Health      *handler.HealthHandler
	ServiceName string
	Tracing     bool
	Logger      *zap.Logger
}

// NewRouter builds the gin engine serving the public API
func NewRouter(opts RouterOptions) *gin.Engine {
	r := gin.New()

	// recovery must wrap everything else
	r.Use(middleware.RecoveryMiddleware(opts.Logger))

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:              []string{"authorization", "x-client-info", "apikey", "content-type", "x-request-id"},
		ExposeHeaders:             []string{"Content-Length", "X-Request-ID"},
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	}))

	r.Use(middleware.RequestIDMiddleware())
	if opts.Tracing {
		r.Use(middleware.TracingMiddleware(opts.ServiceName))
	}
	r.Use(middleware.RequestLoggingMiddleware(opts.Logger))
	r.Use(middleware.ErrorLoggingMiddleware(opts.Logger))

	r.GET("/health", opts.Health.GetHealth)
	r.GET("/api/v1/openapi.yaml", handler.ServeSpec)
	opts.Symptoms.RegisterRoutes(r)

	return r
}
