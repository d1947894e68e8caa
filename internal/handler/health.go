package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger is any dependency whose connectivity can be checked
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness and which pipelines are usable
type HealthHandler struct {
	analysisConfigured func() bool
	reportConfigured   func() bool
	database           Pinger
	version            string
	logger             *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. database may be nil.
func NewHealthHandler(symptoms, reports interface{ Configured() bool }, database Pinger, version string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		analysisConfigured: symptoms.Configured,
		reportConfigured:   reports.Configured,
		database:           database,
		version:            version,
		logger:             logger,
	}
}

// GetHealth implements GET /health
func (h *HealthHandler) GetHealth(c *gin.Context) {
	body := gin.H{
		"status":             "healthy",
		"service":            "symptom-checker",
		"version":            h.version,
		"analysisConfigured": h.analysisConfigured(),
		"reportConfigured":   h.reportConfigured(),
	}

	if h.database == nil {
		body["database"] = "disabled"
		c.JSON(http.StatusOK, body)
		return
	}

	if err := h.database.Ping(c.Request.Context()); err != nil {
		h.logger.Error("health check failed: audit database unreachable", zap.Error(err))
		body["status"] = "unhealthy"
		body["database"] = "disconnected"
		body["error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	body["database"] = "connected"
	c.JSON(http.StatusOK, body)
}
