package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const serviceName = "weather-data-backend"

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// GET /health
// Liveness probe target for the container runtime.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   serviceName,
	})
}

// GET /
// Endpoint index.
func (h *HealthHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "Weather Data Backend API",
		"endpoints": gin.H{
			"GET /weather-report?lat={lat}&lon={lon}": "Fetch and store weather data",
			"GET /export/excel":                       "Export weather data as Excel file",
			"GET /export/pdf":                         "Generate PDF report with chart",
			"GET /health":                             "Health check",
			"GET /":                                   "API documentation",
		},
	})
}
