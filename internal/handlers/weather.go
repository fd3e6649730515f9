package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/synb/weather-backend/internal/logger"
	"github.com/synb/weather-backend/internal/services"
)

type WeatherHandler struct {
	log            *logger.Logger
	weatherService services.WeatherService
	defaultLat     float64
	defaultLon     float64
}

func NewWeatherHandler(log *logger.Logger, weatherService services.WeatherService, defaultLat, defaultLon float64) *WeatherHandler {
	return &WeatherHandler{
		log:            log.With("handler", "WeatherHandler"),
		weatherService: weatherService,
		defaultLat:     defaultLat,
		defaultLon:     defaultLon,
	}
}

// GET /weather-report?lat={lat}&lon={lon}
// Fetch hourly data from the forecast API and upsert it into the database.
func (h *WeatherHandler) FetchWeatherReport(c *gin.Context) {
	lat := queryFloat(c, "lat", h.defaultLat)
	lon := queryFloat(c, "lon", h.defaultLon)

	result, err := h.weatherService.FetchAndStore(c.Request.Context(), nil, lat, lon)
	if err != nil {
		h.log.Error("FetchWeatherReport failed", "lat", lat, "lon", lon, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrUpstream) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Weather data fetched and stored successfully",
		"location": gin.H{
			"latitude":  result.Latitude,
			"longitude": result.Longitude,
		},
		"data_points": result.DataPoints,
	})
}

// GET /debug/data
// Database contents snapshot for troubleshooting.
func (h *WeatherHandler) DebugData(c *gin.Context) {
	snapshot, err := h.weatherService.DebugSnapshot(c.Request.Context(), nil)
	if err != nil {
		h.log.Error("DebugData failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func queryFloat(c *gin.Context, key string, defaultVal float64) float64 {
	raw := c.Query(key)
	if raw == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultVal
	}
	return f
}
