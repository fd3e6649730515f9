package server

import (
  "github.com/gin-gonic/gin"
  "github.com/gin-contrib/cors"
  "github.com/synb/weather-backend/internal/handlers"
  "github.com/synb/weather-backend/internal/middleware"
)

type RouterConfig struct {
  HealthHandler        *handlers.HealthHandler
  WeatherHandler       *handlers.WeatherHandler
  ExportHandler        *handlers.ExportHandler
  RequestLogMiddleware *middleware.RequestLogMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
      "http://localhost:5173",
    },
    AllowMethods:     []string{"GET", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  if cfg.RequestLogMiddleware != nil {
    router.Use(cfg.RequestLogMiddleware.LogRequests())
  }

  router.GET("/health", cfg.HealthHandler.HealthCheck)
  router.GET("/", cfg.HealthHandler.Index)

  router.GET("/weather-report", cfg.WeatherHandler.FetchWeatherReport)

  export := router.Group("/export")
  {
    export.GET("/excel", cfg.ExportHandler.ExportExcel)
    export.GET("/pdf", cfg.ExportHandler.ExportPDF)
  }

  router.GET("/debug/data", cfg.WeatherHandler.DebugData)

  return router
}
