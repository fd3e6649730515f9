package main

import (
  "context"
  "errors"
  "fmt"
  "net/http"
  "os"
  "os/signal"
  "syscall"
  "time"

  "github.com/joho/godotenv"

  "github.com/synb/weather-backend/internal/clients/openmeteo"
  "github.com/synb/weather-backend/internal/db"
  "github.com/synb/weather-backend/internal/handlers"
  "github.com/synb/weather-backend/internal/logger"
  "github.com/synb/weather-backend/internal/middleware"
  "github.com/synb/weather-backend/internal/repos"
  "github.com/synb/weather-backend/internal/server"
  "github.com/synb/weather-backend/internal/services"
  "github.com/synb/weather-backend/internal/utils"
)

func main() {
  // Best-effort .env load; the container sets everything through real env
  _ = godotenv.Load()

  // Logger
  logMode := os.Getenv("APP_ENV")
  if logMode == "" {
    logMode = os.Getenv("LOG_MODE")
  }
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  defaultLat := utils.GetEnvAsFloat("DEFAULT_LATITUDE", 47.37, log)
  defaultLon := utils.GetEnvAsFloat("DEFAULT_LONGITUDE", 8.55, log)
  shutdownGrace := utils.GetEnvAsDuration("SHUTDOWN_GRACE", 10*time.Second, log)
  retentionHours := utils.GetEnvAsInt("RETENTION_HOURS", 0, log)

  // SQLite
  sqliteService, err := db.NewSQLiteService(log)
  if err != nil {
    log.Error("SQLite init failed", "error", err)
    os.Exit(1)
  }
  if err = sqliteService.AutoMigrateAll(); err != nil {
    log.Error("SQLite auto migration failed", "error", err)
    os.Exit(1)
  }
  theDB := sqliteService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  observationRepo := repos.NewObservationRepo(theDB, log)
  fetchRunRepo := repos.NewFetchRunRepo(theDB, log)

  // Clients
  log.Info("Setting up Clients from main...")
  meteoClient := openmeteo.NewClient(log)

  // Services
  log.Info("Setting up Services from main...")
  weatherService := services.NewWeatherService(theDB, log, observationRepo, fetchRunRepo, meteoClient)
  if retentionHours > 0 {
    deleted, err := weatherService.PruneOlderThan(context.Background(), nil, retentionHours)
    if err != nil {
      log.Warn("Observation retention prune failed", "error", err)
    } else if deleted > 0 {
      log.Info("Observation retention prune done", "deleted", deleted, "retention_hours", retentionHours)
    }
  }
  chartService, err := services.NewChartService(log)
  if err != nil {
    log.Error("Could not init ChartService", "error", err)
    os.Exit(1)
  }
  exportService, err := services.NewExportService(log, weatherService, chartService)
  if err != nil {
    log.Error("Could not init ExportService", "error", err)
    os.Exit(1)
  }

  // Handlers
  log.Info("Setting up handlers from main...")
  healthHandler := handlers.NewHealthHandler()
  weatherHandler := handlers.NewWeatherHandler(log, weatherService, defaultLat, defaultLon)
  exportHandler := handlers.NewExportHandler(log, exportService)

  // Middleware
  log.Info("Setting up middleware from main...")
  requestLogMiddleware := middleware.NewRequestLogMiddleware(log)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    HealthHandler:        healthHandler,
    WeatherHandler:       weatherHandler,
    ExportHandler:        exportHandler,
    RequestLogMiddleware: requestLogMiddleware,
  })

  port := utils.GetEnv("PORT", "5000", log)
  srv := &http.Server{
    Addr:    ":" + port,
    Handler: router,
  }

  go func() {
    log.Info("Server listening", "port", port)
    if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
      log.Fatal("Server failed", "error", err)
    }
  }()

  quit := make(chan os.Signal, 1)
  signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
  <-quit

  log.Info("Shutting down server...")
  ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
  defer cancel()
  if err := srv.Shutdown(ctx); err != nil {
    log.Error("Server shutdown failed", "error", err)
  }
  log.Info("Server stopped")
}
