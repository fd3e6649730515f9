package db

import (
  "fmt"
  "os"
  "path/filepath"
  "gorm.io/driver/sqlite"
  "gorm.io/gorm"
  "github.com/synb/weather-backend/internal/types"
  "github.com/synb/weather-backend/internal/utils"
  "github.com/synb/weather-backend/internal/logger"
)

type SQLiteService struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewSQLiteService(log *logger.Logger) (*SQLiteService, error) {
  serviceLog := log.With("service", "SQLiteService")

  log.Info("Loading environment variables...")
  dataDir := utils.GetEnv("DATA_DIR", "data", log)
  dbFile := utils.GetEnv("DB_FILE", "weather.db", log)
  log.Debug("Environment variables loaded")

  if err := os.MkdirAll(dataDir, 0o755); err != nil {
    log.Error("Failed to create data directory", "dir", dataDir, "error", err)
    return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
  }

  dsn := filepath.Join(dataDir, dbFile)

  log.Info("Opening SQLite database...", "path", dsn)
  gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
  if err != nil {
    log.Error("Failed to open SQLite database", "error", err)
    return nil, fmt.Errorf("failed to open SQLite database: %w", err)
  }

  // Single writer at a time; avoids SQLITE_BUSY under concurrent requests.
  if err := gormDB.Exec(`PRAGMA journal_mode=WAL;`).Error; err != nil {
    log.Error("Failed to enable WAL journal mode", "error", err)
    return nil, fmt.Errorf("failed to enable WAL journal mode: %w", err)
  }
  log.Info("WAL journal mode enabled")

  return &SQLiteService{db: gormDB, log: serviceLog}, nil
}

// NewSQLiteServiceAt opens a database at an explicit path, bypassing env
// lookup. Used by tests with ":memory:".
func NewSQLiteServiceAt(path string, log *logger.Logger) (*SQLiteService, error) {
  serviceLog := log.With("service", "SQLiteService")
  gormDB, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
  if err != nil {
    return nil, fmt.Errorf("failed to open SQLite database: %w", err)
  }
  // an in-memory database is private to its connection, so the pool must
  // not hand out a second one
  if sqlDB, err := gormDB.DB(); err == nil {
    sqlDB.SetMaxOpenConns(1)
  }
  return &SQLiteService{db: gormDB, log: serviceLog}, nil
}

func (s *SQLiteService) AutoMigrateAll() error {
  s.log.Info("Auto migrating sqlite tables...")
  err := s.db.AutoMigrate(
    &types.WeatherObservation{},
    &types.FetchRun{},
  )
  if err != nil {
    s.log.Error("Auto migration failed for sqlite tables", "error", err)
    return err
  }
  return nil
}

func (s *SQLiteService) DB() *gorm.DB {
  return s.db
}
