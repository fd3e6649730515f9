package repos

import (
  "testing"
  "gorm.io/gorm"
  "github.com/synb/weather-backend/internal/db"
  "github.com/synb/weather-backend/internal/logger"
)

func testDB(t *testing.T) (*gorm.DB, *logger.Logger) {
  t.Helper()
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("logger.New: %v", err)
  }
  svc, err := db.NewSQLiteServiceAt(":memory:", log)
  if err != nil {
    t.Fatalf("NewSQLiteServiceAt: %v", err)
  }
  if err := svc.AutoMigrateAll(); err != nil {
    t.Fatalf("AutoMigrateAll: %v", err)
  }
  return svc.DB(), log
}
