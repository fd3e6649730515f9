package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/synb/weather-backend/internal/logger"
  "github.com/synb/weather-backend/internal/types"
)

type FetchRunRepo interface {
  Create(ctx context.Context, tx *gorm.DB, runs []*types.FetchRun) ([]*types.FetchRun, error)
  GetRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.FetchRun, error)
}

type fetchRunRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewFetchRunRepo(db *gorm.DB, baseLog *logger.Logger) FetchRunRepo {
  repoLog := baseLog.With("repo", "FetchRunRepo")
  return &fetchRunRepo{db: db, log: repoLog}
}

func (r *fetchRunRepo) Create(ctx context.Context, tx *gorm.DB, runs []*types.FetchRun) ([]*types.FetchRun, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(runs) == 0 {
    return []*types.FetchRun{}, nil
  }

  for _, run := range runs {
    if run.ID == uuid.Nil {
      run.ID = uuid.New()
    }
  }

  if err := transaction.WithContext(ctx).Create(&runs).Error; err != nil {
    return nil, err
  }
  return runs, nil
}

func (r *fetchRunRepo) GetRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.FetchRun, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.FetchRun
  if limit <= 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Order("created_at DESC").
    Limit(limit).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
