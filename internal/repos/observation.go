package repos

import (
  "context"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"
  "github.com/synb/weather-backend/internal/logger"
  "github.com/synb/weather-backend/internal/types"
)

type ObservationRepo interface {
  UpsertBatch(ctx context.Context, tx *gorm.DB, observations []*types.WeatherObservation) ([]*types.WeatherObservation, error)
  GetRange(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]*types.WeatherObservation, error)
  GetAll(ctx context.Context, tx *gorm.DB) ([]*types.WeatherObservation, error)
  CountAll(ctx context.Context, tx *gorm.DB) (int64, error)
  MinMaxTimestamp(ctx context.Context, tx *gorm.DB) (*time.Time, *time.Time, error)
  FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type observationRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewObservationRepo(db *gorm.DB, baseLog *logger.Logger) ObservationRepo {
  repoLog := baseLog.With("repo", "ObservationRepo")
  return &observationRepo{db: db, log: repoLog}
}

func (r *observationRepo) UpsertBatch(ctx context.Context, tx *gorm.DB, observations []*types.WeatherObservation) ([]*types.WeatherObservation, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(observations) == 0 {
    return []*types.WeatherObservation{}, nil
  }

  for _, obs := range observations {
    if obs.ID == uuid.Nil {
      obs.ID = uuid.New()
    }
  }

  if err := transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns:   []clause.Column{{Name: "timestamp"}, {Name: "latitude"}, {Name: "longitude"}},
      DoUpdates: clause.AssignmentColumns([]string{"temperature_2m", "relative_humidity_2m", "updated_at"}),
    }).
    Create(&observations).Error; err != nil {
    return nil, err
  }
  return observations, nil
}

func (r *observationRepo) GetRange(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]*types.WeatherObservation, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.WeatherObservation
  if err := transaction.WithContext(ctx).
    Where("timestamp >= ? AND timestamp <= ?", from, to).
    Order("timestamp ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *observationRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.WeatherObservation, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.WeatherObservation
  if err := transaction.WithContext(ctx).
    Order("timestamp DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *observationRepo) CountAll(ctx context.Context, tx *gorm.DB) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.WeatherObservation{}).
    Count(&count).Error; err != nil {
    return 0, err
  }
  return count, nil
}

func (r *observationRepo) MinMaxTimestamp(ctx context.Context, tx *gorm.DB) (*time.Time, *time.Time, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var oldest, newest []*types.WeatherObservation
  if err := transaction.WithContext(ctx).
    Order("timestamp ASC").
    Limit(1).
    Find(&oldest).Error; err != nil {
    return nil, nil, err
  }
  if len(oldest) == 0 {
    return nil, nil, nil
  }
  if err := transaction.WithContext(ctx).
    Order("timestamp DESC").
    Limit(1).
    Find(&newest).Error; err != nil {
    return nil, nil, err
  }
  return &oldest[0].Timestamp, &newest[0].Timestamp, nil
}

func (r *observationRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(ids) == 0 {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", ids).
    Delete(&types.WeatherObservation{}).Error; err != nil {
    return err
  }
  return nil
}
