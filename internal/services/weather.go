package services

import (
  "context"
  "errors"
  "fmt"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/synb/weather-backend/internal/clients/openmeteo"
  "github.com/synb/weather-backend/internal/logger"
  "github.com/synb/weather-backend/internal/repos"
  "github.com/synb/weather-backend/internal/types"
)

// ErrNoData is returned when a query window contains no observations.
var ErrNoData = errors.New("no data available")

// ErrUpstream wraps failures talking to the forecast API so handlers can
// distinguish them from internal errors.
var ErrUpstream = errors.New("upstream forecast request failed")

type FetchResult struct {
  Latitude   float64 `json:"latitude"`
  Longitude  float64 `json:"longitude"`
  DataPoints int     `json:"data_points"`
}

type DebugSnapshot struct {
  TotalRecords  int64                       `json:"total_records"`
  TotalReturned int                         `json:"total_records_returned"`
  OldestRecord  *time.Time                  `json:"oldest_record,omitempty"`
  NewestRecord  *time.Time                  `json:"newest_record,omitempty"`
  SampleData    []*types.WeatherObservation `json:"sample_data"`
  RecentFetches []*types.FetchRun           `json:"recent_fetches"`
}

type WeatherService interface {
  FetchAndStore(ctx context.Context, tx *gorm.DB, lat, lon float64) (*FetchResult, error)
  GetRange(ctx context.Context, tx *gorm.DB, hours int) ([]*types.WeatherObservation, error)
  DebugSnapshot(ctx context.Context, tx *gorm.DB) (*DebugSnapshot, error)
  PruneOlderThan(ctx context.Context, tx *gorm.DB, hours int) (int, error)
}

type weatherService struct {
  db              *gorm.DB
  log             *logger.Logger
  observationRepo repos.ObservationRepo
  fetchRunRepo    repos.FetchRunRepo
  meteoClient     openmeteo.Client
}

func NewWeatherService(
  db *gorm.DB,
  baseLog *logger.Logger,
  observationRepo repos.ObservationRepo,
  fetchRunRepo repos.FetchRunRepo,
  meteoClient openmeteo.Client,
) WeatherService {
  serviceLog := baseLog.With("service", "WeatherService")
  return &weatherService{
    db:              db,
    log:             serviceLog,
    observationRepo: observationRepo,
    fetchRunRepo:    fetchRunRepo,
    meteoClient:     meteoClient,
  }
}

func (ws *weatherService) FetchAndStore(ctx context.Context, tx *gorm.DB, lat, lon float64) (*FetchResult, error) {
  transaction := tx
  if transaction == nil {
    transaction = ws.db
  }

  forecast, err := ws.meteoClient.Forecast(ctx, lat, lon)
  if err != nil {
    ws.recordFetchRun(ctx, transaction, lat, lon, 0, types.FetchRunStatusFailed, err.Error(), nil)
    return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
  }

  observations := make([]*types.WeatherObservation, 0, len(forecast.Hourly.Time))
  for i, raw := range forecast.Hourly.Time {
    ts, err := time.ParseInLocation(openmeteo.TimeLayout, raw, time.Local)
    if err != nil {
      ws.log.Warn("Skipping hourly sample with unparseable timestamp", "timestamp", raw, "error", err)
      continue
    }
    observations = append(observations, &types.WeatherObservation{
      Timestamp:          ts,
      Latitude:           lat,
      Longitude:          lon,
      Temperature2M:      forecast.Hourly.Temperature2M[i],
      RelativeHumidity2M: forecast.Hourly.RelativeHumidity2M[i],
    })
  }

  if _, err := ws.observationRepo.UpsertBatch(ctx, transaction, observations); err != nil {
    ws.log.Error("FetchAndStore upsert failed", "error", err)
    ws.recordFetchRun(ctx, transaction, lat, lon, 0, types.FetchRunStatusFailed, err.Error(), forecast.Raw)
    return nil, fmt.Errorf("store observations: %w", err)
  }

  ws.recordFetchRun(ctx, transaction, lat, lon, len(observations), types.FetchRunStatusOK, "", forecast.Raw)

  ws.log.Info("Weather data fetched and stored", "lat", lat, "lon", lon, "data_points", len(observations))
  return &FetchResult{Latitude: lat, Longitude: lon, DataPoints: len(observations)}, nil
}

func (ws *weatherService) GetRange(ctx context.Context, tx *gorm.DB, hours int) ([]*types.WeatherObservation, error) {
  transaction := tx
  if transaction == nil {
    transaction = ws.db
  }

  if hours <= 0 {
    hours = 48
  }
  now := time.Now()
  from := now.Add(-time.Duration(hours) * time.Hour)

  observations, err := ws.observationRepo.GetRange(ctx, transaction, from, now)
  if err != nil {
    return nil, fmt.Errorf("load observations: %w", err)
  }
  ws.log.Debug("Loaded observation range", "from", from, "to", now, "records", len(observations))
  return observations, nil
}

func (ws *weatherService) DebugSnapshot(ctx context.Context, tx *gorm.DB) (*DebugSnapshot, error) {
  transaction := tx
  if transaction == nil {
    transaction = ws.db
  }

  total, err := ws.observationRepo.CountAll(ctx, transaction)
  if err != nil {
    return nil, fmt.Errorf("count observations: %w", err)
  }
  oldest, newest, err := ws.observationRepo.MinMaxTimestamp(ctx, transaction)
  if err != nil {
    return nil, fmt.Errorf("observation bounds: %w", err)
  }
  all, err := ws.observationRepo.GetAll(ctx, transaction)
  if err != nil {
    return nil, fmt.Errorf("load observations: %w", err)
  }
  fetches, err := ws.fetchRunRepo.GetRecent(ctx, transaction, 10)
  if err != nil {
    return nil, fmt.Errorf("recent fetch runs: %w", err)
  }
  if fetches == nil {
    fetches = []*types.FetchRun{}
  }

  // rows come back newest first; the snapshot only carries a sample
  sample := all
  if len(sample) > 10 {
    sample = sample[:10]
  }
  if sample == nil {
    sample = []*types.WeatherObservation{}
  }

  return &DebugSnapshot{
    TotalRecords:  total,
    TotalReturned: len(all),
    OldestRecord:  oldest,
    NewestRecord:  newest,
    SampleData:    sample,
    RecentFetches: fetches,
  }, nil
}

func (ws *weatherService) PruneOlderThan(ctx context.Context, tx *gorm.DB, hours int) (int, error) {
  transaction := tx
  if transaction == nil {
    transaction = ws.db
  }

  if hours <= 0 {
    return 0, nil
  }
  cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)

  stale, err := ws.observationRepo.GetRange(ctx, transaction, time.Time{}, cutoff)
  if err != nil {
    return 0, fmt.Errorf("load stale observations: %w", err)
  }
  if len(stale) == 0 {
    return 0, nil
  }

  ids := make([]uuid.UUID, 0, len(stale))
  for _, obs := range stale {
    ids = append(ids, obs.ID)
  }
  if err := ws.observationRepo.FullDeleteByIDs(ctx, transaction, ids); err != nil {
    return 0, fmt.Errorf("delete stale observations: %w", err)
  }

  ws.log.Info("Pruned stale observations", "cutoff", cutoff, "deleted", len(ids))
  return len(ids), nil
}

func (ws *weatherService) recordFetchRun(ctx context.Context, tx *gorm.DB, lat, lon float64, points int, status, errMsg string, raw []byte) {
  run := &types.FetchRun{
    Latitude:   lat,
    Longitude:  lon,
    DataPoints: points,
    Status:     status,
    Error:      errMsg,
  }
  if len(raw) > 0 {
    run.RawPayload = datatypes.JSON(raw)
  }
  if _, err := ws.fetchRunRepo.Create(ctx, tx, []*types.FetchRun{run}); err != nil {
    ws.log.Warn("Could not record fetch run", "error", err)
  }
}
