package services

import (
  "context"
  "errors"
  "fmt"
  "testing"
  "time"

  "gorm.io/gorm"

  "github.com/synb/weather-backend/internal/clients/openmeteo"
  "github.com/synb/weather-backend/internal/db"
  "github.com/synb/weather-backend/internal/logger"
  "github.com/synb/weather-backend/internal/repos"
  "github.com/synb/weather-backend/internal/types"
)

type fakeMeteoClient struct {
  resp *openmeteo.ForecastResponse
  err  error
}

func (f *fakeMeteoClient) Forecast(ctx context.Context, lat, lon float64) (*openmeteo.ForecastResponse, error) {
  if f.err != nil {
    return nil, f.err
  }
  return f.resp, nil
}

func testServiceDB(t *testing.T) (*gorm.DB, *logger.Logger) {
  t.Helper()
  log := testLogger(t)
  svc, err := db.NewSQLiteServiceAt(":memory:", log)
  if err != nil {
    t.Fatalf("NewSQLiteServiceAt: %v", err)
  }
  if err := svc.AutoMigrateAll(); err != nil {
    t.Fatalf("AutoMigrateAll: %v", err)
  }
  return svc.DB(), log
}

func fakeForecast(base time.Time, n int) *openmeteo.ForecastResponse {
  resp := &openmeteo.ForecastResponse{Raw: []byte(`{"hourly":{}}`)}
  for i := 0; i < n; i++ {
    resp.Hourly.Time = append(resp.Hourly.Time, base.Add(time.Duration(i)*time.Hour).Format(openmeteo.TimeLayout))
    resp.Hourly.Temperature2M = append(resp.Hourly.Temperature2M, ptrFloat(15+float64(i)))
    resp.Hourly.RelativeHumidity2M = append(resp.Hourly.RelativeHumidity2M, ptrFloat(55+float64(i)))
  }
  return resp
}

func newWeatherServiceForTest(t *testing.T, client openmeteo.Client) (WeatherService, *gorm.DB, repos.ObservationRepo, repos.FetchRunRepo) {
  t.Helper()
  gdb, log := testServiceDB(t)
  observationRepo := repos.NewObservationRepo(gdb, log)
  fetchRunRepo := repos.NewFetchRunRepo(gdb, log)
  ws := NewWeatherService(gdb, log, observationRepo, fetchRunRepo, client)
  return ws, gdb, observationRepo, fetchRunRepo
}

func TestWeatherServiceFetchAndStore(t *testing.T) {
  base := time.Now().Add(-24 * time.Hour).Truncate(time.Hour)
  ws, _, observationRepo, fetchRunRepo := newWeatherServiceForTest(t, &fakeMeteoClient{resp: fakeForecast(base, 24)})
  ctx := context.Background()

  result, err := ws.FetchAndStore(ctx, nil, 47.37, 8.55)
  if err != nil {
    t.Fatalf("FetchAndStore: %v", err)
  }
  if result.DataPoints != 24 {
    t.Fatalf("expected 24 data points, got %d", result.DataPoints)
  }

  count, err := observationRepo.CountAll(ctx, nil)
  if err != nil || count != 24 {
    t.Fatalf("CountAll: err=%v count=%d", err, count)
  }

  runs, err := fetchRunRepo.GetRecent(ctx, nil, 5)
  if err != nil || len(runs) != 1 {
    t.Fatalf("GetRecent: err=%v len=%d", err, len(runs))
  }
  if runs[0].Status != types.FetchRunStatusOK || runs[0].DataPoints != 24 {
    t.Fatalf("fetch run not recorded as ok: %+v", runs[0])
  }

  // fetching the same window again must not duplicate rows
  if _, err := ws.FetchAndStore(ctx, nil, 47.37, 8.55); err != nil {
    t.Fatalf("second FetchAndStore: %v", err)
  }
  count, err = observationRepo.CountAll(ctx, nil)
  if err != nil || count != 24 {
    t.Fatalf("refetch duplicated rows: err=%v count=%d", err, count)
  }
}

func TestWeatherServiceFetchAndStoreUpstreamFailure(t *testing.T) {
  ws, _, _, fetchRunRepo := newWeatherServiceForTest(t, &fakeMeteoClient{err: fmt.Errorf("connection refused")})
  ctx := context.Background()

  _, err := ws.FetchAndStore(ctx, nil, 47.37, 8.55)
  if !errors.Is(err, ErrUpstream) {
    t.Fatalf("expected ErrUpstream, got %v", err)
  }

  runs, err := fetchRunRepo.GetRecent(ctx, nil, 5)
  if err != nil || len(runs) != 1 {
    t.Fatalf("GetRecent: err=%v len=%d", err, len(runs))
  }
  if runs[0].Status != types.FetchRunStatusFailed {
    t.Fatalf("expected failed fetch run, got %+v", runs[0])
  }
}

func TestWeatherServiceGetRange(t *testing.T) {
  base := time.Now().Add(-72 * time.Hour).Truncate(time.Hour)
  ws, _, _, _ := newWeatherServiceForTest(t, &fakeMeteoClient{resp: fakeForecast(base, 72)})
  ctx := context.Background()

  if _, err := ws.FetchAndStore(ctx, nil, 47.37, 8.55); err != nil {
    t.Fatalf("FetchAndStore: %v", err)
  }

  rows, err := ws.GetRange(ctx, nil, 48)
  if err != nil {
    t.Fatalf("GetRange: %v", err)
  }
  if len(rows) == 0 || len(rows) > 49 {
    t.Fatalf("unexpected window size %d", len(rows))
  }
  for _, row := range rows {
    if time.Since(row.Timestamp) > 49*time.Hour {
      t.Fatalf("row outside window: %v", row.Timestamp)
    }
  }
}

func TestWeatherServiceDebugSnapshot(t *testing.T) {
  base := time.Now().Add(-12 * time.Hour).Truncate(time.Hour)
  ws, _, _, _ := newWeatherServiceForTest(t, &fakeMeteoClient{resp: fakeForecast(base, 12)})
  ctx := context.Background()

  if _, err := ws.FetchAndStore(ctx, nil, 47.37, 8.55); err != nil {
    t.Fatalf("FetchAndStore: %v", err)
  }

  snapshot, err := ws.DebugSnapshot(ctx, nil)
  if err != nil {
    t.Fatalf("DebugSnapshot: %v", err)
  }
  if snapshot.TotalRecords != 12 {
    t.Fatalf("expected 12 records, got %d", snapshot.TotalRecords)
  }
  if snapshot.TotalReturned != 12 {
    t.Fatalf("expected 12 returned records, got %d", snapshot.TotalReturned)
  }
  if snapshot.OldestRecord == nil || snapshot.NewestRecord == nil {
    t.Fatalf("expected record bounds")
  }
  if len(snapshot.SampleData) != 10 {
    t.Fatalf("expected 10 sample rows, got %d", len(snapshot.SampleData))
  }
  if !snapshot.SampleData[0].Timestamp.After(snapshot.SampleData[9].Timestamp) {
    t.Fatalf("sample not ordered newest first")
  }
  if len(snapshot.RecentFetches) != 1 {
    t.Fatalf("expected 1 fetch run, got %d", len(snapshot.RecentFetches))
  }
}

func TestWeatherServicePruneOlderThan(t *testing.T) {
  base := time.Now().Add(-96 * time.Hour).Truncate(time.Hour)
  ws, _, observationRepo, _ := newWeatherServiceForTest(t, &fakeMeteoClient{resp: fakeForecast(base, 96)})
  ctx := context.Background()

  if _, err := ws.FetchAndStore(ctx, nil, 47.37, 8.55); err != nil {
    t.Fatalf("FetchAndStore: %v", err)
  }

  deleted, err := ws.PruneOlderThan(ctx, nil, 48)
  if err != nil {
    t.Fatalf("PruneOlderThan: %v", err)
  }
  // 96 hourly rows, roughly half older than the 48h cutoff
  if deleted < 47 || deleted > 49 {
    t.Fatalf("unexpected prune count %d", deleted)
  }

  count, err := observationRepo.CountAll(ctx, nil)
  if err != nil {
    t.Fatalf("CountAll: %v", err)
  }
  if int(count)+deleted != 96 {
    t.Fatalf("prune lost rows: count=%d deleted=%d", count, deleted)
  }

  // disabled retention is a no-op
  if deleted, err := ws.PruneOlderThan(ctx, nil, 0); err != nil || deleted != 0 {
    t.Fatalf("PruneOlderThan with 0 hours: deleted=%d err=%v", deleted, err)
  }
}
