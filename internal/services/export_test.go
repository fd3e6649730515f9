package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/synb/weather-backend/internal/repos"
)

func newExportServiceForTest(t *testing.T, seedHours int) ExportService {
	t.Helper()
	t.Setenv("EXPORT_DIR", t.TempDir())

	gdb, log := testServiceDB(t)
	observationRepo := repos.NewObservationRepo(gdb, log)
	fetchRunRepo := repos.NewFetchRunRepo(gdb, log)
	ws := NewWeatherService(gdb, log, observationRepo, fetchRunRepo, nil)

	if seedHours > 0 {
		base := time.Now().Add(-time.Duration(seedHours) * time.Hour).Truncate(time.Hour)
		if _, err := observationRepo.UpsertBatch(context.Background(), nil, sampleObservations(seedHours, base)); err != nil {
			t.Fatalf("seed observations: %v", err)
		}
	}

	cs, err := NewChartService(log)
	if err != nil {
		t.Fatalf("NewChartService: %v", err)
	}
	es, err := NewExportService(log, ws, cs)
	if err != nil {
		t.Fatalf("NewExportService: %v", err)
	}
	return es
}

func TestExportServiceExcel(t *testing.T) {
	es := newExportServiceForTest(t, 24)

	path, err := es.ExportExcel(context.Background(), nil, 48)
	if err != nil {
		t.Fatalf("ExportExcel: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "weather_data_") || !strings.HasSuffix(path, ".xlsx") {
		t.Fatalf("unexpected export file name %q", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	header, err := f.GetCellValue(excelSheetName, "B1")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if !strings.HasPrefix(header, "Temperature") {
		t.Fatalf("unexpected header %q", header)
	}

	rows, err := f.GetRows(excelSheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 25 {
		t.Fatalf("expected header + 24 rows, got %d", len(rows))
	}
}

func TestExportServicePDF(t *testing.T) {
	es := newExportServiceForTest(t, 24)

	path, err := es.ExportPDF(context.Background(), nil, 48)
	if err != nil {
		t.Fatalf("ExportPDF: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "weather_report_") || !strings.HasSuffix(path, ".pdf") {
		t.Fatalf("unexpected export file name %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Fatalf("output does not start with a pdf header")
	}
	if len(data) < 10_000 {
		t.Fatalf("pdf suspiciously small (%d bytes), chart likely missing", len(data))
	}
}

func TestExportServiceNoData(t *testing.T) {
	es := newExportServiceForTest(t, 0)

	if _, err := es.ExportExcel(context.Background(), nil, 48); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData from excel export, got %v", err)
	}
	if _, err := es.ExportPDF(context.Background(), nil, 48); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData from pdf export, got %v", err)
	}
}
