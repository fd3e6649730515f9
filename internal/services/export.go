package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/synb/weather-backend/internal/logger"
	"github.com/synb/weather-backend/internal/utils"
)

const excelSheetName = "Weather Data"

// ExportService writes Excel workbooks and PDF reports for a window of
// observations into the exports directory and returns the file path.
type ExportService interface {
	ExportExcel(ctx context.Context, tx *gorm.DB, hours int) (string, error)
	ExportPDF(ctx context.Context, tx *gorm.DB, hours int) (string, error)
}

type exportService struct {
	log            *logger.Logger
	exportDir      string
	weatherService WeatherService
	chartService   ChartService
}

func NewExportService(baseLog *logger.Logger, weatherService WeatherService, chartService ChartService) (ExportService, error) {
	serviceLog := baseLog.With("service", "ExportService")

	exportDir := utils.GetEnv("EXPORT_DIR", "exports", baseLog)
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory %s: %w", exportDir, err)
	}

	return &exportService{
		log:            serviceLog,
		exportDir:      exportDir,
		weatherService: weatherService,
		chartService:   chartService,
	}, nil
}

func (es *exportService) ExportExcel(ctx context.Context, tx *gorm.DB, hours int) (string, error) {
	observations, err := es.weatherService.GetRange(ctx, tx, hours)
	if err != nil {
		return "", err
	}
	if len(observations) == 0 {
		return "", ErrNoData
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", excelSheetName); err != nil {
		return "", fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{"Timestamp", "Temperature (°C)", "Relative Humidity (%)"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(excelSheetName, cell, header); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
	}

	for row, obs := range observations {
		tsCell, _ := excelize.CoordinatesToCellName(1, row+2)
		if err := f.SetCellValue(excelSheetName, tsCell, obs.Timestamp); err != nil {
			return "", fmt.Errorf("write timestamp row %d: %w", row+2, err)
		}
		if obs.Temperature2M != nil {
			cell, _ := excelize.CoordinatesToCellName(2, row+2)
			if err := f.SetCellValue(excelSheetName, cell, *obs.Temperature2M); err != nil {
				return "", fmt.Errorf("write temperature row %d: %w", row+2, err)
			}
		}
		if obs.RelativeHumidity2M != nil {
			cell, _ := excelize.CoordinatesToCellName(3, row+2)
			if err := f.SetCellValue(excelSheetName, cell, *obs.RelativeHumidity2M); err != nil {
				return "", fmt.Errorf("write humidity row %d: %w", row+2, err)
			}
		}
	}

	tsFormat := "yyyy-mm-dd hh:mm:ss"
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &tsFormat})
	if err != nil {
		return "", fmt.Errorf("timestamp style: %w", err)
	}
	lastTS, _ := excelize.CoordinatesToCellName(1, len(observations)+1)
	if err := f.SetCellStyle(excelSheetName, "A2", lastTS, style); err != nil {
		return "", fmt.Errorf("apply timestamp style: %w", err)
	}
	if err := f.SetColWidth(excelSheetName, "A", "C", 24); err != nil {
		return "", fmt.Errorf("set column width: %w", err)
	}

	path := filepath.Join(es.exportDir, fmt.Sprintf("weather_data_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	es.log.Info("Excel export written", "path", path, "records", len(observations))
	return path, nil
}

func (es *exportService) ExportPDF(ctx context.Context, tx *gorm.DB, hours int) (string, error) {
	observations, err := es.weatherService.GetRange(ctx, tx, hours)
	if err != nil {
		return "", err
	}
	if len(observations) == 0 {
		return "", ErrNoData
	}

	stats, err := ComputeStats(observations)
	if err != nil {
		return "", err
	}
	chartPNG, err := es.chartService.Render(observations)
	if err != nil {
		return "", fmt.Errorf("render chart: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	// header
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(0x2c, 0x52, 0x82)
	pdf.CellFormat(0, 10, "Weather Data Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 13)
	pdf.SetTextColor(0x4a, 0x55, 0x68)
	pdf.CellFormat(0, 8, "Temperature and Humidity Analysis", "", 1, "C", false, 0, "")
	pdf.SetDrawColor(0x2c, 0x52, 0x82)
	pdf.SetLineWidth(0.8)
	pdf.Line(20, pdf.GetY()+2, 190, pdf.GetY()+2)
	pdf.Ln(8)

	// metadata block
	first, last := observations[0], observations[len(observations)-1]
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0x2d, 0x37, 0x48)
	meta := [][2]string{
		{"Location:", tr(fmt.Sprintf("Lat %.2f°, Lon %.2f°", first.Latitude, first.Longitude))},
		{"Data Points:", fmt.Sprintf("%d records", len(observations))},
		{"Date Range:", fmt.Sprintf("%s to %s", first.Timestamp.Format("2006-01-02 15:04"), last.Timestamp.Format("2006-01-02 15:04"))},
		{"Generated:", time.Now().Format("2006-01-02 15:04:05")},
	}
	for _, item := range meta {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(35, 7, item[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 7, item[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// statistics grid
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0x2c, 0x52, 0x82)
	pdf.CellFormat(0, 8, "Statistical Summary", "", 1, "L", false, 0, "")
	statBoxes := [][2]string{
		{tr(fmt.Sprintf("%.1f°C", stats.AvgTemperature)), "Average Temperature"},
		{fmt.Sprintf("%.1f%%", stats.AvgHumidity), "Average Humidity"},
		{tr(fmt.Sprintf("%.1f°C / %.1f°C", stats.MinTemperature, stats.MaxTemperature)), "Min / Max Temperature"},
		{tr(fmt.Sprintf("%.1f°C", stats.TemperatureRange)), "Temperature Range"},
	}
	boxWidth := 42.5
	for _, box := range statBoxes {
		x, y := pdf.GetX(), pdf.GetY()
		pdf.SetFillColor(0xed, 0xf2, 0xf7)
		pdf.Rect(x, y, boxWidth-2, 16, "F")
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(0x2c, 0x52, 0x82)
		pdf.SetXY(x, y+2)
		pdf.CellFormat(boxWidth-2, 6, box[0], "", 0, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 7)
		pdf.SetTextColor(0x71, 0x80, 0x96)
		pdf.SetXY(x, y+9)
		pdf.CellFormat(boxWidth-2, 5, box[1], "", 0, "C", false, 0, "")
		pdf.SetXY(x+boxWidth, y)
	}
	pdf.Ln(20)

	// chart
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("weather-chart", opts, bytes.NewReader(chartPNG))
	pdf.ImageOptions("weather-chart", 20, pdf.GetY(), 170, 0, false, opts, 0, "")

	// data table on its own page
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0x2c, 0x52, 0x82)
	pdf.CellFormat(0, 8, "Recent Data Sample (First 10 Records)", "", 1, "L", false, 0, "")
	pdf.SetFillColor(0x2c, 0x52, 0x82)
	pdf.SetTextColor(0xff, 0xff, 0xff)
	pdf.SetFont("Helvetica", "B", 10)
	for _, header := range []string{"Timestamp", "Temperature", "Humidity"} {
		pdf.CellFormat(56, 8, header, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0x2d, 0x37, 0x48)
	sample := observations
	if len(sample) > 10 {
		sample = sample[:10]
	}
	for i, obs := range sample {
		fill := i%2 == 1
		pdf.SetFillColor(0xf7, 0xfa, 0xfc)
		pdf.CellFormat(56, 7, obs.Timestamp.Format("2006-01-02 15:04"), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(56, 7, tr(formatReading(obs.Temperature2M, "°C")), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(56, 7, formatReading(obs.RelativeHumidity2M, "%"), "1", 1, "L", fill, 0, "")
	}

	// footer
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(0x71, 0x80, 0x96)
	pdf.CellFormat(0, 5, "Data Source: Open-Meteo Forecast API", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, "Generated by: Weather Data Backend Service", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Report Type: %d-Hour Weather Analysis", normalizeHours(hours)), "", 1, "C", false, 0, "")

	path := filepath.Join(es.exportDir, fmt.Sprintf("weather_report_%s.pdf", time.Now().Format("20060102_150405")))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("save pdf: %w", err)
	}

	es.log.Info("PDF export written", "path", path, "records", len(observations))
	return path, nil
}

func formatReading(v *float64, unit string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%s", *v, unit)
}

func normalizeHours(hours int) int {
	if hours <= 0 {
		return 48
	}
	return hours
}
