package services

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/synb/weather-backend/internal/logger"
	"github.com/synb/weather-backend/internal/types"
)

const (
	chartWidth  = 1200
	chartHeight = 800

	chartMarginLeft   = 90.0
	chartMarginRight  = 40.0
	chartMarginTop    = 70.0
	chartMarginBottom = 70.0
	chartPanelGap     = 50.0
)

var (
	temperatureColor = color.NRGBA{R: 0xd6, G: 0x2b, B: 0x2b, A: 0xff}
	humidityColor    = color.NRGBA{R: 0x2b, G: 0x52, B: 0xd6, A: 0xff}
	gridColor        = color.NRGBA{R: 0xd0, G: 0xd0, B: 0xd0, A: 0xff}
	axisColor        = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
)

// ChartService renders the two-panel temperature/humidity chart embedded in
// PDF reports.
type ChartService interface {
	Render(observations []*types.WeatherObservation) ([]byte, error)
}

type chartService struct {
	log      *logger.Logger
	fontFace font.Face // nil means gg's built-in face
}

func NewChartService(log *logger.Logger) (ChartService, error) {
	serviceLog := log.With("service", "ChartService")

	var face font.Face
	fontPath := os.Getenv("CHART_FONT")
	if strings.TrimSpace(fontPath) != "" {
		serviceLog.Info("Loading chart font", "font", fontPath)
		loaded, err := loadFontFace(fontPath, 16)
		if err != nil {
			return nil, fmt.Errorf("could not load chart font: %w", err)
		}
		face = loaded
	}

	return &chartService{log: serviceLog, fontFace: face}, nil
}

func loadFontFace(path string, points float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: points}), nil
}

type chartSeries struct {
	label string
	color color.NRGBA
	value func(*types.WeatherObservation) *float64
	unit  string
}

func (cs *chartService) Render(observations []*types.WeatherObservation) ([]byte, error) {
	if len(observations) == 0 {
		return nil, ErrNoData
	}

	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	if cs.fontFace != nil {
		dc.SetFontFace(cs.fontFace)
	}

	panelHeight := (chartHeight - chartMarginTop - chartMarginBottom - chartPanelGap) / 2
	panels := []chartSeries{
		{
			label: "Temperature",
			color: temperatureColor,
			value: func(o *types.WeatherObservation) *float64 { return o.Temperature2M },
			unit:  "Temperature (°C)",
		},
		{
			label: "Humidity",
			color: humidityColor,
			value: func(o *types.WeatherObservation) *float64 { return o.RelativeHumidity2M },
			unit:  "Relative Humidity (%)",
		},
	}

	title := fmt.Sprintf("Temperature and Humidity Over Time (Last %d Hours)", len(observations))
	dc.SetColor(axisColor)
	dc.DrawStringAnchored(title, chartWidth/2, chartMarginTop/2, 0.5, 0.5)

	for i, series := range panels {
		top := chartMarginTop + float64(i)*(panelHeight+chartPanelGap)
		cs.drawPanel(dc, observations, series, top, panelHeight, i == len(panels)-1)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode chart png: %w", err)
	}
	cs.log.Debug("Chart rendered", "records", len(observations), "bytes", buf.Len())
	return buf.Bytes(), nil
}

func (cs *chartService) drawPanel(dc *gg.Context, observations []*types.WeatherObservation, series chartSeries, top, height float64, drawTimeAxis bool) {
	left := chartMarginLeft
	right := float64(chartWidth) - chartMarginRight
	bottom := top + height

	// value range with a little headroom
	lo, hi, ok := seriesRange(observations, series.value)
	if !ok {
		lo, hi = 0, 1
	}
	if hi == lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.1
	lo -= pad
	hi += pad

	tMin := observations[0].Timestamp
	tMax := observations[len(observations)-1].Timestamp
	span := tMax.Sub(tMin)
	if span <= 0 {
		span = time.Hour
	}

	xOf := func(ts time.Time) float64 {
		return left + (right-left)*float64(ts.Sub(tMin))/float64(span)
	}
	yOf := func(v float64) float64 {
		return bottom - (bottom-top)*(v-lo)/(hi-lo)
	}

	// frame and horizontal gridlines with value labels
	dc.SetColor(gridColor)
	dc.SetLineWidth(1)
	const gridLines = 5
	for g := 0; g <= gridLines; g++ {
		v := lo + (hi-lo)*float64(g)/gridLines
		y := yOf(v)
		dc.DrawLine(left, y, right, y)
		dc.Stroke()
		dc.SetColor(axisColor)
		dc.DrawStringAnchored(fmt.Sprintf("%.1f", v), left-10, y, 1, 0.5)
		dc.SetColor(gridColor)
	}
	dc.SetColor(axisColor)
	dc.DrawRectangle(left, top, right-left, height)
	dc.Stroke()

	// y axis label
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), 25, top+height/2)
	dc.DrawStringAnchored(series.unit, 25, top+height/2, 0.5, 0.5)
	dc.Pop()

	// data line; gaps in the readings break the polyline
	dc.SetColor(series.color)
	dc.SetLineWidth(2)
	started := false
	for _, obs := range observations {
		v := series.value(obs)
		if v == nil {
			if started {
				dc.Stroke()
				started = false
			}
			continue
		}
		x, y := xOf(obs.Timestamp), yOf(*v)
		if !started {
			dc.MoveTo(x, y)
			started = true
		} else {
			dc.LineTo(x, y)
		}
	}
	if started {
		dc.Stroke()
	}

	// legend, top-right corner of the panel
	legendX := right - 150
	legendY := top + 18
	dc.SetLineWidth(3)
	dc.DrawLine(legendX, legendY, legendX+30, legendY)
	dc.Stroke()
	dc.SetColor(axisColor)
	dc.DrawStringAnchored(series.label, legendX+40, legendY, 0, 0.5)

	if drawTimeAxis {
		cs.drawTimeTicks(dc, tMin, tMax, left, right, bottom)
	}
}

func (cs *chartService) drawTimeTicks(dc *gg.Context, tMin, tMax time.Time, left, right, bottom float64) {
	span := tMax.Sub(tMin)
	if span <= 0 {
		span = time.Hour
	}
	const ticks = 8
	dc.SetColor(axisColor)
	for g := 0; g <= ticks; g++ {
		ts := tMin.Add(time.Duration(float64(span) * float64(g) / ticks))
		x := left + (right-left)*float64(g)/ticks
		dc.DrawLine(x, bottom, x, bottom+6)
		dc.Stroke()
		dc.DrawStringAnchored(ts.Format("01-02 15:04"), x, bottom+22, 0.5, 0.5)
	}
	dc.DrawStringAnchored("Time", (left+right)/2, bottom+48, 0.5, 0.5)
}

func seriesRange(observations []*types.WeatherObservation, value func(*types.WeatherObservation) *float64) (float64, float64, bool) {
	var lo, hi float64
	found := false
	for _, obs := range observations {
		v := value(obs)
		if v == nil {
			continue
		}
		if !found {
			lo, hi = *v, *v
			found = true
			continue
		}
		if *v < lo {
			lo = *v
		}
		if *v > hi {
			hi = *v
		}
	}
	return lo, hi, found
}
