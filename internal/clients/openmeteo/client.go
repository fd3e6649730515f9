package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/synb/weather-backend/internal/logger"
	"github.com/synb/weather-backend/internal/utils"
)

const defaultBaseURL = "https://api.open-meteo.com"

// timestamps in the hourly block look like "2024-05-17T13:00"
const TimeLayout = "2006-01-02T15:04"

// HourlyBlock carries the parallel arrays the forecast endpoint returns.
// time[i], temperature_2m[i] and relative_humidity_2m[i] belong together.
type HourlyBlock struct {
	Time               []string   `json:"time"`
	Temperature2M      []*float64 `json:"temperature_2m"`
	RelativeHumidity2M []*float64 `json:"relative_humidity_2m"`
}

type ForecastResponse struct {
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	Hourly    HourlyBlock `json:"hourly"`

	// Raw is the unmodified response body, kept for fetch auditing.
	Raw []byte `json:"-"`
}

// Client is the Open-Meteo forecast API client used by the rest of the backend.
type Client interface {
	Forecast(ctx context.Context, lat, lon float64) (*ForecastResponse, error)
}

type client struct {
	log        *logger.Logger
	httpClient *http.Client
	baseURL    string
	pastDays   int
}

func NewClient(log *logger.Logger) Client {
	clientLog := log.With("client", "OpenMeteoClient")
	baseURL := utils.GetEnv("OPEN_METEO_BASE_URL", defaultBaseURL, log)
	timeout := utils.GetEnvAsDuration("OPEN_METEO_TIMEOUT", 10*time.Second, log)
	pastDays := utils.GetEnvAsInt("OPEN_METEO_PAST_DAYS", 2, log)
	return &client{
		log:        clientLog,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		pastDays:   pastDays,
	}
}

func (c *client) Forecast(ctx context.Context, lat, lon float64) (*ForecastResponse, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%g", lat))
	q.Set("longitude", fmt.Sprintf("%g", lon))
	q.Set("hourly", "temperature_2m,relative_humidity_2m")
	q.Set("past_days", fmt.Sprintf("%d", c.pastDays))

	endpoint := fmt.Sprintf("%s/v1/forecast?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build forecast request: %w", err)
	}

	c.log.Debug("Fetching forecast", "lat", lat, "lon", lon)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read forecast response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("forecast request returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed ForecastResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode forecast response: %w", err)
	}
	if len(parsed.Hourly.Time) != len(parsed.Hourly.Temperature2M) ||
		len(parsed.Hourly.Time) != len(parsed.Hourly.RelativeHumidity2M) {
		return nil, fmt.Errorf("forecast hourly arrays are not the same length: time=%d temperature=%d humidity=%d",
			len(parsed.Hourly.Time), len(parsed.Hourly.Temperature2M), len(parsed.Hourly.RelativeHumidity2M))
	}
	parsed.Raw = body

	c.log.Debug("Forecast fetched", "data_points", len(parsed.Hourly.Time))
	return &parsed, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
