package services

import (
  "math"

  "github.com/synb/weather-backend/internal/types"
)

type WeatherStats struct {
  AvgTemperature   float64 `json:"avg_temperature"`
  MinTemperature   float64 `json:"min_temperature"`
  MaxTemperature   float64 `json:"max_temperature"`
  TemperatureRange float64 `json:"temperature_range"`
  AvgHumidity      float64 `json:"avg_humidity"`
}

// ComputeStats summarizes a window of observations. Samples with missing
// readings are skipped per metric.
func ComputeStats(observations []*types.WeatherObservation) (*WeatherStats, error) {
  if len(observations) == 0 {
    return nil, ErrNoData
  }

  var (
    tempSum     float64
    tempCount   int
    minTemp     = math.Inf(1)
    maxTemp     = math.Inf(-1)
    humiditySum float64
    humidityCount int
  )
  for _, obs := range observations {
    if obs.Temperature2M != nil {
      t := *obs.Temperature2M
      tempSum += t
      tempCount++
      if t < minTemp {
        minTemp = t
      }
      if t > maxTemp {
        maxTemp = t
      }
    }
    if obs.RelativeHumidity2M != nil {
      humiditySum += *obs.RelativeHumidity2M
      humidityCount++
    }
  }
  if tempCount == 0 && humidityCount == 0 {
    return nil, ErrNoData
  }

  stats := &WeatherStats{}
  if tempCount > 0 {
    stats.AvgTemperature = tempSum / float64(tempCount)
    stats.MinTemperature = minTemp
    stats.MaxTemperature = maxTemp
    stats.TemperatureRange = maxTemp - minTemp
  }
  if humidityCount > 0 {
    stats.AvgHumidity = humiditySum / float64(humidityCount)
  }
  return stats, nil
}
