package types

import (
	"time"
	"github.com/google/uuid"
)

// WeatherObservation is one hourly sample for a location. The
// (timestamp, latitude, longitude) key is what ingestion upserts on.
type WeatherObservation struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Timestamp          time.Time `gorm:"not null;index;uniqueIndex:idx_observation_point,priority:1" json:"timestamp"`
	Latitude           float64   `gorm:"not null;uniqueIndex:idx_observation_point,priority:2" json:"latitude"`
	Longitude          float64   `gorm:"not null;uniqueIndex:idx_observation_point,priority:3" json:"longitude"`
	Temperature2M      *float64  `gorm:"column:temperature_2m" json:"temperature_2m,omitempty"`
	RelativeHumidity2M *float64  `gorm:"column:relative_humidity_2m" json:"relative_humidity_2m,omitempty"`
	CreatedAt          time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null" json:"updated_at"`
}

func (WeatherObservation) TableName() string { return "weather_observation" }
