package types

import (
	"time"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	FetchRunStatusOK     = "ok"
	FetchRunStatusFailed = "failed"
)

// FetchRun records one call against the upstream forecast API.
type FetchRun struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Latitude   float64        `gorm:"not null" json:"latitude"`
	Longitude  float64        `gorm:"not null" json:"longitude"`
	DataPoints int            `gorm:"not null;default:0" json:"data_points"`
	Status     string         `gorm:"not null;index" json:"status"`
	Error      string         `json:"error,omitempty"`
	RawPayload datatypes.JSON `gorm:"column:raw_payload" json:"raw_payload,omitempty"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (FetchRun) TableName() string { return "fetch_run" }
