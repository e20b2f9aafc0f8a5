package models

import (
	"time"
)

// ApiUsage is one append-only accounting row per completed request.
// Rows are written by the usage recorder middleware and never updated.
type ApiUsage struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Endpoint       string    `gorm:"size:100;not null" json:"endpoint"`
	Method         string    `gorm:"size:10;not null" json:"method"`
	IPAddress      string    `gorm:"size:45" json:"ip_address"`
	UserID         *uint     `gorm:"index" json:"user_id,omitempty"`
	ResponseCode   int       `json:"response_code"`
	ResponseTimeMs float64   `json:"response_time_ms"`
	Timestamp      time.Time `gorm:"index;autoCreateTime" json:"timestamp"`
}

// TableName keeps the historical table name used by the stats queries.
func (ApiUsage) TableName() string {
	return "api_usages"
}
