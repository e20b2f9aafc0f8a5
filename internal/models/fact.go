package models

import (
	"time"
)

// Fact is a single servable fact. Facts are soft-deleted via IsActive so
// favorites keep their referential integrity.
type Fact struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Category  string    `gorm:"size:50;not null;default:general" json:"category"`
	IsActive  bool      `gorm:"default:true" json:"-"`
	ViewCount int64     `gorm:"not null;default:0" json:"view_count"`
	CreatedAt time.Time `json:"created_at"`

	Favorites []Favorite `gorm:"foreignKey:FactID;constraint:OnDelete:CASCADE" json:"-"`
}
