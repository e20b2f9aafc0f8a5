package models

import (
	"time"
)

// Favorite links a user to a bookmarked fact.
// The combination of UserID and FactID must be unique; the composite index
// is the authoritative guard against duplicate pairs under concurrent adds.
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_fact" json:"user_id"`
	FactID    uint      `gorm:"not null;uniqueIndex:idx_user_fact" json:"fact_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Fact Fact `gorm:"foreignKey:FactID;constraint:OnDelete:CASCADE" json:"-"`
}
