package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidcarrera/tradebinder-backend/pkg/enums"
)

// CardInstance is one owned-card ledger entry in a user's collection.
//
// A wishlist-status row describes a wanted card, not an owned one; it never
// counts toward owned totals or deck allocations.
type CardInstance struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID           `gorm:"type:uuid;not null;index"`
	ScryfallID      *string             `gorm:"column:scryfall_id;type:text;index"`
	Name            string              `gorm:"type:text;not null;index"`
	Edition         string              `gorm:"type:text;not null"`
	CollectorNumber *string             `gorm:"column:collector_number;type:text"`
	Condition       enums.CardCondition `gorm:"type:card_condition;not null;default:'NM'"`
	Foil            bool                `gorm:"not null;default:false"`
	Quantity        int                 `gorm:"not null;default:1"`
	Price           decimal.Decimal     `gorm:"type:numeric(12,2);not null;default:0"`
	Status          enums.CardStatus    `gorm:"type:card_status;not null;default:'collection'"`
	Public          bool                `gorm:"not null;default:false"`
	ImageURL        *string             `gorm:"column:image_url;type:text"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
