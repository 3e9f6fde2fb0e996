package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Preference is a declared want by card name, not tied to ownership.
type Preference struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	CardName   string           `gorm:"column:card_name;type:text;not null;index"`
	ScryfallID *string          `gorm:"column:scryfall_id;type:text"`
	MaxPrice   *decimal.Decimal `gorm:"column:max_price;type:numeric(12,2)"`
	Notes      *string          `gorm:"type:text"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
}
