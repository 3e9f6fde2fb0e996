package models

import (
	"time"

	"github.com/google/uuid"
)

// Deck groups allocated cards under a named build or binder.
type Deck struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:text;not null"`
	Format    *string   `gorm:"type:text"`
	SourceURL *string   `gorm:"column:source_url;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// DeckCard is one deck slot: a claim on some quantity of a collection card,
// or an unresolved slot when CardID is nil (imported but not yet owned).
type DeckCard struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	DeckID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	CardID        *uuid.UUID `gorm:"column:card_id;type:uuid;index"`
	Name          string     `gorm:"type:text;not null"`
	ScryfallID    *string    `gorm:"column:scryfall_id;type:text"`
	Edition       *string    `gorm:"type:text"`
	Quantity      int        `gorm:"not null;default:1"`
	IsInSideboard bool       `gorm:"column:is_in_sideboard;not null;default:false"`
	IsCommander   bool       `gorm:"column:is_commander;not null;default:false"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
}
