package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidcarrera/tradebinder-backend/pkg/enums"
)

// PublicListing is the denormalized, cross-user-visible projection of a
// qualifying CardInstance or a Preference, used only for match discovery.
//
// Key is the durable identity `{ownerUserID}_{sourceID}`, which guarantees at
// most one listing per source record and makes upserts idempotent. Listings
// are written exclusively by the sync process on behalf of the owner.
type PublicListing struct {
	Key           string               `gorm:"type:text;primaryKey"`
	OwnerUserID   uuid.UUID            `gorm:"column:owner_user_id;type:uuid;not null;index"`
	OwnerUsername string               `gorm:"column:owner_username;type:text;not null"`
	OwnerLocation *string              `gorm:"column:owner_location;type:text"`
	OwnerAvatar   *string              `gorm:"column:owner_avatar;type:text"`
	ContactEmail  *string              `gorm:"column:contact_email;type:text"`
	Kind          enums.ListingKind    `gorm:"type:listing_kind;not null;index"`
	SourceID      uuid.UUID            `gorm:"column:source_id;type:uuid;not null"`
	CardName      string               `gorm:"column:card_name;type:text;not null;index"`
	ScryfallID    *string              `gorm:"column:scryfall_id;type:text"`
	Edition       *string              `gorm:"type:text"`
	Condition     *enums.CardCondition `gorm:"type:card_condition"`
	Foil          *bool
	Quantity      int                  `gorm:"not null;default:1"`
	Price         *decimal.Decimal     `gorm:"type:numeric(12,2)"`
	Status        *enums.CardStatus    `gorm:"type:card_status"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
