package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/davidcarrera/tradebinder-backend/pkg/db/types"
	"github.com/davidcarrera/tradebinder-backend/pkg/enums"
)

// SavedMatch is a discovered match the owner chose to keep. It has its own
// lifecycle: created on "I'm interested", deleted on discard or completion.
type SavedMatch struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID        `gorm:"type:uuid;not null;index:idx_saved_matches_user_key,unique"`
	MatchKey        string           `gorm:"column:match_key;type:text;not null;index:idx_saved_matches_user_key,unique"`
	OtherUserID     uuid.UUID        `gorm:"column:other_user_id;type:uuid;not null"`
	OtherUsername   string           `gorm:"column:other_username;type:text;not null"`
	OtherLocation   *string          `gorm:"column:other_location;type:text"`
	Type            enums.MatchType  `gorm:"type:match_type;not null"`
	MyCards         dbtypes.CardLines `gorm:"column:my_cards;type:jsonb;not null"`
	OtherCards      dbtypes.CardLines `gorm:"column:other_cards;type:jsonb;not null"`
	MyTotalValue    decimal.Decimal  `gorm:"column:my_total_value;type:numeric(12,2);not null;default:0"`
	TheirTotalValue decimal.Decimal  `gorm:"column:their_total_value;type:numeric(12,2);not null;default:0"`
	ValueDifference decimal.Decimal  `gorm:"column:value_difference;type:numeric(12,2);not null;default:0"`
	Compatibility   int              `gorm:"not null;default:0"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
}
