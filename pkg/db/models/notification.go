package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/davidcarrera/tradebinder-backend/pkg/db/types"
	"github.com/davidcarrera/tradebinder-backend/pkg/enums"
)

// Notification is a cross-user match proposal stored in the recipient's
// private collection. Card lists and the value-difference sign are stored
// from the recipient's point of view.
//
// The (user_id, match_id) pair is unique so retried sends cannot duplicate.
type Notification struct {
	ID              uuid.UUID              `gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID              `gorm:"type:uuid;not null;index:idx_notifications_user_match,unique"`
	MatchID         string                 `gorm:"column:match_id;type:text;not null;index:idx_notifications_user_match,unique"`
	Type            enums.NotificationType `gorm:"type:notification_type;not null"`
	FromUserID      uuid.UUID              `gorm:"column:from_user_id;type:uuid;not null"`
	FromUsername    string                 `gorm:"column:from_username;type:text;not null"`
	FromLocation    *string                `gorm:"column:from_location;type:text"`
	FromAvatar      *string                `gorm:"column:from_avatar;type:text"`
	MatchType       enums.MatchType        `gorm:"column:match_type;type:match_type;not null"`
	MyCards         dbtypes.CardLines      `gorm:"column:my_cards;type:jsonb;not null"`
	OtherCards      dbtypes.CardLines      `gorm:"column:other_cards;type:jsonb;not null"`
	MyTotalValue    decimal.Decimal        `gorm:"column:my_total_value;type:numeric(12,2);not null;default:0"`
	TheirTotalValue decimal.Decimal        `gorm:"column:their_total_value;type:numeric(12,2);not null;default:0"`
	ValueDifference decimal.Decimal        `gorm:"column:value_difference;type:numeric(12,2);not null;default:0"`
	Compatibility   int                    `gorm:"not null;default:0"`
	ReadAt          *time.Time             `gorm:"column:read_at;type:timestamptz"`
	CreatedAt       time.Time              `gorm:"column:created_at;type:timestamptz;default:now()"`
	ExpiresAt       time.Time              `gorm:"column:expires_at;type:timestamptz;not null"`
}
