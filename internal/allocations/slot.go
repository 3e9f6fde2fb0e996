package allocations

import (
	"strings"

	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	"github.com/davidcarrera/tradebinder-backend/pkg/enums"
)

// SlotSpec describes what a deck slot requires of an owned card. ScryfallID
// is the card identity; edition, condition, and foil narrow the match only
// when set. An unset field matches any value.
type SlotSpec struct {
	ScryfallID string
	Edition    *string
	Condition  *enums.CardCondition
	Foil       *bool
}

// Matches reports whether the owned card satisfies the slot. Wishlist rows
// never satisfy a slot since they are not owned copies.
func (s SlotSpec) Matches(card models.CardInstance) bool {
	if card.Status == enums.CardStatusWishlist {
		return false
	}
	if card.ScryfallID == nil || *card.ScryfallID != s.ScryfallID {
		return false
	}
	if s.Edition != nil && !strings.EqualFold(card.Edition, *s.Edition) {
		return false
	}
	if s.Condition != nil && card.Condition != *s.Condition {
		return false
	}
	if s.Foil != nil && card.Foil != *s.Foil {
		return false
	}
	return true
}
