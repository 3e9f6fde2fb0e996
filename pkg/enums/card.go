package enums

import "fmt"

// CardStatus maps to the card_status enum in Postgres.
type CardStatus string

const (
	CardStatusCollection CardStatus = "collection"
	CardStatusSale       CardStatus = "sale"
	CardStatusTrade      CardStatus = "trade"
	CardStatusWishlist   CardStatus = "wishlist"
)

var validCardStatuses = []CardStatus{
	CardStatusCollection,
	CardStatusSale,
	CardStatusTrade,
	CardStatusWishlist,
}

// String implements fmt.Stringer.
func (s CardStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CardStatus.
func (s CardStatus) IsValid() bool {
	for _, candidate := range validCardStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsOwned reports whether cards in this status count toward owned totals and
// allocation accounting. Wishlist entries describe wanted cards, not owned ones.
func (s CardStatus) IsOwned() bool {
	return s == CardStatusCollection || s == CardStatusSale || s == CardStatusTrade
}

// IsTradeable reports whether the status makes a card eligible for public listing.
func (s CardStatus) IsTradeable() bool {
	return s == CardStatusSale || s == CardStatusTrade
}

// ParseCardStatus converts raw input into a CardStatus.
func ParseCardStatus(value string) (CardStatus, error) {
	for _, candidate := range validCardStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid card status %q", value)
}

// CardCondition grades physical wear, best to worst.
type CardCondition string

const (
	CardConditionMint       CardCondition = "M"
	CardConditionNearMint   CardCondition = "NM"
	CardConditionLightPlay  CardCondition = "LP"
	CardConditionModPlay    CardCondition = "MP"
	CardConditionHeavyPlay  CardCondition = "HP"
	CardConditionPoor       CardCondition = "PO"
)

var conditionRanks = map[CardCondition]int{
	CardConditionMint:      6,
	CardConditionNearMint:  5,
	CardConditionLightPlay: 4,
	CardConditionModPlay:   3,
	CardConditionHeavyPlay: 2,
	CardConditionPoor:      1,
}

// String implements fmt.Stringer.
func (c CardCondition) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CardCondition.
func (c CardCondition) IsValid() bool {
	_, ok := conditionRanks[c]
	return ok
}

// Rank orders conditions so that better conditions compare higher.
func (c CardCondition) Rank() int {
	return conditionRanks[c]
}

// AtLeast reports whether c is in equal or better shape than other.
func (c CardCondition) AtLeast(other CardCondition) bool {
	return c.Rank() >= other.Rank()
}

// ParseCardCondition converts raw input into a CardCondition.
func ParseCardCondition(value string) (CardCondition, error) {
	candidate := CardCondition(value)
	if candidate.IsValid() {
		return candidate, nil
	}
	return "", fmt.Errorf("invalid card condition %q", value)
}
