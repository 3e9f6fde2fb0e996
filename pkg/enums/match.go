package enums

import "fmt"

// MatchType describes the direction of a computed match.
//
// VENDO: the counterpart wants a card I have. BUSCO: I want a card the
// counterpart has. BIDIRECTIONAL: both at once.
type MatchType string

const (
	MatchTypeVendo         MatchType = "VENDO"
	MatchTypeBusco         MatchType = "BUSCO"
	MatchTypeBidirectional MatchType = "BIDIRECTIONAL"
)

var validMatchTypes = []MatchType{
	MatchTypeVendo,
	MatchTypeBusco,
	MatchTypeBidirectional,
}

// String implements fmt.Stringer.
func (m MatchType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MatchType.
func (m MatchType) IsValid() bool {
	for _, candidate := range validMatchTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMatchType converts raw input into a MatchType.
func ParseMatchType(value string) (MatchType, error) {
	for _, candidate := range validMatchTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid match type %q", value)
}
