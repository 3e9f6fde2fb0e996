package enums

import "fmt"

// ListingKind distinguishes the two public listing projections.
type ListingKind string

const (
	ListingKindCard       ListingKind = "card"
	ListingKindPreference ListingKind = "preference"
)

var validListingKinds = []ListingKind{
	ListingKindCard,
	ListingKindPreference,
}

// String implements fmt.Stringer.
func (k ListingKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ListingKind.
func (k ListingKind) IsValid() bool {
	for _, candidate := range validListingKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseListingKind converts raw input into a ListingKind.
func ParseListingKind(value string) (ListingKind, error) {
	for _, candidate := range validListingKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing kind %q", value)
}
