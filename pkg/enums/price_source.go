package enums

import "fmt"

// PriceSource identifies an independent price feed for a card.
type PriceSource string

const (
	// PriceSourcePrimary is the retail price stored on the card itself.
	PriceSourcePrimary PriceSource = "primary"
	// PriceSourceRetail is the externally fetched secondary retail price.
	PriceSourceRetail PriceSource = "retail"
	// PriceSourceBuylist is the externally fetched buylist price.
	PriceSourceBuylist PriceSource = "buylist"
)

var validPriceSources = []PriceSource{
	PriceSourcePrimary,
	PriceSourceRetail,
	PriceSourceBuylist,
}

// String implements fmt.Stringer.
func (p PriceSource) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PriceSource.
func (p PriceSource) IsValid() bool {
	for _, candidate := range validPriceSources {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePriceSource converts raw input into a PriceSource.
func ParsePriceSource(value string) (PriceSource, error) {
	for _, candidate := range validPriceSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price source %q", value)
}
