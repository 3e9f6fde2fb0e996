package collection

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidcarrera/tradebinder-backend/pkg/cardprices"
	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	"github.com/davidcarrera/tradebinder-backend/pkg/enums"
)

// StatusBucket accumulates quantity and line value for one card status.
type StatusBucket struct {
	Quantity int             `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
}

// SourceTotals is the per-price-source aggregate. OwnedValue rolls up the
// collection, sale and trade buckets; the wishlist bucket is tracked for
// display but never counts as owned.
type SourceTotals struct {
	OwnedQuantity int                               `json:"ownedQuantity"`
	OwnedValue    decimal.Decimal                   `json:"ownedValue"`
	PricedCards   int                               `json:"pricedCards"`
	ByStatus      map[enums.CardStatus]StatusBucket `json:"byStatus"`
}

// Totals is a derived view over a full collection snapshot. It is recomputed
// from scratch on every read, never patched incrementally.
type Totals struct {
	Sources map[enums.PriceSource]SourceTotals `json:"sources"`
}

func newSourceTotals() SourceTotals {
	return SourceTotals{
		OwnedValue: decimal.Zero,
		ByStatus: map[enums.CardStatus]StatusBucket{
			enums.CardStatusCollection: {Value: decimal.Zero},
			enums.CardStatusSale:       {Value: decimal.Zero},
			enums.CardStatusTrade:      {Value: decimal.Zero},
			enums.CardStatusWishlist:   {Value: decimal.Zero},
		},
	}
}

func (t *SourceTotals) add(status enums.CardStatus, quantity int, price decimal.Decimal) {
	lineValue := price.Mul(decimal.NewFromInt(int64(quantity)))

	bucket := t.ByStatus[status]
	bucket.Quantity += quantity
	bucket.Value = bucket.Value.Add(lineValue)
	t.ByStatus[status] = bucket

	t.PricedCards++
	if status.IsOwned() {
		t.OwnedQuantity += quantity
		t.OwnedValue = t.OwnedValue.Add(lineValue)
	}
}

// ComputeTotals aggregates line values per status and per price source. The
// primary source uses the price stored on each card; retail and buylist lines
// exist only for cards present in the secondary price map, with the foil
// variant preferred for foil cards when the feed carries one.
func ComputeTotals(cards []models.CardInstance, secondary map[uuid.UUID]cardprices.PricePoints) Totals {
	totals := Totals{
		Sources: map[enums.PriceSource]SourceTotals{
			enums.PriceSourcePrimary: newSourceTotals(),
			enums.PriceSourceRetail:  newSourceTotals(),
			enums.PriceSourceBuylist: newSourceTotals(),
		},
	}

	for _, card := range cards {
		if !card.Status.IsValid() || card.Quantity <= 0 {
			continue
		}

		primary := totals.Sources[enums.PriceSourcePrimary]
		primary.add(card.Status, card.Quantity, card.Price)
		totals.Sources[enums.PriceSourcePrimary] = primary

		points, ok := secondary[card.ID]
		if !ok {
			continue
		}
		if price := pickPrice(points.Retail, points.RetailFoil, card.Foil); price != nil {
			retail := totals.Sources[enums.PriceSourceRetail]
			retail.add(card.Status, card.Quantity, *price)
			totals.Sources[enums.PriceSourceRetail] = retail
		}
		if price := pickPrice(points.Buylist, points.BuylistFoil, card.Foil); price != nil {
			buylist := totals.Sources[enums.PriceSourceBuylist]
			buylist.add(card.Status, card.Quantity, *price)
			totals.Sources[enums.PriceSourceBuylist] = buylist
		}
	}

	return totals
}

// pickPrice prefers the foil price for foil cards when the feed has one.
func pickPrice(regular, foil *decimal.Decimal, isFoil bool) *decimal.Decimal {
	if isFoil && foil != nil {
		return foil
	}
	return regular
}
