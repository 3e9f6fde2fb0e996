package collection

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidcarrera/tradebinder-backend/pkg/cardprices"
	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	"github.com/davidcarrera/tradebinder-backend/pkg/enums"
)

func card(status enums.CardStatus, quantity int, price int64) models.CardInstance {
	return models.CardInstance{
		ID:       uuid.New(),
		Name:     "Some Card",
		Quantity: quantity,
		Price:    decimal.NewFromInt(price),
		Status:   status,
	}
}

func TestComputeTotalsPrimaryRollup(t *testing.T) {
	cards := []models.CardInstance{
		card(enums.CardStatusCollection, 2, 10), // 20 owned
		card(enums.CardStatusSale, 1, 5),        // 5 owned
		card(enums.CardStatusTrade, 3, 1),       // 3 owned
	}

	totals := ComputeTotals(cards, nil)
	primary := totals.Sources[enums.PriceSourcePrimary]

	if primary.OwnedQuantity != 6 {
		t.Fatalf("expected 6 owned cards, got %d", primary.OwnedQuantity)
	}
	if !primary.OwnedValue.Equal(decimal.NewFromInt(28)) {
		t.Fatalf("expected owned value 28, got %s", primary.OwnedValue)
	}
	if got := primary.ByStatus[enums.CardStatusSale]; !got.Value.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected sale bucket 5, got %s", got.Value)
	}
}

func TestComputeTotalsWishlistExcludedFromOwned(t *testing.T) {
	cards := []models.CardInstance{
		card(enums.CardStatusCollection, 1, 10),
		card(enums.CardStatusWishlist, 4, 100),
	}

	totals := ComputeTotals(cards, nil)
	primary := totals.Sources[enums.PriceSourcePrimary]

	if !primary.OwnedValue.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected wishlist excluded from owned value, got %s", primary.OwnedValue)
	}
	wishlist := primary.ByStatus[enums.CardStatusWishlist]
	if wishlist.Quantity != 4 || !wishlist.Value.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("expected wishlist bucket still tracked, got qty=%d value=%s", wishlist.Quantity, wishlist.Value)
	}
}

func TestComputeTotalsSecondarySources(t *testing.T) {
	owned := card(enums.CardStatusCollection, 2, 10)
	unpriced := card(enums.CardStatusTrade, 1, 3)

	retail := decimal.NewFromInt(12)
	buylist := decimal.NewFromInt(7)
	secondary := map[uuid.UUID]cardprices.PricePoints{
		owned.ID: {Retail: &retail, Buylist: &buylist},
	}

	totals := ComputeTotals([]models.CardInstance{owned, unpriced}, secondary)

	retailTotals := totals.Sources[enums.PriceSourceRetail]
	if !retailTotals.OwnedValue.Equal(decimal.NewFromInt(24)) {
		t.Fatalf("expected retail owned value 24, got %s", retailTotals.OwnedValue)
	}
	if retailTotals.PricedCards != 1 {
		t.Fatalf("expected 1 retail-priced card, got %d", retailTotals.PricedCards)
	}
	buylistTotals := totals.Sources[enums.PriceSourceBuylist]
	if !buylistTotals.OwnedValue.Equal(decimal.NewFromInt(14)) {
		t.Fatalf("expected buylist owned value 14, got %s", buylistTotals.OwnedValue)
	}
	// primary covers every card regardless of secondary availability
	if got := totals.Sources[enums.PriceSourcePrimary].PricedCards; got != 2 {
		t.Fatalf("expected 2 primary-priced cards, got %d", got)
	}
}

func TestComputeTotalsFoilPrefersFoilPrice(t *testing.T) {
	foilCard := card(enums.CardStatusCollection, 1, 10)
	foilCard.Foil = true

	retail := decimal.NewFromInt(2)
	retailFoil := decimal.NewFromInt(9)
	secondary := map[uuid.UUID]cardprices.PricePoints{
		foilCard.ID: {Retail: &retail, RetailFoil: &retailFoil},
	}

	totals := ComputeTotals([]models.CardInstance{foilCard}, secondary)
	if got := totals.Sources[enums.PriceSourceRetail].OwnedValue; !got.Equal(retailFoil) {
		t.Fatalf("expected foil retail price used, got %s", got)
	}
}

func TestComputeTotalsFoilFallsBackToRegularPrice(t *testing.T) {
	foilCard := card(enums.CardStatusCollection, 1, 10)
	foilCard.Foil = true

	retail := decimal.NewFromInt(2)
	secondary := map[uuid.UUID]cardprices.PricePoints{
		foilCard.ID: {Retail: &retail},
	}

	totals := ComputeTotals([]models.CardInstance{foilCard}, secondary)
	if got := totals.Sources[enums.PriceSourceRetail].OwnedValue; !got.Equal(retail) {
		t.Fatalf("expected regular retail price fallback, got %s", got)
	}
}

func TestComputeTotalsSkipsNonPositiveQuantities(t *testing.T) {
	zero := card(enums.CardStatusCollection, 0, 10)

	totals := ComputeTotals([]models.CardInstance{zero}, nil)
	primary := totals.Sources[enums.PriceSourcePrimary]
	if primary.PricedCards != 0 || !primary.OwnedValue.Equal(decimal.Zero) {
		t.Fatalf("expected zero-quantity card ignored, got %+v", primary)
	}
}
