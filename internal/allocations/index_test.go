package allocations

import (
	"testing"

	"github.com/google/uuid"

	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	"github.com/davidcarrera/tradebinder-backend/pkg/enums"
)

func ownedCard(id uuid.UUID, quantity int, status enums.CardStatus) models.CardInstance {
	scryfallID := "scry-" + id.String()
	return models.CardInstance{
		ID:         id,
		UserID:     uuid.New(),
		ScryfallID: &scryfallID,
		Name:       "Card " + id.String()[:8],
		Edition:    "m10",
		Quantity:   quantity,
		Status:     status,
	}
}

func allocation(deckID, cardID uuid.UUID, quantity int) models.DeckCard {
	return models.DeckCard{
		ID:       uuid.New(),
		DeckID:   deckID,
		CardID:   &cardID,
		Name:     "slot",
		Quantity: quantity,
	}
}

func TestIndexAggregatesAllocations(t *testing.T) {
	cardID := uuid.New()
	deck1 := models.Deck{ID: uuid.New(), Name: "Burn"}
	deck2 := models.Deck{ID: uuid.New(), Name: "Cube"}

	idx := BuildIndex(
		[]models.CardInstance{ownedCard(cardID, 4, enums.CardStatusCollection)},
		[]models.Deck{deck1, deck2},
		[]models.DeckCard{
			allocation(deck1.ID, cardID, 2),
			allocation(deck2.ID, cardID, 1),
		},
	)

	if got := idx.TotalAllocated(cardID); got != 3 {
		t.Fatalf("expected total allocated 3, got %d", got)
	}
	if got := idx.Available(cardID); got != 1 {
		t.Fatalf("expected available 1, got %d", got)
	}

	allocations := idx.AllocationsFor(cardID)
	if len(allocations) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(allocations))
	}
	names := map[string]bool{}
	for _, a := range allocations {
		names[a.DeckName] = true
	}
	if !names["Burn"] || !names["Cube"] {
		t.Fatalf("expected deck names resolved, got %v", names)
	}
}

func TestAllocationsForUnknownCardIsEmpty(t *testing.T) {
	idx := BuildIndex(nil, nil, nil)
	if got := idx.AllocationsFor(uuid.New()); len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
}

func TestSummarizeDistinguishesUnknownFromUnallocated(t *testing.T) {
	cardID := uuid.New()
	idx := BuildIndex([]models.CardInstance{ownedCard(cardID, 2, enums.CardStatusCollection)}, nil, nil)

	summary := idx.Summarize(cardID)
	if summary == nil {
		t.Fatal("expected summary for owned card")
	}
	if summary.Owned != 2 || summary.Allocated != 0 || summary.Available != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(summary.Allocations) != 0 {
		t.Fatalf("expected no allocations, got %v", summary.Allocations)
	}

	if got := idx.Summarize(uuid.New()); got != nil {
		t.Fatalf("expected nil summary for unknown card, got %+v", got)
	}
}

func TestWishlistCardsAreExcluded(t *testing.T) {
	cardID := uuid.New()
	deck := models.Deck{ID: uuid.New(), Name: "Wants"}

	idx := BuildIndex(
		[]models.CardInstance{ownedCard(cardID, 5, enums.CardStatusWishlist)},
		[]models.Deck{deck},
		[]models.DeckCard{allocation(deck.ID, cardID, 2)},
	)

	if got := idx.TotalAllocated(cardID); got != 0 {
		t.Fatalf("expected wishlist card to carry no allocations, got %d", got)
	}
	if got := idx.Available(cardID); got != 0 {
		t.Fatalf("expected wishlist card available 0, got %d", got)
	}
	if got := idx.Summarize(cardID); got != nil {
		t.Fatalf("expected wishlist card absent from index, got %+v", got)
	}
}

func TestAvailableNeverNegative(t *testing.T) {
	cardID := uuid.New()
	deck := models.Deck{ID: uuid.New(), Name: "Greedy"}

	idx := BuildIndex(
		[]models.CardInstance{ownedCard(cardID, 1, enums.CardStatusCollection)},
		[]models.Deck{deck},
		[]models.DeckCard{allocation(deck.ID, cardID, 3)},
	)

	if got := idx.Available(cardID); got != 0 {
		t.Fatalf("expected available clamped at 0, got %d", got)
	}
}

func TestCheckReductionAllowsWhenUnderAllocation(t *testing.T) {
	cardID := uuid.New()
	deck := models.Deck{ID: uuid.New(), Name: "Burn"}

	idx := BuildIndex(
		[]models.CardInstance{ownedCard(cardID, 4, enums.CardStatusCollection)},
		[]models.Deck{deck},
		[]models.DeckCard{allocation(deck.ID, cardID, 2)},
	)

	check := idx.CheckReduction(cardID, 2)
	if !check.CanReduce {
		t.Fatal("expected reduction to 2 to be allowed with 2 allocated")
	}
	if check.CurrentAllocated != 2 {
		t.Fatalf("expected current allocated 2, got %d", check.CurrentAllocated)
	}
	if len(check.AffectedDecks) != 0 {
		t.Fatalf("expected no affected decks on allowed reduction, got %v", check.AffectedDecks)
	}
}

func TestCheckReductionRejectsOverAllocation(t *testing.T) {
	cardID := uuid.New()
	deck1 := models.Deck{ID: uuid.New(), Name: "Deck1"}
	deck2 := models.Deck{ID: uuid.New(), Name: "Deck2"}

	idx := BuildIndex(
		[]models.CardInstance{ownedCard(cardID, 3, enums.CardStatusCollection)},
		[]models.Deck{deck1, deck2},
		[]models.DeckCard{
			allocation(deck1.ID, cardID, 2),
			allocation(deck2.ID, cardID, 1),
		},
	)

	check := idx.CheckReduction(cardID, 2)
	if check.CanReduce {
		t.Fatal("expected reduction below allocation to be rejected")
	}
	if check.CurrentAllocated != 3 {
		t.Fatalf("expected current allocated 3, got %d", check.CurrentAllocated)
	}
	if check.ExcessAmount != 1 {
		t.Fatalf("expected excess 1, got %d", check.ExcessAmount)
	}
	if len(check.AffectedDecks) != 2 {
		t.Fatalf("expected both decks listed, got %v", check.AffectedDecks)
	}
}

func TestSlotSpecMatching(t *testing.T) {
	cardID := uuid.New()
	card := ownedCard(cardID, 1, enums.CardStatusCollection)
	card.Condition = enums.CardConditionLightPlay
	card.Foil = true
	scryfallID := *card.ScryfallID

	edition := "m10"
	otherEdition := "m11"
	condition := enums.CardConditionLightPlay
	foil := false

	cases := []struct {
		name string
		spec SlotSpec
		want bool
	}{
		{"id only", SlotSpec{ScryfallID: scryfallID}, true},
		{"wrong id", SlotSpec{ScryfallID: "other"}, false},
		{"matching edition", SlotSpec{ScryfallID: scryfallID, Edition: &edition}, true},
		{"wrong edition", SlotSpec{ScryfallID: scryfallID, Edition: &otherEdition}, false},
		{"matching condition", SlotSpec{ScryfallID: scryfallID, Condition: &condition}, true},
		{"foil mismatch", SlotSpec{ScryfallID: scryfallID, Foil: &foil}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.spec.Matches(card); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestSlotSpecRejectsWishlist(t *testing.T) {
	card := ownedCard(uuid.New(), 1, enums.CardStatusWishlist)
	spec := SlotSpec{ScryfallID: *card.ScryfallID}
	if spec.Matches(card) {
		t.Fatal("expected wishlist card to never satisfy a slot")
	}
}
