package allocations

import (
	"github.com/google/uuid"

	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	"github.com/davidcarrera/tradebinder-backend/pkg/enums"
)

// DeckAllocation is one deck's claim on a quantity of an owned card.
type DeckAllocation struct {
	CardID        uuid.UUID `json:"cardId"`
	DeckID        uuid.UUID `json:"deckId"`
	DeckName      string    `json:"deckName"`
	Quantity      int       `json:"quantity"`
	IsInSideboard bool      `json:"isInSideboard"`
}

// Summary combines owned, allocated, and available quantities for one card.
type Summary struct {
	Owned       int              `json:"owned"`
	Allocated   int              `json:"allocated"`
	Available   int              `json:"available"`
	Allocations []DeckAllocation `json:"allocations"`
}

// ReductionCheck reports whether an owned quantity can shrink without
// cutting into existing deck claims.
type ReductionCheck struct {
	CanReduce        bool             `json:"canReduce"`
	CurrentAllocated int              `json:"currentAllocated"`
	ExcessAmount     int              `json:"excessAmount"`
	AffectedDecks    []DeckAllocation `json:"affectedDecks"`
}

// Index answers allocation questions in O(1) after an O(total allocations)
// build. It is a derived view over immutable snapshots: rebuild it whenever
// the collection or deck set changes, never patch it in place.
type Index struct {
	owned  map[uuid.UUID]int
	byCard map[uuid.UUID][]DeckAllocation
}

// BuildIndex constructs the index from a collection snapshot and the user's
// decks. Wishlist entries describe wanted cards, so they carry no owned
// quantity and accept no allocations. Deck slots not linked to an owned card
// (CardID nil or unknown) are ignored.
func BuildIndex(cards []models.CardInstance, decks []models.Deck, deckCards []models.DeckCard) *Index {
	idx := &Index{
		owned:  make(map[uuid.UUID]int, len(cards)),
		byCard: make(map[uuid.UUID][]DeckAllocation),
	}

	for _, card := range cards {
		if card.Status == enums.CardStatusWishlist {
			continue
		}
		idx.owned[card.ID] = card.Quantity
	}

	deckNames := make(map[uuid.UUID]string, len(decks))
	for _, deck := range decks {
		deckNames[deck.ID] = deck.Name
	}

	for _, dc := range deckCards {
		if dc.CardID == nil || dc.Quantity <= 0 {
			continue
		}
		cardID := *dc.CardID
		if _, ok := idx.owned[cardID]; !ok {
			continue
		}
		idx.byCard[cardID] = append(idx.byCard[cardID], DeckAllocation{
			CardID:        cardID,
			DeckID:        dc.DeckID,
			DeckName:      deckNames[dc.DeckID],
			Quantity:      dc.Quantity,
			IsInSideboard: dc.IsInSideboard,
		})
	}

	return idx
}

// AllocationsFor returns every deck claim on the card, or an empty slice.
func (idx *Index) AllocationsFor(cardID uuid.UUID) []DeckAllocation {
	allocations := idx.byCard[cardID]
	if allocations == nil {
		return []DeckAllocation{}
	}
	return allocations
}

// TotalAllocated sums the claimed quantity across all decks for the card.
func (idx *Index) TotalAllocated(cardID uuid.UUID) int {
	total := 0
	for _, a := range idx.byCard[cardID] {
		total += a.Quantity
	}
	return total
}

// Available returns the unclaimed owned quantity, never negative.
func (idx *Index) Available(cardID uuid.UUID) int {
	owned, ok := idx.owned[cardID]
	if !ok {
		return 0
	}
	available := owned - idx.TotalAllocated(cardID)
	if available < 0 {
		return 0
	}
	return available
}

// Summarize returns the combined view for one card, or nil when the card is
// not part of the owned collection. "Not owned" is distinct from "owned with
// zero allocations".
func (idx *Index) Summarize(cardID uuid.UUID) *Summary {
	owned, ok := idx.owned[cardID]
	if !ok {
		return nil
	}
	return &Summary{
		Owned:       owned,
		Allocated:   idx.TotalAllocated(cardID),
		Available:   idx.Available(cardID),
		Allocations: idx.AllocationsFor(cardID),
	}
}

// CheckReduction reports whether the card's owned quantity can shrink to
// newQuantity. When existing deck claims exceed the new quantity the check
// fails with the excess and the affected decks, so callers free allocations
// explicitly instead of truncating another deck's claim.
func (idx *Index) CheckReduction(cardID uuid.UUID, newQuantity int) ReductionCheck {
	allocated := idx.TotalAllocated(cardID)
	if newQuantity >= allocated {
		return ReductionCheck{
			CanReduce:        true,
			CurrentAllocated: allocated,
			AffectedDecks:    []DeckAllocation{},
		}
	}
	return ReductionCheck{
		CanReduce:        false,
		CurrentAllocated: allocated,
		ExcessAmount:     allocated - newQuantity,
		AffectedDecks:    idx.AllocationsFor(cardID),
	}
}
