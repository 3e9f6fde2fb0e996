package decks

import (
	"github.com/google/uuid"

	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
)

// CreateDeckRequest adds an empty deck.
type CreateDeckRequest struct {
	Name   string  `json:"name" validate:"required"`
	Format *string `json:"format,omitempty"`
}

// AddCardRequest adds one slot to a deck. CardID links the slot to an owned
// collection card; without it the slot is stored unresolved.
type AddCardRequest struct {
	CardID        *uuid.UUID `json:"card_id,omitempty"`
	Name          string     `json:"name"`
	ScryfallID    *string    `json:"scryfall_id,omitempty"`
	Edition       *string    `json:"edition,omitempty"`
	Quantity      int        `json:"quantity" validate:"required,min=1"`
	IsInSideboard bool       `json:"is_in_sideboard"`
	IsCommander   bool       `json:"is_commander"`
}

// DeckDetail is a deck with its slots.
type DeckDetail struct {
	Deck  models.Deck       `json:"deck"`
	Cards []models.DeckCard `json:"cards"`
}

// ImportResult summarizes a deck import: how many slots could be linked to
// owned collection cards and how many remain unresolved.
type ImportResult struct {
	Deck       models.Deck `json:"deck"`
	TotalSlots int         `json:"totalSlots"`
	Linked     int         `json:"linked"`
	Unresolved int         `json:"unresolved"`
}
