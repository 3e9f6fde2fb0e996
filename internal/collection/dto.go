package collection

import (
	"github.com/shopspring/decimal"

	"github.com/davidcarrera/tradebinder-backend/pkg/enums"
)

// CreateCardRequest adds a card instance to the caller's collection.
type CreateCardRequest struct {
	Name            string               `json:"name" validate:"required"`
	Edition         string               `json:"edition" validate:"required"`
	ScryfallID      *string              `json:"scryfall_id,omitempty"`
	CollectorNumber *string              `json:"collector_number,omitempty"`
	Condition       *enums.CardCondition `json:"condition,omitempty"`
	Foil            bool                 `json:"foil"`
	Quantity        int                  `json:"quantity" validate:"required,min=1"`
	Price           *decimal.Decimal     `json:"price,omitempty"`
	Status          *enums.CardStatus    `json:"status,omitempty"`
	Public          bool                 `json:"public"`
	ImageURL        *string              `json:"image_url,omitempty"`
}

// UpdateCardRequest carries the mutable card fields; nil means unchanged.
type UpdateCardRequest struct {
	Name      *string              `json:"name,omitempty"`
	Edition   *string              `json:"edition,omitempty"`
	Condition *enums.CardCondition `json:"condition,omitempty"`
	Foil      *bool                `json:"foil,omitempty"`
	Quantity  *int                 `json:"quantity,omitempty" validate:"omitempty,min=0"`
	Price     *decimal.Decimal     `json:"price,omitempty"`
	Status    *enums.CardStatus    `json:"status,omitempty"`
	Public    *bool                `json:"public,omitempty"`
	ImageURL  *string              `json:"image_url,omitempty"`
}
