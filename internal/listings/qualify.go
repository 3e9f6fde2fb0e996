package listings

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	"github.com/davidcarrera/tradebinder-backend/pkg/enums"
)

// Qualifies reports whether a card instance is visible to other users.
// Only sale/trade cards explicitly flagged public are listed.
func Qualifies(card *models.CardInstance) bool {
	if card == nil {
		return false
	}
	return card.Public && card.Status.IsTradeable()
}

// KeyFor builds the durable listing key. One listing per source record:
// the key is stable across updates so upserts are idempotent.
func KeyFor(ownerUserID, sourceID uuid.UUID) string {
	return fmt.Sprintf("%s_%s", ownerUserID, sourceID)
}

// FromCard projects a qualifying card instance into its public listing.
func FromCard(owner *models.User, card *models.CardInstance) models.PublicListing {
	status := card.Status
	condition := card.Condition
	foil := card.Foil
	price := card.Price
	edition := card.Edition

	return models.PublicListing{
		Key:           KeyFor(owner.ID, card.ID),
		OwnerUserID:   owner.ID,
		OwnerUsername: owner.Username,
		OwnerLocation: owner.Location,
		OwnerAvatar:   owner.AvatarURL,
		ContactEmail:  &owner.Email,
		Kind:          enums.ListingKindCard,
		SourceID:      card.ID,
		CardName:      card.Name,
		ScryfallID:    card.ScryfallID,
		Edition:       &edition,
		Condition:     &condition,
		Foil:          &foil,
		Quantity:      card.Quantity,
		Price:         &price,
		Status:        &status,
	}
}

// FromPreference projects a declared want into its public listing.
// Preferences are always public in this design.
func FromPreference(owner *models.User, pref *models.Preference) models.PublicListing {
	return models.PublicListing{
		Key:           KeyFor(owner.ID, pref.ID),
		OwnerUserID:   owner.ID,
		OwnerUsername: owner.Username,
		OwnerLocation: owner.Location,
		OwnerAvatar:   owner.AvatarURL,
		ContactEmail:  &owner.Email,
		Kind:          enums.ListingKindPreference,
		SourceID:      pref.ID,
		CardName:      pref.CardName,
		ScryfallID:    pref.ScryfallID,
		Quantity:      1,
		Price:         pref.MaxPrice,
	}
}
