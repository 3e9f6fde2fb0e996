package decks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
)

// Repository encapsulates deck persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a decks repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a deck row.
func (r *Repository) Create(ctx context.Context, deck *models.Deck) error {
	return r.db.WithContext(ctx).Create(deck).Error
}

// FindByID loads one deck scoped to its owner.
func (r *Repository) FindByID(ctx context.Context, userID, id uuid.UUID) (*models.Deck, error) {
	var deck models.Deck
	err := r.db.WithContext(ctx).
		First(&deck, "id = ? AND user_id = ?", id, userID).
		Error
	if err != nil {
		return nil, err
	}
	return &deck, nil
}

// ListByUser returns every deck a user owns.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Deck, error) {
	var rows []models.Deck
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes a deck and its slots via the FK cascade.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Deck{}).
		Error
}

// CreateCards inserts deck slots in bulk.
func (r *Repository) CreateCards(ctx context.Context, cards []models.DeckCard) error {
	if len(cards) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&cards).Error
}

// ListCardsByDeck returns every slot of one deck.
func (r *Repository) ListCardsByDeck(ctx context.Context, deckID uuid.UUID) ([]models.DeckCard, error) {
	var rows []models.DeckCard
	err := r.db.WithContext(ctx).
		Where("deck_id = ?", deckID).
		Order("created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCardsByUser returns every slot across all of a user's decks.
func (r *Repository) ListCardsByUser(ctx context.Context, userID uuid.UUID) ([]models.DeckCard, error) {
	var rows []models.DeckCard
	err := r.db.WithContext(ctx).
		Joins("JOIN decks ON decks.id = deck_cards.deck_id").
		Where("decks.user_id = ?", userID).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteCard removes one slot after verifying deck ownership.
func (r *Repository) DeleteCard(ctx context.Context, userID, deckID, deckCardID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND deck_id = ?", deckCardID, deckID).
		Where("deck_id IN (?)", r.db.Model(&models.Deck{}).Select("id").Where("user_id = ?", userID)).
		Delete(&models.DeckCard{}).
		Error
}
