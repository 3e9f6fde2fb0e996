package collection

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	"github.com/davidcarrera/tradebinder-backend/pkg/enums"
)

// Repository encapsulates collection card persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a collection repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a card instance.
func (r *Repository) Create(ctx context.Context, card *models.CardInstance) error {
	return r.db.WithContext(ctx).Create(card).Error
}

// FindByID loads one card scoped to its owner.
func (r *Repository) FindByID(ctx context.Context, userID, id uuid.UUID) (*models.CardInstance, error) {
	var card models.CardInstance
	err := r.db.WithContext(ctx).
		First(&card, "id = ? AND user_id = ?", id, userID).
		Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// ListByUser returns the full collection snapshot for a user.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CardInstance, error) {
	var cards []models.CardInstance
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&cards).
		Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// ListTradeableByUser returns the user's cards eligible for public listing.
func (r *Repository) ListTradeableByUser(ctx context.Context, userID uuid.UUID) ([]models.CardInstance, error) {
	var cards []models.CardInstance
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND public = ? AND status IN ?", userID, true,
			[]enums.CardStatus{enums.CardStatusSale, enums.CardStatusTrade}).
		Find(&cards).
		Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// Update persists a full card row.
func (r *Repository) Update(ctx context.Context, card *models.CardInstance) error {
	return r.db.WithContext(ctx).Save(card).Error
}

// UpdateScryfallID links a card to its resolved external identity.
func (r *Repository) UpdateScryfallID(ctx context.Context, cardID uuid.UUID, scryfallID string) error {
	return r.db.WithContext(ctx).
		Model(&models.CardInstance{}).
		Where("id = ?", cardID).
		Update("scryfall_id", scryfallID).
		Error
}

// Delete removes a card scoped to its owner.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.CardInstance{}).
		Error
}
