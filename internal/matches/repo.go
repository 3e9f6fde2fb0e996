package matches

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
)

// Repository encapsulates saved match persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a matches repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a saved match. The unique (user_id, match_key) index rejects
// saving the same match twice.
func (r *Repository) Create(ctx context.Context, match *models.SavedMatch) error {
	return r.db.WithContext(ctx).Create(match).Error
}

// FindByID loads a saved match scoped to its owner.
func (r *Repository) FindByID(ctx context.Context, userID, id uuid.UUID) (*models.SavedMatch, error) {
	var match models.SavedMatch
	err := r.db.WithContext(ctx).
		First(&match, "id = ? AND user_id = ?", id, userID).
		Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// FindByKey loads a saved match by its owner and match key.
func (r *Repository) FindByKey(ctx context.Context, userID uuid.UUID, matchKey string) (*models.SavedMatch, error) {
	var match models.SavedMatch
	err := r.db.WithContext(ctx).
		First(&match, "user_id = ? AND match_key = ?", userID, matchKey).
		Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// ListByUser returns a user's saved matches, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.SavedMatch, error) {
	var rows []models.SavedMatch
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes a saved match scoped to its owner.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.SavedMatch{}).
		Error
}
