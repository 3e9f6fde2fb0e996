package preferences

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
)

// Repository encapsulates preference persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a preferences repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a declared want.
func (r *Repository) Create(ctx context.Context, pref *models.Preference) error {
	return r.db.WithContext(ctx).Create(pref).Error
}

// FindByID loads one preference scoped to its owner.
func (r *Repository) FindByID(ctx context.Context, userID, id uuid.UUID) (*models.Preference, error) {
	var pref models.Preference
	err := r.db.WithContext(ctx).
		First(&pref, "id = ? AND user_id = ?", id, userID).
		Error
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// ListByUser returns every preference declared by a user.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Preference, error) {
	var prefs []models.Preference
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&prefs).
		Error
	if err != nil {
		return nil, err
	}
	return prefs, nil
}

// Update persists mutable preference fields.
func (r *Repository) Update(ctx context.Context, pref *models.Preference) error {
	return r.db.WithContext(ctx).Save(pref).Error
}

// Delete removes a preference scoped to its owner.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Preference{}).
		Error
}
