package listings

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	"github.com/davidcarrera/tradebinder-backend/pkg/enums"
)

// Repository encapsulates public listing persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a listings repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert writes a listing, replacing any prior row under the same key.
func (r *Repository) Upsert(ctx context.Context, listing *models.PublicListing) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(listing).
		Error
}

// UpsertBatch writes many listings in one statement.
func (r *Repository) UpsertBatch(ctx context.Context, batch []models.PublicListing) error {
	if len(batch) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(&batch).
		Error
}

// DeleteByKey removes a single listing; deleting a missing key is a no-op.
func (r *Repository) DeleteByKey(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).
		Where("key = ?", key).
		Delete(&models.PublicListing{}).
		Error
}

// DeleteKeys removes many listings by key.
func (r *Repository) DeleteKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("key IN ?", keys).
		Delete(&models.PublicListing{}).
		Error
}

// ListKeysByOwner returns every listing key currently published for a user.
func (r *Repository) ListKeysByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).
		Model(&models.PublicListing{}).
		Where("owner_user_id = ?", ownerUserID).
		Pluck("key", &keys).
		Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// ListByOwner returns every listing currently published for a user.
func (r *Repository) ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]models.PublicListing, error) {
	var rows []models.PublicListing
	err := r.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByNames returns listings of the given kind whose card name matches the
// set case-insensitively, excluding one owner. Callers chunk the name set to
// the store's equality-set cap before calling.
func (r *Repository) FindByNames(ctx context.Context, kind enums.ListingKind, names []string, excludeOwner uuid.UUID) ([]models.PublicListing, error) {
	if len(names) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(names))
	for i, name := range names {
		lowered[i] = strings.ToLower(name)
	}
	var rows []models.PublicListing
	err := r.db.WithContext(ctx).
		Where("kind = ?", kind).
		Where("LOWER(card_name) IN ?", lowered).
		Where("owner_user_id <> ?", excludeOwner).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
