package listings

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	pkgerrors "github.com/davidcarrera/tradebinder-backend/pkg/errors"
	"github.com/davidcarrera/tradebinder-backend/pkg/logger"
)

const defaultResyncBatchSize = 400

// Service keeps the public listing mirror consistent with the private
// source-of-truth records. It is the only writer of public listings.
type Service interface {
	SyncCard(ctx context.Context, owner *models.User, before, after *models.CardInstance) error
	SyncPreference(ctx context.Context, owner *models.User, pref *models.Preference) error
	RemovePreference(ctx context.Context, ownerUserID, prefID uuid.UUID) error
	ResyncUser(ctx context.Context, owner *models.User, cards []models.CardInstance, prefs []models.Preference) error
	ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]models.PublicListing, error)
}

// ServiceParams groups dependencies for the listings service.
type ServiceParams struct {
	Repo      *Repository
	Logger    *logger.Logger
	BatchSize int
}

type service struct {
	repo      *Repository
	logg      *logger.Logger
	batchSize int
}

// NewService builds a listings service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listings repo is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultResyncBatchSize
	}
	return &service{
		repo:      params.Repo,
		logg:      params.Logger,
		batchSize: batchSize,
	}, nil
}

// SyncCard re-evaluates qualification after a card change. The action is a
// pure function of (old qualification, new qualification):
// false->true create, true->true update, true->false delete, false->false no-op.
// A nil before means the card was just created; a nil after means deleted.
func (s *service) SyncCard(ctx context.Context, owner *models.User, before, after *models.CardInstance) error {
	if owner == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner is required")
	}

	wasQualifying := Qualifies(before)
	nowQualifying := Qualifies(after)

	switch {
	case nowQualifying:
		listing := FromCard(owner, after)
		return s.repo.Upsert(ctx, &listing)
	case wasQualifying:
		return s.repo.DeleteByKey(ctx, KeyFor(owner.ID, before.ID))
	default:
		return nil
	}
}

// SyncPreference publishes or refreshes the listing for a declared want.
func (s *service) SyncPreference(ctx context.Context, owner *models.User, pref *models.Preference) error {
	if owner == nil || pref == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner and preference are required")
	}
	listing := FromPreference(owner, pref)
	return s.repo.Upsert(ctx, &listing)
}

// RemovePreference drops the listing for a deleted want.
func (s *service) RemovePreference(ctx context.Context, ownerUserID, prefID uuid.UUID) error {
	return s.repo.DeleteByKey(ctx, KeyFor(ownerUserID, prefID))
}

// ResyncUser rebuilds the user's published set from a full snapshot: stale
// listings are deleted and the qualifying set upserted, both in independent
// bounded batches. A failed batch is reported but does not roll back or stop
// the others, so a resync can always be safely re-run.
func (s *service) ResyncUser(ctx context.Context, owner *models.User, cards []models.CardInstance, prefs []models.Preference) error {
	if owner == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner is required")
	}

	desired := make([]models.PublicListing, 0, len(cards)+len(prefs))
	for i := range cards {
		if Qualifies(&cards[i]) {
			desired = append(desired, FromCard(owner, &cards[i]))
		}
	}
	for i := range prefs {
		desired = append(desired, FromPreference(owner, &prefs[i]))
	}

	desiredKeys := make(map[string]struct{}, len(desired))
	for _, listing := range desired {
		desiredKeys[listing.Key] = struct{}{}
	}

	published, err := s.repo.ListKeysByOwner(ctx, owner.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list published keys")
	}

	var stale []string
	for _, key := range published {
		if _, ok := desiredKeys[key]; !ok {
			stale = append(stale, key)
		}
	}

	var errs error
	for start := 0; start < len(stale); start += s.batchSize {
		end := min(start+s.batchSize, len(stale))
		if err := s.repo.DeleteKeys(ctx, stale[start:end]); err != nil {
			batchCtx := s.logg.WithFields(ctx, map[string]any{
				"owner_user_id": owner.ID,
				"batch_start":   start,
			})
			s.logg.Error(batchCtx, "listing delete batch failed", err)
			errs = multierr.Append(errs, err)
		}
	}

	for start := 0; start < len(desired); start += s.batchSize {
		end := min(start+s.batchSize, len(desired))
		if err := s.repo.UpsertBatch(ctx, desired[start:end]); err != nil {
			batchCtx := s.logg.WithFields(ctx, map[string]any{
				"owner_user_id": owner.ID,
				"batch_start":   start,
			})
			s.logg.Error(batchCtx, "listing upsert batch failed", err)
			errs = multierr.Append(errs, err)
		}
	}

	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "resync completed with failed batches")
	}
	return nil
}

// ListByOwner exposes the currently published listings for a user.
func (s *service) ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]models.PublicListing, error) {
	return s.repo.ListByOwner(ctx, ownerUserID)
}
