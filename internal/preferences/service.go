package preferences

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	pkgerrors "github.com/davidcarrera/tradebinder-backend/pkg/errors"
)

// CreatePreferenceRequest declares a new want.
type CreatePreferenceRequest struct {
	CardName   string           `json:"card_name" validate:"required"`
	ScryfallID *string          `json:"scryfall_id,omitempty"`
	MaxPrice   *decimal.Decimal `json:"max_price,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
}

// UpdatePreferenceRequest carries the mutable preference fields.
type UpdatePreferenceRequest struct {
	CardName   *string          `json:"card_name,omitempty"`
	ScryfallID *string          `json:"scryfall_id,omitempty"`
	MaxPrice   *decimal.Decimal `json:"max_price,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
}

type userSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type listingSyncer interface {
	SyncPreference(ctx context.Context, owner *models.User, pref *models.Preference) error
	RemovePreference(ctx context.Context, ownerUserID, prefID uuid.UUID) error
}

// Service exposes business rules for declared wants. Preferences are always
// public, so every mutation is mirrored into the listing set.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Preference, error)
	Create(ctx context.Context, userID uuid.UUID, req CreatePreferenceRequest) (*models.Preference, error)
	Update(ctx context.Context, userID, prefID uuid.UUID, req UpdatePreferenceRequest) (*models.Preference, error)
	Delete(ctx context.Context, userID, prefID uuid.UUID) error
}

// ServiceParams groups dependencies for the preferences service.
type ServiceParams struct {
	Repo     *Repository
	Users    userSource
	Listings listingSyncer
}

type service struct {
	repo     *Repository
	users    userSource
	listings listingSyncer
}

// NewService builds a preferences service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preferences repo is required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "users source is required")
	}
	if params.Listings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing syncer is required")
	}
	return &service{
		repo:     params.Repo,
		users:    params.Users,
		listings: params.Listings,
	}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Preference, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreatePreferenceRequest) (*models.Preference, error) {
	owner, err := s.loadOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.CardName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card name is required")
	}

	pref := &models.Preference{
		ID:         uuid.New(),
		UserID:     userID,
		CardName:   name,
		ScryfallID: req.ScryfallID,
		MaxPrice:   req.MaxPrice,
		Notes:      req.Notes,
	}
	if err := s.repo.Create(ctx, pref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create preference")
	}

	if err := s.listings.SyncPreference(ctx, owner, pref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish preference listing")
	}
	return pref, nil
}

func (s *service) Update(ctx context.Context, userID, prefID uuid.UUID, req UpdatePreferenceRequest) (*models.Preference, error) {
	owner, err := s.loadOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	pref, err := s.repo.FindByID(ctx, userID, prefID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "preference not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load preference")
	}

	if req.CardName != nil {
		name := strings.TrimSpace(*req.CardName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "card name cannot be empty")
		}
		pref.CardName = name
	}
	if req.ScryfallID != nil {
		pref.ScryfallID = req.ScryfallID
	}
	if req.MaxPrice != nil {
		pref.MaxPrice = req.MaxPrice
	}
	if req.Notes != nil {
		pref.Notes = req.Notes
	}

	if err := s.repo.Update(ctx, pref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update preference")
	}
	if err := s.listings.SyncPreference(ctx, owner, pref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh preference listing")
	}
	return pref, nil
}

func (s *service) Delete(ctx context.Context, userID, prefID uuid.UUID) error {
	if userID == uuid.Nil || prefID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and preference id are required")
	}

	if _, err := s.repo.FindByID(ctx, userID, prefID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "preference not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load preference")
	}

	if err := s.repo.Delete(ctx, userID, prefID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete preference")
	}
	return s.listings.RemovePreference(ctx, userID, prefID)
}

func (s *service) loadOwner(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	owner, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return owner, nil
}
