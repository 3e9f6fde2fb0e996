package matches

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davidcarrera/tradebinder-backend/pkg/db"
	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	pkgerrors "github.com/davidcarrera/tradebinder-backend/pkg/errors"
	"github.com/davidcarrera/tradebinder-backend/pkg/logger"
)

type tradeableCardSource interface {
	ListTradeableByUser(ctx context.Context, userID uuid.UUID) ([]models.CardInstance, error)
}

type preferenceSource interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Preference, error)
}

// Service exposes on-demand match discovery plus the saved-match lifecycle.
type Service interface {
	Discover(ctx context.Context, userID uuid.UUID) ([]Match, error)
	Save(ctx context.Context, userID uuid.UUID, match Match) (*models.SavedMatch, error)
	ListSaved(ctx context.Context, userID uuid.UUID) ([]models.SavedMatch, error)
	DeleteSaved(ctx context.Context, userID, savedMatchID uuid.UUID) error
}

// ServiceParams groups dependencies for the matches service.
type ServiceParams struct {
	Repo        *Repository
	Finder      *Finder
	Cards       tradeableCardSource
	Preferences preferenceSource
	Logger      *logger.Logger
}

type service struct {
	repo   *Repository
	finder *Finder
	cards  tradeableCardSource
	prefs  preferenceSource
	logg   *logger.Logger
}

// NewService builds a matches service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "matches repo is required")
	}
	if params.Finder == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "finder is required")
	}
	if params.Cards == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card source is required")
	}
	if params.Preferences == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preferences source is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		repo:   params.Repo,
		finder: params.Finder,
		cards:  params.Cards,
		prefs:  params.Preferences,
		logg:   params.Logger,
	}, nil
}

// Discover recomputes matches from the user's current snapshot. Results are
// never cached: listings change under us, so every call re-queries.
func (s *service) Discover(ctx context.Context, userID uuid.UUID) ([]Match, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	myCards, err := s.cards.ListTradeableByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tradeable cards")
	}
	myPrefs, err := s.prefs.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load preferences")
	}

	return s.finder.Discover(ctx, userID, myCards, myPrefs)
}

func (s *service) Save(ctx context.Context, userID uuid.UUID, match Match) (*models.SavedMatch, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if match.Key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "match key is required")
	}
	if match.OtherUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counterpart user id is required")
	}
	if !match.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid match type")
	}

	saved := &models.SavedMatch{
		ID:              uuid.New(),
		UserID:          userID,
		MatchKey:        match.Key,
		OtherUserID:     match.OtherUserID,
		OtherUsername:   match.OtherUsername,
		OtherLocation:   match.OtherLocation,
		Type:            match.Type,
		MyCards:         match.MyCards,
		OtherCards:      match.OtherCards,
		MyTotalValue:    match.MyTotalValue,
		TheirTotalValue: match.TheirTotalValue,
		ValueDifference: match.ValueDifference,
		Compatibility:   match.Compatibility,
	}
	if err := s.repo.Create(ctx, saved); err != nil {
		if db.IsUniqueViolation(err, "") {
			existing, findErr := s.repo.FindByKey(ctx, userID, match.Key)
			if findErr == nil {
				return existing, nil
			}
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "match already saved")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save match")
	}
	return saved, nil
}

func (s *service) ListSaved(ctx context.Context, userID uuid.UUID) ([]models.SavedMatch, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) DeleteSaved(ctx context.Context, userID, savedMatchID uuid.UUID) error {
	if userID == uuid.Nil || savedMatchID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and match id are required")
	}
	if _, err := s.repo.FindByID(ctx, userID, savedMatchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "saved match not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load saved match")
	}
	return s.repo.Delete(ctx, userID, savedMatchID)
}
