package collection

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/davidcarrera/tradebinder-backend/internal/allocations"
	"github.com/davidcarrera/tradebinder-backend/internal/prices"
	"github.com/davidcarrera/tradebinder-backend/pkg/cardprices"
	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	"github.com/davidcarrera/tradebinder-backend/pkg/enums"
	pkgerrors "github.com/davidcarrera/tradebinder-backend/pkg/errors"
	"github.com/davidcarrera/tradebinder-backend/pkg/logger"
)

type userSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type deckSource interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Deck, error)
	ListCardsByUser(ctx context.Context, userID uuid.UUID) ([]models.DeckCard, error)
}

type preferenceSource interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Preference, error)
}

type listingSyncer interface {
	SyncCard(ctx context.Context, owner *models.User, before, after *models.CardInstance) error
	ResyncUser(ctx context.Context, owner *models.User, cards []models.CardInstance, prefs []models.Preference) error
}

type priceFetcher interface {
	Fetch(ctx context.Context, cards []models.CardInstance) prices.Result
}

// Service exposes business rules for the private collection ledger. Every
// card mutation re-evaluates public listing qualification, and destructive
// quantity changes are guarded by the allocation index.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.CardInstance, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateCardRequest) (*models.CardInstance, error)
	Update(ctx context.Context, userID, cardID uuid.UUID, req UpdateCardRequest) (*models.CardInstance, error)
	Delete(ctx context.Context, userID, cardID uuid.UUID) error
	Totals(ctx context.Context, userID uuid.UUID) (*Totals, error)
	AllocationSummary(ctx context.Context, userID, cardID uuid.UUID) (*allocations.Summary, error)
	CheckReduction(ctx context.Context, userID, cardID uuid.UUID, newQuantity int) (*allocations.ReductionCheck, error)
	ResyncListings(ctx context.Context, userID uuid.UUID) error
}

// ServiceParams groups dependencies for the collection service. Fetcher is
// optional: without it, totals carry primary prices only.
type ServiceParams struct {
	Repo        *Repository
	Users       userSource
	Decks       deckSource
	Preferences preferenceSource
	Listings    listingSyncer
	Fetcher     priceFetcher
	Logger      *logger.Logger
}

type service struct {
	repo    *Repository
	users   userSource
	decks   deckSource
	prefs   preferenceSource
	syncer  listingSyncer
	fetcher priceFetcher
	logg    *logger.Logger
}

// NewService builds a collection service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collection repo is required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "users source is required")
	}
	if params.Decks == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decks source is required")
	}
	if params.Preferences == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preferences source is required")
	}
	if params.Listings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing syncer is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		repo:    params.Repo,
		users:   params.Users,
		decks:   params.Decks,
		prefs:   params.Preferences,
		syncer:  params.Listings,
		fetcher: params.Fetcher,
		logg:    params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.CardInstance, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateCardRequest) (*models.CardInstance, error) {
	owner, err := s.loadOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card name is required")
	}
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	card := &models.CardInstance{
		ID:              uuid.New(),
		UserID:          userID,
		ScryfallID:      req.ScryfallID,
		Name:            name,
		Edition:         strings.TrimSpace(req.Edition),
		CollectorNumber: req.CollectorNumber,
		Condition:       enums.CardConditionNearMint,
		Foil:            req.Foil,
		Quantity:        req.Quantity,
		Price:           decimal.Zero,
		Status:          enums.CardStatusCollection,
		Public:          req.Public,
		ImageURL:        req.ImageURL,
	}
	if req.Condition != nil {
		if !req.Condition.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid card condition")
		}
		card.Condition = *req.Condition
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid card status")
		}
		card.Status = *req.Status
	}
	if req.Price != nil {
		card.Price = *req.Price
	}

	if err := s.repo.Create(ctx, card); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create card")
	}
	if err := s.syncer.SyncCard(ctx, owner, nil, card); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sync card listing")
	}
	return card, nil
}

func (s *service) Update(ctx context.Context, userID, cardID uuid.UUID, req UpdateCardRequest) (*models.CardInstance, error) {
	owner, err := s.loadOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	card, err := s.loadCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	before := *card

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "card name cannot be empty")
		}
		card.Name = name
	}
	if req.Edition != nil {
		card.Edition = strings.TrimSpace(*req.Edition)
	}
	if req.Condition != nil {
		if !req.Condition.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid card condition")
		}
		card.Condition = *req.Condition
	}
	if req.Foil != nil {
		card.Foil = *req.Foil
	}
	if req.Price != nil {
		card.Price = *req.Price
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid card status")
		}
		card.Status = *req.Status
	}
	if req.Public != nil {
		card.Public = *req.Public
	}
	if req.ImageURL != nil {
		card.ImageURL = req.ImageURL
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
		}
		card.Quantity = *req.Quantity
	}

	// A quantity drop or a move out of owned status can strand deck
	// allocations, so both are checked against the allocation index.
	effectiveQty := card.Quantity
	if !card.Status.IsOwned() {
		effectiveQty = 0
	}
	if effectiveQty < before.Quantity {
		check, err := s.reductionCheck(ctx, userID, cardID, effectiveQty)
		if err != nil {
			return nil, err
		}
		if !check.CanReduce {
			return nil, pkgerrors.New(pkgerrors.CodeOverAllocated, "card is allocated to decks").
				WithDetails(check)
		}
	}

	if err := s.repo.Update(ctx, card); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update card")
	}
	if err := s.syncer.SyncCard(ctx, owner, &before, card); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sync card listing")
	}
	return card, nil
}

func (s *service) Delete(ctx context.Context, userID, cardID uuid.UUID) error {
	owner, err := s.loadOwner(ctx, userID)
	if err != nil {
		return err
	}

	card, err := s.loadCard(ctx, userID, cardID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, userID, cardID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete card")
	}
	// Deck slots pointing at this card become unresolved via the FK, which
	// is the same state an unowned imported slot starts in.
	return s.syncer.SyncCard(ctx, owner, card, nil)
}

func (s *service) Totals(ctx context.Context, userID uuid.UUID) (*Totals, error) {
	cards, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	secondary := map[uuid.UUID]cardprices.PricePoints{}
	if s.fetcher != nil {
		result := s.fetcher.Fetch(ctx, cards)
		secondary = result.Prices

		for cardID, scryfallID := range result.ResolvedIDs {
			if err := s.repo.UpdateScryfallID(ctx, cardID, scryfallID); err != nil {
				logCtx := s.logg.WithFields(ctx, map[string]any{"card_id": cardID.String()})
				s.logg.Warn(logCtx, "persist resolved scryfall id failed")
			}
		}
	}

	totals := ComputeTotals(cards, secondary)
	return &totals, nil
}

func (s *service) AllocationSummary(ctx context.Context, userID, cardID uuid.UUID) (*allocations.Summary, error) {
	idx, err := s.buildIndex(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := idx.Summarize(cardID)
	if summary == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "card not found")
	}
	return summary, nil
}

func (s *service) CheckReduction(ctx context.Context, userID, cardID uuid.UUID, newQuantity int) (*allocations.ReductionCheck, error) {
	if newQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if _, err := s.loadCard(ctx, userID, cardID); err != nil {
		return nil, err
	}
	return s.reductionCheck(ctx, userID, cardID, newQuantity)
}

func (s *service) ResyncListings(ctx context.Context, userID uuid.UUID) error {
	owner, err := s.loadOwner(ctx, userID)
	if err != nil {
		return err
	}
	cards, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cards")
	}
	prefs, err := s.prefs.ListByUser(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load preferences")
	}
	return s.syncer.ResyncUser(ctx, owner, cards, prefs)
}

// buildIndex snapshots the user's collection and decks into a fresh
// allocation index. The index is always rebuilt, never cached.
func (s *service) buildIndex(ctx context.Context, userID uuid.UUID) (*allocations.Index, error) {
	cards, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cards")
	}
	decks, err := s.decks.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load decks")
	}
	deckCards, err := s.decks.ListCardsByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deck cards")
	}
	return allocations.BuildIndex(cards, decks, deckCards), nil
}

func (s *service) reductionCheck(ctx context.Context, userID, cardID uuid.UUID, newQuantity int) (*allocations.ReductionCheck, error) {
	idx, err := s.buildIndex(ctx, userID)
	if err != nil {
		return nil, err
	}
	check := idx.CheckReduction(cardID, newQuantity)
	return &check, nil
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

func (s *service) loadCard(ctx context.Context, userID, cardID uuid.UUID) (*models.CardInstance, error) {
	if cardID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card id is required")
	}
	card, err := s.repo.FindByID(ctx, userID, cardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "card not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load card")
	}
	return card, nil
}
