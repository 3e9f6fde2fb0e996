package decks

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davidcarrera/tradebinder-backend/internal/allocations"
	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	pkgerrors "github.com/davidcarrera/tradebinder-backend/pkg/errors"
	"github.com/davidcarrera/tradebinder-backend/pkg/logger"
	"github.com/davidcarrera/tradebinder-backend/pkg/moxfield"
)

type ownedCardSource interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CardInstance, error)
}

type deckImporter interface {
	GetDeck(ctx context.Context, deckID string) (*moxfield.Deck, error)
}

// Service exposes deck building: CRUD, allocation-guarded slot management and
// import from an external deck source.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Deck, error)
	Get(ctx context.Context, userID, deckID uuid.UUID) (*DeckDetail, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateDeckRequest) (*models.Deck, error)
	Delete(ctx context.Context, userID, deckID uuid.UUID) error
	AddCard(ctx context.Context, userID, deckID uuid.UUID, req AddCardRequest) (*models.DeckCard, error)
	RemoveCard(ctx context.Context, userID, deckID, deckCardID uuid.UUID) error
	Import(ctx context.Context, userID uuid.UUID, source string) (*ImportResult, error)
}

// ServiceParams groups dependencies for the decks service. Importer is
// optional: without it, Import returns a validation error.
type ServiceParams struct {
	Repo     *Repository
	Cards    ownedCardSource
	Importer deckImporter
	Logger   *logger.Logger
}

type service struct {
	repo     *Repository
	cards    ownedCardSource
	importer deckImporter
	logg     *logger.Logger
}

// NewService builds a decks service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decks repo is required")
	}
	if params.Cards == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card source is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		repo:     params.Repo,
		cards:    params.Cards,
		importer: params.Importer,
		logg:     params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Deck, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Get(ctx context.Context, userID, deckID uuid.UUID) (*DeckDetail, error) {
	deck, err := s.loadDeck(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}
	cards, err := s.repo.ListCardsByDeck(ctx, deckID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deck cards")
	}
	return &DeckDetail{Deck: *deck, Cards: cards}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateDeckRequest) (*models.Deck, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deck name is required")
	}

	deck := &models.Deck{
		ID:     uuid.New(),
		UserID: userID,
		Name:   name,
		Format: req.Format,
	}
	if err := s.repo.Create(ctx, deck); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create deck")
	}
	return deck, nil
}

func (s *service) Delete(ctx context.Context, userID, deckID uuid.UUID) error {
	if _, err := s.loadDeck(ctx, userID, deckID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, deckID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete deck")
	}
	return nil
}

func (s *service) AddCard(ctx context.Context, userID, deckID uuid.UUID, req AddCardRequest) (*models.DeckCard, error) {
	deck, err := s.loadDeck(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	slot := models.DeckCard{
		ID:            uuid.New(),
		DeckID:        deck.ID,
		Name:          strings.TrimSpace(req.Name),
		ScryfallID:    req.ScryfallID,
		Edition:       req.Edition,
		Quantity:      req.Quantity,
		IsInSideboard: req.IsInSideboard,
		IsCommander:   req.IsCommander,
	}

	if req.CardID != nil {
		card, idx, err := s.ownedCardAndIndex(ctx, userID, *req.CardID)
		if err != nil {
			return nil, err
		}
		if available := idx.Available(card.ID); available < req.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeOverAllocated, "not enough unallocated copies").
				WithDetails(idx.Summarize(card.ID))
		}
		slot.CardID = &card.ID
		if slot.Name == "" {
			slot.Name = card.Name
		}
		if slot.ScryfallID == nil {
			slot.ScryfallID = card.ScryfallID
		}
	}
	if slot.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card name is required")
	}

	if err := s.repo.CreateCards(ctx, []models.DeckCard{slot}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create deck card")
	}
	return &slot, nil
}

func (s *service) RemoveCard(ctx context.Context, userID, deckID, deckCardID uuid.UUID) error {
	if _, err := s.loadDeck(ctx, userID, deckID); err != nil {
		return err
	}
	if err := s.repo.DeleteCard(ctx, userID, deckID, deckCardID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete deck card")
	}
	return nil
}

// Import fetches an external deck list, stores it as a new deck and links
// each slot to an owned collection card where one matches with unallocated
// copies to spare. Unmatched slots stay unresolved.
func (s *service) Import(ctx context.Context, userID uuid.UUID, source string) (*ImportResult, error) {
	if s.importer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deck import is not configured")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	deckID := extractDeckID(source)
	if deckID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deck source is required")
	}

	imported, err := s.importer.GetDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}

	deck := &models.Deck{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      imported.Name,
		SourceURL: &source,
	}
	if imported.Format != "" {
		format := imported.Format
		deck.Format = &format
	}
	if err := s.repo.Create(ctx, deck); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create imported deck")
	}

	owned, err := s.cards.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load collection")
	}
	existingDecks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load decks")
	}
	deckCards, err := s.repo.ListCardsByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deck cards")
	}

	// Linked slots consume availability just like hand-added ones, including
	// from earlier slots of this same import.
	idx := allocations.BuildIndex(owned, existingDecks, deckCards)
	available := make(map[uuid.UUID]int, len(owned))
	for i := range owned {
		available[owned[i].ID] = idx.Available(owned[i].ID)
	}

	slots := make([]models.DeckCard, 0, len(imported.Entries))
	linked := 0
	for _, entry := range imported.Entries {
		slot := models.DeckCard{
			ID:            uuid.New(),
			DeckID:        deck.ID,
			Name:          entry.Name,
			Quantity:      entry.Quantity,
			IsInSideboard: entry.IsInSideboard,
			IsCommander:   entry.IsCommander,
		}
		if entry.ScryfallID != "" {
			scryfallID := entry.ScryfallID
			slot.ScryfallID = &scryfallID
		}
		if entry.Edition != "" {
			edition := entry.Edition
			slot.Edition = &edition
		}

		if cardID := linkSlot(owned, slot, available); cardID != nil {
			slot.CardID = cardID
			available[*cardID] -= slot.Quantity
			linked++
		}
		slots = append(slots, slot)
	}

	if err := s.repo.CreateCards(ctx, slots); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create imported deck cards")
	}

	return &ImportResult{
		Deck:       *deck,
		TotalSlots: len(slots),
		Linked:     linked,
		Unresolved: len(slots) - linked,
	}, nil
}

// linkSlot finds an owned card satisfying the slot's spec with enough
// unallocated copies to cover it. Name-only slots never link; an external
// identity is required to claim a specific printing.
func linkSlot(owned []models.CardInstance, slot models.DeckCard, available map[uuid.UUID]int) *uuid.UUID {
	if slot.ScryfallID == nil || slot.Quantity <= 0 {
		return nil
	}
	spec := allocations.SlotSpec{
		ScryfallID: *slot.ScryfallID,
		Edition:    slot.Edition,
	}
	for _, card := range owned {
		if spec.Matches(card) && available[card.ID] >= slot.Quantity {
			id := card.ID
			return &id
		}
	}
	return nil
}

func (s *service) ownedCardAndIndex(ctx context.Context, userID, cardID uuid.UUID) (*models.CardInstance, *allocations.Index, error) {
	owned, err := s.cards.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load collection")
	}
	var card *models.CardInstance
	for i := range owned {
		if owned[i].ID == cardID {
			card = &owned[i]
			break
		}
	}
	if card == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "card not found")
	}
	if !card.Status.IsOwned() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist cards cannot be allocated")
	}

	decks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load decks")
	}
	deckCards, err := s.repo.ListCardsByUser(ctx, userID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deck cards")
	}
	return card, allocations.BuildIndex(owned, decks, deckCards), nil
}

func (s *service) loadDeck(ctx context.Context, userID, deckID uuid.UUID) (*models.Deck, error) {
	if userID == uuid.Nil || deckID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and deck id are required")
	}
	deck, err := s.repo.FindByID(ctx, userID, deckID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deck not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deck")
	}
	return deck, nil
}

// extractDeckID accepts either a bare deck id or a full deck URL and returns
// the id portion.
func extractDeckID(source string) string {
	trimmed := strings.TrimSpace(strings.TrimSuffix(source, "/"))
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return trimmed
}
