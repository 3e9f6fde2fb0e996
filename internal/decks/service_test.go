package decks

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	"github.com/davidcarrera/tradebinder-backend/pkg/enums"
	pkgerrors "github.com/davidcarrera/tradebinder-backend/pkg/errors"
	"github.com/davidcarrera/tradebinder-backend/pkg/logger"
	"github.com/davidcarrera/tradebinder-backend/pkg/moxfield"
)

type fakeCardSource struct {
	cards []models.CardInstance
}

func (f *fakeCardSource) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CardInstance, error) {
	return f.cards, nil
}

type fakeImporter struct {
	deck *moxfield.Deck
	err  error
}

func (f *fakeImporter) GetDeck(ctx context.Context, deckID string) (*moxfield.Deck, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.deck, nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := gdb.AutoMigrate(&models.Deck{}, &models.DeckCard{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func newTestService(t *testing.T, cards *fakeCardSource, importer deckImporter) (Service, uuid.UUID) {
	t.Helper()
	if cards == nil {
		cards = &fakeCardSource{}
	}
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(openTestDB(t)),
		Cards:    cards,
		Importer: importer,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, uuid.New()
}

func ownedCard(userID uuid.UUID, name, scryfallID string, quantity int) models.CardInstance {
	id := scryfallID
	return models.CardInstance{
		ID:         uuid.New(),
		UserID:     userID,
		ScryfallID: &id,
		Name:       name,
		Edition:    "LEA",
		Quantity:   quantity,
		Status:     enums.CardStatusCollection,
	}
}

func TestCreateAndGetDeck(t *testing.T) {
	svc, userID := newTestService(t, nil, nil)

	deck, err := svc.Create(context.Background(), userID, CreateDeckRequest{Name: "  Burn  "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if deck.Name != "Burn" {
		t.Fatalf("expected trimmed name, got %q", deck.Name)
	}

	detail, err := svc.Get(context.Background(), userID, deck.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(detail.Cards) != 0 {
		t.Fatalf("expected empty deck, got %d cards", len(detail.Cards))
	}
}

func TestGetIsOwnerScoped(t *testing.T) {
	svc, userID := newTestService(t, nil, nil)

	deck, err := svc.Create(context.Background(), userID, CreateDeckRequest{Name: "Burn"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Get(context.Background(), uuid.New(), deck.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}
}

func TestAddCardGuardsAvailability(t *testing.T) {
	userID := uuid.New()
	card := ownedCard(userID, "Lightning Bolt", "sf-bolt", 3)
	svc, _ := newTestService(t, &fakeCardSource{cards: []models.CardInstance{card}}, nil)

	deck, err := svc.Create(context.Background(), userID, CreateDeckRequest{Name: "Burn"})
	if err != nil {
		t.Fatalf("create deck: %v", err)
	}

	slot, err := svc.AddCard(context.Background(), userID, deck.ID, AddCardRequest{
		CardID:   &card.ID,
		Quantity: 2,
	})
	if err != nil {
		t.Fatalf("add card: %v", err)
	}
	if slot.Name != "Lightning Bolt" {
		t.Fatalf("expected name filled from collection card, got %q", slot.Name)
	}

	// 2 of 3 copies claimed; asking for 2 more must fail
	_, err = svc.AddCard(context.Background(), userID, deck.ID, AddCardRequest{
		CardID:   &card.ID,
		Quantity: 2,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeOverAllocated {
		t.Fatalf("expected over-allocated error, got %v", err)
	}
}

func TestAddCardRejectsWishlistCards(t *testing.T) {
	userID := uuid.New()
	card := ownedCard(userID, "Mox Ruby", "sf-mox", 1)
	card.Status = enums.CardStatusWishlist
	svc, _ := newTestService(t, &fakeCardSource{cards: []models.CardInstance{card}}, nil)

	deck, err := svc.Create(context.Background(), userID, CreateDeckRequest{Name: "Vintage"})
	if err != nil {
		t.Fatalf("create deck: %v", err)
	}

	_, err = svc.AddCard(context.Background(), userID, deck.ID, AddCardRequest{CardID: &card.ID, Quantity: 1})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for wishlist card, got %v", err)
	}
}

func TestAddUnresolvedSlotByName(t *testing.T) {
	svc, userID := newTestService(t, nil, nil)

	deck, err := svc.Create(context.Background(), userID, CreateDeckRequest{Name: "Wish Deck"})
	if err != nil {
		t.Fatalf("create deck: %v", err)
	}

	slot, err := svc.AddCard(context.Background(), userID, deck.ID, AddCardRequest{
		Name:     "Black Lotus",
		Quantity: 1,
	})
	if err != nil {
		t.Fatalf("add unresolved slot: %v", err)
	}
	if slot.CardID != nil {
		t.Fatalf("expected unresolved slot, got linked card %v", slot.CardID)
	}
}

func TestImportLinksOwnedCards(t *testing.T) {
	userID := uuid.New()
	bolt := ownedCard(userID, "Lightning Bolt", "sf-bolt", 4)
	importer := &fakeImporter{deck: &moxfield.Deck{
		Name:   "Imported Burn",
		Format: "modern",
		Entries: []moxfield.DeckEntry{
			{Name: "Lightning Bolt", ScryfallID: "sf-bolt", Quantity: 4},
			{Name: "Fireblast", ScryfallID: "sf-fireblast", Quantity: 2},
			{Name: "Mountain", Quantity: 18},
		},
	}}
	svc, _ := newTestService(t, &fakeCardSource{cards: []models.CardInstance{bolt}}, importer)

	result, err := svc.Import(context.Background(), userID, "https://moxfield.example/decks/abc123")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Deck.Name != "Imported Burn" {
		t.Fatalf("expected imported name, got %q", result.Deck.Name)
	}
	if result.TotalSlots != 3 || result.Linked != 1 || result.Unresolved != 2 {
		t.Fatalf("unexpected import result: %+v", result)
	}
	if result.Deck.SourceURL == nil || *result.Deck.SourceURL != "https://moxfield.example/decks/abc123" {
		t.Fatalf("expected source url stored")
	}
}

func TestImportRespectsExistingAllocations(t *testing.T) {
	userID := uuid.New()
	bolt := ownedCard(userID, "Lightning Bolt", "sf-bolt", 4)
	importer := &fakeImporter{deck: &moxfield.Deck{
		Name: "Imported Burn",
		Entries: []moxfield.DeckEntry{
			{Name: "Lightning Bolt", ScryfallID: "sf-bolt", Quantity: 2},
		},
	}}
	svc, _ := newTestService(t, &fakeCardSource{cards: []models.CardInstance{bolt}}, importer)

	deck, err := svc.Create(context.Background(), userID, CreateDeckRequest{Name: "Burn"})
	if err != nil {
		t.Fatalf("create deck: %v", err)
	}
	if _, err := svc.AddCard(context.Background(), userID, deck.ID, AddCardRequest{
		CardID:   &bolt.ID,
		Quantity: 3,
	}); err != nil {
		t.Fatalf("add card: %v", err)
	}

	// 3 of 4 copies already claimed; a 2-copy slot must stay unresolved.
	result, err := svc.Import(context.Background(), userID, "abc123")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Linked != 0 || result.Unresolved != 1 {
		t.Fatalf("expected slot left unresolved, got %+v", result)
	}
}

func TestImportSlotsShareAvailability(t *testing.T) {
	userID := uuid.New()
	bolt := ownedCard(userID, "Lightning Bolt", "sf-bolt", 4)
	importer := &fakeImporter{deck: &moxfield.Deck{
		Name: "Imported Burn",
		Entries: []moxfield.DeckEntry{
			{Name: "Lightning Bolt", ScryfallID: "sf-bolt", Quantity: 3},
			{Name: "Lightning Bolt", ScryfallID: "sf-bolt", Quantity: 3, IsInSideboard: true},
		},
	}}
	svc, _ := newTestService(t, &fakeCardSource{cards: []models.CardInstance{bolt}}, importer)

	result, err := svc.Import(context.Background(), userID, "abc123")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Linked != 1 || result.Unresolved != 1 {
		t.Fatalf("expected only the first slot to claim the copies, got %+v", result)
	}
}

func TestImportWithoutImporterFails(t *testing.T) {
	svc, userID := newTestService(t, nil, nil)

	_, err := svc.Import(context.Background(), userID, "abc123")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExtractDeckID(t *testing.T) {
	cases := map[string]string{
		"abc123":                                 "abc123",
		"https://moxfield.example/decks/abc123":  "abc123",
		"https://moxfield.example/decks/abc123/": "abc123",
	}
	for input, want := range cases {
		if got := extractDeckID(input); got != want {
			t.Fatalf("extractDeckID(%q) = %q, want %q", input, got, want)
		}
	}
}
