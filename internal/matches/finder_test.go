package matches

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	"github.com/davidcarrera/tradebinder-backend/pkg/enums"
)

type nameQuery struct {
	kind         enums.ListingKind
	names        []string
	excludeOwner uuid.UUID
}

type fakeListingSource struct {
	queries  []nameQuery
	listings map[enums.ListingKind][]models.PublicListing
}

func (f *fakeListingSource) FindByNames(ctx context.Context, kind enums.ListingKind, names []string, excludeOwner uuid.UUID) ([]models.PublicListing, error) {
	f.queries = append(f.queries, nameQuery{kind: kind, names: names, excludeOwner: excludeOwner})

	// Mirrors the repository contract: name equality ignores case.
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[strings.ToLower(name)] = struct{}{}
	}
	var out []models.PublicListing
	for _, listing := range f.listings[kind] {
		if listing.OwnerUserID == excludeOwner {
			continue
		}
		if _, ok := wanted[strings.ToLower(listing.CardName)]; ok {
			out = append(out, listing)
		}
	}
	return out, nil
}

func cardListing(owner uuid.UUID, username, cardName string, price int64) models.PublicListing {
	p := decimal.NewFromInt(price)
	return models.PublicListing{
		Key:           fmt.Sprintf("%s_%s", owner, uuid.New()),
		OwnerUserID:   owner,
		OwnerUsername: username,
		Kind:          enums.ListingKindCard,
		SourceID:      uuid.New(),
		CardName:      cardName,
		Quantity:      1,
		Price:         &p,
	}
}

func prefListing(owner uuid.UUID, username, cardName string) models.PublicListing {
	listing := cardListing(owner, username, cardName, 0)
	listing.Kind = enums.ListingKindPreference
	listing.Price = nil
	return listing
}

func tradeableCard(userID uuid.UUID, name string, price int64) models.CardInstance {
	return models.CardInstance{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     name,
		Edition:  "LEA",
		Quantity: 1,
		Price:    decimal.NewFromInt(price),
		Status:   enums.CardStatusTrade,
		Public:   true,
	}
}

func preference(userID uuid.UUID, cardName string) models.Preference {
	return models.Preference{ID: uuid.New(), UserID: userID, CardName: cardName}
}

func newFinderForTest(t *testing.T, source *fakeListingSource, chunk int) *Finder {
	t.Helper()
	finder, err := NewFinder(source, chunk)
	if err != nil {
		t.Fatalf("new finder: %v", err)
	}
	return finder
}

func TestDiscoverChunksNameQueries(t *testing.T) {
	source := &fakeListingSource{}
	finder := newFinderForTest(t, source, 30)
	userID := uuid.New()

	prefs := make([]models.Preference, 0, 45)
	for i := 0; i < 45; i++ {
		prefs = append(prefs, preference(userID, fmt.Sprintf("Card %02d", i)))
	}

	if _, err := finder.Discover(context.Background(), userID, nil, prefs); err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(source.queries) != 2 {
		t.Fatalf("expected 45 names split into 2 queries, got %d", len(source.queries))
	}
	if len(source.queries[0].names) != 30 || len(source.queries[1].names) != 15 {
		t.Fatalf("expected chunk sizes 30 and 15, got %d and %d",
			len(source.queries[0].names), len(source.queries[1].names))
	}
}

func TestDiscoverExcludesOwnListings(t *testing.T) {
	userID := uuid.New()
	source := &fakeListingSource{listings: map[enums.ListingKind][]models.PublicListing{
		enums.ListingKindCard: {
			cardListing(userID, "me", "Lightning Bolt", 5),
		},
	}}
	finder := newFinderForTest(t, source, 30)

	results, err := finder.Discover(context.Background(), userID, nil,
		[]models.Preference{preference(userID, "Lightning Bolt")})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected own listings excluded, got %d matches", len(results))
	}
	if source.queries[0].excludeOwner != userID {
		t.Fatalf("expected exclusion pushed into the query")
	}
}

func TestDiscoverMergesBidirectional(t *testing.T) {
	userID := uuid.New()
	otherID := uuid.New()

	// they list Foo (which I want) and want Bar (which I have)
	source := &fakeListingSource{listings: map[enums.ListingKind][]models.PublicListing{
		enums.ListingKindCard:       {cardListing(otherID, "ana", "Foo", 10)},
		enums.ListingKindPreference: {prefListing(otherID, "ana", "Bar")},
	}}
	finder := newFinderForTest(t, source, 30)

	results, err := finder.Discover(context.Background(), userID,
		[]models.CardInstance{tradeableCard(userID, "Bar", 8)},
		[]models.Preference{preference(userID, "Foo")})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected single merged match, got %d", len(results))
	}
	match := results[0]
	if match.Type != enums.MatchTypeBidirectional {
		t.Fatalf("expected bidirectional type, got %s", match.Type)
	}
	if len(match.MyCards) != 1 || match.MyCards[0].Name != "Bar" {
		t.Fatalf("expected my side to carry Bar, got %v", match.MyCards)
	}
	if len(match.OtherCards) != 1 || match.OtherCards[0].Name != "Foo" {
		t.Fatalf("expected other side to carry Foo, got %v", match.OtherCards)
	}
	if !match.ValueDifference.Equal(decimal.NewFromInt(-2)) {
		t.Fatalf("expected value difference -2, got %s", match.ValueDifference)
	}
}

func TestDiscoverKeepsUnidirectionalTypes(t *testing.T) {
	userID := uuid.New()
	seller := uuid.New()
	wanter := uuid.New()

	source := &fakeListingSource{listings: map[enums.ListingKind][]models.PublicListing{
		enums.ListingKindCard:       {cardListing(seller, "seller", "Foo", 10)},
		enums.ListingKindPreference: {prefListing(wanter, "wanter", "Bar")},
	}}
	finder := newFinderForTest(t, source, 30)

	results, err := finder.Discover(context.Background(), userID,
		[]models.CardInstance{tradeableCard(userID, "Bar", 8)},
		[]models.Preference{preference(userID, "Foo")})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected two unidirectional matches, got %d", len(results))
	}

	types := map[uuid.UUID]enums.MatchType{}
	for _, match := range results {
		types[match.OtherUserID] = match.Type
	}
	if types[seller] != enums.MatchTypeBusco {
		t.Fatalf("expected BUSCO toward seller, got %s", types[seller])
	}
	if types[wanter] != enums.MatchTypeVendo {
		t.Fatalf("expected VENDO toward wanter, got %s", types[wanter])
	}
}

func TestDiscoverMatchesNamesCaseInsensitively(t *testing.T) {
	userID := uuid.New()
	otherID := uuid.New()

	source := &fakeListingSource{listings: map[enums.ListingKind][]models.PublicListing{
		enums.ListingKindPreference: {prefListing(otherID, "ana", "LIGHTNING BOLT")},
	}}
	finder := newFinderForTest(t, source, 30)

	results, err := finder.Discover(context.Background(), userID,
		[]models.CardInstance{tradeableCard(userID, "Lightning Bolt", 5)}, nil)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected casing differences to still match, got %d results", len(results))
	}
	if len(results[0].MyCards) != 1 || results[0].MyCards[0].Name != "Lightning Bolt" {
		t.Fatalf("expected my card offered, got %v", results[0].MyCards)
	}
}

func TestDiscoverOffersEveryPrinting(t *testing.T) {
	userID := uuid.New()
	otherID := uuid.New()

	alpha := tradeableCard(userID, "Lightning Bolt", 40)
	reprint := tradeableCard(userID, "Lightning Bolt", 2)
	reprint.Edition = "M10"

	source := &fakeListingSource{listings: map[enums.ListingKind][]models.PublicListing{
		enums.ListingKindPreference: {prefListing(otherID, "ana", "Lightning Bolt")},
	}}
	finder := newFinderForTest(t, source, 30)

	results, err := finder.Discover(context.Background(), userID,
		[]models.CardInstance{alpha, reprint}, nil)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected single match, got %d", len(results))
	}
	if len(results[0].MyCards) != 2 {
		t.Fatalf("expected both printings offered, got %v", results[0].MyCards)
	}
	editions := map[string]bool{}
	for _, line := range results[0].MyCards {
		editions[line.Edition] = true
	}
	if !editions["LEA"] || !editions["M10"] {
		t.Fatalf("expected both editions present, got %v", editions)
	}
}

func TestDiscoverDoesNotDuplicateMatches(t *testing.T) {
	userID := uuid.New()
	otherID := uuid.New()

	source := &fakeListingSource{listings: map[enums.ListingKind][]models.PublicListing{
		enums.ListingKindCard: {cardListing(otherID, "ana", "Foo", 10)},
	}}
	finder := newFinderForTest(t, source, 30)

	// the same want declared twice must not emit the match twice
	results, err := finder.Discover(context.Background(), userID, nil,
		[]models.Preference{preference(userID, "Foo"), preference(userID, "Foo")})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected deduplicated result, got %d", len(results))
	}
}

func TestCompatibilityScoring(t *testing.T) {
	balanced := compatibility(enums.MatchTypeBidirectional, decimal.NewFromInt(10), decimal.NewFromInt(10))
	if balanced != 100 {
		t.Fatalf("expected perfect score for balanced bidirectional, got %d", balanced)
	}

	lopsided := compatibility(enums.MatchTypeBidirectional, decimal.NewFromInt(100), decimal.NewFromInt(10))
	if lopsided >= balanced {
		t.Fatalf("expected lopsided to score lower, got %d", lopsided)
	}

	oneWay := compatibility(enums.MatchTypeBusco, decimal.Zero, decimal.NewFromInt(10))
	if oneWay >= 60 {
		t.Fatalf("expected unidirectional below its base, got %d", oneWay)
	}
	if oneWay < 0 {
		t.Fatalf("score must stay in range, got %d", oneWay)
	}
}

func TestMatchKeyIsSymmetric(t *testing.T) {
	userA := uuid.New()
	userB := uuid.New()
	mySide := []string{"Bar"}
	theirSide := []string{"Foo"}

	fromA := matchKey(userA, userB, mySide, theirSide)
	fromB := matchKey(userB, userA, theirSide, mySide)
	if fromA != fromB {
		t.Fatalf("expected both participants to derive the same key")
	}

	different := matchKey(userA, userB, theirSide, mySide)
	if different == fromA {
		t.Fatalf("expected swapped sides to change the key")
	}
}
