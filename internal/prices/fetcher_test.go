package prices

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidcarrera/tradebinder-backend/pkg/cardprices"
	"github.com/davidcarrera/tradebinder-backend/pkg/config"
	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	"github.com/davidcarrera/tradebinder-backend/pkg/logger"
	"github.com/davidcarrera/tradebinder-backend/pkg/scryfall"
)

type fakeProvider struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeProvider) GetPrices(ctx context.Context, scryfallID string) (*cardprices.PricePoints, error) {
	f.mu.Lock()
	f.calls = append(f.calls, scryfallID)
	f.mu.Unlock()
	if f.fail[scryfallID] {
		return nil, fmt.Errorf("provider down")
	}
	retail := decimal.NewFromInt(2)
	return &cardprices.PricePoints{Retail: &retail}, nil
}

type fakeCatalog struct {
	mu      sync.Mutex
	queries []string
	result  *scryfall.Card
	err     error
}

func (f *fakeCatalog) SearchByName(ctx context.Context, name string) (*scryfall.Card, error) {
	f.mu.Lock()
	f.queries = append(f.queries, name)
	f.mu.Unlock()
	return f.result, f.err
}

func newFetcherForTest(t *testing.T, provider *fakeProvider, catalog *fakeCatalog) *Fetcher {
	t.Helper()
	fetcher, err := NewFetcher(FetcherParams{
		Provider: provider,
		Catalog:  catalog,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Config:   config.CardPricesConfig{FetchBatchSize: 2, InterBatchDelay: 0},
	})
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	return fetcher
}

func cardWithID(scryfallID string) models.CardInstance {
	return models.CardInstance{
		ID:         uuid.New(),
		ScryfallID: &scryfallID,
		Name:       "Some Card",
	}
}

func TestFetchCollectsPricesForAllCards(t *testing.T) {
	provider := &fakeProvider{}
	fetcher := newFetcherForTest(t, provider, nil)

	cards := []models.CardInstance{
		cardWithID("s1"), cardWithID("s2"), cardWithID("s3"), cardWithID("s4"), cardWithID("s5"),
	}

	result := fetcher.Fetch(context.Background(), cards)
	if len(result.Prices) != 5 {
		t.Fatalf("expected 5 price entries, got %d", len(result.Prices))
	}
	if len(provider.calls) != 5 {
		t.Fatalf("expected 5 provider calls, got %d", len(provider.calls))
	}
}

func TestFetchFailuresAreSilent(t *testing.T) {
	provider := &fakeProvider{fail: map[string]bool{"s2": true}}
	fetcher := newFetcherForTest(t, provider, nil)

	cards := []models.CardInstance{cardWithID("s1"), cardWithID("s2"), cardWithID("s3")}

	result := fetcher.Fetch(context.Background(), cards)
	if len(result.Prices) != 2 {
		t.Fatalf("expected 2 price entries despite one failure, got %d", len(result.Prices))
	}
}

func TestFetchResolvesMissingIdentityOnce(t *testing.T) {
	usd := decimal.NewFromInt(1)
	catalog := &fakeCatalog{result: &scryfall.Card{
		ID:       "resolved-1",
		Name:     "Fire",
		ImageURL: "https://img.example/fire.png",
		Prices:   scryfall.Prices{USD: &usd},
	}}
	provider := &fakeProvider{}
	fetcher := newFetcherForTest(t, provider, catalog)

	card := models.CardInstance{ID: uuid.New(), Name: "Fire // Ice (Apex)"}

	result := fetcher.Fetch(context.Background(), []models.CardInstance{card})
	if got := result.ResolvedIDs[card.ID]; got != "resolved-1" {
		t.Fatalf("expected resolved id recorded, got %q", got)
	}
	if len(result.Prices) != 1 {
		t.Fatalf("expected price for resolved card, got %d entries", len(result.Prices))
	}
	if len(catalog.queries) != 1 || catalog.queries[0] != "Fire" {
		t.Fatalf("expected one cleaned-name query, got %v", catalog.queries)
	}

	// second fetch must not retry the failed-or-done resolution
	_ = fetcher.Fetch(context.Background(), []models.CardInstance{card})
	if len(catalog.queries) != 1 {
		t.Fatalf("expected resolution attempted once, got %d attempts", len(catalog.queries))
	}
}

func TestFetchSkipsUnresolvableCards(t *testing.T) {
	catalog := &fakeCatalog{err: fmt.Errorf("catalog down")}
	provider := &fakeProvider{}
	fetcher := newFetcherForTest(t, provider, catalog)

	card := models.CardInstance{ID: uuid.New(), Name: "Obscure Card"}

	result := fetcher.Fetch(context.Background(), []models.CardInstance{card})
	if len(result.Prices) != 0 {
		t.Fatalf("expected no prices, got %d", len(result.Prices))
	}
	if len(provider.calls) != 0 {
		t.Fatalf("expected no provider calls for unresolved card, got %d", len(provider.calls))
	}
}

func TestCleanName(t *testing.T) {
	cases := map[string]string{
		"Lightning Bolt":        "Lightning Bolt",
		"Fire // Ice":           "Fire",
		"Forest (Full Art)":     "Forest",
		"  Wear // Tear (BAB) ": "Wear",
	}
	for input, want := range cases {
		if got := cleanName(input); got != want {
			t.Fatalf("cleanName(%q) = %q, want %q", input, got, want)
		}
	}
}
