package prices

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/davidcarrera/tradebinder-backend/pkg/cardprices"
	"github.com/davidcarrera/tradebinder-backend/pkg/config"
	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	pkgerrors "github.com/davidcarrera/tradebinder-backend/pkg/errors"
	"github.com/davidcarrera/tradebinder-backend/pkg/logger"
	"github.com/davidcarrera/tradebinder-backend/pkg/scryfall"
)

type priceProvider interface {
	GetPrices(ctx context.Context, scryfallID string) (*cardprices.PricePoints, error)
}

type cardCatalog interface {
	SearchByName(ctx context.Context, name string) (*scryfall.Card, error)
}

// Result carries the outcome of a secondary-price fan-out. ResolvedIDs maps
// cards that had no external identity to the identity discovered for them,
// so callers can persist the link.
type Result struct {
	Prices      map[uuid.UUID]cardprices.PricePoints
	ResolvedIDs map[uuid.UUID]string
}

// Fetcher pulls secondary price points for collection cards in bounded
// concurrent batches. Lookup failures are silent: a card without secondary
// prices never blocks the primary total computation.
//
// The visited set lives for the fetcher's lifetime, so a card whose identity
// resolution failed once is not retried until a new fetcher is built.
type Fetcher struct {
	provider  priceProvider
	catalog   cardCatalog
	logg      *logger.Logger
	batchSize int
	delay     time.Duration

	mu      sync.Mutex
	visited map[uuid.UUID]struct{}
}

// FetcherParams groups dependencies for the price fetcher.
type FetcherParams struct {
	Provider priceProvider
	Catalog  cardCatalog
	Logger   *logger.Logger
	Config   config.CardPricesConfig
}

// NewFetcher builds a price fetcher with the required dependencies.
func NewFetcher(params FetcherParams) (*Fetcher, error) {
	if params.Provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price provider is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}

	batchSize := params.Config.FetchBatchSize
	if batchSize <= 0 {
		batchSize = 5
	}
	delay := params.Config.InterBatchDelay
	if delay < 0 {
		delay = 0
	}

	return &Fetcher{
		provider:  params.Provider,
		catalog:   params.Catalog,
		logg:      params.Logger,
		batchSize: batchSize,
		delay:     delay,
		visited:   make(map[uuid.UUID]struct{}),
	}, nil
}

// Fetch resolves secondary prices for the given cards. Cards without an
// external identity get one best-effort catalog resolution by cleaned name;
// at most one attempt per card per fetcher lifetime.
func (f *Fetcher) Fetch(ctx context.Context, cards []models.CardInstance) Result {
	result := Result{
		Prices:      make(map[uuid.UUID]cardprices.PricePoints),
		ResolvedIDs: make(map[uuid.UUID]string),
	}

	var mu sync.Mutex
	for start := 0; start < len(cards); start += f.batchSize {
		end := min(start+f.batchSize, len(cards))

		group, groupCtx := errgroup.WithContext(ctx)
		for _, card := range cards[start:end] {
			card := card
			group.Go(func() error {
				scryfallID, resolved := f.identityFor(groupCtx, card)
				if scryfallID == "" {
					return nil
				}

				points, err := f.provider.GetPrices(groupCtx, scryfallID)
				if err != nil || points == nil || points.IsEmpty() {
					return nil
				}

				mu.Lock()
				result.Prices[card.ID] = *points
				if resolved {
					result.ResolvedIDs[card.ID] = scryfallID
				}
				mu.Unlock()
				return nil
			})
		}
		_ = group.Wait()

		if end < len(cards) && f.delay > 0 {
			timer := time.NewTimer(f.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return result
			case <-timer.C:
			}
		}
	}

	logCtx := f.logg.WithFields(ctx, map[string]any{
		"cards":    len(cards),
		"priced":   len(result.Prices),
		"resolved": len(result.ResolvedIDs),
	})
	f.logg.Info(logCtx, "secondary price fetch complete")

	return result
}

// identityFor returns the card's external identity, resolving it through the
// catalog when missing. The second return reports a fresh resolution.
func (f *Fetcher) identityFor(ctx context.Context, card models.CardInstance) (string, bool) {
	if card.ScryfallID != nil && *card.ScryfallID != "" {
		return *card.ScryfallID, false
	}
	if f.catalog == nil {
		return "", false
	}

	f.mu.Lock()
	if _, seen := f.visited[card.ID]; seen {
		f.mu.Unlock()
		return "", false
	}
	f.visited[card.ID] = struct{}{}
	f.mu.Unlock()

	found, err := f.catalog.SearchByName(ctx, cleanName(card.Name))
	if err != nil || found == nil {
		return "", false
	}
	if found.ID == "" || found.ImageURL == "" || found.Prices.USD == nil {
		return "", false
	}
	return found.ID, true
}

// cleanName strips split-card suffixes and parenthesized qualifiers before a
// catalog lookup.
func cleanName(name string) string {
	cleaned := name
	if idx := strings.Index(cleaned, "//"); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	if idx := strings.Index(cleaned, "("); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	return strings.TrimSpace(cleaned)
}
