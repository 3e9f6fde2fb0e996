package moxfield

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/davidcarrera/tradebinder-backend/pkg/config"
	pkgerrors "github.com/davidcarrera/tradebinder-backend/pkg/errors"
	"github.com/davidcarrera/tradebinder-backend/pkg/metrics"
)

const (
	defaultBaseURL       = "https://api2.moxfield.com/v3"
	requestBodyReadLimit = int64(1024)
)

// Deck is a normalized external deck list.
type Deck struct {
	Name    string
	Format  string
	Entries []DeckEntry
}

// DeckEntry is one flattened deck line across all boards.
type DeckEntry struct {
	Name          string
	ScryfallID    string
	Edition       string
	Quantity      int
	IsInSideboard bool
	IsCommander   bool
}

// Client reads public deck lists from Moxfield.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *metrics.ProviderMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMetrics attaches provider call metrics.
func WithMetrics(m *metrics.ProviderMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a Moxfield client from configuration.
func NewClient(cfg config.MoxfieldConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// GetDeck fetches a public deck by its public ID and flattens every board
// into a single entry list with board flags.
func (c *Client) GetDeck(ctx context.Context, publicID string) (*Deck, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "moxfield client not configured")
	}
	trimmed := strings.TrimSpace(publicID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deck public id is required")
	}

	endpoint := fmt.Sprintf("%s/decks/all/%s", strings.TrimRight(c.baseURL, "/"), url.PathEscape(trimmed))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build deck request")
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveCall("moxfield", "get_deck", err, time.Since(started))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute deck request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deck not found on moxfield")
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"deck request failed",
		)
	}

	var payload deckPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode deck response")
	}

	return payload.toDeck(), nil
}

type deckPayload struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Boards map[string]struct {
		Cards map[string]struct {
			Quantity int `json:"quantity"`
			Card     struct {
				ScryfallID string `json:"scryfall_id"`
				Name       string `json:"name"`
				Set        string `json:"set"`
			} `json:"card"`
		} `json:"cards"`
	} `json:"boards"`
}

func (p deckPayload) toDeck() *Deck {
	deck := &Deck{
		Name:   p.Name,
		Format: p.Format,
	}

	// stable order so imports are deterministic
	for _, board := range []string{"commanders", "mainboard", "sideboard"} {
		b, ok := p.Boards[board]
		if !ok {
			continue
		}
		for _, entry := range b.Cards {
			if entry.Card.Name == "" || entry.Quantity <= 0 {
				continue
			}
			deck.Entries = append(deck.Entries, DeckEntry{
				Name:          entry.Card.Name,
				ScryfallID:    entry.Card.ScryfallID,
				Edition:       entry.Card.Set,
				Quantity:      entry.Quantity,
				IsInSideboard: board == "sideboard",
				IsCommander:   board == "commanders",
			})
		}
	}

	return deck
}
