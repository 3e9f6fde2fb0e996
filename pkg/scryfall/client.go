package scryfall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/davidcarrera/tradebinder-backend/pkg/config"
	pkgerrors "github.com/davidcarrera/tradebinder-backend/pkg/errors"
	"github.com/davidcarrera/tradebinder-backend/pkg/metrics"
)

const (
	defaultBaseURL           = "https://api.scryfall.com"
	maxCollectionIdentifiers = 75
	requestBodyReadLimit     = int64(1024)
	retryAfterFallback       = 200 * time.Millisecond
)

// Card is the subset of Scryfall card data the platform consumes.
type Card struct {
	ID              string
	Name            string
	Set             string
	SetName         string
	CollectorNumber string
	ImageURL        string
	Prices          Prices
}

// Prices holds the USD price points reported by Scryfall.
type Prices struct {
	USD     *decimal.Decimal
	USDFoil *decimal.Decimal
}

// Client wraps the Scryfall REST API with request spacing and retry on 429.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	batchSize  int
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

// NewClient builds a Scryfall client from configuration.
func NewClient(cfg config.ScryfallConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	interval := cfg.MinRequestInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	batch := cfg.BulkLookupBatch
	if batch <= 0 || batch > maxCollectionIdentifiers {
		batch = maxCollectionIdentifiers
	}

	client := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		batchSize:  batch,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// SearchByName performs a fuzzy single-card lookup.
func (c *Client) SearchByName(ctx context.Context, name string) (*Card, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "scryfall client not configured")
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card name is required")
	}

	endpoint := fmt.Sprintf("%s/cards/named?fuzzy=%s", strings.TrimRight(c.baseURL, "/"), url.QueryEscape(trimmed))

	var payload cardPayload
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, "named", &payload); err != nil {
		return nil, err
	}
	card := payload.toCard()
	return &card, nil
}

// GetByID fetches a card by its Scryfall identifier.
func (c *Client) GetByID(ctx context.Context, scryfallID string) (*Card, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "scryfall client not configured")
	}
	trimmed := strings.TrimSpace(scryfallID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scryfall id is required")
	}

	endpoint := fmt.Sprintf("%s/cards/%s", strings.TrimRight(c.baseURL, "/"), url.PathEscape(trimmed))

	var payload cardPayload
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, "get_by_id", &payload); err != nil {
		return nil, err
	}
	card := payload.toCard()
	return &card, nil
}

// GetCollection resolves many cards by Scryfall ID, batching requests at the
// API's identifier limit. Unknown identifiers are skipped, not errors.
func (c *Client) GetCollection(ctx context.Context, scryfallIDs []string) ([]Card, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "scryfall client not configured")
	}
	if len(scryfallIDs) == 0 {
		return nil, nil
	}

	cards := make([]Card, 0, len(scryfallIDs))
	for start := 0; start < len(scryfallIDs); start += c.batchSize {
		end := start + c.batchSize
		if end > len(scryfallIDs) {
			end = len(scryfallIDs)
		}

		identifiers := make([]map[string]string, 0, end-start)
		for _, id := range scryfallIDs[start:end] {
			trimmed := strings.TrimSpace(id)
			if trimmed == "" {
				continue
			}
			identifiers = append(identifiers, map[string]string{"id": trimmed})
		}
		if len(identifiers) == 0 {
			continue
		}

		body, err := json.Marshal(map[string]any{"identifiers": identifiers})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal collection request")
		}

		endpoint := fmt.Sprintf("%s/cards/collection", strings.TrimRight(c.baseURL, "/"))

		var payload struct {
			Data []cardPayload `json:"data"`
		}
		if err := c.doJSON(ctx, http.MethodPost, endpoint, body, "collection", &payload); err != nil {
			return nil, err
		}
		for _, p := range payload.Data {
			cards = append(cards, p.toCard())
		}
	}

	return cards, nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body []byte, operation string, out any) error {
	resp, err := c.execute(ctx, method, endpoint, body, operation)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode scryfall response")
	}
	return nil
}

// execute applies request spacing and retries once on 429 before giving up.
func (c *Client) execute(ctx context.Context, method, endpoint string, body []byte, operation string) (*http.Response, error) {
	for attempt := 0; attempt < 2; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scryfall rate wait")
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build scryfall request")
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		started := time.Now()
		resp, err := c.httpClient.Do(req)
		c.metrics.ObserveCall("scryfall", operation, err, time.Since(started))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute scryfall request")
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return resp, nil

		case resp.StatusCode == http.StatusNotFound:
			_ = resp.Body.Close()
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "card not found on scryfall")

		case resp.StatusCode == http.StatusTooManyRequests && attempt == 0:
			_ = resp.Body.Close()
			if err := sleepCtx(ctx, retryAfterDelay(resp)); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scryfall retry wait")
			}
			continue

		default:
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
			_ = resp.Body.Close()
			return nil, pkgerrors.Wrap(
				pkgerrors.CodeDependency,
				fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
				"scryfall request failed",
			)
		}
	}

	return nil, pkgerrors.New(pkgerrors.CodeDependency, "scryfall request retries exhausted")
}

func retryAfterDelay(resp *http.Response) time.Duration {
	raw := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if raw == "" {
		return retryAfterFallback
	}
	seconds, err := time.ParseDuration(raw + "s")
	if err != nil || seconds <= 0 {
		return retryAfterFallback
	}
	return seconds
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type cardPayload struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Set             string `json:"set"`
	SetName         string `json:"set_name"`
	CollectorNumber string `json:"collector_number"`
	ImageURIs       struct {
		Normal string `json:"normal"`
	} `json:"image_uris"`
	Prices struct {
		USD     string `json:"usd"`
		USDFoil string `json:"usd_foil"`
	} `json:"prices"`
}

func (p cardPayload) toCard() Card {
	return Card{
		ID:              p.ID,
		Name:            p.Name,
		Set:             p.Set,
		SetName:         p.SetName,
		CollectorNumber: p.CollectorNumber,
		ImageURL:        p.ImageURIs.Normal,
		Prices: Prices{
			USD:     parsePrice(p.Prices.USD),
			USDFoil: parsePrice(p.Prices.USDFoil),
		},
	}
}

func parsePrice(raw string) *decimal.Decimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil
	}
	return &value
}
