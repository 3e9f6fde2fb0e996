package cardprices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/davidcarrera/tradebinder-backend/pkg/config"
	pkgerrors "github.com/davidcarrera/tradebinder-backend/pkg/errors"
	"github.com/davidcarrera/tradebinder-backend/pkg/metrics"
)

const requestBodyReadLimit = int64(1024)

// PricePoints carries the four market price points tracked per card print.
type PricePoints struct {
	Retail      *decimal.Decimal `json:"retail"`
	RetailFoil  *decimal.Decimal `json:"retailFoil"`
	Buylist     *decimal.Decimal `json:"buylist"`
	BuylistFoil *decimal.Decimal `json:"buylistFoil"`
}

// IsEmpty reports whether no price point is populated.
func (p PricePoints) IsEmpty() bool {
	return p.Retail == nil && p.RetailFoil == nil && p.Buylist == nil && p.BuylistFoil == nil
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	PriceCacheKey(scryfallID string) string
}

// Client fetches market prices for card prints, with an optional Redis-backed
// read-through cache in front of the upstream provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cache      cacheStore
	cacheTTL   time.Duration
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

// WithCache attaches a read-through price cache.
func WithCache(store cacheStore, ttl time.Duration) Option {
	return func(c *Client) {
		if store != nil && ttl > 0 {
			c.cache = store
			c.cacheTTL = ttl
		}
	}
}

// WithMetrics attaches provider call metrics.
func WithMetrics(m *metrics.ProviderMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a card prices client from configuration.
func NewClient(cfg config.CardPricesConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("card prices base url is required")
	}

	client := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// GetPrices returns the price points for a Scryfall print ID. Cached entries
// are served without touching the upstream provider.
func (c *Client) GetPrices(ctx context.Context, scryfallID string) (*PricePoints, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "card prices client not configured")
	}
	trimmed := strings.TrimSpace(scryfallID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scryfall id is required")
	}

	if cached, ok := c.fromCache(ctx, trimmed); ok {
		return cached, nil
	}

	points, err := c.fetch(ctx, trimmed)
	if err != nil {
		return nil, err
	}

	c.toCache(ctx, trimmed, points)
	return points, nil
}

func (c *Client) fromCache(ctx context.Context, scryfallID string) (*PricePoints, bool) {
	if c.cache == nil {
		return nil, false
	}
	raw, err := c.cache.Get(ctx, c.cache.PriceCacheKey(scryfallID))
	if err != nil {
		return nil, false
	}
	var points PricePoints
	if err := json.Unmarshal([]byte(raw), &points); err != nil {
		return nil, false
	}
	return &points, true
}

func (c *Client) toCache(ctx context.Context, scryfallID string, points *PricePoints) {
	if c.cache == nil || points == nil {
		return
	}
	payload, err := json.Marshal(points)
	if err != nil {
		return
	}
	// cache write failures are non-fatal
	_ = c.cache.Set(ctx, c.cache.PriceCacheKey(scryfallID), string(payload), c.cacheTTL)
}

func (c *Client) fetch(ctx context.Context, scryfallID string) (*PricePoints, error) {
	endpoint := fmt.Sprintf("%s/prices/%s", strings.TrimRight(c.baseURL, "/"), url.PathEscape(scryfallID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build price request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveCall("cardprices", "get_prices", err, time.Since(started))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute price request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no prices for card")
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"price request failed",
		)
	}

	var payload struct {
		Retail      string `json:"retail"`
		RetailFoil  string `json:"retailFoil"`
		Buylist     string `json:"buylist"`
		BuylistFoil string `json:"buylistFoil"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode price response")
	}

	return &PricePoints{
		Retail:      parsePrice(payload.Retail),
		RetailFoil:  parsePrice(payload.RetailFoil),
		Buylist:     parsePrice(payload.Buylist),
		BuylistFoil: parsePrice(payload.BuylistFoil),
	}, nil
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
