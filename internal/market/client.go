// Package market implements the upstream world-market API client: endpoint
// resolution, request validation, fetching and row normalization.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"bdo-market-etl/internal/catalog"
	"bdo-market-etl/internal/domain"
)

// endpoints is the closed endpoint-key allow-list. Lookups are exact-match
// and case-sensitive. Only the sub-list operation is active; the remaining
// upstream operations are intentionally disabled.
var endpoints = map[string]string{
	"sub": "GetWorldMarketSubList",
	// "list":  "GetWorldMarketList",
	// "bid":   "GetBiddingInfoList",
	// "price": "GetMarketPriceInfo",
}

// DefaultTimeout bounds a single upstream request. There is no internal
// retry; retry policy belongs to the scheduler.
const DefaultTimeout = 10 * time.Second

// Client fetches and normalizes world-market rows.
type Client struct {
	http    *resty.Client
	baseURL string
	region  string
	lang    string
	catalog *catalog.Catalog
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithClock overrides the wall clock. Tests use this to pin scrape times.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a market client against baseURL/region.
func NewClient(baseURL, region, lang string, cat *catalog.Catalog, opts ...Option) *Client {
	c := &Client{
		http:    resty.New().SetTimeout(DefaultTimeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		region:  region,
		lang:    lang,
		catalog: cat,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint resolves an endpoint key to the upstream operation name.
func Endpoint(key string) (string, error) {
	op, ok := endpoints[key]
	if !ok {
		return "", configurationErr(fmt.Sprintf("invalid endpoint key %q", key), nil)
	}
	return op, nil
}

// Fetch retrieves the current market rows for the selector, flattens the
// nested response and tags every row with the hour-truncated collection time
// and its catalog category. It performs no storage writes.
func (c *Client) Fetch(ctx context.Context, endpointKey string, sel Selector) ([]*domain.SnapshotRow, error) {
	op, err := Endpoint(endpointKey)
	if err != nil {
		return nil, err
	}

	ids, err := c.resolveIDs(sel)
	if err != nil {
		return nil, err
	}
	if sel.Tier != nil && (*sel.Tier < domain.MinTier || *sel.Tier > domain.MaxTier) {
		return nil, validationErr(fmt.Sprintf("sid %d out of range [%d, %d]", *sel.Tier, domain.MinTier, domain.MaxTier), nil)
	}

	url := fmt.Sprintf("%s/%s/%s", c.baseURL, c.region, op)
	scrapeTime := domain.HourBucket(c.now())

	req := c.http.R().SetContext(ctx).SetQueryParam("lang", c.lang)
	if len(ids) == 1 {
		req.SetQueryParam("id", strconv.Itoa(ids[0]))
	} else {
		req.SetQueryParam("ids", joinIDs(ids))
	}
	if sel.Tier != nil {
		req.SetQueryParam("sid", strconv.Itoa(*sel.Tier))
	}

	c.logger.Info("fetching market data", "url", url, "ids", len(ids))
	resp, err := req.Get(url)
	if err != nil {
		return nil, upstreamErr("request failed", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, upstreamErr(fmt.Sprintf("unexpected status %d", resp.StatusCode()), nil)
	}

	rows, err := c.decode(resp.Body(), scrapeTime)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("fetched market rows", "count", len(rows), "scrape_time", scrapeTime)
	return rows, nil
}

// resolveIDs turns the selector into a non-empty id list, resolving a catalog
// name when explicit ids are absent.
func (c *Client) resolveIDs(sel Selector) ([]int, error) {
	if len(sel.IDs) > 0 {
		return sel.IDs, nil
	}
	if sel.ItemName == "" {
		return nil, validationErr("item id or item name is required", nil)
	}
	if c.catalog == nil {
		return nil, configurationErr("no catalog configured to resolve item names", nil)
	}
	ids, err := c.catalog.ItemIDs(sel.ItemName)
	if err != nil {
		return nil, validationErr(fmt.Sprintf("cannot resolve item name %q", sel.ItemName), err)
	}
	if len(ids) == 0 {
		return nil, validationErr(fmt.Sprintf("item name %q resolves to no ids", sel.ItemName), nil)
	}
	return ids, nil
}

// decode parses the nested list-of-lists payload into tagged snapshot rows.
// A successful but empty body is a fetch failure, not a valid zero-row
// snapshot: the upstream returns empty payloads on transient outages rather
// than on legitimately empty categories.
func (c *Client) decode(body []byte, scrapeTime time.Time) ([]*domain.SnapshotRow, error) {
	if len(strings.TrimSpace(string(body))) == 0 || string(body) == "null" {
		return nil, upstreamErr("empty response from API", nil)
	}

	var nested [][]itemRecord
	if err := json.Unmarshal(body, &nested); err != nil {
		return nil, upstreamErr("failed to parse API response", err)
	}

	var rows []*domain.SnapshotRow
	for _, sub := range nested {
		for _, rec := range sub {
			rows = append(rows, c.normalize(rec, scrapeTime))
		}
	}
	if len(rows) == 0 {
		return nil, upstreamErr("empty response from API", nil)
	}
	return rows, nil
}

func (c *Client) normalize(rec itemRecord, scrapeTime time.Time) *domain.SnapshotRow {
	category := domain.CategoryUnknown
	if c.catalog != nil {
		category = c.catalog.Category(rec.ID)
	}
	return &domain.SnapshotRow{
		ScrapeTime:    scrapeTime,
		Category:      category,
		Name:          rec.Name,
		ItemID:        rec.ID,
		Tier:          rec.Sid,
		MinEnhance:    rec.MinEnhance,
		MaxEnhance:    rec.MaxEnhance,
		BasePrice:     rec.BasePrice,
		CurrentStock:  rec.CurrentStock,
		TotalTrades:   rec.TotalTrades,
		PriceMin:      rec.PriceMin,
		PriceMax:      rec.PriceMax,
		LastSoldPrice: rec.LastSoldPrice,
		LastSoldTime:  time.Unix(rec.LastSoldTime, 0),
	}
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
