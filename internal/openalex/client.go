// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package openalex is a client for the OpenAlex Works API: filtered counts,
// cursor pagination, and single-shot retrieval.
package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vlad-ds/market-data-pipeline/internal/httputil"
	"github.com/vlad-ds/market-data-pipeline/pkg/types"
)

// worksBase is the OpenAlex Works endpoint. Declared as a var so tests can
// substitute an httptest server.
var worksBase = "https://api.openalex.org/works"

// maxPageSize is the per_page ceiling OpenAlex imposes.
const maxPageSize = 200

// Filter selects works by topic subfield and publication date window.
type Filter struct {
	// SubfieldID is the short-form topics.subfield.id value (e.g. "1702").
	SubfieldID string

	// From and To bound the publication date, both inclusive.
	From time.Time
	To   time.Time
}

// String renders the filter in the API's filter parameter syntax.
func (f Filter) String() string {
	var parts []string
	if f.SubfieldID != "" {
		parts = append(parts, "topics.subfield.id:"+f.SubfieldID)
	}
	if !f.From.IsZero() {
		parts = append(parts, "from_publication_date:"+f.From.Format("2006-01-02"))
	}
	if !f.To.IsZero() {
		parts = append(parts, "to_publication_date:"+f.To.Format("2006-01-02"))
	}
	return strings.Join(parts, ",")
}

// Client calls the OpenAlex Works API with polite-pool rate limiting and
// retry on 429/5xx.
type Client struct {
	http    *http.Client
	email   string
	agent   string
	limiter *rate.Limiter
	retries int
}

// NewClient builds a client from configuration, applying defaults for the
// unset fields (30s timeout, 10 req/s, 3 retries).
func NewClient(cfg types.SourceConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		email:   cfg.Email,
		agent:   cfg.UserAgent,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		retries: cfg.MaxRetries,
	}
}

type worksResponse struct {
	Meta    responseMeta `json:"meta"`
	Results []Work       `json:"results"`
}

type responseMeta struct {
	Count      int    `json:"count"`
	PerPage    int    `json:"per_page"`
	Page       int    `json:"page"`
	NextCursor string `json:"next_cursor"`
}

// get performs one rate-limited, retried request and decodes the response.
func (c *Client) get(ctx context.Context, params url.Values) (*worksResponse, error) {
	if c.email != "" {
		params.Set("mailto", c.email)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, worksBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.retries)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var wr worksResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return &wr, nil
}

// Count returns the total number of works matching the filter.
func (c *Client) Count(ctx context.Context, f Filter) (int, error) {
	params := url.Values{
		"filter":   {f.String()},
		"per_page": {"1"},
	}
	wr, err := c.get(ctx, params)
	if err != nil {
		return 0, err
	}
	return wr.Meta.Count, nil
}

// List performs one non-paginated retrieval of up to perPage works. This is
// the bulk fallback used when cursor pagination fails mid-stream.
func (c *Client) List(ctx context.Context, f Filter, perPage int) ([]Work, error) {
	params := url.Values{
		"filter":   {f.String()},
		"per_page": {fmt.Sprintf("%d", clampPageSize(perPage))},
	}
	wr, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}
	return wr.Results, nil
}

// Paginate starts a cursor-paginated iteration over the works matching f.
func (c *Client) Paginate(f Filter, perPage int) *Pager {
	return &Pager{
		client:  c,
		filter:  f,
		perPage: clampPageSize(perPage),
		cursor:  "*",
	}
}

// Pager iterates pages of works via OpenAlex cursor pagination.
type Pager struct {
	client  *Client
	filter  Filter
	perPage int
	cursor  string
	done    bool
}

// Next fetches the next page. It returns ok=false once the cursor is
// exhausted; works may be non-empty only when ok is true.
func (p *Pager) Next(ctx context.Context) (works []Work, ok bool, err error) {
	if p.done {
		return nil, false, nil
	}

	params := url.Values{
		"filter":   {p.filter.String()},
		"per_page": {fmt.Sprintf("%d", p.perPage)},
		"cursor":   {p.cursor},
	}
	wr, err := p.client.get(ctx, params)
	if err != nil {
		return nil, false, err
	}

	if wr.Meta.NextCursor == "" {
		p.done = true
	} else {
		p.cursor = wr.Meta.NextCursor
	}
	if len(wr.Results) == 0 {
		p.done = true
		return nil, false, nil
	}
	return wr.Results, true, nil
}

func clampPageSize(n int) int {
	if n <= 0 || n > maxPageSize {
		return maxPageSize
	}
	return n
}
