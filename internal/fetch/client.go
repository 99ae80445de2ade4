// Package fetch talks to the upstream listing API and projects its raw
// items into canonical records. The payload schema is opaque and shifting;
// everything here is tolerant of missing or reshaped fields.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// itemsPath selects the item list out of the response envelope.
var itemsPath = jp.MustParseString("$.result.items[*]")

// Client fetches paginated listings. Calls are sequential; callers insert
// the inter-call delay to respect upstream rate limits.
type Client struct {
	HTTP        *http.Client
	Endpoint    string
	APIID       string
	AffiliateID string

	Site    string
	Service string
	Floor   string
}

// NewClient builds a Client with the given timeout.
func NewClient(endpoint, apiID, affiliateID string, timeout time.Duration) *Client {
	return &Client{
		HTTP:        &http.Client{Timeout: timeout},
		Endpoint:    endpoint,
		APIID:       apiID,
		AffiliateID: affiliateID,
	}
}

// FetchPage retrieves one page of raw items. sortKey is the upstream sort
// ("date" or "rank"); offset is 1-based. An embedded non-200 API status is
// surfaced as an error even when the HTTP layer reports success.
func (c *Client) FetchPage(ctx context.Context, sortKey string, offset, hits int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("api_id", c.APIID)
	q.Set("affiliate_id", c.AffiliateID)
	q.Set("site", c.Site)
	q.Set("service", c.Service)
	q.Set("floor", c.Floor)
	q.Set("sort", sortKey)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("hits", strconv.Itoa(hits))
	q.Set("output", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "katarogu-fetch/1.0")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page sort=%s offset=%d: %w", sortKey, offset, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned %s", resp.Status)
	}

	payload, err := oj.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if status := apiStatus(payload); status != "" && status != "200" {
		return nil, fmt.Errorf("upstream api status %s", status)
	}

	var items []map[string]any
	for _, r := range itemsPath.Get(payload) {
		if m, ok := r.(map[string]any); ok {
			items = append(items, m)
		}
	}
	return items, nil
}

// apiStatus pulls result.status out of the envelope, stringified.
// Empty means the field is absent.
func apiStatus(payload any) string {
	results := jp.MustParseString("$.result.status").Get(payload)
	if len(results) == 0 {
		return ""
	}
	switch v := results[0].(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.Itoa(int(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}
