// Package geocode resolves free-text places to coordinates through a
// Nominatim search endpoint.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL = "https://nominatim.openstreetmap.org"
	// Searches are limited to East Africa.
	CountryCodes = "ke,ug,tz,rw"
	userAgent    = "cleancook-client/1.0"
)

// ErrNoResults is returned when the search matched nothing.
var ErrNoResults = errors.New("location not found")

type Result struct {
	Lat         float64
	Lng         float64
	DisplayName string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a client for baseURL. An empty baseURL uses the public service.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Search returns the best match for query.
func (c *Client) Search(ctx context.Context, query string) (*Result, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)
	params.Set("limit", "1")
	params.Set("countrycodes", CountryCodes)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed with status %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("search returned invalid JSON")
	}

	first := gjson.GetBytes(body, "0")
	if !first.Exists() {
		return nil, ErrNoResults
	}
	lat, lon := first.Get("lat"), first.Get("lon")
	if !lat.Exists() || !lon.Exists() {
		return nil, errors.New("search result has no coordinates")
	}
	return &Result{
		Lat:         lat.Float(),
		Lng:         lon.Float(),
		DisplayName: first.Get("display_name").String(),
	}, nil
}
