package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound indicates the provider has no record for the requested id.
var ErrNotFound = errors.New("tmdb: not found")

// Provider defines the lookup operations the verifier uses.
type Provider interface {
	MovieByID(ctx context.Context, id int64) (Record, error)
	TVByID(ctx context.Context, id int64) (Record, error)
	SearchMulti(ctx context.Context, query string, year int) ([]Record, error)
	Keywords(ctx context.Context, mediaType string, id int64) ([]string, error)
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
}

var _ Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// MovieByID fetches movie details by TMDB id.
func (c *Client) MovieByID(ctx context.Context, id int64) (Record, error) {
	if id <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	var record Record
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), nil, &record); err != nil {
		return nil, err
	}
	record["media_type"] = "movie"
	return record, nil
}

// TVByID fetches TV show details by TMDB id.
func (c *Client) TVByID(ctx context.Context, id int64) (Record, error) {
	if id <= 0 {
		return nil, errors.New("show id must be positive")
	}
	var record Record
	if err := c.get(ctx, fmt.Sprintf("/tv/%d", id), nil, &record); err != nil {
		return nil, err
	}
	record["media_type"] = "tv"
	return record, nil
}

// SearchMulti performs a combined movie/TV search. Zero results is not an
// error; the caller decides how to treat an empty match set.
func (c *Client) SearchMulti(ctx context.Context, query string, year int) ([]Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}
	var payload struct {
		Results []Record `json:"results"`
	}
	if err := c.get(ctx, "/search/multi", params, &payload); err != nil {
		return nil, err
	}
	results := make([]Record, 0, len(payload.Results))
	for _, record := range payload.Results {
		// Multi search interleaves person results; only titled media matter.
		switch record.String("media_type") {
		case "person":
			continue
		}
		results = append(results, record)
	}
	return results, nil
}

// Keywords fetches the keyword list for a movie or TV record.
func (c *Client) Keywords(ctx context.Context, mediaType string, id int64) ([]string, error) {
	if id <= 0 {
		return nil, errors.New("id must be positive")
	}
	path := fmt.Sprintf("/movie/%d/keywords", id)
	if mediaType == "tv" {
		path = fmt.Sprintf("/tv/%d/keywords", id)
	}
	var record Record
	if err := c.get(ctx, path, nil, &record); err != nil {
		return nil, err
	}
	// Movie payloads nest under "keywords", TV payloads under "results".
	return record.Strings("keywords", "results"), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("tmdb %s returned %d (latency=%v)", path, resp.StatusCode, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}
