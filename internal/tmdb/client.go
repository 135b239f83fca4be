package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://api.themoviedb.org"
	defaultTimeout = 10 * time.Second
)

// ErrNotFound is returned when TMDB answers 404 for a resource.
var ErrNotFound = errors.New("not found in TMDB")

// APIError is a non-404 error status from TMDB.
type APIError struct {
	StatusCode int
	Status     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("TMDB API error: %s", e.Status)
}

// Client is a TMDB API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// NewClient creates a new TMDB client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a single GET against the v3 API and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/3"+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// SearchMovie searches movies by title. A zero year searches all years.
func (c *Client) SearchMovie(ctx context.Context, query string, year int) ([]MovieResult, error) {
	params := url.Values{"query": {query}}
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}
	var resp searchResponse[MovieResult]
	if err := c.get(ctx, "/search/movie", params, &resp); err != nil {
		return nil, fmt.Errorf("search movie %q: %w", query, err)
	}
	return resp.Results, nil
}

// SearchTV searches series by name.
func (c *Client) SearchTV(ctx context.Context, query string) ([]TVResult, error) {
	var resp searchResponse[TVResult]
	if err := c.get(ctx, "/search/tv", url.Values{"query": {query}}, &resp); err != nil {
		return nil, fmt.Errorf("search tv %q: %w", query, err)
	}
	return resp.Results, nil
}

// GetMovie fetches movie metadata by TMDB ID.
func (c *Client) GetMovie(ctx context.Context, tmdbID int64) (*Movie, error) {
	var movie Movie
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", tmdbID), nil, &movie); err != nil {
		return nil, fmt.Errorf("get movie %d: %w", tmdbID, err)
	}
	return &movie, nil
}

// GetTV fetches series metadata by TMDB ID.
func (c *Client) GetTV(ctx context.Context, tmdbID int64) (*TV, error) {
	var tv TV
	if err := c.get(ctx, fmt.Sprintf("/tv/%d", tmdbID), nil, &tv); err != nil {
		return nil, fmt.Errorf("get tv %d: %w", tmdbID, err)
	}
	return &tv, nil
}

// MovieExternalIDs fetches the external ids (IMDb etc.) of a movie.
func (c *Client) MovieExternalIDs(ctx context.Context, tmdbID int64) (*ExternalIDs, error) {
	var ids ExternalIDs
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/external_ids", tmdbID), nil, &ids); err != nil {
		return nil, fmt.Errorf("movie %d external ids: %w", tmdbID, err)
	}
	return &ids, nil
}

// TVExternalIDs fetches the external ids of a series.
func (c *Client) TVExternalIDs(ctx context.Context, tmdbID int64) (*ExternalIDs, error) {
	var ids ExternalIDs
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/external_ids", tmdbID), nil, &ids); err != nil {
		return nil, fmt.Errorf("tv %d external ids: %w", tmdbID, err)
	}
	return &ids, nil
}
