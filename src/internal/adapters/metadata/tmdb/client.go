package tmdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/reelscout/reelscout/src/internal/domain"
	"github.com/reelscout/reelscout/src/internal/metrics"
)

const DefaultBaseURL = "https://api.themoviedb.org/3"

// Options configures a TMDBClient. Popular requests authenticate with APIKey,
// searches with the v4 AccessToken; either falls back to the other.
type Options struct {
	BaseURL     string
	APIKey      string
	AccessToken string
	Language    string
	Page        int
	Timeout     time.Duration
	HTTPClient  *http.Client
}

type TMDBClient struct {
	baseURL     string
	apiKey      string
	accessToken string
	language    string
	page        int
	client      *http.Client
}

func NewTMDBClient(opts Options) *TMDBClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Language == "" {
		opts.Language = "en-US"
	}
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &TMDBClient{
		baseURL:     opts.BaseURL,
		apiKey:      opts.APIKey,
		accessToken: opts.AccessToken,
		language:    opts.Language,
		page:        opts.Page,
		client:      client,
	}
}

// StatusError is returned for any non-200 catalog response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("TMDB %s returned %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("TMDB %s returned %d", e.Endpoint, e.StatusCode)
}

// Responses
type listResponse struct {
	Page    int            `json:"page"`
	Results []domain.Movie `json:"results"`
}

type errorResponse struct {
	StatusMessage string `json:"status_message"`
}

// Popular fetches the first page of /movie/popular.
func (c *TMDBClient) Popular(ctx context.Context) ([]domain.Movie, error) {
	q := url.Values{}
	q.Set("language", c.language)
	q.Set("page", strconv.Itoa(c.page))
	return c.list(ctx, "/movie/popular", q, c.apiKey == "")
}

// Search queries /search/movie by title.
func (c *TMDBClient) Search(ctx context.Context, query string) ([]domain.Movie, error) {
	q := url.Values{}
	q.Set("query", query)
	return c.list(ctx, "/search/movie", q, c.accessToken != "")
}

func (c *TMDBClient) list(ctx context.Context, endpoint string, q url.Values, bearer bool) ([]domain.Movie, error) {
	start := time.Now()
	movies, err := c.do(ctx, endpoint, q, bearer)
	metrics.CatalogDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.CatalogRequests.WithLabelValues(endpoint, result).Inc()
	return movies, err
}

func (c *TMDBClient) do(ctx context.Context, endpoint string, q url.Values, bearer bool) ([]domain.Movie, error) {
	u, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid TMDB url: %w", err)
	}
	if !bearer {
		q.Set("api_key", c.apiKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if bearer {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("TMDB %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		se := &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
		var body errorResponse
		if raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096)); len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
			se.Message = body.StatusMessage
		}
		return nil, se
	}

	var res listResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("failed to decode TMDB %s: %w", endpoint, err)
	}
	if res.Results == nil {
		res.Results = []domain.Movie{}
	}
	return res.Results, nil
}
