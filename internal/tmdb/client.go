package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Movie represents a single TMDB movie entry.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"vote_average"`
}

// moviePage models the TMDB paginated movie list response.
type moviePage struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// CrewMember describes one crew credit on a movie.
type CrewMember struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Job         string `json:"job"`
	Department  string `json:"department"`
	ProfilePath string `json:"profile_path"`
}

// Credits captures the crew portion of a TMDB credits payload.
type Credits struct {
	ID   int64        `json:"id"`
	Crew []CrewMember `json:"crew"`
}

// Director returns the first crew member credited with the Director job, or
// nil when the movie has none.
func (c *Credits) Director() *CrewMember {
	if c == nil {
		return nil
	}
	for i := range c.Crew {
		if c.Crew[i].Job == "Director" {
			return &c.Crew[i]
		}
	}
	return nil
}

// Person holds the subset of TMDB person details the catalog stores.
type Person struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Birthday    string `json:"birthday"`
	Biography   string `json:"biography"`
	ProfilePath string `json:"profile_path"`
}

// API defines the TMDB operations used by the import pipeline.
type API interface {
	PopularMovies(ctx context.Context, limit int) ([]Movie, error)
	MovieCredits(ctx context.Context, movieID int64) (*Credits, error)
	PersonDetails(ctx context.Context, personID int64) (*Person, error)
	DownloadImage(ctx context.Context, path string) ([]byte, error)
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	language     string
	httpClient   *http.Client
}

var _ API = (*Client)(nil)

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

// WithImageBaseURL overrides the default image CDN base URL.
func WithImageBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.imageBaseURL = strings.TrimRight(base, "/")
		}
	}
}

const defaultImageBaseURL = "https://image.tmdb.org/t/p/w500"

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
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		imageBaseURL: defaultImageBaseURL,
		language:     strings.TrimSpace(language),
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// PopularMovies fetches the current popular movie list, trimmed to limit.
func (c *Client) PopularMovies(ctx context.Context, limit int) ([]Movie, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}

	var payload moviePage
	if err := c.getJSON(ctx, "/movie/popular", nil, &payload); err != nil {
		return nil, fmt.Errorf("popular movies: %w", err)
	}

	movies := payload.Results
	if len(movies) > limit {
		movies = movies[:limit]
	}
	return movies, nil
}

// MovieCredits fetches the cast and crew credits for a movie.
func (c *Client) MovieCredits(ctx context.Context, movieID int64) (*Credits, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}

	var payload Credits
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d/credits", movieID), nil, &payload); err != nil {
		return nil, fmt.Errorf("movie credits: %w", err)
	}
	return &payload, nil
}

// PersonDetails fetches biographical details for a person by TMDB ID.
func (c *Client) PersonDetails(ctx context.Context, personID int64) (*Person, error) {
	if personID <= 0 {
		return nil, errors.New("person id must be positive")
	}

	var payload Person
	if err := c.getJSON(ctx, fmt.Sprintf("/person/%d", personID), nil, &payload); err != nil {
		return nil, fmt.Errorf("person details: %w", err)
	}
	return &payload, nil
}

// DownloadImage fetches an image from the TMDB CDN by its relative path
// (e.g. "/abc123.jpg") and returns the raw bytes.
func (c *Client) DownloadImage(ctx context.Context, path string) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("image path required")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.imageBaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tmdb image fetch returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, extra url.Values, out interface{}) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	for key, values := range extra {
		for _, value := range values {
			params.Add(key, value)
		}
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

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb returned %d (latency=%v)", resp.StatusCode, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}
