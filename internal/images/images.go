package images

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gnemet/DeckForge/internal/config"
)

const (
	defaultBaseURL   = "https://api.unsplash.com"
	maxDownloadBytes = 20 << 20
)

var (
	// ErrNoResults means the search returned nothing usable.
	ErrNoResults = errors.New("no images found")
	// ErrStatus means the service answered with a non-success status.
	ErrStatus = errors.New("unexpected status")
	// ErrDisabled means no API key is configured.
	ErrDisabled = errors.New("image search disabled")
	// ErrTooLarge means the downloaded image exceeds the size cap.
	ErrTooLarge = errors.New("image too large")
)

// Reference points at one display-resolution image.
type Reference struct {
	URL string
}

// Client searches Unsplash and downloads the chosen photos.
type Client struct {
	apiKey     string
	baseURL    string
	perPage    int
	httpClient *http.Client
	maxBytes   int64
	// Intn picks the result index; replaced in tests.
	Intn func(n int) int
}

func NewClient(cfg config.ImagesConfig) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 30
	}
	return &Client{
		apiKey:     strings.TrimSpace(cfg.Key),
		baseURL:    baseURL,
		perPage:    perPage,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxBytes:   maxDownloadBytes,
		Intn:       rand.Intn,
	}
}

// WithHTTPClient replaces the transport client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

// Search returns one image chosen uniformly at random from the first result page.
func (c *Client) Search(ctx context.Context, query string) (Reference, error) {
	if c.apiKey == "" {
		return Reference{}, ErrDisabled
	}
	if strings.TrimSpace(query) == "" {
		query = "presentation"
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", "1")
	params.Set("per_page", strconv.Itoa(c.perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return Reference{}, err
	}
	req.Header.Set("Accept-Version", "v1")
	req.Header.Set("Authorization", "Client-ID "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Reference{}, fmt.Errorf("search images: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Reference{}, fmt.Errorf("search images: %w: %s", ErrStatus, resp.Status)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Reference{}, fmt.Errorf("decode search response: %w", err)
	}

	var urls []string
	for _, r := range out.Results {
		if r.URLs.Regular != "" {
			urls = append(urls, r.URLs.Regular)
		}
	}
	if len(urls) == 0 {
		return Reference{}, fmt.Errorf("%w for %q", ErrNoResults, query)
	}
	return Reference{URL: urls[c.Intn(len(urls))]}, nil
}

// Download fetches the raw image bytes.
func (c *Client) Download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download image: %w: %s", ErrStatus, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("download image: %w: more than %d bytes", ErrTooLarge, c.maxBytes)
	}
	return data, nil
}
