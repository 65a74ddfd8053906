package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"datadash/internal/models"
)

// DefaultBaseURL is the public Nominatim endpoint.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Lookup resolves a free-text place name to at most one best-guess
// coordinate. found is false when the service has no match; err covers
// transport and decode failures only.
type Lookup interface {
	Lookup(ctx context.Context, place string) (coords models.Coordinates, found bool, err error)
}

// Client is a Nominatim-style search client. The external service is rate
// limited; the Resolver, not the client, enforces the courtesy delay.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Lookup issues a single search request and keeps only the first result.
func (c *Client) Lookup(ctx context.Context, place string) (models.Coordinates, bool, error) {
	q := url.Values{}
	q.Set("q", place)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return models.Coordinates{}, false, err
	}
	req.Header.Set("User-Agent", "datadash/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return models.Coordinates{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Coordinates{}, false, fmt.Errorf("geocode lookup: status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return models.Coordinates{}, false, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return models.Coordinates{}, false, nil
	}

	lat, err1 := strconv.ParseFloat(results[0].Lat, 64)
	lon, err2 := strconv.ParseFloat(results[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return models.Coordinates{}, false, fmt.Errorf("geocode lookup: malformed coordinates for %q", place)
	}
	return models.Coordinates{Lat: lat, Lon: lon}, true, nil
}
