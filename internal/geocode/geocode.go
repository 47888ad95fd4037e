// Package geocode resolves street addresses to coordinates through a
// Nominatim-compatible HTTP endpoint. One attempt per call, bounded by
// the configured timeout; retry policy belongs to the caller.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/curbline/curbline/internal/domain"
)

var ErrNoResults = errors.New("no geocoding results")

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://nominatim.openstreetmap.org/search"
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// result mirrors the wire format; coordinates arrive as strings.
type result struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves (address, city) to the single best-match coordinate.
//
// Returns:
//   - domain.Coordinates: the resolved coordinates.
//   - error: ErrNoResults if the endpoint matched nothing; any transport
//     or decode failure otherwise.
func (c *Client) Geocode(ctx context.Context, address, city string) (domain.Coordinates, error) {
	const op = "geocode.Client.Geocode"

	q := url.Values{}
	q.Set("q", address+", "+city)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("%s:%w", op, err)
	}

	req.Header.Set("User-Agent", "curbline/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("%s:%w", op, err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Coordinates{}, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	var results []result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return domain.Coordinates{}, fmt.Errorf("%s:%w", op, err)
	}

	if len(results) == 0 {
		return domain.Coordinates{}, fmt.Errorf("%s:%w", op, ErrNoResults)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("%s: bad lat: %w", op, err)
	}

	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("%s: bad lon: %w", op, err)
	}

	return domain.Coordinates{Lat: lat, Lng: lng}, nil
}
