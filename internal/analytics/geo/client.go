// Package geo resolves visitor IPs to a coarse location via an ip-api compatible endpoint.
package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"portfolio-cms/backend/internal/analytics/domain"
)

const (
	// DefaultBaseURL is the public ip-api JSON endpoint.
	DefaultBaseURL = "http://ip-api.com/json"
	defaultTimeout = 2 * time.Second
	lookupFields   = "status,country,city,lat,lon"
)

type lookupResponse struct {
	Status  string   `json:"status"`
	Country string   `json:"country"`
	City    string   `json:"city"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

// Client looks up IPs against baseURL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a Client for baseURL (DefaultBaseURL if empty) with a 2s request timeout.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Lookup returns the location for ip. A response whose status is not "success" yields an empty Geo
// and no error; transport and decode failures are returned.
func (c *Client) Lookup(ctx context.Context, ip string) (domain.Geo, error) {
	u := fmt.Sprintf("%s/%s?fields=%s", c.baseURL, url.PathEscape(ip), lookupFields)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Geo{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Geo{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.Geo{}, fmt.Errorf("geo: lookup returned %s", resp.Status)
	}
	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Geo{}, fmt.Errorf("geo: decode: %w", err)
	}
	if body.Status != "success" {
		return domain.Geo{}, nil
	}
	return domain.Geo{Country: body.Country, City: body.City, Lat: body.Lat, Lon: body.Lon}, nil
}
