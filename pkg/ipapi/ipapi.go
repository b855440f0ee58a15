// Package ipapi resolves IP addresses to locations via the ip-api.com free
// endpoint. The service is keyless.
package ipapi

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

	contractx "github.com/wayfarer-ai/wayfinder/agent/contract"
	statex "github.com/wayfarer-ai/wayfinder/agent/state"
)

const maxResponseSizeBytes = 1 << 20

type Config struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"http://ip-api.com"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("ip-api base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid ip-api base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

type geoResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	City       string  `json:"city"`
	RegionName string  `json:"regionName"`
	Country    string  `json:"country"`
}

// Geolocate satisfies contract.Geolocator.
func (c *Client) Geolocate(ctx context.Context, ip string) (statex.LocationInfo, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return statex.LocationInfo{}, fmt.Errorf("%w: ip is empty", contractx.ErrValidation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/json/"+url.PathEscape(ip), nil)
	if err != nil {
		return statex.LocationInfo{}, fmt.Errorf("build geolocation request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return statex.LocationInfo{}, fmt.Errorf("%w: %v", contractx.ErrAdapterUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return statex.LocationInfo{}, fmt.Errorf("read geolocation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return statex.LocationInfo{}, fmt.Errorf("%w: geolocation http status=%d", contractx.ErrAdapterUnavailable, resp.StatusCode)
	}

	var parsed geoResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return statex.LocationInfo{}, fmt.Errorf("decode geolocation response: %w", err)
	}
	if parsed.Status != "success" {
		return statex.LocationInfo{}, fmt.Errorf("%w: geolocation failed: %s", contractx.ErrAdapterUnavailable, parsed.Message)
	}

	return statex.LocationInfo{
		Latitude:  parsed.Lat,
		Longitude: parsed.Lon,
		City:      parsed.City,
		Region:    parsed.RegionName,
		Country:   parsed.Country,
	}, nil
}
