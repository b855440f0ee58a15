// Package openweather fetches current conditions from the OpenWeatherMap
// current-weather endpoint (metric units).
package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	contractx "github.com/wayfarer-ai/wayfinder/agent/contract"
	statex "github.com/wayfarer-ai/wayfinder/agent/state"
)

const maxResponseSizeBytes = 1 << 20

type Config struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openweathermap.org"`
	APIKey  string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("openweather base url is required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openweather api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
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

type weatherResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	// Visibility is meters; defaults to 10km when absent.
	Visibility *float64 `json:"visibility"`
}

// Weather satisfies contract.WeatherProvider.
func (c *Client) Weather(ctx context.Context, lat, lon float64) (statex.WeatherInfo, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/2.5/weather?"+q.Encode(), nil)
	if err != nil {
		return statex.WeatherInfo{}, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return statex.WeatherInfo{}, fmt.Errorf("%w: %v", contractx.ErrAdapterUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return statex.WeatherInfo{}, fmt.Errorf("read weather response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return statex.WeatherInfo{}, fmt.Errorf("%w: weather http status=%d body=%s", contractx.ErrAdapterUnavailable, resp.StatusCode, string(raw))
	}

	var parsed weatherResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return statex.WeatherInfo{}, fmt.Errorf("decode weather response: %w", err)
	}
	if len(parsed.Weather) == 0 {
		return statex.WeatherInfo{}, fmt.Errorf("%w: weather response has no condition", contractx.ErrAdapterUnavailable)
	}

	visibilityKm := 10.0
	if parsed.Visibility != nil {
		visibilityKm = *parsed.Visibility / 1000
	}

	return statex.WeatherInfo{
		TemperatureC: parsed.Main.Temp,
		Condition:    parsed.Weather[0].Description,
		WindSpeed:    parsed.Wind.Speed,
		VisibilityKm: visibilityKm,
		Humidity:     parsed.Main.Humidity,
	}, nil
}
