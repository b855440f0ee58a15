// Package googlemaps answers transit-routing questions via the Google
// Directions API, always in public-transport mode.
package googlemaps

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
)

const maxResponseSizeBytes = 4 << 20

type Config struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://maps.googleapis.com"`
	APIKey  string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"15s"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("google maps base url is required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("google maps api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
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

type textValue struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Summary string `json:"summary"`
		Legs    []struct {
			Duration          textValue         `json:"duration"`
			DurationInTraffic *textValue        `json:"duration_in_traffic"`
			Distance          textValue         `json:"distance"`
			Steps             []json.RawMessage `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// Route satisfies the single-journey half of contract.RoutePlanner.
func (c *Client) Route(ctx context.Context, origin, destination string) (contractx.RouteLeg, error) {
	parsed, err := c.directions(ctx, origin, destination, false)
	if err != nil {
		return contractx.RouteLeg{}, err
	}
	if len(parsed.Routes) == 0 || len(parsed.Routes[0].Legs) == 0 {
		return contractx.RouteLeg{}, fmt.Errorf("%w: no route found", contractx.ErrAdapterUnavailable)
	}

	route := parsed.Routes[0]
	leg := route.Legs[0]

	trafficText := leg.Duration.Text
	trafficSeconds := leg.Duration.Value
	if leg.DurationInTraffic != nil {
		trafficText = leg.DurationInTraffic.Text
		trafficSeconds = leg.DurationInTraffic.Value
	}

	summary := route.Summary
	if summary == "" {
		summary = "Route found"
	}

	return contractx.RouteLeg{
		DurationText:           leg.Duration.Text,
		DurationSeconds:        leg.Duration.Value,
		DurationTrafficText:    trafficText,
		DurationTrafficSeconds: trafficSeconds,
		DistanceText:           leg.Distance.Text,
		Summary:                summary,
	}, nil
}

// RouteOptions satisfies the alternatives half of contract.RoutePlanner.
// Results keep the provider's own ordering.
func (c *Client) RouteOptions(ctx context.Context, origin, destination string) ([]contractx.RouteAlternative, error) {
	parsed, err := c.directions(ctx, origin, destination, true)
	if err != nil {
		return nil, err
	}

	alts := make([]contractx.RouteAlternative, 0, len(parsed.Routes))
	for _, route := range parsed.Routes {
		if len(route.Legs) == 0 {
			continue
		}
		leg := route.Legs[0]

		durationText := leg.Duration.Text
		if leg.DurationInTraffic != nil {
			durationText = leg.DurationInTraffic.Text
		}

		alts = append(alts, contractx.RouteAlternative{
			Summary:      route.Summary,
			DurationText: durationText,
			DistanceText: leg.Distance.Text,
			StepCount:    len(leg.Steps),
		})
	}
	return alts, nil
}

func (c *Client) directions(ctx context.Context, origin, destination string, alternatives bool) (*directionsResponse, error) {
	origin = strings.TrimSpace(origin)
	destination = strings.TrimSpace(destination)
	if origin == "" || destination == "" {
		return nil, fmt.Errorf("%w: origin and destination are required", contractx.ErrValidation)
	}

	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)
	q.Set("mode", "transit")
	q.Set("departure_time", "now")
	q.Set("transit_mode", "bus|subway|train")
	q.Set("key", c.apiKey)
	if alternatives {
		q.Set("alternatives", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/maps/api/directions/json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build directions request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrAdapterUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read directions response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: directions http status=%d", contractx.ErrAdapterUnavailable, resp.StatusCode)
	}

	var parsed directionsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode directions response: %w", err)
	}
	if parsed.Status != "OK" {
		msg := parsed.Status
		if parsed.ErrorMessage != "" {
			msg = fmt.Sprintf("%s: %s", parsed.Status, parsed.ErrorMessage)
		}
		return nil, fmt.Errorf("%w: directions status=%s", contractx.ErrAdapterUnavailable, msg)
	}
	return &parsed, nil
}
