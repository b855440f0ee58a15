package googlemaps

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	contractx "github.com/wayfarer-ai/wayfinder/agent/contract"
)

const routesBody = `{
	"status": "OK",
	"routes": [
		{
			"summary": "Broadway",
			"legs": [{
				"duration": {"text": "20 mins", "value": 1200},
				"duration_in_traffic": {"text": "24 mins", "value": 1440},
				"distance": {"text": "6.1 km", "value": 6100},
				"steps": [{}, {}, {}]
			}]
		},
		{
			"summary": "7th Ave",
			"legs": [{
				"duration": {"text": "27 mins", "value": 1620},
				"distance": {"text": "6.5 km", "value": 6500},
				"steps": [{}, {}, {}, {}]
			}]
		}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestRouteSuccess(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("mode") != "transit" {
			t.Errorf("mode = %q, want transit", q.Get("mode"))
		}
		if q.Get("transit_mode") != "bus|subway|train" {
			t.Errorf("transit_mode = %q", q.Get("transit_mode"))
		}
		if q.Get("alternatives") != "" {
			t.Errorf("single route request must not ask for alternatives")
		}
		w.Write([]byte(routesBody))
	})

	leg, err := client.Route(context.Background(), "brooklyn", "manhattan")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if leg.DurationSeconds != 1200 || leg.DurationTrafficSeconds != 1440 {
		t.Errorf("leg = %+v", leg)
	}
	if leg.Summary != "Broadway" {
		t.Errorf("summary = %q", leg.Summary)
	}
}

func TestRouteTrafficFallsBackToNormalDuration(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "OK",
			"routes": [{
				"summary": "",
				"legs": [{
					"duration": {"text": "20 mins", "value": 1200},
					"distance": {"text": "6.1 km", "value": 6100},
					"steps": []
				}]
			}]
		}`))
	})

	leg, err := client.Route(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if leg.DurationTrafficSeconds != 1200 || leg.DurationTrafficText != "20 mins" {
		t.Errorf("traffic duration must fall back to normal, got %+v", leg)
	}
	if leg.Summary != "Route found" {
		t.Errorf("summary = %q, want default", leg.Summary)
	}
}

func TestRouteStatusNotOK(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "routes": []}`))
	})

	_, err := client.Route(context.Background(), "a", "b")
	if !errors.Is(err, contractx.ErrAdapterUnavailable) {
		t.Errorf("err = %v, want ErrAdapterUnavailable", err)
	}
}

func TestRouteEmptyEndpoints(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.Route(context.Background(), "", "manhattan")
	if !errors.Is(err, contractx.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestRouteOptionsPreservesProviderOrder(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alternatives") != "true" {
			t.Error("alternatives=true expected")
		}
		w.Write([]byte(routesBody))
	})

	alts, err := client.RouteOptions(context.Background(), "brooklyn", "manhattan")
	if err != nil {
		t.Fatalf("RouteOptions: %v", err)
	}
	if len(alts) != 2 {
		t.Fatalf("got %d alternatives, want 2", len(alts))
	}
	if alts[0].Summary != "Broadway" || alts[1].Summary != "7th Ave" {
		t.Errorf("order not preserved: %+v", alts)
	}
	if alts[0].StepCount != 3 || alts[1].StepCount != 4 {
		t.Errorf("step counts = %d, %d", alts[0].StepCount, alts[1].StepCount)
	}
	if alts[1].DurationText != "27 mins" {
		t.Errorf("duration without traffic field = %q, want normal duration", alts[1].DurationText)
	}
}
