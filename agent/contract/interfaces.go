package contract

import (
	"context"

	statex "github.com/wayfarer-ai/wayfinder/agent/state"
)

// Geolocator resolves an IP address to a location.
type Geolocator interface {
	Geolocate(ctx context.Context, ip string) (statex.LocationInfo, error)
}

// WeatherProvider returns current conditions at a coordinate.
type WeatherProvider interface {
	Weather(ctx context.Context, lat, lon float64) (statex.WeatherInfo, error)
}

// RoutePlanner answers transit-routing questions. Route returns the single
// best journey with traffic; RouteOptions returns alternatives in the
// provider's own order.
type RoutePlanner interface {
	Route(ctx context.Context, origin, destination string) (RouteLeg, error)
	RouteOptions(ctx context.Context, origin, destination string) ([]RouteAlternative, error)
}

// Summarizer turns the gathered request snapshot into a narrative answer.
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (string, error)
}

// UsageRecorder persists per-request usage records and serves aggregates.
// Implementations own the side files (or tables); the engine never opens
// them itself. Record failures must not fail the request.
type UsageRecorder interface {
	Record(ctx context.Context, rec RequestMetrics) error
	Stats(ctx context.Context) (UsageStats, error)
}

// CallMeter counts outbound provider calls per service for budget tracking.
type CallMeter interface {
	MeterCall(service string)
}
