package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/wayfarer-ai/wayfinder/agent/contract"
	statex "github.com/wayfarer-ai/wayfinder/agent/state"
)

// DefaultLookupIP is used for every geolocation call: this system has no
// access to the caller's real network origin, an explicit limitation of the
// design rather than a bug.
const DefaultLookupIP = "8.8.8.8"

// FallbackLocation is the static substitute written when geolocation fails.
var FallbackLocation = statex.LocationInfo{
	Latitude:  40.7128,
	Longitude: -74.0060,
	City:      "New York",
	Region:    "New York",
	Country:   "United States",
	Source:    statex.SourceFallback,
}

// Location resolves the caller's position. Adapter failure never counts
// against the error budget because the fallback is usable data.
type Location struct {
	Geo   contractx.Geolocator
	Meter contractx.CallMeter
	IP    string
	Now   func() time.Time
}

func (s *Location) Name() string { return "location_agent" }

func (s *Location) Run(ctx context.Context, st *statex.RequestState) {
	now := nowOr(s.Now)
	ip := s.IP
	if ip == "" {
		ip = DefaultLookupIP
	}

	safeMeter(s.Meter).MeterCall(ServiceGeolocation)
	st.CountAPICall()

	loc, err := s.Geo.Geolocate(ctx, ip)
	if err != nil {
		log.Warn().Err(err).Str("agent", s.Name()).Msg("geolocation failed, using fallback")
		loc = FallbackLocation
	} else {
		loc.Source = statex.SourceResolved
	}

	st.Location = &loc
	st.AddMessage(
		statex.KindLocationUpdate,
		fmt.Sprintf("Location found: %s, %s", loc.City, loc.Region),
		s.Name(),
		now(),
	)
}
