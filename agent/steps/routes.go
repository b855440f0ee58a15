package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/wayfarer-ai/wayfinder/agent/contract"
	intentx "github.com/wayfarer-ai/wayfinder/agent/intent"
	statex "github.com/wayfarer-ai/wayfinder/agent/state"
)

// maxRouteOptions caps the alternatives list; provider order is preserved,
// never re-sorted.
const maxRouteOptions = 3

// RouteOptions fetches alternative journeys. It re-runs the same endpoint
// extraction as the traffic step; the two calls are independent of each
// other's transient state. Once this step has run, st.RouteOptions is never
// empty: failures and zero-route results yield a one-element error marker.
type RouteOptions struct {
	Planner contractx.RoutePlanner
	Meter   contractx.CallMeter
	Now     func() time.Time
}

func (s *RouteOptions) Name() string { return "route_agent" }

func (s *RouteOptions) Run(ctx context.Context, st *statex.RequestState) {
	now := nowOr(s.Now)

	if intentx.Classify(st.UserQuery) == intentx.LocationQuery {
		st.RouteOptions = []statex.RouteOption{{Status: statex.StatusLocationQuery}}
		st.AddMessage(statex.KindRouteUpdate, "Location query, no route options needed", s.Name(), now())
		return
	}

	origin, destination := intentx.Endpoints(st.UserQuery, st.Location)

	safeMeter(s.Meter).MeterCall(ServiceMaps)
	st.CountAPICall()

	alts, err := s.Planner.RouteOptions(ctx, origin, destination)
	if err != nil {
		log.Warn().Err(err).Str("agent", s.Name()).Msg("route options lookup failed")
		st.RouteOptions = []statex.RouteOption{{Error: err.Error()}}
		st.AddMessage(statex.KindRouteUpdate, fmt.Sprintf("Error: %s", err), s.Name(), now())
		return
	}
	if len(alts) == 0 {
		st.RouteOptions = []statex.RouteOption{{Error: "No routes found"}}
		st.AddMessage(statex.KindRouteUpdate, "Error: No routes found", s.Name(), now())
		return
	}

	if len(alts) > maxRouteOptions {
		alts = alts[:maxRouteOptions]
	}

	options := make([]statex.RouteOption, 0, len(alts))
	for i, alt := range alts {
		summary := alt.Summary
		if summary == "" {
			summary = fmt.Sprintf("Route %d", i+1)
		}
		options = append(options, statex.RouteOption{
			ID:        i + 1,
			Summary:   summary,
			Duration:  alt.DurationText,
			Distance:  alt.DistanceText,
			StepCount: alt.StepCount,
		})
	}

	st.RouteOptions = options
	st.AddMessage(
		statex.KindRouteUpdate,
		fmt.Sprintf("Found %d route options", len(options)),
		s.Name(),
		now(),
	)
}
