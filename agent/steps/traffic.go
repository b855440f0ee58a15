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

// Traffic fetches the current best transit journey. Location-only queries
// short-circuit with a sentinel; adapter failure writes an explicit error
// marker rather than a fallback, since a wrong travel time is worse than an
// absent one. Neither outcome counts against the error budget.
type Traffic struct {
	Planner contractx.RoutePlanner
	Meter   contractx.CallMeter
	Now     func() time.Time
}

func (s *Traffic) Name() string { return "traffic_agent" }

func (s *Traffic) Run(ctx context.Context, st *statex.RequestState) {
	now := nowOr(s.Now)

	if intentx.Classify(st.UserQuery) == intentx.LocationQuery {
		st.Traffic = &statex.TrafficInfo{Status: statex.StatusLocationQuery}
		st.AddMessage(statex.KindTrafficUpdate, "Location query, no route needed", s.Name(), now())
		return
	}

	origin, destination := intentx.Endpoints(st.UserQuery, st.Location)

	safeMeter(s.Meter).MeterCall(ServiceMaps)
	st.CountAPICall()

	leg, err := s.Planner.Route(ctx, origin, destination)
	if err != nil {
		log.Warn().Err(err).Str("agent", s.Name()).Msg("route lookup failed")
		st.Traffic = &statex.TrafficInfo{Error: err.Error()}
		st.AddMessage(statex.KindTrafficUpdate, fmt.Sprintf("Error: %s", err), s.Name(), now())
		return
	}

	delay := leg.DurationTrafficSeconds - leg.DurationSeconds
	if delay < 0 {
		delay = 0
	}

	st.Traffic = &statex.TrafficInfo{
		DurationNormal:    leg.DurationText,
		DurationInTraffic: leg.DurationTrafficText,
		Distance:          leg.DistanceText,
		DelaySeconds:      delay,
		Summary:           leg.Summary,
		Source:            statex.SourceResolved,
	}

	delayText := ""
	if delay > 0 {
		delayText = fmt.Sprintf(" (+%d min delay)", delay/60)
	}
	st.AddMessage(
		statex.KindTrafficUpdate,
		fmt.Sprintf("Route: %s, %s%s", leg.DistanceText, leg.DurationTrafficText, delayText),
		s.Name(),
		now(),
	)
}
