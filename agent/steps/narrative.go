package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/wayfarer-ai/wayfinder/agent/contract"
	intentx "github.com/wayfarer-ai/wayfinder/agent/intent"
	statex "github.com/wayfarer-ai/wayfinder/agent/state"
)

// Narrative produces the final answer. Location-only queries are answered
// directly from state; directions queries go through the summarizer, and a
// summarizer failure counts against the error budget before degrading to a
// deterministic template built purely from the fields already gathered.
type Narrative struct {
	Summarizer contractx.Summarizer
	Meter      contractx.CallMeter
	Now        func() time.Time
}

func (s *Narrative) Name() string { return "direction_agent" }

func (s *Narrative) Run(ctx context.Context, st *statex.RequestState) {
	now := nowOr(s.Now)

	if intentx.Classify(st.UserQuery) == intentx.LocationQuery {
		st.Narrative = locationNarrative(st)
		st.AddMessage(statex.KindFinalNarrative, "Location information generated", s.Name(), now())
		return
	}

	safeMeter(s.Meter).MeterCall(ServiceLLM)
	st.CountAPICall()

	text, err := s.Summarizer.Summarize(ctx, contractx.SummaryRequest{
		Query:        st.UserQuery,
		Location:     st.Location,
		Weather:      st.Weather,
		Traffic:      st.Traffic,
		RouteOptions: st.RouteOptions,
	})
	if err != nil {
		log.Warn().Err(err).Str("agent", s.Name()).Msg("summarizer failed, using template")
		st.CountError()
		st.Narrative = fallbackNarrative(st)
		st.AddMessage(
			statex.KindFinalNarrative,
			fmt.Sprintf("Fallback directions created (AI error: %s)", err),
			s.Name(),
			now(),
		)
		return
	}

	st.Narrative = text
	st.AddMessage(statex.KindFinalNarrative, "AI-powered directions generated successfully", s.Name(), now())
}

func locationNarrative(st *statex.RequestState) string {
	var b strings.Builder
	b.WriteString("You are in:\n")
	if st.Location != nil {
		fmt.Fprintf(&b, "City: %s\n", st.Location.City)
		fmt.Fprintf(&b, "Region: %s\n", st.Location.Region)
		fmt.Fprintf(&b, "Country: %s\n", st.Location.Country)
	}
	if st.Weather != nil {
		b.WriteString("\nCurrent weather:\n")
		fmt.Fprintf(&b, "Condition: %s\n", st.Weather.Condition)
		fmt.Fprintf(&b, "Temperature: %.0f°C\n", st.Weather.TemperatureC)
	}
	return b.String()
}

// fallbackNarrative is the deterministic template used when the summarizer
// is unavailable. It only reads fields already in state.
func fallbackNarrative(st *statex.RequestState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here are your directions for: %s\n\n", st.UserQuery)

	if st.Location != nil {
		fmt.Fprintf(&b, "Your location: %s, %s\n", st.Location.City, st.Location.Region)
	}
	if st.Weather != nil {
		fmt.Fprintf(&b, "Weather: %s, %.0f°C\n", st.Weather.Condition, st.Weather.TemperatureC)
	}
	if st.Traffic != nil && st.Traffic.Error == "" && st.Traffic.Status == "" {
		fmt.Fprintf(&b, "Route: %s in %s\n", st.Traffic.Distance, st.Traffic.DurationInTraffic)
		if st.Traffic.DelaySeconds > 0 {
			fmt.Fprintf(&b, "Traffic delay: %d minutes\n", st.Traffic.DelaySeconds/60)
		}
	}

	b.WriteString("\nHave a safe trip!")
	return b.String()
}
