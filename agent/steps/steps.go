// Package steps contains the five step agents. Each one populates exactly
// one field of the shared request state around a single adapter call, with
// its own fallback or error-marker policy. No adapter failure ever escapes
// a step; it becomes a state mutation plus an audit entry instead.
package steps

import (
	"context"
	"time"

	contractx "github.com/wayfarer-ai/wayfinder/agent/contract"
	statex "github.com/wayfarer-ai/wayfinder/agent/state"
)

// Agent is one unit of the pipeline. Run mutates the state in place and
// never returns an error: degradation is expressed in the state itself.
type Agent interface {
	Name() string
	Run(ctx context.Context, st *statex.RequestState)
}

// Metered service labels fed to the budget tracker.
const (
	ServiceGeolocation = "geolocation"
	ServiceWeather     = "weather"
	ServiceMaps        = "google_maps"
	ServiceLLM         = "openai"
)

type noopMeter struct{}

func (noopMeter) MeterCall(string) {}

func safeMeter(m contractx.CallMeter) contractx.CallMeter {
	if m == nil {
		return noopMeter{}
	}
	return m
}

func nowOr(fn func() time.Time) func() time.Time {
	if fn == nil {
		return time.Now
	}
	return fn
}
