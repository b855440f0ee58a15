// Package supervisor holds the orchestration decision function. The
// transition graph is an acyclic chain with a single abort edge, so it is
// expressed directly instead of through a workflow engine.
package supervisor

import (
	statex "github.com/wayfarer-ai/wayfinder/agent/state"
)

type Step string

const (
	StepLocation     Step = "location_agent"
	StepWeather      Step = "weather_agent"
	StepTraffic      Step = "traffic_agent"
	StepRouteOptions Step = "route_agent"
	StepNarrative    Step = "direction_agent"
	Stop             Step = "stop"
)

// MaxErrors is the abort ceiling: once ErrorCount reaches it, no further
// step runs regardless of what is still missing.
const MaxErrors = 3

// Next maps the current state to the step to run, or Stop. It is evaluated
// fresh every iteration; there is no memoized plan. Step order matters:
// weather and traffic must never be attempted before location, and every
// step either fills its field or degrades to a non-empty value, so the loop
// makes monotonic progress.
func Next(st *statex.RequestState) Step {
	switch {
	case st.ErrorCount >= MaxErrors:
		return Stop
	case st.Location == nil:
		return StepLocation
	case st.Weather == nil:
		return StepWeather
	case st.Traffic == nil:
		return StepTraffic
	case len(st.RouteOptions) == 0:
		return StepRouteOptions
	case st.Narrative == "":
		return StepNarrative
	default:
		return Stop
	}
}
