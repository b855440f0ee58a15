// Package engine drives the supervisor loop over a per-request state and
// assembles the response payload.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/wayfarer-ai/wayfinder/agent/contract"
	statex "github.com/wayfarer-ai/wayfinder/agent/state"
	supervisorx "github.com/wayfarer-ai/wayfinder/agent/supervisor"
	"github.com/wayfarer-ai/wayfinder/agent/steps"
)

// maxIterations bounds the loop defensively. The supervisor guarantees
// termination in five steps; the bound only matters if a step ever fails to
// make progress.
const maxIterations = 8

// Engine runs one request at a time through the step pipeline. Engines are
// safe for concurrent use: all mutable state lives in the per-request
// RequestState.
type Engine struct {
	agents   map[supervisorx.Step]steps.Agent
	recorder contractx.UsageRecorder

	now   func() time.Time
	newID func() string
}

// Deps are the collaborators a new Engine needs. Recorder and Meter may be
// nil; metering is a side concern and never blocks the pipeline.
type Deps struct {
	Geo        contractx.Geolocator
	Weather    contractx.WeatherProvider
	Planner    contractx.RoutePlanner
	Summarizer contractx.Summarizer
	Recorder   contractx.UsageRecorder
	Meter      contractx.CallMeter
}

func New(deps Deps) (*Engine, error) {
	if deps.Geo == nil {
		return nil, errors.New("geolocator is required")
	}
	if deps.Weather == nil {
		return nil, errors.New("weather provider is required")
	}
	if deps.Planner == nil {
		return nil, errors.New("route planner is required")
	}
	if deps.Summarizer == nil {
		return nil, errors.New("summarizer is required")
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = noopRecorder{}
	}

	e := &Engine{
		agents: map[supervisorx.Step]steps.Agent{
			supervisorx.StepLocation:     &steps.Location{Geo: deps.Geo, Meter: deps.Meter},
			supervisorx.StepWeather:      &steps.Weather{Provider: deps.Weather, Meter: deps.Meter},
			supervisorx.StepTraffic:      &steps.Traffic{Planner: deps.Planner, Meter: deps.Meter},
			supervisorx.StepRouteOptions: &steps.RouteOptions{Planner: deps.Planner, Meter: deps.Meter},
			supervisorx.StepNarrative:    &steps.Narrative{Summarizer: deps.Summarizer, Meter: deps.Meter},
		},
		recorder: recorder,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	return e, nil
}

// AgentNames returns the static roster for the health surface, supervisor
// first, then pipeline order.
func (e *Engine) AgentNames() []string {
	return []string{
		"supervisor",
		string(supervisorx.StepLocation),
		string(supervisorx.StepWeather),
		string(supervisorx.StepTraffic),
		string(supervisorx.StepRouteOptions),
		string(supervisorx.StepNarrative),
	}
}

// Process answers one query. It never returns an error to the caller: any
// failure inside the pipeline degrades to a best-effort Response. The only
// rejection is an empty query, which is a boundary concern checked before
// the pipeline starts.
func (e *Engine) Process(ctx context.Context, userQuery string) (resp Response) {
	start := e.now()
	requestID := e.newID()

	st := statex.New(requestID, userQuery, start)

	// Outermost safety net: an escaped panic becomes an error response,
	// never a crash surfaced to the transport.
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("request_id", requestID).Interface("panic", r).Msg("pipeline panicked")
			resp = errorResponse(requestID, fmt.Sprintf("%v", r), e.now().Sub(start))
			e.record(ctx, st, e.now().Sub(start), false)
		}
	}()

	stepsRun := 0
	for i := 0; i < maxIterations; i++ {
		if ctx.Err() != nil {
			log.Warn().Str("request_id", requestID).Msg("request cancelled, stopping pipeline")
			break
		}

		next := supervisorx.Next(st)
		if next == supervisorx.Stop {
			break
		}

		agent := e.agents[next]
		log.Debug().Str("request_id", requestID).Str("agent", agent.Name()).Msg("running step")
		agent.Run(ctx, st)
		stepsRun++
	}

	elapsed := e.now().Sub(start)
	e.record(ctx, st, elapsed, st.ErrorCount < supervisorx.MaxErrors)

	log.Info().
		Str("request_id", requestID).
		Int("steps", stepsRun).
		Int("errors", st.ErrorCount).
		Dur("elapsed", elapsed).
		Msg("request completed")

	return fromState(st, elapsed)
}

func (e *Engine) record(ctx context.Context, st *statex.RequestState, elapsed time.Duration, success bool) {
	rec := contractx.RequestMetrics{
		Timestamp:      e.now().UTC().Format(time.RFC3339),
		ProcessingTime: elapsed.Seconds(),
		AgentsUsed:     len(e.agents),
		APICalls:       st.APICalls,
		Errors:         st.ErrorCount,
		Success:        success,
	}
	if err := e.recorder.Record(ctx, rec); err != nil {
		// Metering must never fail a request.
		log.Warn().Err(err).Msg("could not record usage metrics")
	}
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, contractx.RequestMetrics) error { return nil }
func (noopRecorder) Stats(context.Context) (contractx.UsageStats, error) {
	return contractx.UsageStats{}, nil
}
