package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/wayfarer-ai/wayfinder/agent/contract"
	statex "github.com/wayfarer-ai/wayfinder/agent/state"
	supervisorx "github.com/wayfarer-ai/wayfinder/agent/supervisor"
	"github.com/wayfarer-ai/wayfinder/agent/steps"
)

type fakeGeo struct {
	loc   statex.LocationInfo
	err   error
	calls int
}

func (f *fakeGeo) Geolocate(context.Context, string) (statex.LocationInfo, error) {
	f.calls++
	return f.loc, f.err
}

type fakeWeather struct {
	info  statex.WeatherInfo
	err   error
	calls int
}

func (f *fakeWeather) Weather(context.Context, float64, float64) (statex.WeatherInfo, error) {
	f.calls++
	return f.info, f.err
}

type fakePlanner struct {
	leg     contractx.RouteLeg
	legErr  error
	alts    []contractx.RouteAlternative
	altsErr error
}

func (f *fakePlanner) Route(context.Context, string, string) (contractx.RouteLeg, error) {
	return f.leg, f.legErr
}

func (f *fakePlanner) RouteOptions(context.Context, string, string) ([]contractx.RouteAlternative, error) {
	return f.alts, f.altsErr
}

type fakeSummarizer struct {
	text string
	err  error
}

func (f *fakeSummarizer) Summarize(context.Context, contractx.SummaryRequest) (string, error) {
	return f.text, f.err
}

type captureRecorder struct {
	records []contractx.RequestMetrics
}

func (r *captureRecorder) Record(_ context.Context, rec contractx.RequestMetrics) error {
	r.records = append(r.records, rec)
	return nil
}

func (r *captureRecorder) Stats(context.Context) (contractx.UsageStats, error) {
	return contractx.UsageStats{}, nil
}

func workingDeps() Deps {
	return Deps{
		Geo: &fakeGeo{loc: statex.LocationInfo{
			Latitude: 40.7580, Longitude: -73.9855,
			City: "New York", Region: "New York", Country: "United States",
		}},
		Weather: &fakeWeather{info: statex.WeatherInfo{
			TemperatureC: 22, Condition: "few clouds", WindSpeed: 4, VisibilityKm: 10, Humidity: 55,
		}},
		Planner: &fakePlanner{
			leg: contractx.RouteLeg{
				DurationText:           "20 mins",
				DurationSeconds:        1200,
				DurationTrafficText:    "24 mins",
				DurationTrafficSeconds: 1440,
				DistanceText:           "6.1 km",
				Summary:                "Broadway",
			},
			alts: []contractx.RouteAlternative{
				{Summary: "Broadway", DurationText: "24 mins", DistanceText: "6.1 km", StepCount: 3},
				{Summary: "7th Ave", DurationText: "27 mins", DistanceText: "6.5 km", StepCount: 4},
			},
		},
		Summarizer: &fakeSummarizer{text: "Take the N train two stops north."},
	}
}

func mustEngine(t *testing.T, deps Deps) *Engine {
	t.Helper()
	eng, err := New(deps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

func TestProcessDirectionsHappyPath(t *testing.T) {
	t.Parallel()

	eng := mustEngine(t, workingDeps())
	resp := eng.Process(context.Background(), "directions to Times Square")

	if resp.Directions != "Take the N train two stops north." {
		t.Errorf("directions = %q, want summarizer output verbatim", resp.Directions)
	}
	if resp.ErrorsEncountered != 0 {
		t.Errorf("errors = %d, want 0", resp.ErrorsEncountered)
	}
	if resp.Location == nil || resp.Location.Source != statex.SourceResolved {
		t.Errorf("location = %+v, want resolved", resp.Location)
	}
	if len(resp.RouteOptions) != 2 {
		t.Errorf("route options = %+v", resp.RouteOptions)
	}
	if resp.MessagesExchanged != 6 {
		t.Errorf("messages = %d, want 6 (user request plus five steps)", resp.MessagesExchanged)
	}
}

func TestProcessTrailStartsWithUserRequest(t *testing.T) {
	t.Parallel()

	eng := mustEngine(t, workingDeps())
	resp := eng.Process(context.Background(), "directions to Times Square")

	if len(resp.ConversationLog) < 1 {
		t.Fatal("conversation log is empty")
	}
	first := resp.ConversationLog[0]
	if first.Kind != statex.KindUserRequest {
		t.Errorf("first entry kind = %q, want %q", first.Kind, statex.KindUserRequest)
	}
	if first.Text != "directions to Times Square" {
		t.Errorf("first entry text = %q", first.Text)
	}
}

func TestProcessLocationQuery(t *testing.T) {
	t.Parallel()

	eng := mustEngine(t, workingDeps())
	resp := eng.Process(context.Background(), "where am i?")

	if resp.Location == nil || resp.Location.Source != statex.SourceResolved {
		t.Fatalf("location = %+v, want resolved", resp.Location)
	}
	if resp.Traffic == nil || resp.Traffic.Status != statex.StatusLocationQuery {
		t.Errorf("traffic = %+v, want location-query sentinel", resp.Traffic)
	}
	if len(resp.RouteOptions) != 1 || resp.RouteOptions[0].Status != statex.StatusLocationQuery {
		t.Errorf("route options = %+v, want sentinel", resp.RouteOptions)
	}
	if !strings.Contains(resp.Directions, "New York") {
		t.Errorf("narrative must mention the resolved city: %q", resp.Directions)
	}
	if resp.ErrorsEncountered != 0 {
		t.Errorf("errors = %d, want 0", resp.ErrorsEncountered)
	}
}

func TestProcessGeolocationFailureFallsBack(t *testing.T) {
	t.Parallel()

	deps := workingDeps()
	deps.Geo = &fakeGeo{err: errors.New("timeout")}
	eng := mustEngine(t, deps)

	resp := eng.Process(context.Background(), "directions to Times Square")

	if resp.Location == nil || resp.Location.Source != statex.SourceFallback {
		t.Fatalf("location = %+v, want fallback", resp.Location)
	}
	if resp.Weather == nil || resp.Weather.Source != statex.SourceResolved {
		t.Errorf("weather = %+v, want resolved", resp.Weather)
	}
	if resp.ErrorsEncountered != 0 {
		t.Errorf("fallback absorbs the failure, errors = %d", resp.ErrorsEncountered)
	}
}

func TestProcessDegradedRouting(t *testing.T) {
	t.Parallel()

	deps := workingDeps()
	deps.Planner = &fakePlanner{
		legErr:  errors.New("ZERO_RESULTS"),
		altsErr: errors.New("ZERO_RESULTS"),
	}
	deps.Summarizer = &fakeSummarizer{err: errors.New("rate limited")}
	eng := mustEngine(t, deps)

	resp := eng.Process(context.Background(), "directions to Atlantis")

	if resp.Traffic == nil || resp.Traffic.Error == "" {
		t.Errorf("traffic = %+v, want error marker", resp.Traffic)
	}
	if len(resp.RouteOptions) != 1 || resp.RouteOptions[0].Error == "" {
		t.Errorf("route options = %+v, want one error marker", resp.RouteOptions)
	}
	if !strings.Contains(resp.Directions, "Have a safe trip") {
		t.Errorf("narrative must be the deterministic template: %q", resp.Directions)
	}
	if resp.ErrorsEncountered != 1 {
		t.Errorf("errors = %d, want 1 (only the narrative failure counts)", resp.ErrorsEncountered)
	}
}

// failingAgent increments the error budget without making progress,
// standing in for a step whose precondition never materializes.
type failingAgent struct {
	runs int
}

func (a *failingAgent) Name() string { return "failing_agent" }

func (a *failingAgent) Run(_ context.Context, st *statex.RequestState) {
	a.runs++
	st.CountError()
	st.AddMessage(statex.KindLocationUpdate, "No location data available", a.Name(), time.Now())
}

func TestProcessAbortsAtErrorBudget(t *testing.T) {
	t.Parallel()

	failing := &failingAgent{}
	recorder := &captureRecorder{}
	eng := &Engine{
		agents: map[supervisorx.Step]steps.Agent{
			supervisorx.StepLocation: failing,
		},
		recorder: recorder,
		now:      time.Now,
		newID:    func() string { return "abort-test" },
	}

	resp := eng.Process(context.Background(), "directions to Times Square")

	if failing.runs != supervisorx.MaxErrors {
		t.Errorf("agent ran %d times, want %d then abort", failing.runs, supervisorx.MaxErrors)
	}
	if resp.ErrorsEncountered != supervisorx.MaxErrors {
		t.Errorf("errors = %d, want %d", resp.ErrorsEncountered, supervisorx.MaxErrors)
	}
	if resp.Directions != "" {
		t.Errorf("narrative should be empty after abort, got %q", resp.Directions)
	}
	if len(resp.ConversationLog) == 0 || resp.ConversationLog[0].Kind != statex.KindUserRequest {
		t.Error("aborted response must still carry the audit trail")
	}
	if len(recorder.records) != 1 || recorder.records[0].Success {
		t.Errorf("recorded metrics = %+v, want one unsuccessful record", recorder.records)
	}
}

func TestProcessNeverReselectsFilledSteps(t *testing.T) {
	t.Parallel()

	deps := workingDeps()
	geo := deps.Geo.(*fakeGeo)
	weather := deps.Weather.(*fakeWeather)
	eng := mustEngine(t, deps)

	eng.Process(context.Background(), "directions to Times Square")

	if geo.calls != 1 {
		t.Errorf("geolocate called %d times, want 1", geo.calls)
	}
	if weather.calls != 1 {
		t.Errorf("weather called %d times, want 1", weather.calls)
	}
}

type panickingAgent struct{}

func (panickingAgent) Name() string { return "panicking_agent" }

func (panickingAgent) Run(context.Context, *statex.RequestState) {
	panic("unexpected nil")
}

func TestProcessRecoversPanic(t *testing.T) {
	t.Parallel()

	recorder := &captureRecorder{}
	eng := &Engine{
		agents: map[supervisorx.Step]steps.Agent{
			supervisorx.StepLocation: panickingAgent{},
		},
		recorder: recorder,
		now:      time.Now,
		newID:    func() string { return "panic-test" },
	}

	resp := eng.Process(context.Background(), "directions to Times Square")

	if !strings.Contains(resp.Directions, "I'm sorry, I encountered an error") {
		t.Errorf("directions = %q, want apologetic error response", resp.Directions)
	}
	if resp.RequestID != "panic-test" {
		t.Errorf("request id = %q", resp.RequestID)
	}
	if len(recorder.records) != 1 || recorder.records[0].Success {
		t.Errorf("recorded metrics = %+v, want one unsuccessful record", recorder.records)
	}
}

func TestProcessRecordsMetrics(t *testing.T) {
	t.Parallel()

	deps := workingDeps()
	recorder := &captureRecorder{}
	deps.Recorder = recorder
	eng := mustEngine(t, deps)

	eng.Process(context.Background(), "directions to Times Square")

	if len(recorder.records) != 1 {
		t.Fatalf("got %d records, want 1", len(recorder.records))
	}
	rec := recorder.records[0]
	if !rec.Success {
		t.Error("successful request must record success")
	}
	if rec.APICalls != 5 {
		t.Errorf("api calls = %d, want 5 (geo, weather, route, route options, llm)", rec.APICalls)
	}
	if rec.AgentsUsed != 5 {
		t.Errorf("agents used = %d, want 5", rec.AgentsUsed)
	}
	if _, err := time.Parse(time.RFC3339, rec.Timestamp); err != nil {
		t.Errorf("timestamp %q not RFC3339: %v", rec.Timestamp, err)
	}
}

func TestNewRequiresAdapters(t *testing.T) {
	t.Parallel()

	deps := workingDeps()
	deps.Summarizer = nil
	if _, err := New(deps); err == nil {
		t.Error("New must fail without a summarizer")
	}
}
