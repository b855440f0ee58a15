package state

import "time"

// MessageKind tags audit-trail entries by the step that produced them.
type MessageKind string

const (
	KindUserRequest    MessageKind = "user_request"
	KindLocationUpdate MessageKind = "location_update"
	KindWeatherUpdate  MessageKind = "weather_update"
	KindTrafficUpdate  MessageKind = "traffic_update"
	KindRouteUpdate    MessageKind = "route_update"
	KindFinalNarrative MessageKind = "final_narrative"
)

// Data-source markers. Location and weather always carry one of these;
// a fallback value is valid data, not an error.
const (
	SourceResolved = "resolved"
	SourceFallback = "fallback"
)

// StatusLocationQuery is the sentinel written into traffic/route fields when
// a location-only query short-circuits the routing steps.
const StatusLocationQuery = "location_query"

// AuditEntry is one record of the per-request conversation log. Entries are
// append-only; insertion order is significant.
type AuditEntry struct {
	Kind      MessageKind `json:"type"`
	Text      string      `json:"content"`
	Agent     string      `json:"agent"`
	Timestamp time.Time   `json:"timestamp"`
}

type LocationInfo struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Source    string  `json:"source"`
}

type WeatherInfo struct {
	TemperatureC float64 `json:"temperature"`
	Condition    string  `json:"condition"`
	WindSpeed    float64 `json:"wind_speed"`
	VisibilityKm float64 `json:"visibility"`
	Humidity     int     `json:"humidity"`
	Source       string  `json:"source"`
}

// TrafficInfo is either a populated journey, an explicit error marker, or
// the location-query sentinel. Unlike location/weather there is no silent
// fallback here: a wrong travel time is worse than an absent one.
type TrafficInfo struct {
	DurationNormal    string `json:"duration_normal,omitempty"`
	DurationInTraffic string `json:"duration_in_traffic,omitempty"`
	Distance          string `json:"distance,omitempty"`
	DelaySeconds      int    `json:"traffic_delay,omitempty"`
	Summary           string `json:"route_summary,omitempty"`
	Source            string `json:"source,omitempty"`
	Status            string `json:"status,omitempty"`
	Error             string `json:"error,omitempty"`
}

// RouteOption is one alternative route, or an error/sentinel marker. The
// list a step writes is capped at three entries in provider order.
type RouteOption struct {
	ID        int    `json:"route_id,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Distance  string `json:"distance,omitempty"`
	StepCount int    `json:"steps_count,omitempty"`
	Status    string `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RequestState is the single mutable record threaded through the pipeline.
// It is created fresh per inbound query, mutated in place by each step, and
// discarded once the response payload is extracted.
type RequestState struct {
	RequestID    string
	UserQuery    string
	Location     *LocationInfo
	Weather      *WeatherInfo
	Traffic      *TrafficInfo
	RouteOptions []RouteOption
	Narrative    string
	ErrorCount   int
	APICalls     int
	Trail        []AuditEntry
}

// New seeds a request state with the initiating user message, so the trail
// is never empty once a state exists.
func New(requestID, userQuery string, now time.Time) *RequestState {
	st := &RequestState{
		RequestID: requestID,
		UserQuery: userQuery,
	}
	st.AddMessage(KindUserRequest, userQuery, "user", now)
	return st
}

// AddMessage appends an audit entry. The trail is append-only.
func (s *RequestState) AddMessage(kind MessageKind, text, agent string, now time.Time) {
	s.Trail = append(s.Trail, AuditEntry{
		Kind:      kind,
		Text:      text,
		Agent:     agent,
		Timestamp: now.UTC(),
	})
}

// CountError bumps the fault budget. The counter never decreases.
func (s *RequestState) CountError() {
	s.ErrorCount++
}

// CountAPICall tallies one outbound provider call for usage metering.
func (s *RequestState) CountAPICall() {
	s.APICalls++
}
