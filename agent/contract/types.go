package contract

import (
	statex "github.com/wayfarer-ai/wayfinder/agent/state"
)

// RouteLeg is the provider-level result of a single routed journey. Durations
// carry both the provider's display text and raw seconds; the traffic step
// derives the delay from the seconds.
type RouteLeg struct {
	DurationText           string `json:"duration_text"`
	DurationSeconds        int    `json:"duration_seconds"`
	DurationTrafficText    string `json:"duration_traffic_text"`
	DurationTrafficSeconds int    `json:"duration_traffic_seconds"`
	DistanceText           string `json:"distance_text"`
	Summary                string `json:"summary"`
}

// RouteAlternative is one candidate route returned by the alternatives call,
// in the provider's own ranking order.
type RouteAlternative struct {
	Summary      string `json:"summary"`
	DurationText string `json:"duration_text"`
	DistanceText string `json:"distance_text"`
	StepCount    int    `json:"step_count"`
}

// SummaryRequest is the structured snapshot handed to the summarizer.
type SummaryRequest struct {
	Query        string               `json:"query"`
	Location     *statex.LocationInfo `json:"location,omitempty"`
	Weather      *statex.WeatherInfo  `json:"weather,omitempty"`
	Traffic      *statex.TrafficInfo  `json:"traffic,omitempty"`
	RouteOptions []statex.RouteOption `json:"route_options,omitempty"`
}

// RequestMetrics is the per-request usage record persisted by recorders.
type RequestMetrics struct {
	Timestamp      string  `json:"timestamp"`
	ProcessingTime float64 `json:"processing_time"`
	AgentsUsed     int     `json:"agents_used"`
	APICalls       int     `json:"api_calls"`
	Errors         int     `json:"errors"`
	Success        bool    `json:"success"`
}

// UsageStats aggregates recorded requests for the /metrics surface.
type UsageStats struct {
	TotalRequests      int    `json:"total_requests"`
	SuccessfulRequests int    `json:"successful_requests"`
	SuccessRate        string `json:"success_rate"`
	AverageTime        string `json:"average_time"`
	TotalErrors        int    `json:"total_errors"`
}
