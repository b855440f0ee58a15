package engine

import (
	"fmt"
	"time"

	statex "github.com/wayfarer-ai/wayfinder/agent/state"
)

// Response is the payload returned to the transport. Always well-formed:
// degraded requests fill what they can and leave the rest zero-valued.
type Response struct {
	RequestID         string               `json:"request_id"`
	Directions        string               `json:"directions"`
	Location          *statex.LocationInfo `json:"location"`
	Weather           *statex.WeatherInfo  `json:"weather"`
	Traffic           *statex.TrafficInfo  `json:"traffic"`
	RouteOptions      []statex.RouteOption `json:"route_options"`
	ProcessingTime    float64              `json:"processing_time"`
	MessagesExchanged int                  `json:"messages_exchanged"`
	ErrorsEncountered int                  `json:"errors_encountered"`
	ConversationLog   []statex.AuditEntry  `json:"conversation_log"`
}

func fromState(st *statex.RequestState, elapsed time.Duration) Response {
	return Response{
		RequestID:         st.RequestID,
		Directions:        st.Narrative,
		Location:          st.Location,
		Weather:           st.Weather,
		Traffic:           st.Traffic,
		RouteOptions:      st.RouteOptions,
		ProcessingTime:    elapsed.Seconds(),
		MessagesExchanged: len(st.Trail),
		ErrorsEncountered: st.ErrorCount,
		ConversationLog:   st.Trail,
	}
}

func errorResponse(requestID, cause string, elapsed time.Duration) Response {
	return Response{
		RequestID:         requestID,
		Directions:        fmt.Sprintf("I'm sorry, I encountered an error: %s. Please try again.", cause),
		RouteOptions:      []statex.RouteOption{},
		ProcessingTime:    elapsed.Seconds(),
		ErrorsEncountered: 1,
	}
}
