package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/wayfarer-ai/wayfinder/agent/contract"
	statex "github.com/wayfarer-ai/wayfinder/agent/state"
)

// FallbackWeather is the static substitute written when the weather
// provider fails.
var FallbackWeather = statex.WeatherInfo{
	TemperatureC: 20,
	Condition:    "clear sky",
	WindSpeed:    5,
	VisibilityKm: 10,
	Humidity:     50,
	Source:       statex.SourceFallback,
}

// Weather fetches current conditions at the resolved location. A missing
// location is a precondition failure and counts against the error budget;
// an adapter failure does not, because the fallback is usable data.
type Weather struct {
	Provider contractx.WeatherProvider
	Meter    contractx.CallMeter
	Now      func() time.Time
}

func (s *Weather) Name() string { return "weather_agent" }

func (s *Weather) Run(ctx context.Context, st *statex.RequestState) {
	now := nowOr(s.Now)

	if st.Location == nil {
		st.CountError()
		st.AddMessage(statex.KindWeatherUpdate, "No location data available", s.Name(), now())
		return
	}

	safeMeter(s.Meter).MeterCall(ServiceWeather)
	st.CountAPICall()

	w, err := s.Provider.Weather(ctx, st.Location.Latitude, st.Location.Longitude)
	if err != nil {
		log.Warn().Err(err).Str("agent", s.Name()).Msg("weather lookup failed, using fallback")
		w = FallbackWeather
	} else {
		w.Source = statex.SourceResolved
	}

	st.Weather = &w
	st.AddMessage(
		statex.KindWeatherUpdate,
		fmt.Sprintf("Weather: %s, %.0f°C", w.Condition, w.TemperatureC),
		s.Name(),
		now(),
	)
}
