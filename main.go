package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/wayfarer-ai/wayfinder/agent/contract"
	"github.com/wayfarer-ai/wayfinder/agent/engine"
	llmx "github.com/wayfarer-ai/wayfinder/agent/llm"
	"github.com/wayfarer-ai/wayfinder/metering"
	configx "github.com/wayfarer-ai/wayfinder/pkg/config"
	googlemapsx "github.com/wayfarer-ai/wayfinder/pkg/googlemaps"
	ipapix "github.com/wayfarer-ai/wayfinder/pkg/ipapi"
	_ "github.com/wayfarer-ai/wayfinder/pkg/logger/autoload"
	openweatherx "github.com/wayfarer-ai/wayfinder/pkg/openweather"
	serverx "github.com/wayfarer-ai/wayfinder/server"
)

type AppConfig struct {
	// MeteringDSN selects the Postgres usage store when set; the file
	// recorder is the default.
	MeteringDSN string `envconfig:"METERING_DSN" split_words:"true"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")

	geoClient := ipapix.MustNew(*configx.MustNew[ipapix.Config]("IPAPI"))
	weatherClient := openweatherx.MustNew(*configx.MustNew[openweatherx.Config]("OPENWEATHER"))
	mapsClient := googlemapsx.MustNew(*configx.MustNew[googlemapsx.Config]("GOOGLE_MAPS"))
	summarizer := llmx.MustNewSummarizer(*configx.MustNew[llmx.Config]("OPENAI"))

	recorder := newRecorder(appCfg.MeteringDSN)
	budget := metering.NewBudgetTracker(*configx.MustNew[metering.BudgetConfig]("BUDGET"))

	eng, err := engine.New(engine.Deps{
		Geo:        geoClient,
		Weather:    weatherClient,
		Planner:    mapsClient,
		Summarizer: summarizer,
		Recorder:   recorder,
		Meter:      budget,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("could not build engine")
	}

	srv := serverx.New(*configx.MustNew[serverx.Config]("SERVER"), eng, recorder, budget)
	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}

func newRecorder(dsn string) contractx.UsageRecorder {
	if dsn == "" {
		return metering.NewFileRecorder(*configx.MustNew[metering.FileConfig]("METERING"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := metering.NewBunStore(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect metering store")
	}
	log.Info().Msg("metering store: postgres")
	return store
}
