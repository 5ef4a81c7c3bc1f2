package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/truck-tracker/pkg/dashboard"
	"github.com/travigo/truck-tracker/pkg/ingest"
	"github.com/travigo/truck-tracker/pkg/server"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	if os.Getenv("TRUCKTRACKER_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("TRUCKTRACKER_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "trucktracker",
		Description: "Single binary for the truck tracker - tracking server, ingest and headless dashboard",

		Commands: []*cli.Command{
			server.RegisterCLI(),
			ingest.RegisterCLI(),
			dashboard.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
