package ingest

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/travigo/truck-tracker/pkg/consumer"
	"github.com/travigo/truck-tracker/pkg/database"
	"github.com/travigo/truck-tracker/pkg/redis_client"
	"github.com/travigo/truck-tracker/pkg/tracking"
	"github.com/urfave/cli/v2"
)

const numConsumers = 5
const batchSize = 200

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Ingests vehicle position reports into the tracking store",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the ingest queue consumers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "stats-listen",
						Value: consumer.DefaultStatsListen(),
						Usage: "listen target for queue stats and health, empty to disable",
					},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}

					store := tracking.NewPostgresStore(database.GlobalGorm)

					redisConsumer := &consumer.RedisConsumer{
						QueueName:       QueueName,
						NumberConsumers: numConsumers,
						BatchSize:       batchSize,
						Timeout:         2 * time.Second,
						StatsListen:     c.String("stats-listen"),
						Consumer:        NewBatchConsumer(0, store),
					}
					if err := redisConsumer.Setup(); err != nil {
						return err
					}

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
					defer signal.Stop(signals)

					<-signals // wait for signal
					go func() {
						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish

					return nil
				},
			},
			{
				Name:  "csv",
				Usage: "publish position reports from a CSV file onto the ingest queue",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "CSV file with a car,latitude,longitude,timestamp[,date] header",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "print the parsed reports instead of publishing them",
					},
				},
				Action: func(c *cli.Context) error {
					file, err := os.Open(c.String("file"))
					if err != nil {
						return err
					}
					defer file.Close()

					reports, err := ReadCSV(file)
					if err != nil {
						return fmt.Errorf("read %s: %w", c.String("file"), err)
					}

					if c.Bool("dry-run") {
						pretty.Println(reports)
						return nil
					}

					if err := redis_client.Connect(); err != nil {
						return err
					}

					queue, err := redis_client.QueueConnection.OpenQueue(QueueName)
					if err != nil {
						return err
					}

					skipped, err := Publish(queue, reports)
					if err != nil {
						return err
					}

					log.Info().
						Int("published", len(reports)-skipped).
						Int("skipped", skipped).
						Msg("Published position reports")

					return nil
				},
			},
		},
	}
}
