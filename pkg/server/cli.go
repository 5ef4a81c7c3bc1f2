package server

import (
	"github.com/rs/zerolog/log"
	"github.com/travigo/truck-tracker/pkg/database"
	"github.com/travigo/truck-tracker/pkg/elastic_client"
	"github.com/travigo/truck-tracker/pkg/redis_client"
	"github.com/travigo/truck-tracker/pkg/tracking"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Tracking server pushing vehicle snapshots to dashboards",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the push and REST server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8000",
						Usage: "listen target for the web server",
					},
					&cli.BoolFlag{
						Name:  "snapshot-cache",
						Value: false,
						Usage: "share snapshots between push sessions through redis",
					},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					if err := elastic_client.Connect(false); err != nil {
						return err
					}
					defer elastic_client.WaitUntilQueueEmpty()

					config := tracking.GetConfig()

					var snapshotCache *tracking.SnapshotCache
					if c.Bool("snapshot-cache") && config.SnapshotCacheTTL > 0 {
						if err := redis_client.Connect(); err != nil {
							return err
						}

						snapshotCache = tracking.NewSnapshotCache(redis_client.Client, config.SnapshotCacheTTL)
						log.Info().Dur("ttl", config.SnapshotCacheTTL).Msg("Snapshot cache enabled")
					}

					service := tracking.NewService(tracking.NewPostgresStore(database.GlobalGorm), config, snapshotCache)

					return SetupServer(c.String("listen"), service)
				},
			},
		},
	}
}
