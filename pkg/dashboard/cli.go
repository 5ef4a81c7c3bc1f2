package dashboard

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/travigo/truck-tracker/pkg/dashboard/connection"
	"github.com/travigo/truck-tracker/pkg/dashboard/spatialworker"
	"github.com/travigo/truck-tracker/pkg/dashboard/viewsync"
	"github.com/urfave/cli/v2"
)

const workerResultsBuffer = 16

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "Headless live vehicle dashboard",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "connect to a tracking server and serve the dashboard control API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "YAML config file, defaults are used when empty",
					},
				},
				Action: func(c *cli.Context) error {
					config, err := LoadConfig(c.String("config"))
					if err != nil {
						return err
					}

					ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
					defer stop()

					return Run(ctx, config)
				},
			},
			{
				Name:  "view",
				Usage: "print the current view of a running dashboard",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Value: "http://localhost:8010",
						Usage: "base URL of the dashboard control API",
					},
				},
				Action: func(c *cli.Context) error {
					var snapshot ViewSnapshot

					agent := fiber.Get(strings.TrimRight(c.String("url"), "/") + "/dashboard/view").Timeout(10 * time.Second)
					code, _, errs := agent.Struct(&snapshot)
					if len(errs) > 0 {
						return errors.Join(errs...)
					}
					if code != fiber.StatusOK {
						return fmt.Errorf("dashboard returned status %d", code)
					}

					pretty.Println(snapshot)

					return nil
				},
			},
		},
	}
}

type pipeline struct {
	view        *View
	worker      *spatialworker.Worker
	coordinator *viewsync.Coordinator
	manager     *connection.Manager
}

func newPipeline(config Config) (*pipeline, error) {
	connectionConfig, err := config.ConnectionConfig()
	if err != nil {
		return nil, err
	}
	viewport, err := config.InitialViewport()
	if err != nil {
		return nil, err
	}

	view := NewView()
	worker := spatialworker.New(workerResultsBuffer)
	coordinator := viewsync.New(viewsync.Options{
		Filters:  config.InitialFilters(),
		Viewport: viewport,
		Index:    worker,
		Renderer: view,
		KPIs:     view,
		Selector: view,
	})
	manager := connection.NewManager(
		connectionConfig,
		connection.NewWebsocketDialer(),
		connection.TimerScheduler{},
		coordinator,
		coordinator,
		view,
	)
	coordinator.SetFilterSender(manager)

	return &pipeline{
		view:        view,
		worker:      worker,
		coordinator: coordinator,
		manager:     manager,
	}, nil
}

// start runs the pipeline goroutines on wg until ctx is cancelled
func (p *pipeline) start(ctx context.Context, wg *conc.WaitGroup) {
	wg.Go(func() {
		p.worker.Run(ctx)
	})
	wg.Go(func() {
		p.coordinator.Run(ctx)
	})
	wg.Go(func() {
		if err := p.manager.Run(ctx); errors.Is(err, connection.ErrConnectionFailed) {
			log.Error().Err(err).Msg("Dashboard is no longer receiving updates")
		}
	})
}

// Run wires the dashboard pipeline and blocks until ctx is cancelled. A connection that runs out of
// retries leaves the last view and the control API available.
func Run(ctx context.Context, config Config) error {
	pipeline, err := newPipeline(config)
	if err != nil {
		return err
	}

	webApp := NewControlApp(pipeline.coordinator, pipeline.view, pipeline.manager)

	log.Info().
		Str("endpoint", config.Endpoint).
		Str("listen", config.Listen).
		Msg("Starting dashboard")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var listenErr error

	wg := conc.NewWaitGroup()
	pipeline.start(ctx, wg)
	wg.Go(func() {
		listenErr = webApp.Listen(config.Listen)
		cancel()
	})
	wg.Go(func() {
		<-ctx.Done()
		if err := webApp.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Failed to shut down control API")
		}
	})
	wg.Wait()

	return listenErr
}
