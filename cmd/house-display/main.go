package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kr/pretty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	httpapi "github.com/i474232898/house-display/internal/api/http"
	"github.com/i474232898/house-display/internal/config"
	"github.com/i474232898/house-display/internal/scheduler"
	"github.com/i474232898/house-display/internal/secret"
	"github.com/i474232898/house-display/internal/timetable"
	"github.com/i474232898/house-display/internal/timetable/fetch"

	_ "time/tzdata"
)

func main() {
	if os.Getenv("LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if os.Getenv("DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "house-display",
		Usage:       "Next trains between two fixed stations",
		Description: "Searches the Ekispert route finder for the next departures from the configured origin",

		Commands: []*cli.Command{
			serveCommand(),
			searchCommand(),
			resourceCommand(),
			watchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "listen target for the web server (defaults to :$PORT)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, agent, err := setup()
			if err != nil {
				return err
			}

			listen := c.String("listen")
			if listen == "" {
				listen = ":" + cfg.Port
			}

			app := httpapi.NewApp()
			httpapi.RegisterRoutes(app, agent, cfg.Route)

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return httpapi.Serve(ctx, app, listen)
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "search once and print the next trains",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print records as JSON",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "dump the route and records",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, agent, err := setup()
			if err != nil {
				return err
			}

			records, err := agent.Search(c.Context, cfg.Route)
			if err != nil {
				return err
			}

			if c.Bool("verbose") {
				pretty.Fprintf(os.Stderr, "%# v\n%# v\n", cfg.Route, records)
			}

			if c.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			fmt.Println(timetable.Format(records))
			return nil
		},
	}
}

func resourceCommand() *cli.Command {
	return &cli.Command{
		Name:  "resource",
		Usage: "print the results page URL from the JSON API",
		Action: func(c *cli.Context) error {
			cfg, agent, err := setup()
			if err != nil {
				return err
			}

			uri, err := agent.ResolveResourceURI(c.Context, cfg.Route)
			if err != nil {
				return err
			}

			fmt.Println(uri)
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "search periodically and log the next trains",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "time between searches (defaults to $WATCH_INTERVAL)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, agent, err := setup()
			if err != nil {
				return err
			}

			interval := cfg.WatchInterval
			if c.IsSet("interval") {
				interval = c.Duration("interval")
			}

			sched := scheduler.New(cfg.Route, interval, cfg.HTTPTimeout, agent)
			if err := sched.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			defer sched.Stop()

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			<-ctx.Done()
			return nil
		},
	}
}

func setup() (*config.AppConfig, *timetable.Agent, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	fetcher := fetch.NewHTTPFetcher("ekispert", httpClient, fetch.DefaultBreakerConfig())

	agent := timetable.NewAgent(fetcher,
		timetable.WithClock(timetable.SystemClock{Location: cfg.Location}),
		timetable.WithSecretProvider(secret.NewFile(cfg.SecretFile)),
		timetable.WithExtractor(timetable.Extractor{Policy: cfg.PartialPolicy}),
	)

	log.Debug().
		Str("from", cfg.Route.Origin.Name).
		Str("to", cfg.Route.Destination.Name).
		Str("partialPolicy", cfg.PartialPolicy.String()).
		Msg("agent configured")

	return cfg, agent, nil
}
