package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/orcapost/internal/api"
	"github.com/samcharles93/orcapost/pkg/gcode"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		noDetector  bool
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the conversion HTTP API",
		Flags: append(loggingFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8086",
				Destination: &addr,
			},
			&cli.BoolFlag{
				Name:        "no-detector",
				Usage:       "disable spaghetti detector injection by default",
				Destination: &noDetector,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyServeConfig(cmd, cfg, &addr)
			log := newLogger(cfg, cmd)

			opts := gcode.DefaultOptions()
			opts.SpaghettiDetector = !noDetector
			if cfg.SpaghettiDetector != nil && !cmd.IsSet("no-detector") {
				opts.SpaghettiDetector = *cfg.SpaghettiDetector
			}

			server := api.NewServer(log, opts)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
