package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/bazm/internal/api"
	"github.com/samcharles93/bazm/internal/logger"
	"github.com/samcharles93/bazm/internal/metrics"
)

func serveCmd() *cli.Command {
	var (
		addr          string
		readTimeout   time.Duration
		enableMetrics bool
	)

	return withSetup(&cli.Command{
		Name:  "serve",
		Usage: "Serve the poetry form and the JSON API",
		Flags: append(commonModelFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Sources:     cli.EnvVars(envAddr),
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.BoolFlag{
				Name:        "metrics",
				Usage:       "expose Prometheus metrics on /metrics",
				Value:       true,
				Destination: &enableMetrics,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, cfg, &addr, &enableMetrics)

			arts, err := loadArtifacts(ctx)
			if err != nil {
				return err
			}
			gen, err := arts.newGenerator(ctx)
			if err != nil {
				return err
			}

			serverCfg := api.Config{
				Limits:   cfg.limits(),
				Defaults: cfg.defaults(),
				Model:    arts.info(),
				Logger:   log.WithGroup("http"),
			}
			if enableMetrics {
				prom := metrics.NewProm("bazm")
				serverCfg.Metrics = prom
				serverCfg.MetricsHandler = prom.Handler()
			}
			server := api.NewServer(gen, serverCfg)

			e := echo.New()
			e.Use(server.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "metrics", enableMetrics)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	})
}
