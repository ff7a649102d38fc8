package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tokend/internal/api"
	"github.com/samcharles93/tokend/internal/logger"
	"github.com/samcharles93/tokend/internal/tokenization"
	"github.com/samcharles93/tokend/internal/tokenizer"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
	)

	flags := append(commonTokenizerFlags(), poolFlags()...)
	flags = append(flags, loggingFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "listen address",
			Value:       "127.0.0.1:8090",
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "read-timeout",
			Usage:       "read timeout",
			Value:       30 * time.Second,
			Destination: &readTimeout,
		},
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the tokenization REST API",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyConfig(cmd, cfg, &addr)
			log := setupLogger()
			ctx = logger.WithContext(ctx, log)

			registry := prometheus.NewRegistry()
			pool, err := buildPool(ctx, cfg, registry)
			if err != nil {
				return err
			}
			defer pool.Close()

			server := api.NewServer(pool, registry)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			e.Use(api.RequestID())
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

func setupLogger() logger.Logger {
	if debug {
		logLevel = "debug"
	}
	return logger.Setup(logLevel, logFormat)
}

// buildPool loads the tokenizer and starts the worker pool from the
// merged flag and file configuration.
func buildPool(ctx context.Context, cfg Config, registry prometheus.Registerer) (*tokenization.Tokenization, error) {
	if tokenizerJSONPath == "" {
		return nil, fmt.Errorf("missing --tokenizer-json (or tokenizer_json in the config file)")
	}
	tok, err := tokenizer.LoadHFTokenizer(tokenizerJSONPath, tokenizerConfig)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	var observer prometheus.Observer
	if registry != nil {
		observer = tokenization.NewInputLengthHistogram(registry)
	}
	return tokenization.New(ctx, tok, tokenization.Config{
		Workers:        int(workers),
		MaxInputLength: int(maxInputLength),
		PositionOffset: int(positionOffset),
		DefaultPrompt:  defaultPrompt,
		Prompts:        cfg.Prompts,
		InputLength:    observer,
	}), nil
}
