package main

import "github.com/urfave/cli/v3"

var (
	tokenizerJSONPath string
	tokenizerConfig   string
	workers           int64
	maxInputLength    int64
	positionOffset    int64
	defaultPrompt     string
	logLevel          string
	logFormat         string
	debug             bool
)

func commonTokenizerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "tokenizer-json",
			Usage:       "path to tokenizer.json",
			Destination: &tokenizerJSONPath,
		},
		&cli.StringFlag{
			Name:        "tokenizer-config",
			Usage:       "override path to tokenizer_config.json",
			Destination: &tokenizerConfig,
		},
		&cli.Int64Flag{
			Name:        "max-input-length",
			Aliases:     []string{"max-len"},
			Usage:       "max tokens per validated encoding",
			Value:       512,
			Destination: &maxInputLength,
		},
		&cli.Int64Flag{
			Name:        "position-offset",
			Usage:       "offset added to generated position ids",
			Destination: &positionOffset,
		},
		&cli.StringFlag{
			Name:        "default-prompt",
			Usage:       "prefix applied when no prompt name is given",
			Destination: &defaultPrompt,
		},
	}
}

func poolFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "workers",
			Aliases:     []string{"w"},
			Usage:       "number of tokenization workers",
			Value:       4,
			Destination: &workers,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}
