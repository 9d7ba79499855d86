package main

import (
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/orcapost/internal/logger"
)

var (
	logLevel  string
	logFormat string
	debug     bool
)

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

func newLogger(cfg Config, c *cli.Command) logger.Logger {
	level := logLevel
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		level = cfg.LogLevel
	}
	if debug {
		level = "debug"
	}
	format := logFormat
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		format = cfg.LogFormat
	}
	return logger.Build(os.Stderr, format, logger.ParseLevel(level))
}
