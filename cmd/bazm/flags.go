package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/bazm/internal/logger"
)

const (
	envModel = "BAZM_MODEL"
	envVocab = "BAZM_VOCAB"
	envAddr  = "BAZM_ADDR"
)

// maxLogValueLen bounds seed texts and verses echoed to the terminal log.
const maxLogValueLen = 120

var (
	modelPath  string
	vocabPath  string
	seed       int64
	configFile string
	logLevel   string
	logFormat  string
	debug      bool

	// cfg is loaded by setup before any command action runs.
	cfg Config
)

func commonModelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "path to the model weights (.safetensors or legacy .json)",
			Sources:     cli.EnvVars(envModel),
			Destination: &modelPath,
		},
		&cli.StringFlag{
			Name:        "vocab",
			Aliases:     []string{"tokenizer"},
			Usage:       "path to the tokenizer JSON (Keras to_json or a word index map)",
			Sources:     cli.EnvVars(envVocab),
			Destination: &vocabPath,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "RNG seed (-1 for random)",
			Value:       -1,
			Destination: &seed,
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: user config dir)",
			Destination: &configFile,
		},
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

// setup loads the config file, applies it to unset flags and installs the
// logger in the context. It is the Before hook of every command that
// touches model artifacts.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := configFile
	if path == "" {
		path = configPath()
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		return ctx, err
	}
	cfg = loaded
	applyCommonConfig(cmd, cfg)

	level := logLevel
	if debug {
		level = "debug"
	}
	lvl, err := logger.ParseLevel(level)
	if err != nil {
		return ctx, usageError("%v", err)
	}
	format, err := logger.ParseFormat(logFormat)
	if err != nil {
		return ctx, usageError("%v", err)
	}
	log := logger.Setup(os.Stderr, logger.Options{
		Format:      format,
		Level:       lvl,
		AddSource:   lvl == slog.LevelDebug,
		Color:       isTerminal(os.Stderr),
		MaxValueLen: maxLogValueLen,
	})
	if path != "" {
		log.Debug("config", "path", path, "found", cfg.found)
	}
	return logger.WithContext(ctx, log), nil
}

func withSetup(cmd *cli.Command) *cli.Command {
	cmd.Flags = append(cmd.Flags, commonFlags()...)
	cmd.Before = setup
	return cmd
}

func usageError(format string, args ...any) error {
	return cli.Exit(fmt.Sprintf(format, args...), 2)
}
