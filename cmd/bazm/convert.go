package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/bazm/internal/logger"
	"github.com/samcharles93/bazm/internal/seqmodel"
)

func convertCmd() *cli.Command {
	var (
		inPath  string
		outPath string
		to      string
	)

	return withSetup(&cli.Command{
		Name:  "convert",
		Usage: "Convert model weights between legacy JSON and safetensors",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "in",
				Usage:       "input weights (either format)",
				Required:    true,
				Destination: &inPath,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output path (default: input with the target extension)",
				Destination: &outPath,
			},
			&cli.StringFlag{
				Name:        "to",
				Usage:       "target format (safetensors, json)",
				Value:       "safetensors",
				Destination: &to,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			out, err := convertWeights(log, inPath, outPath, to)
			if err != nil {
				return err
			}
			log.Info("converted weights", "in", inPath, "out", out, "format", to)
			return nil
		},
	})
}

// convertWeights loads inPath in whichever format it is stored and writes
// it in the target format. It returns the output path.
func convertWeights(log logger.Logger, inPath, outPath, to string) (string, error) {
	var ext string
	switch to {
	case "safetensors":
		ext = ".safetensors"
	case "json", "legacy":
		ext = ".json"
	default:
		return "", usageError("unknown --to %q (want safetensors or json)", to)
	}
	if outPath == "" {
		outPath = strings.TrimSuffix(inPath, filepath.Ext(inPath)) + ext
	}
	if filepath.Clean(outPath) == filepath.Clean(inPath) {
		return "", fmt.Errorf("output %s would overwrite the input", outPath)
	}

	m, err := seqmodel.Loader{Logger: log}.Load(inPath)
	if err != nil {
		logLoadError(log, err)
		return "", err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	if ext == ".safetensors" {
		err = m.WriteSafetensors(f)
	} else {
		err = m.WriteLegacy(f)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(outPath)
		return "", fmt.Errorf("write %s: %w", outPath, err)
	}
	return outPath, nil
}
