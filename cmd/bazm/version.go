package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/bazm/internal/version"
)

func versionCmd() *cli.Command {
	var asJSON bool
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print as JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return writeVersion(os.Stdout, version.Resolve(), asJSON)
		},
	}
}

func writeVersion(w io.Writer, info version.Info, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	_, _ = fmt.Fprintf(w, "version:    %s\n", info.Version)
	if info.Commit != "" {
		commit := info.Commit
		if info.Modified {
			commit += " (modified)"
		}
		_, _ = fmt.Fprintf(w, "commit:     %s\n", commit)
	}
	if info.BuildTime != "" {
		_, _ = fmt.Fprintf(w, "build time: %s\n", info.BuildTime)
	}
	_, err := fmt.Fprintf(w, "go:         %s\n", info.GoVersion)
	return err
}
