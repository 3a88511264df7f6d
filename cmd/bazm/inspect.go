package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/bazm/internal/api"
	"github.com/samcharles93/bazm/internal/vocab"
)

func inspectCmd() *cli.Command {
	var asJSON bool

	return withSetup(&cli.Command{
		Name:  "inspect",
		Usage: "Print model and vocabulary metadata",
		Flags: append(commonModelFlags(),
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print metadata as JSON",
				Destination: &asJSON,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			arts, err := loadArtifacts(ctx)
			if err != nil {
				return err
			}
			return writeInspect(os.Stdout, arts.info(), arts.vocab.Options(), asJSON)
		},
	})
}

func writeInspect(w io.Writer, info api.ModelInfo, opts vocab.Options, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"model": info,
			"tokenizer": map[string]any{
				"lower":      opts.Lower,
				"split":      opts.Split,
				"char_level": opts.CharLevel,
				"num_words":  opts.NumWords,
				"oov_token":  opts.OOVToken,
			},
		})
	}

	rows := [][2]string{
		{"model", info.ModelPath},
		{"format", info.Format},
		{"max_seq_length", strconv.Itoa(info.MaxSeqLength)},
		{"context window", strconv.Itoa(info.MaxSeqLength - 1)},
		{"vocab_size", strconv.Itoa(info.VocabSize)},
		{"embed_dim", strconv.Itoa(info.EmbedDim)},
		{"hidden_dim", strconv.Itoa(info.HiddenDim)},
		{"vocabulary", info.VocabPath},
		{"words", strconv.Itoa(info.Words)},
		{"lowercase", strconv.FormatBool(opts.Lower)},
		{"char_level", strconv.FormatBool(opts.CharLevel)},
	}
	if opts.NumWords > 0 {
		rows = append(rows, [2]string{"num_words", strconv.Itoa(opts.NumWords)})
	}
	if opts.OOVToken != "" {
		rows = append(rows, [2]string{"oov_token", opts.OOVToken})
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, labelStyle.Render(row[0])+row[1]); err != nil {
			return err
		}
	}
	return nil
}
