package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/bazm/internal/generator"
)

const (
	formatText = "text"
	formatHTML = "html"
	formatJSON = "json"
)

func generateCmd() *cli.Command {
	var (
		seedText    string
		lines       int64
		words       int64
		temperature float64
		interactive bool
		format      string
	)

	return withSetup(&cli.Command{
		Name:      "generate",
		Aliases:   []string{"gen"},
		Usage:     "Generate a poem from a seed phrase",
		ArgsUsage: "[seed text]",
		Flags: append(commonModelFlags(),
			&cli.StringFlag{
				Name:        "text",
				Aliases:     []string{"t"},
				Usage:       "seed text (default: positional arguments)",
				Destination: &seedText,
			},
			&cli.Int64Flag{
				Name:        "lines",
				Aliases:     []string{"n"},
				Usage:       "number of lines",
				Value:       1,
				Destination: &lines,
			},
			&cli.Int64Flag{
				Name:        "words",
				Aliases:     []string{"w"},
				Usage:       "words generated per line",
				Value:       5,
				Destination: &words,
			},
			&cli.FloatFlag{
				Name:        "temperature",
				Aliases:     []string{"temp"},
				Usage:       "sampling temperature",
				Value:       0.8,
				Destination: &temperature,
			},
			&cli.BoolFlag{
				Name:        "interactive",
				Aliases:     []string{"i"},
				Usage:       "prompt for the parameters in a form",
				Destination: &interactive,
			},
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "output format (text, html, json)",
				Value:       formatText,
				Destination: &format,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyGenerateConfig(cmd, cfg, &lines, &words, &temperature)
			switch format {
			case formatText, formatHTML, formatJSON:
			default:
				return usageError("unknown --format %q (want text, html or json)", format)
			}

			req := generator.Request{
				SeedText:     seedText,
				NumLines:     int(lines),
				WordsPerLine: int(words),
				Temperature:  temperature,
			}
			if req.SeedText == "" {
				req.SeedText = strings.Join(cmd.Args().Slice(), " ")
			}
			limits := cfg.limits()
			if interactive {
				var err error
				if req, err = promptRequest(req, limits); err != nil {
					return err
				}
			}
			if err := limits.Check(req); err != nil {
				return usageError("%v", err)
			}

			arts, err := loadArtifacts(ctx)
			if err != nil {
				return err
			}
			gen, err := arts.newGenerator(ctx)
			if err != nil {
				return err
			}
			res, err := gen.Generate(ctx, req)
			if err != nil {
				return err
			}
			return renderPoem(os.Stdout, format, req, res, stdoutIsTTY())
		},
	})
}

// promptRequest opens a form pre-filled with req.
func promptRequest(req generator.Request, limits generator.Limits) (generator.Request, error) {
	seedText := req.SeedText
	numLines := strconv.Itoa(req.NumLines)
	wordsPerLine := strconv.Itoa(req.WordsPerLine)
	temp := strconv.FormatFloat(req.Temperature, 'f', -1, 64)

	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Seed text").
			Placeholder("E.g. dil ki baat...").
			Value(&seedText).
			Validate(validateSeed),
		huh.NewInput().
			Title(fmt.Sprintf("Number of lines (1-%d)", limits.MaxLines)).
			Value(&numLines).
			Validate(validateIntRange(1, limits.MaxLines)),
		huh.NewInput().
			Title(fmt.Sprintf("Words per line (1-%d)", limits.MaxWordsPerLine)).
			Value(&wordsPerLine).
			Validate(validateIntRange(1, limits.MaxWordsPerLine)),
		huh.NewInput().
			Title(fmt.Sprintf("Creativity / temperature (%g-%g)", limits.MinTemperature, limits.MaxTemperature)).
			Value(&temp).
			Validate(validateFloatRange(limits.MinTemperature, limits.MaxTemperature)),
	)).Run()
	if err != nil {
		return req, err
	}

	req.SeedText = strings.TrimSpace(seedText)
	req.NumLines, _ = strconv.Atoi(strings.TrimSpace(numLines))
	req.WordsPerLine, _ = strconv.Atoi(strings.TrimSpace(wordsPerLine))
	req.Temperature, _ = strconv.ParseFloat(strings.TrimSpace(temp), 64)
	return req, nil
}

func validateSeed(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("seed text is required")
	}
	return nil
}

func validateIntRange(lo, hi int) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("must be a whole number")
		}
		if n < lo || (hi > 0 && n > hi) {
			return fmt.Errorf("must be between %d and %d", lo, hi)
		}
		return nil
	}
}

func validateFloatRange(lo, hi float64) func(string) error {
	return func(s string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("must be a number")
		}
		if f <= 0 || f < lo || (hi > 0 && f > hi) {
			return fmt.Errorf("must be between %g and %g", lo, hi)
		}
		return nil
	}
}

type poemOutput struct {
	SeedText     string   `json:"seed_text"`
	NumLines     int      `json:"num_lines"`
	WordsPerLine int      `json:"words_per_line"`
	Temperature  float64  `json:"temperature"`
	Lines        []string `json:"lines"`
}

func renderPoem(w io.Writer, format string, req generator.Request, res generator.Result, styled bool) error {
	switch format {
	case formatHTML:
		_, err := fmt.Fprintln(w, res.HTML())
		return err
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(poemOutput{
			SeedText:     req.SeedText,
			NumLines:     req.NumLines,
			WordsPerLine: req.WordsPerLine,
			Temperature:  req.Temperature,
			Lines:        res.Lines,
		})
	}

	if !styled {
		_, err := fmt.Fprintln(w, res.Text())
		return err
	}
	verses := make([]string, len(res.Lines))
	for i, line := range res.Lines {
		verses[i] = verseStyle.Render(line)
	}
	header := titleStyle.Render("Bazm-e-Shayari") + " " +
		seedStyle.Render(fmt.Sprintf("(seed %q, temperature %g)", req.SeedText, req.Temperature))
	_, err := fmt.Fprintln(w, header+"\n"+poemBlockStyle.Render(strings.Join(verses, "\n")))
	return err
}
