package generator

import (
	"errors"
	"fmt"
	"html"
	"math"
	"strings"
)

var (
	// ErrInvalidInput marks requests that are rejected before generation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrModelQuery marks a failed or malformed model prediction.
	ErrModelQuery = errors.New("model query failed")
	// ErrLookup marks a sampled token that the vocabulary cannot decode.
	ErrLookup = errors.New("token lookup failed")
)

// LineBreak separates lines when a result is rendered as markup.
const LineBreak = "<br>"

// Request describes one poem.
type Request struct {
	SeedText     string  `json:"seed_text"`
	NumLines     int     `json:"num_lines"`
	WordsPerLine int     `json:"words_per_line"`
	Temperature  float64 `json:"temperature"`
}

// Validate checks the invariants every request must satisfy.
func (r Request) Validate() error {
	if strings.TrimSpace(r.SeedText) == "" {
		return invalidf("seed text is required")
	}
	if r.NumLines < 1 {
		return invalidf("num_lines must be at least 1, got %d", r.NumLines)
	}
	if r.WordsPerLine < 1 {
		return invalidf("words_per_line must be at least 1, got %d", r.WordsPerLine)
	}
	return checkTemperature(r.Temperature)
}

// Limits bound the parameters accepted from users.
type Limits struct {
	MaxLines        int     `yaml:"max_lines" json:"max_lines"`
	MaxWordsPerLine int     `yaml:"max_words_per_line" json:"max_words_per_line"`
	MinTemperature  float64 `yaml:"min_temperature" json:"min_temperature"`
	MaxTemperature  float64 `yaml:"max_temperature" json:"max_temperature"`
}

// DefaultLimits match the ranges offered by the web form.
func DefaultLimits() Limits {
	return Limits{
		MaxLines:        10,
		MaxWordsPerLine: 10,
		MinTemperature:  0.1,
		MaxTemperature:  2.0,
	}
}

// Check validates r and then applies the bounds. Zero bounds are ignored.
func (l Limits) Check(r Request) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if l.MaxLines > 0 && r.NumLines > l.MaxLines {
		return invalidf("num_lines must be between 1 and %d, got %d", l.MaxLines, r.NumLines)
	}
	if l.MaxWordsPerLine > 0 && r.WordsPerLine > l.MaxWordsPerLine {
		return invalidf("words_per_line must be between 1 and %d, got %d", l.MaxWordsPerLine, r.WordsPerLine)
	}
	if l.MinTemperature > 0 && r.Temperature < l.MinTemperature {
		return invalidf("temperature must be at least %g, got %g", l.MinTemperature, r.Temperature)
	}
	if l.MaxTemperature > 0 && r.Temperature > l.MaxTemperature {
		return invalidf("temperature must be at most %g, got %g", l.MaxTemperature, r.Temperature)
	}
	return nil
}

// Result holds the generated lines in order.
type Result struct {
	Lines []string `json:"lines"`
}

// Join joins the lines with marker.
func (r Result) Join(marker string) string {
	return strings.Join(r.Lines, marker)
}

// Text joins the lines with newlines.
func (r Result) Text() string {
	return r.Join("\n")
}

// HTML escapes every line and joins them with LineBreak.
func (r Result) HTML() string {
	escaped := make([]string, len(r.Lines))
	for i, line := range r.Lines {
		escaped[i] = html.EscapeString(line)
	}
	return strings.Join(escaped, LineBreak)
}

func checkTemperature(t float64) error {
	if !(t > 0) || math.IsInf(t, 1) {
		return invalidf("temperature must be a positive number, got %v", t)
	}
	return nil
}

type invalidInputError struct {
	msg string
}

func (e invalidInputError) Error() string {
	return e.msg
}

func (e invalidInputError) Unwrap() error {
	return ErrInvalidInput
}

func invalidf(format string, args ...any) error {
	return invalidInputError{msg: fmt.Sprintf(format, args...)}
}
