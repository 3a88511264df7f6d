// Package generator turns a seed phrase into verses by repeatedly querying a
// sequence model and sampling the next word.
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samcharles93/bazm/internal/logger"
)

// SequenceModel predicts a distribution over the next token.
type SequenceModel interface {
	// MaxSeqLength is the model's sequence length; Predict takes
	// MaxSeqLength-1 tokens.
	MaxSeqLength() int
	Predict(ctx context.Context, seq []int) ([]float64, error)
}

// Vocabulary converts between text and token ids.
type Vocabulary interface {
	TextToSequence(text string) []int
	IndexWord(id int) (string, bool)
}

// Sampler picks a token from a probability vector.
type Sampler interface {
	Sample(preds []float64, temperature float64) (int, error)
}

// Generator is safe for concurrent use when its collaborators are.
type Generator struct {
	model   SequenceModel
	vocab   Vocabulary
	sampler Sampler
	log     logger.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger used for per-line debug output.
func WithLogger(log logger.Logger) Option {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// New returns a Generator over the given collaborators.
func New(model SequenceModel, vocab Vocabulary, sampler Sampler, opts ...Option) (*Generator, error) {
	if model == nil || vocab == nil || sampler == nil {
		return nil, errors.New("generator: model, vocabulary and sampler are required")
	}
	if n := model.MaxSeqLength(); n < 2 {
		return nil, fmt.Errorf("generator: model max sequence length must be at least 2, got %d", n)
	}
	g := &Generator{
		model:   model,
		vocab:   vocab,
		sampler: sampler,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate produces req.NumLines lines, each started afresh from
// req.SeedText. The first failure aborts the whole request.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	start := time.Now()
	lines := make([]string, 0, req.NumLines)
	for i := 0; i < req.NumLines; i++ {
		line, err := g.GenerateLine(ctx, req.SeedText, req.WordsPerLine, req.Temperature)
		if err != nil {
			return Result{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		lines = append(lines, line)
	}
	g.log.Debug("generated poem",
		"lines", req.NumLines,
		"words_per_line", req.WordsPerLine,
		"temperature", req.Temperature,
		"duration", time.Since(start),
	)
	return Result{Lines: lines}, nil
}

// GenerateLine appends wordCount sampled words to seed. Each word costs one
// model query over the whole line so far.
func (g *Generator) GenerateLine(ctx context.Context, seed string, wordCount int, temperature float64) (string, error) {
	if wordCount < 1 {
		return "", invalidf("word count must be at least 1, got %d", wordCount)
	}
	if err := checkTemperature(temperature); err != nil {
		return "", err
	}

	window := g.model.MaxSeqLength() - 1
	line := seed
	for i := 0; i < wordCount; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		seq := PadSequence(g.vocab.TextToSequence(line), window)
		preds, err := g.model.Predict(ctx, seq)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrModelQuery, err)
		}
		tok, err := g.sampler.Sample(preds, temperature)
		if err != nil {
			return "", fmt.Errorf("%w: malformed prediction: %w", ErrModelQuery, err)
		}
		word, ok := g.vocab.IndexWord(tok)
		if !ok {
			return "", fmt.Errorf("%w: token %d has no word in the vocabulary", ErrLookup, tok)
		}
		if line == "" {
			line = word
		} else {
			line += " " + word
		}
	}
	return line, nil
}

// PadSequence left-pads seq with zeros, or drops its oldest tokens, so that
// exactly n tokens remain.
func PadSequence(seq []int, n int) []int {
	out := make([]int, n)
	if len(seq) >= n {
		copy(out, seq[len(seq)-n:])
		return out
	}
	copy(out[n-len(seq):], seq)
	return out
}
