// Package seqmodel implements the fixed-window neural language model that
// predicts the next token of a verse.
package seqmodel

import (
	"context"
	"fmt"
	"math"

	"github.com/samcharles93/bazm/internal/tensor"
)

// Tensor names used by both weight formats.
const (
	TensorEmbedding    = "embedding.weight"
	TensorHiddenWeight = "hidden.weight"
	TensorHiddenBias   = "hidden.bias"
	TensorOutputWeight = "output.weight"
	TensorOutputBias   = "output.bias"
)

// minProb floors predicted probabilities so that a float underflow in the
// softmax never produces a zero the sampler would reject.
const minProb = 1e-30

// Tensor is a dense row-major float32 tensor.
type Tensor struct {
	Shape []int
	Data  []float32
}

// Weights holds the parameters of a Model.
//
// The model consumes MaxSeqLength-1 tokens. Shapes are:
//
//	embedding.weight [V, E]
//	hidden.weight    [(MaxSeqLength-1)*E, H]
//	hidden.bias      [H]
//	output.weight    [H, V]
//	output.bias      [V]
type Weights struct {
	MaxSeqLength int
	Embedding    Tensor
	HiddenWeight Tensor
	HiddenBias   Tensor
	OutputWeight Tensor
	OutputBias   Tensor
}

// Info describes a loaded model.
type Info struct {
	Format       string `json:"format"`
	MaxSeqLength int    `json:"max_seq_length"`
	VocabSize    int    `json:"vocab_size"`
	EmbedDim     int    `json:"embed_dim"`
	HiddenDim    int    `json:"hidden_dim"`
}

// Model is immutable after construction and safe for concurrent Predict
// calls.
type Model struct {
	format  string
	maxSeq  int
	window  int
	vocab   int
	embed   int
	hidden  int
	weights Weights

	// Transposed projections, one row per output unit.
	hiddenT tensor.Mat // [H, window*E]
	outputT tensor.Mat // [V, H]
}

// New validates weights and returns a model.
func New(w Weights) (*Model, error) {
	if w.MaxSeqLength < 2 {
		return nil, fmt.Errorf("max_seq_length must be at least 2, got %d", w.MaxSeqLength)
	}
	window := w.MaxSeqLength - 1
	if err := checkRank(TensorEmbedding, w.Embedding, 2); err != nil {
		return nil, err
	}
	vocab, embed := w.Embedding.Shape[0], w.Embedding.Shape[1]
	if err := checkRank(TensorHiddenWeight, w.HiddenWeight, 2); err != nil {
		return nil, err
	}
	if w.HiddenWeight.Shape[0] != window*embed {
		return nil, fmt.Errorf("%s: expected %d input rows for a %d token window, got %d",
			TensorHiddenWeight, window*embed, window, w.HiddenWeight.Shape[0])
	}
	hidden := w.HiddenWeight.Shape[1]
	checks := []struct {
		name  string
		t     Tensor
		shape []int
	}{
		{TensorHiddenBias, w.HiddenBias, []int{hidden}},
		{TensorOutputWeight, w.OutputWeight, []int{hidden, vocab}},
		{TensorOutputBias, w.OutputBias, []int{vocab}},
	}
	for _, c := range checks {
		if err := checkShape(c.name, c.t, c.shape); err != nil {
			return nil, err
		}
	}
	hw, err := tensor.NewMatFromData(window*embed, hidden, w.HiddenWeight.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", TensorHiddenWeight, err)
	}
	ow, err := tensor.NewMatFromData(hidden, vocab, w.OutputWeight.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", TensorOutputWeight, err)
	}
	return &Model{
		hiddenT: hw.T(),
		outputT: ow.T(),
		maxSeq:  w.MaxSeqLength,
		window:  window,
		vocab:   vocab,
		embed:   embed,
		hidden:  hidden,
		weights: w,
	}, nil
}

// MaxSeqLength is the sequence length the model was trained with. Inputs
// to Predict hold MaxSeqLength-1 tokens.
func (m *Model) MaxSeqLength() int { return m.maxSeq }

// VocabSize is the length of the vectors Predict returns.
func (m *Model) VocabSize() int { return m.vocab }

func (m *Model) Info() Info {
	return Info{
		Format:       m.format,
		MaxSeqLength: m.maxSeq,
		VocabSize:    m.vocab,
		EmbedDim:     m.embed,
		HiddenDim:    m.hidden,
	}
}

// Weights returns the model parameters. Callers must not modify them.
func (m *Model) Weights() Weights { return m.weights }

// Predict returns the probability of every vocabulary id following seq.
// seq must be pre-padded to MaxSeqLength-1 tokens.
func (m *Model) Predict(ctx context.Context, seq []int) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(seq) != m.window {
		return nil, fmt.Errorf("expected %d input tokens, got %d", m.window, len(seq))
	}
	for i, tok := range seq {
		if tok < 0 || tok >= m.vocab {
			return nil, fmt.Errorf("token %d at position %d outside vocabulary of %d", tok, i, m.vocab)
		}
	}

	w := &m.weights

	// h = tanh(concat(emb[seq]) * Wh + bh)
	x := make([]float32, m.window*m.embed)
	for pos, tok := range seq {
		copy(x[pos*m.embed:], w.Embedding.Data[tok*m.embed:(tok+1)*m.embed])
	}
	h := make([]float32, m.hidden)
	tensor.Affine(h, &m.hiddenT, x, w.HiddenBias.Data)
	tensor.Tanh(h)

	// logits = h * Wo + bo
	out := make([]float32, m.vocab)
	tensor.Affine(out, &m.outputT, h, w.OutputBias.Data)
	logits := tensor.Widen(out)
	return softmax(logits), nil
}

func softmax(x []float64) []float64 {
	maxv := math.Inf(-1)
	for _, v := range x {
		maxv = max(maxv, v)
	}
	var sum float64
	for i, v := range x {
		e := math.Exp(v - maxv)
		x[i] = e
		sum += e
	}
	for i := range x {
		x[i] = max(x[i]/sum, minProb)
	}
	return x
}

func checkRank(name string, t Tensor, rank int) error {
	if len(t.Shape) != rank {
		return fmt.Errorf("%s: expected rank %d, got shape %v", name, rank, t.Shape)
	}
	n := 1
	for _, d := range t.Shape {
		if d <= 0 {
			return fmt.Errorf("%s: invalid shape %v", name, t.Shape)
		}
		n *= d
	}
	if n != len(t.Data) {
		return fmt.Errorf("%s: shape %v needs %d values, got %d", name, t.Shape, n, len(t.Data))
	}
	return nil
}

func checkShape(name string, t Tensor, want []int) error {
	if err := checkRank(name, t, len(want)); err != nil {
		return err
	}
	for i := range want {
		if t.Shape[i] != want[i] {
			return fmt.Errorf("%s: expected shape %v, got %v", name, want, t.Shape)
		}
	}
	return nil
}
