package seqmodel

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/samcharles93/bazm/internal/artifact"
	"github.com/samcharles93/bazm/internal/logger"
	"github.com/samcharles93/bazm/internal/safetensors"
)

const (
	FormatSafetensors = "safetensors"
	FormatLegacyJSON  = "legacy-json"

	metaMaxSeqLength = "max_seq_length"
	metaFormat       = "format"
	formatName       = "bazm-nplm"
)

var tensorNames = []string{
	TensorEmbedding,
	TensorHiddenWeight,
	TensorHiddenBias,
	TensorOutputWeight,
	TensorOutputBias,
}

// Loader reads model weights. Safetensors is tried first; the legacy JSON
// layout is only tried when the file is not a safetensors container.
type Loader struct {
	Logger logger.Logger
}

// Load reads a model with a default Loader.
func Load(path string) (*Model, error) {
	return Loader{}.Load(path)
}

func (l Loader) Load(path string) (*Model, error) {
	log := l.Logger
	if log == nil {
		log = logger.Nop()
	}
	fail := func(attempts ...error) (*Model, error) {
		return nil, &artifact.LoadError{Kind: "model", Path: path, Attempts: attempts}
	}

	f, err := safetensors.Open(path)
	if err == nil {
		defer func() { _ = f.Close() }()
		model, err := fromSafetensors(f)
		if err != nil {
			return fail(fmt.Errorf("%s: %w", FormatSafetensors, err))
		}
		log.Debug("loaded model", "path", path, "format", FormatSafetensors, "tensors", len(f.Tensors))
		return model, nil
	}
	if !errors.Is(err, safetensors.ErrNotSafetensors) {
		var pe *fs.PathError
		if errors.As(err, &pe) {
			return fail(err)
		}
		return fail(fmt.Errorf("%s: %w", FormatSafetensors, err))
	}
	stErr := err

	log.Warn("model is not safetensors, trying legacy layout", "path", path)
	m, err := artifact.Map(path)
	if err != nil {
		return fail(err)
	}
	defer func() { _ = m.Close() }()
	model, legacyErr := parseLegacy(m.Data)
	if legacyErr != nil {
		return fail(
			fmt.Errorf("%s: %w", FormatSafetensors, stErr),
			fmt.Errorf("%s: %w", FormatLegacyJSON, legacyErr),
		)
	}
	log.Debug("loaded model", "path", path, "format", FormatLegacyJSON)
	return model, nil
}

func fromSafetensors(f *safetensors.File) (*Model, error) {
	raw, ok := f.Metadata[metaMaxSeqLength]
	if !ok {
		return nil, fmt.Errorf("metadata %q is required", metaMaxSeqLength)
	}
	maxSeq, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("metadata %q: %w", metaMaxSeqLength, err)
	}

	tensors := make(map[string]Tensor, len(tensorNames))
	for _, name := range tensorNames {
		info, ok := f.Tensor(name)
		if !ok {
			return nil, fmt.Errorf("tensor not found: %s", name)
		}
		data, _, err := f.ReadTensorF32(name)
		if err != nil {
			return nil, err
		}
		tensors[name] = Tensor{Shape: info.Shape, Data: data}
	}
	return newFromTensors(FormatSafetensors, maxSeq, tensors)
}

type legacyDocument struct {
	Format       string                  `json:"format,omitempty"`
	MaxSeqLength int                     `json:"max_seq_length"`
	Tensors      map[string]legacyTensor `json:"tensors"`
}

type legacyTensor struct {
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
}

func parseLegacy(data []byte) (*Model, error) {
	var doc legacyDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	tensors := make(map[string]Tensor, len(doc.Tensors))
	for name, t := range doc.Tensors {
		tensors[name] = Tensor(t)
	}
	return newFromTensors(FormatLegacyJSON, doc.MaxSeqLength, tensors)
}

func newFromTensors(format string, maxSeq int, tensors map[string]Tensor) (*Model, error) {
	for _, name := range tensorNames {
		if _, ok := tensors[name]; !ok {
			return nil, fmt.Errorf("tensor not found: %s", name)
		}
	}
	m, err := New(Weights{
		MaxSeqLength: maxSeq,
		Embedding:    tensors[TensorEmbedding],
		HiddenWeight: tensors[TensorHiddenWeight],
		HiddenBias:   tensors[TensorHiddenBias],
		OutputWeight: tensors[TensorOutputWeight],
		OutputBias:   tensors[TensorOutputBias],
	})
	if err != nil {
		return nil, err
	}
	m.format = format
	return m, nil
}

// WriteSafetensors encodes the model in the primary format.
func (m *Model) WriteSafetensors(w io.Writer) error {
	ws := m.named()
	tensors := make([]safetensors.Tensor, 0, len(ws))
	for _, name := range tensorNames {
		t := ws[name]
		tensors = append(tensors, safetensors.Tensor{Name: name, Shape: t.Shape, Data: t.Data})
	}
	return safetensors.Write(w, tensors, map[string]string{
		metaFormat:       formatName,
		metaMaxSeqLength: strconv.Itoa(m.maxSeq),
	})
}

// WriteLegacy encodes the model in the legacy JSON layout.
func (m *Model) WriteLegacy(w io.Writer) error {
	ws := m.named()
	doc := legacyDocument{
		Format:       formatName,
		MaxSeqLength: m.maxSeq,
		Tensors:      make(map[string]legacyTensor, len(ws)),
	}
	for name, t := range ws {
		doc.Tensors[name] = legacyTensor(t)
	}
	return json.NewEncoder(w).Encode(doc)
}

func (m *Model) named() map[string]Tensor {
	w := m.weights
	return map[string]Tensor{
		TensorEmbedding:    w.Embedding,
		TensorHiddenWeight: w.HiddenWeight,
		TensorHiddenBias:   w.HiddenBias,
		TensorOutputWeight: w.OutputWeight,
		TensorOutputBias:   w.OutputBias,
	}
}
