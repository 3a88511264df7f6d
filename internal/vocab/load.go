package vocab

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/samcharles93/bazm/internal/artifact"
)

var errNotKeras = errors.New("not a keras tokenizer document")

// kerasDocument is the layout written by Keras Tokenizer.to_json().
type kerasDocument struct {
	ClassName string       `json:"class_name"`
	Config    *kerasConfig `json:"config"`
}

type kerasConfig struct {
	NumWords  *int            `json:"num_words"`
	Filters   *string         `json:"filters"`
	Lower     *bool           `json:"lower"`
	Split     *string         `json:"split"`
	CharLevel bool            `json:"char_level"`
	OOVToken  *string         `json:"oov_token"`
	WordIndex json.RawMessage `json:"word_index"`
	IndexWord json.RawMessage `json:"index_word"`
}

// Load reads a vocabulary file. Keras Tokenizer JSON is tried first, then a
// plain {"word": id} object.
func Load(path string) (*Vocabulary, error) {
	m, err := artifact.Map(path)
	if err != nil {
		return nil, &artifact.LoadError{Kind: "vocabulary", Path: path, Attempts: []error{err}}
	}
	defer func() { _ = m.Close() }()

	v, err := Parse(m.Data)
	if err != nil {
		var le *artifact.LoadError
		if errors.As(err, &le) {
			le.Path = path
			return nil, le
		}
		return nil, &artifact.LoadError{Kind: "vocabulary", Path: path, Attempts: []error{err}}
	}
	return v, nil
}

// Parse decodes a vocabulary document held in memory.
func Parse(data []byte) (*Vocabulary, error) {
	v, kerasErr := parseKeras(data)
	if kerasErr == nil {
		return v, nil
	}
	if !errors.Is(kerasErr, errNotKeras) {
		return nil, &artifact.LoadError{Kind: "vocabulary", Attempts: []error{fmt.Errorf("keras tokenizer: %w", kerasErr)}}
	}
	v, plainErr := parsePlain(data)
	if plainErr != nil {
		return nil, &artifact.LoadError{Kind: "vocabulary", Attempts: []error{
			fmt.Errorf("keras tokenizer: %w", kerasErr),
			fmt.Errorf("word index: %w", plainErr),
		}}
	}
	return v, nil
}

func parseKeras(data []byte) (*Vocabulary, error) {
	var doc kerasDocument
	if err := json.Unmarshal(data, &doc); err != nil || doc.Config == nil {
		return nil, errNotKeras
	}
	if doc.ClassName != "" && doc.ClassName != "Tokenizer" {
		return nil, fmt.Errorf("unexpected class_name %q", doc.ClassName)
	}
	cfg := doc.Config

	var wordIndex map[string]int
	if err := decodeEmbedded(cfg.WordIndex, &wordIndex); err != nil {
		return nil, fmt.Errorf("word_index: %w", err)
	}
	var rawIndexWord map[string]string
	if len(cfg.IndexWord) > 0 {
		if err := decodeEmbedded(cfg.IndexWord, &rawIndexWord); err != nil {
			return nil, fmt.Errorf("index_word: %w", err)
		}
	}
	indexWord := make(map[int]string, len(rawIndexWord))
	for k, w := range rawIndexWord {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("index_word key %q: %w", k, err)
		}
		indexWord[id] = w
	}

	opts := DefaultOptions()
	if cfg.Filters != nil {
		opts.Filters = *cfg.Filters
	}
	if cfg.Lower != nil {
		opts.Lower = *cfg.Lower
	}
	if cfg.Split != nil {
		opts.Split = *cfg.Split
	}
	if cfg.NumWords != nil {
		opts.NumWords = *cfg.NumWords
	}
	if cfg.OOVToken != nil {
		opts.OOVToken = *cfg.OOVToken
	}
	opts.CharLevel = cfg.CharLevel
	return New(wordIndex, indexWord, opts)
}

func parsePlain(data []byte) (*Vocabulary, error) {
	var wordIndex map[string]int
	if err := json.Unmarshal(data, &wordIndex); err != nil {
		return nil, err
	}
	return New(wordIndex, nil, DefaultOptions())
}

// decodeEmbedded decodes either a JSON object or a string holding a JSON
// object; Keras serialises its indexes as strings.
func decodeEmbedded(raw json.RawMessage, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return errEmptyIndex
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = []byte(s)
	}
	return json.Unmarshal(raw, dst)
}
