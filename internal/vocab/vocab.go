// Package vocab maps words to token ids the way a fitted Keras Tokenizer
// does, and back.
package vocab

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultFilters are the characters stripped from text before splitting.
const DefaultFilters = "!\"#$%&()*+,-./:;<=>?@[\\]^_`{|}~\t\n"

// Options mirror the text processing settings of a fitted tokenizer.
type Options struct {
	Filters   string
	Lower     bool
	Split     string
	CharLevel bool
	// NumWords keeps only ids below NumWords when positive.
	NumWords int
	// OOVToken replaces unknown words when set and present in the index.
	OOVToken string
}

// DefaultOptions returns the Keras Tokenizer defaults.
func DefaultOptions() Options {
	return Options{
		Filters: DefaultFilters,
		Lower:   true,
		Split:   " ",
	}
}

// Vocabulary is an immutable bidirectional word/id mapping. It is safe for
// concurrent use.
type Vocabulary struct {
	opts      Options
	filters   map[rune]struct{}
	wordIndex map[string]int
	indexWord map[int]string
	oovIndex  int
}

var errEmptyIndex = errors.New("word index is empty")

// New builds a vocabulary from a word index. indexWord may be nil, in which
// case it is derived from wordIndex. Id 0 is reserved for padding.
func New(wordIndex map[string]int, indexWord map[int]string, opts Options) (*Vocabulary, error) {
	if len(wordIndex) == 0 {
		return nil, errEmptyIndex
	}
	if opts.Split == "" {
		opts.Split = " "
	}
	wi := make(map[string]int, len(wordIndex))
	for w, id := range wordIndex {
		if id <= 0 {
			return nil, fmt.Errorf("word %q has reserved id %d", w, id)
		}
		wi[w] = id
	}
	iw := make(map[int]string, len(wi))
	if len(indexWord) > 0 {
		for id, w := range indexWord {
			iw[id] = w
		}
	} else {
		for w, id := range wi {
			if prev, dup := iw[id]; dup {
				return nil, fmt.Errorf("id %d assigned to both %q and %q", id, prev, w)
			}
			iw[id] = w
		}
	}

	v := &Vocabulary{
		opts:      opts,
		filters:   make(map[rune]struct{}, utf8.RuneCountInString(opts.Filters)),
		wordIndex: wi,
		indexWord: iw,
	}
	for _, r := range opts.Filters {
		v.filters[r] = struct{}{}
	}
	if opts.OOVToken != "" {
		v.oovIndex = wi[opts.OOVToken]
	}
	return v, nil
}

// Size returns the number of ids the model output space needs: the largest
// id plus one for padding. A positive NumWords caps it, since
// TextToSequence never emits an id at or above NumWords.
func (v *Vocabulary) Size() int {
	maxID := 0
	for id := range v.indexWord {
		maxID = max(maxID, id)
	}
	if v.opts.NumWords > 0 {
		return min(maxID+1, v.opts.NumWords)
	}
	return maxID + 1
}

// Len returns the number of known words.
func (v *Vocabulary) Len() int {
	return len(v.wordIndex)
}

// Options returns the text processing settings.
func (v *Vocabulary) Options() Options {
	return v.opts
}

// IndexWord returns the word for a token id.
func (v *Vocabulary) IndexWord(id int) (string, bool) {
	w, ok := v.indexWord[id]
	return w, ok
}

// WordIndex returns the id of a word.
func (v *Vocabulary) WordIndex(word string) (int, bool) {
	id, ok := v.wordIndex[word]
	return id, ok
}

// TextToSequence tokenizes text into ids. Unknown words are dropped unless
// an OOV token is configured.
func (v *Vocabulary) TextToSequence(text string) []int {
	words := v.words(text)
	seq := make([]int, 0, len(words))
	for _, w := range words {
		id, ok := v.wordIndex[w]
		switch {
		case ok && v.opts.NumWords > 0 && id >= v.opts.NumWords:
			if v.oovIndex != 0 {
				seq = append(seq, v.oovIndex)
			}
		case ok:
			seq = append(seq, id)
		case v.oovIndex != 0:
			seq = append(seq, v.oovIndex)
		}
	}
	return seq
}

func (v *Vocabulary) words(text string) []string {
	if v.opts.Lower {
		text = strings.ToLower(text)
	}
	if v.opts.CharLevel {
		out := make([]string, 0, len(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	if len(v.filters) > 0 {
		text = v.replaceFilters(text)
	}
	parts := strings.Split(text, v.opts.Split)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// replaceFilters maps every filter character to the split string.
func (v *Vocabulary) replaceFilters(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if _, ok := v.filters[r]; ok {
			b.WriteString(v.opts.Split)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
