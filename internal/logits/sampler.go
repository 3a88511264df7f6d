package logits

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

// ErrInvalidInput is returned when a probability vector or temperature
// cannot be sampled from.
var ErrInvalidInput = errors.New("invalid sampler input")

// SamplerConfig configures the behaviour of a Sampler.
type SamplerConfig struct {
	// Seed seeds the random source. A negative seed seeds from the clock.
	Seed int64
}

// Sampler draws token indices from probability vectors. It is safe for
// concurrent use; draws are serialised on the underlying source.
type Sampler struct {
	mu   sync.Mutex
	rng  *rand.Rand
	prob []float64
}

// NewSampler returns a new sampler with the provided configuration.
func NewSampler(cfg SamplerConfig) *Sampler {
	seed := cfg.Seed
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	return NewSamplerFromSource(rand.NewSource(seed))
}

// NewSamplerFromSource returns a sampler drawing from src.
func NewSamplerFromSource(src rand.Source) *Sampler {
	return &Sampler{rng: rand.New(src)}
}

// Sample draws a single index from preds after reshaping it by temperature.
// The sample process involves the following steps:
//
//  1. Every entry is mapped to ln(p) / temperature.
//  2. A softmax over the scaled values is computed, subtracting the maximum
//     for numerical stability.
//  3. A random value is drawn from [0,1) and used to select an index from the
//     cumulative distribution.
//
// Temperatures below 1 sharpen the distribution towards its argmax, values
// above 1 flatten it.
func (s *Sampler) Sample(preds []float64, temperature float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cap(s.prob) < len(preds) {
		s.prob = make([]float64, len(preds))
	}
	prob := s.prob[:len(preds)]
	if err := distribution(prob, preds, temperature); err != nil {
		return 0, err
	}

	r := s.rng.Float64()
	var c float64
	last := 0
	for i, p := range prob {
		if p == 0 {
			continue
		}
		c += p
		last = i
		if r < c {
			return i, nil
		}
	}
	// Rounding can leave the cumulative sum just below r.
	return last, nil
}

// Distribution returns the normalised distribution Sample draws from.
func Distribution(preds []float64, temperature float64) ([]float64, error) {
	out := make([]float64, len(preds))
	if err := distribution(out, preds, temperature); err != nil {
		return nil, err
	}
	return out, nil
}

func distribution(dst, preds []float64, temperature float64) error {
	if len(preds) == 0 {
		return fmt.Errorf("%w: empty probability vector", ErrInvalidInput)
	}
	if !(temperature > 0) || math.IsInf(temperature, 1) {
		return fmt.Errorf("%w: temperature must be positive, got %v", ErrInvalidInput, temperature)
	}

	maxv := math.Inf(-1)
	for i, p := range preds {
		if !(p > 0) || math.IsInf(p, 1) {
			return fmt.Errorf("%w: probability %d is %v", ErrInvalidInput, i, p)
		}
		v := math.Log(p) / temperature
		dst[i] = v
		if v > maxv {
			maxv = v
		}
	}

	var sum float64
	for i, v := range dst {
		e := math.Exp(v - maxv)
		dst[i] = e
		sum += e
	}
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		uniform := 1 / float64(len(dst))
		for i := range dst {
			dst[i] = uniform
		}
		return nil
	}
	invSum := 1 / sum
	for i := range dst {
		dst[i] *= invSum
	}
	return nil
}
