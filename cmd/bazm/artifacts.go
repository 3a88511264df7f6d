package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samcharles93/bazm/internal/api"
	"github.com/samcharles93/bazm/internal/artifact"
	"github.com/samcharles93/bazm/internal/generator"
	"github.com/samcharles93/bazm/internal/logger"
	"github.com/samcharles93/bazm/internal/logits"
	"github.com/samcharles93/bazm/internal/seqmodel"
	"github.com/samcharles93/bazm/internal/vocab"
)

type artifacts struct {
	modelPath string
	vocabPath string
	model     *seqmodel.Model
	vocab     *vocab.Vocabulary
}

// loadArtifacts loads the model and vocabulary once at startup. Load
// failures are logged with every attempted format before returning.
func loadArtifacts(ctx context.Context) (*artifacts, error) {
	log := logger.FromContext(ctx)
	a := &artifacts{
		modelPath: resolveModelPath(modelPath, "."),
		vocabPath: resolveVocabPath(vocabPath, "."),
	}

	start := time.Now()
	var err error
	a.model, err = seqmodel.Loader{Logger: log}.Load(a.modelPath)
	if err != nil {
		logLoadError(log, err)
		return nil, err
	}
	a.vocab, err = vocab.Load(a.vocabPath)
	if err != nil {
		logLoadError(log, err)
		return nil, err
	}
	if a.vocab.Size() > a.model.VocabSize() {
		return nil, fmt.Errorf("vocabulary %s uses ids up to %d but model %s embeds only %d",
			a.vocabPath, a.vocab.Size()-1, a.modelPath, a.model.VocabSize())
	}

	info := a.model.Info()
	log.Info("artifacts loaded",
		"model", a.modelPath,
		"format", info.Format,
		"max_seq_length", info.MaxSeqLength,
		"vocab_size", info.VocabSize,
		"vocab", a.vocabPath,
		"words", a.vocab.Len(),
		"duration", time.Since(start),
	)
	return a, nil
}

func (a *artifacts) newGenerator(ctx context.Context) (*generator.Generator, error) {
	sampler := logits.NewSampler(logits.SamplerConfig{Seed: seed})
	return generator.New(a.model, a.vocab, sampler, generator.WithLogger(logger.FromContext(ctx)))
}

func (a *artifacts) info() api.ModelInfo {
	return api.ModelInfo{
		Info:      a.model.Info(),
		Words:     a.vocab.Len(),
		ModelPath: a.modelPath,
		VocabPath: a.vocabPath,
	}
}

func logLoadError(log logger.Logger, err error) {
	var lerr *artifact.LoadError
	if !errors.As(err, &lerr) {
		log.Error("load failed", "error", err)
		return
	}
	for i, attempt := range lerr.Attempts {
		log.Error("load attempt failed", "kind", lerr.Kind, "path", lerr.Path, "attempt", i+1, "error", attempt)
	}
}
