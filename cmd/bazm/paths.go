package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultModelFile       = "poetry_generator.safetensors"
	defaultLegacyModelFile = "poetry_generator.json"
	defaultVocabFile       = "tokenizer.json"
)

// resolveModelPath returns the model path to load. An explicit value wins;
// otherwise the fixed default filename is used, or its legacy JSON sibling
// when only that one exists in dir.
func resolveModelPath(explicit, dir string) string {
	explicit = strings.TrimSpace(explicit)
	if explicit != "" {
		return filepath.Clean(explicit)
	}
	primary := filepath.Join(dir, defaultModelFile)
	if _, err := os.Stat(primary); errors.Is(err, os.ErrNotExist) {
		legacy := filepath.Join(dir, defaultLegacyModelFile)
		if _, err := os.Stat(legacy); err == nil {
			return legacy
		}
	}
	return primary
}

func resolveVocabPath(explicit, dir string) string {
	explicit = strings.TrimSpace(explicit)
	if explicit != "" {
		return filepath.Clean(explicit)
	}
	return filepath.Join(dir, defaultVocabFile)
}

// stdoutIsTTY is a small seam for tests.
var stdoutIsTTY = func() bool { return isTerminal(os.Stdout) }
