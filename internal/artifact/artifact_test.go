package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMapReadsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tokenizer.json")
	if err := os.WriteFile(path, []byte(`{"dil":1}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err := Map(path)
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	if string(m.Data) != `{"dil":1}` {
		t.Fatalf("unexpected data %q", m.Data)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if m.Data != nil {
		t.Fatal("expected data to be released on close")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestMapEmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err := Map(path)
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	defer func() { _ = m.Close() }()
	if len(m.Data) != 0 {
		t.Fatalf("expected empty data, got %d bytes", len(m.Data))
	}
}

func TestMapMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Map(filepath.Join(t.TempDir(), "missing.safetensors"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestLoadErrorUnwrap(t *testing.T) {
	t.Parallel()

	primary := errors.New("not safetensors")
	legacy := errors.New("bad json")
	err := error(&LoadError{Kind: "model", Path: "m.bin", Attempts: []error{primary, legacy}})

	if !errors.Is(err, ErrLoad) {
		t.Fatal("expected ErrLoad")
	}
	if !errors.Is(err, primary) || !errors.Is(err, legacy) {
		t.Fatal("expected both attempts to be reachable")
	}
	msg := err.Error()
	if !strings.Contains(msg, `load model "m.bin"`) || !strings.Contains(msg, "not safetensors; bad json") {
		t.Fatalf("unexpected message %q", msg)
	}
}
