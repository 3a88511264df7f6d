package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	t.Parallel()
	log := Default()
	if log == nil {
		t.Fatal("Default() returned nil")
	}
	log.Debug("debug message")
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  Format
		ok    bool
	}{
		{"", FormatPretty, true},
		{"pretty", FormatPretty, true},
		{"JSON", FormatJSON, true},
		{" text ", FormatText, true},
		{"logfmt", "", false},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.input)
		if (err == nil) != tc.ok {
			t.Errorf("ParseFormat(%q): unexpected error %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected slog.Level
		ok       bool
	}{
		{"debug", slog.LevelDebug, true},
		{"DEBUG", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.input)
		if (err == nil) != tc.ok {
			t.Errorf("ParseLevel(%q): unexpected error %v", tc.input, err)
		}
		if got != tc.expected {
			t.Errorf("ParseLevel(%q): expected %v, got %v", tc.input, tc.expected, got)
		}
	}
}

func TestSetupFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, `"msg":"artifacts loaded"`},
		{FormatText, `msg="artifacts loaded"`},
		{FormatPretty, "words=4"},
		{"", "artifacts loaded"},
	}
	for _, tc := range tests {
		var buf bytes.Buffer
		log := Setup(&buf, Options{Format: tc.format, Level: slog.LevelInfo})
		log.Info("artifacts loaded", "words", 4)
		if !strings.Contains(buf.String(), tc.want) {
			t.Errorf("Setup(%q): expected %q in output, got: %s", tc.format, tc.want, buf.String())
		}
	}
}

func TestSetupLevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := Setup(&buf, Options{Format: FormatJSON, Level: slog.LevelWarn})
	log.Info("should not appear")
	log.Debug("also should not appear")
	if buf.Len() > 0 {
		t.Fatalf("expected no output for info/debug at warn level, got: %s", buf.String())
	}

	log.Warn("should appear")
	if !strings.Contains(buf.String(), `"level":"WARN"`) {
		t.Fatalf("expected warn record, got: %s", buf.String())
	}
}

func TestWithAndGroup(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := Setup(&buf, Options{Format: FormatJSON})
	log.With("component", "http").WithGroup("request").Info("served", "status", 200)

	output := buf.String()
	if !strings.Contains(output, `"component":"http"`) {
		t.Fatalf("expected component attr, got: %s", output)
	}
	if !strings.Contains(output, `"request":{"status":200}`) {
		t.Fatalf("expected grouped status, got: %s", output)
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := Setup(&buf, Options{Format: FormatText})

	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext with no logger returned nil")
	}
	FromContext(WithContext(context.Background(), log)).Info("roundtrip test")
	if !strings.Contains(buf.String(), "roundtrip test") {
		t.Fatalf("expected message via context logger, got: %s", buf.String())
	}
}

func TestNopDiscards(t *testing.T) {
	t.Parallel()
	log := Nop()
	log.Error("dropped", "key", "value")
	log.With("a", 1).WithGroup("g").Info("dropped")
}

func TestPrettyPlainWithoutColor(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	slog.New(NewPrettyHandler(&buf, nil)).Info("generated poem", "lines", 2)

	output := buf.String()
	if strings.Contains(output, "\033[") {
		t.Fatalf("expected no ANSI codes, got: %q", output)
	}
	if !strings.Contains(output, "INF generated poem lines=2") {
		t.Fatalf("unexpected output %q", output)
	}
}

func TestPrettyColor(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	slog.New(NewPrettyHandler(&buf, &PrettyOptions{Color: true})).Error("load failed")

	if !strings.Contains(buf.String(), colorRed) || !strings.Contains(buf.String(), colorReset) {
		t.Fatalf("expected colored level, got: %q", buf.String())
	}
}

func TestPrettyTruncatesLongValues(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &PrettyOptions{MaxValueLen: 7})
	slog.New(h).Info("generation failed", "seed_text", "dil ki baat hai")

	if !strings.Contains(buf.String(), `seed_text="dil ki ..."`) {
		t.Fatalf("expected truncated seed, got: %s", buf.String())
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"ishq", 0, "ishq"},
		{"ishq", 4, "ishq"},
		{"ishq", 2, "is..."},
		{"دل کی بات", 2, "دل..."},
	}
	for _, tc := range tests {
		if got := truncate(tc.in, tc.n); got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
	}
}

func TestPrettyHandlerEnabled(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	opts := &PrettyOptions{HandlerOptions: slog.HandlerOptions{Level: slog.LevelWarn}}
	h := NewPrettyHandler(&buf, opts)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info to be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("expected warn to be enabled at warn level")
	}
}

func TestPrettyHandlerGroups(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler func(h *PrettyHandler) slog.Handler
		want    string
	}{
		{"attrs", func(h *PrettyHandler) slog.Handler {
			return h.WithAttrs([]slog.Attr{slog.String("service", "bazm")})
		}, "service=bazm"},
		{"group", func(h *PrettyHandler) slog.Handler {
			return h.WithGroup("http")
		}, "http.key=val"},
		{"nested", func(h *PrettyHandler) slog.Handler {
			return h.WithGroup("a").WithGroup("b")
		}, "a.b.key=val"},
		{"attrs after group", func(h *PrettyHandler) slog.Handler {
			return h.WithGroup("http").WithAttrs([]slog.Attr{slog.String("route", "/v1/poems")})
		}, "http.route=/v1/poems"},
	}
	for _, tc := range tests {
		var buf bytes.Buffer
		slog.New(tc.handler(NewPrettyHandler(&buf, nil))).Info("msg", "key", "val")
		if !strings.Contains(buf.String(), tc.want) {
			t.Errorf("%s: expected %q in output, got: %s", tc.name, tc.want, buf.String())
		}
	}
}

func TestPrettyHandlerEmptyGroup(t *testing.T) {
	t.Parallel()
	h := NewPrettyHandler(&bytes.Buffer{}, nil)
	if h.WithGroup("") != h {
		t.Fatal("WithGroup empty string should return same handler")
	}
}

func TestNeedsQuoting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bool
	}{
		{"simple", false},
		{"dil ki baat", true},
		{"has\ttab", true},
		{`has"quote`, true},
		{"", false},
		{"k=v", true},
		{"bell\a", true},
	}
	for _, tc := range tests {
		if got := needsQuoting(tc.input); got != tc.expected {
			t.Errorf("needsQuoting(%q): expected %v, got %v", tc.input, tc.expected, got)
		}
	}
}
