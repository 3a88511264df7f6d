package webui

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func testPage() Page {
	return Page{
		SeedText:     "dil ki baat",
		NumLines:     1,
		WordsPerLine: 5,
		Temperature:  0.8,
		Bounds:       Bounds{MaxLines: 10, MaxWordsPerLine: 10, MinTemperature: 0.1, MaxTemperature: 2},
	}
}

func TestRenderForm(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Render(&buf, testPage()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`name="seed_text"`,
		`value="dil ki baat"`,
		`name="num_lines"`,
		`max="10"`,
		`name="temperature"`,
		`value="0.8"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered page missing %q", want)
		}
	}
	if strings.Contains(out, `class="poem"`) || strings.Contains(out, `class="error"`) {
		t.Fatalf("empty page should not render a poem or error")
	}
}

func TestRenderPoemEscapesLines(t *testing.T) {
	t.Parallel()

	page := testPage()
	page.Lines = []string{"dil ki baat mein", "<script>raat</script>"}
	var buf bytes.Buffer
	if err := Render(&buf, page); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "dil ki baat mein<br>&lt;script&gt;raat&lt;/script&gt;") {
		t.Fatalf("poem not joined and escaped:\n%s", out)
	}
}

func TestRenderError(t *testing.T) {
	t.Parallel()

	page := testPage()
	page.Error = "Please enter a seed text to generate poetry."
	var buf bytes.Buffer
	if err := Render(&buf, page); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "Please enter a seed text") {
		t.Fatalf("error not rendered")
	}
}

func TestStaticFS(t *testing.T) {
	t.Parallel()

	f, err := StaticFS().Open("style.css")
	if err != nil {
		t.Fatalf("open style.css: %v", err)
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), ".poem") {
		t.Fatalf("unexpected stylesheet contents")
	}
}
