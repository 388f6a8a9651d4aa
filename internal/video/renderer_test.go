package video

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fogleman/gg"
)

func testRenderer(t *testing.T) (*Renderer, Config) {
	t.Helper()
	cfg := DefaultConfig()
	fonts, err := NewFontProvider()
	if err != nil {
		t.Fatalf("font provider: %v", err)
	}
	return NewRenderer(cfg, fonts), cfg
}

func TestRenderCanvasDimensions(t *testing.T) {
	r, cfg := testRenderer(t)
	out := filepath.Join(t.TempDir(), "slide.png")

	spec := SlideSpec{
		Name: "hook",
		Elements: []TextElement{
			{Text: "DAILY MEDICAL CASE", Size: 72, Color: cfg.Palette.Text, Y: 600},
			{Text: "A long wrapped paragraph about a patient presenting with chest pain radiating to the left arm.", Size: 58, Color: cfg.Palette.Text, Y: 850, Wrap: true},
		},
	}
	if err := r.Render(spec, out); err != nil {
		t.Fatalf("render: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open rendered image: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != cfg.Width || b.Dy() != cfg.Height {
		t.Errorf("canvas = %dx%d, want %dx%d", b.Dx(), b.Dy(), cfg.Width, cfg.Height)
	}
}

func TestRenderLeftAligned(t *testing.T) {
	r, cfg := testRenderer(t)
	out := filepath.Join(t.TempDir(), "left.png")

	spec := SlideSpec{
		Name: "answer",
		Elements: []TextElement{
			{Text: "MNEMONIC", Size: 54, Color: cfg.Palette.AccentAnswer, Y: 900, Align: AlignLeft, X: cfg.SideMargin},
		},
	}
	if err := r.Render(spec, out); err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("rendered file missing: %v", err)
	}
}

func TestWrapLinesRespectWidth(t *testing.T) {
	cfg := DefaultConfig()
	fonts, err := NewFontProvider()
	if err != nil {
		t.Fatalf("font provider: %v", err)
	}
	face, err := fonts.Face(58)
	if err != nil {
		t.Fatalf("face: %v", err)
	}

	dc := gg.NewContext(cfg.Width, cfg.Height)
	dc.SetFontFace(face)

	text := "A 68-year-old man with a long history of poorly controlled hypertension presents with sudden onset crushing chest pain radiating to the jaw and diaphoresis"
	maxWidth := cfg.WrapWidth()
	lines := wrapLines(dc, text, maxWidth)
	if len(lines) < 2 {
		t.Fatalf("expected multiple lines, got %d", len(lines))
	}
	for _, line := range lines {
		if w, _ := dc.MeasureString(line); w > maxWidth {
			t.Errorf("line %q measures %.1fpx, exceeds max %.1fpx", line, w, maxWidth)
		}
	}
	// No words lost in wrapping.
	if got := strings.Join(lines, " "); got != text {
		t.Errorf("wrapped text differs from input:\n got %q\nwant %q", got, text)
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short untouched", "B) Aspirin", 60, "B) Aspirin"},
		{"exact untouched", "12345", 5, "12345"},
		{"truncated", strings.Repeat("x", 200), 60, strings.Repeat("x", 57) + "..."},
		{"tiny budget", "abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateWithEllipsis(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("truncateWithEllipsis(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
			if len([]rune(got)) > tt.max {
				t.Errorf("result exceeds budget: %d > %d", len([]rune(got)), tt.max)
			}
		})
	}
}

func TestRenderLongOptionStaysOnCanvas(t *testing.T) {
	r, cfg := testRenderer(t)
	out := filepath.Join(t.TempDir(), "option.png")

	long := "A) " + strings.Repeat("verylongoptiontext ", 20)
	spec := SlideSpec{
		Name: "question",
		Elements: []TextElement{
			{Text: long, Size: 54, Color: cfg.Palette.Text, Y: 550, MaxChars: cfg.OptionCharBudget},
		},
	}
	if err := r.Render(spec, out); err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("rendered file missing: %v", err)
	}
}
