package video

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
)

// Align positions an element horizontally on the canvas.
type Align int

const (
	AlignCenter Align = iota
	AlignLeft
)

// TextElement is one drawable line or block on a slide. Y is the top edge
// of the text in canvas pixels. Centered text computes its offset from the
// measured width; left-aligned text starts at X.
type TextElement struct {
	Text  string
	Size  float64
	Color color.Color
	Y     float64
	Align Align
	// X is the left edge for AlignLeft elements; ignored when centered.
	X float64
	// Wrap breaks the text into lines that fit the configured wrap width.
	Wrap bool
	// MaxChars truncates a non-wrapped element with a trailing ellipsis.
	// Zero means no truncation.
	MaxChars int
}

// SlideSpec describes one visual and narration unit of the final video.
type SlideSpec struct {
	Name      string
	Elements  []TextElement
	Narration string
	// Duration is the slide's default length in seconds, used when there is
	// no narration or when the narration duration cannot be probed.
	Duration float64
}

// Renderer draws slides onto a fixed-size canvas with a vertical gradient
// background.
type Renderer struct {
	cfg   Config
	fonts *FontProvider
}

// NewRenderer creates a slide renderer.
func NewRenderer(cfg Config, fonts *FontProvider) *Renderer {
	return &Renderer{cfg: cfg, fonts: fonts}
}

// Render draws the slide and writes it as PNG to outPath.
func (r *Renderer) Render(spec SlideSpec, outPath string) error {
	dc := gg.NewContext(r.cfg.Width, r.cfg.Height)

	grad := gg.NewLinearGradient(0, 0, 0, float64(r.cfg.Height))
	grad.AddColorStop(0, r.cfg.Palette.BackgroundTop)
	grad.AddColorStop(1, r.cfg.Palette.BackgroundBottom)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(r.cfg.Width), float64(r.cfg.Height))
	dc.Fill()

	for _, el := range spec.Elements {
		face, err := r.fonts.Face(el.Size)
		if err != nil {
			return fmt.Errorf("resolve font for %q: %w", spec.Name, err)
		}
		dc.SetFontFace(face)
		dc.SetColor(el.Color)

		text := el.Text
		if el.MaxChars > 0 {
			text = truncateWithEllipsis(text, el.MaxChars)
		}

		if el.Wrap {
			y := el.Y
			for _, line := range wrapLines(dc, text, r.cfg.WrapWidth()) {
				r.drawLine(dc, el, line, y)
				// Line advance scales with font size to keep spacing even.
				y += el.Size * 1.4
			}
		} else {
			r.drawLine(dc, el, text, el.Y)
		}
	}

	if err := dc.SavePNG(outPath); err != nil {
		return fmt.Errorf("save slide %q: %w", spec.Name, err)
	}
	return nil
}

func (r *Renderer) drawLine(dc *gg.Context, el TextElement, line string, y float64) {
	w, h := dc.MeasureString(line)
	x := (float64(r.cfg.Width) - w) / 2
	if el.Align == AlignLeft {
		x = el.X
	}
	dc.DrawString(line, x, y+h)
}

// wrapLines greedily packs words into lines whose rendered pixel width does
// not exceed maxWidth for the context's current font face.
func wrapLines(dc *gg.Context, text string, maxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if w, _ := dc.MeasureString(candidate); w <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

func truncateWithEllipsis(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(runes[:maxChars])
	}
	return string(runes[:maxChars-3]) + "..."
}
