package video

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontProvider resolves font faces for slide text. Candidate TTF files are
// tried in order; the embedded Go Regular font is the guaranteed last
// resort, so resolution itself never fails the pipeline.
type FontProvider struct {
	mu     sync.Mutex
	parsed *opentype.Font
	faces  map[float64]font.Face
}

// NewFontProvider loads the first readable candidate font, falling back to
// the embedded default.
func NewFontProvider(candidates ...string) (*FontProvider, error) {
	data := goregular.TTF
	for _, path := range candidates {
		b, err := os.ReadFile(path)
		if err != nil {
			slog.Debug("font candidate unavailable", "path", path, "error", err)
			continue
		}
		if _, err := opentype.Parse(b); err != nil {
			slog.Warn("font candidate unparsable", "path", path, "error", err)
			continue
		}
		data = b
		break
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &FontProvider{
		parsed: parsed,
		faces:  make(map[float64]font.Face),
	}, nil
}

// Face returns a cached face at the given point size.
func (p *FontProvider) Face(size float64) (font.Face, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if face, ok := p.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(p.parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face at %.1fpt: %w", size, err)
	}
	p.faces[size] = face
	return face, nil
}
