// Package video renders lesson content into a short vertical video:
// slides drawn on a fixed canvas, narration per slide, one encoded
// segment per slide, and a lossless concatenation under a duration cap.
package video

import "image/color"

// Config holds the fixed rendering and encoding parameters. Every segment
// of a run shares the same codec, resolution, and frame rate; this
// uniformity is what makes the final stream-copy concatenation valid.
type Config struct {
	Width  int
	Height int
	FPS    int

	// MaxDuration caps the final video length in seconds. Shorts must stay
	// under a minute.
	MaxDuration float64
	// AudioBuffer is trailing slack added after narrated audio so the last
	// word is not clipped.
	AudioBuffer float64

	// OptionCharBudget truncates single-line option text that would
	// otherwise overflow the canvas.
	OptionCharBudget int

	// SideMargin is the horizontal margin on each side used for wrapped text.
	SideMargin float64

	// OutputDir receives finished videos; WorkDir hosts per-run temp
	// artifact directories.
	OutputDir string
	WorkDir   string

	// FontPaths are candidate TTF files tried in order before the built-in
	// fallback face.
	FontPaths []string

	Palette Palette
}

// Palette is the slide color scheme: dark vertical gradient with cyan,
// orange, and green accents.
type Palette struct {
	BackgroundTop    color.RGBA
	BackgroundBottom color.RGBA
	Text             color.RGBA
	AccentCase       color.RGBA
	AccentQuestion   color.RGBA
	AccentAnswer     color.RGBA
}

// DefaultConfig returns the production parameters for vertical shorts.
func DefaultConfig() Config {
	return Config{
		Width:            1080,
		Height:           1920,
		FPS:              30,
		MaxDuration:      59,
		AudioBuffer:      1.0,
		OptionCharBudget: 60,
		SideMargin:       80,
		OutputDir:        "videos",
		WorkDir:          "",
		FontPaths: []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
		},
		Palette: Palette{
			BackgroundTop:    color.RGBA{R: 15, G: 23, B: 42, A: 255},
			BackgroundBottom: color.RGBA{R: 2, G: 6, B: 23, A: 255},
			Text:             color.RGBA{R: 255, G: 255, B: 255, A: 255},
			AccentCase:       color.RGBA{R: 255, G: 165, B: 0, A: 255},
			AccentQuestion:   color.RGBA{R: 0, G: 255, B: 255, A: 255},
			AccentAnswer:     color.RGBA{R: 0, G: 255, B: 0, A: 255},
		},
	}
}

// WrapWidth is the maximum rendered line width for wrapped text elements.
func (c Config) WrapWidth() float64 {
	return float64(c.Width) - 2*c.SideMargin
}
