package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pavelanni/medishorts/internal/model"
	"github.com/pavelanni/medishorts/internal/tts"
)

// Generator runs the full content-to-video pipeline: slides are rendered,
// narrated, encoded, and concatenated strictly in order, one slide at a
// time. Narration and font failures degrade; encoder failures abort.
type Generator struct {
	cfg      Config
	renderer *Renderer
	synth    tts.Synthesizer
	enc      *Encoder
	asm      *Assembler
}

// NewGenerator wires a generator from the shared config. synth may be nil,
// in which case every slide gets a silent track.
func NewGenerator(cfg Config, synth tts.Synthesizer) (*Generator, error) {
	fonts, err := NewFontProvider(cfg.FontPaths...)
	if err != nil {
		return nil, fmt.Errorf("font provider: %w", err)
	}
	return &Generator{
		cfg:      cfg,
		renderer: NewRenderer(cfg, fonts),
		synth:    synth,
		enc:      NewEncoder(cfg),
		asm:      NewAssembler(cfg),
	}, nil
}

// Create produces the final video for a lesson and returns its path. All
// temporary artifacts are removed on every exit path; only the output file
// survives.
func (g *Generator) Create(ctx context.Context, lesson *model.Lesson, topic, subtopic string) (string, error) {
	if err := lesson.Validate(); err != nil {
		return "", fmt.Errorf("lesson content: %w", err)
	}

	reg, err := NewArtifactRegistry(g.cfg.WorkDir)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := reg.Cleanup(); err != nil {
			slog.Warn("temp artifact cleanup failed", "error", err)
		}
	}()

	slides := BuildSlides(ctx, lesson, g.cfg)
	segments := make([]Segment, 0, len(slides))

	for i, slide := range slides {
		imgPath := reg.Path(fmt.Sprintf("slide_%02d.png", i+1))
		if err := g.renderer.Render(slide, imgPath); err != nil {
			return "", fmt.Errorf("render slide %d: %w", i+1, err)
		}

		audioPath := reg.Path(fmt.Sprintf("slide_%02d.mp3", i+1))
		duration := slide.Duration
		narrated := false

		if slide.Narration != "" && g.synth != nil {
			if err := g.synth.Synthesize(ctx, slide.Narration, audioPath); err != nil {
				// Narration is an enhancement: degrade to silence, keep going.
				slog.Warn("narration synthesis failed, using silent track",
					"slide", slide.Name, "error", err)
			} else {
				narrated = true
				if probed, err := g.enc.ProbeDuration(ctx, audioPath); err != nil {
					slog.Warn("duration probe failed, using default duration",
						"slide", slide.Name, "error", err)
				} else {
					duration = probed + g.cfg.AudioBuffer
				}
			}
		}

		if !narrated {
			if err := g.enc.SilentTrack(ctx, audioPath, duration); err != nil {
				return "", fmt.Errorf("silent track for slide %d: %w", i+1, err)
			}
		}

		segPath := reg.Path(fmt.Sprintf("part_%02d.mp4", i+1))
		seg, err := g.enc.EncodeSegment(ctx, imgPath, audioPath, duration, segPath)
		if err != nil {
			return "", err
		}
		segments = append(segments, seg)
	}

	if err := os.MkdirAll(g.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	outPath := filepath.Join(g.cfg.OutputDir, OutputFilename(topic, subtopic))

	if err := g.asm.Assemble(ctx, segments, outPath, reg); err != nil {
		return "", err
	}

	slog.Info("video assembled", "path", outPath, "segments", len(segments))
	return outPath, nil
}

// OutputFilename derives a filesystem-safe name from topic and subtopic:
// non-alphanumerics other than space, hyphen, and underscore are stripped,
// spaces become underscores, and each part is capped at 30 characters.
func OutputFilename(topic, subtopic string) string {
	t := sanitizePart(topic)
	s := sanitizePart(subtopic)
	switch {
	case t == "" && s == "":
		return "video.mp4"
	case s == "":
		return t + ".mp4"
	case t == "":
		return s + ".mp4"
	}
	return t + "_" + s + ".mp4"
}

func sanitizePart(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			sb.WriteRune(r)
		}
	}
	out := strings.Join(strings.Fields(sb.String()), "_")
	runes := []rune(out)
	if len(runes) > 30 {
		out = string(runes[:30])
	}
	return strings.Trim(out, "_")
}
