package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Assembler concatenates encoded segments into the final video. The concat
// is a stream copy, valid because every segment shares the same encoding
// parameters, and the result is hard-trimmed at the duration cap.
type Assembler struct {
	cfg        Config
	ffmpegPath string
	runner     commandRunner
}

// NewAssembler creates an assembler running real ffmpeg processes.
func NewAssembler(cfg Config) *Assembler {
	return &Assembler{
		cfg:        cfg,
		ffmpegPath: "ffmpeg",
		runner:     &execRunner{},
	}
}

// Assemble concatenates segments in declared order into outPath. When the
// summed duration exceeds the cap, the output is cut at the cap boundary;
// the tail segment may lose its ending. Intermediate files go through reg.
func (a *Assembler) Assemble(ctx context.Context, segments []Segment, outPath string, reg *ArtifactRegistry) error {
	if len(segments) == 0 {
		return fmt.Errorf("no segments to assemble")
	}

	listPath := reg.Path("parts.txt")
	if err := writeConcatList(listPath, segments); err != nil {
		return err
	}

	total := 0.0
	for _, s := range segments {
		total += s.Duration
	}

	concatTarget := outPath
	trim := total > a.cfg.MaxDuration
	if trim {
		concatTarget = reg.Path("concat_full.mp4")
	}

	res, err := a.runner.Run(ctx, a.ffmpegPath, buildConcatArgs(listPath, concatTarget)...)
	if err != nil {
		return fmt.Errorf("concat segments: %w (stderr: %s)", err, strings.TrimSpace(res.Stderr))
	}

	if trim {
		res, err := a.runner.Run(ctx, a.ffmpegPath, buildTrimArgs(concatTarget, outPath, a.cfg.MaxDuration)...)
		if err != nil {
			return fmt.Errorf("trim to %.0fs cap: %w (stderr: %s)", a.cfg.MaxDuration, err, strings.TrimSpace(res.Stderr))
		}
	}
	return nil
}

func writeConcatList(listPath string, segments []Segment) error {
	var sb strings.Builder
	for _, s := range segments {
		abs, err := filepath.Abs(s.Path)
		if err != nil {
			return fmt.Errorf("resolve segment path %s: %w", s.Path, err)
		}
		fmt.Fprintf(&sb, "file '%s'\n", abs)
	}
	if err := os.WriteFile(listPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}

func buildConcatArgs(listPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	}
}

func buildTrimArgs(inPath, outPath string, limit float64) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inPath,
		"-t", formatSeconds(limit),
		"-c", "copy",
		outPath,
	}
}
