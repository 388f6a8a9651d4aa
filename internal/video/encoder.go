package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// Segment is one encoded slide clip. All segments of a run share codec,
// resolution, and frame rate, so the assembler can stream-copy them.
type Segment struct {
	Path     string
	Duration float64
}

// Encoder turns (image, audio) pairs into uniform video segments using
// external ffmpeg/ffprobe processes.
type Encoder struct {
	cfg         Config
	ffmpegPath  string
	ffprobePath string
	runner      commandRunner
}

// NewEncoder creates an encoder running real ffmpeg processes.
func NewEncoder(cfg Config) *Encoder {
	return &Encoder{
		cfg:         cfg,
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		runner:      &execRunner{},
	}
}

// ProbeDuration returns the real duration of an audio file in seconds.
func (e *Encoder) ProbeDuration(ctx context.Context, audioPath string) (float64, error) {
	res, err := e.runner.Run(ctx, e.ffprobePath, buildProbeArgs(audioPath)...)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w (stderr: %s)", audioPath, err, strings.TrimSpace(res.Stderr))
	}
	out := strings.TrimSpace(res.Stdout)
	dur, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", out, err)
	}
	return dur, nil
}

// SilentTrack writes a silent audio file of exactly the given duration, so
// narration-free segments still carry an audio stream.
func (e *Encoder) SilentTrack(ctx context.Context, outPath string, duration float64) error {
	res, err := e.runner.Run(ctx, e.ffmpegPath, buildSilenceArgs(outPath, duration)...)
	if err != nil {
		return fmt.Errorf("generate silent track: %w (stderr: %s)", err, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// EncodeSegment loops the still image for the resolved duration, muxes it
// with the audio stream, and encodes with the run's fixed parameters.
// Encoder failures are fatal to the run; there is no local recovery.
func (e *Encoder) EncodeSegment(ctx context.Context, imgPath, audioPath string, duration float64, outPath string) (Segment, error) {
	args := buildSegmentArgs(e.cfg, imgPath, audioPath, duration, outPath)
	res, err := e.runner.Run(ctx, e.ffmpegPath, args...)
	if err != nil {
		return Segment{}, fmt.Errorf("encode segment %s: %w (stderr: %s)", outPath, err, strings.TrimSpace(res.Stderr))
	}
	return Segment{Path: outPath, Duration: duration}, nil
}

func buildProbeArgs(audioPath string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath,
	}
}

func buildSilenceArgs(outPath string, duration float64) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-f", "lavfi",
		"-i", "anullsrc=r=24000:cl=mono",
		"-t", formatSeconds(duration),
		outPath,
	}
}

func buildSegmentArgs(cfg Config, imgPath, audioPath string, duration float64, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-loop", "1",
		"-i", imgPath,
		"-i", audioPath,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-pix_fmt", "yuv420p",
		"-vf", fmt.Sprintf("fps=%d,scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2", cfg.FPS, cfg.Width, cfg.Height, cfg.Width, cfg.Height),
		"-c:a", "aac",
		"-b:a", "192k",
		"-t", formatSeconds(duration),
		outPath,
	}
}

func formatSeconds(d float64) string {
	return strconv.FormatFloat(d, 'f', 2, 64)
}
