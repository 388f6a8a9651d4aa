package video

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// fakeRunner records invocations and replays scripted results.
type fakeRunner struct {
	calls   []fakeCall
	results map[string]commandResult
	errs    map[string]error
}

type fakeCall struct {
	name string
	args []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		results: make(map[string]commandResult),
		errs:    make(map[string]error),
	}
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	f.calls = append(f.calls, fakeCall{name: name, args: args})
	return f.results[name], f.errs[name]
}

func (f *fakeRunner) callsFor(name string) []fakeCall {
	var out []fakeCall
	for _, c := range f.calls {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

func hasArgPair(args []string, flag, value string) bool {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func testEncoder(runner commandRunner) *Encoder {
	return &Encoder{
		cfg:         DefaultConfig(),
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		runner:      runner,
	}
}

func TestProbeDuration(t *testing.T) {
	runner := newFakeRunner()
	runner.results["ffprobe"] = commandResult{Stdout: "12.345\n"}
	enc := testEncoder(runner)

	dur, err := enc.ProbeDuration(context.Background(), "audio.mp3")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if dur != 12.345 {
		t.Errorf("duration = %v, want 12.345", dur)
	}

	call := runner.callsFor("ffprobe")[0]
	if !hasArgPair(call.args, "-show_entries", "format=duration") {
		t.Errorf("probe args missing duration entry: %v", call.args)
	}
	if call.args[len(call.args)-1] != "audio.mp3" {
		t.Errorf("probe args missing audio path: %v", call.args)
	}
}

func TestProbeDurationFailures(t *testing.T) {
	t.Run("process error", func(t *testing.T) {
		runner := newFakeRunner()
		runner.errs["ffprobe"] = errors.New("exit status 1")
		runner.results["ffprobe"] = commandResult{Stderr: "no such file"}
		enc := testEncoder(runner)

		_, err := enc.ProbeDuration(context.Background(), "missing.mp3")
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "no such file") {
			t.Errorf("error %q does not surface stderr", err)
		}
	})

	t.Run("garbage output", func(t *testing.T) {
		runner := newFakeRunner()
		runner.results["ffprobe"] = commandResult{Stdout: "N/A\n"}
		enc := testEncoder(runner)

		if _, err := enc.ProbeDuration(context.Background(), "audio.mp3"); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestSilentTrack(t *testing.T) {
	runner := newFakeRunner()
	enc := testEncoder(runner)

	if err := enc.SilentTrack(context.Background(), "silent.mp3", 5); err != nil {
		t.Fatalf("silent track: %v", err)
	}
	call := runner.callsFor("ffmpeg")[0]
	if !hasArgPair(call.args, "-i", "anullsrc=r=24000:cl=mono") {
		t.Errorf("silence args missing anullsrc source: %v", call.args)
	}
	if !hasArgPair(call.args, "-t", "5.00") {
		t.Errorf("silence args missing duration: %v", call.args)
	}
}

func TestEncodeSegment(t *testing.T) {
	runner := newFakeRunner()
	enc := testEncoder(runner)

	seg, err := enc.EncodeSegment(context.Background(), "slide.png", "audio.mp3", 11.5, "part.mp4")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if seg.Path != "part.mp4" || seg.Duration != 11.5 {
		t.Errorf("segment = %+v", seg)
	}

	call := runner.callsFor("ffmpeg")[0]
	for _, pair := range [][2]string{
		{"-loop", "1"},
		{"-i", "slide.png"},
		{"-i", "audio.mp3"},
		{"-c:v", "libx264"},
		{"-tune", "stillimage"},
		{"-pix_fmt", "yuv420p"},
		{"-c:a", "aac"},
		{"-b:a", "192k"},
		{"-t", "11.50"},
	} {
		if !hasArgPair(call.args, pair[0], pair[1]) {
			t.Errorf("encode args missing %s %s: %v", pair[0], pair[1], call.args)
		}
	}
	vf := fmt.Sprintf("fps=%d,scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2", 30, 1080, 1920, 1080, 1920)
	if !hasArgPair(call.args, "-vf", vf) {
		t.Errorf("encode args missing video filter: %v", call.args)
	}
}

func TestEncodeSegmentFailureIsFatal(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["ffmpeg"] = errors.New("exit status 1")
	runner.results["ffmpeg"] = commandResult{Stderr: "unknown encoder 'libx264'"}
	enc := testEncoder(runner)

	_, err := enc.EncodeSegment(context.Background(), "slide.png", "audio.mp3", 5, "part.mp4")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "unknown encoder") {
		t.Errorf("error %q does not surface stderr", err)
	}
}
