// Package tts converts narration scripts to speech audio files.
package tts

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Synthesizer converts text to a speech audio file on disk.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outPath string) error
}

// OpenAI synthesizes narration through an OpenAI-compatible speech endpoint.
type OpenAI struct {
	api     *openai.Client
	model   openai.SpeechModel
	voice   openai.SpeechVoice
	speed   float64
	timeout time.Duration
}

// Option configures an OpenAI synthesizer.
type Option func(*OpenAI)

// WithVoice overrides the default narration voice.
func WithVoice(voice string) Option {
	return func(s *OpenAI) {
		if voice != "" {
			s.voice = openai.SpeechVoice(voice)
		}
	}
}

// WithModel overrides the default speech model.
func WithModel(model string) Option {
	return func(s *OpenAI) {
		if model != "" {
			s.model = openai.SpeechModel(model)
		}
	}
}

// WithSpeed sets the narration speed multiplier.
func WithSpeed(speed float64) Option {
	return func(s *OpenAI) {
		if speed > 0 {
			s.speed = speed
		}
	}
}

// WithTimeout caps how long a single synthesis call may take.
func WithTimeout(d time.Duration) Option {
	return func(s *OpenAI) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewOpenAI creates a synthesizer with a male neural voice suited to
// narration. The client is shared with the LLM when both use the same
// endpoint.
func NewOpenAI(api *openai.Client, opts ...Option) *OpenAI {
	s := &OpenAI{
		api:     api,
		model:   openai.TTSModel1,
		voice:   openai.VoiceOnyx,
		speed:   1.0,
		timeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize writes MP3 narration for text to outPath.
func (s *OpenAI) Synthesize(ctx context.Context, text, outPath string) error {
	if text == "" {
		return fmt.Errorf("empty narration text")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          s.speed,
	})
	if err != nil {
		return fmt.Errorf("speech API call: %w", err)
	}
	defer resp.Close()

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp); err != nil {
		return fmt.Errorf("write audio file: %w", err)
	}
	return nil
}
