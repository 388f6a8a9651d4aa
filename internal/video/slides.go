package video

import (
	"context"
	"fmt"
	"strings"

	"github.com/pavelanni/medishorts/internal/i18n"
	"github.com/pavelanni/medishorts/internal/model"
)

// Per-slide default durations in seconds. These are the segment lengths
// when narration is absent or unprobeable; narrated segments stretch to
// the audio length plus buffer.
const (
	hookDuration     = 5
	caseDuration     = 10
	questionDuration = 10
	pauseDuration    = 5
	answerDuration   = 10
	outroDuration    = 5
)

// SlideCount is the fixed number of slides per video; content length never
// changes it.
const SlideCount = 6

// BuildSlides expands a lesson into the fixed slide template: hook, case,
// first question, think pause (silent), answer with mnemonic, outro.
func BuildSlides(ctx context.Context, lesson *model.Lesson, cfg Config) []SlideSpec {
	p := cfg.Palette
	caseText := firstSentences(lesson.CaseText, 2)

	mcq := lesson.CaseMCQs[0]
	answerLabel := lesson.Answers["1"]
	answerText := mcq.Options[answerLabel]

	slides := []SlideSpec{
		{
			Name: "hook",
			Elements: []TextElement{
				{Text: i18n.T(ctx, "SlideHookTitle"), Size: 72, Color: p.Text, Y: 600},
				{Text: i18n.T(ctx, "SlideHookQuestion"), Size: 85, Color: p.AccentQuestion, Y: 850},
				{Text: i18n.T(ctx, "SlideHookHint"), Size: 58, Color: p.Text, Y: 1050},
			},
			Narration: i18n.T(ctx, "NarrationHook"),
			Duration:  hookDuration,
		},
		{
			Name: "case",
			Elements: []TextElement{
				{Text: i18n.T(ctx, "SlideCaseTitle"), Size: 80, Color: p.AccentCase, Y: 350},
				{Text: caseText, Size: 58, Color: p.Text, Y: 600, Wrap: true},
			},
			Narration: i18n.Td(ctx, "NarrationCase", map[string]any{"Case": caseText}),
			Duration:  caseDuration,
		},
		buildQuestionSlide(ctx, mcq, cfg),
		{
			Name: "pause",
			Elements: []TextElement{
				{Text: i18n.T(ctx, "SlideThinkPause"), Size: 80, Color: p.Text, Y: 900},
			},
			// Deliberately silent: the viewer thinks.
			Duration: pauseDuration,
		},
		{
			Name: "answer",
			Elements: []TextElement{
				{Text: i18n.Td(ctx, "SlideAnswerTitle", map[string]any{"Label": answerLabel}), Size: 90, Color: p.AccentAnswer, Y: 350},
				{Text: answerText, Size: 62, Color: p.Text, Y: 520, Wrap: true},
				{Text: i18n.T(ctx, "SlideMnemonicTitle"), Size: 72, Color: p.AccentCase, Y: 950},
				{Text: lesson.Mnemonic, Size: 52, Color: p.Text, Y: 1100, Wrap: true},
			},
			Narration: i18n.Td(ctx, "NarrationAnswer", map[string]any{
				"Label":    answerLabel,
				"Answer":   answerText,
				"Mnemonic": lesson.Mnemonic,
			}),
			Duration: answerDuration,
		},
		{
			Name: "outro",
			Elements: []TextElement{
				{Text: i18n.T(ctx, "SlideOutroLine"), Size: 75, Color: p.Text, Y: 800},
				{Text: i18n.T(ctx, "SlideOutroFollow"), Size: 90, Color: p.AccentQuestion, Y: 1000},
			},
			Narration: i18n.T(ctx, "NarrationOutro"),
			Duration:  outroDuration,
		},
	}
	return slides
}

func buildQuestionSlide(ctx context.Context, mcq model.MCQ, cfg Config) SlideSpec {
	p := cfg.Palette
	elements := []TextElement{
		{Text: i18n.T(ctx, "SlideQuestionTitle"), Size: 72, Color: p.AccentQuestion, Y: 300},
	}
	for i, label := range model.OptionLabels {
		elements = append(elements, TextElement{
			Text:     fmt.Sprintf("%s) %s", label, mcq.Options[label]),
			Size:     54,
			Color:    p.Text,
			Y:        550 + float64(i)*180,
			MaxChars: cfg.OptionCharBudget,
		})
	}
	return SlideSpec{
		Name:     "question",
		Elements: elements,
		Narration: i18n.Td(ctx, "NarrationQuestion", map[string]any{
			"A": mcq.Options["A"],
			"B": mcq.Options["B"],
			"C": mcq.Options["C"],
			"D": mcq.Options["D"],
		}),
		Duration: questionDuration,
	}
}

// firstSentences keeps at most n sentences of a case narrative so the case
// slide stays readable.
func firstSentences(text string, n int) string {
	parts := strings.Split(strings.TrimSpace(text), ".")
	var kept []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kept = append(kept, part)
		if len(kept) == n {
			break
		}
	}
	if len(kept) == 0 {
		return text
	}
	return strings.Join(kept, ". ") + "."
}
