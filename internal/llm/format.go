package llm

import (
	"fmt"
	"html"
	"strings"

	"github.com/pavelanni/medishorts/internal/model"
)

const (
	// telegramMessageLimit is the Telegram Bot API cap on message length.
	telegramMessageLimit = 4096
	// youtubeDescriptionLimit is the YouTube cap on description length.
	youtubeDescriptionLimit = 5000
	// questionPreviewLen is how much of a question Telegram posts show.
	questionPreviewLen = 100
)

// FormatDisplay renders a lesson as plain text for logs and dry runs.
func FormatDisplay(l *model.Lesson, topic, subtopic string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n\n", topic, subtopic)
	fmt.Fprintf(&sb, "Case:\n%s\n\n", l.CaseText)
	sb.WriteString("MCQs:\n")
	for i, q := range l.AllMCQs() {
		fmt.Fprintf(&sb, "%d) %s\n", i+1, q.Question)
		for _, label := range model.OptionLabels {
			fmt.Fprintf(&sb, "   %s) %s\n", label, q.Options[label])
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Answers:\n%s\n\n", l.AnswerSummary())
	fmt.Fprintf(&sb, "Mnemonic:\n%s\n", l.Mnemonic)
	return sb.String()
}

// FormatYouTubeDescription renders a lesson as a YouTube Shorts description:
// case, question texts, answer key, mnemonic, and discovery hashtags.
func FormatYouTubeDescription(l *model.Lesson, topic, subtopic string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🩺 %s: %s\n\n", topic, subtopic)
	fmt.Fprintf(&sb, "📌 Case:\n%s\n\n", l.CaseText)
	sb.WriteString("❓ MCQs:\n")
	for i, q := range l.AllMCQs() {
		fmt.Fprintf(&sb, "%d) %s\n", i+1, q.Question)
	}
	fmt.Fprintf(&sb, "\n✅ Answers:\n%s\n\n", l.AnswerSummary())
	fmt.Fprintf(&sb, "🧠 Mnemonic:\n%s\n\n", l.Mnemonic)
	sb.WriteString("#Medical #USMLE #PLAB #Shorts #MedicalEducation #MedicalStudent")
	return truncateRunes(sb.String(), youtubeDescriptionLimit)
}

// FormatTelegramMessage renders a lesson as a Telegram HTML post. Questions
// are previewed without options or answers so the channel drives viewers to
// the video.
func FormatTelegramMessage(l *model.Lesson, topic, subtopic, videoURL string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🩺 <b>%s: %s</b>\n\n", html.EscapeString(topic), html.EscapeString(subtopic))
	fmt.Fprintf(&sb, "📌 <b>Case:</b>\n%s\n\n", html.EscapeString(l.CaseText))
	sb.WriteString("❓ <b>MCQs:</b>\n")
	for i, q := range l.AllMCQs() {
		question := q.Question
		if len([]rune(question)) > questionPreviewLen {
			question = truncateRunes(question, questionPreviewLen-3) + "..."
		}
		fmt.Fprintf(&sb, "%d) %s\n", i+1, html.EscapeString(question))
	}
	fmt.Fprintf(&sb, "\n🧠 <b>Mnemonic:</b>\n%s\n", html.EscapeString(l.Mnemonic))
	if videoURL != "" {
		fmt.Fprintf(&sb, "\n▶ <a href=\"%s\">Watch Video</a>", videoURL)
	}
	return truncateRunes(sb.String(), telegramMessageLimit)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
