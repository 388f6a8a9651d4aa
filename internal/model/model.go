package model

import (
	"fmt"
	"strconv"
	"time"
)

// OptionLabels are the four labels every question must carry, in display order.
var OptionLabels = []string{"A", "B", "C", "D"}

const (
	// CaseMCQCount is the required number of case-based questions per lesson.
	CaseMCQCount = 3
	// IndependentMCQCount is the required number of stand-alone questions per lesson.
	IndependentMCQCount = 2
)

// MCQ is a multiple-choice question with exactly four labeled options.
type MCQ struct {
	Question string            `json:"question"`
	Options  map[string]string `json:"options"`
}

// Lesson is one generated unit of educational content: a clinical case,
// three case-based questions, two independent questions, an answer key
// covering all five, and a mnemonic.
type Lesson struct {
	CaseText        string            `json:"case_text"`
	CaseMCQs        []MCQ             `json:"case_based_mcqs"`
	IndependentMCQs []MCQ             `json:"independent_mcqs"`
	Answers         map[string]string `json:"answers"`
	Mnemonic        string            `json:"mnemonic"`
}

// AllMCQs returns the case-based questions followed by the independent ones,
// in presentation order.
func (l *Lesson) AllMCQs() []MCQ {
	out := make([]MCQ, 0, len(l.CaseMCQs)+len(l.IndependentMCQs))
	out = append(out, l.CaseMCQs...)
	out = append(out, l.IndependentMCQs...)
	return out
}

// Validate checks the structural invariants of a generated lesson: question
// group sizes, four labeled options per question, and a complete answer key
// with valid labels.
func (l *Lesson) Validate() error {
	if l.CaseText == "" {
		return fmt.Errorf("lesson has empty case text")
	}
	if len(l.CaseMCQs) != CaseMCQCount {
		return fmt.Errorf("expected %d case-based questions, got %d", CaseMCQCount, len(l.CaseMCQs))
	}
	if len(l.IndependentMCQs) != IndependentMCQCount {
		return fmt.Errorf("expected %d independent questions, got %d", IndependentMCQCount, len(l.IndependentMCQs))
	}
	for i, q := range l.AllMCQs() {
		if q.Question == "" {
			return fmt.Errorf("question %d has empty text", i+1)
		}
		if len(q.Options) != len(OptionLabels) {
			return fmt.Errorf("question %d has %d options, want %d", i+1, len(q.Options), len(OptionLabels))
		}
		for _, label := range OptionLabels {
			if _, ok := q.Options[label]; !ok {
				return fmt.Errorf("question %d is missing option %s", i+1, label)
			}
		}
	}
	total := CaseMCQCount + IndependentMCQCount
	if len(l.Answers) != total {
		return fmt.Errorf("answer key has %d entries, want %d", len(l.Answers), total)
	}
	for i := 1; i <= total; i++ {
		key := strconv.Itoa(i)
		label, ok := l.Answers[key]
		if !ok {
			return fmt.Errorf("answer key is missing question %d", i)
		}
		if !validLabel(label) {
			return fmt.Errorf("answer key for question %d has invalid label %q", i, label)
		}
	}
	if l.Mnemonic == "" {
		return fmt.Errorf("lesson has empty mnemonic")
	}
	return nil
}

func validLabel(label string) bool {
	for _, l := range OptionLabels {
		if l == label {
			return true
		}
	}
	return false
}

// AnswerSummary renders the answer key as "1-A 2-B 3-C 4-D 5-A".
func (l *Lesson) AnswerSummary() string {
	total := CaseMCQCount + IndependentMCQCount
	out := ""
	for i := 1; i <= total; i++ {
		key := strconv.Itoa(i)
		if out != "" {
			out += " "
		}
		out += key + "-" + l.Answers[key]
	}
	return out
}

// Subject is a top-level curriculum area rotated through daily.
type Subject struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Topic is one topic/subtopic pair within a subject. Topics are consumed
// once per cycle; when every topic in a cycle is used, a new cycle starts
// and all topics become available again.
type Topic struct {
	ID         int64      `json:"id"`
	SubjectID  int64      `json:"subject_id"`
	Name       string     `json:"topic_name"`
	Subtopic   string     `json:"subtopic_name"`
	Cycle      int        `json:"cycle_number"`
	Used       bool       `json:"used"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// CaseRecord is the persisted result of one workflow run: the generated
// lesson plus where the produced video ended up.
type CaseRecord struct {
	ID                int64     `json:"id"`
	TopicID           int64     `json:"topic_id"`
	CaseText          string    `json:"case_text"`
	MCQsJSON          string    `json:"mcqs"`
	AnswersJSON       string    `json:"answers"`
	Mnemonic          string    `json:"mnemonic"`
	VideoPath         string    `json:"video_path,omitempty"`
	VideoURL          string    `json:"video_url,omitempty"`
	YouTubeID         string    `json:"youtube_id,omitempty"`
	TelegramMessageID string    `json:"telegram_message_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// WorkflowState tracks the subject rotation pointer and run counters.
// Exactly one row exists.
type WorkflowState struct {
	CurrentSubjectID int64  `json:"current_subject_id"`
	LastRunDate      string `json:"last_run_date"`
	TotalRuns        int    `json:"total_runs"`
}

// TopicImport is one AI- or file-sourced topic/subtopic pair to ingest.
type TopicImport struct {
	Topic    string `json:"topic"`
	Subtopic string `json:"subtopic"`
}

// Statistics summarizes the content database for the stats command.
type Statistics struct {
	TotalSubjects   int            `json:"total_subjects"`
	TotalTopics     int            `json:"total_topics"`
	TotalCases      int            `json:"total_cases"`
	TopicsBySubject map[string]int `json:"topics_by_subject"`
	Workflow        *WorkflowState `json:"workflow,omitempty"`
}
