// Package workflow orchestrates one daily run: pick the next subject and
// topic, generate a lesson, produce the video, distribute it, and record
// the outcome. Generation and video production are fatal when they fail;
// distribution is best effort.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/pavelanni/medishorts/internal/llm"
	"github.com/pavelanni/medishorts/internal/model"
	"github.com/pavelanni/medishorts/internal/publish"
	"github.com/pavelanni/medishorts/internal/store"
)

// LessonGenerator produces a lesson for a topic/subtopic pair.
type LessonGenerator interface {
	GenerateLesson(ctx context.Context, topic, subtopic string) (*model.Lesson, error)
}

// VideoCreator turns a lesson into a finished video file.
type VideoCreator interface {
	Create(ctx context.Context, lesson *model.Lesson, topic, subtopic string) (string, error)
}

// VideoPublisher uploads a finished video.
type VideoPublisher interface {
	UploadShort(ctx context.Context, videoPath, topic, subtopic, description string) (*publish.UploadResult, error)
}

// MessagePoster announces a lesson on a channel.
type MessagePoster interface {
	Post(ctx context.Context, message string) (string, error)
}

// Runner executes daily content runs. YouTube and Telegram are optional;
// a nil publisher is simply skipped.
type Runner struct {
	store    *store.Store
	llm      LessonGenerator
	video    VideoCreator
	youtube  VideoPublisher
	telegram MessagePoster

	// DeleteAfterUpload removes the local video file once it is on YouTube.
	DeleteAfterUpload bool
}

// NewRunner wires a workflow runner.
func NewRunner(st *store.Store, gen LessonGenerator, video VideoCreator, yt VideoPublisher, tg MessagePoster) *Runner {
	return &Runner{store: st, llm: gen, video: video, youtube: yt, telegram: tg}
}

// Result describes one completed run.
type Result struct {
	Subject           string `json:"subject"`
	Topic             string `json:"topic"`
	Subtopic          string `json:"subtopic"`
	CaseID            int64  `json:"case_id"`
	VideoPath         string `json:"video_path"`
	VideoURL          string `json:"video_url,omitempty"`
	YouTubeID         string `json:"youtube_id,omitempty"`
	TelegramMessageID string `json:"telegram_message_id,omitempty"`
	NewCycle          bool   `json:"new_cycle,omitempty"`
}

// RunDaily performs one full content run and returns what happened.
func (r *Runner) RunDaily(ctx context.Context) (*Result, error) {
	subjectID, err := r.store.NextSubjectForRotation()
	if err != nil {
		return nil, fmt.Errorf("subject rotation: %w", err)
	}
	if subjectID == 0 {
		return nil, fmt.Errorf("no subjects in database; import topics first")
	}
	subject, err := r.store.GetSubject(subjectID)
	if err != nil {
		return nil, fmt.Errorf("load subject: %w", err)
	}

	result := &Result{Subject: subject.Name}

	topic, err := r.nextTopic(subjectID, result)
	if err != nil {
		return nil, err
	}
	result.Topic = topic.Name
	result.Subtopic = topic.Subtopic
	slog.Info("starting daily run",
		"subject", subject.Name, "topic", topic.Name, "subtopic", topic.Subtopic)

	lesson, err := r.llm.GenerateLesson(ctx, topic.Name, topic.Subtopic)
	if err != nil {
		return nil, fmt.Errorf("generate lesson: %w", err)
	}

	videoPath, err := r.video.Create(ctx, lesson, topic.Name, topic.Subtopic)
	if err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}
	result.VideoPath = videoPath

	r.distribute(ctx, lesson, topic, videoPath, result)

	if err := r.record(lesson, topic, result); err != nil {
		return nil, err
	}
	if err := r.store.MarkTopicUsed(topic.ID); err != nil {
		return nil, fmt.Errorf("mark topic used: %w", err)
	}
	if err := r.store.UpdateWorkflowState(subjectID); err != nil {
		return nil, fmt.Errorf("update workflow state: %w", err)
	}

	if r.DeleteAfterUpload && result.YouTubeID != "" {
		if err := os.Remove(videoPath); err != nil {
			slog.Warn("could not delete uploaded video file", "path", videoPath, "error", err)
		}
	}

	slog.Info("daily run complete", "case_id", result.CaseID, "video_url", result.VideoURL)
	return result, nil
}

func (r *Runner) nextTopic(subjectID int64, result *Result) (*model.Topic, error) {
	topic, err := r.store.NextUnusedTopic(subjectID)
	if err != nil {
		return nil, fmt.Errorf("next topic: %w", err)
	}
	if topic == nil {
		started, err := r.store.StartNewCycleIfExhausted(subjectID)
		if err != nil {
			return nil, fmt.Errorf("start new cycle: %w", err)
		}
		if started {
			result.NewCycle = true
			slog.Info("topic cycle exhausted, starting a new cycle", "subject_id", subjectID)
			topic, err = r.store.NextUnusedTopic(subjectID)
			if err != nil {
				return nil, fmt.Errorf("next topic after cycle reset: %w", err)
			}
		}
	}
	if topic == nil {
		return nil, fmt.Errorf("no topics available for subject %d", subjectID)
	}
	return topic, nil
}

// distribute uploads and announces the video. Failures are logged and the
// run continues; the produced artifact is already valid.
func (r *Runner) distribute(ctx context.Context, lesson *model.Lesson, topic *model.Topic, videoPath string, result *Result) {
	if r.youtube != nil {
		description := llm.FormatYouTubeDescription(lesson, topic.Name, topic.Subtopic)
		upload, err := r.youtube.UploadShort(ctx, videoPath, topic.Name, topic.Subtopic, description)
		if err != nil {
			slog.Warn("youtube upload failed", "error", err)
		} else {
			result.YouTubeID = upload.VideoID
			result.VideoURL = upload.URL
			slog.Info("uploaded to youtube", "video_id", upload.VideoID)
		}
	}

	if r.telegram != nil {
		message := llm.FormatTelegramMessage(lesson, topic.Name, topic.Subtopic, result.VideoURL)
		msgID, err := r.telegram.Post(ctx, message)
		if err != nil {
			slog.Warn("telegram post failed", "error", err)
		} else {
			result.TelegramMessageID = msgID
			slog.Info("posted to telegram", "message_id", msgID)
		}
	}
}

func (r *Runner) record(lesson *model.Lesson, topic *model.Topic, result *Result) error {
	mcqs, err := json.Marshal(lesson.AllMCQs())
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	answers, err := json.Marshal(lesson.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	caseID, err := r.store.AddCase(model.CaseRecord{
		TopicID:           topic.ID,
		CaseText:          lesson.CaseText,
		MCQsJSON:          string(mcqs),
		AnswersJSON:       string(answers),
		Mnemonic:          lesson.Mnemonic,
		VideoPath:         result.VideoPath,
		VideoURL:          result.VideoURL,
		YouTubeID:         result.YouTubeID,
		TelegramMessageID: result.TelegramMessageID,
	})
	if err != nil {
		return fmt.Errorf("record case: %w", err)
	}
	result.CaseID = caseID
	return nil
}
