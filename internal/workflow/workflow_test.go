package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pavelanni/medishorts/internal/model"
	"github.com/pavelanni/medishorts/internal/publish"
	"github.com/pavelanni/medishorts/internal/store"
)

type fakeGenerator struct {
	err   error
	calls int
}

func (f *fakeGenerator) GenerateLesson(ctx context.Context, topic, subtopic string) (*model.Lesson, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	opts := func() map[string]string {
		return map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"}
	}
	return &model.Lesson{
		CaseText: "A patient presents with " + subtopic + ".",
		CaseMCQs: []model.MCQ{
			{Question: "Q1?", Options: opts()},
			{Question: "Q2?", Options: opts()},
			{Question: "Q3?", Options: opts()},
		},
		IndependentMCQs: []model.MCQ{
			{Question: "Q4?", Options: opts()},
			{Question: "Q5?", Options: opts()},
		},
		Answers:  map[string]string{"1": "A", "2": "B", "3": "C", "4": "D", "5": "A"},
		Mnemonic: "ABC rule",
	}, nil
}

type fakeCreator struct {
	dir string
	err error
}

func (f *fakeCreator) Create(ctx context.Context, lesson *model.Lesson, topic, subtopic string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(f.dir, "out.mp4")
	return path, os.WriteFile(path, []byte("mp4"), 0o644)
}

type fakeUploader struct {
	err error
}

func (f *fakeUploader) UploadShort(ctx context.Context, videoPath, topic, subtopic, description string) (*publish.UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &publish.UploadResult{VideoID: "vid123", URL: "https://youtube.com/shorts/vid123"}, nil
}

type fakePoster struct {
	err     error
	lastMsg string
}

func (f *fakePoster) Post(ctx context.Context, message string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.lastMsg = message
	return "42", nil
}

func newTestRunner(t *testing.T, yt VideoPublisher, tg MessagePoster) (*Runner, *store.Store) {
	t.Helper()
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	subjectID, err := st.AddSubject("Internal Medicine")
	if err != nil {
		t.Fatalf("add subject: %v", err)
	}
	if _, err := st.AddTopic(subjectID, "Heart Failure", "Acute Heart Failure", 1); err != nil {
		t.Fatalf("add topic: %v", err)
	}

	creator := &fakeCreator{dir: t.TempDir()}
	return NewRunner(st, &fakeGenerator{}, creator, yt, tg), st
}

func TestRunDaily(t *testing.T) {
	poster := &fakePoster{}
	r, st := newTestRunner(t, &fakeUploader{}, poster)

	result, err := r.RunDaily(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Subject != "Internal Medicine" || result.Topic != "Heart Failure" {
		t.Errorf("result = %+v", result)
	}
	if result.YouTubeID != "vid123" {
		t.Errorf("youtube id = %q", result.YouTubeID)
	}
	if result.TelegramMessageID != "42" {
		t.Errorf("telegram message id = %q", result.TelegramMessageID)
	}
	if poster.lastMsg == "" {
		t.Error("telegram message was empty")
	}

	// The topic is consumed and the rotation state advanced.
	topic, err := st.NextUnusedTopic(1)
	if err != nil {
		t.Fatalf("next topic: %v", err)
	}
	if topic != nil {
		t.Errorf("topic not marked used: %+v", topic)
	}
	ws, err := st.GetWorkflowState()
	if err != nil || ws == nil {
		t.Fatalf("workflow state: %v (%+v)", err, ws)
	}
	if ws.TotalRuns != 1 {
		t.Errorf("total runs = %d, want 1", ws.TotalRuns)
	}

	// The case record carries the distribution results.
	c, err := st.GetCase(result.CaseID)
	if err != nil {
		t.Fatalf("get case: %v", err)
	}
	if c.YouTubeID != "vid123" || c.TelegramMessageID != "42" {
		t.Errorf("case record = %+v", c)
	}
}

func TestRunDailyPublishersFail(t *testing.T) {
	r, _ := newTestRunner(t, &fakeUploader{err: errors.New("quota")}, &fakePoster{err: errors.New("blocked")})

	result, err := r.RunDaily(context.Background())
	if err != nil {
		t.Fatalf("distribution failures must not fail the run: %v", err)
	}
	if result.YouTubeID != "" || result.TelegramMessageID != "" {
		t.Errorf("result should have empty distribution IDs: %+v", result)
	}
	if result.VideoPath == "" {
		t.Error("video path missing")
	}
}

func TestRunDailyNoPublishers(t *testing.T) {
	r, _ := newTestRunner(t, nil, nil)
	result, err := r.RunDaily(context.Background())
	if err != nil {
		t.Fatalf("run without publishers: %v", err)
	}
	if result.CaseID == 0 {
		t.Error("case was not recorded")
	}
}

func TestRunDailyGenerationFatal(t *testing.T) {
	r, _ := newTestRunner(t, nil, nil)
	r.llm = &fakeGenerator{err: errors.New("api down")}

	if _, err := r.RunDaily(context.Background()); err == nil {
		t.Fatal("expected error when lesson generation fails")
	}
}

func TestRunDailyVideoFatal(t *testing.T) {
	r, st := newTestRunner(t, nil, nil)
	r.video = &fakeCreator{err: errors.New("ffmpeg missing")}

	if _, err := r.RunDaily(context.Background()); err == nil {
		t.Fatal("expected error when video creation fails")
	}
	// Nothing was consumed or recorded.
	topic, err := st.NextUnusedTopic(1)
	if err != nil || topic == nil {
		t.Fatalf("topic should remain unused: %v (%+v)", err, topic)
	}
}

func TestRunDailyStartsNewCycle(t *testing.T) {
	r, st := newTestRunner(t, nil, nil)

	first, err := r.RunDaily(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.NewCycle {
		t.Error("first run should not start a cycle")
	}

	second, err := r.RunDaily(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.NewCycle {
		t.Error("second run should recycle the exhausted topic pool")
	}

	topic, err := st.NextUnusedTopic(1)
	if err != nil {
		t.Fatalf("next topic: %v", err)
	}
	if topic != nil && topic.Cycle != 2 {
		t.Errorf("expected cycle 2 topics, got %+v", topic)
	}
}

func TestRunDailyDeleteAfterUpload(t *testing.T) {
	r, _ := newTestRunner(t, &fakeUploader{}, nil)
	r.DeleteAfterUpload = true

	result, err := r.RunDaily(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(result.VideoPath); !os.IsNotExist(err) {
		t.Error("uploaded video file was not deleted")
	}
}

func TestRunDailyNoSubjects(t *testing.T) {
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	r := NewRunner(st, &fakeGenerator{}, &fakeCreator{dir: t.TempDir()}, nil, nil)
	if _, err := r.RunDaily(context.Background()); err == nil {
		t.Fatal("expected error with no subjects")
	}
}
