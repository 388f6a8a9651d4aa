package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/medishorts/internal/store"
	"github.com/pavelanni/medishorts/internal/workflow"
)

type fakeRunner struct {
	mu     sync.Mutex
	calls  int
	block  chan struct{}
	err    error
	result *workflow.Result
}

func (f *fakeRunner) RunDaily(ctx context.Context) (*workflow.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &workflow.Result{Subject: "Internal Medicine", Topic: "Heart Failure", CaseID: 1}, nil
}

func newTestServer(t *testing.T, runner DailyRunner) *httptest.Server {
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

	h := New(st, runner)
	r := chi.NewRouter()
	h.Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{})

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestStats(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{})

	resp, err := http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	var stats struct {
		TotalSubjects int `json:"total_subjects"`
		TotalTopics   int `json:"total_topics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalSubjects != 1 || stats.TotalTopics != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRunTrigger(t *testing.T) {
	runner := &fakeRunner{}
	srv := newTestServer(t, runner)

	resp, err := http.Post(srv.URL+"/run", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	var result workflow.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Subject != "Internal Medicine" {
		t.Errorf("result = %+v", result)
	}
	if runner.calls != 1 {
		t.Errorf("runner calls = %d", runner.calls)
	}
}

func TestRunFailure(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{err: errors.New("no topics")})

	resp, err := http.Post(srv.URL+"/run", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestRunRejectsConcurrent(t *testing.T) {
	block := make(chan struct{})
	runner := &fakeRunner{block: block}
	srv := newTestServer(t, runner)

	done := make(chan struct{})
	go func() {
		defer close(done)
		resp, err := http.Post(srv.URL+"/run", "application/json", nil)
		if err == nil {
			resp.Body.Close()
		}
	}()

	// Wait for the first run to be in flight.
	deadline := time.Now().Add(2 * time.Second)
	for {
		runner.mu.Lock()
		started := runner.calls == 1
		runner.mu.Unlock()
		if started {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("first run never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := http.Post(srv.URL+"/run", "application/json", nil)
	if err != nil {
		t.Fatalf("second post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("concurrent run status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	close(block)
	<-done
}
