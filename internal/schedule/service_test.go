package schedule

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/slacknotify/slacknotify/internal/attachment"
	"github.com/slacknotify/slacknotify/internal/config"
	"github.com/slacknotify/slacknotify/internal/notification"
	"github.com/slacknotify/slacknotify/internal/recipe"
)

type recordingTransport struct {
	mu    sync.Mutex
	posts []notification.OutgoingMessage
	err   error
}

func (t *recordingTransport) PostMessage(_ context.Context, msg notification.OutgoingMessage) (*notification.PostResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return nil, t.err
	}
	t.posts = append(t.posts, msg)
	return &notification.PostResponse{Channel: msg.Channel}, nil
}

func (t *recordingTransport) UploadFile(context.Context, attachment.File, notification.UploadMetadata) (*notification.UploadResponse, error) {
	return nil, errors.New("not used")
}

func newTestService(t *testing.T) (*Service, *recordingTransport) {
	t.Helper()
	tr := &recordingTransport{}
	factory := func() *notification.Notification { return notification.New(tr, nil).To("#default") }
	return NewService(factory, nil), tr
}

func mustRecipe(t *testing.T, doc string) *recipe.Recipe {
	t.Helper()
	r, err := recipe.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse recipe: %v", err)
	}
	return r
}

// ─── Add ───────────────────────────────────────────────────────────────────

func TestAdd_InvalidExpression(t *testing.T) {
	s, _ := newTestService(t)
	err := s.Add(Job{Name: "bad", Schedule: "not a cron", Recipe: mustRecipe(t, "text: x")})
	if err == nil {
		t.Fatal("expected error for invalid expression")
	}
}

func TestAdd_Validation(t *testing.T) {
	s, _ := newTestService(t)
	r := mustRecipe(t, "text: x")
	if err := s.Add(Job{Schedule: "* * * * *", Recipe: r}); err == nil {
		t.Error("expected error without name")
	}
	if err := s.Add(Job{Name: "n", Schedule: "* * * * *"}); err == nil {
		t.Error("expected error without recipe")
	}
	if err := s.Add(Job{Name: "n", Schedule: "* * * * *", TZ: "Nowhere/Nope", Recipe: r}); err == nil {
		t.Error("expected error for unknown timezone")
	}
	if err := s.Add(Job{Name: "n", Schedule: "@hourly", Recipe: r}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Add(Job{Name: "n", Schedule: "@hourly", Recipe: r}); err == nil {
		t.Error("expected error for duplicate name")
	}
}

// ─── RunNow ────────────────────────────────────────────────────────────────

func TestRunNow_ChannelPrecedence(t *testing.T) {
	s, tr := newTestService(t)
	r := mustRecipe(t, "channel: \"#recipe\"\nsteps:\n  - header: daily\n")
	if err := s.Add(Job{Name: "recipe-channel", Schedule: "0 9 * * *", Recipe: r}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(Job{Name: "job-channel", Schedule: "0 9 * * *", Channel: "#job", Recipe: r}); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := s.RunNow(ctx, "recipe-channel"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.RunNow(ctx, "job-channel"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.posts[0].Channel != "#recipe" || tr.posts[1].Channel != "#job" {
		t.Errorf("unexpected channels: %q, %q", tr.posts[0].Channel, tr.posts[1].Channel)
	}
	if len(tr.posts[1].Blocks) != 1 {
		t.Errorf("expected each run to build a fresh message, got %d blocks", len(tr.posts[1].Blocks))
	}
}

func TestRunNow_RecordsFailure(t *testing.T) {
	s, tr := newTestService(t)
	tr.err = &notification.RemoteError{Op: "chat.postMessage", Body: "not_in_channel"}
	if err := s.Add(Job{Name: "j", Schedule: "@daily", Recipe: mustRecipe(t, "text: x")}); err != nil {
		t.Fatal(err)
	}
	if err := s.RunNow(context.Background(), "j"); err == nil {
		t.Fatal("expected error")
	}
	jobs := s.Jobs(time.Now())
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].LastError == "" || jobs[0].LastRun.IsZero() {
		t.Errorf("expected failure to be recorded: %+v", jobs[0])
	}
}

func TestRunNow_Unknown(t *testing.T) {
	s, _ := newTestService(t)
	if err := s.RunNow(context.Background(), "ghost"); !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("expected ErrUnknownJob, got %v", err)
	}
}

// ─── Jobs / Start ──────────────────────────────────────────────────────────

func TestJobs_NextRun(t *testing.T) {
	s, _ := newTestService(t)
	if err := s.Add(Job{Name: "b", Schedule: "0 9 * * *", TZ: "UTC", Recipe: mustRecipe(t, "text: x")}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(Job{Name: "a", Schedule: "@hourly", Recipe: mustRecipe(t, "text: x")}); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 1, 1, 8, 30, 0, 0, time.UTC)
	jobs := s.Jobs(now)
	if jobs[0].Name != "a" || jobs[1].Name != "b" {
		t.Fatalf("expected jobs sorted by name, got %v", jobs)
	}
	want := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	if !jobs[1].Next.Equal(want) {
		t.Errorf("expected next run %v, got %v", want, jobs[1].Next)
	}
}

func TestStart_StopsOnCancel(t *testing.T) {
	s, _ := newTestService(t)
	if err := s.Add(Job{Name: "j", Schedule: "@daily", Recipe: mustRecipe(t, "text: x")}); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestJobsFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "daily.yaml")
	if err := os.WriteFile(path, []byte("text: good morning\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	jobs, err := JobsFromConfig([]config.ScheduleConfig{
		{Name: "daily", Schedule: "0 9 * * *", Channel: "#general", Recipe: path},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Recipe.Text != "good morning" || jobs[0].Channel != "#general" {
		t.Errorf("unexpected jobs: %+v", jobs)
	}

	_, err = JobsFromConfig([]config.ScheduleConfig{{Name: "x", Recipe: filepath.Join(dir, "missing.yaml")}})
	if err == nil {
		t.Error("expected error for missing recipe")
	}
}
