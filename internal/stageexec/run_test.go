package stageexec

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"menucast/internal/menu"
	"menucast/internal/services"
	"menucast/internal/stage"
)

type recordedStage struct {
	stage   string
	outcome string
	elapsed time.Duration
}

type fakeRecorder struct {
	calls []recordedStage
}

func (f *fakeRecorder) RecordStage(_ context.Context, name, outcome string, elapsed time.Duration) {
	f.calls = append(f.calls, recordedStage{stage: name, outcome: outcome, elapsed: elapsed})
}

type steppingClock struct {
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	current := c.now
	c.now = c.now.Add(c.step)
	return current
}

func newJob() *stage.Job {
	return &stage.Job{Item: menu.Item{Slug: "lasagna", Name: "Lasagna"}}
}

func TestRunSuccessRecordsDuration(t *testing.T) {
	recorder := &fakeRecorder{}
	clock := &steppingClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), step: 1500 * time.Millisecond}
	var sawSlug bool
	handler := stage.HandlerFunc(func(ctx context.Context, job *stage.Job) error {
		slug, ok := services.SlugFromContext(ctx)
		sawSlug = ok && slug == job.Item.Slug
		return nil
	})

	status, err := Run(context.Background(), Options{
		Recorder:  recorder,
		Handler:   handler,
		StageName: stage.Image,
		Job:       newJob(),
		Now:       clock.Now,
	})
	if err != nil || status != stage.StatusOK {
		t.Fatalf("Run = %q, %v", status, err)
	}
	if !sawSlug {
		t.Fatal("expected slug on stage context")
	}
	if len(recorder.calls) != 1 || recorder.calls[0].outcome != "ok" || recorder.calls[0].elapsed != 1500*time.Millisecond {
		t.Fatalf("unexpected recorder calls %+v", recorder.calls)
	}
}

func TestRunFailureStatus(t *testing.T) {
	recorder := &fakeRecorder{}
	cause := services.Wrap(services.ErrNotFound, "audio", "voice", "narration script not found", nil)
	status, err := Run(context.Background(), Options{
		Recorder:  recorder,
		Handler:   stage.HandlerFunc(func(context.Context, *stage.Job) error { return cause }),
		StageName: stage.Audio,
		Job:       newJob(),
	})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected wrapped not found, got %v", err)
	}
	if !strings.HasPrefix(status, "error: ") || !strings.Contains(status, "narration script not found") {
		t.Fatalf("unexpected status %q", status)
	}
	if recorder.calls[0].outcome != "not_found" {
		t.Fatalf("expected not_found outcome, got %q", recorder.calls[0].outcome)
	}
}

func TestRunRecoversPanic(t *testing.T) {
	status, err := Run(context.Background(), Options{
		Handler:   stage.HandlerFunc(func(context.Context, *stage.Job) error { panic("kaboom") }),
		StageName: stage.Video,
		Job:       newJob(),
	})
	if err == nil || !stage.IsError(status) || !strings.Contains(status, "kaboom") {
		t.Fatalf("expected panic converted to error status, got %q %v", status, err)
	}
}

func TestRunRequiresHandler(t *testing.T) {
	status, err := Run(context.Background(), Options{StageName: stage.Content, Job: newJob()})
	if err == nil || !stage.IsError(status) {
		t.Fatalf("expected error for missing handler, got %q %v", status, err)
	}
}
