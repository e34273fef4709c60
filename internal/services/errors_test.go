package services_test

import (
	"errors"
	"strings"
	"testing"

	"menucast/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "video", "render", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"video", "render", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := map[string]error{
		"ok":         nil,
		"not_found":  services.Wrap(services.ErrNotFound, "audio", "voice", "no narration", nil),
		"validation": services.Wrap(services.ErrValidation, "content", "copy", "bad", nil),
		"failed":     errors.New("plain"),
	}
	for want, err := range cases {
		if got := services.Classify(err); got != want {
			t.Fatalf("Classify(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestAttemptCapturesFailure(t *testing.T) {
	outcome := services.Attempt("webhook", func() error { return errors.New("refused") })
	if outcome.OK {
		t.Fatal("expected failed outcome")
	}
	if outcome.Message() != "refused" {
		t.Fatalf("unexpected message %q", outcome.Message())
	}
	if ok := services.Attempt("noop", nil); !ok.OK || ok.Message() != "ok" {
		t.Fatalf("expected ok outcome, got %+v", ok)
	}
}
