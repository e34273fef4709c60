package stage

import (
	"errors"
	"testing"
)

func TestErrorStatus(t *testing.T) {
	if got := ErrorStatus(errors.New(" boom ")); got != "error: boom" {
		t.Fatalf("unexpected status %q", got)
	}
	if got := ErrorStatus(nil); !IsError(got) {
		t.Fatalf("nil error should still render an error status, got %q", got)
	}
	if IsError(StatusOK) || IsError(StatusSkipped) || IsError(StatusMissingImage) {
		t.Fatal("non-error statuses misclassified")
	}
}

func TestStatusesOrderedAndFailed(t *testing.T) {
	statuses := Statuses{
		Content:  "error: no text",
		Validate: StatusOK,
		Image:    StatusSkipped,
	}
	if !statuses.Failed() {
		t.Fatal("expected failure")
	}
	if got := statuses.String(); got != "validate=ok image=skipped content=error: no text" {
		t.Fatalf("unexpected rendering %q", got)
	}
	if (Statuses{Validate: StatusMissingImage}).Failed() {
		t.Fatal("missing-image is terminal but not an error")
	}
}
