package stage

import (
	"context"
	"log/slog"

	"menucast/internal/menu"
	"menucast/internal/platforms"
	"menucast/internal/services"
)

// Job is one menu item moving through the pipeline.
type Job struct {
	Item      menu.Item
	Platforms []platforms.Spec
	Upload    bool

	// Outcomes collects best-effort side actions (bundle uploads) taken while
	// the job ran. They never change a stage status.
	Outcomes []services.Outcome
}

// Handler describes the contract the orchestrator needs from each stage.
type Handler interface {
	Execute(context.Context, *Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(context.Context, *Job) error

// Execute calls f.
func (f HandlerFunc) Execute(ctx context.Context, job *Job) error {
	return f(ctx, job)
}

// LoggerAware handlers receive the stage-scoped logger before execution.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
