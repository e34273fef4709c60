package services

import "strings"

// Outcome records the result of a best-effort side action (notification,
// upload, thumbnail save). Callers inspect or log it and then drop it; a
// failed Outcome never aborts the primary workflow.
type Outcome struct {
	Action string
	OK     bool
	Err    error
}

// Attempt runs fn and captures its result as an Outcome.
func Attempt(action string, fn func() error) Outcome {
	if fn == nil {
		return Outcome{Action: action, OK: true}
	}
	if err := fn(); err != nil {
		return Outcome{Action: action, Err: err}
	}
	return Outcome{Action: action, OK: true}
}

// Message returns a short human readable description of the outcome.
func (o Outcome) Message() string {
	if o.OK {
		return "ok"
	}
	if o.Err == nil {
		return "failed"
	}
	return strings.TrimSpace(o.Err.Error())
}
