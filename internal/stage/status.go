package stage

import "strings"

// Stage names in pipeline order.
const (
	Validate = "validate"
	Image    = "image"
	Content  = "content"
	Audio    = "audio"
	Video    = "video"
	Finalize = "finalize"
)

// Order lists every stage in execution order.
var Order = []string{Validate, Image, Content, Audio, Video, Finalize}

// Status values recorded per stage.
const (
	StatusOK           = "ok"
	StatusSkipped      = "skipped"
	StatusMissingImage = "missing-image"
	errorPrefix        = "error"
)

// ErrorStatus renders a failed stage status.
func ErrorStatus(err error) string {
	if err == nil {
		return errorPrefix + ": stage failed"
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = "stage failed"
	}
	return errorPrefix + ": " + msg
}

// IsError reports whether status marks a failed stage.
func IsError(status string) bool {
	return strings.HasPrefix(status, errorPrefix)
}

// Statuses maps stage name to status for one item.
type Statuses map[string]string

// Failed reports whether any stage recorded an error.
func (s Statuses) Failed() bool {
	for _, status := range s {
		if IsError(status) {
			return true
		}
	}
	return false
}

// Entry is one stage/status pair.
type Entry struct {
	Stage  string
	Status string
}

// Ordered returns the recorded statuses in pipeline order.
func (s Statuses) Ordered() []Entry {
	out := make([]Entry, 0, len(s))
	for _, name := range Order {
		if status, ok := s[name]; ok {
			out = append(out, Entry{Stage: name, Status: status})
		}
	}
	return out
}

// String renders the statuses as "stage=status" pairs in pipeline order.
func (s Statuses) String() string {
	parts := make([]string, 0, len(s))
	for _, entry := range s.Ordered() {
		parts = append(parts, entry.Stage+"="+entry.Status)
	}
	return strings.Join(parts, " ")
}
