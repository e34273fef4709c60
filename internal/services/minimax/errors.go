package minimax

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// HTTPError reports a transport-level failure (status >= 400).
type HTTPError struct {
	StatusCode int
	Body       string
	Payload    Response
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("minimax request: http %d: %s", e.StatusCode, e.Body)
}

// APIError reports a non-zero status code inside the response envelope.
type APIError struct {
	StatusCode int
	Message    string
	Payload    Response
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("minimax api error %d", e.StatusCode)
	}
	return fmt.Sprintf("minimax api error %d: %s", e.StatusCode, e.Message)
}

// Envelope returns the status code and message of the base_resp envelope. A
// missing envelope or status reports code 0.
func Envelope(payload Response) (int, string) {
	base, ok := payload["base_resp"].(map[string]any)
	if !ok {
		return 0, ""
	}
	msg, _ := base["status_msg"].(string)
	return statusCode(base["status_code"]), strings.TrimSpace(msg)
}

func statusCode(value any) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// TimeoutEnvelope is the synthetic response returned when video polling
// exceeds the configured bound.
func TimeoutEnvelope() Response {
	return Response{
		"base_resp": map[string]any{
			"status_code": float64(-1),
			"status_msg":  "timeout waiting for video",
		},
	}
}
