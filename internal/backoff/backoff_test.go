package backoff

import (
	"testing"
	"time"
)

func TestExponentialDefaultsCapAtSixteenSeconds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 16 * time.Second},
		{6, 16 * time.Second},
		{12, 16 * time.Second},
	}

	for _, tt := range tests {
		if got := Exponential(tt.attempt, nil); got != tt.want {
			t.Errorf("Exponential(%d, nil) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialCustomConfig(t *testing.T) {
	t.Parallel()

	cfg := &Config{Initial: 10 * time.Millisecond, Max: 200 * time.Millisecond}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 10 * time.Millisecond},
		{2, 20 * time.Millisecond},
		{5, 160 * time.Millisecond},
		{6, 200 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := Exponential(tt.attempt, cfg); got != tt.want {
			t.Errorf("Exponential(%d, cfg) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
