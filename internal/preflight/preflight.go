package preflight

import (
	"context"

	"menucast/internal/config"
)

// MinFreeBytes is the free space required on the build volume.
const MinFreeBytes uint64 = 1 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Pinger verifies backend reachability with a single request.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// RunAll executes every preflight check. The backend is only contacted when
// an API key is present and a pinger is supplied.
func RunAll(ctx context.Context, cfg *config.Config, backend Pinger) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Build directory", cfg.Paths.BuildDir),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Menu directory", cfg.Paths.MenuDir),
		CheckFreeSpace("Build volume", cfg.Paths.BuildDir, MinFreeBytes),
	}

	key := CheckAPIKey(cfg.MiniMax.APIKey)
	results = append(results, key)
	if key.Passed && backend != nil {
		results = append(results, CheckBackend(ctx, backend))
	}
	return results
}

// Failed reports whether any check did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
