package preflight

import (
	"context"
	"path/filepath"

	"replaykit/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	results = append(results, CheckDirectoryAccess("Library directory", filepath.Dir(cfg.Library.Path)))
	results = append(results, CheckLibrary(ctx, cfg.Library.Path))
	return results
}
