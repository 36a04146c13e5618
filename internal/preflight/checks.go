package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"replaykit/internal/config"
	"replaykit/internal/deps"
	"replaykit/internal/library"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckLibrary verifies that the library database opens with the current
// schema. A missing database passes; the first index run creates it.
func CheckLibrary(ctx context.Context, path string) Result {
	const name = "Library database"
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not created yet)", path)}
	}
	store, err := library.Open(path)
	if err != nil {
		if errors.Is(err, library.ErrSchemaMismatch) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: schema mismatch, delete it and run 'replaykit index')", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()

	matches, err := store.ListMatches(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d matches)", path, len(matches))}
}

// CheckSystemDeps reports the external programs cfg may run. anchor is the
// running executable, used to find a decoder shipped alongside it.
func CheckSystemDeps(cfg *config.Config, anchor string) []deps.Status {
	req := deps.Requirement{
		Name:        "External decoder",
		Command:     cfg.Decoder.Binary,
		Description: "Decodes replays when decoder.mode is external",
		Optional:    !cfg.External(),
	}
	return []deps.Status{deps.CheckSidecar(req, anchor)}
}
