package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"replaykit/internal/config"
	"replaykit/internal/library"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.db")
	if result := CheckLibrary(context.Background(), path); !result.Passed || !strings.Contains(result.Detail, "not created yet") {
		t.Fatalf("expected pass for missing library, got %+v", result)
	}

	store, err := library.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()
	if result := CheckLibrary(context.Background(), path); !result.Passed || !strings.Contains(result.Detail, "0 matches") {
		t.Fatalf("expected pass for empty library, got %+v", result)
	}

	garbage := filepath.Join(t.TempDir(), "garbage.db")
	if err := os.WriteFile(garbage, []byte("definitely not sqlite, just some bytes that are long enough"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckLibrary(context.Background(), garbage); result.Passed {
		t.Fatalf("expected failure for corrupt library, got %+v", result)
	}
}

func TestRunAllCoversConfiguredPaths(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Library.Path = filepath.Join(base, "data", "library.db")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %+v", results)
	}
	for _, r := range results {
		if !r.Passed {
			t.Fatalf("expected %s to pass, got %s", r.Name, r.Detail)
		}
	}
}

func TestCheckSystemDepsOptionalForNativeMode(t *testing.T) {
	t.Setenv("PATH", "")
	cfg := config.Default()
	cfg.Decoder.Binary = "r6-dissect"

	statuses := CheckSystemDeps(&cfg, "")
	if len(statuses) != 1 || statuses[0].Available || !statuses[0].Optional {
		t.Fatalf("expected optional missing decoder, got %+v", statuses)
	}

	cfg.Decoder.Mode = config.DecoderModeExternal
	statuses = CheckSystemDeps(&cfg, "")
	if statuses[0].Optional {
		t.Fatalf("expected decoder to be required in external mode, got %+v", statuses[0])
	}
}
