package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"replaykit/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "replaykit", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	wantLibrary := filepath.Join(tempHome, ".local", "share", "replaykit", "library.db")
	if cfg.Library.Path != wantLibrary {
		t.Fatalf("unexpected library path: got %q want %q", cfg.Library.Path, wantLibrary)
	}
	if cfg.Decoder.Mode != config.DecoderModeNative {
		t.Fatalf("expected native decoder by default, got %q", cfg.Decoder.Mode)
	}
	if cfg.External() {
		t.Fatal("expected External() false by default")
	}
	if cfg.Decoder.Workers != config.Default().Decoder.Workers {
		t.Fatalf("unexpected workers: %d", cfg.Decoder.Workers)
	}
	if cfg.Paths.LogDir != "" {
		t.Fatalf("expected empty log dir, got %q", cfg.Paths.LogDir)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if info, err := os.Stat(filepath.Dir(wantLibrary)); err != nil || !info.IsDir() {
		t.Fatalf("expected library directory to exist: %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "replaykit.toml")

	type payload struct {
		Decoder struct {
			Mode    string   `toml:"mode"`
			Binary  string   `toml:"binary"`
			Args    []string `toml:"args"`
			Workers int      `toml:"workers"`
		} `toml:"decoder"`
		Library struct {
			Path string `toml:"path"`
		} `toml:"library"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Decoder.Mode = " External "
	custom.Decoder.Binary = "r6-dissect"
	custom.Decoder.Args = []string{"--format", "json"}
	custom.Decoder.Workers = 2
	custom.Library.Path = filepath.Join(tempDir, "lib", "replays.db")
	custom.Logging.Format = "JSON"
	custom.Logging.Level = "DEBUG"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if !cfg.External() {
		t.Fatalf("expected external mode, got %q", cfg.Decoder.Mode)
	}
	if strings.Join(cfg.Decoder.Args, " ") != "--format json" {
		t.Fatalf("unexpected args: %v", cfg.Decoder.Args)
	}
	if cfg.Decoder.Workers != 2 {
		t.Fatalf("unexpected workers: %d", cfg.Decoder.Workers)
	}
	if cfg.Decoder.TimeoutSeconds != config.Default().Decoder.TimeoutSeconds {
		t.Fatalf("expected default timeout, got %d", cfg.Decoder.TimeoutSeconds)
	}
	if cfg.Library.Path != custom.Library.Path {
		t.Fatalf("unexpected library path: %q", cfg.Library.Path)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging, got %+v", cfg.Logging)
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[logging]\nlevel = \"warn\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("REPLAYKIT_LOG_LEVEL", "error")
	t.Setenv("REPLAYKIT_DECODER_MODE", "external")
	t.Setenv("REPLAYKIT_DECODER_BINARY", "dissect-cli")
	t.Setenv("REPLAYKIT_LIBRARY_PATH", "~/replays.db")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Level != "error" {
		t.Fatalf("expected env log level, got %q", cfg.Logging.Level)
	}
	if !cfg.External() || cfg.Decoder.Binary != "dissect-cli" {
		t.Fatalf("expected env decoder override, got %+v", cfg.Decoder)
	}
	if cfg.Library.Path != filepath.Join(tempHome, "replays.db") {
		t.Fatalf("expected expanded env library path, got %q", cfg.Library.Path)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown mode", "[decoder]\nmode = \"remote\"\n", "decoder.mode"},
		{"bad level", "[logging]\nlevel = \"verbose\"\n", "logging.level"},
		{"unknown key", "[decoder]\nthreads = 3\n", "parse config"},
		{"bad toml", "[decoder\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Decoder.Mode != config.DecoderModeNative {
		t.Fatalf("unexpected sample mode %q", cfg.Decoder.Mode)
	}

	out, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(out), "[decoder]") {
		t.Fatalf("expected decoder section in %s", out)
	}
}
