package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"replaykit/internal/recfile"
	"replaykit/internal/replay"
	"replaykit/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
}

func setupCLITestEnv(t *testing.T, extraTOML string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", base)
	for _, key := range []string{"REPLAYKIT_DECODER_MODE", "REPLAYKIT_DECODER_BINARY", "REPLAYKIT_LIBRARY_PATH", "REPLAYKIT_LOG_DIR", "REPLAYKIT_LOG_LEVEL", "REPLAYKIT_LOG_FORMAT"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}

	configPath := filepath.Join(base, "config.toml")
	content := "[paths]\n" +
		"log_dir = " + quoteTOML(filepath.Join(base, "logs")) + "\n\n" +
		"[library]\n" +
		"path = " + quoteTOML(filepath.Join(base, "data", "library.db")) + "\n\n" +
		"[logging]\n" +
		"level = \"warn\"\n" +
		extraTOML
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{baseDir: base, configPath: configPath}
}

func quoteTOML(value string) string {
	b, _ := json.Marshal(value)
	return string(b)
}

func runCLI(t *testing.T, env *cliTestEnv, stdin []byte, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(bytes.NewReader(stdin))
	}
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func writeReplay(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func aliceAndBob(t *testing.T, roundNumber int) []byte {
	t.Helper()
	b := testsupport.NewReplay()
	b.RoundNumber = roundNumber
	b.Player(testsupport.PlayerPacket{Operator: replay.Ash, DissectID: [4]byte{0xA0, 0, 0, 1}, Spawn: "Main Entrance", Username: "Alice"})
	b.Player(testsupport.PlayerPacket{Operator: replay.Thermite, DissectID: [4]byte{0xA0, 0, 0, 2}, Spawn: "Main Entrance", Username: "Bob"})
	b.Timer(151)
	b.Kill("Alice", "Bob", true)
	return b.Bytes(t)
}

func TestOperatorsPrintsRosterInOrder(t *testing.T) {
	env := setupCLITestEnv(t, "")
	path := writeReplay(t, env.baseDir, "R01.rec", aliceAndBob(t, 1))

	out, err := runCLI(t, env, nil, "operators", path)
	if err != nil {
		t.Fatalf("operators: %v", err)
	}
	want := "Alice is playing Ash\nBob is playing Thermite\n"
	if out != want {
		t.Fatalf("operators output = %q, want %q", out, want)
	}

	out, err = runCLI(t, env, nil, "--json", "operators", path)
	if err != nil {
		t.Fatalf("operators --json: %v", err)
	}
	var lines []operatorLine
	if err := json.Unmarshal([]byte(out), &lines); err != nil {
		t.Fatalf("operators --json output: %v\n%s", err, out)
	}
	if len(lines) != 2 || lines[1].Operator != "Thermite" {
		t.Fatalf("unexpected json lines: %+v", lines)
	}
}

func TestOperatorsEmptyRosterPrintsNothing(t *testing.T) {
	env := setupCLITestEnv(t, "")
	path := writeReplay(t, env.baseDir, "empty.rec", testsupport.NewReplay().Bytes(t))

	out, err := runCLI(t, env, nil, "operators", path)
	if err != nil {
		t.Fatalf("operators: %v", err)
	}
	if out != "" {
		t.Fatalf("expected no output, got %q", out)
	}
}

func TestOperatorsReportsTruncatedReplay(t *testing.T) {
	env := setupCLITestEnv(t, "")
	data := aliceAndBob(t, 1)
	path := writeReplay(t, env.baseDir, "cut.rec", data[:len(data)-7])

	_, err := runCLI(t, env, nil, "operators", path)
	if !errors.Is(err, recfile.ErrTruncatedInput) {
		t.Fatalf("expected truncated input error, got %v", err)
	}
}

func TestDecodeReadsStdin(t *testing.T) {
	env := setupCLITestEnv(t, "")

	out, err := runCLI(t, env, aliceAndBob(t, 1), "decode", "--compact")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var doc struct {
		Players []struct {
			Username string `json:"username"`
			Operator struct {
				Name string `json:"name"`
			} `json:"operator"`
		} `json:"players"`
		MatchFeedback []json.RawMessage `json:"matchFeedback"`
		Stats         []json.RawMessage `json:"stats"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(doc.Players) != 2 || doc.Players[0].Operator.Name != "Ash" {
		t.Fatalf("unexpected players: %+v", doc.Players)
	}
	if len(doc.MatchFeedback) != 1 || len(doc.Stats) != 2 {
		t.Fatalf("unexpected feed/stats lengths: %d/%d", len(doc.MatchFeedback), len(doc.Stats))
	}

	out, err = runCLI(t, env, []byte("not a replay"), "decode", "-")
	if !errors.Is(err, recfile.ErrMalformedContainer) {
		t.Fatalf("expected malformed error, got %v", err)
	}
	var failure errorDocument
	if jsonErr := json.Unmarshal([]byte(out), &failure); jsonErr != nil || failure.Error == "" {
		t.Fatalf("expected error document, got %q (%v)", out, jsonErr)
	}
}

func TestInfoReadsHeaderOnly(t *testing.T) {
	env := setupCLITestEnv(t, "")
	data := aliceAndBob(t, 4)
	// Header decoding ignores a damaged body.
	path := writeReplay(t, env.baseDir, "R05.rec", data[:len(data)-3])

	out, err := runCLI(t, env, nil, "--json", "info", path)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	var doc infoDocument
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("info output: %v\n%s", err, out)
	}
	if doc.Header.RoundNumber != 4 || doc.Header.GameVersion != "Y8S4" || len(doc.Digest) != 64 {
		t.Fatalf("unexpected info document: %+v", doc)
	}

	out, err = runCLI(t, env, nil, "info", path)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	requireContains(t, out, "Y8S4")
	requireContains(t, out, "Your Team (score 0)")
}

func TestStatsAndExportMatchFolder(t *testing.T) {
	env := setupCLITestEnv(t, "")
	dir := filepath.Join(env.baseDir, "Match-2024-03-09")
	testsupport.WriteMatch(t, dir, aliceAndBob(t, 0), aliceAndBob(t, 1))

	out, err := runCLI(t, env, nil, "--json", "stats", dir)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var stats []struct {
		Username string `json:"username"`
		Rounds   int    `json:"rounds"`
		Kills    int    `json:"kills"`
		Deaths   int    `json:"deaths"`
	}
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("stats output: %v\n%s", err, out)
	}
	if len(stats) != 2 || stats[0].Username != "Alice" || stats[0].Kills != 2 || stats[1].Deaths != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	out, err = runCLI(t, env, nil, "stats", dir)
	if err != nil {
		t.Fatalf("stats table: %v", err)
	}
	requireContains(t, out, "Alice")

	xlsx := filepath.Join(env.baseDir, "out", "match.xlsx")
	out, err = runCLI(t, env, nil, "export", dir, "-o", xlsx)
	if err != nil {
		t.Fatalf("export xlsx: %v", err)
	}
	requireContains(t, out, "Exported 2 round(s)")
	f, err := excelize.OpenFile(xlsx)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	if sheets := f.GetSheetList(); len(sheets) != 3 || sheets[0] != "Match" {
		t.Fatalf("unexpected sheets: %v", sheets)
	}

	out, err = runCLI(t, env, nil, "export", dir, "-o", "-")
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	var doc struct {
		Rounds []json.RawMessage `json:"rounds"`
		Stats  []json.RawMessage `json:"stats"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("export output: %v\n%s", err, out)
	}
	if len(doc.Rounds) != 2 || len(doc.Stats) != 2 {
		t.Fatalf("unexpected match document sizes: %d/%d", len(doc.Rounds), len(doc.Stats))
	}

	if _, err := runCLI(t, env, nil, "export", dir, "-o", filepath.Join(env.baseDir, "match.csv")); err == nil {
		t.Fatal("expected unknown format error")
	}
}

func TestIndexAndLibraryCommands(t *testing.T) {
	env := setupCLITestEnv(t, "")
	root := filepath.Join(env.baseDir, "replays")
	testsupport.WriteMatch(t, filepath.Join(root, "Match-A"), aliceAndBob(t, 0), aliceAndBob(t, 1))

	out, err := runCLI(t, env, nil, "index", root)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	requireContains(t, out, "2 indexed")

	out, err = runCLI(t, env, nil, "--json", "index", root)
	if err != nil {
		t.Fatalf("second index: %v", err)
	}
	var summary indexSummaryView
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("index output: %v\n%s", err, out)
	}
	if summary.Indexed != 0 || summary.Skipped != 2 || summary.ScanID == "" {
		t.Fatalf("unexpected second index summary: %+v", summary)
	}

	out, err = runCLI(t, env, nil, "library", "list")
	if err != nil {
		t.Fatalf("library list: %v", err)
	}
	requireContains(t, out, "0e8b3f1c-match")

	out, err = runCLI(t, env, nil, "library", "show", "0e8b3f1c-match")
	if err != nil {
		t.Fatalf("library show: %v", err)
	}
	requireContains(t, out, "Thermite")

	out, err = runCLI(t, env, nil, "library", "operators", "--player", "Alice")
	if err != nil {
		t.Fatalf("library operators: %v", err)
	}
	requireContains(t, out, "Ash")

	out, err = runCLI(t, env, nil, "library", "clear")
	if err != nil {
		t.Fatalf("library clear: %v", err)
	}
	requireContains(t, out, "Removed 2 round(s)")

	out, err = runCLI(t, env, nil, "library", "list")
	if err != nil {
		t.Fatalf("library list after clear: %v", err)
	}
	requireContains(t, out, "Library is empty")
}

func TestExternalDecoderFlag(t *testing.T) {
	binDir := t.TempDir()
	stub := "#!/bin/sh\ncat > /dev/null\nprintf '%s' '{\"players\":[{\"username\":\"Zed\",\"operator\":{\"name\":\"Ash\"}}]}'\n"
	if err := os.WriteFile(filepath.Join(binDir, "fake-dissect"), []byte(stub), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	env := setupCLITestEnv(t, "\n[decoder]\nbinary = \"fake-dissect\"\n")
	path := writeReplay(t, env.baseDir, "R01.rec", aliceAndBob(t, 1))

	out, err := runCLI(t, env, nil, "--decoder", "external", "operators", path)
	if err != nil {
		t.Fatalf("operators with external decoder: %v", err)
	}
	if out != "Zed is playing Ash\n" {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := runCLI(t, env, nil, "--decoder", "bogus", "operators", path); err == nil {
		t.Fatal("expected invalid decoder mode to fail")
	}
}

func TestDoctor(t *testing.T) {
	env := setupCLITestEnv(t, "")
	out, err := runCLI(t, env, nil, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "Library directory")
	requireContains(t, out, "[OK]")

	t.Setenv("PATH", t.TempDir())
	out, err = runCLI(t, env, nil, "--decoder", "external", "doctor")
	if err == nil {
		t.Fatalf("expected doctor to fail without decoder binary:\n%s", out)
	}
	requireContains(t, out, "[ERROR]")
}

func TestConfigCommands(t *testing.T) {
	env := setupCLITestEnv(t, "")

	out, err := runCLI(t, env, nil, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err = runCLI(t, env, nil, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := runCLI(t, env, nil, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}

	out, err = runCLI(t, env, nil, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[decoder]")
	requireContains(t, out, "library.db")
}

func TestVersion(t *testing.T) {
	env := setupCLITestEnv(t, "")
	out, err := runCLI(t, env, nil, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, "replaykit ")
}

func TestLogsPrintsTail(t *testing.T) {
	env := setupCLITestEnv(t, "")
	logPath := filepath.Join(env.baseDir, "logs", "replaykit.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "first scan_id=a\nsecond\nthird scan_id=b\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, err := runCLI(t, env, nil, "logs", "-n", "1", "--grep", "scan_id")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "third scan_id=b\n" {
		t.Fatalf("unexpected logs output %q", out)
	}
}

func TestExportExpandsHomeBeforeChoosingDocument(t *testing.T) {
	env := setupCLITestEnv(t, "")
	testsupport.WriteMatch(t, filepath.Join(env.baseDir, "Match-One"), aliceAndBob(t, 0))

	out, err := runCLI(t, env, nil, "export", "~/Match-One", "-o", "-")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var doc struct {
		Rounds []json.RawMessage `json:"rounds"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("export output: %v\n%s", err, out)
	}
	if len(doc.Rounds) != 1 {
		t.Fatalf("expected a match document with one round, got:\n%s", out)
	}
}

func TestStatsReadsStdin(t *testing.T) {
	env := setupCLITestEnv(t, "")
	out, err := runCLI(t, env, aliceAndBob(t, 0), "--json", "stats", "-")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	requireContains(t, out, `"username": "Alice"`)
}
