package export_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"replaykit/internal/export"
	"replaykit/internal/replay"
)

func headshot(v bool) *bool { return &v }

func sampleRound(number int) *replay.Replay {
	return &replay.Replay{
		Header: replay.Header{
			GameVersion: "Y8S4",
			Map:         replay.Map(0),
			GameMode:    replay.Bomb,
			RoundNumber: number,
			Site:        "2F Master Office, 2F Kids Room",
			Teams: [2]replay.Team{
				{Name: "YOUR TEAM", Role: replay.Attack},
				{Name: "OPPONENTS", Role: replay.Defense, Won: true, WinCondition: replay.KilledOpponents},
			},
			Players: []replay.Player{
				{Username: "Alice", TeamIndex: 0},
				{Username: "Finn", TeamIndex: 1},
				{Username: "Gus", TeamIndex: 1},
			},
		},
		MatchFeedback: []replay.MatchUpdate{
			{Type: replay.Kill, Username: "Alice", Target: "Finn", Headshot: headshot(true), Time: "2:31", TimeInSeconds: 151},
			{Type: replay.Kill, Username: "Gus", Target: "Alice", Headshot: headshot(false), Time: "2:20", TimeInSeconds: 140},
			{Type: replay.DefuserPlantComplete, Username: "Alice", Time: "1:10", TimeInSeconds: 70},
		},
	}
}

func TestMatchDocumentJSON(t *testing.T) {
	rounds := []*replay.Replay{sampleRound(1), sampleRound(2)}
	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, export.NewMatchDocument(rounds), true); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var doc struct {
		Rounds []map[string]json.RawMessage `json:"rounds"`
		Stats  []struct {
			Username string `json:"username"`
			Rounds   int    `json:"rounds"`
			Kills    int    `json:"kills"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not json: %v\n%s", err, buf.String())
	}
	if len(doc.Rounds) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(doc.Rounds))
	}
	for _, key := range []string{"gameVersion", "players", "matchFeedback", "stats"} {
		if _, ok := doc.Rounds[0][key]; !ok {
			t.Fatalf("round document missing %q", key)
		}
	}
	var alice bool
	for _, s := range doc.Stats {
		if s.Username == "Alice" {
			alice = true
			if s.Rounds != 2 || s.Kills != 2 {
				t.Fatalf("unexpected Alice stats: %+v", s)
			}
		}
	}
	if !alice {
		t.Fatalf("Alice missing from match stats: %s", buf.String())
	}
}

func TestRoundDocumentEmptyFeed(t *testing.T) {
	r := sampleRound(1)
	r.MatchFeedback = nil
	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, export.NewRoundDocument(r), false); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"matchFeedback":[]`)) {
		t.Fatalf("expected empty feed array, got %s", buf.String())
	}
}

func TestWriteExcel(t *testing.T) {
	rounds := []*replay.Replay{sampleRound(1), sampleRound(2)}
	var buf bytes.Buffer
	if err := export.WriteExcel(&buf, rounds); err != nil {
		t.Fatalf("WriteExcel failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })

	sheets := f.GetSheetList()
	want := []string{"Match", "Round 1", "Round 2"}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Fatalf("sheets = %v, want %v", sheets, want)
		}
	}

	cell := func(sheet, name string) string {
		t.Helper()
		v, err := f.GetCellValue(sheet, name)
		if err != nil {
			t.Fatalf("read %s!%s: %v", sheet, name, err)
		}
		return v
	}
	if got := cell("Match", "A2"); got != "Player" {
		t.Fatalf("Match!A2 = %q", got)
	}
	if got := cell("Match", "A3"); got != "Alice" {
		t.Fatalf("Match!A3 = %q", got)
	}
	if got := cell("Round 1", "A3"); got != "Alice" {
		t.Fatalf("Round 1!A3 = %q", got)
	}

	rows, err := f.GetRows("Round 1")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	found := map[string]string{}
	for _, row := range rows {
		if len(row) >= 2 {
			found[row[0]] = row[1]
		}
	}
	if found["Winning team"] != "OPPONENTS [1]" {
		t.Fatalf("winning team row = %q", found["Winning team"])
	}
	if found["Win condition"] != string(replay.KilledOpponents) {
		t.Fatalf("win condition row = %q", found["Win condition"])
	}
	if found["Opening kill"] != "Alice" || found["Opening death"] != "Finn" {
		t.Fatalf("opening rows = %q / %q", found["Opening kill"], found["Opening death"])
	}
	if found["Planted at"] != "1:10" {
		t.Fatalf("planted row = %q", found["Planted at"])
	}
	if found["Gus"] != "Alice" {
		t.Fatalf("expected Gus kill row, got %v", found)
	}
}

func TestFormatForPath(t *testing.T) {
	cases := map[string]export.Format{
		"match.json":     export.FormatJSON,
		"out/MATCH.XLSX": export.FormatExcel,
	}
	for path, want := range cases {
		got, err := export.FormatForPath(path)
		if err != nil || got != want {
			t.Fatalf("FormatForPath(%q) = %q, %v; want %q", path, got, err, want)
		}
	}
	if _, err := export.FormatForPath("match.csv"); !errors.Is(err, export.ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}
