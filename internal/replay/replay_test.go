package replay_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"replaykit/internal/replay"
)

func TestEnumsMarshalAsNameAndID(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"operator", replay.Ash, `{"name":"Ash","id":92270642656}`},
		{"unassigned operator", replay.Operator(0), `{"name":"","id":0}`},
		{"unknown operator", replay.Operator(7), `{"name":"Operator(7)","id":7}`},
		{"map", replay.ClubHouse, `{"name":"ClubHouse","id":837214085}`},
		{"game mode", replay.Bomb, `{"name":"Bomb","id":327933806}`},
		{"match type", replay.Ranked, `{"name":"Ranked","id":2}`},
		{"update type", replay.DefuserPlantComplete, `{"name":"DefuserPlantComplete","id":3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("got %s want %s", got, tt.want)
			}
		})
	}
}

func TestOperatorUnmarshalAcceptsNameOnly(t *testing.T) {
	var p replay.Player
	if err := json.Unmarshal([]byte(`{"username":"Alice","operator":{"name":"Thermite"}}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Operator != replay.Thermite {
		t.Fatalf("operator = %v, want Thermite", p.Operator)
	}

	if err := json.Unmarshal([]byte(`{"username":"Bob","operator":"Ash"}`), &p); err != nil {
		t.Fatalf("unmarshal bare name: %v", err)
	}
	if p.Operator != replay.Ash {
		t.Fatalf("operator = %v, want Ash", p.Operator)
	}

	var op replay.Operator
	err := json.Unmarshal([]byte(`{"name":"Nobody"}`), &op)
	if !errors.Is(err, replay.ErrUnknownOperator) || !strings.Contains(err.Error(), "Nobody") {
		t.Fatalf("expected unknown operator error, got %v", err)
	}
}

func TestPlayerKeepsUnknownOperatorName(t *testing.T) {
	var p replay.Player
	if err := json.Unmarshal([]byte(`{"username":"Bob","operator":{"name":"Deimos"}}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Operator != 0 || p.UnknownOperator != "Deimos" || p.OperatorName() != "Deimos" {
		t.Fatalf("unexpected player %+v", p)
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"operator":{"name":"Deimos","id":0}`) {
		t.Fatalf("name lost on marshal: %s", data)
	}

	if err := json.Unmarshal([]byte(`{"username":"Bob","operator":"Ash"}`), &p); err != nil {
		t.Fatalf("unmarshal known: %v", err)
	}
	if p.Operator != replay.Ash || p.UnknownOperator != "" {
		t.Fatalf("stale fallback name: %+v", p)
	}
}

func TestMatchUpdateKeepsUnknownOperatorName(t *testing.T) {
	var u replay.MatchUpdate
	if err := json.Unmarshal([]byte(`{"type":"OperatorSwap","username":"Bob","operator":"Fenrir","time":"2:55"}`), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if u.Type != replay.OperatorSwap || u.UnknownOperator != "Fenrir" || u.Time != "2:55" {
		t.Fatalf("unexpected update %+v", u)
	}
	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"operator":{"name":"Fenrir","id":0}`) {
		t.Fatalf("name lost on marshal: %s", data)
	}
}

func TestUnknownMapSurvivesRoundTrip(t *testing.T) {
	in := replay.Map(123456)
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out replay.Map
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("got %d want %d", out, in)
	}
	if out.String() != "Map(123456)" {
		t.Fatalf("unexpected name %q", out.String())
	}
}

func TestOperatorRoles(t *testing.T) {
	if role, err := replay.Ash.Role(); err != nil || role != replay.Attack {
		t.Fatalf("Ash role = %q, %v", role, err)
	}
	if role, err := replay.Smoke.Role(); err != nil || role != replay.Defense {
		t.Fatalf("Smoke role = %q, %v", role, err)
	}
	if _, err := replay.Operator(1).Role(); err == nil {
		t.Fatal("expected error for unknown operator")
	}
	ops := replay.Operators()
	for i := 1; i < len(ops); i++ {
		if ops[i-1] >= ops[i] {
			t.Fatalf("operators not sorted at %d", i)
		}
	}
}

func TestReplayJSONFlattensHeader(t *testing.T) {
	r := replay.Replay{
		Header: replay.Header{
			GameVersion: "Y8S4",
			Players:     []replay.Player{{Username: "Alice", Operator: replay.Ash}},
		},
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if generic["gameVersion"] != "Y8S4" {
		t.Fatalf("expected flattened gameVersion, got %v", generic)
	}
	if _, ok := generic["players"]; !ok {
		t.Fatal("expected players at top level")
	}
}
