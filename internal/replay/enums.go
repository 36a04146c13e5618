package replay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// errUnknownName reports a name missing from an enumeration's table.
var errUnknownName = errors.New("unknown name")

// namedID is the JSON shape shared by every enumeration.
type namedID struct {
	Name string `json:"name"`
	ID   uint64 `json:"id"`
}

// decodeNamedID accepts {"name","id"} objects, bare numeric ids, and bare
// names. lookup resolves a name when no id is present.
func decodeNamedID(data []byte, lookup func(string) (uint64, bool)) (uint64, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, nil
	}
	switch data[0] {
	case '{':
		var v namedID
		if err := json.Unmarshal(data, &v); err != nil {
			return 0, err
		}
		if v.ID != 0 || v.Name == "" {
			return v.ID, nil
		}
		if id, ok := lookup(v.Name); ok {
			return id, nil
		}
		return 0, fmt.Errorf("%w %q", errUnknownName, v.Name)
	case '"':
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return 0, err
		}
		if name == "" {
			return 0, nil
		}
		if id, ok := lookup(name); ok {
			return id, nil
		}
		if id, err := strconv.ParseUint(name, 10, 64); err == nil {
			return id, nil
		}
		return 0, fmt.Errorf("%w %q", errUnknownName, name)
	default:
		var id uint64
		if err := json.Unmarshal(data, &id); err != nil {
			return 0, err
		}
		return id, nil
	}
}

func lookupIn[T ~int | ~uint64](names map[T]string) func(string) (uint64, bool) {
	return func(name string) (uint64, bool) {
		for id, n := range names {
			if n == name {
				return uint64(id), true
			}
		}
		return 0, false
	}
}

func nameOr[T ~int | ~uint64](names map[T]string, v T, typeName string) string {
	if name, ok := names[v]; ok {
		return name
	}
	return typeName + "(" + strconv.FormatUint(uint64(v), 10) + ")"
}

// MatchType is the playlist a round was recorded in.
type MatchType int

const (
	QuickMatch       MatchType = 1
	Ranked           MatchType = 2
	CustomGameLocal  MatchType = 7
	CustomGameOnline MatchType = 8
	Unranked         MatchType = 12
)

var matchTypeNames = map[MatchType]string{
	QuickMatch:       "QuickMatch",
	Ranked:           "Ranked",
	CustomGameLocal:  "CustomGameLocal",
	CustomGameOnline: "CustomGameOnline",
	Unranked:         "Unranked",
}

func (t MatchType) String() string { return nameOr(matchTypeNames, t, "MatchType") }

func (t MatchType) MarshalJSON() ([]byte, error) {
	return json.Marshal(namedID{Name: t.String(), ID: uint64(t)})
}

func (t *MatchType) UnmarshalJSON(data []byte) error {
	id, err := decodeNamedID(data, lookupIn(matchTypeNames))
	if err != nil {
		return fmt.Errorf("match type: %w", err)
	}
	*t = MatchType(id)
	return nil
}

// GameMode is the objective type of a round.
type GameMode int

const (
	Bomb       GameMode = 327933806
	SecureArea GameMode = 1983085217
	Hostage    GameMode = 2838806006
)

var gameModeNames = map[GameMode]string{
	Bomb:       "Bomb",
	SecureArea: "SecureArea",
	Hostage:    "Hostage",
}

func (m GameMode) String() string { return nameOr(gameModeNames, m, "GameMode") }

func (m GameMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(namedID{Name: m.String(), ID: uint64(m)})
}

func (m *GameMode) UnmarshalJSON(data []byte) error {
	id, err := decodeNamedID(data, lookupIn(gameModeNames))
	if err != nil {
		return fmt.Errorf("game mode: %w", err)
	}
	*m = GameMode(id)
	return nil
}

// Map is the world identifier of the map a round was played on.
type Map uint64

const (
	ClubHouse         Map = 837214085
	KafeDostoyevsky   Map = 1378191338
	Kanal             Map = 1460220617
	Yacht             Map = 1767965020
	PresidentialPlane Map = 2609218856
	Consulate         Map = 2609221242
	BartlettU         Map = 2697268122
	Coastline         Map = 42090092951
	Tower             Map = 53627213396
	Villa             Map = 88107330328
	Fortress          Map = 126196841359
	HerefordBase      Map = 127951053400
	ThemePark         Map = 199824623654
	Oregon            Map = 231702797556
	House             Map = 237873412352
	Chalet            Map = 259816839773
	StadiumBravo      Map = 270063334510
	Skyscraper        Map = 276279025182
	Border            Map = 305979357167
	Favela            Map = 329867321446
	Bank              Map = 355496559878
	Outback           Map = 362605108559
	EmeraldPlains     Map = 365284490964
	NighthavenLabs    Map = 378595635123
)

var mapNames = map[Map]string{
	ClubHouse:         "ClubHouse",
	KafeDostoyevsky:   "KafeDostoyevsky",
	Kanal:             "Kanal",
	Yacht:             "Yacht",
	PresidentialPlane: "PresidentialPlane",
	Consulate:         "Consulate",
	BartlettU:         "BartlettU",
	Coastline:         "Coastline",
	Tower:             "Tower",
	Villa:             "Villa",
	Fortress:          "Fortress",
	HerefordBase:      "HerefordBase",
	ThemePark:         "ThemePark",
	Oregon:            "Oregon",
	House:             "House",
	Chalet:            "Chalet",
	StadiumBravo:      "StadiumBravo",
	Skyscraper:        "Skyscraper",
	Border:            "Border",
	Favela:            "Favela",
	Bank:              "Bank",
	Outback:           "Outback",
	EmeraldPlains:     "EmeraldPlains",
	NighthavenLabs:    "NighthavenLabs",
}

func (m Map) String() string { return nameOr(mapNames, m, "Map") }

func (m Map) MarshalJSON() ([]byte, error) {
	return json.Marshal(namedID{Name: m.String(), ID: uint64(m)})
}

func (m *Map) UnmarshalJSON(data []byte) error {
	id, err := decodeNamedID(data, lookupIn(mapNames))
	if err != nil {
		return fmt.Errorf("map: %w", err)
	}
	*m = Map(id)
	return nil
}

// WinCondition explains how the winning team took the round.
type WinCondition string

const (
	KilledOpponents  WinCondition = "KilledOpponents"
	SecuredArea      WinCondition = "SecuredArea"
	DisabledDefuser  WinCondition = "DisabledDefuser"
	DefusedBomb      WinCondition = "DefusedBomb"
	ExtractedHostage WinCondition = "ExtractedHostage"
	Time             WinCondition = "Time"
)

// TeamRole is the side a team played in a round.
type TeamRole string

const (
	Attack  TeamRole = "Attack"
	Defense TeamRole = "Defense"
)

// MatchUpdateType classifies a match feedback entry.
type MatchUpdateType int

const (
	Kill MatchUpdateType = iota
	Death
	DefuserPlantStart
	DefuserPlantComplete
	DefuserDisableStart
	DefuserDisableComplete
	LocateObjective
	OperatorSwap
	Battleye
	PlayerLeave
	Other
)

var matchUpdateTypeNames = map[MatchUpdateType]string{
	Kill:                   "Kill",
	Death:                  "Death",
	DefuserPlantStart:      "DefuserPlantStart",
	DefuserPlantComplete:   "DefuserPlantComplete",
	DefuserDisableStart:    "DefuserDisableStart",
	DefuserDisableComplete: "DefuserDisableComplete",
	LocateObjective:        "LocateObjective",
	OperatorSwap:           "OperatorSwap",
	Battleye:               "Battleye",
	PlayerLeave:            "PlayerLeave",
	Other:                  "Other",
}

func (t MatchUpdateType) String() string {
	if t < 0 {
		return "MatchUpdateType(" + strconv.Itoa(int(t)) + ")"
	}
	return nameOr(matchUpdateTypeNames, t, "MatchUpdateType")
}

func (t MatchUpdateType) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name string `json:"name"`
		ID   int    `json:"id"`
	}{Name: t.String(), ID: int(t)})
}

func (t *MatchUpdateType) UnmarshalJSON(data []byte) error {
	id, err := decodeNamedID(data, lookupIn(matchUpdateTypeNames))
	if err != nil {
		return fmt.Errorf("match update type: %w", err)
	}
	*t = MatchUpdateType(id)
	return nil
}
