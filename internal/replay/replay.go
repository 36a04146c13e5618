package replay

import (
	"encoding/json"
	"errors"
	"time"
)

// Header holds the match metadata recorded at the start of a round.
type Header struct {
	GameVersion            string    `json:"gameVersion"`
	CodeVersion            int       `json:"codeVersion"`
	Timestamp              time.Time `json:"timestamp"`
	MatchType              MatchType `json:"matchType"`
	Map                    Map       `json:"map"`
	Site                   string    `json:"site,omitempty"`
	RecordingPlayerID      uint64    `json:"recordingPlayerID"`
	RecordingProfileID     string    `json:"recordingProfileID,omitempty"`
	AdditionalTags         string    `json:"additionalTags"`
	GameMode               GameMode  `json:"gamemode"`
	RoundsPerMatch         int       `json:"roundsPerMatch"`
	RoundsPerMatchOvertime int       `json:"roundsPerMatchOvertime"`
	RoundNumber            int       `json:"roundNumber"`
	OvertimeRoundNumber    int       `json:"overtimeRoundNumber"`
	Teams                  [2]Team   `json:"teams"`
	Players                []Player  `json:"players"`
	GMSettings             []int     `json:"gmSettings"`
	PlaylistCategory       int       `json:"playlistCategory,omitempty"`
	MatchID                string    `json:"matchID"`
}

// Team is one side of the round.
type Team struct {
	Name         string       `json:"name"`
	Score        int          `json:"score"`
	Won          bool         `json:"won"`
	WinCondition WinCondition `json:"winCondition,omitempty"`
	Role         TeamRole     `json:"role,omitempty"`
}

// Player is a participant in the round. Usernames are unique within a
// Replay.
type Player struct {
	ID           uint64   `json:"id,omitempty"`
	ProfileID    string   `json:"profileID,omitempty"`
	Username     string   `json:"username"`
	TeamIndex    int      `json:"teamIndex"`
	Operator     Operator `json:"operator"`
	HeroName     int      `json:"heroName,omitempty"`
	Alliance     int      `json:"alliance"`
	RoleImage    int      `json:"roleImage,omitempty"`
	RoleName     string   `json:"roleName,omitempty"`
	RolePortrait int      `json:"rolePortrait,omitempty"`
	Spawn        string   `json:"spawn,omitempty"`

	// UnknownOperator is the name reported for an operator missing from the
	// known roster. Operator is zero when it is set.
	UnknownOperator string `json:"-"`
}

// OperatorName is the operator's name, falling back to UnknownOperator.
func (p Player) OperatorName() string {
	if p.Operator == 0 {
		return p.UnknownOperator
	}
	return p.Operator.Name()
}

type playerFields Player

func (p Player) MarshalJSON() ([]byte, error) {
	if p.Operator != 0 || p.UnknownOperator == "" {
		return json.Marshal(playerFields(p))
	}
	return json.Marshal(struct {
		playerFields
		Operator namedID `json:"operator"`
	}{playerFields(p), namedID{Name: p.UnknownOperator}})
}

// UnmarshalJSON keeps operator names missing from the roster in
// UnknownOperator instead of failing.
func (p *Player) UnmarshalJSON(data []byte) error {
	var raw struct {
		*playerFields
		Operator json.RawMessage `json:"operator"`
	}
	raw.playerFields = (*playerFields)(p)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var err error
	p.Operator, p.UnknownOperator, err = decodeOperator(raw.Operator)
	return err
}

// decodeOperator resolves an operator JSON value. A name missing from the
// roster is returned as the second value with a zero Operator.
func decodeOperator(data json.RawMessage) (Operator, string, error) {
	if len(data) == 0 {
		return 0, "", nil
	}
	var op Operator
	err := json.Unmarshal(data, &op)
	if errors.Is(err, ErrUnknownOperator) {
		return 0, operatorLabel(data), nil
	}
	return op, "", err
}

// DefenderAlliance is the alliance value the game assigns to defenders.
const DefenderAlliance = 4

// MatchUpdate is one entry of the in-round feedback feed.
type MatchUpdate struct {
	Type          MatchUpdateType `json:"type"`
	Username      string          `json:"username,omitempty"`
	Target        string          `json:"target,omitempty"`
	Headshot      *bool           `json:"headshot,omitempty"`
	Time          string          `json:"time"`
	TimeInSeconds float64         `json:"timeInSeconds"`
	Message       string          `json:"message,omitempty"`
	Operator      Operator        `json:"operator,omitempty"`

	// UnknownOperator is the name reported for a swap to an operator
	// missing from the known roster.
	UnknownOperator string `json:"-"`
}

type updateFields MatchUpdate

func (u MatchUpdate) MarshalJSON() ([]byte, error) {
	if u.Operator != 0 || u.UnknownOperator == "" {
		return json.Marshal(updateFields(u))
	}
	return json.Marshal(struct {
		updateFields
		Operator namedID `json:"operator"`
	}{updateFields(u), namedID{Name: u.UnknownOperator}})
}

func (u *MatchUpdate) UnmarshalJSON(data []byte) error {
	var raw struct {
		*updateFields
		Operator json.RawMessage `json:"operator"`
	}
	raw.updateFields = (*updateFields)(u)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var err error
	u.Operator, u.UnknownOperator, err = decodeOperator(raw.Operator)
	return err
}

// IsHeadshot reports whether the update is a kill confirmed as a headshot.
func (u MatchUpdate) IsHeadshot() bool {
	return u.Type == Kill && u.Headshot != nil && *u.Headshot
}

// Replay is a decoded round. It is built once by a decoder and treated as
// read-only afterwards.
type Replay struct {
	Header
	MatchFeedback []MatchUpdate `json:"matchFeedback"`
}

// PlayerIndex returns the roster index of username, or -1.
func (r *Replay) PlayerIndex(username string) int {
	for i, p := range r.Players {
		if p.Username == username {
			return i
		}
	}
	return -1
}

// Player returns the roster entry for username.
func (r *Replay) Player(username string) (Player, bool) {
	if i := r.PlayerIndex(username); i >= 0 {
		return r.Players[i], true
	}
	return Player{}, false
}

// RecordingPlayer returns the player whose client recorded the replay.
func (h Header) RecordingPlayer() (Player, bool) {
	for _, p := range h.Players {
		if p.ID == h.RecordingPlayerID {
			return p, true
		}
	}
	return Player{}, false
}

// WinningTeamIndex returns the index of the team marked as the round
// winner, defaulting to 0 when neither team is marked.
func (h Header) WinningTeamIndex() int {
	if h.Teams[1].Won {
		return 1
	}
	return 0
}
