package export

import (
	"encoding/json"
	"fmt"
	"io"

	"replaykit/internal/match"
	"replaykit/internal/replay"
)

// RoundDocument is the JSON shape of one round: the header fields at the
// top level, the feed and per-player statistics.
type RoundDocument struct {
	replay.Header
	MatchFeedback []replay.MatchUpdate      `json:"matchFeedback"`
	Stats         []replay.PlayerRoundStats `json:"stats"`
}

// MatchDocument is the JSON shape of a match folder.
type MatchDocument struct {
	Rounds []RoundDocument          `json:"rounds"`
	Stats  []match.PlayerMatchStats `json:"stats"`
}

// NewRoundDocument builds the document for r.
func NewRoundDocument(r *replay.Replay) RoundDocument {
	feed := r.MatchFeedback
	if feed == nil {
		feed = []replay.MatchUpdate{}
	}
	return RoundDocument{
		Header:        r.Header,
		MatchFeedback: feed,
		Stats:         r.PlayerStats(),
	}
}

// NewMatchDocument builds the document for rounds in order.
func NewMatchDocument(rounds []*replay.Replay) MatchDocument {
	doc := MatchDocument{
		Rounds: make([]RoundDocument, 0, len(rounds)),
		Stats:  match.AggregateStats(rounds),
	}
	for _, r := range rounds {
		doc.Rounds = append(doc.Rounds, NewRoundDocument(r))
	}
	return doc
}

// WriteJSON encodes v followed by a newline. Indented output uses two
// spaces.
func WriteJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
