package match

import "replaykit/internal/replay"

// PlayerMatchStats aggregates one player's rounds.
type PlayerMatchStats struct {
	Username           string  `json:"username"`
	TeamIndex          int     `json:"-"`
	Rounds             int     `json:"rounds"`
	Kills              int     `json:"kills"`
	Deaths             int     `json:"deaths"`
	Headshots          int     `json:"headshots"`
	HeadshotPercentage float64 `json:"headshotPercentage"`
}

// PlayerStats aggregates the decoded rounds, in order of first appearance.
func (m *Reader) PlayerStats() []PlayerMatchStats {
	return AggregateStats(m.Rounds())
}

// AggregateStats sums per-round player statistics across rounds.
func AggregateStats(rounds []*replay.Replay) []PlayerMatchStats {
	stats := make([]PlayerMatchStats, 0)
	index := make(map[string]int)
	for _, r := range rounds {
		for _, p := range r.PlayerStats() {
			i, ok := index[p.Username]
			if !ok {
				i = len(stats)
				index[p.Username] = i
				stats = append(stats, PlayerMatchStats{Username: p.Username, TeamIndex: p.TeamIndex})
			}
			s := &stats[i]
			s.Rounds++
			s.Kills += p.Kills
			if p.Died {
				s.Deaths++
			}
			s.Headshots += p.Headshots
			s.HeadshotPercentage = replay.HeadshotPercentage(s.Headshots, s.Kills)
		}
	}
	return stats
}
