package replay

// PlayerRoundStats summarises one player's round.
type PlayerRoundStats struct {
	Username           string  `json:"username"`
	TeamIndex          int     `json:"-"`
	Operator           string  `json:"-"`
	Kills              int     `json:"kills"`
	Died               bool    `json:"died"`
	Headshots          int     `json:"headshots"`
	HeadshotPercentage float64 `json:"headshotPercentage"`
	OneVx              int     `json:"1vX,omitempty"`
}

// OpeningKill returns the first kill of the round, or a zero MatchUpdate.
func (r *Replay) OpeningKill() MatchUpdate {
	for _, u := range r.MatchFeedback {
		if u.Type == Kill {
			return u
		}
	}
	return MatchUpdate{}
}

// OpeningDeath returns the first kill or death of the round.
func (r *Replay) OpeningDeath() MatchUpdate {
	for _, u := range r.MatchFeedback {
		if u.Type == Kill || u.Type == Death {
			return u
		}
	}
	return MatchUpdate{}
}

// Trades returns pairs of kills where the second killer took out the
// player who made the first kill.
func (r *Replay) Trades() [][2]MatchUpdate {
	trades := make([][2]MatchUpdate, 0)
	var previous *MatchUpdate
	for i := range r.MatchFeedback {
		u := &r.MatchFeedback[i]
		if u.Type != Kill {
			continue
		}
		if previous != nil && previous.Username == u.Target {
			trades = append(trades, [2]MatchUpdate{*previous, *u})
		}
		previous = u
	}
	return trades
}

// KillsAndDeaths returns the kill and death entries of the feed in order.
func (r *Replay) KillsAndDeaths() []MatchUpdate {
	out := make([]MatchUpdate, 0)
	for _, u := range r.MatchFeedback {
		if u.Type == Kill || u.Type == Death {
			out = append(out, u)
		}
	}
	return out
}

// NumPlayers counts the players on team.
func (r *Replay) NumPlayers(team int) int {
	n := 0
	for _, p := range r.Players {
		if p.TeamIndex == team {
			n++
		}
	}
	return n
}

// PlayerStats computes per-player statistics in roster order. The last
// surviving player of the winning team is credited with a 1vX count.
func (r *Replay) PlayerStats() []PlayerRoundStats {
	winner := r.WinningTeamIndex()
	stats := make([]PlayerRoundStats, len(r.Players))
	index := make(map[string]int, len(r.Players))
	for i, p := range r.Players {
		stats[i] = PlayerRoundStats{
			Username:  p.Username,
			TeamIndex: p.TeamIndex,
			Operator:  p.OperatorName(),
		}
		index[p.Username] = i
	}

	lastDeath := -1
	for _, u := range r.MatchFeedback {
		switch u.Type {
		case Kill:
			if i, ok := index[u.Username]; ok {
				stats[i].Kills++
				if u.IsHeadshot() {
					stats[i].Headshots++
				}
				stats[i].HeadshotPercentage = HeadshotPercentage(stats[i].Headshots, stats[i].Kills)
			}
			if t, ok := index[u.Target]; ok {
				stats[t].Died = true
				lastDeath = t
			}
		case Death:
			if i, ok := index[u.Username]; ok {
				stats[i].Died = true
				lastDeath = i
			}
		}
	}

	alive := make([]int, 0)
	lastDeathWasWinner := false
	for i, p := range r.Players {
		if p.TeamIndex != winner {
			continue
		}
		if !stats[i].Died {
			alive = append(alive, i)
		}
		if i == lastDeath {
			lastDeathWasWinner = true
		}
	}
	last := -1
	switch {
	case len(alive) == 1:
		last = alive[0]
	case len(alive) == 0 && lastDeathWasWinner:
		last = lastDeath
	}
	if last < 0 {
		return stats
	}

	onWinningTeam := func(username string) bool {
		i, ok := index[username]
		return ok && stats[i].TeamIndex == winner
	}
	teamLeft := r.NumPlayers(winner)
	oneVx := 0
	for _, u := range r.MatchFeedback {
		switch {
		case u.Type == Kill && onWinningTeam(u.Target):
			teamLeft--
		case (u.Type == Death || u.Type == PlayerLeave) && onWinningTeam(u.Username):
			teamLeft--
		}
		if u.Username == stats[last].Username && u.Type == Kill && teamLeft < 2 {
			oneVx++
		}
	}
	for _, s := range stats {
		if s.TeamIndex != winner && !s.Died {
			oneVx++
		}
	}
	stats[last].OneVx = oneVx
	return stats
}

// HeadshotPercentage returns headshots as a percentage of kills.
func HeadshotPercentage(headshots, kills int) float64 {
	if kills == 0 {
		return 0
	}
	return float64(headshots) / float64(kills) * 100
}
