package recfile

import (
	"replaykit/internal/logging"
	"replaykit/internal/replay"
)

// roundEnd decides the round winner and win condition from the feed. Team
// roles must be settled first.
func (s *bodyState) roundEnd() {
	teams := &s.header.Teams
	planter := -1
	var deaths, sizes, alliances [2]int
	for _, p := range s.header.Players {
		if p.TeamIndex < 0 || p.TeamIndex > 1 {
			continue
		}
		sizes[p.TeamIndex]++
		alliances[p.TeamIndex] = p.Alliance
	}
	teamOf := func(username string) int {
		i := s.playerIndexByUsername(username)
		if i < 0 {
			return -1
		}
		if t := s.header.Players[i].TeamIndex; t == 0 || t == 1 {
			return t
		}
		return -1
	}
	win := func(team int, cond replay.WinCondition) {
		teams[team].Won = true
		teams[team].WinCondition = cond
		s.logger.Debug("round end",
			logging.Int("winning_team", team),
			logging.String("win_condition", string(cond)),
		)
	}

	for _, u := range s.feedback {
		switch u.Type {
		case replay.Kill:
			if t := teamOf(u.Target); t >= 0 {
				deaths[t]++
			}
		case replay.Death:
			if t := teamOf(u.Username); t >= 0 {
				deaths[t]++
			}
		case replay.DefuserPlantComplete:
			planter = s.playerIndexByUsername(u.Username)
		case replay.DefuserDisableComplete:
			if t := teamOf(u.Username); t >= 0 {
				win(t, replay.DisabledDefuser)
				return
			}
		}
	}
	if planter >= 0 {
		if t := s.header.Players[planter].TeamIndex; t == 0 || t == 1 {
			win(t, replay.DefusedBomb)
			return
		}
	}
	if sizes[0] > 0 && deaths[0] >= sizes[0] {
		win(1, replay.KilledOpponents)
		return
	}
	if sizes[1] > 0 && deaths[1] >= sizes[1] {
		win(0, replay.KilledOpponents)
		return
	}
	// Time runs out in favour of the defenders.
	defender := 0
	switch {
	case teams[1].Role == replay.Defense:
		defender = 1
	case teams[0].Role == replay.Defense:
	case alliances[1] == replay.DefenderAlliance:
		defender = 1
	}
	win(defender, replay.Time)
}

// deriveTeamRoles assigns attack and defense from the first player whose
// operator has a known side. Roles from spawn data are kept otherwise.
func (s *bodyState) deriveTeamRoles() bool {
	for _, p := range s.header.Players {
		role, err := p.Operator.Role()
		if err != nil || (p.TeamIndex != 0 && p.TeamIndex != 1) {
			continue
		}
		other := replay.Defense
		if role == replay.Defense {
			other = replay.Attack
		}
		s.header.Teams[p.TeamIndex].Role = role
		s.header.Teams[p.TeamIndex^1].Role = other
		return true
	}
	return false
}
