package recfile

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"replaykit/internal/logging"
	"replaykit/internal/replay"
)

var (
	markerUsername     = []byte{0x22, 0x85, 0xCF, 0x36, 0x3A}
	markerProfileID    = []byte{0x8A, 0x50, 0x9B, 0xD0}
	markerFeedbackBody = []byte{0x00, 0x00, 0x00, 0x22, 0xE3, 0x09, 0x00, 0x79}
	markerKill         = []byte{0x22, 0xD9, 0x13, 0x3C, 0xBA}
)

const validDefenderSpawn = 0x1B

func readDissectID(c *cursor) ([4]byte, error) {
	var id [4]byte
	b, err := c.read(len(id))
	if err != nil {
		return id, err
	}
	copy(id[:], b)
	return id, nil
}

// readPlayer reads a roster packet: operator, dissect id, spawn, username
// and, on builds that record profile ids, the profile id and numeric id.
func readPlayer(s *bodyState, c *cursor) error {
	op, err := c.readUint64()
	if err != nil {
		return err
	}
	id, err := readDissectID(c)
	if err != nil {
		return err
	}
	if err := c.seek(markerSpawn); err != nil {
		return err
	}
	spawn, err := c.readString()
	if err != nil {
		return err
	}
	if spawn == "" {
		if err := c.skip(10); err != nil {
			return err
		}
		valid, err := c.readByte()
		if err != nil {
			return err
		}
		if valid != validDefenderSpawn {
			return nil
		}
	}
	if err := c.seek(markerUsername); err != nil {
		return err
	}
	teamIndex := 0
	if s.playersRead > 4 {
		teamIndex = 1
	}
	username, err := c.readString()
	if err != nil {
		return err
	}
	var profileID string
	var numericID uint64
	if s.header.RecordingProfileID != "" {
		if err := c.seek(markerProfileID); err != nil {
			return err
		}
		if profileID, err = c.readString(); err != nil {
			return err
		}
		if err := c.skip(5); err != nil {
			return err
		}
		if numericID, err = c.readUint64(); err != nil {
			return err
		}
	}
	s.playersRead++

	p := replay.Player{
		ID:        numericID,
		ProfileID: profileID,
		Username:  username,
		TeamIndex: teamIndex,
		Operator:  replay.Operator(op),
		Spawn:     spawn,
	}
	if spawn == "" {
		p.Alliance = replay.DefenderAlliance
		s.header.Teams[teamIndex].Role = replay.Defense
	} else {
		s.header.Teams[teamIndex].Role = replay.Attack
	}
	s.logger.Debug("player",
		logging.String("username", username),
		logging.Int("team_index", teamIndex),
		logging.String("operator", p.Operator.String()),
		logging.String("dissect_id", fmt.Sprintf("%x", id)),
	)

	for i, existing := range s.header.Players {
		if existing.Username == username || (numericID != 0 && existing.ID == numericID) {
			merged := &s.header.Players[i]
			merged.ID = p.ID
			merged.ProfileID = p.ProfileID
			merged.Username = p.Username
			merged.TeamIndex = p.TeamIndex
			merged.Alliance = p.Alliance
			merged.Spawn = p.Spawn
			if p.Operator != 0 {
				merged.Operator = p.Operator
			}
			s.dissectIDs[id] = i
			return nil
		}
	}
	if username == "" {
		return nil
	}
	s.header.Players = append(s.header.Players, p)
	s.dissectIDs[id] = len(s.header.Players) - 1
	return nil
}

// readOperatorSwap records an attacker changing operator during prep phase.
func readOperatorSwap(s *bodyState, c *cursor) error {
	op, err := c.readUint64()
	if err != nil {
		return err
	}
	if err := c.skip(5); err != nil {
		return err
	}
	id, err := readDissectID(c)
	if err != nil {
		return err
	}
	i := s.playerIndexByID(id)
	if i < 0 {
		s.logger.Debug("operator swap for unknown player", logging.String("dissect_id", fmt.Sprintf("%x", id)))
		return nil
	}
	p := &s.header.Players[i]
	p.Operator = replay.Operator(op)
	s.update(replay.MatchUpdate{
		Type:     replay.OperatorSwap,
		Username: p.Username,
		Operator: p.Operator,
	})
	return nil
}

// readSite records the defended site. Spawn packets for other locations
// share the marker and are ignored.
func readSite(s *bodyState, c *cursor) error {
	location, err := c.readString()
	if err != nil {
		return err
	}
	if err := c.skip(6); err != nil {
		return err
	}
	site, err := c.readByte()
	if err != nil {
		return err
	}
	if site != 0x02 {
		return nil
	}
	formatted := strings.Replace(location, "<br/>", ", ", 1)
	for i, p := range s.header.Players {
		if p.Alliance == replay.DefenderAlliance {
			s.header.Players[i].Spawn = formatted
		}
	}
	s.header.Site = formatted
	s.logger.Debug("defense site", logging.String("site", formatted))
	return nil
}

// readTimer reads the seconds remaining in the current phase.
func readTimer(s *bodyState, c *cursor) error {
	seconds, err := c.readUint32()
	if err != nil {
		return err
	}
	s.time = float64(seconds)
	s.timeRaw = fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
	return nil
}

// readTimerY7 reads the textual timer written before Y8S1, either "m:ss"
// or plain seconds during the last seconds of a phase.
func readTimerY7(s *bodyState, c *cursor) error {
	start := c.off
	raw, err := c.readString()
	if err != nil {
		return err
	}
	minutes, seconds, found := strings.Cut(raw, ":")
	if !found {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return malformed(c.op, start, fmt.Errorf("timer %q: %w", raw, err))
		}
		s.time = v
		s.timeRaw = raw
		return nil
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return malformed(c.op, start, fmt.Errorf("timer %q: %w", raw, err))
	}
	sec, err := strconv.Atoi(seconds)
	if err != nil {
		return malformed(c.op, start, fmt.Errorf("timer %q: %w", raw, err))
	}
	s.time = float64(m*60 + sec)
	s.timeRaw = raw
	return nil
}

// readMatchFeedback reads a kill feed entry or a system message.
func readMatchFeedback(s *bodyState, c *cursor) error {
	if err := c.skip(1); err != nil {
		return err
	}
	if err := c.seek(markerFeedbackBody); err != nil {
		return err
	}
	size, err := c.readByte()
	if err != nil {
		return err
	}
	if size > 0 {
		b, err := c.read(int(size))
		if err != nil {
			return err
		}
		s.update(classifyMessage(string(b)))
		return nil
	}

	trace, err := c.read(len(markerKill))
	if err != nil {
		return err
	}
	if !bytes.Equal(trace, markerKill) {
		return nil
	}
	username, err := c.readString()
	if err != nil {
		return err
	}
	if err := c.skip(15); err != nil {
		return err
	}
	target, err := c.readString()
	if err != nil {
		return err
	}
	if username == "" {
		// An empty killer is a death without a credited kill.
		if target != "" {
			s.update(replay.MatchUpdate{Type: replay.Death, Username: target})
		}
		return nil
	}
	if err := c.skip(56); err != nil {
		return err
	}
	hs, err := c.readByte()
	if err != nil {
		return err
	}
	for _, u := range s.feedback {
		if u.Type == replay.Kill && u.Username == username && u.Target == target {
			return nil
		}
	}
	headshot := hs == 1
	s.update(replay.MatchUpdate{
		Type:     replay.Kill,
		Username: username,
		Target:   target,
		Headshot: &headshot,
	})
	return nil
}

func classifyMessage(msg string) replay.MatchUpdate {
	t := replay.Other
	if strings.Contains(msg, "bombs") || strings.Contains(msg, "objective") {
		t = replay.LocateObjective
	}
	if strings.Contains(msg, "BattlEye") {
		t = replay.Battleye
	}
	if strings.Contains(msg, "left") {
		t = replay.PlayerLeave
	}
	if t == replay.Other {
		return replay.MatchUpdate{Type: t, Message: msg}
	}
	username, _, _ := strings.Cut(msg, " ")
	return replay.MatchUpdate{Type: t, Username: username}
}

// readDefuserTimer tracks defuser plant and disable progress. A timer at
// "0.00" completes the action in progress.
func readDefuserTimer(s *bodyState, c *cursor) error {
	timer, err := c.readString()
	if err != nil {
		return err
	}
	if err := c.skip(34); err != nil {
		return err
	}
	id, err := readDissectID(c)
	if err != nil {
		return err
	}
	if i := s.playerIndexByID(id); i >= 0 {
		t := replay.DefuserPlantStart
		if s.planted {
			t = replay.DefuserDisableStart
		}
		s.update(replay.MatchUpdate{Type: t, Username: s.header.Players[i].Username})
		s.lastDefuserUser = i
	}
	if !strings.HasPrefix(timer, "0.00") {
		return nil
	}
	t := replay.DefuserDisableComplete
	if !s.planted {
		t = replay.DefuserPlantComplete
		s.planted = true
	}
	var username string
	if s.lastDefuserUser >= 0 {
		username = s.header.Players[s.lastDefuserUser].Username
	}
	s.update(replay.MatchUpdate{Type: t, Username: username})
	return nil
}
