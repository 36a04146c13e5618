package recfile

import (
	"fmt"
	"strconv"
	"time"

	"replaykit/internal/replay"
)

const timestampLayout = "2006-01-02-15-04-05"

// lastHeaderKey closes the header property list.
const lastHeaderKey = "teamscore1"

type rawHeader struct {
	props      map[string]string
	gmSettings []int
	players    []replay.Player
	start      int
}

// readHeaderProps reads key/value header strings until lastHeaderKey.
// Player blocks start at "playerid" and end at the next "playerid",
// "playlistcategory" or "id".
func readHeaderProps(c *cursor) (rawHeader, error) {
	c.op = "header"
	raw := rawHeader{props: make(map[string]string), start: c.off}
	var current replay.Player
	inPlayer := false
	for {
		keyOffset := c.off
		k, err := c.readHeaderString()
		if err != nil {
			return raw, err
		}
		v, err := c.readHeaderString()
		if err != nil {
			return raw, err
		}
		if k == "playerid" {
			if inPlayer {
				raw.players = append(raw.players, current)
			}
			inPlayer = true
			current = replay.Player{}
		}
		if (k == "playlistcategory" || k == "id") && inPlayer {
			raw.players = append(raw.players, current)
			inPlayer = false
		}
		switch {
		case inPlayer:
			if err := setPlayerProp(&current, k, v); err != nil {
				return raw, malformed(c.op, keyOffset, err)
			}
		case k == "gmsetting":
			n, err := strconv.Atoi(v)
			if err != nil {
				return raw, malformed(c.op, keyOffset, fmt.Errorf("gmsetting %q: %w", v, err))
			}
			raw.gmSettings = append(raw.gmSettings, n)
		default:
			raw.props[k] = v
		}
		if k == lastHeaderKey {
			if inPlayer {
				raw.players = append(raw.players, current)
			}
			return raw, nil
		}
	}
}

func setPlayerProp(p *replay.Player, key, value string) error {
	var err error
	switch key {
	case "playerid":
		p.ID, err = strconv.ParseUint(value, 10, 64)
	case "playername":
		p.Username = value
	case "team":
		p.TeamIndex, err = strconv.Atoi(value)
	case "heroname":
		p.HeroName, err = strconv.Atoi(value)
	case "alliance":
		p.Alliance, err = strconv.Atoi(value)
	case "roleimage":
		p.RoleImage, err = strconv.Atoi(value)
	case "rolename":
		p.RoleName = value
	case "roleportrait":
		p.RolePortrait, err = strconv.Atoi(value)
	}
	if err != nil {
		return fmt.Errorf("player %s %q: %w", key, value, err)
	}
	return nil
}

// buildHeader converts raw properties into a Header. The season marker is
// validated first so unsupported files are rejected before anything else.
func buildHeader(raw rawHeader) (replay.Header, Season, error) {
	h := replay.Header{
		Players:    raw.players,
		GMSettings: raw.gmSettings,
	}
	if h.Players == nil {
		h.Players = []replay.Player{}
	}
	if h.GMSettings == nil {
		h.GMSettings = []int{}
	}
	p := raw.props

	h.GameVersion = p["version"]
	season, err := ParseSeason(h.GameVersion)
	if err != nil {
		return h, Season{}, unsupported("header version", raw.start, err)
	}
	if !season.Supported() {
		return h, season, unsupported("header version", raw.start,
			fmt.Errorf("%s outside supported range %s..%s", season, MinSeason, MaxSeason))
	}

	bad := func(key string, err error) error {
		return malformed("header property "+key, raw.start, fmt.Errorf("%q: %w", p[key], err))
	}
	atoi := func(key string, dst *int) error {
		n, err := strconv.Atoi(p[key])
		if err != nil {
			return bad(key, err)
		}
		*dst = n
		return nil
	}

	if err := atoi("code", &h.CodeVersion); err != nil {
		return h, season, err
	}
	ts, err := time.Parse(timestampLayout, p["datetime"])
	if err != nil {
		return h, season, bad("datetime", err)
	}
	h.Timestamp = ts

	var matchType, gameMode int
	if err := atoi("matchtype", &matchType); err != nil {
		return h, season, err
	}
	h.MatchType = replay.MatchType(matchType)
	worldID, err := strconv.ParseUint(p["worldid"], 10, 64)
	if err != nil {
		return h, season, bad("worldid", err)
	}
	h.Map = replay.Map(worldID)
	if h.RecordingPlayerID, err = strconv.ParseUint(p["recordingplayerid"], 10, 64); err != nil {
		return h, season, bad("recordingplayerid", err)
	}
	h.RecordingProfileID = p["recordingprofileid"]
	h.AdditionalTags = p["additionaltags"]
	if err := atoi("gamemodeid", &gameMode); err != nil {
		return h, season, err
	}
	h.GameMode = replay.GameMode(gameMode)

	for _, field := range []struct {
		key string
		dst *int
	}{
		{"roundspermatch", &h.RoundsPerMatch},
		{"roundspermatchovertime", &h.RoundsPerMatchOvertime},
		{"roundnumber", &h.RoundNumber},
		{"overtimeroundnumber", &h.OvertimeRoundNumber},
		{"teamscore0", &h.Teams[0].Score},
		{"teamscore1", &h.Teams[1].Score},
	} {
		if err := atoi(field.key, field.dst); err != nil {
			return h, season, err
		}
	}

	h.Teams[0].Name = p["teamname0"]
	h.Teams[1].Name = p["teamname1"]
	if v := p["playlistcategory"]; v != "" {
		// Older builds write non-numeric categories; those are dropped.
		if n, err := strconv.Atoi(v); err == nil {
			h.PlaylistCategory = n
		}
	}
	h.MatchID = p["id"]
	return h, season, nil
}
