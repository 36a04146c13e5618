package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"replaykit/internal/replay"
)

var (
	// ErrDuplicateRound reports a round whose digest is already stored.
	ErrDuplicateRound = errors.New("round already indexed")
	// ErrMatchNotFound reports a match id with no stored rounds.
	ErrMatchNotFound = errors.New("match not found")
)

// RoundRecord is one decoded round ready to be stored.
type RoundRecord struct {
	Digest string
	Path   string
	ScanID string
	Replay *replay.Replay
}

// RoundSummary is a stored round.
type RoundSummary struct {
	ID           int64       `json:"id"`
	Digest       string      `json:"digest"`
	Path         string      `json:"path"`
	ScanID       string      `json:"scan_id"`
	MatchID      string      `json:"match_id"`
	RoundNumber  int         `json:"round_number"`
	Site         string      `json:"site"`
	WinningTeam  int         `json:"winning_team"`
	WinCondition string      `json:"win_condition"`
	RecordedAt   time.Time   `json:"recorded_at"`
	IndexedAt    time.Time   `json:"indexed_at"`
	Players      []PlayerRow `json:"players"`
}

// PlayerRow is one player's line of a stored round.
type PlayerRow struct {
	Username  string `json:"username"`
	TeamIndex int    `json:"team_index"`
	Operator  string `json:"operator"`
	Role      string `json:"role"`
	Kills     int    `json:"kills"`
	Died      bool   `json:"died"`
	Headshots int    `json:"headshots"`
}

// MatchSummary groups the stored rounds sharing a match id.
type MatchSummary struct {
	MatchID     string    `json:"match_id"`
	Dir         string    `json:"dir"`
	GameVersion string    `json:"game_version"`
	Map         string    `json:"map"`
	GameMode    string    `json:"game_mode"`
	MatchType   string    `json:"match_type"`
	Rounds      int       `json:"rounds"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// OperatorCount is how often an operator was picked.
type OperatorCount struct {
	Operator  string `json:"operator"`
	Role      string `json:"role"`
	Rounds    int    `json:"rounds"`
	Kills     int    `json:"kills"`
	Headshots int    `json:"headshots"`
}

// HasDigest reports whether a round with digest is stored.
func (s *Store) HasDigest(ctx context.Context, digest string) (bool, error) {
	var count int
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM rounds WHERE digest = ?", digest).Scan(&count)
	})
	if err != nil {
		return false, fmt.Errorf("lookup digest: %w", err)
	}
	return count > 0, nil
}

// SaveRound stores rec and its players in one transaction. A digest that is
// already present yields ErrDuplicateRound.
func (s *Store) SaveRound(ctx context.Context, rec RoundRecord) (int64, error) {
	if rec.Replay == nil {
		return 0, errors.New("save round: nil replay")
	}
	var id int64
	err := retryOnBusy(ctx, func() error {
		var err error
		id, err = s.saveRound(ctx, rec)
		return err
	})
	return id, err
}

func (s *Store) saveRound(ctx context.Context, rec RoundRecord) (int64, error) {
	r := rec.Replay
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin round tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	winner := r.WinningTeamIndex()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO rounds (
            digest, path, scan_id, match_id, round_number, game_version, map,
            game_mode, match_type, site, winning_team, win_condition, recorded_at, indexed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(digest) DO NOTHING`,
		rec.Digest,
		rec.Path,
		rec.ScanID,
		r.MatchID,
		r.RoundNumber,
		r.GameVersion,
		r.Map.String(),
		r.GameMode.String(),
		r.MatchType.String(),
		nullableString(r.Site),
		winner,
		nullableString(string(r.Teams[winner].WinCondition)),
		r.Timestamp.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert round: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateRound, rec.Path)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	for _, p := range r.PlayerStats() {
		var role string
		if player, ok := r.Player(p.Username); ok {
			if rr, err := player.Operator.Role(); err == nil {
				role = string(rr)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO round_players (round_id, username, team_index, operator, role, kills, died, headshots)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, p.Username, p.TeamIndex, p.Operator, nullableString(role), p.Kills, boolToInt(p.Died), p.Headshots,
		); err != nil {
			return 0, fmt.Errorf("insert player %s: %w", p.Username, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit round: %w", err)
	}
	return id, nil
}

// ListMatches returns one summary per match, newest first.
func (s *Store) ListMatches(ctx context.Context) ([]MatchSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT match_id, MIN(path), MAX(game_version), MAX(map), MAX(game_mode), MAX(match_type),
                COUNT(1), MIN(recorded_at)
         FROM rounds
         GROUP BY match_id
         ORDER BY MIN(recorded_at) DESC, match_id`)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	matches := make([]MatchSummary, 0)
	for rows.Next() {
		var (
			m           MatchSummary
			firstPath   string
			recordedRaw string
		)
		if err := rows.Scan(&m.MatchID, &firstPath, &m.GameVersion, &m.Map, &m.GameMode, &m.MatchType, &m.Rounds, &recordedRaw); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.Dir = filepath.Dir(firstPath)
		m.RecordedAt = parseTime(recordedRaw)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return matches, nil
}

// MatchRounds returns the stored rounds of matchID in round order.
func (s *Store) MatchRounds(ctx context.Context, matchID string) ([]RoundSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, digest, path, scan_id, match_id, round_number, site, winning_team,
                win_condition, recorded_at, indexed_at
         FROM rounds
         WHERE match_id = ?
         ORDER BY round_number, path`, matchID)
	if err != nil {
		return nil, fmt.Errorf("query match rounds: %w", err)
	}
	rounds := make([]RoundSummary, 0)
	for rows.Next() {
		var (
			r                       RoundSummary
			site, winCondition      sql.NullString
			recordedRaw, indexedRaw string
		)
		if err := rows.Scan(&r.ID, &r.Digest, &r.Path, &r.ScanID, &r.MatchID, &r.RoundNumber,
			&site, &r.WinningTeam, &winCondition, &recordedRaw, &indexedRaw); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan round: %w", err)
		}
		r.Site = site.String
		r.WinCondition = winCondition.String
		r.RecordedAt = parseTime(recordedRaw)
		r.IndexedAt = parseTime(indexedRaw)
		rounds = append(rounds, r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate rounds: %w", err)
	}
	_ = rows.Close()

	if len(rounds) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	for i := range rounds {
		players, err := s.roundPlayers(ctx, rounds[i].ID)
		if err != nil {
			return nil, err
		}
		rounds[i].Players = players
	}
	return rounds, nil
}

func (s *Store) roundPlayers(ctx context.Context, roundID int64) ([]PlayerRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT username, team_index, operator, role, kills, died, headshots
         FROM round_players
         WHERE round_id = ?
         ORDER BY team_index, rowid`, roundID)
	if err != nil {
		return nil, fmt.Errorf("query round players: %w", err)
	}
	defer rows.Close()

	players := make([]PlayerRow, 0)
	for rows.Next() {
		var (
			p    PlayerRow
			role sql.NullString
			died int
		)
		if err := rows.Scan(&p.Username, &p.TeamIndex, &p.Operator, &role, &p.Kills, &died, &p.Headshots); err != nil {
			return nil, fmt.Errorf("scan round player: %w", err)
		}
		p.Role = role.String
		p.Died = died != 0
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate round players: %w", err)
	}
	return players, nil
}

// OperatorUsage counts operator picks, most picked first. An empty username
// counts every player.
func (s *Store) OperatorUsage(ctx context.Context, username string) ([]OperatorCount, error) {
	query := `SELECT operator, COALESCE(MAX(role), ''), COUNT(1), SUM(kills), SUM(headshots)
              FROM round_players
              WHERE operator != ''`
	args := []any{}
	if username != "" {
		query += " AND username = ?"
		args = append(args, username)
	}
	query += " GROUP BY operator ORDER BY COUNT(1) DESC, operator"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query operator usage: %w", err)
	}
	defer rows.Close()

	usage := make([]OperatorCount, 0)
	for rows.Next() {
		var c OperatorCount
		if err := rows.Scan(&c.Operator, &c.Role, &c.Rounds, &c.Kills, &c.Headshots); err != nil {
			return nil, fmt.Errorf("scan operator usage: %w", err)
		}
		usage = append(usage, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operator usage: %w", err)
	}
	return usage, nil
}

// Clear removes every stored round and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	var removed int64
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin clear tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, "DELETE FROM round_players"); err != nil {
			return fmt.Errorf("clear players: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM rounds")
		if err != nil {
			return fmt.Errorf("clear rounds: %w", err)
		}
		if removed, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		return tx.Commit()
	})
	return removed, err
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
