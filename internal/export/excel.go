package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"replaykit/internal/match"
	"replaykit/internal/replay"
)

const matchSheet = "Match"

var headingFont = &excelize.Font{Family: "Arial", Size: 16, Bold: true}

// sheetWriter appends rows to one worksheet and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func (s *sheetWriter) cell(col int) string {
	name, err := excelize.CoordinatesToCellName(col, s.row)
	if err != nil && s.err == nil {
		s.err = err
	}
	return name
}

func (s *sheetWriter) heading(text string) {
	s.row++
	if s.err != nil {
		return
	}
	s.err = s.f.SetCellRichText(s.sheet, s.cell(1), []excelize.RichTextRun{{Text: text, Font: headingFont}})
}

func (s *sheetWriter) values(values ...any) {
	s.row++
	if s.err != nil {
		return
	}
	s.err = s.f.SetSheetRow(s.sheet, s.cell(1), &values)
}

func (s *sheetWriter) blank() { s.row++ }

// WriteExcel writes a workbook with a Match sheet of aggregated statistics
// followed by one sheet per round.
func WriteExcel(w io.Writer, rounds []*replay.Replay) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	first, err := f.NewSheet(matchSheet)
	if err != nil {
		return fmt.Errorf("create match sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}

	if err := writeMatchSheet(f, rounds); err != nil {
		return err
	}
	for i, r := range rounds {
		name := fmt.Sprintf("Round %d", i+1)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create %s sheet: %w", name, err)
		}
		if err := writeRoundSheet(f, name, r); err != nil {
			return err
		}
	}
	f.SetActiveSheet(first)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeMatchSheet(f *excelize.File, rounds []*replay.Replay) error {
	s := &sheetWriter{f: f, sheet: matchSheet}
	s.heading("Statistics")
	s.values("Player", "Team Index", "Rounds", "Kills", "Deaths", "Hs%", "Headshots")
	for _, p := range match.AggregateStats(rounds) {
		s.values(p.Username, p.TeamIndex, p.Rounds, p.Kills, p.Deaths, roundPercent(p.HeadshotPercentage), p.Headshots)
	}
	if s.err != nil {
		return fmt.Errorf("write match sheet: %w", s.err)
	}
	return f.SetColWidth(matchSheet, "A", "A", 20)
}

func writeRoundSheet(f *excelize.File, name string, r *replay.Replay) error {
	s := &sheetWriter{f: f, sheet: name}
	winner := r.WinningTeamIndex()

	s.heading("Statistics")
	s.values("Player", "Team Index", "Kills", "Died", "Hs%", "Headshots", "1vX", "Operator")
	for _, p := range r.PlayerStats() {
		s.values(p.Username, p.TeamIndex, p.Kills, p.Died, roundPercent(p.HeadshotPercentage), p.Headshots, p.OneVx, p.Operator)
	}

	opening := r.OpeningKill()
	death := r.OpeningDeath()
	deathName := death.Username
	if death.Type == replay.Kill {
		deathName = death.Target
	}
	s.blank()
	s.heading("Round info")
	s.values("Name", "Value", "Time")
	s.values("Map", r.Map.String())
	s.values("Site", r.Site)
	s.values("Winning team", fmt.Sprintf("%s [%d]", r.Teams[winner].Name, winner))
	s.values("Win condition", string(r.Teams[winner].WinCondition))
	s.values("Opening kill", opening.Username, opening.Time)
	s.values("Opening death", deathName, death.Time)
	if r.GameMode == replay.Bomb {
		var planted, defused string
		for _, u := range r.MatchFeedback {
			switch u.Type {
			case replay.DefuserPlantComplete:
				planted = u.Time
			case replay.DefuserDisableComplete:
				defused = u.Time
			}
		}
		s.values("Planted at", planted)
		s.values("Defused at", defused)
	}

	s.blank()
	s.heading("Kill/death feed")
	s.values("Player", "Target", "Time", "Headshot")
	for _, u := range r.KillsAndDeaths() {
		s.values(u.Username, u.Target, u.Time, u.IsHeadshot())
	}

	s.blank()
	s.heading("Trades")
	s.values("Player 1", "Player 2", "Time")
	for _, t := range r.Trades() {
		s.values(t[0].Username, t[1].Username, t[1].Time)
	}

	if s.err != nil {
		return fmt.Errorf("write %s sheet: %w", name, s.err)
	}
	return f.SetColWidth(name, "A", "A", 20)
}

func roundPercent(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
