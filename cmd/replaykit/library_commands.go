package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"replaykit/internal/config"
	"replaykit/internal/library"
	"replaykit/internal/textutil"
)

func (c *commandContext) withLibrary(fn func(*library.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := library.Open(cfg.Library.Path)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer store.Close()
	return fn(store)
}

type indexFailureView struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

type indexSummaryView struct {
	ScanID   string             `json:"scan_id"`
	Scanned  int                `json:"scanned"`
	Indexed  int                `json:"indexed"`
	Skipped  int                `json:"skipped"`
	Failed   []indexFailureView `json:"failed"`
	Duration string             `json:"duration"`
}

func newIndexCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "index <dir>",
		Short: "Add every replay under a directory to the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dec, logger, err := ctx.decoder()
			if err != nil {
				return err
			}
			root, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(store *library.Store) error {
				ix := library.NewIndexer(store, library.IndexOptions{Decoder: dec, Workers: cfg.Decoder.Workers, Logger: logger})
				result, err := ix.Index(cmd.Context(), root)
				if err != nil {
					return err
				}

				view := indexSummaryView{
					ScanID:   result.ScanID,
					Scanned:  result.Scanned,
					Indexed:  result.Indexed,
					Skipped:  result.Skipped,
					Failed:   make([]indexFailureView, 0, len(result.Failed)),
					Duration: result.Duration.Round(time.Millisecond).String(),
				}
				for _, f := range result.Failed {
					view.Failed = append(view.Failed, indexFailureView{Path: f.Path, Kind: f.Kind, Error: f.Err.Error()})
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, view)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Scanned %d replay(s): %d indexed, %d already known, %d failed\n",
					view.Scanned, view.Indexed, view.Skipped, len(view.Failed))
				if len(view.Failed) > 0 {
					rows := make([][]string, 0, len(view.Failed))
					for _, f := range view.Failed {
						rows = append(rows, []string{f.Path, f.Kind, f.Error})
					}
					fmt.Fprintln(out, renderTable(tableSpec{Title: "Failures", Headers: []string{"Path", "Kind", "Error"}, Rows: rows}))
				}
				return nil
			})
		},
	}
}

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Query and maintain the replay library",
	}
	libraryCmd.AddCommand(newLibraryListCommand(ctx))
	libraryCmd.AddCommand(newLibraryShowCommand(ctx))
	libraryCmd.AddCommand(newLibraryOperatorsCommand(ctx))
	libraryCmd.AddCommand(newLibraryClearCommand(ctx))
	return libraryCmd
}

func newLibraryListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List indexed matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(store *library.Store) error {
				matches, err := store.ListMatches(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, matches)
				}
				out := cmd.OutOrStdout()
				if len(matches) == 0 {
					fmt.Fprintln(out, "Library is empty; run 'replaykit index <dir>' first")
					return nil
				}
				rows := make([][]string, 0, len(matches))
				for _, m := range matches {
					rows = append(rows, []string{
						textutil.OrDash(m.MatchID),
						m.RecordedAt.Local().Format(time.DateTime),
						m.Map,
						m.GameMode,
						m.MatchType,
						strconv.Itoa(m.Rounds),
						m.Dir,
					})
				}
				fmt.Fprintln(out, renderTable(tableSpec{
					Headers: []string{"Match", "Recorded", "Map", "Mode", "Type", "Rounds", "Folder"},
					Rows:    rows,
					Aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				}))
				return nil
			})
		},
	}
}

func newLibraryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <match-id>",
		Short: "Show the indexed rounds of a match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(store *library.Store) error {
				rounds, err := store.MatchRounds(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, rounds)
				}
				out := cmd.OutOrStdout()
				for _, r := range rounds {
					title := fmt.Sprintf("Round %d: team %d won (%s)", r.RoundNumber, r.WinningTeam, textutil.OrDash(r.WinCondition))
					if r.Site != "" {
						title += " at " + r.Site
					}
					rows := make([][]string, 0, len(r.Players))
					for _, p := range r.Players {
						rows = append(rows, []string{
							p.Username,
							strconv.Itoa(p.TeamIndex),
							textutil.OrDash(p.Operator),
							strconv.Itoa(p.Kills),
							yesNo(p.Died),
							strconv.Itoa(p.Headshots),
						})
					}
					fmt.Fprintln(out, renderTable(tableSpec{
						Title:   title,
						Headers: []string{"Player", "Team", "Operator", "Kills", "Died", "Headshots"},
						Rows:    rows,
						Aligns:  []columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignRight},
					}))
				}
				return nil
			})
		},
	}
}

func newLibraryOperatorsCommand(ctx *commandContext) *cobra.Command {
	var player string

	cmd := &cobra.Command{
		Use:   "operators",
		Short: "Rank operators by how often they were picked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(store *library.Store) error {
				usage, err := store.OperatorUsage(cmd.Context(), strings.TrimSpace(player))
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, usage)
				}
				rows := make([][]string, 0, len(usage))
				for _, u := range usage {
					rows = append(rows, []string{u.Operator, textutil.OrDash(u.Role), strconv.Itoa(u.Rounds), strconv.Itoa(u.Kills), strconv.Itoa(u.Headshots)})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(tableSpec{
					Headers: []string{"Operator", "Role", "Rounds", "Kills", "Headshots"},
					Rows:    rows,
					Aligns:  []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
				}))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&player, "player", "p", "", "Only count picks by this username")
	return cmd
}

func newLibraryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every indexed round",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(store *library.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d round(s) from %s\n", removed, store.Path())
				return nil
			})
		},
	}
}
