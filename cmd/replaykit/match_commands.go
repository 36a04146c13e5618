package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"replaykit/internal/config"
	"replaykit/internal/export"
	"replaykit/internal/fileutil"
	"replaykit/internal/match"
	"replaykit/internal/replay"
	"replaykit/internal/textutil"
)

// resolveSource expands "~" in a replay or match folder argument. Stdin
// ("" or "-") is passed through.
func resolveSource(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" || arg == dashArg {
		return arg, nil
	}
	return config.ExpandPath(arg)
}

// loadRounds decodes a match folder, or a single replay when source is a
// file or stdin. The flag reports whether source was a folder.
func loadRounds(cmd *cobra.Command, ctx *commandContext, source string) ([]*replay.Replay, bool, error) {
	dec, logger, err := ctx.decoder()
	if err != nil {
		return nil, false, err
	}
	if !isDir(source) {
		data, label, err := readReplayInput(cmd, source)
		if err != nil {
			return nil, false, err
		}
		r, err := dec.Decode(cmd.Context(), data)
		if err != nil {
			return nil, false, fmt.Errorf("decode %s: %w", label, err)
		}
		return []*replay.Replay{r}, false, nil
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, false, err
	}
	reader, err := match.Open(source, match.Options{Decoder: dec, Workers: cfg.Decoder.Workers, Logger: logger})
	if err != nil {
		return nil, false, err
	}
	if err := reader.Read(cmd.Context()); err != nil {
		return nil, false, err
	}
	return reader.Rounds(), true, nil
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <match-dir|replay.rec>",
		Short: "Summarise player statistics for a match or round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := resolveSource(args[0])
			if err != nil {
				return err
			}
			rounds, _, err := loadRounds(cmd, ctx, source)
			if err != nil {
				return err
			}
			stats := match.AggregateStats(rounds)
			if ctx.jsonOutput() {
				return writeJSON(cmd, stats)
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(stats))
			var kills, deaths int
			for _, s := range stats {
				rows = append(rows, []string{
					s.Username,
					strconv.Itoa(s.TeamIndex),
					strconv.Itoa(s.Rounds),
					strconv.Itoa(s.Kills),
					strconv.Itoa(s.Deaths),
					strconv.Itoa(s.Headshots),
					strconv.FormatFloat(s.HeadshotPercentage, 'f', 1, 64),
				})
				kills += s.Kills
				deaths += s.Deaths
			}
			fmt.Fprintln(out, renderTable(tableSpec{
				Title:   fmt.Sprintf("%d round(s)", len(rounds)),
				Headers: []string{"Player", "Team", "Rounds", "Kills", "Deaths", "Headshots", "HS%"},
				Rows:    rows,
				Aligns:  []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
				Footer:  []string{"Total", "", "", strconv.Itoa(kills), strconv.Itoa(deaths)},
			}))
			return nil
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <match-dir|replay.rec>",
		Short: "Export a match or round as JSON or an Excel workbook",
		Long: "Export a match folder or a single round. The output format follows the\n" +
			"extension of --output: .json or .xlsx. Use --output - to print JSON to stdout.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := resolveSource(args[0])
			if err != nil {
				return err
			}
			target := strings.TrimSpace(output)
			if target == "" {
				target = defaultExportName(source)
			}
			format := export.FormatJSON
			if target != dashArg {
				if format, err = export.FormatForPath(target); err != nil {
					return err
				}
			}

			rounds, fromDir, err := loadRounds(cmd, ctx, source)
			if err != nil {
				return err
			}
			write := func(w io.Writer) error {
				if format == export.FormatExcel {
					return export.WriteExcel(w, rounds)
				}
				if !fromDir {
					return export.WriteJSON(w, export.NewRoundDocument(rounds[0]), true)
				}
				return export.WriteJSON(w, export.NewMatchDocument(rounds), true)
			}

			if target == dashArg {
				return write(cmd.OutOrStdout())
			}
			if err := fileutil.WriteFileAtomic(target, 0o644, write); err != nil {
				return fmt.Errorf("write %s: %w", target, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d round(s) to %s\n", len(rounds), target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (.json or .xlsx); defaults to <name>.json")
	return cmd
}

func defaultExportName(source string) string {
	base := filepath.Base(filepath.Clean(source))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name := textutil.SanitizeFileName(base)
	if name == "" || name == "." || name == string(os.PathSeparator) {
		name = "replay"
	}
	return name + ".json"
}
