package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"replaykit/internal/export"
	"replaykit/internal/fileutil"
	"replaykit/internal/logging"
	"replaykit/internal/recfile"
	"replaykit/internal/replay"
	"replaykit/internal/services"
	"replaykit/internal/textutil"
)

type operatorLine struct {
	Username string `json:"username"`
	Operator string `json:"operator"`
}

func newOperatorsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "operators <replay.rec>",
		Short: "Print the operator each player picked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dec, _, err := ctx.decoder()
			if err != nil {
				return err
			}
			data, _, err := readReplayInput(cmd, args[0])
			if err != nil {
				return err
			}
			r, err := dec.Decode(cmd.Context(), data)
			if err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			if ctx.jsonOutput() {
				lines := make([]operatorLine, 0, len(r.Players))
				for _, p := range r.Players {
					lines = append(lines, operatorLine{Username: p.Username, Operator: p.OperatorName()})
				}
				return writeJSON(cmd, lines)
			}
			out := cmd.OutOrStdout()
			for _, p := range r.Players {
				fmt.Fprintf(out, "%s is playing %s\n", p.Username, p.OperatorName())
			}
			return nil
		},
	}
}

func newDecodeCommand(ctx *commandContext) *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "decode [replay.rec|-]",
		Short: "Decode a replay to JSON",
		Long: "Decode a replay to a JSON round document. Without an argument, or with \"-\",\n" +
			"the replay is read from stdin. Failures print {\"error\": \"...\"} and exit non-zero.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dec, _, err := ctx.decoder()
			if err != nil {
				return err
			}
			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			data, label, err := readReplayInput(cmd, arg)
			if err == nil {
				var r *replay.Replay
				if r, err = dec.Decode(cmd.Context(), data); err == nil {
					return export.WriteJSON(cmd.OutOrStdout(), export.NewRoundDocument(r), !compact)
				}
				err = fmt.Errorf("decode %s: %w", label, err)
			}
			if encErr := export.WriteJSON(cmd.OutOrStdout(), errorDocument{Error: err.Error()}, false); encErr != nil {
				return errors.Join(err, encErr)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "Print JSON on a single line")
	return cmd
}

type infoDocument struct {
	Path   string        `json:"path"`
	Digest string        `json:"digest"`
	Header replay.Header `json:"header"`
}

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info <replay.rec>",
		Short: "Show replay header metadata without decoding the round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			data, path, err := readReplayInput(cmd, args[0])
			if err != nil {
				return err
			}
			header, err := recfile.New(logger).DecodeHeader(data)
			if err != nil {
				logging.WarnWithContext(logger, "header decode failed", "header_decode_failed",
					logging.String(logging.FieldReplay, path),
					logging.String("error_kind", services.Kind(err)),
					logging.String(logging.FieldErrorHint, "check the file is a complete .rec replay"),
				)
				return fmt.Errorf("read header of %s: %w", path, err)
			}

			doc := infoDocument{Path: path, Digest: fileutil.SHA256Bytes(data), Header: header}
			if ctx.jsonOutput() {
				return writeJSON(cmd, doc)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Replay", colorize) {
				fmt.Fprintln(out, line)
			}
			rows := [][]string{
				{"Path", path},
				{"Digest", doc.Digest},
				{"Game version", header.GameVersion},
				{"Code version", strconv.Itoa(header.CodeVersion)},
				{"Recorded", header.Timestamp.Local().Format(time.DateTime)},
				{"Match type", header.MatchType.String()},
				{"Map", header.Map.String()},
				{"Game mode", header.GameMode.String()},
				{"Round", fmt.Sprintf("%d (%d per match)", header.RoundNumber, header.RoundsPerMatch)},
				{"Match ID", textutil.OrDash(header.MatchID)},
			}
			for i, team := range header.Teams {
				rows = append(rows, []string{fmt.Sprintf("Team %d", i), fmt.Sprintf("%s (score %d)", textutil.DisplayName(team.Name), team.Score)})
			}
			fmt.Fprintln(out, renderTable(tableSpec{Headers: []string{"Field", "Value"}, Rows: rows}))

			if len(header.Players) > 0 {
				playerRows := make([][]string, 0, len(header.Players))
				for _, p := range header.Players {
					playerRows = append(playerRows, []string{p.Username, strconv.Itoa(p.TeamIndex), strconv.FormatUint(p.ID, 10)})
				}
				fmt.Fprintln(out, renderTable(tableSpec{
					Title:   "Players",
					Headers: []string{"Username", "Team", "ID"},
					Rows:    playerRows,
					Aligns:  []columnAlignment{alignLeft, alignRight, alignRight},
				}))
			}
			return nil
		},
	}
}
