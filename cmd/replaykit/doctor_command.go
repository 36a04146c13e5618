package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"replaykit/internal/preflight"
)

type doctorCheck struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail"`
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, the library and the external decoder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			checks := make([]doctorCheck, 0, 4)
			for _, r := range preflight.RunAll(cmd.Context(), cfg) {
				checks = append(checks, doctorCheck{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
			}
			self, _ := os.Executable()
			for _, s := range preflight.CheckSystemDeps(cfg, self) {
				detail := s.Command
				if !s.Available {
					detail = s.Detail
				}
				if s.Description != "" {
					detail += " (" + s.Description + ")"
				}
				checks = append(checks, doctorCheck{Name: s.Name, Passed: s.Available, Optional: s.Optional, Detail: detail})
			}

			failed := 0
			for _, c := range checks {
				if !c.Passed && !c.Optional {
					failed++
				}
			}

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, checks); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("replaykit doctor", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Config", statusInfo, configLabel(ctx), colorize))
				fmt.Fprintln(out, renderStatusLine("Decoder mode", statusInfo, cfg.Decoder.Mode, colorize))
				for _, c := range checks {
					kind := statusOK
					switch {
					case !c.Passed && c.Optional:
						kind = statusWarn
					case !c.Passed:
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(c.Name, kind, c.Detail, colorize))
				}
			}
			if failed > 0 {
				return errors.New("doctor found problems")
			}
			return nil
		},
	}
}

func configLabel(ctx *commandContext) string {
	if !ctx.configExists {
		return "defaults (" + ctx.configPath + " not found)"
	}
	return ctx.configPath
}
