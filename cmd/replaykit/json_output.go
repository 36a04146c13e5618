package main

import (
	"github.com/spf13/cobra"

	"replaykit/internal/export"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	return export.WriteJSON(cmd.OutOrStdout(), v, true)
}

type errorDocument struct {
	Error string `json:"error"`
}
