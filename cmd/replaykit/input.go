package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"replaykit/internal/config"
)

const dashArg = "-"

// readReplayInput returns the bytes of the replay named by arg, or of stdin
// when arg is empty or "-". The label names the source in messages.
func readReplayInput(cmd *cobra.Command, arg string) ([]byte, string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" || arg == dashArg {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "stdin", fmt.Errorf("read stdin: %w", err)
		}
		return data, "stdin", nil
	}
	path, err := config.ExpandPath(arg)
	if err != nil {
		return nil, arg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read replay: %w", err)
	}
	return data, path, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
