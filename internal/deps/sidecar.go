package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// CheckSidecar reports the binary replaykit will run for command. A binary
// with the same base name next to anchor (normally the replaykit executable)
// wins over one found on PATH, matching how release archives ship the
// external decoder. Commands containing a path separator are checked as
// given.
func CheckSidecar(req Requirement, anchor string) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}

	if !strings.ContainsRune(status.Command, os.PathSeparator) && anchor != "" {
		candidate := filepath.Join(filepath.Dir(anchor), executableName(status.Command))
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			status.Command = candidate
			status.Available = true
			return status
		}
	}

	resolved, err := exec.LookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Command = resolved
	status.Available = true
	return status
}

func executableName(base string) string {
	if runtime.GOOS == "windows" && filepath.Ext(base) == "" {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
