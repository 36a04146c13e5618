package decoder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"replaykit/internal/logging"
	"replaykit/internal/replay"
	"replaykit/internal/services"
)

// ErrInvalidOutput reports an external decoder that exited cleanly but did
// not print a usable replay document.
var ErrInvalidOutput = errors.New("external decoder produced invalid output")

// outputError is an ErrInvalidOutput with the reason the document was
// rejected. It counts as a validation failure for services.Kind callers
// that only check markers.
type outputError struct {
	reason string
}

func invalidOutput(format string, args ...any) error {
	return &outputError{reason: fmt.Sprintf(format, args...)}
}

func (e *outputError) Error() string { return ErrInvalidOutput.Error() + ": " + e.reason }

func (e *outputError) Is(target error) bool {
	return target == ErrInvalidOutput || target == services.ErrValidation
}

// ErrorKind classifies the failure for services.Kind.
func (e *outputError) ErrorKind() string { return "invalid_output" }

// ExternalError is a failed external decoder run.
type ExternalError struct {
	Binary   string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExternalError) Error() string {
	msg := fmt.Sprintf("external decoder %s", e.Binary)
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" exited with status %d", e.ExitCode)
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExternalError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrExternalTool}
	}
	return []error{services.ErrExternalTool, e.Err}
}

// ErrorKind classifies the failure for services.Kind.
func (e *ExternalError) ErrorKind() string { return "external_tool" }

const (
	// stderrLimit caps the stderr excerpt kept on an ExternalError.
	stderrLimit = 4096
	// waitDelay bounds how long output pipes may outlive a killed process.
	waitDelay = 2 * time.Second
)

// ExternalOptions configures an External decoder.
type ExternalOptions struct {
	Binary  string
	Args    []string
	Timeout time.Duration
}

// External runs a separate decoder executable per replay.
type External struct {
	binary  string
	args    []string
	timeout time.Duration
	logger  *slog.Logger
}

// NewExternal returns a decoder that invokes opts.Binary.
func NewExternal(opts ExternalOptions, logger *slog.Logger) *External {
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = "r6-dissect"
	}
	return &External{
		binary:  binary,
		args:    append([]string(nil), opts.Args...),
		timeout: opts.Timeout,
		logger:  logging.NewComponentLogger(logger, "decoder"),
	}
}

// Name identifies the decoder in logs and doctor output.
func (e *External) Name() string { return "external:" + e.binary }

// Binary returns the configured executable.
func (e *External) Binary() string { return e.binary }

// Decode streams data to the executable and parses its stdout.
func (e *External) Decode(ctx context.Context, data []byte) (*replay.Replay, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binary, e.args...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	started := time.Now()
	err := cmd.Run()
	logger := logging.WithContext(ctx, e.logger)
	logger.Debug("external decoder finished",
		logging.String("binary", e.binary),
		logging.Int("input_bytes", len(data)),
		logging.Duration("elapsed", time.Since(started)),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return nil, services.Wrap(services.ErrTimeout, "decoder", e.binary,
					fmt.Sprintf("no result after %s", e.timeout), ctxErr)
			}
			return nil, ctxErr
		}
		extErr := &ExternalError{Binary: e.binary, Stderr: trimStderr(stderr.String()), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			extErr.ExitCode = exitErr.ExitCode()
		}
		return nil, extErr
	}
	return parseOutput(stdout.Bytes())
}

func parseOutput(out []byte) (*replay.Replay, error) {
	var probe struct {
		Error   string          `json:"error"`
		Players json.RawMessage `json:"players"`
	}
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, invalidOutput("%v", err)
	}
	if probe.Error != "" {
		return nil, invalidOutput("%s", probe.Error)
	}
	if len(probe.Players) == 0 || bytes.Equal(probe.Players, []byte("null")) {
		return nil, invalidOutput("missing players")
	}
	var r replay.Replay
	if err := json.Unmarshal(out, &r); err != nil {
		return nil, invalidOutput("%v", err)
	}
	seen := make(map[string]bool, len(r.Players))
	for _, p := range r.Players {
		if seen[p.Username] {
			return nil, invalidOutput("duplicate player %q", p.Username)
		}
		seen[p.Username] = true
	}
	if r.MatchFeedback == nil {
		r.MatchFeedback = []replay.MatchUpdate{}
	}
	return &r, nil
}

func trimStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrLimit {
		s = s[len(s)-stderrLimit:]
	}
	return s
}
