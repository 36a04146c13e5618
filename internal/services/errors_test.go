package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"replaykit/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "decoder", "run", "exit status 2", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"decoder", "run", "exit status 2"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

type kindError struct{}

func (kindError) Error() string     { return "classified" }
func (kindError) ErrorKind() string { return "truncated" }

func TestKindMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"classifier wins", fmt.Errorf("wrap: %w", kindError{}), "truncated"},
		{"external tool", services.Wrap(services.ErrExternalTool, "decoder", "", "", nil), "external_tool"},
		{"timeout", fmt.Errorf("run: %w", context.DeadlineExceeded), "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"validation", services.Wrap(services.ErrValidation, "config", "", "bad", nil), "validation"},
		{"other", errors.New("plain"), "unknown"},
	}
	for _, tt := range tests {
		if got := services.Kind(tt.err); got != tt.want {
			t.Fatalf("%s: Kind() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
