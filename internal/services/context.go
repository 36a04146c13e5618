package services

import "context"

type contextKey string

const (
	scanIDKey     contextKey = "scan_id"
	replayPathKey contextKey = "replay_path"
	requestIDKey  contextKey = "request_id"
)

// WithScanID annotates context with the library scan identifier.
func WithScanID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, scanIDKey, id)
}

// ScanIDFromContext extracts the library scan identifier if present.
func ScanIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(scanIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithReplayPath annotates context with the replay file being processed.
func WithReplayPath(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, replayPathKey, path)
}

// ReplayPathFromContext returns the replay file path if present.
func ReplayPathFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(replayPathKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
