package services_test

import (
	"context"
	"testing"

	"replaykit/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithScanID(ctx, "scan-1")
	ctx = services.WithReplayPath(ctx, "/tmp/R01.rec")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.ScanIDFromContext(ctx); !ok || id != "scan-1" {
		t.Fatalf("unexpected scan id: %v %v", id, ok)
	}
	if path, ok := services.ReplayPathFromContext(ctx); !ok || path != "/tmp/R01.rec" {
		t.Fatalf("unexpected replay path: %v %v", path, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithScanID(ctx, "")
	ctx = services.WithReplayPath(ctx, "")
	if _, ok := services.ScanIDFromContext(ctx); ok {
		t.Fatal("expected no scan id")
	}
	if _, ok := services.ReplayPathFromContext(ctx); ok {
		t.Fatal("expected no replay path")
	}
}
