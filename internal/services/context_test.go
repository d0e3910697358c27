package services

import (
	"context"
	"testing"
)

func TestScanIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := ScanIDFromContext(ctx); ok {
		t.Fatal("expected no scan id on fresh context")
	}
	ctx = WithScanID(ctx, "abc-123")
	id, ok := ScanIDFromContext(ctx)
	if !ok || id != "abc-123" {
		t.Fatalf("unexpected scan id %q ok=%v", id, ok)
	}
}

func TestStrategyRoundTrip(t *testing.T) {
	ctx := WithStrategy(context.Background(), "stdin")
	strategy, ok := StrategyFromContext(ctx)
	if !ok || strategy != "stdin" {
		t.Fatalf("unexpected strategy %q ok=%v", strategy, ok)
	}
	if WithStrategy(context.Background(), "") != context.Background() {
		t.Fatal("empty strategy should not annotate context")
	}
}
