package services

import "context"

type contextKey string

const (
	scanIDKey   contextKey = "scan_id"
	strategyKey contextKey = "strategy"
)

// WithScanID annotates context with a scan correlation identifier.
func WithScanID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, scanIDKey, id)
}

// ScanIDFromContext extracts the scan correlation identifier if present.
func ScanIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(scanIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStrategy annotates context with the active acquisition strategy.
func WithStrategy(ctx context.Context, strategy string) context.Context {
	if strategy == "" {
		return ctx
	}
	return context.WithValue(ctx, strategyKey, strategy)
}

// StrategyFromContext returns the acquisition strategy if present.
func StrategyFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(strategyKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
