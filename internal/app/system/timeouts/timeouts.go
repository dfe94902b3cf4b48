// internal/app/system/timeouts/timeouts.go

// Package timeouts centralizes the per-request deadlines handlers apply to
// store and realtime-backend calls.
package timeouts

import (
	"context"
	"time"
)

const (
	// Short covers single-document reads and writes.
	Short = 3 * time.Second
	// Medium covers multi-step flows (access decisions, room creation).
	Medium = 8 * time.Second
	// Realtime bounds best-effort calls to the collaboration backend so a
	// slow mirror cannot stall a durable operation's response.
	Realtime = 5 * time.Second
)

// WithShort bounds ctx for a single-document operation.
func WithShort(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, Short)
}

// WithMedium bounds ctx for a multi-step flow.
func WithMedium(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, Medium)
}

// WithRealtime bounds ctx for a best-effort backend call.
func WithRealtime(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, Realtime)
}
