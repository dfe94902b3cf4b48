// internal/app/system/realtime/nop.go
package realtime

import "context"

// NopClient satisfies Interface and does nothing. Used when no realtime
// backend is configured, and by tests that only exercise durable state.
type NopClient struct{}

func (NopClient) UpsertRoom(context.Context, string, RoomParams) error { return nil }

func (NopClient) DeleteRoom(context.Context, string) error { return nil }

func (NopClient) UpdateAccess(context.Context, string, string, []string) error { return nil }
