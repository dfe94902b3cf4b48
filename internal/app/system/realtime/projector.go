// internal/app/system/realtime/projector.go
package realtime

import (
	"context"

	"github.com/codesync-app/codesync/internal/domain/models"
	"go.uber.org/zap"
)

// GrantFor maps a durable permission set onto the backend's access levels.
// Write-capable sets get the write grant; read-only sets get read plus
// presence; an empty set revokes (nil).
func GrantFor(perms []string) []string {
	switch {
	case models.HasWrite(perms):
		return GrantWrite
	case models.HasRead(perms):
		return GrantReadPresence
	default:
		return nil
	}
}

// Projector pushes durable permission state into the backend, one-way.
// Callers treat failures as a degraded mirror, never as a failed grant.
type Projector struct {
	rt  Interface
	log *zap.Logger
}

func NewProjector(rt Interface, logger *zap.Logger) *Projector {
	return &Projector{rt: rt, log: logger}
}

// Project asserts one user's grant on a room. Safe to repeat with the same
// input; the backend state converges to the same mapping.
func (p *Projector) Project(ctx context.Context, roomID, userID string, perms []string) error {
	if err := p.rt.UpdateAccess(ctx, roomID, userID, GrantFor(perms)); err != nil {
		p.log.Warn("realtime access projection failed",
			zap.String("room_id", roomID),
			zap.String("user_id", userID),
			zap.Error(err))
		return err
	}
	return nil
}
