package gateway

import (
	"context"
	"fmt"

	"github.com/eventflow-app/eventflow/internal/store"
)

// DeleteAccount removes a user and everything they own: the profile record,
// all events, all wishlist entries, all bookings, then the credential
// itself, after re-verifying the password.
//
// Steps run sequentially and stop at the first failure. Earlier deletions
// are not rolled back, so a mid-sequence failure leaves the account
// partially deleted; retrying the whole operation is the caller's job.
func (g *Gateway) DeleteAccount(ctx context.Context, ownerID, password string) error {
	if err := g.checkOwner(ownerID); err != nil {
		return err
	}

	if err := g.backend.Reauthenticate(ctx, ownerID, password); err != nil {
		return err
	}

	steps := []struct {
		name string
		path store.Path
	}{
		{"user profile", store.UserPath(ownerID)},
		{"events", store.EventsPath(ownerID)},
		{"wishlist", store.WishlistPath(ownerID)},
		{"bookings", store.BookingsPath(ownerID)},
	}
	for _, step := range steps {
		if err := g.db.Remove(ctx, step.path); err != nil {
			g.log.WithError(err).WithField("user_id", ownerID).Errorf("account deletion stopped at %s", step.name)
			return fmt.Errorf("failed to remove %s: %w", step.name, err)
		}
	}

	if err := g.backend.DeleteAccount(ctx, ownerID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	if err := g.sessions.DeleteAllForUser(ctx, ownerID); err != nil {
		g.log.WithError(err).WithField("user_id", ownerID).Warn("failed to revoke sessions after account deletion")
	}
	g.identity.Clear()

	g.log.WithField("user_id", ownerID).Info("account deleted")
	return nil
}
