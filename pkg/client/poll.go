package client

import (
	"context"
	"log/slog"
	"time"
)

// PollSession re-fetches the session on a fixed interval and folds each
// snapshot into the view until the session reaches a terminal status or
// ctx is cancelled. Transient fetch errors are logged and the next tick
// retries; only context cancellation stops the loop early. The view's
// SessionID must be set.
func (c *Client) PollSession(ctx context.Context, view *SessionView, onUpdate func(*SessionView)) error {
	view.Phase = PhasePolling
	if onUpdate != nil {
		onUpdate(view)
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		session, err := c.GetSession(ctx, view.SessionID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("Polling session failed, will retry",
				"session_id", view.SessionID,
				"error", err)
			continue
		}
		view.ApplySession(session)
		if onUpdate != nil {
			onUpdate(view)
		}
		if view.Terminal() {
			return nil
		}
	}
}
