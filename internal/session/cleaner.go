package session

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner removes idle sessions on a schedule. The Redis store already
// expires via TTL, so the cleaner matters mostly for the memory backend.
type Cleaner struct {
	store    Store
	log      *slog.Logger
	ttl      time.Duration
	interval time.Duration
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(store Store, log *slog.Logger, ttl, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		store:    store,
		log:      log,
		ttl:      ttl,
		interval: interval,
	}
}

// Run starts the cleanup loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.store == nil {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if reason := ctx.Err(); reason != nil {
				c.log.Info("session cleaner stopped", slog.String("reason", reason.Error()))
			} else {
				c.log.Info("session cleaner stopped")
			}
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *Cleaner) cleanup(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	sessions, err := c.store.All(ctx)
	if err != nil {
		c.log.Error("session cleaner failed to list sessions", slog.Any("error", err))
		return
	}

	for _, sess := range sessions {
		if time.Since(sess.UpdatedAt) <= c.ttl {
			continue
		}

		if err := c.store.Clear(ctx, sess.UserID); err != nil {
			c.log.Error("session cleaner failed to clear session", slog.Int64("user_id", sess.UserID), slog.Any("error", err))
			continue
		}

		c.log.Info("idle session cleared", slog.Int64("user_id", sess.UserID), slog.String("step", string(sess.Step)))
	}
}
