// Package moderation implements the report lifecycle and punishment
// enforcement on top of the repositories and the chat API.
package moderation

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/nolyk/modbot/internal/domain"
	"github.com/nolyk/modbot/internal/duration"
	"github.com/nolyk/modbot/internal/repository"
	"github.com/nolyk/modbot/internal/telegram"
)

// Enforcer applies and revokes punishments in the enforcement group and
// keeps the active-mute index in sync.
type Enforcer struct {
	api         telegram.API
	punishments repository.PunishmentRepository
	chatID      int64
	log         *slog.Logger
	now         func() time.Time
}

// NewEnforcer builds an Enforcer targeting the given enforcement group.
func NewEnforcer(api telegram.API, punishments repository.PunishmentRepository, chatID int64, log *slog.Logger) *Enforcer {
	if log == nil {
		log = slog.Default()
	}

	return &Enforcer{
		api:         api,
		punishments: punishments,
		chatID:      chatID,
		log:         log,
		now:         time.Now,
	}
}

// Apply enforces the punishment in the group. The punishment row is already
// persisted; enforcement failures are reported to the caller but must not
// undo the record.
func (e *Enforcer) Apply(ctx context.Context, p *domain.Punishment) error {
	if p.UserID == 0 {
		e.log.Warn("cannot enforce punishment without user id", slog.Int64("punishment_id", p.ID), slog.String("kind", string(p.Kind)))
		return nil
	}

	switch p.Kind {
	case domain.PunishMute:
		return e.applyMute(ctx, p)
	case domain.PunishKick:
		return e.applyKick(ctx, p)
	case domain.PunishBan:
		return e.applyBan(ctx, p)
	default:
		return fmt.Errorf("unknown punishment kind %q", p.Kind)
	}
}

func (e *Enforcer) applyMute(ctx context.Context, p *domain.Punishment) error {
	res := duration.ResolveMute(p.Duration, e.log)
	until, finite := res.ExpiryAt(e.now())

	var restrictUntil time.Time
	if finite {
		restrictUntil = until
	}

	if err := e.api.RestrictMember(ctx, e.chatID, p.UserID, restrictUntil); err != nil {
		return fmt.Errorf("apply mute: %w", err)
	}

	mute := &domain.ActiveMute{
		UserID:       p.UserID,
		ChatID:       e.chatID,
		PunishmentID: p.ID,
	}
	if finite {
		mute.ExpiresAt = sql.NullTime{Time: until, Valid: true}
	}

	if err := e.punishments.ReplaceMute(ctx, mute); err != nil {
		return fmt.Errorf("record active mute: %w", err)
	}

	e.log.Info("mute applied",
		slog.Int64("user_id", p.UserID),
		slog.Int64("chat_id", e.chatID),
		slog.Bool("indefinite", !finite),
	)
	return nil
}

// applyKick removes the user from the group; the immediate unban lets them
// rejoin, which is what distinguishes a kick from a ban.
func (e *Enforcer) applyKick(ctx context.Context, p *domain.Punishment) error {
	if err := e.api.BanMember(ctx, e.chatID, p.UserID, time.Time{}); err != nil {
		return fmt.Errorf("apply kick: %w", err)
	}

	if err := e.api.UnbanMember(ctx, e.chatID, p.UserID); err != nil {
		return fmt.Errorf("unban after kick: %w", err)
	}

	e.log.Info("kick applied", slog.Int64("user_id", p.UserID), slog.Int64("chat_id", e.chatID))
	return nil
}

func (e *Enforcer) applyBan(ctx context.Context, p *domain.Punishment) error {
	res := duration.ResolveBan(p.Duration, e.log)
	until, finite := res.ExpiryAt(e.now())

	var banUntil time.Time
	if finite {
		banUntil = until
	}

	if err := e.api.BanMember(ctx, e.chatID, p.UserID, banUntil); err != nil {
		return fmt.Errorf("apply ban: %w", err)
	}

	e.log.Info("ban applied",
		slog.Int64("user_id", p.UserID),
		slog.Int64("chat_id", e.chatID),
		slog.Bool("permanent", !finite),
	)
	return nil
}

// Revoke undoes the group-side effect of a punishment. Kicks have nothing
// to undo.
func (e *Enforcer) Revoke(ctx context.Context, p *domain.Punishment) error {
	if p.UserID == 0 {
		return nil
	}

	switch p.Kind {
	case domain.PunishMute:
		if err := e.api.UnrestrictMember(ctx, e.chatID, p.UserID); err != nil {
			return fmt.Errorf("lift mute: %w", err)
		}
		e.log.Info("mute lifted", slog.Int64("user_id", p.UserID))
	case domain.PunishBan:
		if err := e.api.UnbanMember(ctx, e.chatID, p.UserID); err != nil {
			return fmt.Errorf("lift ban: %w", err)
		}
		e.log.Info("ban lifted", slog.Int64("user_id", p.UserID))
	case domain.PunishKick:
		// nothing to revoke
	}

	return nil
}
