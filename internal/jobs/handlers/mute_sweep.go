package handlers

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nolyk/modbot/internal/repository"
)

// MuteSweepHandler clears active-mute index rows whose expiry has passed.
// Telegram lifts the restriction itself; the sweep keeps the classified
// punished-users view honest.
type MuteSweepHandler struct {
	punishments repository.PunishmentRepository
	log         *slog.Logger
}

func NewMuteSweepHandler(punishments repository.PunishmentRepository, log *slog.Logger) *MuteSweepHandler {
	return &MuteSweepHandler{
		punishments: punishments,
		log:         log,
	}
}

func (h *MuteSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	removed, err := h.punishments.DeleteExpiredMutes(ctx)
	if err != nil {
		if h.log != nil {
			h.log.ErrorContext(ctx, "mute sweep failed", slog.String("task_type", t.Type()), slog.Any("error", err))
		}
		return err
	}

	if h.log != nil && removed > 0 {
		h.log.InfoContext(ctx, "swept expired mutes", slog.Int64("removed", removed))
	}

	return nil
}
