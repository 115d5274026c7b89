package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nolyk/modbot/internal/jobs"
	"github.com/nolyk/modbot/internal/moderation"
)

// ReportRedeliverHandler retries posting report cards that never reached
// the moderation topic.
type ReportRedeliverHandler struct {
	reports *moderation.ReportService
	log     *slog.Logger
}

func NewReportRedeliverHandler(reports *moderation.ReportService, log *slog.Logger) *ReportRedeliverHandler {
	return &ReportRedeliverHandler{
		reports: reports,
		log:     log,
	}
}

func (h *ReportRedeliverHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.ReportRedeliverPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			if h.log != nil {
				h.log.ErrorContext(ctx, "report redeliver: failed to decode payload",
					slog.String("task_type", t.Type()), slog.Any("error", err))
			}
			return err
		}
	}

	delivered, err := h.reports.RedeliverPending(ctx, payload.Limit)
	if err != nil {
		if h.log != nil {
			h.log.ErrorContext(ctx, "report redelivery failed", slog.Any("error", err))
		}
		return err
	}

	if h.log != nil && delivered > 0 {
		h.log.InfoContext(ctx, "redelivered stranded reports", slog.Int("delivered", delivered))
	}

	return nil
}
