package moderation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nolyk/modbot/internal/apperr"
	"github.com/nolyk/modbot/internal/bot/keyboard"
	"github.com/nolyk/modbot/internal/domain"
	"github.com/nolyk/modbot/internal/i18n"
	"github.com/nolyk/modbot/internal/repository"
	"github.com/nolyk/modbot/internal/telegram"
	"github.com/nolyk/modbot/pkg/metrics"
)

const (
	minUsernameLen    = 3
	minDescriptionLen = 5
	noLinkKeyword     = "нет"
)

// SubmitInput carries the collected report form fields.
type SubmitInput struct {
	FromUserID    int64
	FromUsername  string
	AgainstUserID int64
	AgainstUsername string
	ViolationLink string
	Description   string
}

// SubmitResult reports the stored report and whether the card reached the
// moderation topic.
type SubmitResult struct {
	Report    *domain.Report
	Delivered bool
}

// ReportService owns the report lifecycle: filing, delivery to the
// moderation topic, rejection, and redelivery of stranded reports.
type ReportService struct {
	reports   repository.ReportRepository
	templates repository.TemplateRepository
	api       telegram.API
	t         i18n.Translator
	groupID   int64
	topicID   int64
	log       *slog.Logger
}

// NewReportService builds a ReportService delivering cards to the given
// group and topic.
func NewReportService(
	reports repository.ReportRepository,
	templates repository.TemplateRepository,
	api telegram.API,
	t i18n.Translator,
	groupID, topicID int64,
	log *slog.Logger,
) *ReportService {
	if log == nil {
		log = slog.Default()
	}

	return &ReportService{
		reports:   reports,
		templates: templates,
		api:       api,
		t:         t,
		groupID:   groupID,
		topicID:   topicID,
		log:       log,
	}
}

// NormalizeUsername strips the @ prefix and validates the minimum length.
func NormalizeUsername(raw string) (string, error) {
	username := strings.TrimSpace(strings.ReplaceAll(raw, "@", ""))
	if len([]rune(username)) < minUsernameLen {
		return "", apperr.NewValidationError(fmt.Errorf("username %q too short", username))
	}
	return username, nil
}

// NormalizeLink maps the "no link" keyword to the sentinel value.
func NormalizeLink(raw string) string {
	link := strings.TrimSpace(raw)
	if strings.EqualFold(link, noLinkKeyword) {
		return domain.NoLinkSentinel
	}
	return link
}

// ValidateDescription enforces the minimum description length.
func ValidateDescription(raw string) (string, error) {
	description := strings.TrimSpace(raw)
	if len([]rune(description)) < minDescriptionLen {
		return "", apperr.NewValidationError(fmt.Errorf("description too short: %d runes", len([]rune(description))))
	}
	return description, nil
}

// Submit persists the report and attempts to deliver its card to the
// moderation topic. A delivery failure leaves the report stored and open;
// the redelivery job retries it later.
func (s *ReportService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	report := &domain.Report{
		FromUserID:      in.FromUserID,
		FromUsername:    in.FromUsername,
		AgainstUserID:   sql.NullInt64{Int64: in.AgainstUserID, Valid: in.AgainstUserID != 0},
		AgainstUsername: in.AgainstUsername,
		ViolationLink:   in.ViolationLink,
		Description:     in.Description,
		Status:          domain.ReportOpen,
	}

	id, err := s.reports.Create(ctx, report)
	if err != nil {
		return nil, apperr.NewDatabaseError(fmt.Errorf("create report: %w", err))
	}
	report.ID = id

	if err := s.Deliver(ctx, report); err != nil {
		s.log.Error("report card delivery failed",
			slog.Int64("report_id", report.ID),
			slog.Any("error", err),
		)
		metrics.RecordDeliveryFailure()
		return &SubmitResult{Report: report}, nil
	}

	return &SubmitResult{Report: report, Delivered: true}, nil
}

// Deliver posts the report card with the triage keyboard into the
// moderation topic and records the message coordinates.
func (s *ReportService) Deliver(ctx context.Context, report *domain.Report) error {
	text := s.t.Tf("report.card_new",
		report.ID,
		report.FromUsername,
		report.AgainstUsername,
		report.ViolationLink,
		report.Description,
	)

	msg, err := s.api.SendMessage(ctx, s.groupID, text, telegram.SendOpts{
		TopicID: int(s.topicID),
		Markup:  keyboard.Punishment(s.t, report.ID),
	})
	if err != nil {
		return apperr.NewTransportError(fmt.Errorf("deliver report card: %w", err))
	}

	if err := s.reports.AttachDelivery(ctx, report.ID, int64(msg.MessageID), s.groupID, s.topicID); err != nil {
		return apperr.NewDatabaseError(fmt.Errorf("attach delivery: %w", err))
	}

	report.MessageID = sql.NullInt64{Int64: int64(msg.MessageID), Valid: true}
	report.ChatID = sql.NullInt64{Int64: s.groupID, Valid: true}
	report.TopicID = sql.NullInt64{Int64: s.topicID, Valid: true}

	s.log.Info("report card delivered",
		slog.Int64("report_id", report.ID),
		slog.Int("message_id", msg.MessageID),
	)
	return nil
}

// Reject closes the report as rejected, sends the canned template reply to
// the reporter, and removes the card from the moderation topic. The reply
// and the card removal are best effort; the status change is not.
func (s *ReportService) Reject(ctx context.Context, reportID, templateID int64) (*domain.RejectionTemplate, error) {
	report, err := s.reports.Get(ctx, reportID)
	if err != nil {
		return nil, wrapLookup(err, "report", reportID)
	}

	template, err := s.templates.Get(ctx, templateID)
	if err != nil {
		return nil, wrapLookup(err, "template", templateID)
	}

	if err := s.reports.Reject(ctx, reportID); err != nil {
		if errors.Is(err, repository.ErrReportFinalized) {
			return nil, apperr.NewStateError(fmt.Errorf("report %d already finalized", reportID))
		}
		return nil, apperr.NewDatabaseError(fmt.Errorf("reject report %d: %w", reportID, err))
	}
	metrics.RecordReportTransition(string(domain.ReportRejected))

	reply := s.t.Tf("report.reply", reportID, template.Title, template.Text)
	if _, err := s.api.SendMessage(ctx, report.FromUserID, reply, telegram.SendOpts{}); err != nil {
		s.log.Warn("failed to send rejection reply",
			slog.Int64("report_id", reportID),
			slog.Int64("user_id", report.FromUserID),
			slog.Any("error", err),
		)
	}

	s.removeCard(ctx, report)

	s.log.Info("report rejected",
		slog.Int64("report_id", reportID),
		slog.Int64("template_id", templateID),
	)
	return template, nil
}

// RedeliverPending retries delivery for open reports whose card never
// reached the moderation topic.
func (s *ReportService) RedeliverPending(ctx context.Context, limit int) (int, error) {
	pending, err := s.reports.ListUndelivered(ctx, limit)
	if err != nil {
		return 0, apperr.NewDatabaseError(fmt.Errorf("list undelivered reports: %w", err))
	}

	delivered := 0
	for _, report := range pending {
		if err := s.Deliver(ctx, report); err != nil {
			s.log.Warn("redelivery failed",
				slog.Int64("report_id", report.ID),
				slog.Any("error", err),
			)
			metrics.RecordDeliveryFailure()
			continue
		}
		delivered++
	}

	return delivered, nil
}

func (s *ReportService) removeCard(ctx context.Context, report *domain.Report) {
	if !report.Delivered() {
		return
	}

	msg := telegram.Message{
		ChatID:    report.ChatID.Int64,
		MessageID: int(report.MessageID.Int64),
	}
	if err := s.api.DeleteMessage(ctx, msg); err != nil {
		s.log.Warn("failed to delete report card",
			slog.Int64("report_id", report.ID),
			slog.Any("error", err),
		)
	}
}

func wrapLookup(err error, what string, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NewNotFoundError(fmt.Errorf("%s %d not found", what, id))
	}
	return apperr.NewDatabaseError(fmt.Errorf("load %s %d: %w", what, id, err))
}
