package moderation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nolyk/modbot/internal/apperr"
	"github.com/nolyk/modbot/internal/bot/keyboard"
	"github.com/nolyk/modbot/internal/domain"
	"github.com/nolyk/modbot/internal/i18n"
	"github.com/nolyk/modbot/internal/repository"
	"github.com/nolyk/modbot/internal/telegram"
	"github.com/nolyk/modbot/pkg/metrics"
)

// PunishCommand identifies the triage decision being confirmed.
type PunishCommand struct {
	ReportID  int64
	RuleID    int64
	Kind      domain.PunishmentKind
	AppliedBy int64
}

// PunishResult carries everything the handler needs to update the admin UI.
type PunishResult struct {
	Punishment *domain.Punishment
	Report     *domain.Report
	Rule       *domain.Rule
}

// PunishmentService closes reports with punishments and lifts them again.
type PunishmentService struct {
	punishments repository.PunishmentRepository
	reports     repository.ReportRepository
	rules       repository.RuleRepository
	enforcer    *Enforcer
	api         telegram.API
	t           i18n.Translator
	appealURL   string
	log         *slog.Logger
}

// NewPunishmentService wires the punishment workflow.
func NewPunishmentService(
	punishments repository.PunishmentRepository,
	reports repository.ReportRepository,
	rules repository.RuleRepository,
	enforcer *Enforcer,
	api telegram.API,
	t i18n.Translator,
	appealURL string,
	log *slog.Logger,
) *PunishmentService {
	if log == nil {
		log = slog.Default()
	}

	return &PunishmentService{
		punishments: punishments,
		reports:     reports,
		rules:       rules,
		enforcer:    enforcer,
		api:         api,
		t:           t,
		appealURL:   appealURL,
		log:         log,
	}
}

// Punish records the punishment while atomically closing the report, then
// enforces it in the group, notifies the offender, and removes the report
// card. Everything after the record is best effort: a chat API failure must
// not roll back the decision.
func (s *PunishmentService) Punish(ctx context.Context, cmd PunishCommand) (*PunishResult, error) {
	if !cmd.Kind.Valid() {
		return nil, apperr.NewValidationError(fmt.Errorf("unknown punishment kind %q", cmd.Kind))
	}

	report, err := s.reports.Get(ctx, cmd.ReportID)
	if err != nil {
		return nil, wrapLookup(err, "report", cmd.ReportID)
	}

	rule, err := s.rules.Get(ctx, cmd.RuleID)
	if err != nil {
		return nil, wrapLookup(err, "rule", cmd.RuleID)
	}

	if rule.Kind != cmd.Kind {
		return nil, apperr.NewValidationError(fmt.Errorf("rule %d prescribes %s, not %s", rule.ID, rule.Kind, cmd.Kind))
	}

	punishment := &domain.Punishment{
		ReportID:  report.ID,
		UserID:    report.AgainstUserID.Int64,
		Username:  report.AgainstUsername,
		RuleID:    toNullInt64(rule.ID),
		Kind:      cmd.Kind,
		Duration:  rule.Duration,
		AppliedBy: cmd.AppliedBy,
	}

	id, err := s.punishments.CreateClosingReport(ctx, punishment)
	if err != nil {
		if errors.Is(err, repository.ErrReportFinalized) {
			return nil, apperr.NewStateError(fmt.Errorf("report %d already finalized", report.ID))
		}
		return nil, apperr.NewDatabaseError(fmt.Errorf("record punishment: %w", err))
	}
	punishment.ID = id

	metrics.RecordReportTransition(string(domain.ReportClosed))
	metrics.RecordPunishment(string(cmd.Kind))

	if err := s.enforcer.Apply(ctx, punishment); err != nil {
		s.log.Error("enforcement failed",
			slog.Int64("punishment_id", punishment.ID),
			slog.String("kind", string(punishment.Kind)),
			slog.Any("error", err),
		)
	}

	s.notifyOffender(ctx, punishment, rule, report.ViolationLink)
	s.removeReportCard(ctx, report)

	s.log.Info("punishment applied",
		slog.Int64("punishment_id", punishment.ID),
		slog.Int64("report_id", report.ID),
		slog.String("kind", string(punishment.Kind)),
		slog.Int64("applied_by", cmd.AppliedBy),
	)

	return &PunishResult{Punishment: punishment, Report: report, Rule: rule}, nil
}

// Lift revokes the punishment in the group, notifies the user, and deletes
// the record together with its active-mute rows.
func (s *PunishmentService) Lift(ctx context.Context, punishmentID int64) (*domain.Punishment, error) {
	punishment, err := s.punishments.Get(ctx, punishmentID)
	if err != nil {
		return nil, wrapLookup(err, "punishment", punishmentID)
	}

	if err := s.enforcer.Revoke(ctx, punishment); err != nil {
		s.log.Error("failed to revoke punishment in group",
			slog.Int64("punishment_id", punishmentID),
			slog.Any("error", err),
		)
	}

	if punishment.UserID != 0 {
		if _, err := s.api.SendMessage(ctx, punishment.UserID, s.t.T("punishment.lifted_user"), telegram.SendOpts{}); err != nil {
			s.log.Warn("failed to notify user about lifted punishment",
				slog.Int64("user_id", punishment.UserID),
				slog.Any("error", err),
			)
		}
	}

	if err := s.punishments.Delete(ctx, punishmentID); err != nil {
		return nil, apperr.NewDatabaseError(fmt.Errorf("delete punishment %d: %w", punishmentID, err))
	}
	metrics.RecordLift()

	s.log.Info("punishment lifted", slog.Int64("punishment_id", punishmentID))
	return punishment, nil
}

// List returns every punishment classified by activity, active first.
func (s *PunishmentService) List(ctx context.Context) ([]*domain.Punishment, error) {
	punishments, err := s.punishments.ListClassified(ctx)
	if err != nil {
		return nil, apperr.NewDatabaseError(fmt.Errorf("list punishments: %w", err))
	}
	return punishments, nil
}

// Get loads one punishment with its activity classification.
func (s *PunishmentService) Get(ctx context.Context, id int64) (*domain.Punishment, error) {
	punishment, err := s.punishments.Get(ctx, id)
	if err != nil {
		return nil, wrapLookup(err, "punishment", id)
	}
	return punishment, nil
}

func (s *PunishmentService) notifyOffender(ctx context.Context, p *domain.Punishment, rule *domain.Rule, violationLink string) {
	if p.UserID == 0 {
		return
	}

	text := s.t.Tf("punishment.notify", rule.Article, rule.Description, p.Kind.Label())
	if rule.HasDuration() {
		text += s.t.Tf("punishment.notify_duration", rule.Duration)
	}
	if violationLink != "" && violationLink != domain.NoLinkSentinel {
		text += s.t.Tf("punishment.notify_link", violationLink)
	}
	text += s.t.T("punishment.notify_appeal")

	opts := telegram.SendOpts{Markup: keyboard.Appeal(s.t, s.appealURL)}
	if _, err := s.api.SendMessage(ctx, p.UserID, text, opts); err != nil {
		s.log.Warn("failed to notify offender",
			slog.Int64("user_id", p.UserID),
			slog.Any("error", err),
		)
	}
}

func (s *PunishmentService) removeReportCard(ctx context.Context, report *domain.Report) {
	if !report.Delivered() {
		return
	}

	msg := telegram.Message{
		ChatID:    report.ChatID.Int64,
		MessageID: int(report.MessageID.Int64),
	}
	if err := s.api.DeleteMessage(ctx, msg); err != nil {
		s.log.Warn("failed to delete report card after punishment",
			slog.Int64("report_id", report.ID),
			slog.Any("error", err),
		)
	}
}

func toNullInt64(v int64) (n sql.NullInt64) {
	if v != 0 {
		n.Int64 = v
		n.Valid = true
	}
	return n
}
