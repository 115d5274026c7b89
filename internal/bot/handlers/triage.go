package handlers

import (
	"context"
	"log/slog"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/nolyk/modbot/internal/bot/keyboard"
	"github.com/nolyk/modbot/internal/domain"
	"github.com/nolyk/modbot/internal/i18n"
	"github.com/nolyk/modbot/internal/moderation"
	"github.com/nolyk/modbot/internal/repository"
)

// TriageFlow drives report triage on the moderation card: choosing a
// punishment, picking the violated rule, confirming, and rejecting.
type TriageFlow struct {
	rules       repository.RuleRepository
	reportRepo  repository.ReportRepository
	templates   repository.TemplateRepository
	reports     *moderation.ReportService
	punishments *moderation.PunishmentService
	t           i18n.Translator
	log         *slog.Logger
}

// NewTriageFlow builds the triage flow.
func NewTriageFlow(
	rules repository.RuleRepository,
	reportRepo repository.ReportRepository,
	templates repository.TemplateRepository,
	reports *moderation.ReportService,
	punishments *moderation.PunishmentService,
	t i18n.Translator,
	log *slog.Logger,
) *TriageFlow {
	if log == nil {
		log = slog.Default()
	}

	return &TriageFlow{
		rules:       rules,
		reportRepo:  reportRepo,
		templates:   templates,
		reports:     reports,
		punishments: punishments,
		t:           t,
		log:         log,
	}
}

// PickPunishment lists the rules matching the chosen punishment kind.
// Callback: punishment_{kind}_{reportID}.
func (f *TriageFlow) PickPunishment(c telebot.Context) error {
	if c == nil || c.Callback() == nil {
		return nil
	}

	args, err := keyboard.CallbackArgs(c.Callback().Data, keyboard.CallbackPunishment)
	if err != nil || len(args) != 2 {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	kind := domain.PunishmentKind(args[0])
	reportID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || !kind.Valid() {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	rules, err := f.rules.ListByKind(context.Background(), kind)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		return respondCallback(c, f.t.Tf("triage.no_rules_for_kind", kind.Label()), true)
	}

	text := f.t.Tf("triage.pick_rule", kind.Label())
	return c.Edit(text, keyboard.Rules(f.t, ruleValues(rules), reportID, kind), telebot.ModeHTML)
}

// PickRule shows the confirmation card for the chosen rule.
// Callback: rule_{kind}_{reportID}_{ruleID}.
func (f *TriageFlow) PickRule(c telebot.Context) error {
	if c == nil || c.Callback() == nil {
		return nil
	}

	args, err := keyboard.CallbackArgs(c.Callback().Data, keyboard.CallbackRule)
	if err != nil || len(args) != 3 {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	kind := domain.PunishmentKind(args[0])
	reportID, errReport := strconv.ParseInt(args[1], 10, 64)
	ruleID, errRule := strconv.ParseInt(args[2], 10, 64)
	if errReport != nil || errRule != nil || !kind.Valid() {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	ctx := context.Background()

	report, err := f.reportRepo.Get(ctx, reportID)
	if err != nil {
		return respondCallback(c, f.t.T("common.not_found"), true)
	}

	rule, err := f.rules.Get(ctx, ruleID)
	if err != nil {
		return respondCallback(c, f.t.T("rules.not_found"), true)
	}

	text := f.t.Tf("triage.confirm", report.AgainstUsername, rule.Article, rule.Description, rule.Kind.Label())
	if rule.HasDuration() {
		text += f.t.Tf("triage.confirm_duration", rule.Duration)
	}
	text += f.t.T("triage.confirm_question")

	return c.Edit(text, keyboard.ConfirmPunishment(f.t, reportID, kind, ruleID), telebot.ModeHTML)
}

// ConfirmPunishment applies the punishment and closes the report.
// Callback: confirm_{kind}_{reportID}_{ruleID}.
func (f *TriageFlow) ConfirmPunishment(c telebot.Context) error {
	if c == nil || c.Callback() == nil || c.Sender() == nil {
		return nil
	}

	args, err := keyboard.CallbackArgs(c.Callback().Data, keyboard.CallbackConfirm)
	if err != nil || len(args) != 3 {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	kind := domain.PunishmentKind(args[0])
	reportID, errReport := strconv.ParseInt(args[1], 10, 64)
	ruleID, errRule := strconv.ParseInt(args[2], 10, 64)
	if errReport != nil || errRule != nil || !kind.Valid() {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	result, err := f.punishments.Punish(context.Background(), moderation.PunishCommand{
		ReportID:  reportID,
		RuleID:    ruleID,
		Kind:      kind,
		AppliedBy: c.Sender().ID,
	})
	if err != nil {
		return err
	}

	if respondErr := respondCallback(c, f.t.T("triage.applied"), false); respondErr != nil {
		f.log.Debug("callback ack failed", slog.Any("error", respondErr))
	}

	details := f.t.Tf("triage.applied_details",
		result.Punishment.Username,
		result.Punishment.UserID,
		kind.Label(),
		result.Rule.Article,
	)

	return c.Send(details, telebot.ModeHTML)
}

// CancelPunishment restores the original report card.
// Callback: cancel_punishment_{reportID}.
func (f *TriageFlow) CancelPunishment(c telebot.Context) error {
	if c == nil || c.Callback() == nil {
		return nil
	}

	reportID, err := keyboard.CallbackInt64(c.Callback().Data, keyboard.CallbackCancelPunishment)
	if err != nil {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	report, err := f.reportRepo.Get(context.Background(), reportID)
	if err != nil {
		return respondCallback(c, f.t.T("common.not_found"), true)
	}

	text := f.t.Tf("report.card_open",
		report.ID,
		report.FromUsername,
		report.AgainstUsername,
		report.ViolationLink,
		report.Description,
	)

	return c.Edit(text, keyboard.Punishment(f.t, report.ID), telebot.ModeHTML)
}

// Reject shows the rejection template picker.
// Callback: reject_report_{reportID}.
func (f *TriageFlow) Reject(c telebot.Context) error {
	if c == nil || c.Callback() == nil {
		return nil
	}

	reportID, err := keyboard.CallbackInt64(c.Callback().Data, keyboard.CallbackRejectReport)
	if err != nil {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	templates, err := f.templates.List(context.Background())
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		return respondCallback(c, f.t.T("triage.no_templates"), true)
	}

	text := f.t.Tf("triage.pick_template", reportID)
	return c.Edit(text, keyboard.RejectionTemplates(f.t, templateValues(templates), reportID), telebot.ModeHTML)
}

// RejectWithTemplate rejects the report and replies to the reporter with the
// chosen template. Callback: reject_with_template_{reportID}_{templateID}.
func (f *TriageFlow) RejectWithTemplate(c telebot.Context) error {
	if c == nil || c.Callback() == nil {
		return nil
	}

	args, err := keyboard.CallbackArgs(c.Callback().Data, keyboard.CallbackRejectTemplate)
	if err != nil || len(args) != 2 {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	reportID, errReport := strconv.ParseInt(args[0], 10, 64)
	templateID, errTemplate := strconv.ParseInt(args[1], 10, 64)
	if errReport != nil || errTemplate != nil {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	template, err := f.reports.Reject(context.Background(), reportID, templateID)
	if err != nil {
		return err
	}

	return c.Send(f.t.Tf("report.rejected", reportID, template.Title), telebot.ModeHTML)
}
