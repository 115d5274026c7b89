package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/nolyk/modbot/internal/bot/keyboard"
	"github.com/nolyk/modbot/internal/domain"
	"github.com/nolyk/modbot/internal/i18n"
	"github.com/nolyk/modbot/internal/moderation"
	"github.com/nolyk/modbot/internal/repository"
)

const punishedPageSize = 10

// PunishedFlow drives the punished-users admin view: the classified list,
// per-punishment detail, and lifting.
type PunishedFlow struct {
	punishments *moderation.PunishmentService
	rules       repository.RuleRepository
	t           i18n.Translator
	log         *slog.Logger
}

// NewPunishedFlow builds the punished-users flow.
func NewPunishedFlow(punishments *moderation.PunishmentService, rules repository.RuleRepository, t i18n.Translator, log *slog.Logger) *PunishedFlow {
	if log == nil {
		log = slog.Default()
	}

	return &PunishedFlow{
		punishments: punishments,
		rules:       rules,
		t:           t,
		log:         log,
	}
}

// List shows punished users, active entries first.
// Callback: view_punished_users or view_punished_users_{page}.
func (f *PunishedFlow) List(c telebot.Context) error {
	if c == nil || c.Callback() == nil {
		return nil
	}

	page := 1
	args, err := keyboard.CallbackArgs(c.Callback().Data, keyboard.CallbackViewPunished)
	if err == nil && len(args) == 1 {
		if n, parseErr := strconv.Atoi(args[0]); parseErr == nil && n > 0 {
			page = n
		}
	}

	all, err := f.punishments.List(context.Background())
	if err != nil {
		return err
	}
	if len(all) == 0 {
		return editOrSend(c, f.t.T("punishment.list_empty"), keyboard.Back(f.t, keyboard.CallbackAdminMenu))
	}

	totalPages := (len(all) + punishedPageSize - 1) / punishedPageSize
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * punishedPageSize
	end := start + punishedPageSize
	if end > len(all) {
		end = len(all)
	}
	slice := all[start:end]

	var active, inactive []*domain.Punishment
	for _, p := range slice {
		if p.Active {
			active = append(active, p)
		} else {
			inactive = append(inactive, p)
		}
	}

	var b strings.Builder
	b.WriteString(f.t.Tf("punishment.list_header", len(all)))
	if len(active) > 0 {
		b.WriteString(f.t.Tf("punishment.list_active_header", len(active)))
		for _, p := range active {
			b.WriteString(f.t.Tf("punishment.list_active_row", p.Username, p.UserID, p.Kind.Label(), p.Duration))
		}
	}
	if len(inactive) > 0 {
		b.WriteString(f.t.Tf("punishment.list_inactive_header", len(inactive)))
		for _, p := range inactive {
			b.WriteString(f.t.Tf("punishment.list_inactive_row", p.Username, p.UserID, p.Kind.Label(), p.Duration))
		}
	}

	return editOrSend(c, b.String(), keyboard.PunishedUsers(f.t, punishmentValues(slice), page, totalPages), telebot.ModeHTML)
}

// Detail shows one punishment with the lift action.
// Callback: view_punishment_{id}.
func (f *PunishedFlow) Detail(c telebot.Context) error {
	if c == nil || c.Callback() == nil {
		return nil
	}

	punishmentID, err := keyboard.CallbackInt64(c.Callback().Data, keyboard.CallbackViewPunishment)
	if err != nil {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	ctx := context.Background()

	p, err := f.punishments.Get(ctx, punishmentID)
	if err != nil {
		return respondCallback(c, f.t.T("punishment.not_found"), true)
	}

	var b strings.Builder
	b.WriteString(f.t.Tf("punishment.detail", p.ID, p.Username, p.UserID, p.Kind.Label()))

	if p.RuleID.Valid {
		if rule, ruleErr := f.rules.Get(ctx, p.RuleID.Int64); ruleErr == nil {
			b.WriteString(f.t.Tf("punishment.detail_article", rule.Article))
		}
	}
	if p.Duration != "" && p.Duration != domain.NoDurationSentinel {
		b.WriteString(f.t.Tf("punishment.detail_duration", p.Duration))
	}
	b.WriteString(f.t.Tf("punishment.detail_date", p.AppliedAt.Format("02.01.2006 15:04")))

	return c.Edit(b.String(), keyboard.RemovePunishment(f.t, p.ID), telebot.ModeHTML)
}

// Remove lifts the punishment and deletes its record.
// Callback: remove_punishment_{id}.
func (f *PunishedFlow) Remove(c telebot.Context) error {
	if c == nil || c.Callback() == nil {
		return nil
	}

	punishmentID, err := keyboard.CallbackInt64(c.Callback().Data, keyboard.CallbackRemovePunishment)
	if err != nil {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	p, err := f.punishments.Lift(context.Background(), punishmentID)
	if err != nil {
		return err
	}

	return editOrSend(c, f.t.Tf("punishment.lifted", punishmentID, p.Username), keyboard.Back(f.t, keyboard.CallbackViewPunished), telebot.ModeHTML)
}
