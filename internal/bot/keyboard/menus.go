package keyboard

import (
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/nolyk/modbot/internal/domain"
	"github.com/nolyk/modbot/internal/i18n"
)

// StartMenu offers the report entry point.
func StartMenu(t i18n.Translator) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: t.T("start.report_button"), Data: CallbackStartReport}).
		Build()
}

// SubmitReport offers submit and cancel actions for a drafted report.
func SubmitReport(t i18n.Translator) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: t.T("report.submit_button"), Data: CallbackSubmitReport}).
		AddRow(InlineButton{Text: t.T("common.cancel"), Data: CallbackCancelReport}).
		Build()
}

// Punishment offers the triage actions attached to a report card.
func Punishment(t i18n.Translator, reportID int64) *telebot.ReplyMarkup {
	id := strconv.FormatInt(reportID, 10)
	return NewInlineKeyboard().
		AddRow(
			InlineButton{Text: t.T("triage.mute_button"), Data: MustEncode(CallbackPunishment, string(domain.PunishMute), id)},
			InlineButton{Text: t.T("triage.kick_button"), Data: MustEncode(CallbackPunishment, string(domain.PunishKick), id)},
			InlineButton{Text: t.T("triage.ban_button"), Data: MustEncode(CallbackPunishment, string(domain.PunishBan), id)},
		).
		AddRow(InlineButton{Text: t.T("triage.reject_button"), Data: MustEncode(CallbackRejectReport, id)}).
		Build()
}

// Rules lists the rules matching the chosen punishment kind.
func Rules(t i18n.Translator, rules []domain.Rule, reportID int64, kind domain.PunishmentKind) *telebot.ReplyMarkup {
	id := strconv.FormatInt(reportID, 10)

	b := NewInlineKeyboard()
	for _, rule := range rules {
		b.AddRow(InlineButton{
			Text: "📄 " + rule.Article,
			Data: MustEncode(CallbackRule, string(kind), id, strconv.FormatInt(rule.ID, 10)),
		})
	}

	return b.
		AddRow(InlineButton{Text: t.T("common.cancel"), Data: MustEncode(CallbackCancelPunishment, id)}).
		Build()
}

// ConfirmPunishment asks for final confirmation before enforcement.
func ConfirmPunishment(t i18n.Translator, reportID int64, kind domain.PunishmentKind, ruleID int64) *telebot.ReplyMarkup {
	id := strconv.FormatInt(reportID, 10)
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: t.T("common.confirm"), Data: MustEncode(CallbackConfirm, string(kind), id, strconv.FormatInt(ruleID, 10))}).
		AddRow(InlineButton{Text: t.T("common.cancel"), Data: MustEncode(CallbackCancelPunishment, id)}).
		Build()
}

// AdminMenu is the admin panel root.
func AdminMenu(t i18n.Translator) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: t.T("admin.rules_button"), Data: CallbackAdminRules}).
		AddRow(InlineButton{Text: t.T("admin.punished_button"), Data: CallbackViewPunished}).
		AddRow(InlineButton{Text: t.T("admin.templates_button"), Data: CallbackViewTemplates}).
		Build()
}

// RulesMenu is the rule management submenu.
func RulesMenu(t i18n.Translator) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: t.T("rules.add_button"), Data: CallbackAddRule}).
		AddRow(InlineButton{Text: t.T("rules.view_button"), Data: CallbackViewRules}).
		AddRow(InlineButton{Text: t.T("common.back"), Data: CallbackAdminMenu}).
		Build()
}

// PunishmentKinds offers the punishment kind choices for a new rule.
func PunishmentKinds(t i18n.Translator) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: t.T("triage.mute_button"), Data: MustEncode(CallbackRuleType, string(domain.PunishMute))}).
		AddRow(InlineButton{Text: t.T("triage.kick_button"), Data: MustEncode(CallbackRuleType, string(domain.PunishKick))}).
		AddRow(InlineButton{Text: t.T("triage.ban_button"), Data: MustEncode(CallbackRuleType, string(domain.PunishBan))}).
		Build()
}

// MuteDurations offers preset mute lengths plus custom input.
func MuteDurations(t i18n.Translator) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(
			InlineButton{Text: t.T("duration.mute_30"), Data: MustEncode(CallbackMuteDuration, "30")},
			InlineButton{Text: t.T("duration.mute_60"), Data: MustEncode(CallbackMuteDuration, "60")},
			InlineButton{Text: t.T("duration.mute_180"), Data: MustEncode(CallbackMuteDuration, "180")},
		).
		AddRow(
			InlineButton{Text: t.T("duration.mute_1440"), Data: MustEncode(CallbackMuteDuration, "1440")},
			InlineButton{Text: t.T("duration.mute_none"), Data: MustEncode(CallbackMuteDuration, "none")},
		).
		AddRow(InlineButton{Text: t.T("duration.custom_button_minutes"), Data: MustEncode(CallbackMuteDuration, "custom")}).
		Build()
}

// BanDurations offers preset ban lengths plus custom input.
func BanDurations(t i18n.Translator) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(
			InlineButton{Text: t.T("duration.ban_1"), Data: MustEncode(CallbackBanDuration, "1")},
			InlineButton{Text: t.T("duration.ban_3"), Data: MustEncode(CallbackBanDuration, "3")},
			InlineButton{Text: t.T("duration.ban_7"), Data: MustEncode(CallbackBanDuration, "7")},
		).
		AddRow(
			InlineButton{Text: t.T("duration.ban_30"), Data: MustEncode(CallbackBanDuration, "30")},
			InlineButton{Text: t.T("duration.ban_perm"), Data: MustEncode(CallbackBanDuration, "perm")},
		).
		AddRow(InlineButton{Text: t.T("duration.custom_button_days"), Data: MustEncode(CallbackBanDuration, "custom")}).
		Build()
}

// ConfirmRuleSave asks for confirmation before persisting a drafted rule.
func ConfirmRuleSave(t i18n.Translator) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: t.T("rules.save_button"), Data: CallbackConfirmRuleSave}).
		AddRow(InlineButton{Text: t.T("common.cancel"), Data: CallbackCancelAddRule}).
		Build()
}

// RulesList lists every rule for editing.
func RulesList(t i18n.Translator, rules []domain.Rule) *telebot.ReplyMarkup {
	b := NewInlineKeyboard()
	for _, rule := range rules {
		b.AddRow(InlineButton{
			Text: "📄 " + rule.Article,
			Data: MustEncode(CallbackEditRule, strconv.FormatInt(rule.ID, 10)),
		})
	}

	return b.
		AddRow(InlineButton{Text: t.T("common.back"), Data: CallbackAdminRules}).
		Build()
}

// RuleEdit offers edit and delete actions for one rule.
func RuleEdit(t i18n.Translator, ruleID int64) *telebot.ReplyMarkup {
	id := strconv.FormatInt(ruleID, 10)
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: t.T("rules.edit_button"), Data: MustEncode(CallbackEditRuleDetails, id)}).
		AddRow(InlineButton{Text: t.T("rules.delete_button"), Data: MustEncode(CallbackDeleteRule, id)}).
		AddRow(InlineButton{Text: t.T("common.back"), Data: CallbackViewRules}).
		Build()
}

// ConfirmDeleteRule asks for confirmation before removing a rule.
func ConfirmDeleteRule(t i18n.Translator, ruleID int64) *telebot.ReplyMarkup {
	id := strconv.FormatInt(ruleID, 10)
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: t.T("rules.delete_yes_button"), Data: MustEncode(CallbackConfirmDelete, id)}).
		AddRow(InlineButton{Text: t.T("common.cancel"), Data: MustEncode(CallbackEditRule, id)}).
		Build()
}

// PunishedUsers lists punished users with an optional pagination row.
func PunishedUsers(t i18n.Translator, punishments []domain.Punishment, page, totalPages int) *telebot.ReplyMarkup {
	b := NewInlineKeyboard()
	for _, p := range punishments {
		b.AddRow(InlineButton{
			Text: "🚨 " + p.Username + " (" + p.Kind.Label() + ")",
			Data: MustEncode(CallbackViewPunishment, strconv.FormatInt(p.ID, 10)),
		})
	}

	if totalPages > 1 {
		b.AddRow(PaginationButtons(t, CallbackViewPunished, page, totalPages)...)
	}

	return b.
		AddRow(InlineButton{Text: t.T("common.back"), Data: CallbackAdminMenu}).
		Build()
}

// RemovePunishment offers lifting a punishment.
func RemovePunishment(t i18n.Translator, punishmentID int64) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: t.T("punishment.remove_button"), Data: MustEncode(CallbackRemovePunishment, strconv.FormatInt(punishmentID, 10))}).
		AddRow(InlineButton{Text: t.T("common.cancel"), Data: CallbackViewPunished}).
		Build()
}

// RejectionTemplates lists rejection templates for the given report.
func RejectionTemplates(t i18n.Translator, templates []domain.RejectionTemplate, reportID int64) *telebot.ReplyMarkup {
	id := strconv.FormatInt(reportID, 10)

	b := NewInlineKeyboard()
	for _, tpl := range templates {
		b.AddRow(InlineButton{
			Text: "📝 " + tpl.Title,
			Data: MustEncode(CallbackRejectTemplate, id, strconv.FormatInt(tpl.ID, 10)),
		})
	}

	return b.
		AddRow(InlineButton{Text: t.T("common.cancel"), Data: CallbackAdminMenu}).
		Build()
}

// Templates is the template management menu.
func Templates(t i18n.Translator) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: t.T("templates.add_button"), Data: CallbackAddTemplate}).
		AddRow(InlineButton{Text: t.T("common.back"), Data: CallbackAdminMenu}).
		Build()
}

// Back renders a single back button pointing at the given action.
func Back(t i18n.Translator, action string) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: t.T("common.back"), Data: action}).
		Build()
}

// Appeal renders the appeal link shown to punished users.
func Appeal(t i18n.Translator, url string) *telebot.ReplyMarkup {
	if url == "" {
		return nil
	}

	return NewInlineKeyboard().
		AddRow(InlineButton{Text: t.T("punishment.appeal_button"), URL: url}).
		Build()
}
