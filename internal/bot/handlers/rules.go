package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/nolyk/modbot/internal/bot/keyboard"
	"github.com/nolyk/modbot/internal/domain"
	"github.com/nolyk/modbot/internal/duration"
	"github.com/nolyk/modbot/internal/i18n"
	"github.com/nolyk/modbot/internal/repository"
	"github.com/nolyk/modbot/internal/session"
)

const minRuleDescriptionLen = 5

// RuleFlow drives rule management: creation, listing, renaming, deletion.
type RuleFlow struct {
	sessions *session.Manager
	rules    repository.RuleRepository
	t        i18n.Translator
	log      *slog.Logger
}

// NewRuleFlow builds the rule management flow.
func NewRuleFlow(sessions *session.Manager, rules repository.RuleRepository, t i18n.Translator, log *slog.Logger) *RuleFlow {
	if log == nil {
		log = slog.Default()
	}

	return &RuleFlow{
		sessions: sessions,
		rules:    rules,
		t:        t,
		log:      log,
	}
}

// Add begins the rule creation conversation. Callback: add_rule.
func (f *RuleFlow) Add(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	if err := f.sessions.Advance(context.Background(), c.Sender().ID, session.StepRuleArticle, nil); err != nil {
		return err
	}

	return editOrSend(c, f.t.T("rules.step_article"))
}

// StepArticle consumes the article name input.
func (f *RuleFlow) StepArticle(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	article := strings.TrimSpace(c.Text())
	if article == "" {
		return c.Send(f.t.T("rules.invalid_article"))
	}

	err := f.sessions.Advance(context.Background(), c.Sender().ID, session.StepRuleDescription,
		map[string]string{session.KeyArticle: article})
	if err != nil {
		return err
	}

	return c.Send(f.t.T("rules.step_description"))
}

// StepDescription consumes the rule description input.
func (f *RuleFlow) StepDescription(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	description := strings.TrimSpace(c.Text())
	if len([]rune(description)) < minRuleDescriptionLen {
		return c.Send(f.t.T("rules.short_description"))
	}

	err := f.sessions.Advance(context.Background(), c.Sender().ID, session.StepRuleKind,
		map[string]string{session.KeyDescription: description})
	if err != nil {
		return err
	}

	return c.Send(f.t.T("rules.step_kind"), keyboard.PunishmentKinds(f.t))
}

// PickKind consumes the punishment kind choice. Kick rules carry no
// duration, so the flow jumps straight to confirmation.
// Callback: rule_type_{kind}.
func (f *RuleFlow) PickKind(c telebot.Context) error {
	if c == nil || c.Callback() == nil || c.Sender() == nil {
		return nil
	}

	args, err := keyboard.CallbackArgs(c.Callback().Data, keyboard.CallbackRuleType)
	if err != nil || len(args) != 1 {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	kind := domain.PunishmentKind(args[0])
	if !kind.Valid() {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	ctx := context.Background()
	userID := c.Sender().ID

	switch kind {
	case domain.PunishKick:
		err := f.sessions.Advance(ctx, userID, session.StepRuleConfirm, map[string]string{
			session.KeyKind:     string(kind),
			session.KeyDuration: domain.NoDurationSentinel,
		})
		if err != nil {
			return err
		}
		return f.showConfirm(c, userID)

	case domain.PunishMute:
		err := f.sessions.Advance(ctx, userID, session.StepRuleDuration,
			map[string]string{session.KeyKind: string(kind)})
		if err != nil {
			return err
		}
		return editOrSend(c, f.t.T("rules.step_mute_duration"), keyboard.MuteDurations(f.t))

	default:
		err := f.sessions.Advance(ctx, userID, session.StepRuleDuration,
			map[string]string{session.KeyKind: string(kind)})
		if err != nil {
			return err
		}
		return editOrSend(c, f.t.T("rules.step_ban_duration"), keyboard.BanDurations(f.t))
	}
}

// PickMuteDuration consumes a preset mute length or switches to custom
// input. Callback: mute_duration_{token}.
func (f *RuleFlow) PickMuteDuration(c telebot.Context) error {
	if c == nil || c.Callback() == nil || c.Sender() == nil {
		return nil
	}

	args, err := keyboard.CallbackArgs(c.Callback().Data, keyboard.CallbackMuteDuration)
	if err != nil || len(args) != 1 {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	ctx := context.Background()
	userID := c.Sender().ID

	if args[0] == "custom" {
		if err := f.sessions.Advance(ctx, userID, session.StepRuleMuteCustom, nil); err != nil {
			return err
		}
		return editOrSend(c, f.t.T("duration.custom_mute_prompt"))
	}

	label := f.t.T("duration.mute_" + args[0])
	err = f.sessions.Advance(ctx, userID, session.StepRuleConfirm,
		map[string]string{session.KeyDuration: label})
	if err != nil {
		return err
	}

	return f.showConfirm(c, userID)
}

// PickBanDuration consumes a preset ban length or switches to custom input.
// Callback: ban_duration_{token}.
func (f *RuleFlow) PickBanDuration(c telebot.Context) error {
	if c == nil || c.Callback() == nil || c.Sender() == nil {
		return nil
	}

	args, err := keyboard.CallbackArgs(c.Callback().Data, keyboard.CallbackBanDuration)
	if err != nil || len(args) != 1 {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	ctx := context.Background()
	userID := c.Sender().ID

	if args[0] == "custom" {
		if err := f.sessions.Advance(ctx, userID, session.StepRuleBanCustom, nil); err != nil {
			return err
		}
		return editOrSend(c, f.t.T("duration.custom_ban_prompt"))
	}

	label := f.t.T("duration.ban_" + args[0])
	err = f.sessions.Advance(ctx, userID, session.StepRuleConfirm,
		map[string]string{session.KeyDuration: label})
	if err != nil {
		return err
	}

	return f.showConfirm(c, userID)
}

// StepMuteCustom consumes a free-form mute length in minutes.
func (f *RuleFlow) StepMuteCustom(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(c.Text()))
	if err != nil {
		return c.Send(f.t.T("duration.not_a_number_minutes"))
	}
	if !duration.ValidCustomMuteMinutes(n) {
		return c.Send(f.t.T("duration.out_of_range_minutes"))
	}

	userID := c.Sender().ID
	err = f.sessions.Advance(context.Background(), userID, session.StepRuleConfirm,
		map[string]string{session.KeyDuration: f.t.Tf("duration.minutes", n)})
	if err != nil {
		return err
	}

	if sendErr := c.Send(f.t.Tf("duration.custom_mute_set", n)); sendErr != nil {
		return sendErr
	}

	return f.showConfirm(c, userID)
}

// StepBanCustom consumes a free-form ban length in days.
func (f *RuleFlow) StepBanCustom(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(c.Text()))
	if err != nil {
		return c.Send(f.t.T("duration.not_a_number_days"))
	}
	if !duration.ValidCustomBanDays(n) {
		return c.Send(f.t.T("duration.out_of_range_days"))
	}

	userID := c.Sender().ID
	err = f.sessions.Advance(context.Background(), userID, session.StepRuleConfirm,
		map[string]string{session.KeyDuration: f.t.Tf("duration.days", n)})
	if err != nil {
		return err
	}

	if sendErr := c.Send(f.t.Tf("duration.custom_ban_set", n)); sendErr != nil {
		return sendErr
	}

	return f.showConfirm(c, userID)
}

func (f *RuleFlow) showConfirm(c telebot.Context, userID int64) error {
	sess, err := f.sessions.Get(context.Background(), userID)
	if err != nil {
		return editOrSend(c, f.t.T("common.session_lost"))
	}

	kind := domain.PunishmentKind(sess.Value(session.KeyKind))

	text := f.t.Tf("rules.confirm",
		sess.Value(session.KeyArticle),
		sess.Value(session.KeyDescription),
		kind.Label(),
	)
	if d := sess.Value(session.KeyDuration); d != "" && d != domain.NoDurationSentinel {
		text += f.t.Tf("rules.confirm_duration", d)
	}
	text += f.t.T("rules.confirm_question")

	return editOrSend(c, text, keyboard.ConfirmRuleSave(f.t), telebot.ModeHTML)
}

// ConfirmSave persists the drafted rule. A rule id in the session means
// the draft came from EditDetails and overwrites that rule; otherwise a
// new rule is created. Callback: confirm_rule_save.
func (f *RuleFlow) ConfirmSave(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	ctx := context.Background()
	userID := c.Sender().ID

	sess, err := f.sessions.Get(ctx, userID)
	if err != nil || sess.Step != session.StepRuleConfirm {
		return editOrSend(c, f.t.T("common.session_lost"))
	}

	rule := &domain.Rule{
		Article:     sess.Value(session.KeyArticle),
		Description: sess.Value(session.KeyDescription),
		Kind:        domain.PunishmentKind(sess.Value(session.KeyKind)),
		Duration:    sess.Value(session.KeyDuration),
		CreatedBy:   userID,
	}

	var saveErr error
	if raw := sess.Value(session.KeyRuleID); raw != "" {
		rule.ID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return editOrSend(c, f.t.T("common.session_lost"))
		}
		saveErr = f.rules.Update(ctx, rule)
	} else {
		rule.ID, saveErr = f.rules.Create(ctx, rule)
	}

	if saveErr != nil {
		if errors.Is(saveErr, repository.ErrDuplicateArticle) {
			return respondCallback(c, f.t.T("rules.duplicate_article"), true)
		}
		f.log.Error("failed to save rule", slog.String("article", rule.Article), slog.Any("error", saveErr))
		return editOrSend(c, f.t.T("rules.save_failed"))
	}

	if clearErr := f.sessions.Clear(ctx, userID); clearErr != nil {
		f.log.Error("failed to clear session after rule save", slog.Int64("user_id", userID), slog.Any("error", clearErr))
	}

	if sess.Value(session.KeyRuleID) != "" {
		return editOrSend(c, f.t.T("rules.edited"), keyboard.RulesMenu(f.t))
	}

	return editOrSend(c, f.t.Tf("rules.saved", rule.Article, rule.ID), keyboard.RulesMenu(f.t))
}

// CancelAdd abandons the drafted rule. Callback: cancel_add_rule.
func (f *RuleFlow) CancelAdd(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	if err := f.sessions.Clear(context.Background(), c.Sender().ID); err != nil {
		f.log.Error("failed to clear session on cancel", slog.Int64("user_id", c.Sender().ID), slog.Any("error", err))
	}

	return editOrSend(c, f.t.T("rules.menu"), keyboard.RulesMenu(f.t))
}

// View lists every rule. Callback: view_rules.
func (f *RuleFlow) View(c telebot.Context) error {
	if c == nil {
		return nil
	}

	rules, err := f.rules.List(context.Background())
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		return editOrSend(c, f.t.T("rules.list_empty"), keyboard.Back(f.t, keyboard.CallbackAdminRules))
	}

	var b strings.Builder
	b.WriteString(f.t.T("rules.list_header"))
	for _, r := range rules {
		b.WriteString(f.t.Tf("rules.list_row", r.ID, r.Article, r.Kind.Label(), r.Duration))
	}

	return editOrSend(c, b.String(), keyboard.RulesList(f.t, ruleValues(rules)), telebot.ModeHTML)
}

// Edit shows one rule with edit and delete actions.
// Callback: edit_rule_{id}.
func (f *RuleFlow) Edit(c telebot.Context) error {
	if c == nil || c.Callback() == nil {
		return nil
	}

	ruleID, err := keyboard.CallbackInt64(c.Callback().Data, keyboard.CallbackEditRule)
	if err != nil {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	rule, err := f.rules.Get(context.Background(), ruleID)
	if err != nil {
		return respondCallback(c, f.t.T("rules.not_found"), true)
	}

	text := f.t.Tf("rules.edit", rule.ID, rule.Article, rule.Description, rule.Kind.Label(), rule.Duration)
	return c.Edit(text, keyboard.RuleEdit(f.t, rule.ID), telebot.ModeHTML)
}

// EditDetails restarts the rule builder for an existing rule. The session
// carries the rule id through the article/description/kind/duration steps,
// and ConfirmSave overwrites the rule instead of creating one.
// Callback: edit_rule_details_{id}.
func (f *RuleFlow) EditDetails(c telebot.Context) error {
	if c == nil || c.Callback() == nil || c.Sender() == nil {
		return nil
	}

	ruleID, err := keyboard.CallbackInt64(c.Callback().Data, keyboard.CallbackEditRuleDetails)
	if err != nil {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	if _, err := f.rules.Get(context.Background(), ruleID); err != nil {
		return respondCallback(c, f.t.T("rules.not_found"), true)
	}

	err = f.sessions.Advance(context.Background(), c.Sender().ID, session.StepRuleArticle,
		map[string]string{session.KeyRuleID: strconv.FormatInt(ruleID, 10)})
	if err != nil {
		return err
	}

	return editOrSend(c, f.t.T("rules.edit_step_article"))
}

// Delete asks for confirmation before removing a rule.
// Callback: delete_rule_{id}.
func (f *RuleFlow) Delete(c telebot.Context) error {
	if c == nil || c.Callback() == nil {
		return nil
	}

	ruleID, err := keyboard.CallbackInt64(c.Callback().Data, keyboard.CallbackDeleteRule)
	if err != nil {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	rule, err := f.rules.Get(context.Background(), ruleID)
	if err != nil {
		return respondCallback(c, f.t.T("rules.not_found"), true)
	}

	text := f.t.Tf("rules.delete_confirm", rule.Article, rule.Description)
	return c.Edit(text, keyboard.ConfirmDeleteRule(f.t, rule.ID), telebot.ModeHTML)
}

// ConfirmDelete removes the rule. Callback: confirm_delete_rule_{id}.
func (f *RuleFlow) ConfirmDelete(c telebot.Context) error {
	if c == nil || c.Callback() == nil {
		return nil
	}

	ruleID, err := keyboard.CallbackInt64(c.Callback().Data, keyboard.CallbackConfirmDelete)
	if err != nil {
		return respondCallback(c, f.t.T("common.data_error"), true)
	}

	if err := f.rules.Delete(context.Background(), ruleID); err != nil {
		return err
	}

	return editOrSend(c, f.t.T("rules.deleted"), keyboard.RulesMenu(f.t))
}
