package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/nolyk/modbot/internal/domain"
)

func respondCallback(c telebot.Context, text string, alert bool) error {
	if c == nil {
		return nil
	}
	return c.Respond(&telebot.CallbackResponse{
		Text:      text,
		ShowAlert: alert,
	})
}

// editOrSend rewrites the message the callback came from, falling back to a
// fresh message when the original can no longer be edited.
func editOrSend(c telebot.Context, text string, opts ...any) error {
	if c == nil {
		return nil
	}

	if c.Callback() != nil {
		if err := c.Edit(text, opts...); err == nil {
			return nil
		}
	}

	return c.Send(text, opts...)
}

func ruleValues(rules []*domain.Rule) []domain.Rule {
	out := make([]domain.Rule, 0, len(rules))
	for _, r := range rules {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func punishmentValues(punishments []*domain.Punishment) []domain.Punishment {
	out := make([]domain.Punishment, 0, len(punishments))
	for _, p := range punishments {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

func templateValues(templates []*domain.RejectionTemplate) []domain.RejectionTemplate {
	out := make([]domain.RejectionTemplate, 0, len(templates))
	for _, t := range templates {
		if t != nil {
			out = append(out, *t)
		}
	}
	return out
}
