package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/nolyk/modbot/internal/bot/keyboard"
	"github.com/nolyk/modbot/internal/i18n"
)

// NewAdminHandler opens the admin panel.
func NewAdminHandler(t i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("admin handler invoked without sender")
			return nil
		}

		return c.Send(t.T("admin.menu"), keyboard.AdminMenu(t))
	}
}

// HandleAdminMenu returns to the admin panel root from a submenu.
func HandleAdminMenu(t i18n.Translator) CallbackHandler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		return editOrSend(c, t.T("admin.menu"), keyboard.AdminMenu(t))
	}
}

// HandleAdminRules opens the rule management submenu.
func HandleAdminRules(t i18n.Translator) CallbackHandler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		return editOrSend(c, t.T("rules.menu"), keyboard.RulesMenu(t))
	}
}
