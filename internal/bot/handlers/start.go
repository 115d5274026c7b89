package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/nolyk/modbot/internal/bot/keyboard"
	"github.com/nolyk/modbot/internal/i18n"
	"github.com/nolyk/modbot/internal/session"
)

// NewStartHandler greets the user and offers the report entry point. Any
// conversation in progress is dropped.
func NewStartHandler(sessions *session.Manager, t i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("start handler invoked without sender")
			return nil
		}

		sender := c.Sender()

		if sessions != nil {
			if err := sessions.Clear(context.Background(), sender.ID); err != nil {
				log.Error("failed to reset session on start", slog.Int64("user_id", sender.ID), slog.Any("error", err))
			}
		}

		name := sender.FirstName
		if name == "" {
			name = sender.Username
		}

		return c.Send(t.Tf("start.greeting", name), keyboard.StartMenu(t))
	}
}

// NewCancelHandler drops the conversation in progress.
func NewCancelHandler(sessions *session.Manager, t i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("cancel handler invoked without sender")
			return nil
		}

		userID := c.Sender().ID
		if sessions != nil {
			if err := sessions.Clear(context.Background(), userID); err != nil {
				log.Error("failed to clear session", slog.Int64("user_id", userID), slog.Any("error", err))
				return err
			}
		}

		return c.Send(t.T("report.cancelled"))
	}
}
