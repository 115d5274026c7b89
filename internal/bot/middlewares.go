package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/nolyk/modbot/internal/apperr"
	"github.com/nolyk/modbot/internal/bot/handlers"
	"github.com/nolyk/modbot/internal/i18n"
	"github.com/nolyk/modbot/internal/repository"
)

// RecoveryMiddleware catches panics, reports them via the centralized
// handler, and notifies the actor.
func RecoveryMiddleware(log *slog.Logger, errHandler *apperr.Handler) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in handler", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))

					userMsg := "❌ Произошла ошибка. Попробуйте позже"
					if errHandler != nil {
						appErr := apperr.NewDatabaseError(fmt.Errorf("panic recovered: %v", r))
						if msg, _ := errHandler.Handle(context.Background(), appErr); msg != "" {
							userMsg = msg
						}
					}

					if c != nil {
						if sendErr := c.Send(userMsg); sendErr != nil {
							log.Error("failed to notify user about panic", slog.Any("error", sendErr))
						}
					}

					err = nil
				}
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware centralizes error reporting and user messaging for
// handler failures.
func ErrorHandlingMiddleware(errHandler *apperr.Handler) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			userMsg := "❌ Произошла ошибка. Попробуйте позже"
			if errHandler != nil {
				if msg, _ := errHandler.Handle(context.Background(), err); msg != "" {
					userMsg = msg
				}
			}

			if c != nil {
				_ = c.Send(userMsg)
			}

			return nil
		}
	}
}

// LoggingMiddleware logs basic telemetry about incoming updates.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			start := time.Now()
			userID := int64(0)
			if c != nil && c.Sender() != nil {
				userID = c.Sender().ID
			}

			action := ""
			if c != nil {
				if cb := c.Callback(); cb != nil {
					action = cb.Data
				} else {
					action = c.Text()
				}
			}

			log.Info("handling update", slog.Int64("user_id", userID), slog.String("action", action))
			err := next(c)
			log.Info("handled update",
				slog.Int64("user_id", userID),
				slog.String("action", action),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}

// AdminGate rejects actors that are neither in the static allow-list nor in
// the admins table.
func AdminGate(admins repository.AdminRepository, t i18n.Translator, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			if admins == nil || c == nil || c.Sender() == nil {
				return nil
			}

			userID := c.Sender().ID

			isAdmin, err := admins.IsAdmin(context.Background(), userID)
			if err != nil {
				log.Error("admin check failed", slog.Int64("user_id", userID), slog.Any("error", err))
				return apperr.NewDatabaseError(fmt.Errorf("check admin %d: %w", userID, err))
			}

			if !isAdmin {
				log.Warn("admin access denied", slog.Int64("user_id", userID))
				if c.Callback() != nil {
					return c.Respond(&telebot.CallbackResponse{
						Text:      t.T("common.no_admin_access"),
						ShowAlert: true,
					})
				}
				return c.Send(t.T("common.no_admin_access"))
			}

			return next(c)
		}
	}
}
