package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/nolyk/modbot/internal/bot/handlers"
	"github.com/nolyk/modbot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting
// them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordUpdate(extractAction(c), status, time.Since(start))

		return err
	}
}

// extractAction reduces the update to a low-cardinality label: the command
// or the callback action prefix without its numeric arguments.
func extractAction(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil && cb.Data != "" {
		return stripCallbackArgs(strings.TrimPrefix(cb.Data, "\f"))
	}

	if text := c.Text(); text != "" {
		if strings.HasPrefix(text, "/") {
			if i := strings.IndexByte(text, ' '); i >= 0 {
				return text[:i]
			}
			return text
		}
		return "text"
	}

	return "unknown"
}

func stripCallbackArgs(data string) string {
	parts := strings.Split(data, "_")
	for len(parts) > 0 {
		last := parts[len(parts)-1]
		if last == "" || !isDigits(last) {
			break
		}
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, "_")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
