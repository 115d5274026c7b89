package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/nolyk/modbot/internal/bot/handlers"
	"github.com/nolyk/modbot/internal/session"
)

// Dispatcher routes text updates to the handler of the user's current
// conversation step.
type Dispatcher struct {
	sessions     *session.Manager
	stepHandlers map[session.Step]handlers.Handler
	log          *slog.Logger
	mu           sync.RWMutex
}

// NewDispatcher creates a Dispatcher with an empty handlers registry.
func NewDispatcher(sessions *session.Manager, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		sessions:     sessions,
		stepHandlers: make(map[session.Step]handlers.Handler),
		log:          log,
	}
}

// RegisterStepHandler registers a handler for the given conversation step.
func (d *Dispatcher) RegisterStepHandler(step session.Step, h handlers.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stepHandlers[step] = h
}

// Dispatch routes the update based on the user's current step. It reports
// whether a step handler consumed the update.
func (d *Dispatcher) Dispatch(c telebot.Context) (bool, error) {
	if c == nil || c.Sender() == nil {
		d.log.Warn("cannot dispatch without sender information")
		return false, nil
	}

	userID := c.Sender().ID

	currentStep := session.StepIdle
	sess, err := d.sessions.Get(context.Background(), userID)
	if err != nil {
		if !errors.Is(err, session.ErrSessionNotFound) {
			return false, err
		}
	} else if sess != nil {
		currentStep = sess.Step
	}

	handler := d.getHandler(currentStep)
	if handler == nil {
		return false, nil
	}

	return true, handler(c)
}

func (d *Dispatcher) getHandler(step session.Step) handlers.Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stepHandlers[step]
}
