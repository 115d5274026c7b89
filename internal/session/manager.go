package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userLockKeyPattern = "session:lock:%d"
	lockTTL            = 5 * time.Second
)

var stepRecorder = func(from, to string) {}

// RegisterStepRecorder allows external packages to observe step transitions.
func RegisterStepRecorder(recorder func(from, to string)) {
	if recorder == nil {
		stepRecorder = func(string, string) {}
		return
	}

	stepRecorder = recorder
}

// Manager coordinates session reads and writes, validating step transitions.
// When a redis client is provided, writes are guarded by a distributed lock;
// with the memory backend the store's own mutex is sufficient.
type Manager struct {
	store       Store
	log         *slog.Logger
	redisClient *redis.Client
}

// NewManager creates a session manager over the given store.
func NewManager(store Store, log *slog.Logger, redisClient *redis.Client) *Manager {
	if log == nil {
		log = slog.Default()
	}

	return &Manager{
		store:       store,
		log:         log,
		redisClient: redisClient,
	}
}

// Get proxies to the underlying store.
func (m *Manager) Get(ctx context.Context, userID int64) (*Session, error) {
	return m.store.Get(ctx, userID)
}

// Advance moves the user to the given step, merging the collected data. The
// transition is validated against the flow tables; starting a new flow from
// any step is allowed and replaces the old session.
func (m *Manager) Advance(ctx context.Context, userID int64, step Step, data map[string]string) error {
	if err := m.lock(ctx, userID); err != nil {
		return err
	}
	defer m.unlock(ctx, userID)

	current := StepIdle

	stored, err := m.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			return err
		}
	} else if stored != nil {
		current = stored.Step
	}

	if !IsTransitionAllowed(current, step) {
		m.log.Warn("invalid step transition", "user_id", userID, "from", current, "to", step)
		return ErrInvalidTransition
	}

	stepRecorder(string(current), string(step))

	merged := data
	if stored != nil && !isEntryStep(step) {
		merged = make(map[string]string, len(stored.Data)+len(data))
		for k, v := range stored.Data {
			merged[k] = v
		}
		for k, v := range data {
			merged[k] = v
		}
	}

	return m.store.Set(ctx, userID, &Session{
		UserID: userID,
		Step:   step,
		Data:   merged,
	})
}

// Clear removes the stored session while holding the lock.
func (m *Manager) Clear(ctx context.Context, userID int64) error {
	if err := m.lock(ctx, userID); err != nil {
		return err
	}
	defer m.unlock(ctx, userID)

	if sess, err := m.store.Get(ctx, userID); err == nil && sess.Step != StepIdle {
		stepRecorder(string(sess.Step), string(StepIdle))
	}

	return m.store.Clear(ctx, userID)
}

func (m *Manager) lock(ctx context.Context, userID int64) error {
	if m.redisClient == nil {
		return nil
	}

	key := fmt.Sprintf(userLockKeyPattern, userID)
	acquired, err := m.redisClient.SetNX(ctx, key, 1, lockTTL).Result()
	if err != nil {
		m.log.Error("failed to acquire session lock", "user_id", userID, "error", err)
		return err
	}

	if !acquired {
		m.log.Warn("session lock already held", "user_id", userID)
		return ErrSessionLocked
	}

	return nil
}

func (m *Manager) unlock(ctx context.Context, userID int64) {
	if m.redisClient == nil {
		return
	}

	key := fmt.Sprintf(userLockKeyPattern, userID)
	if err := m.redisClient.Del(ctx, key).Err(); err != nil {
		m.log.Error("failed to release session lock", "user_id", userID, "error", err)
	}
}
