package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	defaultMuteSweepSpec = "*/5 * * * *"
	defaultRedeliverSpec = "*/10 * * * *"
	redeliverBatchLimit  = 20
)

type Scheduler interface {
	RegisterTasks() error
	Run()
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	muteSweepSpec  string
	redeliverSpec  string
	log            *slog.Logger
}

// NewScheduler builds the periodic task scheduler. Empty cron specs fall
// back to the defaults.
func NewScheduler(redisOpt asynq.RedisConnOpt, muteSweepSpec, redeliverSpec string, log *slog.Logger) Scheduler {
	if muteSweepSpec == "" {
		muteSweepSpec = defaultMuteSweepSpec
	}
	if redeliverSpec == "" {
		redeliverSpec = defaultRedeliverSpec
	}

	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, nil),
		muteSweepSpec:  muteSweepSpec,
		redeliverSpec:  redeliverSpec,
		log:            log,
	}
}

func (s *scheduler) RegisterTasks() error {
	if _, err := s.asynqScheduler.Register(s.muteSweepSpec, NewMuteSweepTask()); err != nil {
		return err
	}

	redeliver, err := NewReportRedeliverTask(redeliverBatchLimit)
	if err != nil {
		return err
	}
	if _, err := s.asynqScheduler.Register(s.redeliverSpec, redeliver); err != nil {
		return err
	}

	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: registered maintenance tasks",
			"mute_sweep_spec", s.muteSweepSpec,
			"redeliver_spec", s.redeliverSpec,
		)
	}

	return nil
}

func (s *scheduler) Run() {
	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: starting")
	}

	go func() {
		if err := s.asynqScheduler.Run(); err != nil && s.log != nil {
			s.log.ErrorContext(context.Background(), "scheduler: run failed", "error", err)
		}
	}()
}

func (s *scheduler) Shutdown() {
	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: shutting down")
	}

	s.asynqScheduler.Shutdown()
}
