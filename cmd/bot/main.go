package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/nolyk/modbot/internal/apperr"
	"github.com/nolyk/modbot/internal/bot"
	"github.com/nolyk/modbot/internal/database"
	"github.com/nolyk/modbot/internal/domain"
	"github.com/nolyk/modbot/internal/duration"
	"github.com/nolyk/modbot/internal/i18n"
	"github.com/nolyk/modbot/internal/jobs"
	jobshandlers "github.com/nolyk/modbot/internal/jobs/handlers"
	"github.com/nolyk/modbot/internal/moderation"
	"github.com/nolyk/modbot/internal/repository"
	"github.com/nolyk/modbot/internal/session"
	"github.com/nolyk/modbot/internal/telegram"
	"github.com/nolyk/modbot/pkg/config"
	"github.com/nolyk/modbot/pkg/graceful"
	"github.com/nolyk/modbot/pkg/logger"
	"github.com/nolyk/modbot/pkg/metrics"

	_ "github.com/lib/pq"
)

const bootRedeliverLimit = 20

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)
	config.WatchLogLevel(v, logger.SetLevel)

	domain.SetKindLabels(cfg.Punishments.Labels)
	duration.SetMaxBanDays(cfg.Punishments.MaxBanDays)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	log.Info("starting moderation bot",
		slog.String("env", cfg.AppEnv),
		slog.String("mode", cfg.Bot.Mode),
	)

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("closing database", slog.Any("error", cerr))
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	migrator := database.NewMigrator(db, log)
	if err := migrator.ApplyDir(ctx, cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				log.Error("closing redis", slog.Any("error", cerr))
			}
		}()
	}

	var store session.Store
	switch cfg.Session.Backend {
	case "redis":
		if redisClient == nil {
			return errors.New("session backend redis requires redis.addr")
		}
		store = session.NewRedisStore(redisClient, log, cfg.Session.TTL)
	default:
		memStore := session.NewMemoryStore()
		cleaner := session.NewCleaner(memStore, log, cfg.Session.TTL, cfg.Session.SweepInterval)
		go cleaner.Run(ctx)
		store = memStore
	}

	sessions := session.NewManager(store, log, redisClient)
	session.RegisterStepRecorder(func(from, to string) {
		idle := string(session.StepIdle)
		switch {
		case from == idle && to != idle:
			metrics.SessionOpened()
		case from != idle && to == idle:
			metrics.SessionClosed()
		}
	})

	admins := repository.NewAdminRepository(db, cfg.Admins.IDs, log)
	if err := admins.Seed(ctx, cfg.Admins.IDs); err != nil {
		return fmt.Errorf("seed admins: %w", err)
	}

	reportRepo := repository.NewReportRepository(db, log)
	punishmentRepo := repository.NewPunishmentRepository(db, log)
	ruleRepo := repository.NewRuleRepository(db, log)
	templateRepo := repository.NewTemplateRepository(db, log)

	locales, err := i18n.Load("ru")
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}
	t := locales.Translator("ru")

	tb, err := bot.NewTelebot(*cfg)
	if err != nil {
		return err
	}

	api := telegram.NewClient(tb, log)
	enforcer := moderation.NewEnforcer(api, punishmentRepo, cfg.Enforcement.GroupID, log)
	reports := moderation.NewReportService(reportRepo, templateRepo, api, t, cfg.Reports.GroupID, cfg.Reports.TopicID, log)
	punishments := moderation.NewPunishmentService(punishmentRepo, reportRepo, ruleRepo, enforcer, api, t, cfg.Bot.AppealURL, log)

	b := bot.New(*cfg, log, tb, bot.Dependencies{
		Sessions:    sessions,
		Reports:     reports,
		Punishments: punishments,
		Rules:       ruleRepo,
		Templates:   templateRepo,
		ReportRepo:  reportRepo,
		Admins:      admins,
		Translator:  t,
		ErrHandler:  apperr.NewHandler(log, cfg.Sentry.Enabled),
	})

	srv := graceful.NewMetricsServer(log, cfg.Server.Port, db, cfg.Server.ShutdownTimeout)
	go func() {
		if err := srv.ListenAndServe(ctx); err != nil {
			log.Error("metrics server", slog.Any("error", err))
		}
	}()

	if cfg.Jobs.Enabled {
		if redisClient == nil {
			return errors.New("jobs require redis.addr")
		}

		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}

		worker := jobs.NewWorker(redisOpt, map[string]int{
			jobs.QueueDefault: 3,
			jobs.QueueLow:     1,
		}, cfg.Jobs.WorkerConcurrency, log)
		worker.RegisterHandler(jobs.TaskTypeMuteSweep, jobshandlers.NewMuteSweepHandler(punishmentRepo, log))
		worker.RegisterHandler(jobs.TaskTypeReportRedeliver, jobshandlers.NewReportRedeliverHandler(reports, log))
		go func() {
			if err := worker.Run(); err != nil {
				log.Error("jobs worker", slog.Any("error", err))
			}
		}()
		defer worker.Shutdown()

		scheduler := jobs.NewScheduler(redisOpt, cfg.Jobs.MuteSweepSpec, cfg.Jobs.RedeliverSpec, log)
		if err := scheduler.RegisterTasks(); err != nil {
			return fmt.Errorf("register scheduled tasks: %w", err)
		}
		scheduler.Run()
		defer scheduler.Shutdown()

		manager := jobs.NewManager(redisOpt, log)
		defer func() {
			if cerr := manager.Close(); cerr != nil {
				log.Error("closing jobs client", slog.Any("error", cerr))
			}
		}()

		// stranded report cards are retried once at boot, then on schedule
		if task, terr := jobs.NewReportRedeliverTask(bootRedeliverLimit); terr == nil {
			if _, qerr := manager.Enqueue(ctx, task); qerr != nil {
				log.Warn("enqueue boot redelivery", slog.Any("error", qerr))
			}
		}
	}

	go b.Start()

	log.Info("moderation bot is running", slog.String("http", cfg.Server.Port))
	<-ctx.Done()

	b.Stop()

	return nil
}
