package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nolyk/modbot/internal/domain"
)

// PunishmentRepository defines persistence operations for punishments and
// the active-mute index.
type PunishmentRepository interface {
	// CreateClosingReport atomically marks the report closed and inserts the
	// punishment row. A report that already left the open state yields
	// ErrReportFinalized and nothing is written.
	CreateClosingReport(ctx context.Context, p *domain.Punishment) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Punishment, error)
	// ListClassified returns all punishments with the derived Active flag,
	// active entries first.
	ListClassified(ctx context.Context) ([]*domain.Punishment, error)
	// Delete removes the punishment and any active-mute rows tied to it.
	Delete(ctx context.Context, id int64) error

	ReplaceMute(ctx context.Context, mute *domain.ActiveMute) error
	RemoveMute(ctx context.Context, userID, chatID int64) error
	IsMuted(ctx context.Context, userID, chatID int64) (bool, error)
	DeleteExpiredMutes(ctx context.Context) (int64, error)
}

type punishmentRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPunishmentRepository creates a SQL-backed punishment repository.
func NewPunishmentRepository(db *sql.DB, log *slog.Logger) PunishmentRepository {
	return &punishmentRepository{
		db:  db,
		log: log,
	}
}

func (r *punishmentRepository) CreateClosingReport(ctx context.Context, p *domain.Punishment) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin close-report tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE reports SET status = 'closed' WHERE report_id = $1 AND status = 'open'`,
		p.ReportID,
	)
	if err != nil {
		return 0, fmt.Errorf("close report: %w", err)
	}
	if err := requireRow(res, ErrReportFinalized); err != nil {
		return 0, err
	}

	const insert = `
		INSERT INTO punishments (report_id, user_id, username, rule_id, kind, duration, applied_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING punishment_id
	`

	var id int64
	if err := tx.QueryRowContext(
		ctx,
		insert,
		p.ReportID,
		p.UserID,
		p.Username,
		p.RuleID,
		string(p.Kind),
		p.Duration,
		p.AppliedBy,
	).Scan(&id); err != nil {
		if r.log != nil {
			r.log.Error("failed to insert punishment", slog.Int64("report_id", p.ReportID), slog.Any("error", err))
		}
		return 0, fmt.Errorf("insert punishment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit close-report tx: %w", err)
	}

	return id, nil
}

func (r *punishmentRepository) Get(ctx context.Context, id int64) (*domain.Punishment, error) {
	const query = `
		SELECT punishment_id, report_id, user_id, username, rule_id, kind, duration, applied_by, applied_at
		FROM punishments
		WHERE punishment_id = $1
	`

	var (
		p    domain.Punishment
		kind string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.ReportID,
		&p.UserID,
		&p.Username,
		&p.RuleID,
		&kind,
		&p.Duration,
		&p.AppliedBy,
		&p.AppliedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		if r.log != nil {
			r.log.Error("failed to fetch punishment", slog.Int64("punishment_id", id), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select punishment: %w", err)
	}

	p.Kind = domain.PunishmentKind(kind)
	return &p, nil
}

// ListClassified derives the active flag at read time: a mute is active
// while a live active_mutes row exists; a ban is considered active within a
// trailing 30-day window. The ban window is a heuristic: ban expiry is not
// tracked in active_mutes, so bans longer than 30 days read as inactive
// once the window passes, and permanent bans do too.
func (r *punishmentRepository) ListClassified(ctx context.Context) ([]*domain.Punishment, error) {
	const query = `
		SELECT p.punishment_id, p.report_id, p.user_id, p.username, p.rule_id, p.kind,
		       p.duration, p.applied_by, p.applied_at,
		       CASE
		           WHEN p.kind = 'mute' AND EXISTS (
		               SELECT 1 FROM active_mutes m
		               WHERE m.punishment_id = p.punishment_id
		                 AND (m.expires_at IS NULL OR m.expires_at > now())
		           ) THEN TRUE
		           WHEN p.kind = 'ban' AND p.applied_at > now() - INTERVAL '30 days' THEN TRUE
		           ELSE FALSE
		       END AS active
		FROM punishments p
		ORDER BY active DESC, p.applied_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to list punishments", slog.Any("error", err))
		}
		return nil, fmt.Errorf("select punishments: %w", err)
	}
	defer rows.Close()

	var punishments []*domain.Punishment
	for rows.Next() {
		var (
			p    domain.Punishment
			kind string
		)
		if err := rows.Scan(
			&p.ID,
			&p.ReportID,
			&p.UserID,
			&p.Username,
			&p.RuleID,
			&kind,
			&p.Duration,
			&p.AppliedBy,
			&p.AppliedAt,
			&p.Active,
		); err != nil {
			return nil, fmt.Errorf("scan punishment: %w", err)
		}

		p.Kind = domain.PunishmentKind(kind)
		punishments = append(punishments, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate punishments: %w", err)
	}

	return punishments, nil
}

func (r *punishmentRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete-punishment tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM active_mutes WHERE punishment_id = $1`, id); err != nil {
		return fmt.Errorf("delete active mutes: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM punishments WHERE punishment_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete punishment: %w", err)
	}
	if err := requireRow(res, ErrNotFound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete-punishment tx: %w", err)
	}

	return nil
}

// ReplaceMute enforces at most one active mute per (user, chat): any prior
// row for the pair is removed in the same transaction.
func (r *punishmentRepository) ReplaceMute(ctx context.Context, mute *domain.ActiveMute) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace-mute tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM active_mutes WHERE user_id = $1 AND chat_id = $2`,
		mute.UserID, mute.ChatID,
	); err != nil {
		return fmt.Errorf("delete prior mute: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO active_mutes (user_id, chat_id, punishment_id, expires_at) VALUES ($1, $2, $3, $4)`,
		mute.UserID, mute.ChatID, mute.PunishmentID, mute.ExpiresAt,
	); err != nil {
		if r.log != nil {
			r.log.Error("failed to insert active mute", slog.Int64("user_id", mute.UserID), slog.Any("error", err))
		}
		return fmt.Errorf("insert active mute: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace-mute tx: %w", err)
	}

	return nil
}

func (r *punishmentRepository) RemoveMute(ctx context.Context, userID, chatID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM active_mutes WHERE user_id = $1 AND chat_id = $2`,
		userID, chatID,
	); err != nil {
		return fmt.Errorf("remove mute: %w", err)
	}

	return nil
}

func (r *punishmentRepository) IsMuted(ctx context.Context, userID, chatID int64) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM active_mutes
			WHERE user_id = $1 AND chat_id = $2
			  AND (expires_at IS NULL OR expires_at > now())
		)
	`

	var muted bool
	if err := r.db.QueryRowContext(ctx, query, userID, chatID).Scan(&muted); err != nil {
		return false, fmt.Errorf("check mute: %w", err)
	}

	return muted, nil
}

func (r *punishmentRepository) DeleteExpiredMutes(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM active_mutes WHERE expires_at IS NOT NULL AND expires_at <= now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired mutes: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return affected, nil
}
