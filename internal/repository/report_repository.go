package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nolyk/modbot/internal/domain"
)

// ReportRepository defines persistence operations for reports.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Report, error)
	AttachDelivery(ctx context.Context, id, messageID, chatID, topicID int64) error
	Reject(ctx context.Context, id int64) error
	ListUndelivered(ctx context.Context, limit int) ([]*domain.Report, error)
}

type reportRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewReportRepository creates a SQL-backed report repository.
func NewReportRepository(db *sql.DB, log *slog.Logger) ReportRepository {
	return &reportRepository{
		db:  db,
		log: log,
	}
}

// Create inserts a new report with status=open and returns its id.
func (r *reportRepository) Create(ctx context.Context, report *domain.Report) (int64, error) {
	const query = `
		INSERT INTO reports (from_user_id, from_username, against_user_id, against_username, violation_link, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING report_id
	`

	var id int64
	err := r.db.QueryRowContext(
		ctx,
		query,
		report.FromUserID,
		report.FromUsername,
		report.AgainstUserID,
		report.AgainstUsername,
		report.ViolationLink,
		report.Description,
	).Scan(&id)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to create report", slog.Int64("from_user_id", report.FromUserID), slog.Any("error", err))
		}
		return 0, fmt.Errorf("insert report: %w", err)
	}

	return id, nil
}

// Get retrieves a report by id.
func (r *reportRepository) Get(ctx context.Context, id int64) (*domain.Report, error) {
	const query = `
		SELECT report_id, from_user_id, from_username, against_user_id, against_username,
		       violation_link, description, message_id, chat_id, topic_id, status, created_at
		FROM reports
		WHERE report_id = $1
	`

	report, err := scanReport(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		if r.log != nil {
			r.log.Error("failed to fetch report", slog.Int64("report_id", id), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select report: %w", err)
	}

	return report, nil
}

// AttachDelivery records the moderation-channel message refs. The guard on
// message_id keeps the refs write-once.
func (r *reportRepository) AttachDelivery(ctx context.Context, id, messageID, chatID, topicID int64) error {
	const query = `
		UPDATE reports
		SET message_id = $1, chat_id = $2, topic_id = $3
		WHERE report_id = $4 AND message_id IS NULL
	`

	res, err := r.db.ExecContext(ctx, query, messageID, chatID, topicID, id)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to attach delivery refs", slog.Int64("report_id", id), slog.Any("error", err))
		}
		return fmt.Errorf("attach delivery: %w", err)
	}

	return requireRow(res, ErrReportFinalized)
}

// Reject marks an open report as rejected. A report that already left the
// open state yields ErrReportFinalized.
func (r *reportRepository) Reject(ctx context.Context, id int64) error {
	const query = `
		UPDATE reports
		SET status = 'rejected'
		WHERE report_id = $1 AND status = 'open'
	`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to reject report", slog.Int64("report_id", id), slog.Any("error", err))
		}
		return fmt.Errorf("reject report: %w", err)
	}

	return requireRow(res, ErrReportFinalized)
}

// ListUndelivered returns open reports that were never posted to the
// moderation channel, oldest first.
func (r *reportRepository) ListUndelivered(ctx context.Context, limit int) ([]*domain.Report, error) {
	const query = `
		SELECT report_id, from_user_id, from_username, against_user_id, against_username,
		       violation_link, description, message_id, chat_id, topic_id, status, created_at
		FROM reports
		WHERE status = 'open' AND message_id IS NULL
		ORDER BY report_id ASC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to list undelivered reports", slog.Any("error", err))
		}
		return nil, fmt.Errorf("select undelivered reports: %w", err)
	}
	defer rows.Close()

	var reports []*domain.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}

	return reports, nil
}

func scanReport(row rowScanner) (*domain.Report, error) {
	var (
		report domain.Report
		status string
	)

	if err := row.Scan(
		&report.ID,
		&report.FromUserID,
		&report.FromUsername,
		&report.AgainstUserID,
		&report.AgainstUsername,
		&report.ViolationLink,
		&report.Description,
		&report.MessageID,
		&report.ChatID,
		&report.TopicID,
		&status,
		&report.CreatedAt,
	); err != nil {
		return nil, err
	}

	report.Status = domain.ReportStatus(status)
	return &report, nil
}
