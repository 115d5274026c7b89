package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nolyk/modbot/internal/domain"
)

// TemplateRepository defines persistence operations for rejection templates.
type TemplateRepository interface {
	Create(ctx context.Context, t *domain.RejectionTemplate) (int64, error)
	Get(ctx context.Context, id int64) (*domain.RejectionTemplate, error)
	List(ctx context.Context) ([]*domain.RejectionTemplate, error)
	Delete(ctx context.Context, id int64) error
}

type templateRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewTemplateRepository creates a SQL-backed rejection template repository.
func NewTemplateRepository(db *sql.DB, log *slog.Logger) TemplateRepository {
	return &templateRepository{
		db:  db,
		log: log,
	}
}

func (r *templateRepository) Create(ctx context.Context, t *domain.RejectionTemplate) (int64, error) {
	const query = `
		INSERT INTO rejection_templates (title, body, created_by)
		VALUES ($1, $2, $3)
		RETURNING template_id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, t.Title, t.Text, t.CreatedBy).Scan(&id); err != nil {
		if r.log != nil {
			r.log.Error("failed to create template", slog.String("title", t.Title), slog.Any("error", err))
		}
		return 0, fmt.Errorf("insert template: %w", err)
	}

	return id, nil
}

func (r *templateRepository) Get(ctx context.Context, id int64) (*domain.RejectionTemplate, error) {
	const query = `
		SELECT template_id, title, body, created_by, created_at
		FROM rejection_templates
		WHERE template_id = $1
	`

	var t domain.RejectionTemplate
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Title, &t.Text, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select template: %w", err)
	}

	return &t, nil
}

func (r *templateRepository) List(ctx context.Context) ([]*domain.RejectionTemplate, error) {
	const query = `
		SELECT template_id, title, body, created_by, created_at
		FROM rejection_templates
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to list templates", slog.Any("error", err))
		}
		return nil, fmt.Errorf("select templates: %w", err)
	}
	defer rows.Close()

	var templates []*domain.RejectionTemplate
	for rows.Next() {
		var t domain.RejectionTemplate
		if err := rows.Scan(&t.ID, &t.Title, &t.Text, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}

	return templates, nil
}

func (r *templateRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rejection_templates WHERE template_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}

	return requireRow(res, ErrNotFound)
}
