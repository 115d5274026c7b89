package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/nolyk/modbot/internal/domain"
)

// RuleRepository defines persistence operations for rules.
type RuleRepository interface {
	Create(ctx context.Context, rule *domain.Rule) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Rule, error)
	List(ctx context.Context) ([]*domain.Rule, error)
	ListByKind(ctx context.Context, kind domain.PunishmentKind) ([]*domain.Rule, error)
	Update(ctx context.Context, rule *domain.Rule) error
	Delete(ctx context.Context, id int64) error
}

type ruleRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewRuleRepository creates a SQL-backed rule repository.
func NewRuleRepository(db *sql.DB, log *slog.Logger) RuleRepository {
	return &ruleRepository{
		db:  db,
		log: log,
	}
}

const uniqueViolationCode = "23505"

// Create inserts a new rule. Article uniqueness is case-insensitive and
// enforced by the database; a collision yields ErrDuplicateArticle.
func (r *ruleRepository) Create(ctx context.Context, rule *domain.Rule) (int64, error) {
	const query = `
		INSERT INTO rules (article, description, kind, duration, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING rule_id
	`

	var id int64
	err := r.db.QueryRowContext(
		ctx,
		query,
		rule.Article,
		rule.Description,
		string(rule.Kind),
		rule.Duration,
		rule.CreatedBy,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
			return 0, ErrDuplicateArticle
		}

		if r.log != nil {
			r.log.Error("failed to create rule", slog.String("article", rule.Article), slog.Any("error", err))
		}
		return 0, fmt.Errorf("insert rule: %w", err)
	}

	return id, nil
}

// Get retrieves a rule by id.
func (r *ruleRepository) Get(ctx context.Context, id int64) (*domain.Rule, error) {
	const query = `
		SELECT rule_id, article, description, kind, duration, created_by, created_at
		FROM rules
		WHERE rule_id = $1
	`

	rule, err := scanRule(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		if r.log != nil {
			r.log.Error("failed to fetch rule", slog.Int64("rule_id", id), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select rule: %w", err)
	}

	return rule, nil
}

// List returns all rules, newest first.
func (r *ruleRepository) List(ctx context.Context) ([]*domain.Rule, error) {
	const query = `
		SELECT rule_id, article, description, kind, duration, created_by, created_at
		FROM rules
		ORDER BY rule_id DESC
	`

	return r.queryRules(ctx, query)
}

// ListByKind returns rules whose punishment matches kind, newest first.
func (r *ruleRepository) ListByKind(ctx context.Context, kind domain.PunishmentKind) ([]*domain.Rule, error) {
	const query = `
		SELECT rule_id, article, description, kind, duration, created_by, created_at
		FROM rules
		WHERE kind = $1
		ORDER BY rule_id DESC
	`

	return r.queryRules(ctx, query, string(kind))
}

// Update overwrites every mutable field of the rule.
func (r *ruleRepository) Update(ctx context.Context, rule *domain.Rule) error {
	const query = `
		UPDATE rules
		SET article = $1, description = $2, kind = $3, duration = $4
		WHERE rule_id = $5
	`

	res, err := r.db.ExecContext(ctx, query, rule.Article, rule.Description, string(rule.Kind), rule.Duration, rule.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
			return ErrDuplicateArticle
		}

		if r.log != nil {
			r.log.Error("failed to update rule", slog.Int64("rule_id", rule.ID), slog.Any("error", err))
		}
		return fmt.Errorf("update rule: %w", err)
	}

	return requireRow(res, ErrNotFound)
}

// Delete removes the rule.
func (r *ruleRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rules WHERE rule_id = $1`, id)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to delete rule", slog.Int64("rule_id", id), slog.Any("error", err))
		}
		return fmt.Errorf("delete rule: %w", err)
	}

	return requireRow(res, ErrNotFound)
}

func (r *ruleRepository) queryRules(ctx context.Context, query string, args ...any) ([]*domain.Rule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to list rules", slog.Any("error", err))
		}
		return nil, fmt.Errorf("select rules: %w", err)
	}
	defer rows.Close()

	var rules []*domain.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}

	return rules, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*domain.Rule, error) {
	var (
		rule domain.Rule
		kind string
	)

	if err := row.Scan(
		&rule.ID,
		&rule.Article,
		&rule.Description,
		&kind,
		&rule.Duration,
		&rule.CreatedBy,
		&rule.CreatedAt,
	); err != nil {
		return nil, err
	}

	rule.Kind = domain.PunishmentKind(kind)
	return &rule, nil
}

func requireRow(res sql.Result, missing error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return missing
	}
	return nil
}
