package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/nolyk/modbot/internal/domain"
)

// AdminRepository defines the admin allow-list contract. Authority is the
// union of the static config list and the admins table.
type AdminRepository interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	Add(ctx context.Context, userID int64, username string) error
	Remove(ctx context.Context, userID int64) error
	List(ctx context.Context) ([]*domain.Admin, error)
	// Seed inserts the static allow-list when the table is empty.
	Seed(ctx context.Context, staticIDs []int64) error
}

type adminRepository struct {
	db        *sql.DB
	staticIDs map[int64]struct{}
	log       *slog.Logger
}

// NewAdminRepository creates a SQL-backed admin repository with a static allow-list.
func NewAdminRepository(db *sql.DB, staticIDs []int64, log *slog.Logger) AdminRepository {
	static := make(map[int64]struct{}, len(staticIDs))
	for _, id := range staticIDs {
		static[id] = struct{}{}
	}

	return &adminRepository{
		db:        db,
		staticIDs: static,
		log:       log,
	}
}

func (r *adminRepository) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if _, ok := r.staticIDs[userID]; ok {
		return true, nil
	}

	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM admins WHERE user_id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to check admin", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		return false, fmt.Errorf("check admin: %w", err)
	}

	return exists, nil
}

func (r *adminRepository) Add(ctx context.Context, userID int64, username string) error {
	const query = `
		INSERT INTO admins (user_id, username)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, userID, username); err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}

	return nil
}

func (r *adminRepository) Remove(ctx context.Context, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}

	return requireRow(res, ErrNotFound)
}

func (r *adminRepository) List(ctx context.Context) ([]*domain.Admin, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id, username, added_at FROM admins ORDER BY added_at`)
	if err != nil {
		return nil, fmt.Errorf("select admins: %w", err)
	}
	defer rows.Close()

	var admins []*domain.Admin
	for rows.Next() {
		var a domain.Admin
		if err := rows.Scan(&a.UserID, &a.Username, &a.AddedAt); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		admins = append(admins, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admins: %w", err)
	}

	return admins, nil
}

func (r *adminRepository) Seed(ctx context.Context, staticIDs []int64) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, id := range staticIDs {
		username := fmt.Sprintf("Admin_%d", id)
		if err := r.Add(ctx, id, username); err != nil {
			return err
		}
	}

	if r.log != nil && len(staticIDs) > 0 {
		r.log.Info("seeded admins from static config", slog.Int("count", len(staticIDs)))
	}

	return nil
}
