package repository

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nolyk/modbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db, mock
}

func TestCreateClosingReport(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPunishmentRepository(db, testLogger())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE reports SET status = 'closed'").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO punishments").
		WithArgs(int64(7), int64(111), "alice", sqlmock.AnyArg(), "mute", "1 час", int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"punishment_id"}).AddRow(int64(3)))
	mock.ExpectCommit()

	id, err := repo.CreateClosingReport(context.Background(), &domain.Punishment{
		ReportID:  7,
		UserID:    111,
		Username:  "alice",
		RuleID:    sql.NullInt64{Int64: 2, Valid: true},
		Kind:      domain.PunishMute,
		Duration:  "1 час",
		AppliedBy: 42,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateClosingReport_AlreadyFinalized(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPunishmentRepository(db, testLogger())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE reports SET status = 'closed'").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.CreateClosingReport(context.Background(), &domain.Punishment{
		ReportID: 7,
		UserID:   111,
		Username: "alice",
		Kind:     domain.PunishBan,
	})

	assert.ErrorIs(t, err, ErrReportFinalized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceMute_ReplacesPriorRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPunishmentRepository(db, testLogger())

	expires := time.Now().Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM active_mutes WHERE user_id").
		WithArgs(int64(111), int64(-100500)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO active_mutes").
		WithArgs(int64(111), int64(-100500), int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceMute(context.Background(), &domain.ActiveMute{
		UserID:       111,
		ChatID:       -100500,
		PunishmentID: 3,
		ExpiresAt:    sql.NullTime{Time: expires, Valid: true},
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_RemovesMuteRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPunishmentRepository(db, testLogger())

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM active_mutes WHERE punishment_id").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM punishments").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, repo.Delete(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_MissingPunishment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPunishmentRepository(db, testLogger())

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM active_mutes WHERE punishment_id").
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM punishments").
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 99)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsMuted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPunishmentRepository(db, testLogger())

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(111), int64(-100500)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	muted, err := repo.IsMuted(context.Background(), 111, -100500)

	assert.NoError(t, err)
	assert.True(t, muted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
