package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/nolyk/modbot/internal/domain"
)

func TestRuleCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRuleRepository(db, testLogger())

	mock.ExpectQuery("INSERT INTO rules").
		WithArgs("Спам", "Массовая рассылка рекламы", "mute", "1 час", int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"rule_id"}).AddRow(int64(1)))

	id, err := repo.Create(context.Background(), &domain.Rule{
		Article:     "Спам",
		Description: "Массовая рассылка рекламы",
		Kind:        domain.PunishMute,
		Duration:    "1 час",
		CreatedBy:   42,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleCreate_DuplicateArticle(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRuleRepository(db, testLogger())

	mock.ExpectQuery("INSERT INTO rules").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), &domain.Rule{
		Article: "спам",
		Kind:    domain.PunishMute,
	})

	assert.ErrorIs(t, err, ErrDuplicateArticle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleListByKind(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRuleRepository(db, testLogger())

	now := time.Now()
	mock.ExpectQuery("SELECT rule_id, article, description, kind, duration, created_by, created_at").
		WithArgs("ban").
		WillReturnRows(sqlmock.NewRows(
			[]string{"rule_id", "article", "description", "kind", "duration", "created_by", "created_at"},
		).AddRow(int64(2), "Оскорбления", "Оскорбление участников", "ban", "7 дней", int64(42), now))

	rules, err := repo.ListByKind(context.Background(), domain.PunishBan)

	assert.NoError(t, err)
	if assert.Len(t, rules, 1) {
		assert.Equal(t, "Оскорбления", rules[0].Article)
		assert.Equal(t, domain.PunishBan, rules[0].Kind)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleGet_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRuleRepository(db, testLogger())

	mock.ExpectQuery("SELECT rule_id, article, description, kind, duration, created_by, created_at").
		WithArgs(int64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"rule_id"}))

	_, err := repo.Get(context.Background(), 77)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRuleDelete_Missing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRuleRepository(db, testLogger())

	mock.ExpectExec("DELETE FROM rules").
		WithArgs(int64(77)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 77), ErrNotFound)
}
