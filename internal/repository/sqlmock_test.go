package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/smartstudy/smartstudy/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	return sqlx.NewDb(mockDB, "pgx"), mock
}

func TestUserRepository_Create_PostgresUniqueViolation(t *testing.T) {
	database, mock := setupMockDB(t)
	repo := NewUserRepository(database)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &model.User{Name: "A", Email: "a@x.com", PasswordHash: "h"})

	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ByID_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "no rows", err: nil, wantErr: ErrUserNotFound},
		{name: "driver error", err: errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database, mock := setupMockDB(t)
			repo := NewUserRepository(database)

			q := mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM users WHERE id = $1`)).WithArgs("u1")
			if tt.err != nil {
				q.WillReturnError(tt.err)
			} else {
				q.WillReturnRows(sqlmock.NewRows([]string{"id"}))
			}

			_, err := repo.ByID(context.Background(), "u1")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestResourceRepository_ToggleLike_RollsBackOnError(t *testing.T) {
	database, mock := setupMockDB(t)
	repo := NewResourceRepository(database)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM resources WHERE id = $1 FOR UPDATE`)).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM resource_likes`)).
		WithArgs("r1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO resource_likes`)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, _, err := repo.ToggleLike(context.Background(), "r1", "u1")

	assert.EqualError(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepository_ToggleLike_RemovesExisting(t *testing.T) {
	database, mock := setupMockDB(t)
	repo := NewResourceRepository(database)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM resources WHERE id = $1 FOR UPDATE`)).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM resource_likes`)).
		WithArgs("r1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM resource_likes`)).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u2"))
	mock.ExpectCommit()

	likes, liked, err := repo.ToggleLike(context.Background(), "r1", "u1")

	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, []string{"u2"}, likes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ToggleSaved_LocksUser(t *testing.T) {
	database, mock := setupMockDB(t)
	repo := NewUserRepository(database)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM users WHERE id = $1 FOR UPDATE`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM saved_resources`)).
		WithArgs("u1", "r1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO saved_resources`)).
		WithArgs("u1", "r1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT resource_id FROM saved_resources`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"resource_id"}).AddRow("r1"))
	mock.ExpectCommit()

	saved, added, err := repo.ToggleSaved(context.Background(), "u1", "r1")

	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"r1"}, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockForUpdate(t *testing.T) {
	tests := []struct {
		driver string
		want   string
	}{
		{driver: "pgx", want: "SELECT 1 FROM users WHERE id = $1 FOR UPDATE"},
		{driver: "postgres", want: "SELECT 1 FROM users WHERE id = $1 FOR UPDATE"},
		{driver: "sqlite", want: "SELECT 1 FROM users WHERE id = $1"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			mockDB, _, err := sqlmock.New()
			require.NoError(t, err)
			t.Cleanup(func() { _ = mockDB.Close() })

			got := lockForUpdate(sqlx.NewDb(mockDB, tt.driver), `SELECT 1 FROM users WHERE id = $1`)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscussionRepository_AddAnswer_UnknownDiscussion(t *testing.T) {
	database, mock := setupMockDB(t)
	repo := NewDiscussionRepository(database)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE discussions SET answer_count = answer_count + 1 WHERE id = $1 RETURNING answer_count`)).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"answer_count"}))
	mock.ExpectRollback()

	_, err := repo.AddAnswer(context.Background(), "d1", &model.Answer{Text: "hi", AuthorID: "u1"})

	assert.ErrorIs(t, err, ErrDiscussionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.True(t, isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)")))
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("timeout")))
}
