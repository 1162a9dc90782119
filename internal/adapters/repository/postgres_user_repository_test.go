package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
)

var userRowColumns = []string{"id", "email", "name", "password_hash", "data_key", "avatar", "created_at", "updated_at"}

func newMockUserRepo(t *testing.T) (*PostgresUserRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPostgresUserRepository(db), mock
}

func TestPostgresUserRepository_Create(t *testing.T) {
	ctx := context.Background()
	insert := regexp.QuoteMeta("INSERT INTO users (" + userColumns + ")")

	t.Run("Should create a user successfully", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)
		user, _ := domain.NewUser("u1", "jo@example.com", "Jo")

		mock.ExpectExec(insert).
			WithArgs(user.ID, user.Email, user.Name, user.PasswordHash, user.DataKey, user.Avatar, user.CreatedAt, user.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Create(ctx, user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	dupCases := map[string]error{
		"lib/pq": &pq.Error{Code: "23505"},
		"pgx":    &pgconn.PgError{Code: "23505"},
	}
	for name, dbErr := range dupCases {
		t.Run("Should map unique violation from "+name, func(t *testing.T) {
			repo, mock := newMockUserRepo(t)
			user, _ := domain.NewUser("u2", "dup@example.com", "Dup")

			mock.ExpectExec(insert).WillReturnError(dbErr)

			assert.ErrorIs(t, repo.Create(ctx, user), domain.ErrEmailAlreadyExists)
		})
	}

	t.Run("Should wrap other errors", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)
		user, _ := domain.NewUser("u3", "x@example.com", "X")
		boom := errors.New("connection reset")

		mock.ExpectExec(insert).WillReturnError(boom)

		err := repo.Create(ctx, user)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, domain.ErrEmailAlreadyExists)
	})
}

func TestPostgresUserRepository_Get(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Should retrieve existing user by email", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
			WithArgs("jo@example.com").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow("u1", "jo@example.com", "Jo", "hash", domain.ProgressKey("jo@example.com"), "", created, created))

		user, err := repo.GetByEmail(ctx, " JO@example.com ")
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.Equal(t, "skynetjoe-dashboard-jo@example.com", user.DataKey)
		assert.Equal(t, created, user.CreatedAt)
	})

	t.Run("Should return ErrUserNotFound for non-existent ID", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, "ghost")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestPostgresUserRepository_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	user, _ := domain.NewUser("u1", "jo@example.com", "Jo")

	t.Run("Should update profile fields", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
			WithArgs(user.Name, user.PasswordHash, user.Avatar, user.UpdatedAt, user.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Update(ctx, user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should report missing rows", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
			WithArgs("u1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Update(ctx, user), domain.ErrUserNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, "u1"), domain.ErrUserNotFound)
	})

	t.Run("Should delete an existing user", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
			WithArgs("u1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, "u1"))
	})
}

func TestPostgresUserRepository_EnsureSchema(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
