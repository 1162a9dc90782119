package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
)

// setupGormDB opens a private in-memory SQLite database for one test.
func setupGormDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := OpenGorm("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err, "failed to initialize test database")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestGormDocumentStore(t *testing.T) {
	ctx := context.Background()
	store := NewGormDocumentStore(setupGormDB(t))

	_, err := store.Load(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	require.NoError(t, store.Save(ctx, "k", &domain.Document{State: []byte(`{"v":1}`), Version: 1}))
	require.NoError(t, store.Save(ctx, "k", &domain.Document{State: []byte(`{"v":2}`), Version: 1}))

	doc, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(doc.State))
	assert.Equal(t, 1, doc.Version)

	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Load(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestGormDocumentStore_BacksRepositories(t *testing.T) {
	ctx := context.Background()
	repo := NewGoalRepository(NewGormDocumentStore(setupGormDB(t)))

	state := domain.NewGoalState()
	state.SetOnboardingStep(3)
	require.NoError(t, repo.Save(ctx, domain.GoalsKey("a@b.co"), state))

	loaded, err := repo.Load(ctx, domain.GoalsKey("a@b.co"))
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.OnboardingStep)
}

func TestGormUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("successful user creation", func(t *testing.T) {
		repo := NewGormUserRepository(setupGormDB(t))
		user, _ := domain.NewUser(uuid.NewString(), "gorm@example.com", "Gorm")
		require.NoError(t, user.SetPassword("secret1"))

		require.NoError(t, repo.Create(ctx, user))

		found, err := repo.GetByEmail(ctx, "GORM@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.Equal(t, user.DataKey, found.DataKey)
		assert.NoError(t, found.CheckPassword("secret1"))
	})

	t.Run("duplicate email error", func(t *testing.T) {
		repo := NewGormUserRepository(setupGormDB(t))
		u1, _ := domain.NewUser(uuid.NewString(), "dup@example.com", "One")
		u2, _ := domain.NewUser(uuid.NewString(), "dup@example.com", "Two")

		require.NoError(t, repo.Create(ctx, u1))
		assert.ErrorIs(t, repo.Create(ctx, u2), domain.ErrEmailAlreadyExists)
	})

	t.Run("update, delete and not found", func(t *testing.T) {
		repo := NewGormUserRepository(setupGormDB(t))
		user, _ := domain.NewUser(uuid.NewString(), "upd@example.com", "Upd")
		require.NoError(t, repo.Create(ctx, user))

		name := "Updated"
		user.UpdateProfile(&name, nil)
		require.NoError(t, repo.Update(ctx, user))

		found, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Updated", found.Name)

		require.NoError(t, repo.Delete(ctx, user.ID))
		_, err = repo.GetByID(ctx, user.ID)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, user.ID), domain.ErrUserNotFound)
		assert.ErrorIs(t, repo.Update(ctx, user), domain.ErrUserNotFound)
	})
}
