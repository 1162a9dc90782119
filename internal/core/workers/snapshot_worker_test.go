package workers

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
)

type countingRecorder struct {
	saved, failed, dropped atomic.Int32
}

func (r *countingRecorder) SnapshotSaved()   { r.saved.Add(1) }
func (r *countingRecorder) SnapshotFailed()  { r.failed.Add(1) }
func (r *countingRecorder) SnapshotDropped() { r.dropped.Add(1) }

type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Load(ctx context.Context, key string) (*domain.Document, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentStore) Save(ctx context.Context, key string, doc *domain.Document) error {
	return m.Called(ctx, key, doc).Error(0)
}

func (m *MockDocumentStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestSnapshotWorker_ProcessJob(t *testing.T) {
	ctx := context.Background()
	progressKey := domain.ProgressKey("alice@example.com")
	goalsKey := domain.GoalsKey("alice@example.com")

	t.Run("Success: Copies both partitions", func(t *testing.T) {
		store := repository.NewInMemoryDocumentStore()
		rec := &countingRecorder{}
		w := NewSnapshotWorker(store, rec, quietLogger())

		doc := &domain.Document{State: []byte(`{"points":{"total":10}}`), Version: domain.SchemaVersion}
		require.NoError(t, store.Save(ctx, progressKey, doc))
		require.NoError(t, store.Save(ctx, goalsKey, &domain.Document{State: []byte(`{}`), Version: domain.SchemaVersion}))

		w.processJob(ctx, SnapshotJob{ProgressKey: progressKey, GoalsKey: goalsKey})

		backup, err := store.Load(ctx, BackupPrefix+progressKey)
		require.NoError(t, err)
		assert.JSONEq(t, string(doc.State), string(backup.State))

		_, err = store.Load(ctx, BackupPrefix+goalsKey)
		assert.NoError(t, err)
		assert.Equal(t, int32(2), rec.saved.Load())
	})

	t.Run("Success: Missing partitions are skipped", func(t *testing.T) {
		store := repository.NewInMemoryDocumentStore()
		rec := &countingRecorder{}
		w := NewSnapshotWorker(store, rec, quietLogger())

		w.processJob(ctx, SnapshotJob{ProgressKey: progressKey, GoalsKey: goalsKey})

		_, err := store.Load(ctx, BackupPrefix+progressKey)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
		assert.Equal(t, int32(0), rec.saved.Load())
		assert.Equal(t, int32(0), rec.failed.Load())
	})

	t.Run("Error: Store failure is counted and the next key still runs", func(t *testing.T) {
		store := new(MockDocumentStore)
		rec := &countingRecorder{}
		w := NewSnapshotWorker(store, rec, quietLogger())

		doc := &domain.Document{State: []byte(`{}`), Version: domain.SchemaVersion}
		store.On("Load", ctx, progressKey).Return(nil, errors.New("db down"))
		store.On("Load", ctx, goalsKey).Return(doc, nil)
		store.On("Save", ctx, BackupPrefix+goalsKey, doc).Return(nil)

		w.processJob(ctx, SnapshotJob{ProgressKey: progressKey, GoalsKey: goalsKey})

		assert.Equal(t, int32(1), rec.failed.Load())
		assert.Equal(t, int32(1), rec.saved.Load())
		store.AssertExpectations(t)
	})
}

func TestSnapshotWorker_Enqueue(t *testing.T) {
	t.Run("Drops jobs when the queue is full", func(t *testing.T) {
		rec := &countingRecorder{}
		w := NewSnapshotWorker(repository.NewInMemoryDocumentStore(), rec, quietLogger())

		for i := 0; i < queueSize; i++ {
			require.True(t, w.Enqueue("p", "g"))
		}

		assert.False(t, w.Enqueue("p", "g"))
		assert.Equal(t, int32(1), rec.dropped.Load())
	})

	t.Run("Started worker drains the queue and stops with the context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		store := repository.NewInMemoryDocumentStore()
		rec := &countingRecorder{}
		w := NewSnapshotWorker(store, rec, quietLogger())

		require.NoError(t, store.Save(ctx, "p", &domain.Document{State: []byte(`{}`), Version: domain.SchemaVersion}))

		w.Start(ctx)
		require.True(t, w.Enqueue("p", ""))

		assert.Eventually(t, func() bool { return rec.saved.Load() == 1 }, time.Second, 10*time.Millisecond)

		cancel()
		select {
		case <-w.Done():
		case <-time.After(time.Second):
			t.Fatal("worker did not stop")
		}
	})
}
