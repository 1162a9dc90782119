package workers

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
)

const (
	queueSize    = 100
	BackupPrefix = "backup:"
)

type SnapshotRecorder interface {
	SnapshotSaved()
	SnapshotFailed()
	SnapshotDropped()
}

type SnapshotJob struct {
	ProgressKey string
	GoalsKey    string
}

// SnapshotWorker copies a user's partitions into backup documents off the
// request path.
type SnapshotWorker struct {
	store   domain.DocumentStore
	metrics SnapshotRecorder
	log     logrus.FieldLogger
	jobs    chan SnapshotJob
	done    chan struct{}
}

func NewSnapshotWorker(store domain.DocumentStore, metrics SnapshotRecorder, log logrus.FieldLogger) *SnapshotWorker {
	return &SnapshotWorker{
		store:   store,
		metrics: metrics,
		log:     log.WithField("component", "snapshot_worker"),
		jobs:    make(chan SnapshotJob, queueSize),
		done:    make(chan struct{}),
	}
}

func (w *SnapshotWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		w.log.Info("Snapshot worker started")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				w.log.Info("Snapshot worker shutting down")
				return
			}
		}
	}()
}

// Done is closed once a started worker has stopped.
func (w *SnapshotWorker) Done() <-chan struct{} {
	return w.done
}

// Enqueue never blocks; it reports false when the job was dropped.
func (w *SnapshotWorker) Enqueue(progressKey, goalsKey string) bool {
	select {
	case w.jobs <- SnapshotJob{ProgressKey: progressKey, GoalsKey: goalsKey}:
		return true
	default:
		w.metrics.SnapshotDropped()
		w.log.WithField("partition", progressKey).Warn("Snapshot queue full, dropping job")
		return false
	}
}

func (w *SnapshotWorker) processJob(ctx context.Context, job SnapshotJob) {
	for _, key := range []string{job.ProgressKey, job.GoalsKey} {
		if key == "" {
			continue
		}
		copied, err := w.copy(ctx, key)
		if err != nil {
			w.metrics.SnapshotFailed()
			w.log.WithError(err).WithField("partition", key).Error("Snapshot failed")
			continue
		}
		if copied {
			w.metrics.SnapshotSaved()
		}
	}
}

func (w *SnapshotWorker) copy(ctx context.Context, key string) (bool, error) {
	doc, err := w.store.Load(ctx, key)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := w.store.Save(ctx, BackupPrefix+key, doc); err != nil {
		return false, err
	}
	return true, nil
}
