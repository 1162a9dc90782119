package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
)

type normalizer interface {
	Normalize()
}

// documentRepository stores one JSON state per partition key inside a
// versioned envelope.
type documentRepository[T any, PT interface {
	*T
	normalizer
}] struct {
	store domain.DocumentStore
	name  string
}

func (r *documentRepository[T, PT]) Load(ctx context.Context, key string) (PT, error) {
	doc, err := r.store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return nil, domain.ErrPartitionNotFound
		}
		return nil, fmt.Errorf("repository: load %s: %w", r.name, err)
	}

	if doc.Version != domain.SchemaVersion {
		return nil, domain.ErrPartitionNotFound
	}

	// Unreadable state is dropped the same way as a stale version.
	state := PT(new(T))
	if err := json.Unmarshal(doc.State, state); err != nil {
		return nil, domain.ErrPartitionNotFound
	}
	state.Normalize()

	return state, nil
}

func (r *documentRepository[T, PT]) Save(ctx context.Context, key string, state PT) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("repository: encode %s: %w", r.name, err)
	}

	doc := &domain.Document{State: data, Version: domain.SchemaVersion}
	if err := r.store.Save(ctx, key, doc); err != nil {
		return fmt.Errorf("repository: save %s: %w", r.name, err)
	}
	return nil
}

func (r *documentRepository[T, PT]) Delete(ctx context.Context, key string) error {
	if err := r.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("repository: delete %s: %w", r.name, err)
	}
	return nil
}

type ProgressRepository struct {
	documentRepository[domain.ProgressState, *domain.ProgressState]
}

var _ domain.ProgressRepository = (*ProgressRepository)(nil)

func NewProgressRepository(store domain.DocumentStore) *ProgressRepository {
	return &ProgressRepository{documentRepository[domain.ProgressState, *domain.ProgressState]{store: store, name: "progress"}}
}

type GoalRepository struct {
	documentRepository[domain.GoalState, *domain.GoalState]
}

var _ domain.GoalRepository = (*GoalRepository)(nil)

func NewGoalRepository(store domain.DocumentStore) *GoalRepository {
	return &GoalRepository{documentRepository[domain.GoalState, *domain.GoalState]{store: store, name: "goals"}}
}
