package domain

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrPartitionNotFound = errors.New("partition not found")
)

// SchemaVersion tags every persisted document. Documents written under another
// version are treated as absent.
const SchemaVersion = 1

// Document is the persisted envelope around a store's state.
type Document struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

type DocumentStore interface {
	// Load returns ErrDocumentNotFound when nothing is stored under key.
	Load(ctx context.Context, key string) (*Document, error)

	// Save replaces whatever is stored under key.
	Save(ctx context.Context, key string, doc *Document) error

	// Delete is idempotent.
	Delete(ctx context.Context, key string) error
}

type ProgressRepository interface {
	// Load returns ErrPartitionNotFound for a missing or stale partition.
	Load(ctx context.Context, key string) (*ProgressState, error)
	Save(ctx context.Context, key string, state *ProgressState) error
	Delete(ctx context.Context, key string) error
}

type GoalRepository interface {
	// Load returns ErrPartitionNotFound for a missing or stale partition.
	Load(ctx context.Context, key string) (*GoalState, error)
	Save(ctx context.Context, key string, state *GoalState) error
	Delete(ctx context.Context, key string) error
}

type UserRepository interface {
	// Create fails with ErrEmailAlreadyExists on a duplicate email.
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
}
