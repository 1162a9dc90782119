package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
)

const documentsSchema = `
	CREATE TABLE IF NOT EXISTS documents (
		doc_key    TEXT PRIMARY KEY,
		version    INTEGER NOT NULL,
		state      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

type PostgresDocumentStore struct {
	db *sqlx.DB
}

var _ domain.DocumentStore = (*PostgresDocumentStore)(nil)

func NewPostgresDocumentStore(db *sqlx.DB) *PostgresDocumentStore {
	return &PostgresDocumentStore{db: db}
}

func (s *PostgresDocumentStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, documentsSchema); err != nil {
		return fmt.Errorf("repository: create documents table failed: %w", err)
	}
	return nil
}

type documentRow struct {
	Version int    `db:"version"`
	State   []byte `db:"state"`
}

func (s *PostgresDocumentStore) Load(ctx context.Context, key string) (*domain.Document, error) {
	var row documentRow
	err := s.db.GetContext(ctx, &row, `SELECT version, state FROM documents WHERE doc_key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("repository: load document failed: %w", err)
	}

	return &domain.Document{State: row.State, Version: row.Version}, nil
}

func (s *PostgresDocumentStore) Save(ctx context.Context, key string, doc *domain.Document) error {
	query := `
		INSERT INTO documents (doc_key, version, state, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (doc_key) DO UPDATE
		SET version = EXCLUDED.version, state = EXCLUDED.state, updated_at = NOW()`

	if _, err := s.db.ExecContext(ctx, query, key, doc.Version, []byte(doc.State)); err != nil {
		return fmt.Errorf("repository: save document failed: %w", err)
	}
	return nil
}

func (s *PostgresDocumentStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE doc_key = $1`, key); err != nil {
		return fmt.Errorf("repository: delete document failed: %w", err)
	}
	return nil
}
