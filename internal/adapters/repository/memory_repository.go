package repository

import (
	"bytes"
	"context"
	"sync"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
)

var (
	_ domain.DocumentStore  = (*InMemoryDocumentStore)(nil)
	_ domain.UserRepository = (*InMemoryUserRepository)(nil)
)

type InMemoryDocumentStore struct {
	store map[string]domain.Document

	mu sync.RWMutex
}

func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{
		store: make(map[string]domain.Document),
	}
}

func (r *InMemoryDocumentStore) Load(ctx context.Context, key string) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.store[key]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	doc.State = bytes.Clone(doc.State)
	return &doc, nil
}

func (r *InMemoryDocumentStore) Save(ctx context.Context, key string, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store[key] = domain.Document{State: bytes.Clone(doc.State), Version: doc.Version}
	return nil
}

func (r *InMemoryDocumentStore) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.store, key)
	return nil
}

type InMemoryUserRepository struct {
	byID map[string]domain.User

	mu sync.RWMutex
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		byID: make(map[string]domain.User),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := domain.NormalizeEmail(user.Email)
	for _, u := range r.byID {
		if u.Email == email {
			return domain.ErrEmailAlreadyExists
		}
	}

	r.byID[user.ID] = *user
	return nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = domain.NormalizeEmail(email)
	for _, u := range r.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *InMemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[user.ID]; !ok {
		return domain.ErrUserNotFound
	}

	r.byID[user.ID] = *user
	return nil
}

func (r *InMemoryUserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}

	delete(r.byID, id)
	return nil
}
