package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
)

const documentCacheTTL = 30 * time.Minute

var _ domain.DocumentStore = (*CachedDocumentStore)(nil)

// CachedDocumentStore is a read-through Redis cache in front of another store.
// Redis failures are logged and never fail the request.
type CachedDocumentStore struct {
	next  domain.DocumentStore
	cache *redis.Client
	log   logrus.FieldLogger
}

func NewCachedDocumentStore(next domain.DocumentStore, cache *redis.Client, log logrus.FieldLogger) *CachedDocumentStore {
	return &CachedDocumentStore{
		next:  next,
		cache: cache,
		log:   log.WithField("component", "document_cache"),
	}
}

func (s *CachedDocumentStore) cacheKey(key string) string {
	return "doc:" + key
}

func (s *CachedDocumentStore) invalidate(ctx context.Context, key string) {
	if err := s.cache.Del(ctx, s.cacheKey(key)).Err(); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache invalidation failed")
	}
}

func (s *CachedDocumentStore) Load(ctx context.Context, key string) (*domain.Document, error) {
	ck := s.cacheKey(key)

	val, err := s.cache.Get(ctx, ck).Bytes()
	if err == nil {
		var doc domain.Document
		if err := json.Unmarshal(val, &doc); err == nil {
			return &doc, nil
		}

		s.log.WithField("key", key).Warn("corrupted cache entry, cleaning up")
		s.cache.Del(ctx, ck)
	} else if !errors.Is(err, redis.Nil) {
		s.log.WithError(err).Warn("cache read failed")
	}

	doc, err := s.next.Load(ctx, key)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(doc); err == nil {
		if setErr := s.cache.Set(ctx, ck, data, documentCacheTTL).Err(); setErr != nil {
			s.log.WithError(setErr).Warn("cache write failed")
		}
	}

	return doc, nil
}

func (s *CachedDocumentStore) Save(ctx context.Context, key string, doc *domain.Document) error {
	if err := s.next.Save(ctx, key, doc); err != nil {
		return err
	}
	s.invalidate(ctx, key)
	return nil
}

func (s *CachedDocumentStore) Delete(ctx context.Context, key string) error {
	defer s.invalidate(ctx, key)
	return s.next.Delete(ctx, key)
}
