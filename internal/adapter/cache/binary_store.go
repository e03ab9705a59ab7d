package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
)

// BinaryStore keeps recently read documents in memory in front of a
// persistent port.BinaryStore. It never evicts documents from the backend.
type BinaryStore struct {
	backend       port.BinaryStore
	documentCache *expirable.LRU[model.DocumentID, model.PersistedDocument]

	// generation is incremented on each write so that a read racing with a
	// write never repopulates the cache with a replaced document.
	generation uint64
	mutex      sync.Mutex
}

// PutDocument implements port.BinaryStore.
func (s *BinaryStore) PutDocument(ctx context.Context, doc model.PayloadDocument) error {
	defer s.invalidate(doc.ID())

	if err := s.backend.PutDocument(ctx, doc); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// GetDocument implements port.BinaryStore.
func (s *BinaryStore) GetDocument(ctx context.Context, id model.DocumentID) (model.PersistedDocument, error) {
	s.mutex.Lock()
	if doc, exists := s.documentCache.Get(id); exists {
		s.mutex.Unlock()
		return detach(doc), nil
	}
	generation := s.generation
	s.mutex.Unlock()

	doc, err := s.backend.GetDocument(ctx, id)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if generation == s.generation {
		s.documentCache.Add(id, doc)
	}

	return detach(doc), nil
}

// detachedDocument exposes its own copy of a shared cached payload, so
// callers can not alter what later reads return.
type detachedDocument struct {
	model.PersistedDocument
	payload []byte
}

// Payload implements model.PersistedDocument.
func (d *detachedDocument) Payload() []byte {
	return d.payload
}

func detach(doc model.PersistedDocument) model.PersistedDocument {
	return &detachedDocument{
		PersistedDocument: doc,
		payload:           slices.Clone(doc.Payload()),
	}
}

// DocumentExists implements port.BinaryStore.
func (s *BinaryStore) DocumentExists(ctx context.Context, id model.DocumentID) (bool, error) {
	s.mutex.Lock()
	_, exists := s.documentCache.Get(id)
	s.mutex.Unlock()

	if exists {
		return true, nil
	}

	exists, err := s.backend.DocumentExists(ctx, id)
	if err != nil {
		return false, errors.WithStack(err)
	}

	return exists, nil
}

// DeleteDocument implements port.BinaryStore.
func (s *BinaryStore) DeleteDocument(ctx context.Context, id model.DocumentID) error {
	defer s.invalidate(id)

	if err := s.backend.DeleteDocument(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// QueryDocuments implements port.BinaryStore.
func (s *BinaryStore) QueryDocuments(ctx context.Context) ([]model.CachedDocument, error) {
	return s.backend.QueryDocuments(ctx)
}

// CountDocuments implements port.BinaryStore.
func (s *BinaryStore) CountDocuments(ctx context.Context) (int64, error) {
	return s.backend.CountDocuments(ctx)
}

// TotalSize implements port.BinaryStore.
func (s *BinaryStore) TotalSize(ctx context.Context) (int64, error) {
	return s.backend.TotalSize(ctx)
}

// Clear implements port.BinaryStore.
func (s *BinaryStore) Clear(ctx context.Context) error {
	defer func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		s.generation++
		s.documentCache.Purge()
	}()

	if err := s.backend.Clear(ctx); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Len returns the number of documents held in memory.
func (s *BinaryStore) Len() int {
	return s.documentCache.Len()
}

func (s *BinaryStore) invalidate(id model.DocumentID) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.generation++
	s.documentCache.Remove(id)
}

func NewBinaryStore(backend port.BinaryStore, size int, ttl time.Duration) *BinaryStore {
	return &BinaryStore{
		backend:       backend,
		documentCache: expirable.NewLRU[model.DocumentID, model.PersistedDocument](size, nil, ttl),
	}
}

var _ port.BinaryStore = &BinaryStore{}
