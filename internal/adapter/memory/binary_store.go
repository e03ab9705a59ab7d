package memory

import (
	"context"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/pkg/errors"
)

type storedDocument struct {
	id       model.DocumentID
	title    string
	source   *url.URL
	mimeType string
	payload  []byte
	cachedAt time.Time
}

// ID implements model.PersistedDocument.
func (d *storedDocument) ID() model.DocumentID {
	return d.id
}

// Title implements model.PersistedDocument.
func (d *storedDocument) Title() string {
	return d.title
}

// Source implements model.PersistedDocument.
func (d *storedDocument) Source() *url.URL {
	return d.source
}

// MimeType implements model.PersistedDocument.
func (d *storedDocument) MimeType() string {
	return d.mimeType
}

// Size implements model.PersistedDocument.
func (d *storedDocument) Size() int64 {
	return int64(len(d.payload))
}

// CachedAt implements model.PersistedDocument.
func (d *storedDocument) CachedAt() time.Time {
	return d.cachedAt
}

// Payload implements model.PersistedDocument.
func (d *storedDocument) Payload() []byte {
	return d.payload
}

var _ model.PersistedDocument = &storedDocument{}

// BinaryStore is a volatile port.BinaryStore, mostly useful for tests and
// ephemeral sessions.
type BinaryStore struct {
	documents map[model.DocumentID]*storedDocument
	totalSize int64
	mutex     sync.RWMutex
}

// PutDocument implements port.BinaryStore.
func (s *BinaryStore) PutDocument(ctx context.Context, doc model.PayloadDocument) error {
	stored := &storedDocument{
		id:       doc.ID(),
		title:    doc.Title(),
		source:   doc.Source(),
		mimeType: doc.MimeType(),
		payload:  slices.Clone(doc.Payload()),
		cachedAt: time.Now().UTC(),
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if previous, exists := s.documents[stored.id]; exists {
		s.totalSize -= previous.Size()
	}

	s.documents[stored.id] = stored
	s.totalSize += stored.Size()

	return nil
}

// GetDocument implements port.BinaryStore.
func (s *BinaryStore) GetDocument(ctx context.Context, id model.DocumentID) (model.PersistedDocument, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	doc, exists := s.documents[id]
	if !exists {
		return nil, errors.WithStack(port.ErrNotFound)
	}

	return doc, nil
}

// DocumentExists implements port.BinaryStore.
func (s *BinaryStore) DocumentExists(ctx context.Context, id model.DocumentID) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	_, exists := s.documents[id]

	return exists, nil
}

// DeleteDocument implements port.BinaryStore.
func (s *BinaryStore) DeleteDocument(ctx context.Context, id model.DocumentID) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	doc, exists := s.documents[id]
	if !exists {
		return nil
	}

	delete(s.documents, id)
	s.totalSize -= doc.Size()

	return nil
}

// QueryDocuments implements port.BinaryStore.
func (s *BinaryStore) QueryDocuments(ctx context.Context) ([]model.CachedDocument, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	documents := make([]model.CachedDocument, 0, len(s.documents))
	for _, d := range s.documents {
		documents = append(documents, d)
	}

	slices.SortFunc(documents, func(a, b model.CachedDocument) int {
		if c := b.CachedAt().Compare(a.CachedAt()); c != 0 {
			return c
		}

		return strings.Compare(string(a.ID()), string(b.ID()))
	})

	return documents, nil
}

// CountDocuments implements port.BinaryStore.
func (s *BinaryStore) CountDocuments(ctx context.Context) (int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return int64(len(s.documents)), nil
}

// TotalSize implements port.BinaryStore.
func (s *BinaryStore) TotalSize(ctx context.Context) (int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.totalSize, nil
}

// Clear implements port.BinaryStore.
func (s *BinaryStore) Clear(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	clear(s.documents)
	s.totalSize = 0

	return nil
}

func NewBinaryStore() *BinaryStore {
	return &BinaryStore{
		documents: make(map[model.DocumentID]*storedDocument),
	}
}

var _ port.BinaryStore = &BinaryStore{}
