package port

import (
	"context"

	"github.com/bornholm/casecache/internal/core/model"
)

// BinaryStore persists documents and their payload on the local device.
type BinaryStore interface {
	// PutDocument inserts or replaces the document with the same identity.
	// The write is atomic: the stored size always matches the stored payload.
	PutDocument(ctx context.Context, doc model.PayloadDocument) error

	// GetDocument returns the document with its payload, or ErrNotFound.
	GetDocument(ctx context.Context, id model.DocumentID) (model.PersistedDocument, error)

	DocumentExists(ctx context.Context, id model.DocumentID) (bool, error)

	// DeleteDocument removes a document. Deleting an unknown identity is not an error.
	DeleteDocument(ctx context.Context, id model.DocumentID) error

	// QueryDocuments returns a snapshot of the stored documents metadata, without payloads.
	QueryDocuments(ctx context.Context) ([]model.CachedDocument, error)

	CountDocuments(ctx context.Context) (int64, error)
	TotalSize(ctx context.Context) (int64, error)

	Clear(ctx context.Context) error
}
