package cache

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/bornholm/casecache/internal/adapter/memory"
	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/bornholm/casecache/internal/core/port/testsuite"
	"github.com/pkg/errors"
)

func TestBinaryStore(t *testing.T) {
	testsuite.TestBinaryStore(t, func(t *testing.T) (port.BinaryStore, error) {
		return NewBinaryStore(memory.NewBinaryStore(), 4, time.Minute), nil
	})
}

func TestBinaryStoreServesFromMemory(t *testing.T) {
	ctx := context.Background()

	backend := &countingStore{BinaryStore: memory.NewBinaryStore()}
	store := NewBinaryStore(backend, 4, time.Minute)

	if err := store.PutDocument(ctx, model.NewDocument("doc-1", "Case 1", nil, "application/pdf", []byte("v1"))); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	for range 3 {
		if _, err := store.GetDocument(ctx, "doc-1"); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
	}

	if e, g := 1, backend.gets; e != g {
		t.Errorf("backend.gets: expected '%v', got '%v'", e, g)
	}

	if e, g := 1, store.Len(); e != g {
		t.Errorf("store.Len(): expected '%v', got '%v'", e, g)
	}

	// Replacing the document must invalidate the memory copy
	if err := store.PutDocument(ctx, model.NewDocument("doc-1", "Case 1", nil, "application/pdf", []byte("v2"))); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	doc, err := store.GetDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := []byte("v2"), doc.Payload(); !bytes.Equal(e, g) {
		t.Errorf("doc.Payload(): expected '%s', got '%s'", e, g)
	}

	if e, g := 2, backend.gets; e != g {
		t.Errorf("backend.gets: expected '%v', got '%v'", e, g)
	}

	if err := store.DeleteDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if _, err := store.GetDocument(ctx, "doc-1"); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected port.ErrNotFound, got '%+v'", err)
	}
}

func TestBinaryStorePayloadIsNotShared(t *testing.T) {
	ctx := context.Background()
	store := NewBinaryStore(memory.NewBinaryStore(), 4, time.Minute)

	if err := store.PutDocument(ctx, model.NewDocument("doc-1", "Case 1", nil, "application/pdf", []byte("v1"))); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	// First read populates the memory cache, second one is served from it
	for range 2 {
		doc, err := store.GetDocument(ctx, "doc-1")
		if err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}

		if e, g := []byte("v1"), doc.Payload(); !bytes.Equal(e, g) {
			t.Fatalf("doc.Payload(): expected '%s', got '%s'", e, g)
		}

		doc.Payload()[0] = 'x'
	}
}

type countingStore struct {
	*memory.BinaryStore
	gets int
}

func (s *countingStore) GetDocument(ctx context.Context, id model.DocumentID) (model.PersistedDocument, error) {
	s.gets++
	return s.BinaryStore.GetDocument(ctx, id)
}
