package testsuite

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"testing"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/pkg/errors"
)

func TestBinaryStore(t *testing.T, factory func(t *testing.T) (port.BinaryStore, error)) {
	type testCase struct {
		Name string
		Run  func(t *testing.T, ctx context.Context, store port.BinaryStore) error
	}

	var testCases []testCase = []testCase{
		{
			Name: "PutAndGet",
			Run: func(t *testing.T, ctx context.Context, store port.BinaryStore) error {
				payload := []byte("%PDF-1.4 dummy case file")

				if err := store.PutDocument(ctx, newTestDocument("doc-1", payload)); err != nil {
					return errors.WithStack(err)
				}

				doc, err := store.GetDocument(ctx, "doc-1")
				if err != nil {
					return errors.WithStack(err)
				}

				if !bytes.Equal(payload, doc.Payload()) {
					t.Errorf("doc.Payload(): expected '%s', got '%s'", payload, doc.Payload())
				}

				if e, g := int64(len(payload)), doc.Size(); e != g {
					t.Errorf("doc.Size(): expected '%v', got '%v'", e, g)
				}

				if e, g := "Case doc-1", doc.Title(); e != g {
					t.Errorf("doc.Title(): expected '%v', got '%v'", e, g)
				}

				if e, g := "https://example.com/cases/doc-1.pdf", doc.Source().String(); e != g {
					t.Errorf("doc.Source(): expected '%v', got '%v'", e, g)
				}

				if doc.CachedAt().IsZero() {
					t.Errorf("doc.CachedAt() should not be zero value")
				}

				exists, err := store.DocumentExists(ctx, "doc-1")
				if err != nil {
					return errors.WithStack(err)
				}

				if !exists {
					t.Errorf("store.DocumentExists(\"doc-1\"): expected true, got false")
				}

				return nil
			},
		},
		{
			Name: "GetMissing",
			Run: func(t *testing.T, ctx context.Context, store port.BinaryStore) error {
				_, err := store.GetDocument(ctx, "missing")
				if !errors.Is(err, port.ErrNotFound) {
					t.Errorf("store.GetDocument(\"missing\"): expected port.ErrNotFound, got '%+v'", err)
				}

				exists, err := store.DocumentExists(ctx, "missing")
				if err != nil {
					return errors.WithStack(err)
				}

				if exists {
					t.Errorf("store.DocumentExists(\"missing\"): expected false, got true")
				}

				return nil
			},
		},
		{
			Name: "Replace",
			Run: func(t *testing.T, ctx context.Context, store port.BinaryStore) error {
				if err := store.PutDocument(ctx, newTestDocument("doc-1", []byte("first version, quite long"))); err != nil {
					return errors.WithStack(err)
				}

				replacement := []byte("second")

				if err := store.PutDocument(ctx, newTestDocument("doc-1", replacement)); err != nil {
					return errors.WithStack(err)
				}

				doc, err := store.GetDocument(ctx, "doc-1")
				if err != nil {
					return errors.WithStack(err)
				}

				if !bytes.Equal(replacement, doc.Payload()) {
					t.Errorf("doc.Payload(): expected '%s', got '%s'", replacement, doc.Payload())
				}

				count, err := store.CountDocuments(ctx)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(1), count; e != g {
					t.Errorf("store.CountDocuments(): expected '%v', got '%v'", e, g)
				}

				total, err := store.TotalSize(ctx)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(len(replacement)), total; e != g {
					t.Errorf("store.TotalSize(): expected '%v', got '%v'", e, g)
				}

				return nil
			},
		},
		{
			Name: "DeleteMissingIsNoop",
			Run: func(t *testing.T, ctx context.Context, store port.BinaryStore) error {
				if err := store.DeleteDocument(ctx, "missing"); err != nil {
					return errors.WithStack(err)
				}

				return nil
			},
		},
		{
			Name: "TotalSizeWithoutDrift",
			Run: func(t *testing.T, ctx context.Context, store port.BinaryStore) error {
				rnd := rand.New(rand.NewSource(42))
				expected := map[model.DocumentID]int64{}

				for i := 0; i < 100; i++ {
					id := model.DocumentID(fmt.Sprintf("doc-%d", rnd.Intn(10)))

					if rnd.Intn(3) == 0 {
						if err := store.DeleteDocument(ctx, id); err != nil {
							return errors.WithStack(err)
						}

						delete(expected, id)
						continue
					}

					payload := bytes.Repeat([]byte{byte(i)}, 1+rnd.Intn(512))

					if err := store.PutDocument(ctx, newTestDocument(id, payload)); err != nil {
						return errors.WithStack(err)
					}

					expected[id] = int64(len(payload))
				}

				var expectedTotal int64
				for _, size := range expected {
					expectedTotal += size
				}

				total, err := store.TotalSize(ctx)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := expectedTotal, total; e != g {
					t.Errorf("store.TotalSize(): expected '%v', got '%v'", e, g)
				}

				documents, err := store.QueryDocuments(ctx)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := len(expected), len(documents); e != g {
					t.Fatalf("len(documents): expected '%v', got '%v'", e, g)
				}

				var listedTotal int64
				for _, d := range documents {
					size, exists := expected[d.ID()]
					if !exists {
						t.Errorf("unexpected document '%s' in listing", d.ID())
						continue
					}

					if e, g := size, d.Size(); e != g {
						t.Errorf("document '%s' size: expected '%v', got '%v'", d.ID(), e, g)
					}

					listedTotal += d.Size()
				}

				if e, g := expectedTotal, listedTotal; e != g {
					t.Errorf("listed total size: expected '%v', got '%v'", e, g)
				}

				return nil
			},
		},
		{
			Name: "Clear",
			Run: func(t *testing.T, ctx context.Context, store port.BinaryStore) error {
				for _, id := range []model.DocumentID{"doc-1", "doc-2", "doc-3"} {
					if err := store.PutDocument(ctx, newTestDocument(id, []byte(id))); err != nil {
						return errors.WithStack(err)
					}
				}

				if err := store.Clear(ctx); err != nil {
					return errors.WithStack(err)
				}

				count, err := store.CountDocuments(ctx)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(0), count; e != g {
					t.Errorf("store.CountDocuments(): expected '%v', got '%v'", e, g)
				}

				total, err := store.TotalSize(ctx)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(0), total; e != g {
					t.Errorf("store.TotalSize(): expected '%v', got '%v'", e, g)
				}

				if _, err := store.GetDocument(ctx, "doc-2"); !errors.Is(err, port.ErrNotFound) {
					t.Errorf("store.GetDocument(\"doc-2\"): expected port.ErrNotFound, got '%+v'", err)
				}

				return nil
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			ctx := context.Background()

			store, err := factory(t)
			if err != nil {
				t.Fatalf("could not create store: %+v", errors.WithStack(err))
			}

			if err := tc.Run(t, ctx, store); err != nil {
				t.Fatalf("could not run test: %+v", errors.WithStack(err))
			}
		})
	}
}

func newTestDocument(id model.DocumentID, payload []byte) model.PayloadDocument {
	source := &url.URL{
		Scheme: "https",
		Host:   "example.com",
		Path:   fmt.Sprintf("/cases/%s.pdf", id),
	}

	return model.NewDocument(id, fmt.Sprintf("Case %s", id), source, "application/pdf", payload)
}
