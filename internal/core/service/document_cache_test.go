package service

import (
	"bytes"
	"context"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/bornholm/casecache/internal/adapter/memory"
	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/bornholm/casecache/internal/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeFetcher struct {
	payloads map[string][]byte
	calls    atomic.Int64
	err      error
}

func (f *fakeFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	f.calls.Add(1)

	if f.err != nil {
		return nil, f.err
	}

	payload, exists := f.payloads[u.String()]
	if !exists {
		return nil, errors.WithStack(port.ErrNotFound)
	}

	return payload, nil
}

var pdfPayload = []byte("%PDF-1.4\n% case file\n")

func newTestDocumentCache(funcs ...DocumentCacheOptionFunc) (*DocumentCache, *fakeFetcher, *ConnectivityObserver, *memory.BinaryStore) {
	fetcher := &fakeFetcher{
		payloads: map[string][]byte{
			"https://example.com/cases/1.pdf": pdfPayload,
			"https://example.com/cases/2.pdf": []byte("second case"),
		},
	}

	observer := NewConnectivityObserver()
	store := memory.NewBinaryStore()

	return NewDocumentCache(store, fetcher, observer, funcs...), fetcher, observer, store
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	return u
}

func TestDocumentCacheResolveFromCache(t *testing.T) {
	ctx := context.Background()
	cache, fetcher, _, _ := newTestDocumentCache()

	source := mustParseURL(t, "https://example.com/cases/1.pdf")

	doc, err := cache.Cache(ctx, "case-1", "Case 1", source)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := "application/pdf", doc.MimeType(); e != g {
		t.Errorf("doc.MimeType(): expected '%v', got '%v'", e, g)
	}

	if e, g := int64(len(pdfPayload)), doc.Size(); e != g {
		t.Errorf("doc.Size(): expected '%v', got '%v'", e, g)
	}

	cached, err := cache.IsCached(ctx, "case-1")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if !cached {
		t.Errorf("expected document to be cached")
	}

	callsBefore := fetcher.calls.Load()
	hitsBefore := testutil.ToFloat64(metrics.DocumentResolutions.WithLabelValues(metrics.OutcomeHit))

	data, err := cache.Resolve(ctx, "case-1", source, "Case 1")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if !bytes.Equal(pdfPayload, data) {
		t.Errorf("data: expected '%s', got '%s'", pdfPayload, data)
	}

	if e, g := callsBefore, fetcher.calls.Load(); e != g {
		t.Errorf("fetcher.calls: expected '%v', got '%v'", e, g)
	}

	if e, g := hitsBefore+1, testutil.ToFloat64(metrics.DocumentResolutions.WithLabelValues(metrics.OutcomeHit)); e != g {
		t.Errorf("hit resolutions: expected '%v', got '%v'", e, g)
	}
}

func TestDocumentCacheResolveDoesNotCache(t *testing.T) {
	ctx := context.Background()
	cache, fetcher, _, _ := newTestDocumentCache()

	source := mustParseURL(t, "https://example.com/cases/2.pdf")

	data, err := cache.Resolve(ctx, "case-2", source, "Case 2")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := "second case", string(data); e != g {
		t.Errorf("data: expected '%v', got '%v'", e, g)
	}

	if e, g := int64(1), fetcher.calls.Load(); e != g {
		t.Errorf("fetcher.calls: expected '%v', got '%v'", e, g)
	}

	cached, err := cache.IsCached(ctx, "case-2")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if cached {
		t.Errorf("expected document not to be cached after resolution")
	}
}

func TestDocumentCacheOffline(t *testing.T) {
	ctx := context.Background()
	cache, fetcher, observer, _ := newTestDocumentCache()

	source := mustParseURL(t, "https://example.com/cases/1.pdf")

	observer.Notify(ctx, model.Offline)

	if _, err := cache.Resolve(ctx, "case-1", source, "Case 1"); !errors.Is(err, port.ErrUnavailable) {
		t.Fatalf("expected port.ErrUnavailable, got '%+v'", err)
	}

	if _, err := cache.Cache(ctx, "case-1", "Case 1", source); !errors.Is(err, port.ErrFetchFailed) || !errors.Is(err, port.ErrOffline) {
		t.Fatalf("expected offline fetch failure, got '%+v'", err)
	}

	if e, g := int64(0), fetcher.calls.Load(); e != g {
		t.Errorf("fetcher.calls: expected '%v', got '%v'", e, g)
	}

	observer.Notify(ctx, model.Online)

	if _, err := cache.Cache(ctx, "case-1", "Case 1", source); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	observer.Notify(ctx, model.Offline)

	data, err := cache.Resolve(ctx, "case-1", source, "Case 1")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if !bytes.Equal(pdfPayload, data) {
		t.Errorf("data: expected '%s', got '%s'", pdfPayload, data)
	}
}

func TestDocumentCacheFetchFailure(t *testing.T) {
	ctx := context.Background()
	cache, fetcher, _, store := newTestDocumentCache()

	source := mustParseURL(t, "https://example.com/cases/1.pdf")

	if _, err := cache.Cache(ctx, "case-1", "Case 1", source); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	fetcher.err = errors.New("connection reset")

	if _, err := cache.Cache(ctx, "case-1", "Case 1 (v2)", source); !errors.Is(err, port.ErrFetchFailed) {
		t.Fatalf("expected port.ErrFetchFailed, got '%+v'", err)
	}

	doc, err := store.GetDocument(ctx, "case-1")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := "Case 1", doc.Title(); e != g {
		t.Errorf("doc.Title(): expected '%v', got '%v'", e, g)
	}

	fetcher.err = nil

	missing := mustParseURL(t, "https://example.com/cases/unknown.pdf")

	_, err = cache.Resolve(ctx, "unknown", missing, "Unknown")
	if !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected port.ErrNotFound, got '%+v'", err)
	}

	if errors.Is(err, port.ErrUnavailable) {
		t.Errorf("missing remote document must not be reported as unavailable")
	}
}

func TestDocumentCacheCanceled(t *testing.T) {
	cache, _, _, store := newTestDocumentCache()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := mustParseURL(t, "https://example.com/cases/1.pdf")

	if _, err := cache.Cache(ctx, "case-1", "Case 1", source); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got '%+v'", err)
	}

	count, err := store.CountDocuments(context.Background())
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := int64(0), count; e != g {
		t.Errorf("count: expected '%v', got '%v'", e, g)
	}
}

func TestDocumentCacheQuota(t *testing.T) {
	ctx := context.Background()
	cache, _, _, _ := newTestDocumentCache(WithDocumentCacheMaxSize(int64(len(pdfPayload)) + 5))

	first := mustParseURL(t, "https://example.com/cases/1.pdf")
	second := mustParseURL(t, "https://example.com/cases/2.pdf")

	if _, err := cache.Cache(ctx, "case-1", "Case 1", first); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	// Replacing a document only accounts for the size difference
	if _, err := cache.Cache(ctx, "case-1", "Case 1", first); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	_, err := cache.Cache(ctx, "case-2", "Case 2", second)

	var quotaErr *port.QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("expected *port.QuotaExceededError, got '%+v'", err)
	}

	if !errors.Is(err, port.ErrStorageUnavailable) {
		t.Errorf("expected quota error to match port.ErrStorageUnavailable")
	}

	if e, g := int64(len("second case")), quotaErr.Required; e != g {
		t.Errorf("quotaErr.Required: expected '%v', got '%v'", e, g)
	}

	usage, err := cache.Usage(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := int64(1), usage.Count; e != g {
		t.Errorf("usage.Count: expected '%v', got '%v'", e, g)
	}

	if e, g := int64(len(pdfPayload)), usage.TotalSize; e != g {
		t.Errorf("usage.TotalSize: expected '%v', got '%v'", e, g)
	}
}

func TestDocumentCacheRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	cache, _, _, _ := newTestDocumentCache()

	for id, raw := range map[model.DocumentID]string{
		"case-1": "https://example.com/cases/1.pdf",
		"case-2": "https://example.com/cases/2.pdf",
	} {
		if _, err := cache.Cache(ctx, id, string(id), mustParseURL(t, raw)); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
	}

	if err := cache.Remove(ctx, "case-1"); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	// Removing twice is not an error
	if err := cache.Remove(ctx, "case-1"); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	documents, err := cache.List(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 1, len(documents); e != g {
		t.Fatalf("len(documents): expected '%v', got '%v'", e, g)
	}

	if e, g := model.DocumentID("case-2"), documents[0].ID(); e != g {
		t.Errorf("documents[0].ID(): expected '%v', got '%v'", e, g)
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	usage, err := cache.Usage(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := (model.CacheUsage{}), usage; e != g {
		t.Errorf("usage: expected '%v', got '%v'", e, g)
	}
}
