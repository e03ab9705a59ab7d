package service

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/bornholm/casecache/internal/metrics"
	"github.com/bornholm/go-x/slogx"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

type Connectivity interface {
	State() model.ConnectivityState
}

type DocumentCacheOptions struct {
	// Maximum total size of the cached payloads, in bytes. Zero or less
	// disables the quota.
	MaxSize int64
}

type DocumentCacheOptionFunc func(opts *DocumentCacheOptions)

func WithDocumentCacheMaxSize(maxSize int64) DocumentCacheOptionFunc {
	return func(opts *DocumentCacheOptions) {
		opts.MaxSize = maxSize
	}
}

func NewDocumentCacheOptions(funcs ...DocumentCacheOptionFunc) *DocumentCacheOptions {
	opts := &DocumentCacheOptions{
		MaxSize: 0,
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

// DocumentCache serves documents from the local store and fetches them
// remotely when needed. Reading a document never stores it, only Cache()
// grows the store.
type DocumentCache struct {
	store        port.BinaryStore
	fetcher      port.Fetcher
	connectivity Connectivity
	maxSize      int64

	// Serializes quota checks with the writes they guard
	writeMutex sync.Mutex
}

func (c *DocumentCache) IsCached(ctx context.Context, id model.DocumentID) (bool, error) {
	exists, err := c.store.DocumentExists(ctx, id)
	if err != nil {
		return false, errors.WithStack(err)
	}

	return exists, nil
}

// Resolve returns the content of the document, from the store if cached or
// from the network otherwise. Offline and not cached documents are reported
// with port.ErrUnavailable.
func (c *DocumentCache) Resolve(ctx context.Context, id model.DocumentID, source *url.URL, title string) ([]byte, error) {
	doc, err := c.store.GetDocument(ctx, id)
	if err == nil {
		metrics.DocumentResolutions.WithLabelValues(metrics.OutcomeHit).Inc()
		return doc.Payload(), nil
	}

	if !errors.Is(err, port.ErrNotFound) {
		return nil, errors.WithStack(err)
	}

	if c.connectivity.State() == model.Offline {
		metrics.DocumentResolutions.WithLabelValues(metrics.OutcomeUnavailable).Inc()
		return nil, errors.WithStack(port.ErrUnavailable)
	}

	metrics.DocumentResolutions.WithLabelValues(metrics.OutcomeMiss).Inc()

	slog.DebugContext(ctx, "document not cached, fetching", slog.String("documentID", string(id)), slog.String("title", title))

	data, err := c.fetch(ctx, source)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return data, nil
}

// Cache fetches the document and stores it, replacing any previous version.
func (c *DocumentCache) Cache(ctx context.Context, id model.DocumentID, title string, source *url.URL) (model.Document, error) {
	ctx = slogx.WithAttrs(ctx, slog.String("documentID", string(id)))

	if c.connectivity.State() == model.Offline {
		return nil, errors.WithStack(&port.FetchError{URL: sourceString(source), Err: port.ErrOffline})
	}

	data, err := c.fetch(ctx, source)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Abandoned requests must not reach the store
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	doc := model.NewDocument(id, title, source, mimetype.Detect(data).String(), data)

	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()

	if err := c.checkQuota(ctx, id, doc.Size()); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := c.store.PutDocument(ctx, doc); err != nil {
		return nil, errors.WithStack(err)
	}

	metrics.CachedBytes.Add(float64(doc.Size()))

	slog.DebugContext(ctx, "document cached", slog.Int64("size", doc.Size()), slog.String("mimeType", doc.MimeType()))

	return doc, nil
}

func (c *DocumentCache) Remove(ctx context.Context, id model.DocumentID) error {
	if err := c.store.DeleteDocument(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (c *DocumentCache) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (c *DocumentCache) List(ctx context.Context) ([]model.CachedDocument, error) {
	documents, err := c.store.QueryDocuments(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return documents, nil
}

func (c *DocumentCache) Usage(ctx context.Context) (model.CacheUsage, error) {
	count, err := c.store.CountDocuments(ctx)
	if err != nil {
		return model.CacheUsage{}, errors.WithStack(err)
	}

	totalSize, err := c.store.TotalSize(ctx)
	if err != nil {
		return model.CacheUsage{}, errors.WithStack(err)
	}

	return model.CacheUsage{
		Count:     count,
		TotalSize: totalSize,
	}, nil
}

// MaxSize returns the configured quota in bytes, zero meaning unlimited.
func (c *DocumentCache) MaxSize() int64 {
	return c.maxSize
}

func (c *DocumentCache) fetch(ctx context.Context, source *url.URL) ([]byte, error) {
	if source == nil {
		return nil, errors.WithStack(&port.FetchError{Err: errors.New("missing document source")})
	}

	data, err := c.fetcher.Fetch(ctx, source)
	if err != nil {
		metrics.DocumentFetches.WithLabelValues(metrics.OutcomeFailed).Inc()

		var fetchErr *port.FetchError
		if errors.As(err, &fetchErr) {
			return nil, errors.WithStack(err)
		}

		return nil, errors.WithStack(&port.FetchError{URL: source.String(), Err: err})
	}

	metrics.DocumentFetches.WithLabelValues(metrics.OutcomeSucceeded).Inc()

	return data, nil
}

func (c *DocumentCache) checkQuota(ctx context.Context, id model.DocumentID, size int64) error {
	if c.maxSize <= 0 {
		return nil
	}

	used, err := c.store.TotalSize(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	// The replaced version frees its own size
	var replaced int64
	previous, err := c.store.GetDocument(ctx, id)
	switch {
	case err == nil:
		replaced = previous.Size()
	case !errors.Is(err, port.ErrNotFound):
		return errors.WithStack(err)
	}

	if used-replaced+size > c.maxSize {
		return &port.QuotaExceededError{
			Limit:    c.maxSize,
			Used:     used,
			Required: size,
		}
	}

	return nil
}

func sourceString(source *url.URL) string {
	if source == nil {
		return ""
	}

	return source.String()
}

func NewDocumentCache(store port.BinaryStore, fetcher port.Fetcher, connectivity Connectivity, funcs ...DocumentCacheOptionFunc) *DocumentCache {
	opts := NewDocumentCacheOptions(funcs...)

	return &DocumentCache{
		store:        store,
		fetcher:      fetcher,
		connectivity: connectivity,
		maxSize:      opts.MaxSize,
	}
}
