package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eduplatform/insight-hub/internal/domain/academic"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOCUMENT CACHE
// Read-through cache of extracted document text. Only successful extractions
// are stored; failures always reach the extractor again.
// ══════════════════════════════════════════════════════════════════════════════

// TextExtractor fetches the plain text of a document.
type TextExtractor interface {
	Extract(ctx context.Context, doc academic.Document) (string, error)
}

// StringStore is the subset of Cache used by DocumentCache.
type StringStore interface {
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
}

// DocumentCache decorates a TextExtractor with Redis caching.
type DocumentCache struct {
	next   TextExtractor
	store  StringStore
	ttl    time.Duration
	logger *slog.Logger
}

// NewDocumentCache creates a caching extractor. A non-positive ttl uses
// TTLDocumentContent.
func NewDocumentCache(next TextExtractor, store StringStore, ttl time.Duration, logger *slog.Logger) *DocumentCache {
	if ttl <= 0 {
		ttl = TTLDocumentContent
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentCache{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: logger.With("component", "document_cache"),
	}
}

// DocumentKey returns the cache key for a document.
func DocumentKey(id academic.ID) string {
	return PrefixDocument + id.String()
}

// Extract returns cached text when present, otherwise delegates and caches
// the result. Cache errors never fail the extraction.
func (c *DocumentCache) Extract(ctx context.Context, doc academic.Document) (string, error) {
	key := DocumentKey(doc.ID)

	text, err := c.store.GetString(ctx, key)
	if err == nil {
		return text, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("document cache read failed", "document_id", doc.ID.String(), "error", err)
	}

	text, err = c.next.Extract(ctx, doc)
	if err != nil {
		return "", err
	}

	if err := c.store.SetString(ctx, key, text, c.ttl); err != nil {
		c.logger.Warn("document cache write failed", "document_id", doc.ID.String(), "error", err)
	}
	return text, nil
}
