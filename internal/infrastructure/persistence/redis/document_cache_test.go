package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplatform/insight-hub/internal/domain/academic"
)

type memoryStore struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	readErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *memoryStore) GetString(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return "", s.readErr
	}
	v, ok := s.values[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return v, nil
}

func (s *memoryStore) SetString(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.ttls[key] = ttl
	return nil
}

type countingExtractor struct {
	calls int
	text  string
	err   error
}

func (e *countingExtractor) Extract(context.Context, academic.Document) (string, error) {
	e.calls++
	return e.text, e.err
}

var doc = academic.Document{ID: "dddddddddddddddddddddddd", Name: "Syllabus"}

func TestDocumentCache_CachesSuccess(t *testing.T) {
	store := newMemoryStore()
	next := &countingExtractor{text: "week 1: vectors"}
	cache := NewDocumentCache(next, store, time.Hour, nil)

	for i := 0; i < 3; i++ {
		text, err := cache.Extract(context.Background(), doc)
		require.NoError(t, err)
		assert.Equal(t, "week 1: vectors", text)
	}

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, time.Hour, store.ttls[DocumentKey(doc.ID)])
}

func TestDocumentCache_CachesEmptyContent(t *testing.T) {
	store := newMemoryStore()
	next := &countingExtractor{text: ""}
	cache := NewDocumentCache(next, store, 0, nil)

	_, _ = cache.Extract(context.Background(), doc)
	text, err := cache.Extract(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, "", text)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, TTLDocumentContent, store.ttls[DocumentKey(doc.ID)])
}

func TestDocumentCache_DoesNotCacheFailures(t *testing.T) {
	store := newMemoryStore()
	next := &countingExtractor{err: errors.New("extractor down")}
	cache := NewDocumentCache(next, store, time.Minute, nil)

	_, err := cache.Extract(context.Background(), doc)
	require.Error(t, err)
	_, err = cache.Extract(context.Background(), doc)
	require.Error(t, err)

	assert.Equal(t, 2, next.calls)
	assert.Empty(t, store.values)
}

func TestDocumentCache_ReadErrorFallsThrough(t *testing.T) {
	store := newMemoryStore()
	store.readErr = errors.New("connection refused")
	next := &countingExtractor{text: "fresh"}
	cache := NewDocumentCache(next, store, time.Minute, nil)

	text, err := cache.Extract(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, "fresh", text)
	assert.Equal(t, 1, next.calls)
}

func TestConfig_Options(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "redis://:secret@cache.internal:6380/2"

	opts, err := cfg.Options()

	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 10, opts.PoolSize)

	cfg.URL = "http://wrong-scheme"
	_, err = cfg.Options()
	assert.ErrorIs(t, err, ErrCacheConnection)
}
