// Package history keeps the bounded, newest-first log of executed searches.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/lox/storefront-search/internal/blob"
	"github.com/lox/storefront-search/internal/types"
)

const (
	// DefaultKey is the storage key the history blob is kept under
	DefaultKey = "search_history"
	// DefaultMaxSize bounds the number of remembered searches
	DefaultMaxSize = 50
	// DedupeWindow is how long a repeated query updates the previous entry instead of adding a new one
	DedupeWindow = 60 * time.Second
)

// Listener is notified with the saved snapshot whenever the history changes
type Listener func(types.SearchHistory)

type options struct {
	key     string
	maxSize int
	now     func() time.Time
	newID   func() string
}

// Option configures a Store
type Option func(*options)

// WithKey sets the storage key
func WithKey(key string) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithMaxSize sets the maximum number of entries kept
func WithMaxSize(n int) Option {
	return func(o *options) {
		o.maxSize = n
	}
}

// WithClock replaces time.Now, used by tests to control the dedupe window
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithIDGenerator replaces the uuid generator for entry ids
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		o.newID = fn
	}
}

// Store owns the persisted search history. Every write is a full
// read-modify-write of the blob; concurrent writers are last-write-wins.
type Store struct {
	storage blob.Storage
	logger  *log.Logger
	opts    options

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// New creates a history store backed by storage
func New(storage blob.Storage, logger *log.Logger, opts ...Option) *Store {
	o := options{
		key:     DefaultKey,
		maxSize: DefaultMaxSize,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxSize <= 0 {
		o.maxSize = DefaultMaxSize
	}

	return &Store{
		storage:   storage,
		logger:    logger,
		opts:      o,
		listeners: make(map[int]Listener),
	}
}

// Key returns the storage key the history is persisted under
func (s *Store) Key() string {
	return s.opts.key
}

// Now returns the store's current time
func (s *Store) Now() time.Time {
	return s.opts.now()
}

func (s *Store) empty() types.SearchHistory {
	return types.SearchHistory{Queries: []types.SearchQuery{}, MaxSize: s.opts.maxSize}
}

// Load returns the persisted history. It never fails: missing, unreadable
// or corrupt data yields an empty history.
func (s *Store) Load(ctx context.Context) types.SearchHistory {
	data, ok, err := s.storage.Get(ctx, s.opts.key)
	if err != nil {
		s.logger.Warn("Failed to read search history", "key", s.opts.key, "error", err)
		return s.empty()
	}
	if !ok {
		return s.empty()
	}

	var h types.SearchHistory
	if err := json.Unmarshal(data, &h); err != nil {
		s.logger.Warn("Failed to parse search history, starting empty", "key", s.opts.key, "error", err)
		return s.empty()
	}
	if h.Queries == nil {
		h.Queries = []types.SearchQuery{}
	}
	if h.MaxSize <= 0 {
		h.MaxSize = s.opts.maxSize
	}
	return h
}

// Save persists the full history snapshot and notifies listeners
func (s *Store) Save(ctx context.Context, h types.SearchHistory) error {
	if h.Queries == nil {
		h.Queries = []types.SearchQuery{}
	}
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to encode search history: %w", err)
	}
	if err := s.storage.Set(ctx, s.opts.key, data); err != nil {
		s.logger.Error("Failed to save search history", "key", s.opts.key, "error", err)
		return fmt.Errorf("failed to save search history: %w", err)
	}

	s.notify(h)
	return nil
}

// Add records a search. Blank queries are ignored. A repeat of the same
// query (case-insensitive) within DedupeWindow updates the existing entry.
func (s *Store) Add(ctx context.Context, query string, queryType types.QueryType, resultsCount int, filters *types.SearchFilters) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	now := s.opts.now()
	h := s.Load(ctx)
	normalized := strings.ToLower(query)

	for i := range h.Queries {
		q := &h.Queries[i]
		if strings.ToLower(q.Query) != normalized {
			continue
		}
		if now.Sub(q.Timestamp) < DedupeWindow {
			q.ResultsCount = resultsCount
			q.Timestamp = now
			s.logger.Debug("Updated recent search", "query", query, "results", resultsCount)
			return s.Save(ctx, h)
		}
	}

	entry := types.SearchQuery{
		ID:           s.opts.newID(),
		Query:        query,
		Type:         queryType,
		Filters:      filters,
		ResultsCount: resultsCount,
		Timestamp:    now,
	}
	h.Queries = append([]types.SearchQuery{entry}, h.Queries...)
	if len(h.Queries) > h.MaxSize {
		h.Queries = h.Queries[:h.MaxSize]
	}

	s.logger.Debug("Recorded search", "query", query, "type", queryType, "results", resultsCount, "size", len(h.Queries))
	return s.Save(ctx, h)
}

// Remove deletes one entry by id; a missing id is not an error
func (s *Store) Remove(ctx context.Context, id string) error {
	h := s.Load(ctx)
	kept := h.Queries[:0:0]
	for _, q := range h.Queries {
		if q.ID != id {
			kept = append(kept, q)
		}
	}
	h.Queries = kept
	return s.Save(ctx, h)
}

// Clear empties the history, keeping its configured bound
func (s *Store) Clear(ctx context.Context) error {
	h := s.Load(ctx)
	h.Queries = []types.SearchQuery{}
	return s.Save(ctx, h)
}

// Recent returns up to limit of the newest entries
func (s *Store) Recent(ctx context.Context, limit int) []types.SearchQuery {
	h := s.Load(ctx)
	if limit < 0 {
		limit = 0
	}
	if len(h.Queries) > limit {
		return h.Queries[:limit]
	}
	return h.Queries
}

// Subscribe registers a listener for history changes and returns a function that removes it
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(h types.SearchHistory) {
	s.mu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(h)
	}
}
