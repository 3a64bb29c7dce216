// Package selection holds the ephemeral per-interaction selection state
package selection

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
	mediaerrors "github.com/yourusername/media-fetch-bot/internal/domain/media/errors"
)

// slot wraps one selection entry with its own mutex so mutation is
// serialized per token, never across tokens.
type slot struct {
	mu    sync.Mutex
	entry *entities.SelectionEntry
}

// Store is the single authoritative map from interaction token to selection
// entry. Entries expire after a TTL (checked lazily on access) and the store
// evicts the least-recently-touched entry when at capacity.
type Store struct {
	mu        sync.Mutex
	cache     *lru.Cache[string, *slot]
	byContext map[entities.SelectionContext]string
	ttl       time.Duration
	logger    zerolog.Logger
}

// NewStore creates a selection store with the given capacity and entry TTL.
func NewStore(capacity int, ttl time.Duration, logger zerolog.Logger) (*Store, error) {
	s := &Store{
		byContext: make(map[entities.SelectionContext]string),
		ttl:       ttl,
		logger:    logger.With().Str("component", "selection_store").Logger(),
	}
	// The eviction callback runs synchronously inside cache mutations, which
	// all happen under s.mu, so it must not lock s.mu itself.
	cache, err := lru.NewWithEvict[string, *slot](capacity, func(token string, sl *slot) {
		if s.byContext[sl.entry.Context] == token {
			delete(s.byContext, sl.entry.Context)
		}
	})
	if err != nil {
		return nil, err
	}
	s.cache = cache
	return s, nil
}

// Open creates a new selection entry and returns its token. A fresh
// submission for a context that already has a live entry closes the prior
// entry first, so capacity eviction can never hit the replacement itself.
func (s *Store) Open(catalogEntry *entities.SelectionEntry) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.byContext[catalogEntry.Context]; ok {
		s.cache.Remove(prev)
		s.logger.Debug().Str("token", prev).Msg("replaced pending selection for context")
	}

	token := uuid.NewString()
	now := time.Now()
	catalogEntry.Token = token
	catalogEntry.CreatedAt = now
	catalogEntry.LastTouched = now

	s.cache.Add(token, &slot{entry: catalogEntry})
	s.byContext[catalogEntry.Context] = token
	return token
}

// Get returns the live entry for a token. Expired entries are removed on
// access and reported as expired; unknown, closed or evicted tokens are
// reported as not found.
func (s *Store) Get(token string) (*entities.SelectionEntry, error) {
	sl, err := s.lookup(token)
	if err != nil {
		return nil, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.entry, nil
}

// Update applies a mutation to the entry under its per-token lock.
// Concurrent updates on one token serialize, last applied wins.
func (s *Store) Update(token string, fn func(*entities.SelectionEntry)) error {
	sl, err := s.lookup(token)
	if err != nil {
		return err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	fn(sl.entry)
	sl.entry.LastTouched = time.Now()
	return nil
}

// BeginDelivery atomically marks the entry as delivering. A token whose
// delivery is already in flight is rejected as not found, so a second
// concurrent button press cannot start a second delivery.
func (s *Store) BeginDelivery(token string) (*entities.SelectionEntry, error) {
	sl, err := s.lookup(token)
	if err != nil {
		return nil, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.entry.Delivering {
		return nil, mediaerrors.ErrSelectionNotFound
	}
	sl.entry.Delivering = true
	sl.entry.LastTouched = time.Now()
	return sl.entry, nil
}

// Alive reports whether the token still maps to a live entry. Used by
// outcome handlers to discard results of abandoned deliveries.
func (s *Store) Alive(token string) bool {
	_, err := s.lookup(token)
	return err == nil
}

// Close retires a token. Subsequent Get calls fail with not found.
func (s *Store) Close(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(token)
}

// Len returns the number of live (possibly expired but unswept) entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

// Sweep removes expired entries eagerly. Lazy expiry on Get is authoritative;
// the sweep only bounds memory between accesses.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, token := range s.cache.Keys() {
		if sl, ok := s.cache.Peek(token); ok && s.expired(sl) {
			s.cache.Remove(token)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("swept expired selections")
	}
	return removed
}

// RunJanitor sweeps periodically until the context is canceled.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Store) lookup(token string) (*slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.cache.Get(token)
	if !ok {
		return nil, mediaerrors.ErrSelectionNotFound
	}
	if s.expired(sl) {
		s.cache.Remove(token)
		return nil, mediaerrors.ErrSelectionExpired
	}
	return sl, nil
}

func (s *Store) expired(sl *slot) bool {
	return time.Since(sl.entry.CreatedAt) > s.ttl
}
