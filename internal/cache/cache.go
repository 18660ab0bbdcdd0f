// Package cache is the in-memory store of fetched article batches keyed
// by (category, preference), with soft and hard expiry, a stampede lock
// per key and a single process-wide trending slot. State lives for the
// process lifetime only; durability across restarts is not a goal.
package cache

import (
	"sync"
	"time"

	"github.com/prismfeed/prism/internal/model"
)

// Entry is one cached article batch. Entries are replaced wholesale on
// refresh, never mutated in place; callers must treat Data as immutable.
type Entry struct {
	Data      []model.Article
	Timestamp time.Time
}

type trendingEntry struct {
	Topics     []model.Topic
	ComputedAt time.Time
}

// Stats is the operator-facing snapshot.
type Stats struct {
	Entries     int           `json:"entries"`
	Trending    bool          `json:"trending"`
	TrendingAge time.Duration `json:"trendingAge"`
}

type Store struct {
	mu       sync.RWMutex
	entries  map[string]Entry
	locks    map[string]time.Time
	trending *trendingEntry

	softTTL time.Duration
	hardTTL time.Duration

	now func() time.Time // injectable for tests
}

func New(softTTL, hardTTL time.Duration) *Store {
	return &Store{
		entries: make(map[string]Entry),
		locks:   make(map[string]time.Time),
		softTTL: softTTL,
		hardTTL: hardTTL,
		now:     time.Now,
	}
}

// Key builds the cache key for a category/preference pair.
func Key(category, preference string) string {
	return category + "|" + preference
}

// Get returns the cached batch and whether it is stale (past soft expiry
// but still servable). A miss or a hard-expired entry returns ok=false;
// hard expiry also evicts.
func (s *Store) Get(category, preference string) (data []model.Article, stale bool, ok bool) {
	key := Key(category, preference)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[key]
	if !exists {
		return nil, false, false
	}

	age := s.now().Sub(entry.Timestamp)
	if age > s.hardTTL {
		delete(s.entries, key)
		return nil, false, false
	}
	return entry.Data, age > s.softTTL, true
}

// Set overwrites the entry with a fresh timestamp. It never merges.
func (s *Store) Set(category string, articles []model.Article, preference string) {
	key := Key(category, preference)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = Entry{Data: articles, Timestamp: s.now()}
}

// AcquireLock records a refresh lock for key iff no unexpired lock is
// held. The lock self-expires after timeout even without release, so a
// crashed refresh cannot wedge the key.
func (s *Store) AcquireLock(key string, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acquiredAt, held := s.locks[key]; held {
		if s.now().Sub(acquiredAt) < timeout {
			return false
		}
	}
	s.locks[key] = s.now()
	return true
}

// ReleaseLock is idempotent.
func (s *Store) ReleaseLock(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, key)
}

// GetTrending returns the global trending slot and its age. ok is false
// when nothing has been computed yet.
func (s *Store) GetTrending() (topics []model.Topic, age time.Duration, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.trending == nil {
		return nil, 0, false
	}
	return s.trending.Topics, s.now().Sub(s.trending.ComputedAt), true
}

// SetTrending replaces the trending slot wholesale.
func (s *Store) SetTrending(topics []model.Topic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trending = &trendingEntry{Topics: topics, ComputedAt: s.now()}
}

// Clear wipes all entries, locks and the trending slot.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
	s.locks = make(map[string]time.Time)
	s.trending = nil
}

// Stats reports entry count and trending freshness.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Entries: len(s.entries)}
	if s.trending != nil {
		st.Trending = true
		st.TrendingAge = s.now().Sub(s.trending.ComputedAt)
	}
	return st
}
