// Package store holds the current snapshot per dataset and swaps in new
// ones atomically. Readers always get a complete snapshot, a publish in
// progress is invisible to them.
package store

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/tradeops/masterdata/internal/domain/masterdata"
)

// Info describes a dataset's snapshot state for status queries
type Info struct {
	DatasetKey   string                    `json:"dataset_key"`
	Version      uint64                    `json:"version"`
	Status       masterdata.SnapshotStatus `json:"status,omitempty"`
	Fingerprint  string                    `json:"fingerprint,omitempty"`
	LoadedAt     time.Time                 `json:"loaded_at"`
	ValidCount   int                       `json:"valid_count"`
	InvalidCount int                       `json:"invalid_count"`
	NeverLoaded  bool                      `json:"never_loaded"`
	HasPrevious  bool                      `json:"has_previous"`
}

// Stats reports store usage counters
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Publishes int64 `json:"publishes"`
	Rollbacks int64 `json:"rollbacks"`
}

// entry holds the at most two generations kept per dataset. version is the
// last issued version number and only ever grows, including across
// rollbacks.
type entry struct {
	mu       sync.RWMutex
	current  *masterdata.Snapshot
	previous *masterdata.Snapshot
	version  uint64
}

// Store keeps the current and previous snapshot per dataset. The dataset
// set is fixed at construction, so lookups into the entry map never race
// with writes to it.
type Store struct {
	entries map[string]*entry
	logger  *zap.Logger

	hits      int64
	misses    int64
	publishes int64
	rollbacks int64
}

var _ masterdata.SnapshotReader = (*Store)(nil)

// New creates a store for the given dataset keys
func New(keys []string, logger *zap.Logger) *Store {
	entries := make(map[string]*entry, len(keys))
	for _, k := range keys {
		entries[k] = &entry{}
	}
	return &Store{entries: entries, logger: logger}
}

// Read returns the current snapshot for the dataset. Snapshots are shared
// between all readers and must be treated as read-only.
func (s *Store) Read(key string) (*masterdata.Snapshot, error) {
	e, ok := s.entries[key]
	if !ok {
		atomic.AddInt64(&s.misses, 1)
		return nil, masterdata.ErrDatasetNotFound
	}

	e.mu.RLock()
	snap := e.current
	e.mu.RUnlock()

	if snap == nil {
		atomic.AddInt64(&s.misses, 1)
		return nil, masterdata.ErrNeverLoaded
	}
	atomic.AddInt64(&s.hits, 1)
	return snap, nil
}

// Publish makes candidate the current snapshot, stamping it with the next
// version number. The prior current snapshot is demoted to previous, and
// whatever was previous before that is dropped. A candidate with no valid
// records is refused, readers are never handed an empty snapshot.
func (s *Store) Publish(key string, candidate *masterdata.Snapshot) (*masterdata.Snapshot, error) {
	e, ok := s.entries[key]
	if !ok {
		return nil, masterdata.ErrDatasetNotFound
	}
	if candidate == nil || candidate.ValidCount() == 0 {
		return nil, masterdata.ErrEmptySnapshot
	}
	if candidate.DatasetKey != key {
		return nil, fmt.Errorf("snapshot for dataset %q published under key %q", candidate.DatasetKey, key)
	}

	e.mu.Lock()
	e.version++
	published := *candidate
	published.Version = e.version
	e.previous = e.current
	e.current = &published
	e.mu.Unlock()

	atomic.AddInt64(&s.publishes, 1)
	s.logger.Info("snapshot published",
		zap.String("dataset", key),
		zap.Uint64("version", published.Version),
		zap.String("status", string(published.Status)),
		zap.Int("valid", published.ValidCount()),
		zap.Int("invalid", published.InvalidCount()),
	)
	return &published, nil
}

// Rollback promotes the previous snapshot back to current. The restored
// snapshot gets a fresh version number so reads stay monotonic, and the
// previous slot is cleared: rollback reaches one generation back, not two.
func (s *Store) Rollback(key string) (*masterdata.Snapshot, error) {
	e, ok := s.entries[key]
	if !ok {
		return nil, masterdata.ErrDatasetNotFound
	}

	e.mu.Lock()
	if e.previous == nil {
		e.mu.Unlock()
		return nil, masterdata.ErrNoPrevious
	}
	e.version++
	restored := *e.previous
	restored.Version = e.version
	e.current = &restored
	e.previous = nil
	e.mu.Unlock()

	atomic.AddInt64(&s.rollbacks, 1)
	s.logger.Warn("snapshot rolled back",
		zap.String("dataset", key),
		zap.Uint64("version", restored.Version),
		zap.String("fingerprint", restored.Fingerprint),
	)
	return &restored, nil
}

// Info returns snapshot metadata for the dataset
func (s *Store) Info(key string) (Info, error) {
	e, ok := s.entries[key]
	if !ok {
		return Info{}, masterdata.ErrDatasetNotFound
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	info := Info{DatasetKey: key, Version: e.version}
	if e.current == nil {
		info.NeverLoaded = true
		return info, nil
	}
	info.Version = e.current.Version
	info.Status = e.current.Status
	info.Fingerprint = e.current.Fingerprint
	info.LoadedAt = e.current.LoadedAt
	info.ValidCount = e.current.ValidCount()
	info.InvalidCount = e.current.InvalidCount()
	info.HasPrevious = e.previous != nil
	return info, nil
}

// Keys returns the tracked dataset keys in sorted order
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stats returns usage counters
func (s *Store) Stats() Stats {
	return Stats{
		Hits:      atomic.LoadInt64(&s.hits),
		Misses:    atomic.LoadInt64(&s.misses),
		Publishes: atomic.LoadInt64(&s.publishes),
		Rollbacks: atomic.LoadInt64(&s.rollbacks),
	}
}
