package store

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-formsync/internal/snapshot"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store implementation for tests, examples and
// single-process embedding. Records are deep-copied on the way in and out.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	records map[string]memoryRecord[T]
	now     func() time.Time
}

type memoryRecord[T any] struct {
	record T
	meta   Meta
}

var (
	_ Store[any]   = (*MemoryStore[any])(nil)
	_ Creator[any] = (*MemoryStore[any])(nil)
)

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{records: map[string]memoryRecord[T]{}, now: time.Now}
}

func (s *MemoryStore[T]) Load(_ context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	key, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}

	s.mu.RLock()
	rec, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return zero, Meta{}, false, nil
	}
	return snapshot.Clone(rec.record), cloneMeta(rec.meta), true, nil
}

func (s *MemoryStore[T]) Save(_ context.Context, ref Ref, record T, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	stamped := stampMeta(meta, s.now)
	s.mu.Lock()
	s.records[key] = memoryRecord[T]{record: snapshot.Clone(record), meta: stamped}
	s.mu.Unlock()
	return cloneMeta(stamped), nil
}

func (s *MemoryStore[T]) Create(_ context.Context, ref Ref, record T, meta Meta) (bool, Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return false, Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[key]; ok {
		return false, cloneMeta(existing.meta), nil
	}
	stamped := stampMeta(meta, s.now)
	s.records[key] = memoryRecord[T]{record: snapshot.Clone(record), meta: stamped}
	return true, cloneMeta(stamped), nil
}

// Len returns the number of records held across all namespaces.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// stampMeta assigns a fresh snapshot id, etag and timestamp unless the caller
// supplied them.
func stampMeta(meta Meta, now func() time.Time) Meta {
	out := cloneMeta(meta)
	if out.SnapshotID == "" {
		out.SnapshotID = uuid.NewString()
	}
	if out.ETag == "" {
		out.ETag = out.SnapshotID
	}
	if out.UpdatedAt.IsZero() {
		if now == nil {
			now = time.Now
		}
		out.UpdatedAt = now().UTC()
	}
	return out
}
