// Package keyed provides a mutex-guarded collection of records identified by a key.
//
// Store backs every registry in the core: both sides of a deep order book,
// portfolio assets and positions, and the trader order registry.
package keyed

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInvalidRecord is returned when a record fails structural validation.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrDuplicateKey is returned by Insert when the key is already present.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Option configures a Store.
type Option[V any] func(*options[V])

type options[V any] struct {
	validate func(V) error
	clone    func(V) V
}

// WithValidator rejects records for which fn returns an error.
// The error is wrapped with ErrInvalidRecord.
func WithValidator[V any](fn func(V) error) Option[V] {
	return func(o *options[V]) { o.validate = fn }
}

// WithClone sets the copy applied to records entering and leaving the store.
// Needed when V holds slices or maps that callers must not share.
func WithClone[V any](fn func(V) V) Option[V] {
	return func(o *options[V]) { o.clone = fn }
}

// Store holds records in insertion order under a single exclusive lock.
// Every method holds the lock for its whole duration; reads return copies.
type Store[K comparable, V any] struct {
	mu    sync.Mutex
	rows  []V
	index map[K]int // key -> position in rows

	keyOf func(V) K
	opts  options[V]
}

// New creates an empty store. keyOf extracts the identifying key of a record.
func New[K comparable, V any](keyOf func(V) K, opts ...Option[V]) *Store[K, V] {
	s := &Store[K, V]{
		index: make(map[K]int),
		keyOf: keyOf,
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	return s
}

func (s *Store[K, V]) check(v V) error {
	if s.opts.validate == nil {
		return nil
	}
	if err := s.opts.validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}

func (s *Store[K, V]) copyOf(v V) V {
	if s.opts.clone == nil {
		return v
	}
	return s.opts.clone(v)
}

// Upsert overwrites the record with the same key, or appends it when absent.
// An overwritten record keeps its insertion position.
func (s *Store[K, V]) Upsert(v V) error {
	if err := s.check(v); err != nil {
		return err
	}
	v = s.copyOf(v)
	k := s.keyOf(v)

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[k]; ok {
		s.rows[i] = v
		return nil
	}
	s.index[k] = len(s.rows)
	s.rows = append(s.rows, v)
	return nil
}

// Insert appends v and fails with ErrDuplicateKey if the key already exists.
func (s *Store[K, V]) Insert(v V) error {
	if err := s.check(v); err != nil {
		return err
	}
	v = s.copyOf(v)
	k := s.keyOf(v)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[k]; ok {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, k)
	}
	s.index[k] = len(s.rows)
	s.rows = append(s.rows, v)
	return nil
}

// Update applies fn to the stored record with the given key while holding the lock.
// Returns false when the key is absent. The mutated record is validated and
// must keep its key; otherwise the store is left untouched.
func (s *Store[K, V]) Update(key K, fn func(*V)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[key]
	if !ok {
		return false, nil
	}
	v := s.copyOf(s.rows[i])
	fn(&v)
	if s.keyOf(v) != key {
		return true, fmt.Errorf("%w: key changed from %v to %v", ErrInvalidRecord, key, s.keyOf(v))
	}
	if err := s.check(v); err != nil {
		return true, err
	}
	s.rows[i] = v
	return true, nil
}

// Get returns a copy of the record with the given key.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return s.copyOf(s.rows[i]), true
}

// GetBy returns a copy of the first record, in insertion order, matching pred.
func (s *Store[K, V]) GetBy(pred func(V) bool) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range s.rows {
		if pred(v) {
			return s.copyOf(v), true
		}
	}
	var zero V
	return zero, false
}

// GetAll returns copies of every record matching pred in insertion order.
// A nil pred matches everything. The result is never nil.
func (s *Store[K, V]) GetAll(pred func(V) bool) []V {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]V, 0, len(s.rows))
	for _, v := range s.rows {
		if pred == nil || pred(v) {
			out = append(out, s.copyOf(v))
		}
	}
	return out
}

// Contains reports whether a record with the given key exists.
func (s *Store[K, V]) Contains(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[key]
	return ok
}

// Len returns the number of records.
func (s *Store[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Remove deletes the record with the given key. Removing an absent key is a no-op.
func (s *Store[K, V]) Remove(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[key]
	if !ok {
		return false
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	delete(s.index, key)
	// shift positions of everything after the removed row
	for j := i; j < len(s.rows); j++ {
		s.index[s.keyOf(s.rows[j])] = j
	}
	return true
}

// Clear removes every record.
func (s *Store[K, V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	s.index = make(map[K]int)
}

// Replace swaps the whole collection for vs in one step.
// Later duplicates of a key overwrite earlier ones. Nothing changes if any record is invalid.
func (s *Store[K, V]) Replace(vs []V) error {
	rows := make([]V, 0, len(vs))
	index := make(map[K]int, len(vs))
	for _, v := range vs {
		if err := s.check(v); err != nil {
			return err
		}
		v = s.copyOf(v)
		k := s.keyOf(v)
		if i, ok := index[k]; ok {
			rows[i] = v
			continue
		}
		index[k] = len(rows)
		rows = append(rows, v)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	s.index = index
	return nil
}
