package data

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"
)

type leaseEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryLeaseStore implements core.LeaseStore for single-instance deployments.
type MemoryLeaseStore struct {
	mu           sync.Mutex
	entries      map[string]leaseEntry
	timeProvider TimeProvider
}

// NewMemoryLeaseStore creates an empty in-process lease store.
func NewMemoryLeaseStore(tp TimeProvider) *MemoryLeaseStore {
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &MemoryLeaseStore{entries: make(map[string]leaseEntry), timeProvider: tp}
}

// SetIfNotExists sets key unless a live entry already holds it.
func (s *MemoryLeaseStore) SetIfNotExists(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}
	if ttl <= 0 {
		ttl = time.Second // Minimum TTL of 1 second
	}
	now := s.timeProvider.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	s.entries[key] = leaseEntry{value: bytes.Clone(value), expiresAt: now.Add(ttl)}
	return true, nil
}

// DeleteIfEquals removes key only while it still holds value.
func (s *MemoryLeaseStore) DeleteIfEquals(_ context.Context, key string, value []byte) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || !bytes.Equal(e.value, value) {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

// Health always succeeds.
func (s *MemoryLeaseStore) Health(context.Context) error { return nil }
