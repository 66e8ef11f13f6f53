package blobstore

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and dry-run tooling. It mirrors
// the durable backends' semantics, including last-writer-wins on Set.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob

	// FailSets, when positive, makes that many subsequent Set calls fail.
	// Used to exercise store-unavailability paths.
	failSets int
}

type memoryBlob struct {
	value     json.RawMessage
	metadata  map[string]string
	updatedAt time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string]memoryBlob)}
}

// FailNextSets arranges for the next n Set calls to return ErrUnavailable.
func (s *Memory) FailNextSets(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSets = n
}

func (s *Memory) Get(ctx context.Context, key string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	if !ok {
		return nil, nil
	}
	cp := make(json.RawMessage, len(blob.value))
	copy(cp, blob.value)
	return cp, nil
}

func (s *Memory) Head(ctx context.Context, key string) (*ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	if !ok {
		return nil, nil
	}
	meta := make(map[string]string, len(blob.metadata))
	for k, v := range blob.metadata {
		meta[k] = v
	}
	return &ObjectInfo{Key: key, Metadata: meta, UpdatedAt: blob.updatedAt}, nil
}

func (s *Memory) Set(ctx context.Context, key string, value json.RawMessage, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSets > 0 {
		s.failSets--
		return ErrUnavailable
	}
	cp := make(json.RawMessage, len(value))
	copy(cp, value)
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	s.blobs[key] = memoryBlob{value: cp, metadata: meta, updatedAt: time.Now().UTC()}
	return nil
}

func (s *Memory) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for key := range s.blobs {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Memory) Close() error { return nil }
