package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// MemoryStore keeps objects in process memory. It backs the "memory"
// storage driver for local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[Bucket]map[string]memoryObject
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: map[Bucket]map[string]memoryObject{
			Originals: {},
			Variants:  {},
		},
		now: time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, bucket Bucket, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket][key] = memoryObject{
		data:        slices.Clone(data),
		contentType: contentType,
		modified:    s.now(),
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, bucket Bucket, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[bucket][key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return slices.Clone(obj.data), nil
}

func (s *MemoryStore) Remove(_ context.Context, bucket Bucket, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.objects[bucket], key)
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context, bucket Bucket, prefix string) ([]ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ObjectInfo
	for key, obj := range s.objects[bucket] {
		if strings.HasPrefix(key, prefix) {
			out = append(out, ObjectInfo{Key: key, LastModified: obj.modified})
		}
	}
	slices.SortFunc(out, func(a, b ObjectInfo) int { return strings.Compare(a.Key, b.Key) })
	return out, nil
}

func (s *MemoryStore) URL(bucket Bucket, key string) string {
	return fmt.Sprintf("memory://%s/%s", bucket, key)
}

func (s *MemoryStore) PresignedURL(_ context.Context, bucket Bucket, key string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("%s?expires=%d", s.URL(bucket, key), s.now().Add(expiry).Unix()), nil
}

// Has reports whether key is stored in bucket.
func (s *MemoryStore) Has(bucket Bucket, key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[bucket][key]
	return ok
}

// Len returns the number of objects in bucket.
func (s *MemoryStore) Len(bucket Bucket) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects[bucket])
}
