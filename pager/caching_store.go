package pager

import (
	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/ristretto/v2"
)

// CachingStore puts a cost-bounded read cache in front of a Store. The cost
// of an entry is its size in bytes. Written records are cached as well, so
// a node evicted from the tree and read back soon after is served from memory.
type CachingStore struct {
	Store
	cache *ristretto.Cache[uint64, []byte]
}

// NewCachingStore wraps inner with a cache holding at most maxBytes of records.
func NewCachingStore(inner Store, maxBytes int64) (*CachingStore, error) {
	if maxBytes <= 0 {
		return nil, errors.Newf("cache size must be positive, got %d", maxBytes)
	}
	// roughly ten counters per record, assuming ~512 byte records
	counters := maxBytes / 512 * 10
	if counters < 1000 {
		counters = 1000
	}
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, []byte]{
		NumCounters: counters,
		MaxCost:     maxBytes,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create read cache")
	}
	return &CachingStore{Store: inner, cache: cache}, nil
}

func (s *CachingStore) Write(data []byte) (Addr, error) {
	addr, err := s.Store.Write(data)
	if err != nil {
		return addr, err
	}
	s.cache.Set(uint64(addr), data, int64(len(data)))
	return addr, nil
}

func (s *CachingStore) Read(addr Addr) ([]byte, error) {
	if data, ok := s.cache.Get(uint64(addr)); ok {
		return data, nil
	}
	data, err := s.Store.Read(addr)
	if err != nil {
		return nil, err
	}
	s.cache.Set(uint64(addr), data, int64(len(data)))
	return data, nil
}

func (s *CachingStore) Delete(addr Addr) error {
	s.cache.Del(uint64(addr))
	return s.Store.Delete(addr)
}

func (s *CachingStore) Close() error {
	s.cache.Close()
	return s.Store.Close()
}

// Wait blocks until buffered cache writes have been applied.
func (s *CachingStore) Wait() {
	s.cache.Wait()
}

// HitRatio reports the cache hit ratio since creation.
func (s *CachingStore) HitRatio() float64 {
	return s.cache.Metrics.Ratio()
}

// Unwrap returns the underlying store.
func (s *CachingStore) Unwrap() Store {
	return s.Store
}
