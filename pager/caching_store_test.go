package pager

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore counts reads that reach the wrapped store.
type countingStore struct {
	*MemoryStore
	reads int
}

func (s *countingStore) Read(addr Addr) ([]byte, error) {
	s.reads++
	return s.MemoryStore.Read(addr)
}

func TestCachingStoreServesReadsFromCache(t *testing.T) {
	inner := &countingStore{MemoryStore: NewMemoryStore()}
	store, err := NewCachingStore(inner, 1<<20)
	require.NoError(t, err)
	defer store.Close()

	addr, err := store.Write([]byte("cached record"))
	require.NoError(t, err)
	store.Wait()

	for i := 0; i < 3; i++ {
		data, err := store.Read(addr)
		require.NoError(t, err)
		assert.Equal(t, "cached record", string(data))
	}
	assert.Equal(t, 0, inner.reads, "written records should be served from the cache")
}

func TestCachingStoreDeleteInvalidates(t *testing.T) {
	inner := NewMemoryStore()
	store, err := NewCachingStore(inner, 1<<20)
	require.NoError(t, err)
	defer store.Close()

	addr, err := store.Write([]byte("gone soon"))
	require.NoError(t, err)
	store.Wait()

	require.NoError(t, store.Delete(addr))
	_, err = store.Read(addr)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Same(t, inner, store.Unwrap())
}

func TestCachingStoreRejectsZeroSize(t *testing.T) {
	_, err := NewCachingStore(NewMemoryStore(), 0)
	assert.Error(t, err)
}
