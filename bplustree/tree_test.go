package bplus

import (
	"bytes"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"

	"StratumDB/pager"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kv struct {
	key, value []byte
}

func kvLess(a, b kv) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// TestRandomOperationsMatchOracle runs random inserts and removes against the
// tree and a google/btree, checkpointing and reloading along the way.
func TestRandomOperationsMatchOracle(t *testing.T) {
	configs := []struct{ bf, capacity int }{{3, 2}, {4, 3}, {5, 16}, {32, 500}}
	for _, cfg := range configs {
		rng := rand.New(rand.NewSource(int64(cfg.bf*1000 + cfg.capacity)))
		store := pager.NewMemoryStore()
		tree := newTestTree(t, store, cfg.bf, cfg.capacity)
		oracle := btree.NewG[kv](8, kvLess)

		for step := 0; step < 1500; step++ {
			k := ukey(rng.Intn(300))
			switch op := rng.Intn(10); {
			case op < 6:
				v := uval(step)
				require.NoError(t, tree.Insert(k, v))
				oracle.ReplaceOrInsert(kv{key: k, value: v})
			case op < 9:
				removed, err := tree.Remove(k)
				require.NoError(t, err)
				_, had := oracle.Delete(kv{key: k})
				require.Equal(t, had, removed, "remove of %x", k)
			default:
				v, ok, err := tree.Lookup(k)
				require.NoError(t, err)
				want, had := oracle.Get(kv{key: k})
				require.Equal(t, had, ok)
				if had {
					require.Equal(t, want.value, v)
				}
			}

			if step%250 == 249 {
				_, err := tree.Checkpoint()
				require.NoError(t, err)
				tree, err = Open(store, Options{RetentionQueueCapacity: cfg.capacity})
				require.NoError(t, err)
			}
		}

		checkTree(t, tree)
		require.Equal(t, int64(oracle.Len()), tree.Len())
		keys, values := scan(t, tree)
		i := 0
		oracle.Ascend(func(item kv) bool {
			require.Equal(t, item.key, keys[i])
			require.Equal(t, item.value, values[i])
			i++
			return true
		})
		require.Equal(t, len(keys), i)
	}
}

func TestRemoveAllCollapsesRoot(t *testing.T) {
	store := pager.NewMemoryStore()
	tree := newTestTree(t, store, 3, 4)
	for i := 0; i < 40; i++ {
		require.NoError(t, tree.Insert(ukey(i), uval(i)))
	}
	require.Greater(t, tree.Height(), 2)

	for i := 39; i >= 0; i-- {
		ok, err := tree.Remove(ukey(i))
		require.NoError(t, err)
		require.True(t, ok)
	}
	checkTree(t, tree)
	assert.Equal(t, int64(0), tree.Len())
	assert.Equal(t, 1, tree.Height())

	ok, err := tree.Remove(ukey(7))
	require.NoError(t, err)
	assert.False(t, ok)

	keys, _ := scan(t, tree)
	assert.Empty(t, keys)
}

func TestRemoveAbsentKeyCopiesNothing(t *testing.T) {
	store := pager.NewMemoryStore()
	tree := newTestTree(t, store, 4, 64)
	for i := 0; i < 10; i++ {
		require.NoError(t, tree.Insert(ukey(i*2), uval(i)))
	}
	_, err := tree.Checkpoint()
	require.NoError(t, err)

	ok, err := tree.Remove(ukey(5))
	require.NoError(t, err)
	assert.False(t, ok)

	stats := tree.Stats()
	assert.Equal(t, 0, stats.PendingFrees)
	tree.mu.Lock()
	assert.False(t, tree.rootNode().IsDirty())
	tree.mu.Unlock()
}

func TestIteratorRange(t *testing.T) {
	tree := newTestTree(t, pager.NewMemoryStore(), 4, 3)
	for i := 0; i < 50; i++ {
		require.NoError(t, tree.Insert(ukey(i), uval(i)))
	}

	it, err := tree.Iterator(ukey(10), ukey(20))
	require.NoError(t, err)
	var got []int
	for it.Next() {
		got = append(got, int(it.Key()[7]))
		assert.Equal(t, uval(int(it.Key()[7])), it.Value())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []int{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}, got)

	// from between keys, open end
	require.NoError(t, tree.Insert(ukey(100), uval(100)))
	_, err = tree.Remove(ukey(45))
	require.NoError(t, err)
	it, err = tree.Iterator(ukey(44), nil)
	require.NoError(t, err)
	got = got[:0]
	for it.Next() {
		got = append(got, int(it.Key()[7]))
	}
	assert.Equal(t, []int{44, 46, 47, 48, 49, 100}, got)
}

func TestIteratorInvalidatedByMutation(t *testing.T) {
	tree := newTestTree(t, pager.NewMemoryStore(), 4, 8)
	for i := 0; i < 10; i++ {
		require.NoError(t, tree.Insert(ukey(i), uval(i)))
	}
	it, err := tree.Iterator(nil, nil)
	require.NoError(t, err)
	require.True(t, it.Next())

	require.NoError(t, tree.Insert(ukey(99), uval(99)))
	assert.False(t, it.Next())
	assert.True(t, errors.Is(it.Err(), ErrIterator))
}

func TestLoadOlderCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.stratum")
	store, err := pager.OpenFileStore(path, pager.FileStoreOptions{})
	require.NoError(t, err)
	tree := newTestTree(t, store, 4, 4)

	for i := 0; i < 10; i++ {
		require.NoError(t, tree.Insert(ukey(i), uval(i)))
	}
	first, err := tree.Checkpoint()
	require.NoError(t, err)
	for i := 10; i < 20; i++ {
		require.NoError(t, tree.Insert(ukey(i), uval(i)))
	}
	second, err := tree.Checkpoint()
	require.NoError(t, err)
	require.NotEqual(t, first, second)
	assert.Equal(t, second, tree.Stats().Checkpoint)
	require.NoError(t, store.Close())

	// the file store keeps superseded records, so the first checkpoint is
	// still readable
	store, err = pager.OpenFileStore(path, pager.FileStoreOptions{ReadOnly: true})
	require.NoError(t, err)
	defer store.Close()

	old, err := Load(store, first, Options{ReadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(10), old.Len())
	_, ok, err := old.Lookup(ukey(15))
	require.NoError(t, err)
	assert.False(t, ok)

	latest, err := Open(store, Options{ReadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(20), latest.Len())
	checkTree(t, latest)

	_, err = Load(store, pager.Addr(12345), Options{ReadOnly: true})
	assert.Error(t, err)
}

func TestOpenEmptyStore(t *testing.T) {
	_, err := Open(pager.NewMemoryStore(), Options{ReadOnly: true})
	assert.True(t, errors.Is(err, ErrNoCheckpoint))

	tree, err := Open(pager.NewMemoryStore(), Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), tree.Len())
	assert.Equal(t, DefaultBranchingFactor, tree.BranchingFactor())

	_, err = Create(pager.NewMemoryStore(), Options{BranchingFactor: 2})
	assert.Error(t, err)
	_, err = Create(pager.NewMemoryStore(), Options{RetentionQueueCapacity: 1})
	assert.Error(t, err)
}

func TestCompressedFileBackedTree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snappy.stratum")
	file, err := pager.OpenFileStore(path, pager.FileStoreOptions{SyncOnCommit: true})
	require.NoError(t, err)
	store, err := pager.NewCachingStore(file, 1<<20)
	require.NoError(t, err)

	opts := Options{BranchingFactor: 16, RetentionQueueCapacity: 8, Codec: NewSnappyCodec(nil)}
	tree, err := Create(store, opts)
	require.NoError(t, err)
	for i := 0; i < 500; i++ {
		require.NoError(t, tree.Insert(ukey(i), bytes.Repeat([]byte{'x'}, 64)))
	}
	_, err = tree.Checkpoint()
	require.NoError(t, err)
	require.NoError(t, store.Close())

	file, err = pager.OpenFileStore(path, pager.FileStoreOptions{ReadOnly: true})
	require.NoError(t, err)
	defer file.Close()
	opts.ReadOnly = true
	ro, err := Open(file, opts)
	require.NoError(t, err)
	assert.Equal(t, int64(500), ro.Len())
	v, ok, err := ro.Lookup(ukey(321))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, v, 64)
}

func TestConcurrentReadOnlyLookups(t *testing.T) {
	store := pager.NewMemoryStore()
	tree := newTestTree(t, store, 4, 16)
	for i := 0; i < 300; i++ {
		require.NoError(t, tree.Insert(ukey(i), uval(i)))
	}
	_, err := tree.Checkpoint()
	require.NoError(t, err)

	ro, err := Open(store, Options{ReadOnly: true, RetentionQueueCapacity: 8})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := g; i < 300; i += 3 {
				v, ok, err := ro.Lookup(ukey(i))
				if err == nil && (!ok || !bytes.Equal(v, uval(i))) {
					err = errors.Newf("bad result for key %d", i)
				}
				if err != nil {
					errs <- err
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	checkTree(t, ro)
}

func TestMetricsCountWriteBack(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg, "test")
	require.NoError(t, err)

	tree, err := Create(pager.NewMemoryStore(), Options{BranchingFactor: 4, RetentionQueueCapacity: 2, Metrics: metrics})
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		require.NoError(t, tree.Insert(ukey(i), uval(i)))
	}
	_, err = tree.Checkpoint()
	require.NoError(t, err)

	assert.Greater(t, testutil.ToFloat64(metrics.LeavesWritten), 0.0)
	assert.Greater(t, testutil.ToFloat64(metrics.NodesWritten), 0.0)
	assert.Greater(t, testutil.ToFloat64(metrics.BytesWritten), 0.0)
	assert.Greater(t, testutil.ToFloat64(metrics.Evictions), 0.0)
	assert.Greater(t, testutil.ToFloat64(metrics.NodesRead), 0.0)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WriteBackFailures))
	assert.Equal(t, float64(tree.Stats().RetentionQueueLen), testutil.ToFloat64(metrics.RetentionQueueLen))

	// registering the same index twice fails
	_, err = NewMetrics(reg, "test")
	assert.Error(t, err)
}
