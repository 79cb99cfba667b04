package storageengine

import (
	"bytes"
	"context"

	bplus "StratumDB/bplustree"

	"github.com/cockroachdb/errors"
)

// Get returns a copy of the value stored under key.
func (se *StorageEngine) Get(key []byte) ([]byte, bool, error) {
	se.mu.RLock()
	defer se.mu.RUnlock()

	if err := se.requireOpen(); err != nil {
		return nil, false, err
	}
	v, ok, err := se.Tree.Lookup(key)
	if err != nil || !ok {
		return nil, false, err
	}
	return bytes.Clone(v), true, nil
}

// MultiGet looks up keys in parallel chunks. Results keep the order of keys.
func (se *StorageEngine) MultiGet(ctx context.Context, keys [][]byte) (*bplus.ResultBuffer, error) {
	se.mu.RLock()
	defer se.mu.RUnlock()

	if err := se.requireOpen(); err != nil {
		return nil, err
	}
	chunk := se.cfg.Index.ParallelLookupChunk
	if chunk <= 0 {
		chunk = len(keys)
	}
	if chunk == 0 {
		chunk = 1
	}
	res, err := bplus.ParallelBatchLookup(ctx, se.Tree, keys, chunk, se.cfg.Index.ParallelLookupWorkers)
	if err != nil {
		return nil, err
	}
	for i, v := range res.Values {
		if v != nil {
			res.Values[i] = bytes.Clone(v)
		}
	}
	return res, nil
}

// Scan returns the entries in [from, to), at most limit of them when limit
// is positive.
func (se *StorageEngine) Scan(from, to []byte, limit int) ([]KV, error) {
	se.mu.RLock()
	defer se.mu.RUnlock()

	if err := se.requireOpen(); err != nil {
		return nil, err
	}
	it, err := se.Tree.Iterator(from, to)
	if err != nil {
		return nil, errors.Wrap(err, "scan")
	}

	var result []KV
	for it.Next() {
		result = append(result, KV{
			Key:   bytes.Clone(it.Key()),
			Value: bytes.Clone(it.Value()),
		})
		if limit > 0 && len(result) == limit {
			break
		}
	}
	if err := it.Err(); err != nil {
		return nil, errors.Wrap(err, "scan")
	}
	return result, nil
}
