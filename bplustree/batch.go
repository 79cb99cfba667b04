package bplus

import (
	"context"

	"github.com/alitto/pond/v2"
	"github.com/cockroachdb/errors"
)

// Index is the read side of a tree used by batch procedures.
type Index interface {
	Lookup(key []byte) ([]byte, bool, error)
}

// ResultBuffer holds one result per key, in key order. Found[i] is false for
// an absent key, whose value is nil.
type ResultBuffer struct {
	Values [][]byte
	Found  []bool
}

func newResultBuffer(n int) *ResultBuffer {
	return &ResultBuffer{
		Values: make([][]byte, n),
		Found:  make([]bool, n),
	}
}

func (r *ResultBuffer) Len() int {
	return len(r.Values)
}

// BatchLookup looks up Keys[FromIndex:ToIndex].
type BatchLookup struct {
	FromIndex int
	ToIndex   int
	Keys      [][]byte
}

func NewBatchLookup(fromIndex, toIndex int, keys [][]byte) (*BatchLookup, error) {
	if fromIndex < 0 || toIndex < fromIndex || toIndex > len(keys) {
		return nil, errors.Newf("bad key range [%d, %d) of %d keys", fromIndex, toIndex, len(keys))
	}
	return &BatchLookup{FromIndex: fromIndex, ToIndex: toIndex, Keys: keys}, nil
}

// IsReadOnly is always true: a batch lookup never mutates the index.
func (p *BatchLookup) IsReadOnly() bool {
	return true
}

// Apply runs one point lookup per key through ndx.
func (p *BatchLookup) Apply(ndx Index) (*ResultBuffer, error) {
	res := newResultBuffer(p.ToIndex - p.FromIndex)
	for i := p.FromIndex; i < p.ToIndex; i++ {
		v, ok, err := ndx.Lookup(p.Keys[i])
		if err != nil {
			return nil, errors.Wrapf(err, "lookup of key %d", i)
		}
		res.Values[i-p.FromIndex] = v
		res.Found[i-p.FromIndex] = ok
	}
	return res, nil
}

// BatchLookup looks up every key in order.
func (t *BPlusTree) BatchLookup(keys [][]byte) (*ResultBuffer, error) {
	p, err := NewBatchLookup(0, len(keys), keys)
	if err != nil {
		return nil, err
	}
	return p.Apply(t)
}

// ParallelBatchLookup splits keys into chunks of chunkSize and runs one
// BatchLookup per chunk on a pool of maxConcurrency workers. Results keep the
// input order.
func ParallelBatchLookup(ctx context.Context, ndx Index, keys [][]byte, chunkSize, maxConcurrency int) (*ResultBuffer, error) {
	if chunkSize <= 0 {
		return nil, errors.Newf("chunk size must be positive, got %d", chunkSize)
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	res := newResultBuffer(len(keys))
	if len(keys) == 0 {
		return res, nil
	}

	type chunk struct {
		offset int
		buf    *ResultBuffer
	}
	pool := pond.NewResultPool[chunk](maxConcurrency, pond.WithContext(ctx))
	defer pool.StopAndWait()

	group := pool.NewGroup()
	for from := 0; from < len(keys); from += chunkSize {
		to := min(from+chunkSize, len(keys))
		p, err := NewBatchLookup(from, to, keys)
		if err != nil {
			return nil, err
		}
		group.SubmitErr(func() (chunk, error) {
			if err := ctx.Err(); err != nil {
				return chunk{}, err
			}
			buf, err := p.Apply(ndx)
			return chunk{offset: p.FromIndex, buf: buf}, err
		})
	}
	chunks, err := group.Wait()
	if err != nil {
		return nil, errors.Wrap(err, "parallel batch lookup")
	}
	for _, c := range chunks {
		copy(res.Values[c.offset:], c.buf.Values)
		copy(res.Found[c.offset:], c.buf.Found)
	}
	return res, nil
}
