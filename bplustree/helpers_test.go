package bplus

import (
	"encoding/binary"
	"fmt"
	"testing"

	"StratumDB/pager"

	"github.com/stretchr/testify/require"
)

func ukey(i int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(i))
	return b
}

func uval(i int) []byte {
	return []byte(fmt.Sprintf("value-%d", i))
}

// faultyStore fails every write from the failAt-th on (1-based, 0 = never).
type faultyStore struct {
	*pager.MemoryStore
	failAt int
	calls  int
	err    error
}

func newFaultyStore(failAt int, err error) *faultyStore {
	return &faultyStore{MemoryStore: pager.NewMemoryStore(), failAt: failAt, err: err}
}

func (s *faultyStore) Write(data []byte) (pager.Addr, error) {
	s.calls++
	if s.failAt > 0 && s.calls >= s.failAt {
		return pager.NullAddr, s.err
	}
	return s.MemoryStore.Write(data)
}

func newTestTree(t *testing.T, store pager.Store, bf, capacity int) *BPlusTree {
	t.Helper()
	tree, err := Create(store, Options{BranchingFactor: bf, RetentionQueueCapacity: capacity})
	require.NoError(t, err)
	return tree
}

// resolve returns child i of n without registering or touching anything.
func (tree *BPlusTree) resolve(n *Node, i int) (*Node, error) {
	if c := tree.arena.get(n.children[i].handle); c != nil {
		return c, nil
	}
	return tree.readNode(n.children[i].addr)
}

// walk visits every node of the tree depth first. Callers hold tree.mu.
func (tree *BPlusTree) walk(fn func(n, parent *Node, depth int) error) error {
	type item struct {
		node, parent *Node
		depth        int
	}
	stack := []item{{node: tree.rootNode(), depth: 1}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := fn(it.node, it.parent, it.depth); err != nil {
			return err
		}
		for i := len(it.node.children) - 1; i >= 0; i-- {
			c, err := tree.resolve(it.node, i)
			if err != nil {
				return err
			}
			stack = append(stack, item{node: c, parent: it.node, depth: it.depth + 1})
		}
	}
	return nil
}

// checkTree verifies the structure and bookkeeping of tree.
func checkTree(t *testing.T, tree *BPlusTree) {
	t.Helper()
	tree.mu.Lock()
	defer tree.mu.Unlock()

	var entries int64
	var prev []byte
	err := tree.walk(func(n, parent *Node, depth int) error {
		if err := checkNode(n, tree.cmp); err != nil {
			return err
		}
		require.False(t, n.deleted, "deleted node reachable from the root")
		if parent != nil {
			slot := -1
			for i, ref := range parent.children {
				if (!ref.handle.IsNil() && ref.handle == n.handle) || (ref.addr != pager.NullAddr && ref.addr == n.identity) {
					slot = i
				}
			}
			require.GreaterOrEqual(t, slot, 0, "child missing from its parent")
			if n.dirty {
				require.True(t, parent.dirty, "dirty node under a clean parent")
				require.Equal(t, pager.NullAddr, parent.children[slot].addr)
			} else if tree.store != nil {
				require.Equal(t, n.identity, parent.children[slot].addr)
			}
		}
		if n.IsLeaf() {
			require.Equal(t, tree.height, depth, "leaves at different depths")
			for _, k := range n.keys {
				if prev != nil {
					require.Less(t, tree.cmp(prev, k), 0, "keys out of order")
				}
				prev = k
			}
			entries += int64(len(n.keys))
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, tree.entries, entries)

	refs, distinct := 0, 0
	for _, s := range tree.arena.slots {
		if s.node == nil {
			continue
		}
		require.GreaterOrEqual(t, s.node.refCount, 0)
		refs += s.node.refCount
		if s.node.refCount > 0 {
			distinct++
		}
	}
	require.Equal(t, tree.queue.len(), refs, "reference counts do not match the queue")
	require.Equal(t, distinct, tree.ndistinctOnQueue)
}

// scan returns all pairs in key order.
func scan(t *testing.T, tree *BPlusTree) (keys, values [][]byte) {
	t.Helper()
	it, err := tree.Iterator(nil, nil)
	require.NoError(t, err)
	for it.Next() {
		keys = append(keys, it.Key())
		values = append(values, it.Value())
	}
	require.NoError(t, it.Err())
	return keys, values
}
