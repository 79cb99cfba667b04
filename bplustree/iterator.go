package bplus

import "github.com/cockroachdb/errors"

type cursorFrame struct {
	node *Node
	idx  int // next key of a leaf, next child of an internal node
}

// Iterator provides a forward-only range scan in key order. It is
// invalidated by any mutation of the tree.
type Iterator struct {
	tree    *BPlusTree
	stack   []cursorFrame
	to      []byte
	version uint64
	key     []byte
	value   []byte
	err     error
	done    bool
}

// Iterator returns an iterator over keys in [from, to). A nil from starts at
// the first key and a nil to runs to the end.
func (t *BPlusTree) Iterator(from, to []byte) (*Iterator, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.err != nil {
		return nil, t.poisoned()
	}
	it := &Iterator{tree: t, to: to, version: t.version}

	n := t.rootNode()
	if err := t.touch(n); err != nil {
		return nil, err
	}
	for !n.IsLeaf() {
		i := 0
		if from != nil {
			i = n.childIndex(from, t.cmp)
		}
		it.stack = append(it.stack, cursorFrame{node: n, idx: i + 1})
		child, err := t.loadChild(n, i)
		if err != nil {
			return nil, err
		}
		if err := t.touch(child); err != nil {
			return nil, err
		}
		n = child
	}
	i := 0
	if from != nil {
		i = lowerBound(n.keys, from, t.cmp)
	}
	it.stack = append(it.stack, cursorFrame{node: n, idx: i})
	return it, nil
}

// Next advances the iterator. Returns false when exhausted or on error.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	t := it.tree
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.err != nil {
		return it.fail(t.poisoned())
	}
	if t.version != it.version {
		return it.fail(ErrIterator)
	}

	for len(it.stack) > 0 {
		top := len(it.stack) - 1
		n := it.stack[top].node
		idx := it.stack[top].idx

		if n.IsLeaf() {
			if idx < len(n.keys) {
				k := n.keys[idx]
				if it.to != nil && t.cmp(k, it.to) >= 0 {
					break
				}
				it.key, it.value = k, n.values[idx]
				it.stack[top].idx++
				return true
			}
			it.stack = it.stack[:top]
			continue
		}

		if idx >= len(n.children) {
			it.stack = it.stack[:top]
			continue
		}
		it.stack[top].idx++
		child, err := t.loadChild(n, idx)
		if err != nil {
			return it.fail(errors.Wrap(err, "iterator"))
		}
		if err := t.touch(child); err != nil {
			return it.fail(err)
		}
		it.stack = append(it.stack, cursorFrame{node: child})
	}

	it.done = true
	it.key, it.value = nil, nil
	return false
}

func (it *Iterator) fail(err error) bool {
	it.err = err
	it.done = true
	it.key, it.value = nil, nil
	return false
}

// Key returns the current key.
func (it *Iterator) Key() []byte {
	return it.key
}

// Value returns the current value.
func (it *Iterator) Value() []byte {
	return it.value
}

// Err returns the error that stopped the iterator, if any.
func (it *Iterator) Err() error {
	return it.err
}
