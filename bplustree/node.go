package bplus

import (
	"sort"

	"StratumDB/pager"

	"github.com/cockroachdb/errors"
)

// newNode creates a dirty node with no identity and allocates it in the arena.
func (t *BPlusTree) newNode(kind NodeKind) *Node {
	n := &Node{kind: kind, dirty: true}
	t.arena.alloc(n)
	return n
}

func (n *Node) IsLeaf() bool    { return n.kind == KindLeaf }
func (n *Node) IsDirty() bool   { return n.dirty }
func (n *Node) IsCoded() bool   { return n.coded != nil }
func (n *Node) IsDeleted() bool { return n.deleted }

func (n *Node) Kind() NodeKind             { return n.kind }
func (n *Node) Identity() pager.Addr       { return n.identity }
func (n *Node) ReferenceCount() int        { return n.refCount }
func (n *Node) Len() int                   { return len(n.keys) }
func (n *Node) Keys() [][]byte             { return n.keys }
func (n *Node) Values() [][]byte           { return n.values }
func (n *Node) ChildAddr(i int) pager.Addr { return n.children[i].addr }
func (n *Node) NumChildren() int           { return len(n.children) }

// childSlot returns the index of the child held under h, or -1.
func (n *Node) childSlot(h Handle) int {
	for i := range n.children {
		if n.children[i].handle == h {
			return i
		}
	}
	return -1
}

// childIndex returns the child to descend into for key: the first child whose
// separator is greater than key.
func (n *Node) childIndex(key []byte, cmp func(a, b []byte) int) int {
	return sort.Search(len(n.keys), func(i int) bool {
		return cmp(key, n.keys[i]) < 0
	})
}

// lowerBound returns the first index i with keys[i] >= key.
func lowerBound(keys [][]byte, key []byte, cmp func(a, b []byte) int) int {
	return sort.Search(len(keys), func(i int) bool {
		return cmp(keys[i], key) >= 0
	})
}

// search returns the position of key in a leaf and whether it is present.
func (n *Node) search(key []byte, cmp func(a, b []byte) int) (int, bool) {
	i := lowerBound(n.keys, key, cmp)
	return i, i < len(n.keys) && cmp(n.keys[i], key) == 0
}

// checkNode verifies the structural invariants of a node.
func checkNode(n *Node, cmp func(a, b []byte) int) error {
	switch n.kind {
	case KindLeaf:
		if len(n.values) != len(n.keys) {
			return errors.AssertionFailedf("leaf has %d keys and %d values", len(n.keys), len(n.values))
		}
	case KindInternal:
		if len(n.children) != len(n.keys)+1 {
			return errors.AssertionFailedf("node has %d keys and %d children", len(n.keys), len(n.children))
		}
	default:
		return errors.AssertionFailedf("unknown node kind %d", n.kind)
	}
	for i := 1; i < len(n.keys); i++ {
		if cmp(n.keys[i-1], n.keys[i]) >= 0 {
			return errors.AssertionFailedf("%s keys not strictly increasing at %d", n.kind, i)
		}
	}
	return nil
}

// rootNode returns the root. The root is never released from the arena.
func (t *BPlusTree) rootNode() *Node {
	return t.arena.get(t.root)
}

// loadChild returns child i of n, decoding it from the store when it is not
// in memory. Callers hold t.mu; a read-only tree releases it while reading.
func (t *BPlusTree) loadChild(n *Node, i int) (*Node, error) {
	if c := t.arena.get(n.children[i].handle); c != nil {
		return c, nil
	}
	addr := n.children[i].addr
	if addr == pager.NullAddr {
		return nil, errors.AssertionFailedf("child %d of %s has neither address nor handle", i, n.handle)
	}
	if t.store == nil {
		return nil, errors.AssertionFailedf("child %d of transient tree is not in memory", i)
	}

	if t.readOnly {
		t.mu.Unlock()
	}
	child, err := t.readNode(addr)
	if t.readOnly {
		t.mu.Lock()
	}
	if err != nil {
		return nil, err
	}
	// another reader may have loaded the same child meanwhile
	if c := t.arena.get(n.children[i].handle); c != nil {
		return c, nil
	}
	t.arena.alloc(child)
	child.parent = n.handle
	n.children[i].handle = child.handle
	return child, nil
}

// readNode reads and decodes the node at addr without registering it.
func (t *BPlusTree) readNode(addr pager.Addr) (*Node, error) {
	data, err := t.store.Read(addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read node %s", addr)
	}
	n, err := t.codec.Decode(addr, data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode node %s", addr)
	}
	if err := checkNode(n, t.cmp); err != nil {
		return nil, errors.Wrapf(err, "node %s", addr)
	}
	t.metrics.read()
	return n, nil
}

// copyOnWrite clones a clean node into a new dirty node that takes its place
// in the tree. parent is nil when n is the root. The original is marked
// deleted and its address is released after the next commit.
func (t *BPlusTree) copyOnWrite(n, parent *Node, slot int) *Node {
	clone := t.newNode(n.kind)
	clone.keys = append([][]byte(nil), n.keys...)
	if n.kind == KindLeaf {
		clone.values = append([][]byte(nil), n.values...)
	} else {
		clone.children = append([]childRef(nil), n.children...)
		t.reparent(clone)
	}

	if parent == nil {
		t.root = clone.handle
	} else {
		clone.parent = parent.handle
		parent.children[slot] = childRef{handle: clone.handle}
	}

	n.deleted = true
	if n.identity != pager.NullAddr {
		t.pendingFrees = append(t.pendingFrees, n.identity)
	}
	t.maybeRelease(n)
	return clone
}

// discard marks a dirty node that was removed from the tree.
func (t *BPlusTree) discard(n *Node) {
	n.deleted = true
	if n.identity != pager.NullAddr {
		t.pendingFrees = append(t.pendingFrees, n.identity)
	}
	t.maybeRelease(n)
}

// reparent points the in-memory children of n back at n.
func (t *BPlusTree) reparent(n *Node) {
	for _, ref := range n.children {
		if c := t.arena.get(ref.handle); c != nil {
			c.parent = n.handle
		}
	}
}
