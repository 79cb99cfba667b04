package bplus

import (
	"StratumDB/pager"

	"github.com/cockroachdb/errors"
)

// evict is the eviction listener, called once for every entry leaving the
// retention queue. Only the transition of the reference count to zero does
// any work: a dirty node is written back together with its dirty
// descendants, children before parents.
func (t *BPlusTree) evict(h Handle) error {
	n := t.arena.get(h)
	if n == nil {
		return errors.AssertionFailedf("evicted handle %s does not resolve", h)
	}
	n.refCount--
	if n.refCount < 0 {
		return errors.AssertionFailedf("negative reference count on %s %s", n.kind, h)
	}
	if n.refCount > 0 {
		return nil
	}
	if t.err != nil {
		return t.poisoned()
	}
	if t.ndistinctOnQueue <= 0 {
		if !t.readOnly {
			return errors.AssertionFailedf("ndistinctOnQueue=%d on eviction of %s", t.ndistinctOnQueue, h)
		}
	} else {
		t.ndistinctOnQueue--
	}
	t.metrics.evicted()

	if err := t.writeBack(n); err != nil {
		if t.readOnly {
			return err
		}
		return t.latch(err)
	}
	t.maybeRelease(n)
	return nil
}

// writeBack persists n if it is dirty, live and the tree has a store.
func (t *BPlusTree) writeBack(n *Node) error {
	if n.deleted {
		return nil
	}
	if !n.dirty || t.store == nil {
		return nil
	}
	var err error
	if n.kind == KindLeaf {
		err = t.writeNodeOrLeaf(n)
	} else {
		err = t.writeNodeRecursive(n)
	}
	if err != nil {
		return err
	}
	if n.dirty || !n.IsCoded() || n.identity == pager.NullAddr {
		return errors.AssertionFailedf("%s %s still unwritten after write-back (dirty=%t identity=%s)",
			n.kind, n.handle, n.dirty, n.identity)
	}
	return nil
}

type writeFrame struct {
	node *Node
	next int // next child slot to visit
}

// writeNodeRecursive writes the dirty in-memory subtree under n in post
// order using an explicit stack. Clean and persisted children are skipped;
// their address is already in the parent's slot.
func (t *BPlusTree) writeNodeRecursive(n *Node) error {
	stack := []writeFrame{{node: n}}
	for len(stack) > 0 {
		top := len(stack) - 1
		cur := stack[top].node

		var child *Node
		for cur.kind == KindInternal && stack[top].next < len(cur.children) {
			ref := cur.children[stack[top].next]
			stack[top].next++
			if c := t.arena.get(ref.handle); c != nil && c.dirty && !c.deleted {
				child = c
				break
			}
		}
		if child != nil {
			stack = append(stack, writeFrame{node: child})
			continue
		}

		if err := t.writeNodeOrLeaf(cur); err != nil {
			return err
		}
		stack = stack[:top]
	}
	return nil
}

// writeNodeOrLeaf encodes and writes a single dirty node, then records its
// address in the parent's child slot.
func (t *BPlusTree) writeNodeOrLeaf(n *Node) error {
	if n.deleted || !n.dirty {
		return errors.AssertionFailedf("write of %s %s (dirty=%t deleted=%t)", n.kind, n.handle, n.dirty, n.deleted)
	}
	var parent *Node
	if n.handle != t.root {
		parent = t.arena.get(n.parent)
		if parent == nil {
			return errors.AssertionFailedf("dirty %s %s has no parent in memory", n.kind, n.handle)
		}
	}

	data, err := t.codec.Encode(n)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", n.kind)
	}
	addr, err := t.store.Write(data)
	if err != nil {
		return errors.Wrapf(err, "failed to write %s", n.kind)
	}

	n.identity = addr
	n.coded = data
	n.dirty = false

	if parent != nil {
		i := parent.childSlot(n.handle)
		if i < 0 {
			return errors.AssertionFailedf("%s %s missing from its parent %s", n.kind, n.handle, parent.handle)
		}
		parent.children[i].addr = addr
	}

	t.metrics.written(n.kind, len(data))
	t.log.Debug().
		Stringer("kind", n.kind).
		Stringer("addr", addr).
		Int("keys", len(n.keys)).
		Int("bytes", len(data)).
		Msg("wrote node")
	return nil
}

// maybeRelease drops n from the arena once nothing can reach it through a
// handle that must stay valid: unreferenced, not dirty or deleted, not root.
func (t *BPlusTree) maybeRelease(n *Node) {
	if n.refCount != 0 || n.handle == t.root {
		return
	}
	if n.dirty && !n.deleted {
		return
	}
	t.arena.release(n.handle)
}
