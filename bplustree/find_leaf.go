package bplus

// findLeaf descends from the root to the leaf that covers key, touching every
// node on the way. Callers hold t.mu.
func (t *BPlusTree) findLeaf(key []byte) (*Node, error) {
	n := t.rootNode()
	if err := t.touch(n); err != nil {
		return nil, err
	}
	for !n.IsLeaf() {
		child, err := t.loadChild(n, n.childIndex(key, t.cmp))
		if err != nil {
			return nil, err
		}
		if err := t.touch(child); err != nil {
			return nil, err
		}
		n = child
	}
	return n, nil
}

// mutablePath returns the nodes from the root to the leaf covering key with
// every clean node replaced by a dirty copy, plus the child slot taken at
// each level. Nothing is touched, so no node of the path can be evicted
// while the caller modifies it.
func (t *BPlusTree) mutablePath(key []byte) ([]*Node, []int, error) {
	n := t.rootNode()
	if !n.dirty {
		n = t.copyOnWrite(n, nil, 0)
	}
	path := []*Node{n}
	var slots []int
	for !n.IsLeaf() {
		i := n.childIndex(key, t.cmp)
		child, err := t.loadChild(n, i)
		if err != nil {
			return nil, nil, err
		}
		if !child.dirty {
			child = t.copyOnWrite(child, n, i)
		}
		path = append(path, child)
		slots = append(slots, i)
		n = child
	}
	return path, slots, nil
}
