package bplus

// Remove deletes key and reports whether it was present. Nodes are not
// rebalanced; an empty node is unlinked from its parent and a root with a
// single child is replaced by that child.
func (t *BPlusTree) Remove(key []byte) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkMutable(); err != nil {
		return false, err
	}
	// nothing is copied when the key is absent
	leaf, err := t.findLeaf(key)
	if err != nil {
		return false, err
	}
	if _, ok := leaf.search(key, t.cmp); !ok {
		return false, nil
	}

	path, slots, err := t.mutablePath(key)
	if err != nil {
		return false, err
	}
	leaf = path[len(path)-1]
	i, _ := leaf.search(key, t.cmp)
	leaf.keys = removeAt(leaf.keys, i)
	leaf.values = removeAt(leaf.values, i)
	t.entries--
	t.version++

	t.unlinkEmpty(path, slots)
	if err := t.collapseRoot(); err != nil {
		return true, err
	}

	touched := path
	if root := t.rootNode(); root != path[0] {
		touched = append(touched, root)
	}
	return true, t.touchAll(touched)
}

func isEmpty(n *Node) bool {
	if n.IsLeaf() {
		return len(n.keys) == 0
	}
	return len(n.children) == 0
}

// unlinkEmpty removes empty non-root nodes of path from their parents,
// bottom up.
func (t *BPlusTree) unlinkEmpty(path []*Node, slots []int) {
	for level := len(path) - 1; level > 0; level-- {
		n := path[level]
		if !isEmpty(n) {
			return
		}
		parent := path[level-1]
		slot := slots[level-1]
		parent.children = removeAt(parent.children, slot)
		switch {
		case len(parent.keys) == 0:
		case slot > 0:
			parent.keys = removeAt(parent.keys, slot-1)
		default:
			parent.keys = removeAt(parent.keys, 0)
		}
		t.discard(n)
	}
}

// collapseRoot shrinks the tree while the root is an internal node with at
// most one child.
func (t *BPlusTree) collapseRoot() error {
	for {
		root := t.rootNode()
		if root.IsLeaf() {
			return nil
		}
		switch len(root.children) {
		case 0:
			leaf := t.newNode(KindLeaf)
			t.root = leaf.handle
			t.height = 1
			t.discard(root)
			return nil
		case 1:
			child, err := t.loadChild(root, 0)
			if err != nil {
				return err
			}
			child.parent = Handle{}
			t.root = child.handle
			t.height--
			t.discard(root)
		default:
			return nil
		}
	}
}
