package bplus

// insertIntoParent inserts sep and right into parent after the child at slot.
// The caller splits the parent if it overflows.
func (t *BPlusTree) insertIntoParent(parent *Node, slot int, sep []byte, right *Node) {
	// keys: insert at slot, children: insert right at slot+1
	parent.keys = insertAt(parent.keys, slot, sep)
	parent.children = insertAt(parent.children, slot+1, childRef{handle: right.handle})
	right.parent = parent.handle
}

// growRoot puts a new root above a split root.
func (t *BPlusTree) growRoot(left *Node, sep []byte, right *Node) *Node {
	root := t.newNode(KindInternal)
	root.keys = [][]byte{sep}
	root.children = []childRef{{handle: left.handle}, {handle: right.handle}}
	left.parent = root.handle
	right.parent = root.handle
	t.root = root.handle
	t.height++
	return root
}
