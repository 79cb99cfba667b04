package bplus

// overflows reports whether n holds more than the branching factor allows.
func (t *BPlusTree) overflows(n *Node) bool {
	if n.IsLeaf() {
		return len(n.keys) > t.bf
	}
	return len(n.children) > t.bf
}

// splitLeaf moves the upper half of a dirty leaf into a new right sibling.
// The separator is the first key of the right leaf.
func (t *BPlusTree) splitLeaf(leaf *Node) ([]byte, *Node) {
	mid := len(leaf.keys) / 2

	right := t.newNode(KindLeaf)
	right.keys = append(right.keys, leaf.keys[mid:]...)
	right.values = append(right.values, leaf.values[mid:]...)

	leaf.keys = leaf.keys[:mid]
	leaf.values = leaf.values[:mid]
	return right.keys[0], right
}

// splitInternal splits a dirty internal node and promotes the middle key.
func (t *BPlusTree) splitInternal(node *Node) ([]byte, *Node) {
	// keys: left keeps [0:mid), promote key[mid], right gets (mid, end]
	// children: left keeps [0:mid], right gets [mid+1:]
	mid := len(node.keys) / 2
	promote := node.keys[mid]

	right := t.newNode(KindInternal)
	right.keys = append(right.keys, node.keys[mid+1:]...)
	right.children = append(right.children, node.children[mid+1:]...)
	t.reparent(right)

	node.keys = node.keys[:mid]
	node.children = node.children[:mid+1]
	return promote, right
}

// splitPath splits overflowing nodes of path from the leaf upwards and
// returns the nodes it created.
func (t *BPlusTree) splitPath(path []*Node, slots []int) []*Node {
	var created []*Node
	for level := len(path) - 1; level >= 0; level-- {
		n := path[level]
		if !t.overflows(n) {
			break
		}
		var sep []byte
		var right *Node
		if n.IsLeaf() {
			sep, right = t.splitLeaf(n)
		} else {
			sep, right = t.splitInternal(n)
		}
		created = append(created, right)

		if level == 0 {
			created = append(created, t.growRoot(n, sep, right))
			break
		}
		t.insertIntoParent(path[level-1], slots[level-1], sep, right)
	}
	return created
}
