package bplus

// Lookup returns the value stored under key. A missing key is not an error:
// it returns (nil, false, nil). The returned slice must not be modified.
func (t *BPlusTree) Lookup(key []byte) ([]byte, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.err != nil {
		return nil, false, t.poisoned()
	}
	leaf, err := t.findLeaf(key)
	if err != nil {
		return nil, false, err
	}
	i, ok := leaf.search(key, t.cmp)
	if !ok {
		return nil, false, nil
	}
	return leaf.values[i], true, nil
}

func (t *BPlusTree) Contains(key []byte) (bool, error) {
	_, ok, err := t.Lookup(key)
	return ok, err
}
