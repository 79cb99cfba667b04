package bplus

import "bytes"

// Insert stores value under key, replacing any previous value.
func (t *BPlusTree) Insert(key, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkMutable(); err != nil {
		return err
	}
	path, slots, err := t.mutablePath(key)
	if err != nil {
		return err
	}

	leaf := path[len(path)-1]
	i, found := leaf.search(key, t.cmp)
	if found {
		leaf.values[i] = bytes.Clone(value)
	} else {
		leaf.keys = insertAt(leaf.keys, i, bytes.Clone(key))
		leaf.values = insertAt(leaf.values, i, bytes.Clone(value))
		t.entries++
	}
	t.version++

	touched := path
	if t.overflows(leaf) {
		touched = append(touched, t.splitPath(path, slots)...)
	}
	return t.touchAll(touched)
}

func insertAt[T any](s []T, i int, v T) []T {
	var zero T
	s = append(s, zero)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeAt[T any](s []T, i int) []T {
	return append(s[:i], s[i+1:]...)
}
