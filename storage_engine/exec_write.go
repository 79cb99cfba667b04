package storageengine

import (
	"github.com/cockroachdb/errors"
)

// Put inserts or replaces the value of key.
func (se *StorageEngine) Put(key, value []byte) error {
	se.mu.Lock()
	defer se.mu.Unlock()

	if err := se.requireOpen(); err != nil {
		return err
	}
	if len(key) == 0 {
		return errors.New("empty key")
	}
	if err := se.Tree.Insert(key, value); err != nil {
		return errors.Wrapf(err, "put %q", key)
	}
	return se.afterMutation()
}

// Delete removes key. It reports whether the key was present.
func (se *StorageEngine) Delete(key []byte) (bool, error) {
	se.mu.Lock()
	defer se.mu.Unlock()

	if err := se.requireOpen(); err != nil {
		return false, err
	}
	found, err := se.Tree.Remove(key)
	if err != nil {
		return false, errors.Wrapf(err, "delete %q", key)
	}
	if !found {
		return false, nil
	}
	return true, se.afterMutation()
}

// afterMutation runs the automatic checkpoint once enough mutations piled up.
func (se *StorageEngine) afterMutation() error {
	se.mutations++
	every := se.cfg.Index.CheckpointEvery
	if every <= 0 || se.mutations < every {
		return nil
	}
	_, err := se.checkpointLocked()
	return err
}
