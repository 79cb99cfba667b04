package bplus

import "github.com/cockroachdb/errors"

var (
	// ErrTreePoisoned marks every error returned by a tree whose write-back
	// failed. The original cause stays reachable through errors.Is.
	ErrTreePoisoned = errors.New("bplus: tree is poisoned by an earlier write-back failure")
	ErrReadOnly     = errors.New("bplus: tree is read-only")
	ErrTransient    = errors.New("bplus: tree has no backing store")
	ErrNoCheckpoint = errors.New("bplus: store has no committed checkpoint")
	ErrIterator     = errors.New("bplus: iterator invalidated by a mutation")
)

// poisoned wraps the latched cause. Callers must hold t.mu.
func (t *BPlusTree) poisoned() error {
	return errors.Mark(errors.Wrap(t.err, "tree is poisoned"), ErrTreePoisoned)
}

// checkMutable is called at the top of every mutating entry point.
func (t *BPlusTree) checkMutable() error {
	if t.err != nil {
		return t.poisoned()
	}
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

// latch records cause as the tree's sticky error. Only the first failure is
// kept.
func (t *BPlusTree) latch(cause error) error {
	if t.err == nil {
		t.err = cause
		t.metrics.writeBackFailed()
		t.log.Error().Err(cause).Msg("write-back failed, tree poisoned")
	}
	return t.poisoned()
}
