package bplus

// EvictAll drains the retention queue through the eviction listener and then
// writes whatever is still dirty under the root. Afterwards every node of a
// tree with a store is clean.
func (t *BPlusTree) EvictAll() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.err != nil {
		return t.poisoned()
	}
	if err := t.evictAll(); err != nil {
		return err
	}
	if root := t.rootNode(); root.dirty && t.store != nil {
		if err := t.writeBack(root); err != nil {
			if t.readOnly {
				return err
			}
			return t.latch(err)
		}
	}
	return nil
}

// Err returns the latched write-back failure, or nil.
func (t *BPlusTree) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *BPlusTree) IsReadOnly() bool {
	return t.readOnly
}

// Len returns the number of entries.
func (t *BPlusTree) Len() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries
}

func (t *BPlusTree) Height() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.height
}

func (t *BPlusTree) BranchingFactor() int {
	return t.bf
}

func (t *BPlusTree) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{
		Entries:                t.entries,
		Height:                 t.height,
		BranchingFactor:        t.bf,
		ReadOnly:               t.readOnly,
		Poisoned:               t.err != nil,
		RetentionQueueLen:      t.queue.len(),
		RetentionQueueCapacity: t.queue.capacity(),
		DistinctOnQueue:        t.ndistinctOnQueue,
		ResidentNodes:          t.arena.len(),
		PendingFrees:           len(t.pendingFrees),
		Checkpoint:             t.checkpoint,
	}
}
