package bplus

// retentionQueue is a bounded ring of hard references. It only stores
// handles; reference counting and eviction are done by the tree in touch.
type retentionQueue struct {
	buf   []Handle
	head  int // oldest entry
	size  int
	nscan int
}

func newRetentionQueue(capacity, nscan int) *retentionQueue {
	if nscan > capacity {
		nscan = capacity
	}
	return &retentionQueue{
		buf:   make([]Handle, capacity),
		nscan: nscan,
	}
}

func (q *retentionQueue) capacity() int { return len(q.buf) }
func (q *retentionQueue) len() int      { return q.size }
func (q *retentionQueue) full() bool    { return q.size == len(q.buf) }
func (q *retentionQueue) empty() bool   { return q.size == 0 }

func (q *retentionQueue) push(h Handle) {
	q.buf[(q.head+q.size)%len(q.buf)] = h
	q.size++
}

// pop removes and returns the oldest entry.
func (q *retentionQueue) pop() Handle {
	h := q.buf[q.head]
	q.buf[q.head] = Handle{}
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return h
}

// scan reports whether h is among the nscan most recent entries.
func (q *retentionQueue) scan(h Handle) bool {
	n := q.nscan
	if n > q.size {
		n = q.size
	}
	for i := 1; i <= n; i++ {
		if q.buf[(q.head+q.size-i)%len(q.buf)] == h {
			return true
		}
	}
	return false
}

// touch appends n to the retention queue. The reference count is raised
// before a full queue evicts its oldest entry, so evicting an older entry of
// n itself never reaches zero. If that eviction fails, n is not appended and
// its count is restored.
func (t *BPlusTree) touch(n *Node) error {
	if t.queue.scan(n.handle) {
		return nil
	}
	n.refCount++
	if n.refCount == 1 {
		t.ndistinctOnQueue++
	}
	if t.queue.full() {
		if err := t.evict(t.queue.pop()); err != nil {
			n.refCount--
			if n.refCount == 0 {
				t.ndistinctOnQueue--
			}
			return err
		}
	}
	t.queue.push(n.handle)
	t.metrics.observeQueue(t.queue.len(), t.ndistinctOnQueue)
	return nil
}

// touchAll touches each live node in order, stopping at the first error.
func (t *BPlusTree) touchAll(nodes []*Node) error {
	for _, n := range nodes {
		if n.deleted || t.arena.get(n.handle) != n {
			continue
		}
		if err := t.touch(n); err != nil {
			return err
		}
	}
	return nil
}

// evictAll drains the queue oldest first through the eviction listener.
func (t *BPlusTree) evictAll() error {
	for !t.queue.empty() {
		if err := t.evict(t.queue.pop()); err != nil {
			return err
		}
	}
	t.metrics.observeQueue(t.queue.len(), t.ndistinctOnQueue)
	return nil
}
