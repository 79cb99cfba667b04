package bplus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaHandles(t *testing.T) {
	a := newArena()
	assert.Nil(t, a.get(Handle{}))

	n1 := &Node{kind: KindLeaf}
	h1 := a.alloc(n1)
	assert.False(t, h1.IsNil())
	assert.Equal(t, h1, n1.handle)
	assert.Same(t, n1, a.get(h1))

	require.True(t, a.release(h1))
	assert.Nil(t, a.get(h1), "released handle must not resolve")
	assert.False(t, a.release(h1))
	assert.Equal(t, 0, a.len())

	// the slot is reused under a new generation
	n2 := &Node{kind: KindInternal}
	h2 := a.alloc(n2)
	assert.Equal(t, h1.slot, h2.slot)
	assert.NotEqual(t, h1.gen, h2.gen)
	assert.Nil(t, a.get(h1))
	assert.Same(t, n2, a.get(h2))

	h3 := a.alloc(&Node{kind: KindLeaf})
	assert.NotEqual(t, h2.slot, h3.slot)
	assert.Equal(t, 2, a.len())
	assert.Nil(t, a.get(Handle{slot: 99, gen: 1}))
}

func TestRetentionQueueRing(t *testing.T) {
	q := newRetentionQueue(3, 0)
	hs := []Handle{{0, 1}, {1, 1}, {2, 1}, {3, 1}}
	for _, h := range hs[:3] {
		q.push(h)
	}
	assert.True(t, q.full())
	assert.Equal(t, hs[0], q.pop())
	q.push(hs[3])
	assert.Equal(t, hs[1], q.pop())
	assert.Equal(t, hs[2], q.pop())
	assert.Equal(t, hs[3], q.pop())
	assert.True(t, q.empty())
}

func TestRetentionQueueScan(t *testing.T) {
	q := newRetentionQueue(4, 2)
	a, b, c := Handle{0, 1}, Handle{1, 1}, Handle{2, 1}
	q.push(a)
	q.push(b)
	q.push(c)
	assert.True(t, q.scan(c))
	assert.True(t, q.scan(b))
	assert.False(t, q.scan(a), "a is outside the scan window")

	tree := newTestTree(t, nil, 4, 4)
	tree.queue = newRetentionQueue(4, 1)
	tree.mu.Lock()
	defer tree.mu.Unlock()
	root := tree.rootNode()
	root.refCount = 0
	tree.ndistinctOnQueue = 0
	require.NoError(t, tree.touch(root))
	require.NoError(t, tree.touch(root))
	assert.Equal(t, 1, tree.queue.len(), "second touch is absorbed by the scan")
	assert.Equal(t, 1, root.ReferenceCount())
}
