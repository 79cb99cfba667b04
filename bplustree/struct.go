// Structure of the copy-on-write B+ Tree
/*
Tree
 ├── Internal Node (keys + child references)
 │      └── Child Internal Nodes ...
 │             └── Leaf Nodes (keys + values)

- keys: strictly ascending order
- internal nodes: len(children) == len(keys)+1
- leaf nodes: len(values) == len(keys)
- a child reference holds a persisted address, an in-memory handle, or both
- a persisted node is never rewritten: mutation clones it into a new dirty node
- decoded nodes live in an arena and are kept alive by the retention queue

*/
package bplus

import (
	"sync"

	"StratumDB/pager"

	"github.com/rs/zerolog"
)

// NodeKind tags a node as leaf or internal. It is fixed when the node is
// created or decoded.
type NodeKind uint8

const (
	KindLeaf NodeKind = iota + 1
	KindInternal
)

func (k NodeKind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindInternal:
		return "node"
	default:
		return "unknown"
	}
}

const (
	DefaultBranchingFactor = 32
	MinBranchingFactor     = 3

	DefaultRetentionQueueCapacity = 500
	MinRetentionQueueCapacity     = 2
)

// childRef references one child of an internal node. addr is NullAddr until
// the child has been written; handle is the zero Handle unless the child is
// decoded in memory.
type childRef struct {
	addr   pager.Addr
	handle Handle
}

type Node struct {
	kind     NodeKind
	identity pager.Addr // NullAddr until written, never changes afterwards
	dirty    bool
	deleted  bool
	coded    []byte // serialized image, set once written or decoded
	refCount int    // retention queue entries plus pins

	handle Handle
	parent Handle

	keys     [][]byte
	children []childRef // internal nodes
	values   [][]byte   // leaf nodes
}

type BPlusTree struct {
	store    pager.Store // nil for a transient tree
	codec    NodeCodec
	cmp      func(a, b []byte) int
	bf       int
	readOnly bool

	root    Handle
	height  int
	entries int64

	arena            *arena
	queue            *retentionQueue
	ndistinctOnQueue int

	// err latches the first failed write-back of a mutable tree. It is
	// never cleared.
	err error

	// addresses of superseded nodes, released after the next commit
	pendingFrees []pager.Addr
	checkpoint   pager.Addr
	version      uint64 // bumped by every mutation, checked by iterators

	metrics *Metrics
	log     zerolog.Logger

	// mu guards the arena, the queue, child slots and every counter. A
	// mutable tree holds it for the whole operation; a read-only tree drops
	// it around store reads.
	mu sync.Mutex
}

// Options configures a tree.
type Options struct {
	// BranchingFactor is the maximum number of children of an internal node
	// and the maximum number of keys of a leaf.
	BranchingFactor int
	// RetentionQueueCapacity bounds the number of hard references kept on
	// the retention queue.
	RetentionQueueCapacity int
	// RetentionQueueScan is how many of the most recent queue entries are
	// checked before appending; a node found there is not appended again.
	RetentionQueueScan int
	// Codec defaults to BinaryCodec.
	Codec NodeCodec
	// Compare defaults to bytes.Compare.
	Compare  func(a, b []byte) int
	ReadOnly bool
	Metrics  *Metrics
	Logger   *zerolog.Logger
}

// Stats is a snapshot of the tree's bookkeeping.
type Stats struct {
	Entries                int64
	Height                 int
	BranchingFactor        int
	ReadOnly               bool
	Poisoned               bool
	RetentionQueueLen      int
	RetentionQueueCapacity int
	DistinctOnQueue        int
	ResidentNodes          int
	PendingFrees           int
	Checkpoint             pager.Addr
}
