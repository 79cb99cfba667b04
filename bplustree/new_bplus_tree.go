package bplus

import (
	"bytes"

	"StratumDB/pager"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

func newTree(store pager.Store, opts Options) (*BPlusTree, error) {
	if opts.BranchingFactor == 0 {
		opts.BranchingFactor = DefaultBranchingFactor
	}
	if opts.BranchingFactor < MinBranchingFactor {
		return nil, errors.Newf("branching factor %d is below %d", opts.BranchingFactor, MinBranchingFactor)
	}
	if opts.RetentionQueueCapacity == 0 {
		opts.RetentionQueueCapacity = DefaultRetentionQueueCapacity
	}
	if opts.RetentionQueueCapacity < MinRetentionQueueCapacity {
		return nil, errors.Newf("retention queue capacity %d is below %d",
			opts.RetentionQueueCapacity, MinRetentionQueueCapacity)
	}
	if opts.RetentionQueueScan < 0 {
		return nil, errors.Newf("negative retention queue scan %d", opts.RetentionQueueScan)
	}
	if opts.Codec == nil {
		opts.Codec = BinaryCodec{}
	}
	if opts.Compare == nil {
		opts.Compare = bytes.Compare
	}

	t := &BPlusTree{
		store:    store,
		codec:    opts.Codec,
		cmp:      opts.Compare,
		bf:       opts.BranchingFactor,
		readOnly: opts.ReadOnly,
		arena:    newArena(),
		queue:    newRetentionQueue(opts.RetentionQueueCapacity, opts.RetentionQueueScan),
		metrics:  opts.Metrics,
		log:      zerolog.Nop(),
	}
	if opts.Logger != nil {
		t.log = opts.Logger.With().Str("component", "btree").Logger()
	}
	return t, nil
}

// Create returns a new empty mutable tree backed by store.
func Create(store pager.Store, opts Options) (*BPlusTree, error) {
	if opts.ReadOnly {
		return nil, errors.Wrap(ErrReadOnly, "cannot create a read-only tree")
	}
	t, err := newTree(store, opts)
	if err != nil {
		return nil, err
	}
	root := t.newNode(KindLeaf)
	t.root = root.handle
	t.height = 1
	if err := t.touch(root); err != nil {
		return nil, err
	}
	t.log.Debug().Int("branching_factor", t.bf).Bool("transient", store == nil).Msg("created tree")
	return t, nil
}

// NewTransient returns a tree without a backing store. Its nodes are never
// written.
func NewTransient(opts Options) (*BPlusTree, error) {
	return Create(nil, opts)
}

// Open loads the tree at the store's last committed checkpoint. A mutable
// tree is created when the store has none.
func Open(store pager.Store, opts Options) (*BPlusTree, error) {
	if store == nil {
		return nil, ErrTransient
	}
	addr := store.Root()
	if addr == pager.NullAddr {
		if opts.ReadOnly {
			return nil, ErrNoCheckpoint
		}
		return Create(store, opts)
	}
	return Load(store, addr, opts)
}

// Load opens the tree described by the checkpoint record at addr. The
// branching factor is taken from the record.
func Load(store pager.Store, addr pager.Addr, opts Options) (*BPlusTree, error) {
	if store == nil {
		return nil, ErrTransient
	}
	data, err := store.Read(addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read checkpoint %s", addr)
	}
	ckpt, err := decodeCheckpoint(data)
	if err != nil {
		return nil, errors.Wrapf(err, "checkpoint %s", addr)
	}
	if opts.BranchingFactor != 0 && opts.BranchingFactor != ckpt.BranchingFactor {
		if opts.Logger != nil {
			opts.Logger.Warn().
				Int("configured", opts.BranchingFactor).
				Int("checkpoint", ckpt.BranchingFactor).
				Msg("branching factor taken from checkpoint")
		}
	}
	opts.BranchingFactor = ckpt.BranchingFactor

	t, err := newTree(store, opts)
	if err != nil {
		return nil, err
	}
	root, err := t.readNode(ckpt.Root)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load root")
	}
	t.arena.alloc(root)
	t.root = root.handle
	t.height = ckpt.Height
	t.entries = ckpt.Entries
	t.checkpoint = addr

	t.log.Info().
		Stringer("checkpoint", addr).
		Stringer("root", ckpt.Root).
		Int64("entries", ckpt.Entries).
		Int("height", ckpt.Height).
		Bool("read_only", t.readOnly).
		Msg("loaded tree")
	return t, nil
}
