package storageengine

import (
	bplus "StratumDB/bplustree"
	"StratumDB/config"
	"StratumDB/pager"
	checkpoint "StratumDB/storage_engine/checkpoint_manager"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

/*
The main file of the storage engine. It wires one index from its config:
store backend (file or memory), optional read cache, node codec, metrics
registry and finally the tree, opened at the store's last checkpoint.
*/

var ErrClosed = errors.New("storage engine is closed")

func NewStorageEngine(cfg *config.Config, log zerolog.Logger) (*StorageEngine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if errs := config.ValidateConfig(cfg); len(errs) > 0 {
		return nil, errors.Wrap(errors.Join(errs...), "invalid config")
	}
	log = log.With().Str("index", cfg.Index.Name).Logger()

	se := &StorageEngine{
		cfg: cfg,
		log: log.With().Str("component", "engine").Logger(),
	}

	switch cfg.Store.Backend {
	case "file":
		if dir := filepath.Dir(cfg.Store.Path); dir != "" && !cfg.Store.ReadOnly {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, errors.Wrap(err, "failed to create store directory")
			}
		}
		fs, err := pager.OpenFileStore(cfg.Store.Path, pager.FileStoreOptions{
			ReadOnly:     cfg.Store.ReadOnly,
			SyncOnCommit: cfg.Store.SyncOnCommit,
			Logger:       &log,
		})
		if err != nil {
			return nil, err
		}
		se.fileStore = fs
		se.Store = fs
		se.CheckpointManager = checkpoint.NewCheckpointManager(cfg.Store.Path)
	case "memory":
		se.Store = pager.NewMemoryStore()
	default:
		return nil, errors.Newf("unknown store backend %q", cfg.Store.Backend)
	}

	cacheBytes, err := cfg.Store.ReadCacheBytes()
	if err != nil {
		se.Store.Close()
		return nil, err
	}
	if cacheBytes > 0 {
		cache, err := pager.NewCachingStore(se.Store, cacheBytes)
		if err != nil {
			se.Store.Close()
			return nil, err
		}
		se.cache = cache
		se.Store = cache
	}

	var metrics *bplus.Metrics
	if cfg.Metrics.Enabled {
		se.registry = prometheus.NewRegistry()
		metrics, err = bplus.NewMetrics(se.registry, cfg.Index.Name)
		if err != nil {
			se.Store.Close()
			return nil, err
		}
	}

	var codec bplus.NodeCodec = bplus.BinaryCodec{}
	if strings.EqualFold(cfg.Index.Compression, "snappy") {
		codec = bplus.NewSnappyCodec(codec)
	}

	se.Tree, err = bplus.Open(se.Store, bplus.Options{
		BranchingFactor:        cfg.Index.BranchingFactor,
		RetentionQueueCapacity: cfg.Index.RetentionQueueCapacity,
		RetentionQueueScan:     cfg.Index.RetentionQueueScan,
		Codec:                  codec,
		ReadOnly:               cfg.Store.ReadOnly,
		Metrics:                metrics,
		Logger:                 &log,
	})
	if err != nil {
		se.Store.Close()
		return nil, errors.Wrap(err, "failed to open index")
	}

	se.verifyManifest()
	se.log.Info().
		Str("backend", cfg.Store.Backend).
		Bool("read_only", cfg.Store.ReadOnly).
		Int64("entries", se.Tree.Len()).
		Int("height", se.Tree.Height()).
		Msg("storage engine ready")
	return se, nil
}

// verifyManifest compares the checkpoint manifest with the store root. A
// mismatch is only reported: the store header is authoritative.
func (se *StorageEngine) verifyManifest() {
	if se.CheckpointManager == nil {
		return
	}
	cp, err := se.CheckpointManager.LoadCheckpoint()
	if err != nil {
		se.log.Warn().Err(err).Msg("ignoring checkpoint manifest")
		return
	}
	root := se.Store.Root()
	if cp == nil {
		if root != pager.NullAddr {
			se.log.Warn().Stringer("root", root).Msg("store has a checkpoint but no manifest")
		}
		return
	}
	if pager.Addr(cp.Addr) != root {
		se.log.Warn().
			Stringer("manifest", pager.Addr(cp.Addr)).
			Stringer("root", root).
			Msg("checkpoint manifest is stale")
	}
}

func (se *StorageEngine) requireOpen() error {
	if se.closed {
		return ErrClosed
	}
	return nil
}

// Close checkpoints pending mutations of a healthy mutable index and closes
// the store.
func (se *StorageEngine) Close() error {
	se.mu.Lock()
	defer se.mu.Unlock()

	if se.closed {
		return nil
	}
	se.closed = true

	var ckptErr error
	if se.mutations > 0 && !se.Tree.IsReadOnly() && se.Tree.Err() == nil {
		_, ckptErr = se.checkpointLocked()
	}
	if se.cache != nil {
		se.cache.Wait()
	}
	closeErr := se.Store.Close()
	if ckptErr != nil {
		return errors.Wrap(ckptErr, "checkpoint on close")
	}
	if closeErr != nil {
		return errors.Wrap(closeErr, "failed to close store")
	}
	se.log.Info().Msg("storage engine closed")
	return nil
}
