package storageengine

import (
	"io"

	"StratumDB/pager"
	checkpoint "StratumDB/storage_engine/checkpoint_manager"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/common/expfmt"
)

// Checkpoint persists every dirty node and commits a new checkpoint.
func (se *StorageEngine) Checkpoint() (pager.Addr, error) {
	se.mu.Lock()
	defer se.mu.Unlock()

	if err := se.requireOpen(); err != nil {
		return pager.NullAddr, err
	}
	return se.checkpointLocked()
}

func (se *StorageEngine) checkpointLocked() (pager.Addr, error) {
	addr, err := se.Tree.Checkpoint()
	if err != nil {
		return pager.NullAddr, errors.Wrap(err, "checkpoint")
	}
	se.mutations = 0

	if se.CheckpointManager != nil {
		err := se.CheckpointManager.SaveCheckpoint(checkpoint.Checkpoint{
			Index:   se.cfg.Index.Name,
			Addr:    uint64(addr),
			Entries: se.Tree.Len(),
			Height:  se.Tree.Height(),
		})
		if err != nil {
			// the store commit already succeeded
			se.log.Warn().Err(err).Msg("failed to save checkpoint manifest")
		}
	}
	return addr, nil
}

// EvictAll drains the retention queue, writing every dirty node back.
func (se *StorageEngine) EvictAll() error {
	se.mu.Lock()
	defer se.mu.Unlock()

	if err := se.requireOpen(); err != nil {
		return err
	}
	return se.Tree.EvictAll()
}

func (se *StorageEngine) Stats() EngineStats {
	se.mu.RLock()
	defer se.mu.RUnlock()

	stats := EngineStats{
		Index:     se.cfg.Index.Name,
		Tree:      se.Tree.Stats(),
		Mutations: se.mutations,
	}
	if se.fileStore != nil && !se.closed {
		fs := se.fileStore.Stats()
		stats.File = &fs
	}
	if se.cache != nil {
		stats.CacheHitRatio = se.cache.HitRatio()
	}
	return stats
}

// Inspect writes a level-by-level dump of the tree to w.
func (se *StorageEngine) Inspect(w io.Writer) error {
	se.mu.RLock()
	defer se.mu.RUnlock()

	if err := se.requireOpen(); err != nil {
		return err
	}
	return se.Tree.Dump(w)
}

// WriteMetrics writes the index metrics in the Prometheus text format. It
// writes nothing when metrics are disabled.
func (se *StorageEngine) WriteMetrics(w io.Writer) error {
	if se.registry == nil {
		return nil
	}
	families, err := se.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "failed to gather metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, "failed to write metrics")
		}
	}
	return nil
}
