package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
)

/*
The checkpoint manager mirrors the store root in a small JSON manifest.
The store header stays the source of truth; the manifest lets an operator
see which checkpoint a file is at without opening the store, and lets the
engine notice a store that was committed by someone else.
*/

// NewCheckpointManager returns a manager for the manifest of the store at storePath.
func NewCheckpointManager(storePath string) *CheckpointManager {
	return &CheckpointManager{
		checkpointPath: storePath + ".checkpoint.json",
	}
}

// Path returns the manifest location.
func (cm *CheckpointManager) Path() string {
	return cm.checkpointPath
}

// SaveCheckpoint atomically replaces the manifest.
func (cm *CheckpointManager) SaveCheckpoint(cp Checkpoint) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cp.Timestamp == 0 {
		cp.Timestamp = time.Now().Unix()
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal checkpoint")
	}

	// write temp, fsync, rename over the old manifest
	tempPath := cm.checkpointPath + ".tmp"
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrap(err, "failed to create temp checkpoint")
	}
	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return errors.Wrap(err, "failed to write temp checkpoint")
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return errors.Wrap(err, "failed to sync temp checkpoint")
	}
	if err := tempFile.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp checkpoint")
	}

	if err := os.Rename(tempPath, cm.checkpointPath); err != nil {
		return errors.Wrap(err, "failed to rename checkpoint")
	}

	dir, err := os.Open(filepath.Dir(cm.checkpointPath))
	if err == nil {
		dir.Sync()
		dir.Close()
	}
	return nil
}

// LoadCheckpoint returns the last saved manifest, or nil when there is none.
func (cm *CheckpointManager) LoadCheckpoint() (*Checkpoint, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	data, err := os.ReadFile(cm.checkpointPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read checkpoint")
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, errors.Wrapf(err, "checkpoint manifest %s is corrupted", cm.checkpointPath)
	}
	return &cp, nil
}

// DeleteCheckpoint removes the manifest.
func (cm *CheckpointManager) DeleteCheckpoint() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if err := os.Remove(cm.checkpointPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to delete checkpoint")
	}
	return nil
}
