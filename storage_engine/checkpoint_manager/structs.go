package checkpoint

import "sync"

// CheckpointManager keeps a human-readable manifest of the last committed
// tree checkpoint next to the store file.
type CheckpointManager struct {
	checkpointPath string
	mu             sync.RWMutex
}

// Checkpoint describes one committed tree checkpoint.
type Checkpoint struct {
	Index     string `json:"index"`
	Addr      uint64 `json:"addr"` // address of the checkpoint record in the store
	Entries   int64  `json:"entries"`
	Height    int    `json:"height"`
	Timestamp int64  `json:"timestamp"` // informational only
}
