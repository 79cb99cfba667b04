package storageengine

import (
	"sync"

	bplus "StratumDB/bplustree"
	"StratumDB/config"
	"StratumDB/pager"
	checkpoint "StratumDB/storage_engine/checkpoint_manager"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type StorageEngine struct {
	Tree              *bplus.BPlusTree
	Store             pager.Store
	CheckpointManager *checkpoint.CheckpointManager // nil for the memory backend

	fileStore *pager.FileStore    // nil for the memory backend
	cache     *pager.CachingStore // nil when the read cache is disabled
	registry  *prometheus.Registry

	cfg *config.Config
	log zerolog.Logger

	// mutations since the last checkpoint
	mutations int
	closed    bool
	mu        sync.RWMutex
}

// KV is one entry returned by Scan.
type KV struct {
	Key   []byte
	Value []byte
}

// EngineStats combines the tree and store statistics.
type EngineStats struct {
	Index         string
	Tree          bplus.Stats
	File          *pager.FileStoreStats
	CacheHitRatio float64
	Mutations     int
}
