// dump_sample builds a small sample index and writes its dump, statistics and
// metrics to cmd/sample_run_output.txt. Run from repo root: go run ./cmd/dump_sample
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"StratumDB/config"
	storageengine "StratumDB/storage_engine"

	"github.com/rs/zerolog"
)

const outputFile = "cmd/sample_run_output.txt"

// DumpSample writes count sample entries into a fresh store under dir and
// dumps the resulting tree to w, once after the checkpoint and once after a
// few removals.
func DumpSample(w io.Writer, dir string, count int) error {
	cfg := config.DefaultConfig()
	cfg.Index.Name = "sample"
	cfg.Index.BranchingFactor = 4
	cfg.Index.RetentionQueueCapacity = 16
	cfg.Store.Path = filepath.Join(dir, "sample.db")
	cfg.Metrics.Enabled = true

	se, err := storageengine.NewStorageEngine(cfg, zerolog.Nop())
	if err != nil {
		return err
	}
	defer se.Close()

	for i := 0; i < count; i++ {
		k := fmt.Sprintf("S%03d", i)
		if err := se.Put([]byte(k), []byte("student "+k)); err != nil {
			return err
		}
	}
	if _, err := se.Checkpoint(); err != nil {
		return err
	}
	fmt.Fprintln(w, "========== AFTER INSERTS ==========")
	if err := se.Inspect(w); err != nil {
		return err
	}

	for i := 0; i < count; i += 3 {
		if _, err := se.Delete([]byte(fmt.Sprintf("S%03d", i))); err != nil {
			return err
		}
	}
	if _, err := se.Checkpoint(); err != nil {
		return err
	}
	fmt.Fprintln(w, "\n========== AFTER REMOVING EVERY THIRD KEY ==========")
	if err := se.Inspect(w); err != nil {
		return err
	}

	stats := se.Stats()
	fmt.Fprintln(w, "\n========== STATS ==========")
	fmt.Fprintf(w, "entries=%d height=%d resident=%d queue=%d/%d\n",
		stats.Tree.Entries, stats.Tree.Height, stats.Tree.ResidentNodes,
		stats.Tree.RetentionQueueLen, stats.Tree.RetentionQueueCapacity)
	if stats.File != nil {
		fmt.Fprintf(w, "file size=%d records=%d freed=%d\n",
			stats.File.Size, stats.File.Records, stats.File.FreedBytes)
	}

	fmt.Fprintln(w, "\n========== METRICS ==========")
	return se.WriteMetrics(w)
}

func main() {
	outPath := outputFile
	// If run from cmd/dump_sample, output next to binary
	if _, err := os.Stat("cmd"); os.IsNotExist(err) {
		outPath = "sample_run_output.txt"
	}

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	dir, err := os.MkdirTemp("", "stratum-sample")
	if err != nil {
		fmt.Fprintf(os.Stderr, "temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	if err := DumpSample(f, dir, 20); err != nil {
		fmt.Fprintf(f, "sample run failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "sample run failed: %v\n", err)
		return
	}
	fmt.Printf("Output written to %s\n", outPath)
}
