// Seed program: fills an index with sequential sample keys and checkpoints it.
// Run: go run ./cmd/seed --path databases/demo.db --count 100000
// Then inspect: go run ./cmd/inspect_idx databases/demo.db
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"StratumDB/config"
	"StratumDB/logging"
	storageengine "StratumDB/storage_engine"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

const defaultPath = "databases/demo.db"

// SeedOptions controls one seeding run.
type SeedOptions struct {
	Count           int
	BranchingFactor int
	Compression     string
	// Fresh removes an existing store first.
	Fresh bool
}

// Key returns the i-th sample key. Keys sort in insertion order.
func Key(i int) []byte {
	return []byte(fmt.Sprintf("user:%08d", i))
}

// Value returns the i-th sample value.
func Value(i int) []byte {
	return []byte(fmt.Sprintf(`{"id":%d,"name":"user-%d"}`, i, i))
}

// Seed inserts opts.Count sample entries into the store at path.
func Seed(path string, opts SeedOptions) (storageengine.EngineStats, error) {
	if opts.Fresh {
		os.Remove(path)
		os.Remove(path + ".checkpoint.json")
	}
	cfg := config.DefaultConfig()
	cfg.Index.Name = filepath.Base(path)
	cfg.Store.Path = path
	if opts.BranchingFactor != 0 {
		cfg.Index.BranchingFactor = opts.BranchingFactor
	}
	if opts.Compression != "" {
		cfg.Index.Compression = opts.Compression
	}
	cfg.Logging.Level = "warn"

	log, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return storageengine.EngineStats{}, err
	}
	defer closer.Close()

	se, err := storageengine.NewStorageEngine(cfg, log)
	if err != nil {
		return storageengine.EngineStats{}, err
	}
	for i := 0; i < opts.Count; i++ {
		if err := se.Put(Key(i), Value(i)); err != nil {
			se.Close()
			return storageengine.EngineStats{}, err
		}
	}
	if _, err := se.Checkpoint(); err != nil {
		se.Close()
		return storageengine.EngineStats{}, err
	}
	stats := se.Stats()
	return stats, se.Close()
}

func seedCommand() *cobra.Command {
	var (
		path string
		opts SeedOptions
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill an index with sample entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir := filepath.Dir(path); dir != "" {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return err
				}
			}
			since := time.Now()
			stats, err := Seed(path, opts)
			if err != nil {
				return err
			}
			dur := time.Since(since)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "seeded %s entries in %s (%s entries/s)\n",
				humanize.Comma(int64(opts.Count)), dur.Round(time.Millisecond),
				humanize.Comma(int64(float64(opts.Count)/dur.Seconds())))
			fmt.Fprintf(out, "index:  %s, height %d, %s entries\n",
				path, stats.Tree.Height, humanize.Comma(stats.Tree.Entries))
			if stats.File != nil {
				fmt.Fprintf(out, "file:   %s, %s records, %s freed\n",
					humanize.Bytes(uint64(stats.File.Size)),
					humanize.Comma(int64(stats.File.Records)),
					humanize.Bytes(stats.File.FreedBytes))
			}
			fmt.Fprintln(out, "\nDone. Inspect: go run ./cmd/inspect_idx", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", defaultPath, "store file")
	cmd.Flags().IntVar(&opts.Count, "count", 10_000, "number of entries")
	cmd.Flags().IntVar(&opts.BranchingFactor, "bf", 0, "branching factor, 0 for the default")
	cmd.Flags().StringVar(&opts.Compression, "compression", "", "none or snappy")
	cmd.Flags().BoolVar(&opts.Fresh, "fresh", true, "remove an existing store first")
	return cmd
}

func main() {
	if err := seedCommand().Execute(); err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		os.Exit(1)
	}
}
