package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"StratumDB/config"
	"StratumDB/logging"
	storageengine "StratumDB/storage_engine"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func rootCommand() *cobra.Command {
	var (
		configPath string
		storePath  string
		memory     bool
		readOnly   bool
	)
	root := &cobra.Command{
		Use:   "stratumdb",
		Short: "Interactive shell over a StratumDB index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultConfig()
			if configPath != "" {
				var err error
				if cfg, err = config.LoadConfig(configPath); err != nil {
					return err
				}
			}
			if storePath != "" {
				cfg.Store.Path = storePath
			}
			if memory {
				cfg.Store.Backend = "memory"
			}
			if readOnly {
				cfg.Store.ReadOnly = true
			}

			log, closer, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer closer.Close()

			se, err := storageengine.NewStorageEngine(cfg, log)
			if err != nil {
				return err
			}
			defer se.Close()

			return repl(cmd.Context(), se, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	root.Flags().StringVar(&storePath, "path", "", "store file, overrides the config")
	root.Flags().BoolVar(&memory, "memory", false, "use an in-memory store")
	root.Flags().BoolVar(&readOnly, "read-only", false, "open the index read-only")
	return root
}

const help = `commands:
  put <key> <value>      insert or replace
  get <key>              point lookup
  del <key>              remove
  mget <key>...          parallel batch lookup
  scan [from] [to] [n]   range scan, "-" for an open bound
  checkpoint             persist and commit
  evict                  drain the retention queue
  stats                  tree and store statistics
  dump                   print every node
  metrics                prometheus metrics
  exit`

func repl(ctx context.Context, se *storageengine.StorageEngine, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "db> ")

		if !scanner.Scan() { // Ctrl+D pressed
			fmt.Fprintln(out)
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if strings.EqualFold(fields[0], "exit") {
			return nil
		}
		if err := execute(ctx, se, fields, out); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func execute(ctx context.Context, se *storageengine.StorageEngine, fields []string, out io.Writer) error {
	args := fields[1:]
	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("%s needs %d argument(s)", fields[0], n)
		}
		return nil
	}

	switch strings.ToLower(fields[0]) {
	case "help":
		fmt.Fprintln(out, help)
	case "put":
		if err := need(2); err != nil {
			return err
		}
		if err := se.Put([]byte(args[0]), []byte(strings.Join(args[1:], " "))); err != nil {
			return err
		}
		fmt.Fprintln(out, "OK")
	case "get":
		if err := need(1); err != nil {
			return err
		}
		v, ok, err := se.Get([]byte(args[0]))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(out, "%s not found\n", args[0])
			return nil
		}
		fmt.Fprintf(out, "%s --> %s\n", args[0], v)
	case "del":
		if err := need(1); err != nil {
			return err
		}
		found, err := se.Delete([]byte(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted: %v\n", found)
	case "mget":
		if err := need(1); err != nil {
			return err
		}
		keys := make([][]byte, len(args))
		for i, a := range args {
			keys[i] = []byte(a)
		}
		res, err := se.MultiGet(ctx, keys)
		if err != nil {
			return err
		}
		for i, a := range args {
			if res.Found[i] {
				fmt.Fprintf(out, "%s --> %s\n", a, res.Values[i])
			} else {
				fmt.Fprintf(out, "%s not found\n", a)
			}
		}
	case "scan":
		var from, to []byte
		limit := 0
		if len(args) > 0 && args[0] != "-" {
			from = []byte(args[0])
		}
		if len(args) > 1 && args[1] != "-" {
			to = []byte(args[1])
		}
		if len(args) > 2 {
			n, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("bad limit %q", args[2])
			}
			limit = n
		}
		kvs, err := se.Scan(from, to, limit)
		if err != nil {
			return err
		}
		for _, kv := range kvs {
			fmt.Fprintf(out, "%s --> %s\n", kv.Key, kv.Value)
		}
		fmt.Fprintf(out, "(%d entries)\n", len(kvs))
	case "checkpoint":
		addr, err := se.Checkpoint()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "checkpoint at %s\n", addr)
	case "evict":
		if err := se.EvictAll(); err != nil {
			return err
		}
		fmt.Fprintln(out, "OK")
	case "stats":
		printStats(out, se.Stats())
	case "dump":
		return se.Inspect(out)
	case "metrics":
		return se.WriteMetrics(out)
	default:
		return fmt.Errorf("unknown command %q, try help", fields[0])
	}
	return nil
}

func printStats(out io.Writer, s storageengine.EngineStats) {
	fmt.Fprintf(out, "index:          %s\n", s.Index)
	fmt.Fprintf(out, "entries:        %s\n", humanize.Comma(s.Tree.Entries))
	fmt.Fprintf(out, "height:         %d (branching factor %d)\n", s.Tree.Height, s.Tree.BranchingFactor)
	fmt.Fprintf(out, "queue:          %d/%d, %d distinct\n",
		s.Tree.RetentionQueueLen, s.Tree.RetentionQueueCapacity, s.Tree.DistinctOnQueue)
	fmt.Fprintf(out, "resident nodes: %s\n", humanize.Comma(int64(s.Tree.ResidentNodes)))
	fmt.Fprintf(out, "checkpoint:     %s (%d pending frees, %d mutations since)\n",
		s.Tree.Checkpoint, s.Tree.PendingFrees, s.Mutations)
	if s.Tree.Poisoned {
		fmt.Fprintln(out, "state:          POISONED")
	}
	if s.File != nil {
		fmt.Fprintf(out, "file:           %s, %s, %s records, %s freed\n",
			s.File.Path, humanize.Bytes(uint64(s.File.Size)),
			humanize.Comma(int64(s.File.Records)), humanize.Bytes(s.File.FreedBytes))
	}
	if s.CacheHitRatio > 0 {
		fmt.Fprintf(out, "cache hits:     %.1f%%\n", s.CacheHitRatio*100)
	}
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		os.Exit(1)
	}
}
