package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cinereads/internal/cachekey"
	"cinereads/internal/diskcache"
	"cinereads/internal/logging"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the metadata cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCacheSweepCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts and sizes per namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCacheStore(ctx)
			if err != nil {
				return err
			}
			stats := store.Stats()
			out := cmd.OutOrStdout()

			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(stats)
			}

			names := make([]string, 0, len(stats.ByNamespace))
			for name := range stats.ByNamespace {
				names = append(names, name)
			}
			sort.Strings(names)

			rows := make([][]string, 0, len(names)+1)
			for _, name := range names {
				ns := stats.ByNamespace[name]
				rows = append(rows, []string{
					name,
					strconv.Itoa(ns.Entries),
					humanize.Bytes(uint64(ns.TotalBytes)),
				})
			}
			rows = append(rows, []string{
				"total",
				strconv.Itoa(stats.Entries),
				humanize.Bytes(uint64(stats.TotalBytes)),
			})
			fmt.Fprintln(out, renderTable(
				[]string{"Namespace", "Entries", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			if stats.TotalFSBytes > 0 {
				fmt.Fprintf(out, "Disk: %s free of %s\n",
					humanize.Bytes(stats.FreeBytes), humanize.Bytes(stats.TotalFSBytes))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit stats as JSON")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cache entries, optionally for a single namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCacheStore(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if namespace == "" {
				if err := store.ClearAll(); err != nil {
					return fmt.Errorf("clear cache: %w", err)
				}
				fmt.Fprintln(out, "Cleared all cache namespaces")
				return nil
			}
			ns := cachekey.Namespace(namespace)
			if !ns.Valid() {
				return fmt.Errorf("unknown cache namespace %q", namespace)
			}
			if err := store.Clear(ns); err != nil {
				return fmt.Errorf("clear namespace %s: %w", namespace, err)
			}
			fmt.Fprintf(out, "Cleared namespace %s\n", namespace)
			return nil
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Namespace to clear (recommendations, books, taste_profiles)")
	return cmd
}

func newCacheSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired and malformed cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCacheStore(ctx)
			if err != nil {
				return err
			}
			removed := store.Sweep()
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries\n", removed)
			return nil
		},
	}
}

func openCacheStore(ctx *commandContext) (*diskcache.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := diskcache.NewStore(cfg.Paths.CacheDir, logging.NewNop())
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}
	return store, nil
}
