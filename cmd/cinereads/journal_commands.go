package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cinereads/internal/journal"
)

func newJournalCommand(ctx *commandContext) *cobra.Command {
	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the lookup journal",
	}

	journalCmd.AddCommand(newJournalRecentCommand(ctx))
	journalCmd.AddCommand(newJournalStatsCommand(ctx))
	journalCmd.AddCommand(newJournalPruneCommand(ctx))

	return journalCmd
}

func newJournalRecentCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recent lookups",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openJournal(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read journal: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "Journal is empty")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				score := ""
				if rec.Score > 0 {
					score = strconv.FormatFloat(rec.Score, 'f', 1, 64)
				}
				rows = append(rows, []string{
					rec.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					rec.Query,
					rec.Strategy,
					string(rec.Outcome),
					score,
					rec.Duration.Round(time.Millisecond).String(),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "Query", "Strategy", "Outcome", "Score", "Duration"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum records to show")
	return cmd
}

func newJournalStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show lookup counts per outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openJournal(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := store.CountByOutcome(cmd.Context())
			if err != nil {
				return fmt.Errorf("read journal: %w", err)
			}

			outcomes := make([]string, 0, len(counts))
			for outcome := range counts {
				outcomes = append(outcomes, string(outcome))
			}
			sort.Strings(outcomes)

			rows := make([][]string, 0, len(outcomes))
			for _, outcome := range outcomes {
				rows = append(rows, []string{outcome, strconv.Itoa(counts[journal.Outcome(outcome)])})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Outcome", "Lookups"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newJournalPruneCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete journal records older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				days = cfg.Cache.JournalRetentionDays
			}
			if days <= 0 {
				return fmt.Errorf("retention must be positive; pass --days or set journal_retention_days")
			}

			store, err := openJournal(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context(), time.Duration(days)*24*time.Hour)
			if err != nil {
				return fmt.Errorf("prune journal: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d records older than %d days\n", removed, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Retention window in days (defaults to journal_retention_days)")
	return cmd
}

func openJournal(ctx *commandContext) (*journal.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := journal.Open(cfg.Paths.JournalPath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return store, nil
}
