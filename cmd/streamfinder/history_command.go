package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"streamfinder/internal/api"
	"streamfinder/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent resolutions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			return withHistoryStore(ctx, func(store *history.Store) error {
				entries, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, api.HistoryResponse{Entries: api.FromHistoryEntries(entries)})
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No resolutions recorded")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						e.CreatedAt.Local().Format(time.DateTime),
						string(e.MediaType),
						e.CanonicalID,
						dashIfEmpty(e.Title),
						strconv.Itoa(e.PhimAPICount),
						strconv.Itoa(e.OphimCount),
						e.Outcome,
						string(e.Origin),
					})
				}
				printRows(cmd, tableSpec{
					Headers: []string{"When", "Type", "ID", "Title", "PhimAPI", "Ophim", "Outcome", "Origin"},
					Aligns:  []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight},
				}, rows)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded resolutions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistoryStore(ctx, func(store *history.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d history entries\n", removed)
				return nil
			})
		},
	})
	return cmd
}

func withHistoryStore(ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}
