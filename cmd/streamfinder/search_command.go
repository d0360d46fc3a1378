package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"streamfinder/internal/api"
	"streamfinder/internal/httpx"
	"streamfinder/internal/identification/tmdb"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var useTMDB bool
	var year int

	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search the ophim catalog (or TMDB with --tmdb)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := strings.TrimSpace(strings.Join(args, " "))
			if keyword == "" {
				return fmt.Errorf("keyword must not be empty")
			}
			if useTMDB {
				return runTMDBSearch(cmd, ctx, keyword, year, jsonOutput)
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			return ctx.withService(cmd, logger, nil, func(svc *api.StreamService) error {
				candidates, err := svc.Search(cmd.Context(), keyword)
				if err != nil {
					return fmt.Errorf("search %q: %w", keyword, err)
				}
				converted := api.FromCandidates(candidates)
				if jsonOutput {
					return writeJSON(cmd, api.SearchResponse{Keyword: keyword, Candidates: converted})
				}
				rows := make([][]string, 0, len(converted))
				for _, c := range converted {
					rows = append(rows, []string{c.Slug, c.Name, dashIfEmpty(c.OriginName), yearText(c.Year), dashIfEmpty(c.TMDBID)})
				}
				printRows(cmd, tableSpec{
					Title:   "ophim: " + keyword,
					Headers: []string{"Slug", "Name", "Original", "Year", "TMDB"},
					Aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				}, rows)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&useTMDB, "tmdb", false, "Search TMDB instead of the ophim catalog")
	cmd.Flags().IntVar(&year, "year", 0, "Filter TMDB results by year")
	return cmd
}

func runTMDBSearch(cmd *cobra.Command, ctx *commandContext, keyword string, year int, jsonOutput bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireTMDB(); err != nil {
		return err
	}
	settings := cfg.SourceSettings()
	client, err := tmdb.New(settings.TMDBAPIKey, settings.TMDBBaseURL, settings.TMDBLanguage,
		tmdb.WithHTTPClient(httpx.New(httpx.Options{Timeout: settings.Timeout, UserAgent: settings.UserAgent})))
	if err != nil {
		return err
	}
	resp, err := client.SearchMulti(cmd.Context(), keyword, year)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd, resp)
	}
	rows := make([][]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.MediaType,
			r.DisplayTitle(),
			dashIfEmpty(r.DisplayOriginalTitle()),
			dashIfEmpty(r.Date()),
		})
	}
	printRows(cmd, tableSpec{
		Title:   "tmdb: " + keyword,
		Headers: []string{"ID", "Type", "Title", "Original", "Date"},
		Aligns:  []columnAlignment{alignRight},
	}, rows)
	return nil
}

// printRows renders a table on terminals and tab-separated lines otherwise.
func printRows(cmd *cobra.Command, spec tableSpec, rows [][]string) {
	out := cmd.OutOrStdout()
	if isTerminal(out) {
		fmt.Fprintln(out, renderTable(spec, rows))
		return
	}
	for _, row := range rows {
		fmt.Fprintln(out, strings.Join(row, "\t"))
	}
}

func yearText(year int) string {
	if year <= 0 {
		return "-"
	}
	return strconv.Itoa(year)
}
