package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"streamfinder/internal/api"
	"streamfinder/internal/history"
	"streamfinder/internal/streams"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var title string
	var originalTitle string
	var year int

	cmd := &cobra.Command{
		Use:   "resolve <movie|series> <tmdb-id>",
		Short: "Resolve playable streams for a TMDB id",
		Long: `Resolve looks up the canonical record on TMDB, queries both catalogs
concurrently and prints the merged episode list.

--title, --original-title and --year override the TMDB record; without a TMDB
key they are the only names the search-based catalog can use.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := streams.ParseMediaType(args[0]); !ok {
				return fmt.Errorf("unsupported media type %q (use movie or series)", args[0])
			}
			if year < 0 {
				return fmt.Errorf("--year must not be negative")
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			return ctx.withService(cmd, logger, nil, func(svc *api.StreamService) error {
				res, err := svc.Resolve(cmd.Context(), api.ResolveRequest{
					MediaType:     args[0],
					ID:            args[1],
					Title:         title,
					OriginalTitle: originalTitle,
					Year:          year,
					Origin:        history.OriginCLI,
				})
				if err != nil {
					return err
				}
				if res.CanonicalErr != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: canonical lookup failed: %v\n", res.CanonicalErr)
				}
				if jsonOutput {
					return writeJSON(cmd, api.FromResolution(res))
				}
				out := cmd.OutOrStdout()
				if isTerminal(out) {
					renderResolutionTable(out, res)
				} else {
					renderResolutionPlain(out, res)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	cmd.Flags().StringVar(&title, "title", "", "Localized title to search with")
	cmd.Flags().StringVar(&originalTitle, "original-title", "", "Original title to search with")
	cmd.Flags().IntVar(&year, "year", 0, "Release year used for candidate matching")
	return cmd
}

func describeCanonical(record streams.CanonicalRecord) string {
	var b strings.Builder
	b.WriteString(dashIfEmpty(record.Title))
	if record.OriginalTitle != "" && record.OriginalTitle != record.Title {
		b.WriteString(" / ")
		b.WriteString(record.OriginalTitle)
	}
	if record.ReleaseYear > 0 {
		fmt.Fprintf(&b, " (%d)", record.ReleaseYear)
	}
	fmt.Fprintf(&b, " [%s %s]", record.MediaType, dashIfEmpty(record.ID))
	return b.String()
}

func renderResolutionTable(out io.Writer, res api.Resolution) {
	rows := make([][]string, 0, res.Result.Total())
	for i, ep := range res.Result.All {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			string(ep.Source()),
			ep.ServerName,
			ep.Name,
			dashIfEmpty(ep.StreamURL),
		})
	}
	fmt.Fprintln(out, renderTable(tableSpec{
		Title:     describeCanonical(res.Canonical),
		Headers:   []string{"#", "Source", "Server", "Episode", "Stream"},
		Aligns:    []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
		MaxWidths: []int{0, 0, 24, 24, 80},
	}, rows))
	fmt.Fprintf(out, "%d episodes (phimapi %d, ophim %d) in %s\n",
		res.Result.Total(), len(res.Result.SourceA), len(res.Result.SourceB), res.Elapsed.Round(time.Millisecond))
}

// renderResolutionPlain prints one tab-separated line per episode:
// source, server, episode, stream URL.
func renderResolutionPlain(out io.Writer, res api.Resolution) {
	for _, ep := range res.Result.All {
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", ep.Source(), ep.ServerName, ep.Name, ep.StreamURL)
	}
}
