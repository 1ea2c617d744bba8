package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/etg-extract/internal/config"
	"github.com/mvp-joe/etg-extract/internal/search"
)

var (
	searchLimitFlag int
	searchJSONFlag  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search pickup names and descriptions",
	Long: `Search indexes every pickup's translated name and short and long
descriptions, plus guns without an encounter entry, and runs a bleve query.

Query syntax supports field scoping (name:, short:, long:, kind:), required
(+) and excluded (-) terms, "phrases", wildcards (pist*) and fuzzy terms
(pistl~1). kind is one of gun, passive, active or other.

Examples:
  etgx search pistol
  etgx search '+kind:passive armor'
  etgx search 'name:"rusty sidearm"'
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimitFlag, "limit", "n", 15, "Maximum number of results (1-100)")
	searchCmd.Flags().BoolVar(&searchJSONFlag, "json", false, "Print results as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	svc, err := openService(ctx, config.RepoEncounters, config.RepoGuns)
	if err != nil {
		return err
	}

	idx, err := search.NewIndex(ctx, search.Documents(svc))
	if err != nil {
		return err
	}
	defer idx.Close()

	results, err := idx.Search(ctx, strings.Join(args, " "), searchLimitFlag)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if searchJSONFlag {
		return writeJSON(out, results)
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "No matches")
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(out, "%5d  %-8s %s  (%.2f)\n", r.ID, r.Kind, r.Name, r.Score)
		for _, h := range r.Highlights {
			fmt.Fprintf(out, "       %s\n", h)
		}
	}
	return nil
}
