package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kamusis/answerhub/internal/catalog"
	"github.com/kamusis/answerhub/internal/match"
)

var (
	flagMatchK        int
	flagMatchMinScore float64
)

var matchCmd = &cobra.Command{
	Use:   "match <question>",
	Short: "Rank catalog entries by similarity to a question",
	Long: `Show which catalog entries a question is closest to, without calling
the extractor or any handler. The first line is the entry 'ask' would use.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().IntVar(&flagMatchK, "k", 5, "Number of results to show (0 = all)")
	matchCmd.Flags().Float64Var(&flagMatchMinScore, "min-score", 0, "Hide results below this cosine similarity")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}
	m, err := match.New(cat)
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")
	results, err := m.Rank(query, flagMatchK)
	if err != nil {
		return err
	}
	if flagMatchMinScore > 0 {
		kept := results[:0]
		for _, r := range results {
			if r.Score >= flagMatchMinScore {
				kept = append(kept, r)
			}
		}
		results = kept
	}
	printMatchResults(cmd, query, results)
	return nil
}

func printMatchResults(cmd *cobra.Command, query string, results []match.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nanswerhub match %q\n\n", query)
	fmt.Fprintf(out, "Results (%d found):\n", len(results))
	if len(results) == 0 {
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, r := range results {
		handler := ""
		if r.Handler != r.Key {
			handler = "→ " + r.Handler
		}
		fmt.Fprintf(w, "  %d.\t[%.3f]\t%s\t%s\n", i+1, r.Score, r.Key, handler)
		fmt.Fprintf(w, "  - %s\n", strings.TrimSpace(r.Description))
	}
	_ = w.Flush()
}
