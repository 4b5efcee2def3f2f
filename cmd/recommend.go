package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adalundhe/semhash/core/corpus"
	"github.com/adalundhe/semhash/core/recommend"
)

var (
	recommendPapers string
	recommendTop    int
	recommendJSON   bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <paper-id>",
	Short: "Recommend papers with overlapping keywords",
	Long: `Rank papers by cosine similarity of their keyword count vectors to the
target paper. The papers file is a JSON or YAML array of
{id, title, abstract, year, keywords}.

Examples:
  semhash recommend --papers papers.yaml p-42
  semhash recommend --papers papers.json --top 10 --json p-42`,
	Args: cobra.ExactArgs(1),
	RunE: runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringVarP(&recommendPapers, "papers", "p", "", "Papers file (.json, .yaml)")
	recommendCmd.Flags().IntVarP(&recommendTop, "top", "n", 0, "Maximum number of recommendations (default from config)")
	recommendCmd.Flags().BoolVar(&recommendJSON, "json", false, "Output as JSON")
	_ = recommendCmd.MarkFlagRequired("papers")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	papers, err := corpus.LoadPapers(recommendPapers)
	if err != nil {
		return fmt.Errorf("load papers: %w", err)
	}

	target := args[0]
	recs := recommend.Recommend(papers, target, resolveTop(recommendTop))
	if recs == nil {
		return fmt.Errorf("paper %q not found in %s", target, recommendPapers)
	}

	if recommendJSON {
		return writeJSON(cmd.OutOrStdout(), recs)
	}

	titles := make(map[string]string, len(papers))
	for _, p := range papers {
		titles[p.ID] = p.Title
	}
	outputRecommendations(cmd.OutOrStdout(), target, recs, titles)
	return nil
}

func outputRecommendations(w io.Writer, target string, recs []recommend.Recommendation, titles map[string]string) {
	p := paletteFor(w)

	fmt.Fprintf(w, "%s%sRecommendations%s for %s\n", p.bold, p.cyan, p.reset, target)
	fmt.Fprintln(w)

	for i, r := range recs {
		fmt.Fprintf(w, "%s%d.%s %s%s%s  %sScore:%s %.4f\n",
			p.yellow, i+1, p.reset,
			p.bold, r.ID, p.reset,
			p.gray, p.reset, r.Score)
		if title := titles[r.ID]; title != "" {
			fmt.Fprintf(w, "   %s\n", title)
		}
		if len(r.Reasons) > 0 {
			fmt.Fprintf(w, "   %sshared:%s %s\n", p.gray, p.reset, strings.Join(r.Reasons, ", "))
		}
	}
}
