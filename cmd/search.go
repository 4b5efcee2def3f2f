// This file implements the search and hybrid commands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/adalundhe/semhash/core/corpus"
	"github.com/adalundhe/semhash/core/semhash"
	"github.com/adalundhe/semhash/core/vectorstore"
)

// SearchMaxTop caps the number of results a command prints.
const SearchMaxTop = 100

var (
	searchCorpus  string
	searchTop     int
	searchJSON    bool
	searchInclude []string
	searchExclude []string

	hybridAlpha float64
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank corpus documents by TF-IDF similarity",
	Long: `Load a corpus and rank its documents by TF-IDF cosine similarity to the query.

The corpus is a JSON or YAML array of {id, text, meta} documents, or a
directory whose files each become a document.

Examples:
  semhash search --corpus papers.json "gene therapy"
  semhash search --corpus ./notes --include "*.md" --top 3 "crispr"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var hybridCmd = &cobra.Command{
	Use:   "hybrid <query>",
	Short: "Rank corpus documents by blended TF-IDF and n-gram similarity",
	Long: `Rank documents by alpha*tfidf + (1-alpha)*semantic, where semantic is the
cosine similarity of hashed character 4-gram vectors. The semantic part
tolerates misspellings and partial words that TF-IDF misses.

Examples:
  semhash hybrid --corpus papers.json "protien enginering"
  semhash hybrid --corpus papers.json --alpha 0.3 --json "capsid"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHybrid,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(hybridCmd)

	for _, c := range []*cobra.Command{searchCmd, hybridCmd} {
		c.Flags().StringVarP(&searchCorpus, "corpus", "c", "", "Corpus file (.json, .yaml) or directory")
		c.Flags().IntVarP(&searchTop, "top", "n", 0, "Maximum number of results (default from config)")
		c.Flags().BoolVar(&searchJSON, "json", false, "Output results as JSON")
		c.Flags().StringSliceVar(&searchInclude, "include", nil, "Glob patterns of files to include when the corpus is a directory")
		c.Flags().StringSliceVar(&searchExclude, "exclude", nil, "Glob patterns of files to exclude when the corpus is a directory")
		_ = c.MarkFlagRequired("corpus")
	}

	hybridCmd.Flags().Float64VarP(&hybridAlpha, "alpha", "a", -1, "TF-IDF weight in [0,1] (default from config)")
}

// loadedCorpus is a populated store plus document text for snippets.
type loadedCorpus struct {
	store *vectorstore.Store
	texts map[string]string
}

func loadCorpus(ctx context.Context, path string) (*loadedCorpus, error) {
	cfg := currentConfig()

	scan := corpus.ScanConfig{
		Include:     cfg.Corpus.Include,
		Exclude:     cfg.Corpus.Exclude,
		MaxFileSize: cfg.Corpus.MaxFileSize,
	}
	if len(searchInclude) > 0 {
		scan.Include = searchInclude
	}
	if len(searchExclude) > 0 {
		scan.Exclude = searchExclude
	}

	docs, err := corpus.Load(ctx, path, scan)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	embedder, err := semhash.NewCachedEmbedder(semhash.NewNgramEmbedder(), cfg.Cache.QueryVectors)
	if err != nil {
		return nil, err
	}
	store := vectorstore.New(embedder)
	if err := store.AddDocuments(ctx, docs...); err != nil {
		return nil, err
	}

	texts := make(map[string]string, len(docs))
	for _, d := range docs {
		texts[d.ID] = d.Text
	}
	return &loadedCorpus{store: store, texts: texts}, nil
}

// resolveTop applies the config default and SearchMaxTop.
func resolveTop(top int) int {
	if top <= 0 {
		top = currentConfig().Search.DefaultTop
	}
	return min(top, SearchMaxTop)
}

// resolveAlpha applies the config default when alpha is negative.
func resolveAlpha(alpha float64) (float64, error) {
	if alpha < 0 {
		return currentConfig().Search.HybridAlpha, nil
	}
	if alpha > 1 {
		return 0, fmt.Errorf("alpha must be within [0,1], got %v", alpha)
	}
	return alpha, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	query := strings.Join(args, " ")
	lc, err := loadCorpus(ctx, searchCorpus)
	if err != nil {
		return err
	}

	start := time.Now()
	results := lc.store.Search(query, resolveTop(searchTop))
	elapsed := time.Since(start)

	if searchJSON {
		return writeJSON(cmd.OutOrStdout(), searchOutput{Query: query, Results: results})
	}

	rows := make([]resultRow, len(results))
	for i, r := range results {
		rows[i] = resultRow{ID: r.ID, Score: r.Score, Text: lc.texts[r.ID]}
	}
	outputRichResults(cmd.OutOrStdout(), query, lc.store.Len(), elapsed, rows)
	return nil
}

func runHybrid(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	alpha, err := resolveAlpha(hybridAlpha)
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	lc, err := loadCorpus(ctx, searchCorpus)
	if err != nil {
		return err
	}

	start := time.Now()
	results, err := lc.store.HybridSearch(ctx, query, resolveTop(searchTop), alpha)
	if err != nil {
		return fmt.Errorf("hybrid search failed: %w", err)
	}
	elapsed := time.Since(start)

	if searchJSON {
		return writeJSON(cmd.OutOrStdout(), searchOutput{Query: query, Alpha: &alpha, Results: results})
	}

	rows := make([]resultRow, len(results))
	for i, r := range results {
		rows[i] = resultRow{
			ID:       r.ID,
			Score:    r.Score,
			Text:     lc.texts[r.ID],
			Detail:   fmt.Sprintf("tfidf %.4f  semantic %.4f", r.TfidfScore, r.SemanticScore),
			HasParts: true,
		}
	}
	outputRichResults(cmd.OutOrStdout(), query, lc.store.Len(), elapsed, rows)
	return nil
}

// searchOutput is the JSON output structure.
type searchOutput struct {
	Query   string   `json:"query"`
	Alpha   *float64 `json:"alpha,omitempty"`
	Results any      `json:"results"`
}

type resultRow struct {
	ID       string
	Score    float64
	Text     string
	Detail   string
	HasParts bool
}

// outputRichResults outputs ranked results with terminal formatting.
func outputRichResults(w io.Writer, query string, total int, elapsed time.Duration, rows []resultRow) {
	p := paletteFor(w)

	fmt.Fprintf(w, "%s%sSearch Results%s\n", p.bold, p.cyan, p.reset)
	fmt.Fprintf(w, "%sQuery:%s %s\n", p.gray, p.reset, query)
	fmt.Fprintf(w, "%sRanked:%s %d of %d documents in %v\n", p.gray, p.reset, len(rows), total, elapsed)
	fmt.Fprintln(w)

	if len(rows) == 0 {
		fmt.Fprintf(w, "%sNo documents loaded.%s\n", p.yellow, p.reset)
		return
	}

	for i, row := range rows {
		fmt.Fprintf(w, "%s%d.%s %s%s%s  %sScore:%s %.4f\n",
			p.yellow, i+1, p.reset,
			p.bold, row.ID, p.reset,
			p.gray, p.reset, row.Score)
		if row.HasParts {
			fmt.Fprintf(w, "   %s%s%s\n", p.gray, row.Detail, p.reset)
		}
		if snippet := extractSnippet(row.Text, 150); snippet != "" {
			fmt.Fprintf(w, "   %s\n", snippet)
		}
	}
}
