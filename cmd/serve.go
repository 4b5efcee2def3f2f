package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adalundhe/semhash/core/config"
	"github.com/adalundhe/semhash/core/corpus"
	"github.com/adalundhe/semhash/core/semhash"
	"github.com/adalundhe/semhash/core/vectorstore"
	"github.com/adalundhe/semhash/core/worker"
)

var (
	serveCorpus      string
	serveWatchConfig bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer JSON messages on stdin, one per line",
	Long: `Run the search worker. Each line on stdin is a JSON message and each
reply is written as one JSON line on stdout. Logs go to stderr.

Messages:
  {"type":"init","documents":[{"id":"a","text":"..."}]}
  {"type":"search","query":"...","top":5}
  {"type":"hybrid","query":"...","top":5,"alpha":0.6}
  {"type":"tags","text":"...","max":8}
  {"type":"ping"}

Examples:
  semhash serve < requests.ndjson
  semhash serve --corpus papers.json --watch-config`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveCorpus, "corpus", "c", "", "Corpus to load before reading messages")
	serveCmd.Flags().BoolVar(&serveWatchConfig, "watch-config", false, "Reload the log level when config files change")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := currentConfig()
	w, err := newWorker(cfg)
	if err != nil {
		return err
	}
	defer w.Close()

	if serveCorpus != "" {
		if err := preloadCorpus(ctx, w, cfg, serveCorpus); err != nil {
			return err
		}
	}

	if serveWatchConfig && configManager != nil {
		configManager.OnChange(applyLogLevel)
		if err := configManager.Watch(ctx); err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		defer configManager.Close()
	}

	slog.Info("worker ready")
	return w.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

func newWorker(cfg *config.Config) (*worker.Worker, error) {
	embedder, err := semhash.NewCachedEmbedder(semhash.NewNgramEmbedder(), cfg.Cache.QueryVectors)
	if err != nil {
		return nil, err
	}

	return worker.New(vectorstore.New(embedder), worker.Options{
		DefaultTop:   cfg.Search.DefaultTop,
		DefaultAlpha: cfg.Search.HybridAlpha,
		DefaultTags:  cfg.Tags.Max,
		CacheMaxCost: cfg.Cache.ResultsMaxCost,
		CacheTTL:     cfg.Cache.ResultsTTL,
	})
}

// preloadCorpus sends the corpus through the worker as an init message so
// later searches do not need one.
func preloadCorpus(ctx context.Context, w *worker.Worker, cfg *config.Config, path string) error {
	docs, err := corpus.Load(ctx, path, corpus.ScanConfig{
		Include:     cfg.Corpus.Include,
		Exclude:     cfg.Corpus.Exclude,
		MaxFileSize: cfg.Corpus.MaxFileSize,
	})
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	resp := w.Handle(ctx, worker.Message{Type: worker.TypeInit, Documents: docs})
	if resp.Type == worker.TypeError {
		return fmt.Errorf("preload corpus: %s", resp.Error)
	}
	slog.Info("corpus loaded", slog.String("path", path), slog.Int("documents", len(docs)))
	return nil
}
