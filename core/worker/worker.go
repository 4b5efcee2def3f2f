package worker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/adalundhe/semhash/core/corpus"
	"github.com/adalundhe/semhash/core/tagging"
	"github.com/adalundhe/semhash/core/vectorstore"
)

// maxLineSize bounds a single inbound message; init messages carry whole corpora.
const maxLineSize = 64 << 20

// Options holds the defaults applied to messages that omit a field.
type Options struct {
	DefaultTop   int
	DefaultAlpha float64
	DefaultTags  int

	// CacheMaxCost is the number of query results kept; 0 disables caching.
	CacheMaxCost int64
	CacheTTL     time.Duration
}

// DefaultOptions mirrors the store and tagging defaults.
func DefaultOptions() Options {
	return Options{
		DefaultTop:   vectorstore.DefaultTop,
		DefaultAlpha: vectorstore.DefaultAlpha,
		DefaultTags:  tagging.DefaultMax,
		CacheMaxCost: 4096,
		CacheTTL:     5 * time.Minute,
	}
}

// Worker dispatches protocol messages against a vector store.
type Worker struct {
	store   *vectorstore.Store
	opts    Options
	results *resultCache

	mu          sync.RWMutex
	initialized bool
}

// New wraps store. Searches fail with not_initialized until the first init
// message, even if store already holds documents.
func New(store *vectorstore.Store, opts Options) (*Worker, error) {
	if opts.DefaultTop <= 0 {
		opts.DefaultTop = vectorstore.DefaultTop
	}
	if opts.DefaultTags <= 0 {
		opts.DefaultTags = tagging.DefaultMax
	}

	results, err := newResultCache(opts.CacheMaxCost, opts.CacheTTL)
	if err != nil {
		return nil, err
	}
	return &Worker{store: store, opts: opts, results: results}, nil
}

// Handle processes one message and returns its reply. It never panics on
// well-formed messages; failures are reported as error responses.
func (w *Worker) Handle(ctx context.Context, msg Message) Response {
	start := time.Now()
	resp := w.dispatch(ctx, msg)

	slog.Debug("message handled",
		slog.String("type", string(msg.Type)),
		slog.String("response", string(resp.Type)),
		slog.Duration("elapsed", time.Since(start)))
	return resp
}

func (w *Worker) dispatch(ctx context.Context, msg Message) Response {
	switch msg.Type {
	case TypeInit:
		return w.handleInit(ctx, msg)
	case TypeSearch, TypeHybrid:
		return w.handleSearch(ctx, msg)
	case TypeTags:
		return w.handleTags(msg)
	case TypePing:
		return Response{Type: TypePong}
	default:
		return errorResponse(ErrCodeUnknownType)
	}
}

func (w *Worker) handleInit(ctx context.Context, msg Message) Response {
	docs := slices.Clone(msg.Documents)
	corpus.AssignIDs(docs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.store.AddDocuments(ctx, docs...); err != nil {
		return errorResponse(err.Error())
	}
	w.initialized = true
	w.results.clear()

	count := len(docs)
	return Response{Type: TypeInited, Count: &count}
}

func (w *Worker) handleSearch(ctx context.Context, msg Message) Response {
	// Held for the whole lookup so an init cannot interleave between
	// computing results and caching them.
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.initialized {
		return errorResponse(ErrCodeNotInitialized)
	}

	top := msg.Top
	if top <= 0 {
		top = w.opts.DefaultTop
	}

	if msg.Type == TypeSearch {
		key := resultKey(msg.Type, msg.Query, top, 0)
		results, ok := w.results.get(key)
		if !ok {
			results = w.store.Search(msg.Query, top)
			w.results.set(key, results)
		}
		return Response{Type: TypeSearchResult, Query: msg.Query, Results: results}
	}

	alpha := w.opts.DefaultAlpha
	if msg.Alpha != nil {
		alpha = *msg.Alpha
	}

	key := resultKey(msg.Type, msg.Query, top, alpha)
	results, ok := w.results.get(key)
	if !ok {
		hybrid, err := w.store.HybridSearch(ctx, msg.Query, top, alpha)
		if err != nil {
			return errorResponse(err.Error())
		}
		results = hybrid
		w.results.set(key, results)
	}
	return Response{Type: TypeHybridResult, Query: msg.Query, Results: results}
}

func (w *Worker) handleTags(msg Message) Response {
	limit := msg.Max
	if limit <= 0 {
		limit = w.opts.DefaultTags
	}
	return Response{Type: TypeTagsResult, Tags: tagging.ExtractTags(msg.Text, limit)}
}

// Serve reads newline-delimited JSON messages from r and writes one JSON
// reply per message to out. Blank lines are skipped and malformed lines get
// a malformed_message error. Serve returns nil at EOF and ctx.Err() once
// ctx is done; a blocked read is only noticed when the next line arrives.
func (w *Worker) Serve(ctx context.Context, r io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var msg Message
		var resp Response
		if err := json.Unmarshal(line, &msg); err != nil {
			slog.Warn("malformed message", slog.String("error", err.Error()))
			resp = errorResponse(ErrCodeMalformed)
		} else {
			resp = w.Handle(ctx, msg)
		}

		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read messages: %w", err)
	}
	return nil
}

// Close releases the result cache.
func (w *Worker) Close() {
	w.results.close()
}
