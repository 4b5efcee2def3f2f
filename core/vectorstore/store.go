// Package vectorstore provides an in-memory document store that ranks
// documents by TF-IDF similarity, hashed n-gram similarity, or a blend of both.
package vectorstore

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/adalundhe/semhash/core/semhash"
)

const (
	// DefaultTop is the number of results returned when top is not positive.
	DefaultTop = 5

	// DefaultAlpha weights TF-IDF against semantic similarity in HybridSearch.
	DefaultAlpha = 0.6
)

// Document is a unit of searchable text.
type Document struct {
	ID   string         `json:"id" yaml:"id"`
	Text string         `json:"text" yaml:"text"`
	Meta map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Result is a scored document reference.
type Result struct {
	ID    string         `json:"id"`
	Score float64        `json:"score"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// HybridResult carries both component scores alongside the blended score.
type HybridResult struct {
	Result
	TfidfScore    float64 `json:"tfidfScore"`
	SemanticScore float64 `json:"semScore"`
}

type storedDoc struct {
	Document
	terms    map[int]float64
	semantic []float32
}

// Store holds documents, their term counts and their semantic vectors.
// The vocabulary grows as documents are added; IDF weights are recomputed
// after every AddDocuments call. Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	embedder semhash.Embedder
	docs     []storedDoc
	vocab    map[string]int
	idf      []float64
}

// New creates an empty store. A nil embedder defaults to the n-gram embedder.
func New(embedder semhash.Embedder) *Store {
	if embedder == nil {
		embedder = semhash.NewNgramEmbedder()
	}
	return &Store{
		embedder: embedder,
		vocab:    make(map[string]int),
	}
}

// AddDocuments ingests docs and refreshes IDF weights.
func (s *Store) AddDocuments(ctx context.Context, docs ...Document) error {
	vectors := make([][]float32, len(docs))
	for i, d := range docs {
		vec, err := s.embedder.Embed(ctx, d.Text)
		if err != nil {
			return fmt.Errorf("embed document %q: %w", d.ID, err)
		}
		vectors[i] = vec
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, d := range docs {
		s.docs = append(s.docs, storedDoc{
			Document: d,
			terms:    s.countTerms(d.Text),
			semantic: vectors[i],
		})
	}
	s.recomputeIDF()

	slog.Debug("documents added",
		slog.Int("added", len(docs)),
		slog.Int("total", len(s.docs)),
		slog.Int("vocabulary", len(s.vocab)))
	return nil
}

// countTerms registers unseen tokens in the vocabulary. Caller holds s.mu.
func (s *Store) countTerms(text string) map[int]float64 {
	terms := make(map[int]float64)
	for _, tok := range Tokenize(text) {
		idx, ok := s.vocab[tok]
		if !ok {
			idx = len(s.vocab)
			s.vocab[tok] = idx
		}
		terms[idx]++
	}
	return terms
}

// recomputeIDF applies smoothed IDF: ln((N+1)/(df+1)) + 1. Caller holds s.mu.
func (s *Store) recomputeIDF() {
	df := make([]float64, len(s.vocab))
	for _, d := range s.docs {
		for idx := range d.terms {
			df[idx]++
		}
	}

	n := float64(len(s.docs))
	s.idf = make([]float64, len(s.vocab))
	for i := range s.idf {
		s.idf[i] = math.Log((n+1)/(df[i]+1)) + 1
	}
}

// Search ranks documents by TF-IDF cosine similarity to query.
func (s *Store) Search(query string, top int) []Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	qv := s.queryVector(query)
	results := make([]Result, 0, len(s.docs))
	for _, d := range s.docs {
		results = append(results, Result{
			ID:    d.ID,
			Score: denseCosine(qv, s.docVector(d)),
			Meta:  d.Meta,
		})
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return truncate(results, top)
}

// HybridSearch blends TF-IDF and semantic scores:
// alpha*tfidf + (1-alpha)*semantic.
func (s *Store) HybridSearch(ctx context.Context, query string, top int, alpha float64) ([]HybridResult, error) {
	semanticQ, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	qv := s.queryVector(query)
	results := make([]HybridResult, 0, len(s.docs))
	for _, d := range s.docs {
		tfidf := denseCosine(qv, s.docVector(d))
		sem := float64(semhash.Cosine(semanticQ, d.semantic))
		results = append(results, HybridResult{
			Result: Result{
				ID:    d.ID,
				Score: alpha*tfidf + (1-alpha)*sem,
				Meta:  d.Meta,
			},
			TfidfScore:    tfidf,
			SemanticScore: sem,
		})
	}

	slices.SortStableFunc(results, func(a, b HybridResult) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return truncate(results, top), nil
}

// SemanticVector returns the embedding the store uses for text.
func (s *Store) SemanticVector(ctx context.Context, text string) ([]float32, error) {
	return s.embedder.Embed(ctx, text)
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// VocabularySize returns the number of distinct indexed terms.
func (s *Store) VocabularySize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vocab)
}

// Reset drops all documents and the vocabulary.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = nil
	s.vocab = make(map[string]int)
	s.idf = nil
}

func (s *Store) queryVector(query string) []float64 {
	vec := make([]float64, len(s.vocab))
	for _, tok := range Tokenize(query) {
		if idx, ok := s.vocab[tok]; ok {
			vec[idx]++
		}
	}
	for i := range vec {
		vec[i] *= s.idf[i]
	}
	return vec
}

func (s *Store) docVector(d storedDoc) []float64 {
	vec := make([]float64, len(s.vocab))
	for idx, count := range d.terms {
		vec[idx] = count * s.idf[idx]
	}
	return vec
}

func denseCosine(a, b []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

func truncate[T any](results []T, top int) []T {
	if top <= 0 {
		top = DefaultTop
	}
	if len(results) > top {
		return results[:top]
	}
	return results
}
