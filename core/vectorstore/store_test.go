package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/semhash/core/semhash"
)

func testCorpus() []Document {
	return []Document{
		{ID: "therapy", Text: "Gene therapy delivery vectors", Meta: map[string]any{"year": "2021"}},
		{ID: "protein", Text: "Protein engineering design"},
		{ID: "editing", Text: "Gene editing with CRISPR"},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(nil)
	require.NoError(t, s.AddDocuments(context.Background(), testCorpus()...))
	return s
}

func ids[T interface{ id() string }](results []T) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.id()
	}
	return out
}

func (r Result) id() string       { return r.ID }
func (r HybridResult) id() string { return r.ID }

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"a an to", []string{}},
		{"Hello, World! a an the CRISPR-Cas9", []string{"hello", "world", "the", "crispr", "cas9"}},
		{"Café résumé", []string{"caf", "sum"}},
		{"tabs\tand\nnewlines", []string{"tabs", "and", "newlines"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_AddDocuments(t *testing.T) {
	s := newTestStore(t)

	assert.Equal(t, 3, s.Len())
	// gene therapy delivery vectors protein engineering design editing with crispr
	assert.Equal(t, 10, s.VocabularySize())
}

func TestStore_IDF(t *testing.T) {
	s := newTestStore(t)

	gene := s.idf[s.vocab["gene"]]
	therapy := s.idf[s.vocab["therapy"]]

	assert.InDelta(t, math.Log(4.0/3.0)+1, gene, 1e-12)
	assert.InDelta(t, math.Log(4.0/2.0)+1, therapy, 1e-12)
	assert.Greater(t, therapy, gene)
}

func TestStore_IncrementalAdd(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddDocuments(ctx, Document{ID: "late", Text: "Gene regulation networks"}))

	assert.Equal(t, 4, s.Len())
	assert.InDelta(t, math.Log(5.0/4.0)+1, s.idf[s.vocab["gene"]], 1e-12)

	results := s.Search("regulation", 1)
	require.Len(t, results, 1)
	assert.Equal(t, "late", results[0].ID)
}

func TestStore_Search(t *testing.T) {
	s := newTestStore(t)

	results := s.Search("gene therapy", 5)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"therapy", "editing", "protein"}, ids(results))

	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Zero(t, results[2].Score)
	assert.Equal(t, "2021", results[0].Meta["year"])
}

func TestStore_SearchUnknownTermsKeepsInsertionOrder(t *testing.T) {
	s := newTestStore(t)

	results := s.Search("zebrafish", 5)
	assert.Equal(t, []string{"therapy", "protein", "editing"}, ids(results))
	for _, r := range results {
		assert.Zero(t, r.Score)
	}
}

func TestStore_SearchTop(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	for i := range 7 {
		require.NoError(t, s.AddDocuments(ctx, Document{ID: fmt.Sprintf("d%d", i), Text: "shared words here"}))
	}

	assert.Len(t, s.Search("shared", 0), DefaultTop)
	assert.Len(t, s.Search("shared", 2), 2)
	assert.Len(t, s.Search("shared", 100), 7)
}

func TestStore_SearchEmpty(t *testing.T) {
	s := New(nil)
	assert.Empty(t, s.Search("anything", 5))

	results, err := s.HybridSearch(context.Background(), "anything", 5, DefaultAlpha)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_HybridSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	results, err := s.HybridSearch(ctx, "gene therapy", 5, DefaultAlpha)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "therapy", results[0].ID)

	for _, r := range results {
		want := DefaultAlpha*r.TfidfScore + (1-DefaultAlpha)*r.SemanticScore
		assert.InDelta(t, want, r.Score, 1e-9)
	}
}

func TestStore_HybridAlphaExtremes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tfidfOnly, err := s.HybridSearch(ctx, "protein design", 5, 1)
	require.NoError(t, err)
	for _, r := range tfidfOnly {
		assert.InDelta(t, r.TfidfScore, r.Score, 1e-12)
	}

	semanticOnly, err := s.HybridSearch(ctx, "Gene editing with CRISPR", 5, 0)
	require.NoError(t, err)
	require.NotEmpty(t, semanticOnly)
	assert.Equal(t, "editing", semanticOnly[0].ID)
	assert.InDelta(t, 1.0, semanticOnly[0].SemanticScore, 1e-5)
	for _, r := range semanticOnly {
		assert.InDelta(t, r.SemanticScore, r.Score, 1e-12)
	}
}

func TestStore_HybridFindsMisspellings(t *testing.T) {
	s := newTestStore(t)

	results, err := s.HybridSearch(context.Background(), "enginering", 5, DefaultAlpha)
	require.NoError(t, err)

	assert.Equal(t, "protein", results[0].ID)
	assert.Zero(t, results[0].TfidfScore)
	assert.Positive(t, results[0].SemanticScore)
}

func TestStore_SemanticVector(t *testing.T) {
	s := New(nil)

	vec, err := s.SemanticVector(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, semhash.HashNgrams("some text"), vec)
}

type failingEmbedder struct{}

func (failingEmbedder) Dimension() int { return semhash.Dimension }
func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedder offline")
}

func TestStore_EmbedderErrors(t *testing.T) {
	s := New(failingEmbedder{})

	err := s.AddDocuments(context.Background(), Document{ID: "x", Text: "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedder offline")
	assert.Zero(t, s.Len())

	_, err = s.HybridSearch(context.Background(), "q", 5, DefaultAlpha)
	assert.Error(t, err)
}

func TestStore_Reset(t *testing.T) {
	s := newTestStore(t)
	s.Reset()

	assert.Zero(t, s.Len())
	assert.Zero(t, s.VocabularySize())
	assert.Empty(t, s.Search("gene", 5))
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.AddDocuments(ctx, Document{ID: fmt.Sprintf("c%d", i), Text: "concurrent gene text"})
		}()
		go func() {
			defer wg.Done()
			_ = s.Search("gene", 3)
			_, _ = s.HybridSearch(ctx, "gene", 3, DefaultAlpha)
		}()
	}
	wg.Wait()

	assert.Equal(t, 11, s.Len())
}
