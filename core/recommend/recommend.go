// Package recommend ranks papers by keyword overlap with a target paper.
package recommend

import (
	"cmp"
	"slices"

	"github.com/adalundhe/semhash/core/semhash"
)

// DefaultTop is used when Recommend is called with a non-positive top.
const DefaultTop = 5

// Paper is the metadata used for recommendations. Only Keywords affect scoring.
type Paper struct {
	ID       string   `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	Abstract string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Year     string   `json:"year,omitempty" yaml:"year,omitempty"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// Recommendation is a scored paper with the keywords it shares with the target.
type Recommendation struct {
	ID      string   `json:"id"`
	Score   float32  `json:"score"`
	Reasons []string `json:"reasons"`
}

// Recommend returns up to top papers most similar to targetID by cosine
// similarity of keyword count vectors. An unknown targetID yields nil.
func Recommend(papers []Paper, targetID string, top int) []Recommendation {
	if top <= 0 {
		top = DefaultTop
	}

	vocab := make(map[string]int)
	for _, p := range papers {
		for _, k := range p.Keywords {
			if _, ok := vocab[k]; !ok {
				vocab[k] = len(vocab)
			}
		}
	}

	targetIdx := slices.IndexFunc(papers, func(p Paper) bool { return p.ID == targetID })
	if targetIdx < 0 {
		return nil
	}
	target := papers[targetIdx]
	targetVec := keywordVector(target.Keywords, vocab)

	recs := make([]Recommendation, 0, len(papers))
	for _, p := range papers {
		if p.ID == targetID {
			continue
		}
		recs = append(recs, Recommendation{
			ID:      p.ID,
			Score:   semhash.Cosine(targetVec, keywordVector(p.Keywords, vocab)),
			Reasons: sharedKeywords(target.Keywords, p.Keywords),
		})
	}

	slices.SortStableFunc(recs, func(a, b Recommendation) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(recs) > top {
		recs = recs[:top]
	}
	return recs
}

func keywordVector(keywords []string, vocab map[string]int) []float32 {
	vec := make([]float32, len(vocab))
	for _, k := range keywords {
		vec[vocab[k]]++
	}
	return vec
}

// sharedKeywords lists keywords of candidate that the target also has,
// deduplicated, in the candidate's order.
func sharedKeywords(target, candidate []string) []string {
	want := make(map[string]struct{}, len(target))
	for _, k := range target {
		want[k] = struct{}{}
	}

	shared := []string{}
	for _, k := range candidate {
		if _, ok := want[k]; ok {
			shared = append(shared, k)
			delete(want, k)
		}
	}
	return shared
}
