// Package rank scores candidate sections or chunks against a query by
// embedding similarity and lexical boosts.
package rank

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
)

// Candidate is anything rankable: a section or a chunk.
type Candidate struct {
	Document      string `json:"document"`
	DocumentTitle string `json:"document_title"`
	PageNumber    int    `json:"page_number"`
	Title         string `json:"section_title"`
	Text          string `json:"text"`
	Kind          string `json:"kind,omitempty"`
}

// Result is a scored candidate.
type Result struct {
	Candidate
	BaseScore      float64 `json:"base_score"`
	BoostFactor    float64 `json:"boost_factor"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Resolver turns texts into vectors. *embedding.Cache satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, texts []string) ([][]float32, error)
}

// RankerContext owns the embedding resolver and boost strategy shared by
// every ranking call in a process.
type RankerContext struct {
	Embeddings Resolver
	Booster    Booster
	Log        *slog.Logger
}

func NewRankerContext(res Resolver, booster Booster, log *slog.Logger) *RankerContext {
	if booster == nil {
		booster = NoBoost{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &RankerContext{Embeddings: res, Booster: booster, Log: log}
}

// EmbedInput is the text embedded for a candidate.
func EmbedInput(c Candidate) string {
	s := c.Title + " " + c.Text
	if c.Document != "" {
		s = "Document about " + c.Document + ". " + s
	}
	return s
}

// Rank scores every candidate against query and returns the topN best by
// relevance score. Ties keep input order. topN <= 0 returns all results.
func (rc *RankerContext) Rank(ctx context.Context, cands []Candidate, query string, topN int) ([]Result, error) {
	if len(cands) == 0 {
		return []Result{}, nil
	}

	inputs := make([]string, 0, len(cands)+1)
	for _, c := range cands {
		inputs = append(inputs, EmbedInput(c))
	}
	inputs = append(inputs, query)

	vecs, err := rc.Embeddings.Resolve(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("resolve embeddings: %w", err)
	}
	q := vecs[len(cands)]

	results := make([]Result, len(cands))
	for i, c := range cands {
		base := Cosine(q, vecs[i])
		boost := rc.Booster.Factor(c)
		results[i] = Result{
			Candidate:      c,
			BaseScore:      Round(base, 4),
			BoostFactor:    Round(boost, 2),
			RelevanceScore: Round(base*boost, 4),
		}
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		switch {
		case a.RelevanceScore > b.RelevanceScore:
			return -1
		case a.RelevanceScore < b.RelevanceScore:
			return 1
		}
		return 0
	})

	if topN > 0 && topN < len(results) {
		results = results[:topN]
	}
	rc.Log.Debug("ranked candidates", "candidates", len(cands), "returned", len(results))
	return results, nil
}

// Cosine returns the cosine similarity of a and b in [-1, 1]. Zero vectors
// and mismatched lengths score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return max(-1, min(1, dot/(math.Sqrt(na)*math.Sqrt(nb))))
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// Snippet trims text to at most n runes, cutting on a rune boundary.
func Snippet(text string, n int) string {
	text = strings.TrimSpace(text)
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n])
}
