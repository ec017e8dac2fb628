// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

// Package ranking ranks documents by cosine similarity within a model bundle.
//
// Ranking is an exhaustive scan: the query row is compared against every row
// in the feature matrix, so each query costs O(N·D) for N documents and D
// vocabulary dimensions. Scores are sorted with a stable sort, which keeps
// documents with equal scores in matrix row order and makes results
// deterministic for a given bundle.
package ranking

import (
	"sort"

	"github.com/tomtom215/inkpost/internal/recommend/model"
)

// maxResults bounds result allocations independently of the caller's k.
const maxResults = 10000

// Scored pairs a document with its similarity to the query document.
type Scored struct {
	ID    model.DocumentID `json:"id"`
	Score float64          `json:"score"`
}

// Scores returns the similarity of queryID to every document in row order.
// It reports false when queryID is unknown to the bundle.
func Scores(b *model.Bundle, queryID model.DocumentID) ([]float64, bool) {
	row, ok := b.Row(queryID)
	if !ok {
		return nil, false
	}

	query := b.Matrix[row]
	scores := make([]float64, len(b.Matrix))
	for i, vec := range b.Matrix {
		scores[i] = query.Dot(vec)
	}
	return scores, true
}

// TopKScored returns up to k documents most similar to queryID, best first,
// never including queryID itself. Unknown ids, empty bundles and k <= 0
// yield an empty result.
func TopKScored(b *model.Bundle, queryID model.DocumentID, k int) []Scored {
	if k <= 0 || b.Empty() {
		return []Scored{}
	}
	scores, ok := Scores(b, queryID)
	if !ok {
		return []Scored{}
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	if k > maxResults {
		k = maxResults
	}
	limit := k
	if limit > len(order) {
		limit = len(order)
	}
	results := make([]Scored, 0, limit)
	for _, row := range order {
		if len(results) == k {
			break
		}
		id := b.IDs[row]
		if id == queryID {
			continue
		}
		results = append(results, Scored{ID: id, Score: scores[row]})
	}
	return results
}

// TopK is TopKScored without the scores.
func TopK(b *model.Bundle, queryID model.DocumentID, k int) []model.DocumentID {
	scored := TopKScored(b, queryID, k)
	ids := make([]model.DocumentID, len(scored))
	for i, s := range scored {
		ids[i] = s.ID
	}
	return ids
}
