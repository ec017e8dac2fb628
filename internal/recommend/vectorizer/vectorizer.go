// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

// Package vectorizer fits a TF-IDF vector model over a document corpus.
//
// # Weighting
//
// Each document is lower-cased, split into word tokens of two or more
// letters, digits or underscores, filtered against a stop-word list and
// expanded into n-grams (unigrams and bigrams by default). Terms that occur
// in fewer than MinDF documents are dropped; when more than MaxFeatures
// terms survive, the ones with the highest corpus-wide counts are kept.
//
// Weights are raw term counts multiplied by a smoothed inverse document
// frequency:
//
//	idf(t) = ln((1 + n) / (1 + df(t))) + 1
//
// and every row is L2-normalized, so the dot product of two rows is their
// cosine similarity.
//
// # Determinism
//
// Vocabulary order is lexicographic and feature-cap ties are broken by term,
// so fitting the same corpus with the same Config always yields identical
// bundles apart from the build timestamp.
package vectorizer

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/inkpost/internal/recommend/model"
)

// tokenPattern matches runs of two or more word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// ctxCheckInterval is how many documents are analyzed between cancellation checks.
const ctxCheckInterval = 256

// Config controls vocabulary selection.
type Config struct {
	// MaxFeatures caps the vocabulary size. Zero means unlimited.
	MaxFeatures int `json:"max_features"`

	// MinDF is the minimum number of documents a term must appear in.
	MinDF int `json:"min_df"`

	// NgramMin and NgramMax bound the n-gram lengths added to the vocabulary.
	NgramMin int `json:"ngram_min"`
	NgramMax int `json:"ngram_max"`

	// StopWords names the stop-word list: "english" or "" for none.
	StopWords string `json:"stop_words"`
}

// DefaultConfig returns the production vectorizer settings.
func DefaultConfig() Config {
	return Config{
		MaxFeatures: 5000,
		MinDF:       2,
		NgramMin:    1,
		NgramMax:    2,
		StopWords:   StopWordsEnglish,
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.MaxFeatures < 0 {
		return fmt.Errorf("max_features must be non-negative, got %d", c.MaxFeatures)
	}
	if c.MinDF < 1 {
		return fmt.Errorf("min_df must be positive, got %d", c.MinDF)
	}
	if c.NgramMin < 1 {
		return fmt.Errorf("ngram_min must be positive, got %d", c.NgramMin)
	}
	if c.NgramMax < c.NgramMin {
		return fmt.Errorf("ngram_max must be >= ngram_min, got %d < %d", c.NgramMax, c.NgramMin)
	}
	if _, ok := stopWordSet(c.StopWords); !ok {
		return fmt.Errorf("unknown stop word list %q", c.StopWords)
	}
	return nil
}

// Vectorizer fits and applies TF-IDF models. It holds no per-corpus state
// and is safe for concurrent use.
type Vectorizer struct {
	cfg  Config
	stop map[string]struct{}
}

// New creates a vectorizer with the given configuration.
func New(cfg Config) (*Vectorizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vectorizer config: %w", err)
	}
	stop, _ := stopWordSet(cfg.StopWords)
	return &Vectorizer{cfg: cfg, stop: stop}, nil
}

// Config returns the vectorizer configuration.
func (v *Vectorizer) Config() Config {
	return v.cfg
}

// Tokenize lower-cases text and splits it into word tokens.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Analyze turns text into the sequence of vocabulary candidates:
// stop-word-filtered tokens followed by their n-grams.
func (v *Vectorizer) Analyze(text string) []string {
	raw := Tokenize(text)
	tokens := raw[:0]
	for _, tok := range raw {
		if _, stop := v.stop[tok]; !stop {
			tokens = append(tokens, tok)
		}
	}

	if v.cfg.NgramMin == 1 && v.cfg.NgramMax == 1 {
		return tokens
	}

	var terms []string
	if v.cfg.NgramMin == 1 {
		terms = append(terms, tokens...)
	}
	start := v.cfg.NgramMin
	if start < 2 {
		start = 2
	}
	for n := start; n <= v.cfg.NgramMax && n <= len(tokens); n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// Fit builds a model bundle from docs. An empty corpus yields an explicitly
// empty bundle. Documents repeating an earlier id are skipped.
func (v *Vectorizer) Fit(ctx context.Context, docs []model.Document, builtAt time.Time) (*model.Bundle, error) {
	if len(docs) == 0 {
		return model.NewBundle(&model.Vocabulary{Params: v.params()}, nil, nil, builtAt), nil
	}

	ids := make([]model.DocumentID, 0, len(docs))
	counts := make([]map[string]int, 0, len(docs))
	seen := make(map[model.DocumentID]struct{}, len(docs))
	df := make(map[string]int)
	totals := make(map[string]int)

	for i, doc := range docs {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("fit vocabulary: %w", err)
			}
		}
		if _, dup := seen[doc.ID]; dup {
			continue
		}
		seen[doc.ID] = struct{}{}

		tc := termCounts(v.Analyze(doc.Text))
		for term, n := range tc {
			df[term]++
			totals[term] += n
		}
		ids = append(ids, doc.ID)
		counts = append(counts, tc)
	}

	terms := v.selectTerms(df, totals)
	vocab := &model.Vocabulary{
		Terms:             terms,
		IDF:               make([]float64, len(terms)),
		DocumentFrequency: make([]int, len(terms)),
		Documents:         len(ids),
		Params:            v.params(),
	}
	n := float64(len(ids))
	for i, term := range terms {
		vocab.DocumentFrequency[i] = df[term]
		vocab.IDF[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	matrix := make([]model.SparseVector, len(ids))
	for i, tc := range counts {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("weigh documents: %w", err)
			}
		}
		matrix[i] = weigh(vocab, tc)
	}

	return model.NewBundle(vocab, matrix, ids, builtAt), nil
}

func (v *Vectorizer) params() model.Params {
	return model.Params{
		MaxFeatures: v.cfg.MaxFeatures,
		MinDF:       v.cfg.MinDF,
		NgramMin:    v.cfg.NgramMin,
		NgramMax:    v.cfg.NgramMax,
		StopWords:   v.cfg.StopWords,
	}
}

// selectTerms applies the document-frequency floor and the feature cap and
// returns the surviving terms in index order.
func (v *Vectorizer) selectTerms(df, totals map[string]int) []string {
	kept := make([]string, 0, len(df))
	for term, n := range df {
		if n >= v.cfg.MinDF {
			kept = append(kept, term)
		}
	}

	if v.cfg.MaxFeatures > 0 && len(kept) > v.cfg.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if totals[kept[i]] != totals[kept[j]] {
				return totals[kept[i]] > totals[kept[j]]
			}
			return kept[i] < kept[j]
		})
		kept = kept[:v.cfg.MaxFeatures]
	}

	sort.Strings(kept)
	return kept
}

func termCounts(terms []string) map[string]int {
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
	}
	return counts
}

// weigh converts raw term counts into an L2-normalized TF-IDF row.
func weigh(vocab *model.Vocabulary, counts map[string]int) model.SparseVector {
	type entry struct {
		idx int32
		val float64
	}
	entries := make([]entry, 0, len(counts))
	for term, n := range counts {
		idx, ok := vocab.Lookup(term)
		if !ok {
			continue
		}
		entries = append(entries, entry{idx: idx, val: float64(n) * vocab.IDF[idx]})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].idx < entries[j].idx })

	vec := model.SparseVector{
		Indices: make([]int32, len(entries)),
		Values:  make([]float64, len(entries)),
	}
	for i, e := range entries {
		vec.Indices[i] = e.idx
		vec.Values[i] = e.val
	}

	if norm := vec.Norm(); norm > 0 {
		for i := range vec.Values {
			vec.Values[i] /= norm
		}
	}
	return vec
}
