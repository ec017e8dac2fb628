// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

// Package model defines the artifacts produced by a recommendation model build.
//
// A build produces one Bundle: the fitted Vocabulary, one SparseVector per
// document and the ordered document ids those rows belong to, stamped with
// the build time. Bundles are immutable once built; a later build supersedes
// an earlier one instead of mutating it.
package model

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// DocumentID identifies a recommendable document (a blog post).
type DocumentID int64

// Document is the unit the vectorizer consumes.
type Document struct {
	ID   DocumentID
	Text string
}

// SparseVector is one row of the feature matrix.
// Indices are strictly increasing vocabulary positions.
type SparseVector struct {
	Indices []int32
	Values  []float64
}

// Dot computes the inner product of two sparse vectors.
// Rows produced by the vectorizer are L2-normalized, so Dot is their cosine similarity.
func (v SparseVector) Dot(o SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Norm returns the Euclidean length of the vector.
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Params records the settings a Vocabulary was fitted with.
type Params struct {
	MaxFeatures int
	MinDF       int
	NgramMin    int
	NgramMax    int
	StopWords   string
}

// Vocabulary is the fitted term-weighting model.
type Vocabulary struct {
	// Terms holds every retained term in index order (lexicographic).
	Terms []string

	// IDF holds the inverse document frequency weight for each term.
	IDF []float64

	// DocumentFrequency holds the number of corpus documents containing each term.
	DocumentFrequency []int

	// Documents is the corpus size the statistics were computed over.
	Documents int

	Params Params

	indexOnce sync.Once
	index     map[string]int32
}

// Len returns the vocabulary size.
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Terms)
}

// Lookup returns the dimension index of term.
func (v *Vocabulary) Lookup(term string) (int32, bool) {
	if v == nil {
		return 0, false
	}
	v.indexOnce.Do(func() {
		v.index = make(map[string]int32, len(v.Terms))
		for i, t := range v.Terms {
			v.index[t] = int32(i) //nolint:gosec // vocabulary is capped well below MaxInt32
		}
	})
	idx, ok := v.index[term]
	return idx, ok
}

// Bundle is the unit of persistence and atomic replacement.
type Bundle struct {
	Vocabulary *Vocabulary

	// Matrix holds one row per document, aligned with IDs.
	Matrix []SparseVector

	// IDs maps matrix rows to document ids.
	IDs []DocumentID

	// BuiltAt is the explicit build timestamp staleness is judged against.
	BuiltAt time.Time

	// Version is assigned by the model store on save.
	Version int

	rowsOnce sync.Once
	rows     map[DocumentID]int
}

// NewBundle assembles a bundle from fitted parts.
func NewBundle(vocab *Vocabulary, matrix []SparseVector, ids []DocumentID, builtAt time.Time) *Bundle {
	if vocab == nil {
		vocab = &Vocabulary{}
	}
	if matrix == nil {
		matrix = []SparseVector{}
	}
	if ids == nil {
		ids = []DocumentID{}
	}
	return &Bundle{
		Vocabulary: vocab,
		Matrix:     matrix,
		IDs:        ids,
		BuiltAt:    builtAt.UTC(),
	}
}

// Len returns the number of documents in the bundle.
func (b *Bundle) Len() int {
	if b == nil {
		return 0
	}
	return len(b.IDs)
}

// Empty reports whether the bundle holds no documents.
func (b *Bundle) Empty() bool {
	return b.Len() == 0
}

// Row returns the matrix row of id.
func (b *Bundle) Row(id DocumentID) (int, bool) {
	if b == nil {
		return 0, false
	}
	b.rowsOnce.Do(func() {
		b.rows = make(map[DocumentID]int, len(b.IDs))
		for i, docID := range b.IDs {
			b.rows[docID] = i
		}
	})
	row, ok := b.rows[id]
	return row, ok
}

// Age returns how long ago the bundle was built.
func (b *Bundle) Age(now time.Time) time.Duration {
	return now.Sub(b.BuiltAt)
}

// StaleAt reports whether the bundle has outlived expiry at now.
func (b *Bundle) StaleAt(now time.Time, expiry time.Duration) bool {
	if b == nil {
		return true
	}
	return b.Age(now) > expiry
}

// ErrInvalidBundle is returned by Validate for structurally inconsistent bundles.
var ErrInvalidBundle = errors.New("invalid model bundle")

// Validate checks the structural invariants a loaded bundle must satisfy.
func (b *Bundle) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil bundle", ErrInvalidBundle)
	}
	if b.Vocabulary == nil {
		return fmt.Errorf("%w: missing vocabulary", ErrInvalidBundle)
	}
	if len(b.IDs) != len(b.Matrix) {
		return fmt.Errorf("%w: %d ids for %d matrix rows", ErrInvalidBundle, len(b.IDs), len(b.Matrix))
	}
	dims := b.Vocabulary.Len()
	if len(b.Vocabulary.IDF) != dims {
		return fmt.Errorf("%w: %d idf weights for %d terms", ErrInvalidBundle, len(b.Vocabulary.IDF), dims)
	}
	if b.BuiltAt.IsZero() {
		return fmt.Errorf("%w: missing build timestamp", ErrInvalidBundle)
	}

	seen := make(map[DocumentID]struct{}, len(b.IDs))
	for _, id := range b.IDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate document id %d", ErrInvalidBundle, id)
		}
		seen[id] = struct{}{}
	}

	for row, vec := range b.Matrix {
		if len(vec.Indices) != len(vec.Values) {
			return fmt.Errorf("%w: row %d has %d indices and %d values", ErrInvalidBundle, row, len(vec.Indices), len(vec.Values))
		}
		prev := int32(-1)
		for _, idx := range vec.Indices {
			if idx <= prev || int(idx) >= dims {
				return fmt.Errorf("%w: row %d has out-of-order or out-of-range index %d", ErrInvalidBundle, row, idx)
			}
			prev = idx
		}
	}
	return nil
}
