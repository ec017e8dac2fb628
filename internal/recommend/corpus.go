// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package recommend

import "github.com/tomtom215/inkpost/internal/recommend/model"

// ExtractCorpus turns published posts into model documents. The document
// text is the title and content joined by a single space. Input order is kept.
func ExtractCorpus(posts []Post) []model.Document {
	docs := make([]model.Document, 0, len(posts))
	for i := range posts {
		if !posts[i].Published {
			continue
		}
		docs = append(docs, model.Document{
			ID:   posts[i].ID,
			Text: posts[i].Title + " " + posts[i].Content,
		})
	}
	return docs
}
