// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/inkpost/internal/logging"
	"github.com/tomtom215/inkpost/internal/metrics"
	"github.com/tomtom215/inkpost/internal/models"
	"github.com/tomtom215/inkpost/internal/recommend"
	"github.com/tomtom215/inkpost/internal/recommend/model"
)

const rebuildEndpoint = "/api/v1/recommendations/rebuild"

// SimilarPosts handles GET /api/v1/posts/{postID}/similar.
//
// post_ids is the ranking as the model returned it; posts are the
// published records among them, in the same order.
//
// @Summary Get posts similar to a post
// @Description Ranks posts by TF-IDF cosine similarity to the given post. Without a model, or for a post the model does not know, the most recent published posts are returned with fallback=true.
// @Tags Recommendations
// @Produce json
// @Param postID path int true "Post ID"
// @Param limit query int false "Maximum number of posts" default(3) minimum(1)
// @Success 200 {object} models.APIResponse{data=models.SimilarPostsResponse} "Similar posts"
// @Failure 400 {object} models.APIResponse "Invalid post ID or limit"
// @Failure 503 {object} models.APIResponse "Post store unavailable"
// @Router /api/v1/posts/{postID}/similar [get]
func (h *Handler) SimilarPosts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, apiErr := parseSimilarPostsRequest(r, h.engine.Config().Limits.DefaultSimilar)
	if apiErr != nil {
		respondErrorWithDetails(w, r, http.StatusBadRequest, apiErr)
		return
	}

	result, err := h.engine.SimilarPosts(r.Context(), model.DocumentID(req.PostID), req.Limit)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, &models.SimilarPostsResponse{
		PostID:   req.PostID,
		PostIDs:  toInt64s(result.RankedIDs),
		Posts:    toModelPosts(result.Posts),
		Fallback: result.Fallback,
	}, start)
}

// Recommendations handles GET /api/v1/users/{userID}/recommendations.
//
// @Summary Get recommendations for a user
// @Description Recommends posts similar to the ones the user commented on, topped up with recent posts and ordered newest first. Posts the user commented on are never returned.
// @Tags Recommendations
// @Produce json
// @Param userID path int true "User ID"
// @Param limit query int false "Maximum number of posts" default(5) minimum(1)
// @Success 200 {object} models.APIResponse{data=models.RecommendationsResponse} "Recommended posts"
// @Failure 400 {object} models.APIResponse "Invalid user ID or limit"
// @Failure 503 {object} models.APIResponse "Post store unavailable"
// @Router /api/v1/users/{userID}/recommendations [get]
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, apiErr := parseRecommendationsRequest(r, h.engine.Config().Limits.DefaultRecommendations)
	if apiErr != nil {
		respondErrorWithDetails(w, r, http.StatusBadRequest, apiErr)
		return
	}

	posts, err := h.engine.RecommendationsFor(r.Context(), req.UserID, req.Limit)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, &models.RecommendationsResponse{
		UserID: req.UserID,
		Posts:  toModelPosts(posts),
	}, start)
}

// ModelStatus handles GET /api/v1/recommendations/status.
//
// @Summary Get similarity model status
// @Description Reports whether the persisted model is fresh, stale or absent, with its version and the outcome of the last rebuild.
// @Tags Recommendations
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.ModelStatus} "Model status"
// @Failure 500 {object} models.APIResponse "Model store failure"
// @Router /api/v1/recommendations/status [get]
func (h *Handler) ModelStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	st, err := h.engine.Status(r.Context())
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, &models.ModelStatus{
		State:          string(st.State),
		Version:        st.Version,
		BuiltAt:        timePtr(st.BuiltAt),
		Documents:      st.Documents,
		VocabularySize: st.VocabularySize,
		Backend:        h.config.StoreBackend,
		Rebuilding:     st.Rebuilding,
		LastError:      st.LastError,
		LastDurationMS: st.LastDuration.Milliseconds(),
		LastRebuildAt:  timePtr(st.LastRebuildAt),
	}, start)
}

// Rebuild handles POST /api/v1/recommendations/rebuild.
//
// Without force the model is only rebuilt when stale; a fresh model answers
// 200 with rebuilt=false. A rebuild that ran answers 202. Every accepted
// request takes a token from one bucket shared by all clients.
//
// @Summary Rebuild the similarity model
// @Description Rebuilds the model from all published posts. Without force a fresh model is left alone. Concurrent requests share one rebuild.
// @Tags Recommendations
// @Produce json
// @Param force query bool false "Rebuild even when the model is fresh"
// @Success 200 {object} models.APIResponse{data=models.RebuildResponse} "Model already fresh"
// @Success 202 {object} models.APIResponse{data=models.RebuildResponse} "Model rebuilt"
// @Failure 400 {object} models.APIResponse "Invalid force flag"
// @Failure 429 {object} models.APIResponse "Rebuild requested too recently"
// @Failure 503 {object} models.APIResponse "Post store unavailable"
// @Router /api/v1/recommendations/rebuild [post]
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, apiErr := parseRebuildRequest(r)
	if apiErr != nil {
		respondErrorWithDetails(w, r, http.StatusBadRequest, apiErr)
		return
	}

	reservation := h.rebuildLimiter.Reserve()
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		metrics.APIRateLimitHits.WithLabelValues(rebuildEndpoint).Inc()
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
		respondError(w, r, http.StatusTooManyRequests, ErrCodeRateLimited, "Rebuild requested too recently, retry later", nil)
		return
	}

	var (
		result  *recommend.RebuildResult
		rebuilt = true
		err     error
	)
	if req.Force {
		result, err = h.engine.Rebuild(r.Context())
	} else {
		result, rebuilt, err = h.engine.RebuildIfStale(r.Context())
	}
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	if !rebuilt {
		respondSuccess(w, r, http.StatusOK, &models.RebuildResponse{Rebuilt: false}, start)
		return
	}

	logging.Ctx(r.Context()).Info().
		Bool("force", req.Force).
		Bool("shared", result.Shared).
		Int("version", result.Version).
		Msg("manual model rebuild")

	respondSuccess(w, r, http.StatusAccepted, &models.RebuildResponse{
		Rebuilt:        true,
		Shared:         result.Shared,
		Version:        result.Version,
		BuiltAt:        timePtr(result.BuiltAt),
		Documents:      result.Documents,
		VocabularySize: result.VocabularySize,
		DurationMS:     result.Duration.Milliseconds(),
	}, start)
}

func toModelPosts(posts []recommend.Post) []models.Post {
	out := make([]models.Post, len(posts))
	for i := range posts {
		p := &posts[i]
		out[i] = models.Post{
			ID:        int64(p.ID),
			Title:     p.Title,
			Content:   p.Content,
			AuthorID:  p.AuthorID,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		}
	}
	return out
}

func toInt64s(ids []model.DocumentID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
