// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/inkpost/internal/cache"
	"github.com/tomtom215/inkpost/internal/metrics"
	"github.com/tomtom215/inkpost/internal/recommend/model"
	"github.com/tomtom215/inkpost/internal/recommend/ranking"
	"github.com/tomtom215/inkpost/internal/recommend/storage"
	"github.com/tomtom215/inkpost/internal/recommend/vectorizer"
)

// rebuildKey is the single-flight key shared by every rebuild.
const rebuildKey = "rebuild"

// Operation names used as metric labels.
const (
	opSimilar         = "similar"
	opSimilarPosts    = "similar_posts"
	opRecommendations = "recommendations"
)

// Engine answers similarity and recommendation queries against the stored
// model bundle and rebuilds that bundle on demand. It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger
	now    func() time.Time

	source     DocumentSource
	store      ModelStore
	vectorizer *vectorizer.Vectorizer
	notifier   Notifier

	// results caches ranked similarity ids; nil when caching is disabled.
	results *cache.Cache[[]model.DocumentID]

	rebuildGroup singleflight.Group
	rebuilding   atomic.Bool

	// observedVersion is the last bundle version whose gauges were published.
	observedVersion atomic.Int64

	statusMu      sync.RWMutex
	lastError     string
	lastDuration  time.Duration
	lastRebuildAt time.Time
}

// Option configures optional Engine collaborators.
type Option func(*Engine)

// WithClock overrides the clock used for bundle build timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithNotifier registers a Notifier told about every saved bundle.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// NewEngine creates a recommendation engine over source and store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, source DocumentSource, store ModelStore, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if source == nil {
		return nil, ErrNilSource
	}
	if store == nil {
		return nil, ErrNilStore
	}

	vec, err := vectorizer.New(cfg.Vectorizer)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:     cfg.Clone(),
		logger:     logger.With().Str("component", "recommend").Logger(),
		now:        time.Now,
		source:     source,
		store:      store,
		vectorizer: vec,
	}
	for _, opt := range opts {
		opt(e)
	}

	if cfg.Cache.Enabled {
		e.results = cache.New[[]model.DocumentID](cache.Options{
			TTL:        cfg.Cache.TTL,
			MaxEntries: cfg.Cache.MaxEntries,
		})
	}
	return e, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// SimilarTo returns up to limit ids most similar to id, best first.
//
// It never rebuilds. An id unknown to the model yields an empty slice and
// a short ranking is not topped up. Only when no usable model exists are the
// newest posts (excluding id) returned instead.
func (e *Engine) SimilarTo(ctx context.Context, id model.DocumentID, limit int) ([]model.DocumentID, error) {
	start := time.Now()
	res, err := e.similar(ctx, id, limit, opSimilar)
	metrics.RecordRecommendQuery(opSimilar, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return res.IDs, nil
}

// SimilarPosts is SimilarTo resolved to published post records. Ranking
// order is kept and ids that no longer resolve are dropped from IDs;
// RankedIDs keeps the ranking as SimilarTo would return it. Both come from
// one bundle load.
func (e *Engine) SimilarPosts(ctx context.Context, id model.DocumentID, limit int) (*SimilarResult, error) {
	start := time.Now()
	res, err := e.similarPosts(ctx, id, limit)
	metrics.RecordRecommendQuery(opSimilarPosts, time.Since(start), err)
	return res, err
}

func (e *Engine) similarPosts(ctx context.Context, id model.DocumentID, limit int) (*SimilarResult, error) {
	res, err := e.similar(ctx, id, limit, opSimilarPosts)
	if err != nil {
		return nil, err
	}
	res.RankedIDs = cloneIDs(res.IDs)
	if res.Posts != nil || len(res.IDs) == 0 {
		if res.Posts == nil {
			res.Posts = []Post{}
		}
		return res, nil
	}

	resolved, err := e.source.ResolvePosts(ctx, res.IDs)
	if err != nil {
		return nil, upstreamError("resolve similar posts", err)
	}
	byID := make(map[model.DocumentID]Post, len(resolved))
	for i := range resolved {
		if resolved[i].Published {
			byID[resolved[i].ID] = resolved[i]
		}
	}

	res.Posts = make([]Post, 0, len(res.IDs))
	kept := make([]model.DocumentID, 0, len(res.IDs))
	for _, rid := range res.IDs {
		if p, ok := byID[rid]; ok {
			res.Posts = append(res.Posts, p)
			kept = append(kept, rid)
		}
	}
	res.IDs = kept
	return res, nil
}

// similar ranks id against the current bundle. The fallback result carries
// the recent post records it was built from.
func (e *Engine) similar(ctx context.Context, id model.DocumentID, limit int, op string) (*SimilarResult, error) {
	res := &SimilarResult{PostID: id, IDs: []model.DocumentID{}}
	if limit < 1 {
		return res, nil
	}
	limit = min(limit, e.config.Limits.MaxLimit)

	bundle, err := e.loadBundle(ctx)
	if err != nil {
		return nil, err
	}

	if bundle == nil || bundle.Empty() {
		recent, err := e.source.RecentPosts(ctx, limit, []model.DocumentID{id})
		if err != nil {
			return nil, upstreamError("fetch recent posts", err)
		}
		metrics.RecordFallback(op)
		res.IDs = postIDs(recent)
		res.Posts = recent
		res.Fallback = true
		return res, nil
	}

	res.IDs = e.rankCached(bundle, id, limit)
	return res, nil
}

// similarKey identifies a cached ranking.
type similarKey struct {
	Version int              `json:"v"`
	ID      model.DocumentID `json:"id"`
	Limit   int              `json:"k"`
}

// rankCached returns ranking.TopK through the result cache.
func (e *Engine) rankCached(b *model.Bundle, id model.DocumentID, limit int) []model.DocumentID {
	if e.results == nil {
		return ranking.TopK(b, id, limit)
	}

	key := cache.GenerateKey("similar", similarKey{Version: b.Version, ID: id, Limit: limit})
	if ids, ok := e.results.Get(key); ok {
		metrics.RecordCacheHit()
		return cloneIDs(ids)
	}
	metrics.RecordCacheMiss()

	ids := ranking.TopK(b, id, limit)
	e.results.Set(key, cloneIDs(ids))
	return ids
}

// RecommendationsFor returns up to limit published posts for userID, newest first.
//
// Seeds are the posts the user commented on. Each seed contributes
// SeedSimilar similar ids; seeds and duplicates are removed and the newest
// remaining posts top the set up to limit. A user with no interactions gets
// the newest posts. A stale model is rebuilt first; a failed rebuild only
// degrades the answer, and an absent or unreadable model means recency
// alone. Errors from the document source or a failing model store are
// returned.
func (e *Engine) RecommendationsFor(ctx context.Context, userID int64, limit int) ([]Post, error) {
	start := time.Now()
	posts, err := e.recommendationsFor(ctx, userID, limit)
	metrics.RecordRecommendQuery(opRecommendations, time.Since(start), err)
	return posts, err
}

func (e *Engine) recommendationsFor(ctx context.Context, userID int64, limit int) ([]Post, error) {
	if limit < 1 {
		return []Post{}, nil
	}
	limit = min(limit, e.config.Limits.MaxLimit)
	logger := e.logger.With().Int64("user_id", userID).Logger()

	seeds, err := e.source.UserInteractionIDs(ctx, userID)
	if err != nil {
		return nil, upstreamError("fetch user interactions", err)
	}
	if len(seeds) == 0 {
		recent, err := e.source.RecentPosts(ctx, limit, nil)
		if err != nil {
			return nil, upstreamError("fetch recent posts", err)
		}
		metrics.RecordFallback(opRecommendations)
		return recent, nil
	}

	e.rebuildIfStaleForRead(ctx, logger)

	// Absent and corrupt bundles load as nil; anything else is a store failure.
	bundle, err := e.loadBundle(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []model.DocumentID
	if bundle != nil && !bundle.Empty() {
		candidates, err = e.seedCandidates(ctx, bundle, seeds)
		if err != nil {
			return nil, err
		}
	}

	interacted := make(map[model.DocumentID]struct{}, len(seeds))
	for _, id := range seeds {
		interacted[id] = struct{}{}
	}
	candidates = filterIDs(candidates, interacted)

	// Resolve before sizing the top-up so candidates unpublished since the
	// last build are replaced by recent posts.
	result := make([]Post, 0, limit)
	if len(candidates) > 0 {
		resolved, err := e.source.ResolvePosts(ctx, candidates)
		if err != nil {
			return nil, upstreamError("resolve candidates", err)
		}
		for i := range resolved {
			if resolved[i].Published {
				result = append(result, resolved[i])
			}
		}
	}
	similar := len(result)

	var topUp []Post
	if len(result) < limit {
		exclude := make([]model.DocumentID, 0, len(seeds)+len(candidates))
		exclude = append(exclude, seeds...)
		exclude = append(exclude, candidates...)
		topUp, err = e.source.RecentPosts(ctx, limit-len(result), exclude)
		if err != nil {
			return nil, upstreamError("fetch recent posts", err)
		}
		if similar == 0 {
			metrics.RecordFallback(opRecommendations)
		}
		result = append(result, topUp...)
	}

	sortByRecency(result)
	if len(result) > limit {
		result = result[:limit]
	}

	logger.Debug().
		Int("seeds", len(seeds)).
		Int("candidates", len(candidates)).
		Int("similar", similar).
		Int("top_up", len(topUp)).
		Int("returned", len(result)).
		Msg("recommendations complete")
	return result, nil
}

// seedCandidates ranks every seed concurrently and merges the results in
// seed order, dropping duplicates.
func (e *Engine) seedCandidates(ctx context.Context, b *model.Bundle, seeds []model.DocumentID) ([]model.DocumentID, error) {
	perSeed := make([][]model.DocumentID, len(seeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Limits.FanOut)
	for i, seed := range seeds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perSeed[i] = ranking.TopK(b, seed, e.config.Limits.SeedSimilar)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("rank seeds: %w", err)
	}

	seen := make(map[model.DocumentID]struct{})
	var merged []model.DocumentID
	for _, ids := range perSeed {
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			merged = append(merged, id)
		}
	}
	return merged, nil
}

// rebuildIfStaleForRead rebuilds a stale model on the read path. Failures
// are logged and the caller carries on with whatever is loadable.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) rebuildIfStaleForRead(ctx context.Context, logger zerolog.Logger) {
	stale, err := e.store.IsStale(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to check model staleness")
		return
	}
	if !stale {
		return
	}
	if _, err := e.Rebuild(ctx); err != nil {
		logger.Warn().Err(err).Msg("read-triggered rebuild failed, serving current model")
	}
}

// IsModelStale reports whether the stored model is absent, unreadable or expired.
func (e *Engine) IsModelStale(ctx context.Context) (bool, error) {
	stale, err := e.store.IsStale(ctx)
	if err != nil {
		return false, fmt.Errorf("check model staleness: %w", err)
	}
	return stale, nil
}

// Rebuild extracts the eligible corpus, fits a new bundle and saves it.
//
// Concurrent callers share one in-flight rebuild. The rebuild itself runs
// detached from the caller's cancellation and is bounded by the configured
// timeout; a caller whose context ends stops waiting but does not abort it.
func (e *Engine) Rebuild(ctx context.Context) (*RebuildResult, error) {
	ch := e.rebuildGroup.DoChan(rebuildKey, func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.config.Rebuild.Timeout)
		defer cancel()
		return e.rebuild(rctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		result := *res.Val.(*RebuildResult)
		result.Shared = res.Shared
		return &result, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for rebuild: %w", ctx.Err())
	}
}

// RebuildIfStale rebuilds only when the stored model is stale. The bool
// reports whether a rebuild ran.
func (e *Engine) RebuildIfStale(ctx context.Context) (*RebuildResult, bool, error) {
	stale, err := e.IsModelStale(ctx)
	if err != nil {
		return nil, false, err
	}
	if !stale {
		return nil, false, nil
	}
	result, err := e.Rebuild(ctx)
	if err != nil {
		return nil, true, err
	}
	return result, true, nil
}

func (e *Engine) rebuild(ctx context.Context) (result *RebuildResult, err error) {
	e.rebuilding.Store(true)
	start := time.Now()
	e.logger.Info().Msg("starting model rebuild")

	defer func() {
		duration := time.Since(start)
		e.rebuilding.Store(false)
		e.finishRebuild(duration, err)

		snapshot := metrics.ModelSnapshot{}
		if result != nil {
			result.Duration = duration
			snapshot = metrics.ModelSnapshot{
				Version:        result.Version,
				Documents:      result.Documents,
				VocabularySize: result.VocabularySize,
				BuiltAt:        result.BuiltAt,
			}
		}
		metrics.RecordRebuild(duration, snapshot, err)
	}()

	posts, err := e.source.EligiblePosts(ctx)
	if err != nil {
		return nil, upstreamError("fetch eligible posts", err)
	}

	bundle, err := e.vectorizer.Fit(ctx, ExtractCorpus(posts), e.now())
	if err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}

	if err := e.store.Save(ctx, bundle); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}
	e.observedVersion.Store(int64(bundle.Version))

	dropped := e.InvalidateCache()

	result = &RebuildResult{
		Version:        bundle.Version,
		BuiltAt:        bundle.BuiltAt,
		Documents:      bundle.Len(),
		VocabularySize: bundle.Vocabulary.Len(),
		Duration:       time.Since(start),
	}

	e.logger.Info().
		Int("version", result.Version).
		Int("documents", result.Documents).
		Int("vocabulary", result.VocabularySize).
		Int("cache_dropped", dropped).
		Dur("duration", result.Duration).
		Msg("model rebuild complete")

	if e.notifier != nil {
		if err := e.notifier.ModelRebuilt(ctx, *result); err != nil {
			e.logger.Warn().Err(err).Int("version", result.Version).Msg("failed to announce model rebuild")
		}
	}
	return result, nil
}

func (e *Engine) finishRebuild(duration time.Duration, err error) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	e.lastDuration = duration
	e.lastRebuildAt = e.now()
	e.lastError = ""
	if err != nil {
		e.lastError = err.Error()
		e.logger.Error().Err(err).Dur("duration", duration).Msg("model rebuild failed")
	}
}

// Status reports the stored model state and the last rebuild attempt.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	e.statusMu.RLock()
	st := Status{
		Rebuilding:    e.rebuilding.Load(),
		LastError:     e.lastError,
		LastDuration:  e.lastDuration,
		LastRebuildAt: e.lastRebuildAt,
	}
	e.statusMu.RUnlock()

	bundle, err := e.loadBundle(ctx)
	if err != nil {
		return st, err
	}
	if bundle == nil {
		st.State = StateAbsent
		return st, nil
	}

	st.Version = bundle.Version
	st.BuiltAt = bundle.BuiltAt
	st.Documents = bundle.Len()
	st.VocabularySize = bundle.Vocabulary.Len()

	stale, err := e.IsModelStale(ctx)
	if err != nil {
		return st, err
	}
	st.State = StateFresh
	if stale {
		st.State = StateStale
	}
	return st, nil
}

// InvalidateCache drops every cached ranking and returns how many were dropped.
func (e *Engine) InvalidateCache() int {
	if e.results == nil {
		return 0
	}
	return e.results.Clear()
}

// Close releases the result cache. The source and store are owned by the caller.
func (e *Engine) Close() {
	if e.results != nil {
		e.results.Close()
	}
}

// loadBundle returns the current bundle, or nil when none is usable.
func (e *Engine) loadBundle(ctx context.Context) (*model.Bundle, error) {
	b, err := e.store.Load(ctx)
	if errors.Is(err, storage.ErrModelAbsent) {
		return nil, nil //nolint:nilnil // an absent model is a state, not a failure
	}
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	// Another process may have saved a newer version.
	if prev := e.observedVersion.Swap(int64(b.Version)); prev != int64(b.Version) {
		metrics.SetModelGauges(metrics.ModelSnapshot{
			Version:        b.Version,
			Documents:      b.Len(),
			VocabularySize: b.Vocabulary.Len(),
			BuiltAt:        b.BuiltAt,
		})
	}
	return b, nil
}

func filterIDs(ids []model.DocumentID, drop map[model.DocumentID]struct{}) []model.DocumentID {
	out := ids[:0]
	for _, id := range ids {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func cloneIDs(ids []model.DocumentID) []model.DocumentID {
	out := make([]model.DocumentID, len(ids))
	copy(out, ids)
	return out
}
