package search

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	serrors "github.com/sondhan-search/sondhan/internal/errors"
)

// Engine runs queries against a set of scorers in parallel and fuses
// their ranked lists. A failing model degrades the response rather than
// failing the query; the query only errors when every enabled model
// fails.
type Engine struct {
	scorers map[Model]Scorer
	fuser   Fuser
	config  EngineConfig
	cache   *lru.Cache[string, *Response]
	logger  *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithFuser replaces the fusion strategy.
func WithFuser(f Fuser) EngineOption {
	return func(e *Engine) {
		e.fuser = f
	}
}

// NewEngine creates a query engine over the given scorers. The default
// weights are validated here so misconfiguration surfaces at startup,
// not on the first query.
func NewEngine(scorers []Scorer, cfg EngineConfig, opts ...EngineOption) (*Engine, error) {
	if len(scorers) == 0 {
		return nil, serrors.New(serrors.ErrCodeInternal, "search engine requires at least one scorer", nil)
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Weights == nil {
		cfg.Weights = DefaultWeights()
	}
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		scorers: make(map[Model]Scorer, len(scorers)),
		fuser:   NewWeightedFusion(cfg.Threshold),
		config:  cfg,
		logger:  slog.Default(),
	}
	for _, s := range scorers {
		e.scorers[s.Model()] = s
	}
	for _, opt := range opts {
		opt(e)
	}

	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, *Response](cfg.CacheSize)
		if err != nil {
			return nil, serrors.New(serrors.ErrCodeInternal, "create response cache", err)
		}
		e.cache = cache
	}
	return e, nil
}

// Search runs one query. Blank query text is rejected. Model scoring
// runs concurrently; results from models that fail or time out are
// dropped and reported in Response.Degraded.
func (e *Engine) Search(ctx context.Context, text string, opts SearchOptions) (*Response, error) {
	start := time.Now()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, serrors.EmptyQuery()
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = e.config.TopK
	}
	weights := opts.Weights
	if weights == nil {
		weights = e.config.Weights
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	cacheKey := e.cacheKey(text, topK, weights, opts.Embedding)
	if e.cache != nil {
		if cached, ok := e.cache.Get(cacheKey); ok {
			hit := cloneResponse(cached)
			hit.Elapsed = time.Since(start)
			hit.CacheHit = true
			return hit, nil
		}
	}

	query := NewQuery(text, opts.Embedding)
	fetchLimit := topK * DefaultFetchMultiplier
	if fetchLimit < minFetchLimit {
		fetchLimit = minFetchLimit
	}

	semanticTimeout := opts.Timeout
	if semanticTimeout <= 0 {
		semanticTimeout = e.config.SemanticTimeout
	}

	var (
		mu       sync.Mutex
		lists    = make(map[Model][]ScoredResult)
		degraded []Model
		enabled  int
	)

	g, gctx := errgroup.WithContext(ctx)
	for model, scorer := range e.scorers {
		if weights[model] <= 0 {
			continue
		}
		enabled++
		model, scorer := model, scorer
		g.Go(func() error {
			sctx := gctx
			if model == ModelSemantic && semanticTimeout > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(gctx, semanticTimeout)
				defer cancel()
			}
			results, err := scorer.Score(sctx, query, fetchLimit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				e.logger.Warn("model scoring failed, degrading",
					"model", string(model),
					"error", err)
				degraded = append(degraded, model)
				return nil
			}
			lists[model] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, serrors.New(serrors.ErrCodeSearchFailed, "parallel scoring failed", err)
	}

	if enabled > 0 && len(lists) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, serrors.New(serrors.ErrCodeSearchFailed, "query cancelled", err)
		}
		return nil, serrors.New(serrors.ErrCodeSearchFailed, "all scoring models failed", nil).
			WithDetail("query", text)
	}

	fused, err := e.fuser.Fuse(lists, weights)
	if err != nil {
		return nil, err
	}
	if len(fused) > topK {
		fused = fused[:topK]
	}

	sort.Slice(degraded, func(i, j int) bool { return degraded[i] < degraded[j] })

	resp := &Response{
		Fused:    fused,
		PerModel: lists,
		Degraded: degraded,
		Elapsed:  time.Since(start),
	}
	if e.cache != nil && len(degraded) == 0 {
		// Cache a copy: callers hold mutable pointers into resp.
		e.cache.Add(cacheKey, cloneResponse(resp))
	}
	return resp, nil
}

// cloneResponse deep-copies a response so cached entries stay isolated
// from caller mutation.
func cloneResponse(resp *Response) *Response {
	out := &Response{
		Elapsed:  resp.Elapsed,
		CacheHit: resp.CacheHit,
	}
	if resp.Fused != nil {
		out.Fused = make([]*FusedResult, len(resp.Fused))
		for i, r := range resp.Fused {
			c := *r
			c.ModelScores = make(map[Model]float64, len(r.ModelScores))
			for m, s := range r.ModelScores {
				c.ModelScores[m] = s
			}
			out.Fused[i] = &c
		}
	}
	if resp.PerModel != nil {
		out.PerModel = make(map[Model][]ScoredResult, len(resp.PerModel))
		for m, list := range resp.PerModel {
			out.PerModel[m] = append([]ScoredResult(nil), list...)
		}
	}
	if resp.Degraded != nil {
		out.Degraded = append([]Model(nil), resp.Degraded...)
	}
	return out
}

// cacheKey builds a deterministic key from the query text, result
// count, weights, and embedding contents.
func (e *Engine) cacheKey(text string, topK int, weights Weights, embedding []float32) string {
	models := make([]string, 0, len(weights))
	for m := range weights {
		models = append(models, string(m))
	}
	sort.Strings(models)

	var sb strings.Builder
	sb.WriteString(text)
	fmt.Fprintf(&sb, "|k=%d", topK)
	for _, m := range models {
		fmt.Fprintf(&sb, "|%s=%g", m, weights[Model(m)])
	}
	if len(embedding) > 0 {
		h := fnv.New64a()
		var buf [4]byte
		for _, v := range embedding {
			bits := math.Float32bits(v)
			buf[0] = byte(bits)
			buf[1] = byte(bits >> 8)
			buf[2] = byte(bits >> 16)
			buf[3] = byte(bits >> 24)
			h.Write(buf[:])
		}
		fmt.Fprintf(&sb, "|e=%x", h.Sum64())
	}
	return sb.String()
}

// Models reports which models the engine can score with.
func (e *Engine) Models() []Model {
	models := make([]Model, 0, len(e.scorers))
	for m := range e.scorers {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i] < models[j] })
	return models
}
