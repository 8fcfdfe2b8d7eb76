package search

import "time"

// DefaultTopK is the default result count per query.
const DefaultTopK = 10

// DefaultFetchMultiplier over-fetches per-model results before fusion
// so documents ranked just outside the final top-k by one model can
// still surface after combining.
const DefaultFetchMultiplier = 2

// minFetchLimit is the floor on the per-model fetch size.
const minFetchLimit = 20

// EngineConfig configures the query engine.
type EngineConfig struct {
	// TopK is the default number of fused results (default: 10).
	TopK int
	// Weights are the default model weights. Validated at engine
	// construction, before any query runs.
	Weights Weights
	// Threshold is the confidence threshold for flagging weak results.
	Threshold float64
	// SemanticTimeout bounds semantic scoring per query. On timeout the
	// engine degrades to the models that completed. 0 disables.
	SemanticTimeout time.Duration
	// CacheSize is the LRU response cache capacity. 0 disables caching.
	CacheSize int
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TopK:            DefaultTopK,
		Weights:         DefaultWeights(),
		Threshold:       0.1,
		SemanticTimeout: 2 * time.Second,
		CacheSize:       256,
	}
}

// SearchOptions configures a single query.
type SearchOptions struct {
	// TopK overrides the engine default when positive.
	TopK int
	// Weights overrides the engine default weights when non-nil.
	Weights Weights
	// Embedding is the externally computed query embedding; nil skips
	// semantic scoring (the engine degrades gracefully).
	Embedding []float32
	// Timeout overrides the engine's semantic timeout when positive.
	Timeout time.Duration
}

// Response is the result of one query.
type Response struct {
	// Fused is the final ranked list.
	Fused []*FusedResult
	// PerModel retains each model's ranked list for inspection.
	PerModel map[Model][]ScoredResult
	// Degraded lists models that failed or timed out; their absence is
	// a degradation, not a query failure.
	Degraded []Model
	// Elapsed is the wall-clock query duration.
	Elapsed time.Duration
	// CacheHit reports whether the response was served from cache.
	CacheHit bool
}
