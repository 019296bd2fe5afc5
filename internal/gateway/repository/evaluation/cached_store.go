package evaluation

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CacheConfig bounds the definition cache.
type CacheConfig struct {
	MaxEntries int
	TTL        time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{MaxEntries: 256, TTL: 30 * time.Second}
}

// CachedStore fronts a Store with an expiring LRU. Definitions change rarely
// (seed/admin writes only) while every scoring run and questionnaire fetch
// reads them, so a short TTL is enough.
type CachedStore struct {
	origin Store
	cache  *expirable.LRU[string, any]
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 256
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	return &CachedStore{
		origin: origin,
		cache:  expirable.NewLRU[string, any](cfg.MaxEntries, nil, cfg.TTL),
	}
}

func cachedList[T any](ctx context.Context, s *CachedStore, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if v, ok := s.cache.Get(key); ok {
		if out, ok := v.([]T); ok {
			return out, nil
		}
	}
	out, err := load(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, out)
	return out, nil
}

func (s *CachedStore) GetEvaluation(ctx context.Context, id string) (Evaluation, error) {
	key := "evaluation:" + id
	if v, ok := s.cache.Get(key); ok {
		if e, ok := v.(Evaluation); ok {
			return e, nil
		}
	}
	e, err := s.origin.GetEvaluation(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}
	s.cache.Add(key, e)
	return e, nil
}

func (s *CachedStore) ListCharacterizationFields(ctx context.Context, evaluationID string) ([]CharacterizationField, error) {
	return cachedList(ctx, s, "fields:"+evaluationID, func(ctx context.Context) ([]CharacterizationField, error) {
		return s.origin.ListCharacterizationFields(ctx, evaluationID)
	})
}

func (s *CachedStore) ListDimensions(ctx context.Context, evaluationID string) ([]Dimension, error) {
	return cachedList(ctx, s, "dimensions:"+evaluationID, func(ctx context.Context) ([]Dimension, error) {
		return s.origin.ListDimensions(ctx, evaluationID)
	})
}

func (s *CachedStore) ListQuestions(ctx context.Context, dimensionID string) ([]Question, error) {
	return cachedList(ctx, s, "questions:"+dimensionID, func(ctx context.Context) ([]Question, error) {
		return s.origin.ListQuestions(ctx, dimensionID)
	})
}

func (s *CachedStore) ListBands(ctx context.Context, dimensionID string) ([]RecommendationBand, error) {
	return cachedList(ctx, s, "bands:"+dimensionID, func(ctx context.Context) ([]RecommendationBand, error) {
		return s.origin.ListBands(ctx, dimensionID)
	})
}

func (s *CachedStore) GetLLMConfig(ctx context.Context, evaluationID string) (LLMConfig, bool, error) {
	key := "llmconfig:" + evaluationID
	if v, ok := s.cache.Get(key); ok {
		if c, ok := v.(LLMConfig); ok {
			return c, true, nil
		}
	}
	c, ok, err := s.origin.GetLLMConfig(ctx, evaluationID)
	if err != nil || !ok {
		return c, ok, err
	}
	s.cache.Add(key, c)
	return c, true, nil
}

// Writes pass through and drop the whole cache; definition writes are rare.

func (s *CachedStore) PutEvaluation(ctx context.Context, e Evaluation) error {
	s.cache.Purge()
	return s.origin.PutEvaluation(ctx, e)
}

func (s *CachedStore) PutCharacterizationField(ctx context.Context, f CharacterizationField) error {
	s.cache.Purge()
	return s.origin.PutCharacterizationField(ctx, f)
}

func (s *CachedStore) PutDimension(ctx context.Context, d Dimension) error {
	s.cache.Purge()
	return s.origin.PutDimension(ctx, d)
}

func (s *CachedStore) PutQuestion(ctx context.Context, q Question) error {
	s.cache.Purge()
	return s.origin.PutQuestion(ctx, q)
}

func (s *CachedStore) PutBand(ctx context.Context, b RecommendationBand) error {
	s.cache.Purge()
	return s.origin.PutBand(ctx, b)
}

func (s *CachedStore) PutLLMConfig(ctx context.Context, c LLMConfig) error {
	s.cache.Purge()
	return s.origin.PutLLMConfig(ctx, c)
}
