package evaluation

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps definitions in process memory. Used when no database is
// configured and by tests.
type MemoryStore struct {
	mu          sync.RWMutex
	evaluations map[string]Evaluation
	fields      map[string]CharacterizationField
	dimensions  map[string]Dimension
	questions   map[string]Question
	bands       map[string]RecommendationBand
	llmConfigs  map[string]LLMConfig
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		evaluations: make(map[string]Evaluation),
		fields:      make(map[string]CharacterizationField),
		dimensions:  make(map[string]Dimension),
		questions:   make(map[string]Question),
		bands:       make(map[string]RecommendationBand),
		llmConfigs:  make(map[string]LLMConfig),
	}
}

func (s *MemoryStore) GetEvaluation(_ context.Context, id string) (Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.evaluations[strings.TrimSpace(id)]
	if !ok {
		return Evaluation{}, ErrNotFound
	}
	return e, nil
}

func (s *MemoryStore) ListCharacterizationFields(_ context.Context, evaluationID string) ([]CharacterizationField, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []CharacterizationField
	for _, f := range s.fields {
		if f.EvaluationID == evaluationID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *MemoryStore) ListDimensions(_ context.Context, evaluationID string) ([]Dimension, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Dimension
	for _, d := range s.dimensions {
		if d.EvaluationID == evaluationID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *MemoryStore) ListQuestions(_ context.Context, dimensionID string) ([]Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Question
	for _, q := range s.questions {
		if q.DimensionID == dimensionID && q.Active {
			cp := q
			cp.Options = append([]Option(nil), q.Options...)
			sort.Slice(cp.Options, func(i, j int) bool { return cp.Options[i].Order < cp.Options[j].Order })
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *MemoryStore) ListBands(_ context.Context, dimensionID string) ([]RecommendationBand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []RecommendationBand
	for _, b := range s.bands {
		if b.DimensionID == dimensionID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScoreMin < out[j].ScoreMin })
	return out, nil
}

func (s *MemoryStore) GetLLMConfig(_ context.Context, evaluationID string) (LLMConfig, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.llmConfigs[evaluationID]
	return c, ok, nil
}

func (s *MemoryStore) PutEvaluation(_ context.Context, e Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluations[e.ID] = e
	return nil
}

func (s *MemoryStore) PutCharacterizationField(_ context.Context, f CharacterizationField) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[f.ID] = f
	return nil
}

func (s *MemoryStore) PutDimension(_ context.Context, d Dimension) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimensions[d.ID] = d
	return nil
}

func (s *MemoryStore) PutQuestion(_ context.Context, q Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := q
	cp.Options = append([]Option(nil), q.Options...)
	s.questions[q.ID] = cp
	return nil
}

func (s *MemoryStore) PutBand(_ context.Context, b RecommendationBand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bands[b.ID] = b
	return nil
}

func (s *MemoryStore) PutLLMConfig(_ context.Context, c LLMConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.llmConfigs[c.EvaluationID] = c
	return nil
}
