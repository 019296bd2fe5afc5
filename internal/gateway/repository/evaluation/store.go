package evaluation

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a referenced definition record does not exist.
var ErrNotFound = errors.New("evaluation: not found")

// Store is the read/write contract over questionnaire definitions.
// Definitions are immutable during scoring; writes come from seeding and admin
// tooling only.
type Store interface {
	GetEvaluation(ctx context.Context, id string) (Evaluation, error)
	ListCharacterizationFields(ctx context.Context, evaluationID string) ([]CharacterizationField, error)
	ListDimensions(ctx context.Context, evaluationID string) ([]Dimension, error)
	// ListQuestions returns the dimension's active questions with their options,
	// both in display order.
	ListQuestions(ctx context.Context, dimensionID string) ([]Question, error)
	ListBands(ctx context.Context, dimensionID string) ([]RecommendationBand, error)
	// GetLLMConfig returns (config, true) when an explicit configuration exists
	// for the evaluation, (zero, false) otherwise.
	GetLLMConfig(ctx context.Context, evaluationID string) (LLMConfig, bool, error)

	PutEvaluation(ctx context.Context, e Evaluation) error
	PutCharacterizationField(ctx context.Context, f CharacterizationField) error
	PutDimension(ctx context.Context, d Dimension) error
	PutQuestion(ctx context.Context, q Question) error
	PutBand(ctx context.Context, b RecommendationBand) error
	PutLLMConfig(ctx context.Context, c LLMConfig) error
}
