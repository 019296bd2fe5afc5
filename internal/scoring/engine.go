// Package scoring computes weighted maturity scores for submitted sessions
// and resolves them against configured recommendation bands.
package scoring

import (
	"context"
	"fmt"
	"math"

	"maturix/internal/gateway/repository/evaluation"
	"maturix/internal/gateway/repository/session"
)

// LevelUnclassified is reported when no recommendation band covers a score.
// Bands are authored to partition [0,100], so seeing it means bad band data.
const LevelUnclassified = "Sin clasificar"

// Definitions is the read-only slice of the evaluation store the engine needs.
type Definitions interface {
	ListDimensions(ctx context.Context, evaluationID string) ([]evaluation.Dimension, error)
	ListQuestions(ctx context.Context, dimensionID string) ([]evaluation.Question, error)
	ListBands(ctx context.Context, dimensionID string) ([]evaluation.RecommendationBand, error)
}

// Records is the session-side store slice the engine reads and writes.
type Records interface {
	GetSession(ctx context.Context, id string) (session.Session, error)
	ListResponses(ctx context.Context, sessionID string) ([]session.Response, error)
	SetResponseScore(ctx context.Context, responseID string, score float64) error
	UpsertDimensionResult(ctx context.Context, r session.DimensionResult) error
	ListDimensionResults(ctx context.Context, sessionID string) ([]session.DimensionResult, error)
	SetSessionGlobalScore(ctx context.Context, id string, score float64) error
}

// DimensionScore is the outcome of scoring one dimension.
type DimensionScore struct {
	Score  float64
	Level  string
	BandID string
}

// Summary is the outcome of scoring a whole session.
type Summary struct {
	GlobalScore float64
	Dimensions  []session.DimensionResult
}

type Engine struct {
	defs    Definitions
	records Records
}

func NewEngine(defs Definitions, records Records) *Engine {
	return &Engine{defs: defs, records: records}
}

// ComputeDimensionScore scores one dimension of a session: the weighted mean
// of the per-question scores of answered questions. Unanswered questions are
// excluded from both sums, so they do not drag the score down. The per-question
// score is written back onto each response.
func (e *Engine) ComputeDimensionScore(ctx context.Context, sessionID, dimensionID string) (DimensionScore, error) {
	questions, err := e.defs.ListQuestions(ctx, dimensionID)
	if err != nil {
		return DimensionScore{}, fmt.Errorf("list questions for dimension %s: %w", dimensionID, err)
	}

	responses, err := e.records.ListResponses(ctx, sessionID)
	if err != nil {
		return DimensionScore{}, fmt.Errorf("list responses for session %s: %w", sessionID, err)
	}
	byQuestion := make(map[string]session.Response, len(responses))
	for _, r := range responses {
		byQuestion[r.QuestionID] = r
	}

	var sumWeighted, sumWeights float64
	for _, q := range questions {
		resp, ok := byQuestion[q.ID]
		if !ok {
			continue
		}

		score := questionScore(q, resp.SelectedOptionIDs)
		sumWeighted += score * q.Weight
		sumWeights += q.Weight

		if err := e.records.SetResponseScore(ctx, resp.ID, score); err != nil {
			return DimensionScore{}, fmt.Errorf("persist response score: %w", err)
		}
	}

	raw := 0.0
	if sumWeights > 0 {
		raw = sumWeighted / sumWeights
	}
	rounded := round2(raw)

	bands, err := e.defs.ListBands(ctx, dimensionID)
	if err != nil {
		return DimensionScore{}, fmt.Errorf("list bands for dimension %s: %w", dimensionID, err)
	}
	out := DimensionScore{Score: rounded, Level: LevelUnclassified}
	for _, b := range bands {
		if b.Contains(rounded) {
			out.Level = b.Level
			out.BandID = b.ID
			break
		}
	}
	return out, nil
}

// questionScore computes the score of one answered question.
// For `single` the selected option's score is used (first id wins when the
// client submitted several; an unknown id scores 0). For `multiple` it is the
// arithmetic mean of the selected options found in the question's option set.
func questionScore(q evaluation.Question, selected []string) float64 {
	if q.Type == evaluation.QuestionSingle {
		if len(selected) == 0 {
			return 0
		}
		for _, o := range q.Options {
			if o.ID == selected[0] {
				return o.Score
			}
		}
		return 0
	}

	chosen := make(map[string]bool, len(selected))
	for _, id := range selected {
		chosen[id] = true
	}
	var sum float64
	var n int
	for _, o := range q.Options {
		if chosen[o.ID] {
			sum += o.Score
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ComputeGlobalScore returns the dimension-weight-weighted mean of the
// session's persisted dimension results, rounded to 2 decimals.
func (e *Engine) ComputeGlobalScore(ctx context.Context, sessionID string) (float64, error) {
	sess, err := e.records.GetSession(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	dimensions, err := e.defs.ListDimensions(ctx, sess.EvaluationID)
	if err != nil {
		return 0, err
	}
	weights := make(map[string]float64, len(dimensions))
	for _, d := range dimensions {
		weights[d.ID] = d.Weight
	}

	results, err := e.records.ListDimensionResults(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	var sumWeighted, sumWeights float64
	for _, r := range results {
		w := weights[r.DimensionID]
		sumWeighted += r.Score * w
		sumWeights += w
	}
	if sumWeights <= 0 {
		return 0, nil
	}
	return round2(sumWeighted / sumWeights), nil
}

// ComputeAllScores scores every dimension of the session's evaluation, upserts
// each dimension result, persists the global score onto the session, and
// returns both. Re-running overwrites the same records; it never duplicates.
func (e *Engine) ComputeAllScores(ctx context.Context, sessionID string) (Summary, error) {
	sess, err := e.records.GetSession(ctx, sessionID)
	if err != nil {
		return Summary{}, fmt.Errorf("session %s: %w", sessionID, err)
	}

	dimensions, err := e.defs.ListDimensions(ctx, sess.EvaluationID)
	if err != nil {
		return Summary{}, fmt.Errorf("list dimensions for evaluation %s: %w", sess.EvaluationID, err)
	}

	var summary Summary
	for _, d := range dimensions {
		score, err := e.ComputeDimensionScore(ctx, sessionID, d.ID)
		if err != nil {
			return Summary{}, err
		}
		result := session.DimensionResult{
			SessionID:   sessionID,
			DimensionID: d.ID,
			Score:       score.Score,
			Level:       score.Level,
			BandID:      score.BandID,
		}
		if err := e.records.UpsertDimensionResult(ctx, result); err != nil {
			return Summary{}, fmt.Errorf("upsert dimension result %s/%s: %w", sessionID, d.ID, err)
		}
		summary.Dimensions = append(summary.Dimensions, result)
	}

	global, err := e.ComputeGlobalScore(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}
	if err := e.records.SetSessionGlobalScore(ctx, sessionID, global); err != nil {
		return Summary{}, fmt.Errorf("persist global score: %w", err)
	}
	summary.GlobalScore = global
	return summary, nil
}

// GlobalLevel maps a global score to the five-level maturity scale.
func GlobalLevel(score float64) string {
	switch {
	case score >= 80:
		return "Líder"
	case score >= 60:
		return "Maduro"
	case score >= 40:
		return "En Desarrollo"
	case score >= 20:
		return "Inicial"
	default:
		return "Incipiente"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
