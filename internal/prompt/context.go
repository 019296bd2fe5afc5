// Package prompt assembles the context and natural-language brief sent to the
// text-generation provider, and resolves per-evaluation LLM configuration.
package prompt

import (
	"context"
	"fmt"

	"maturix/internal/gateway/repository/evaluation"
	"maturix/internal/gateway/repository/session"
)

// Definitions is the evaluation-store slice the assembler reads.
type Definitions interface {
	GetEvaluation(ctx context.Context, id string) (evaluation.Evaluation, error)
	ListCharacterizationFields(ctx context.Context, evaluationID string) ([]evaluation.CharacterizationField, error)
	ListDimensions(ctx context.Context, evaluationID string) ([]evaluation.Dimension, error)
	ListQuestions(ctx context.Context, dimensionID string) ([]evaluation.Question, error)
	ListBands(ctx context.Context, dimensionID string) ([]evaluation.RecommendationBand, error)
	GetLLMConfig(ctx context.Context, evaluationID string) (evaluation.LLMConfig, bool, error)
}

// Records is the session-store slice the assembler reads.
type Records interface {
	GetSession(ctx context.Context, id string) (session.Session, error)
	GetCompany(ctx context.Context, id string) (session.Company, error)
	ListCharacterizationValues(ctx context.Context, companyID string) ([]session.CharacterizationValue, error)
	ListDimensionResults(ctx context.Context, sessionID string) ([]session.DimensionResult, error)
	ListResponses(ctx context.Context, sessionID string) ([]session.Response, error)
}

// DimensionSummary is one scored dimension inside the prompt context.
type DimensionSummary struct {
	Name           string
	Score          float64
	Level          string
	Recommendation string
}

// Justification pairs a question with the respondent's free-text answer.
type Justification struct {
	Question      string
	Justification string
}

// Context is everything the user prompt is rendered from.
type Context struct {
	CompanyName      string
	Characterization map[string]string
	EvaluationName   string
	GlobalScore      float64
	Dimensions       []DimensionSummary
	Justifications   []Justification
}

type Assembler struct {
	defs    Definitions
	records Records
}

func NewAssembler(defs Definitions, records Records) *Assembler {
	return &Assembler{defs: defs, records: records}
}

// AssembleContext gathers company profile, computed scores, base
// recommendations, and free-text justifications for one session. Fails with
// session.ErrNotFound when the session does not exist.
func (a *Assembler) AssembleContext(ctx context.Context, sessionID string) (Context, error) {
	sess, err := a.records.GetSession(ctx, sessionID)
	if err != nil {
		return Context{}, fmt.Errorf("session %s: %w", sessionID, err)
	}
	company, err := a.records.GetCompany(ctx, sess.CompanyID)
	if err != nil {
		return Context{}, fmt.Errorf("company %s: %w", sess.CompanyID, err)
	}
	eval, err := a.defs.GetEvaluation(ctx, sess.EvaluationID)
	if err != nil {
		return Context{}, fmt.Errorf("evaluation %s: %w", sess.EvaluationID, err)
	}

	out := Context{
		CompanyName:      company.Name,
		Characterization: map[string]string{},
		EvaluationName:   eval.Name,
	}
	if sess.GlobalScore != nil {
		out.GlobalScore = *sess.GlobalScore
	}

	// Flatten characterization as field-name -> submitted value.
	fields, err := a.defs.ListCharacterizationFields(ctx, eval.ID)
	if err != nil {
		return Context{}, err
	}
	fieldNames := make(map[string]string, len(fields))
	for _, f := range fields {
		fieldNames[f.ID] = f.Name
	}
	values, err := a.records.ListCharacterizationValues(ctx, company.ID)
	if err != nil {
		return Context{}, err
	}
	for _, v := range values {
		name, ok := fieldNames[v.FieldID]
		if !ok {
			continue
		}
		out.Characterization[name] = v.Value
	}

	dimensions, err := a.defs.ListDimensions(ctx, eval.ID)
	if err != nil {
		return Context{}, err
	}
	dimNames := make(map[string]string, len(dimensions))
	questionTexts := make(map[string]string)
	bandDescriptions := make(map[string]string)
	for _, d := range dimensions {
		dimNames[d.ID] = d.Name
		questions, err := a.defs.ListQuestions(ctx, d.ID)
		if err != nil {
			return Context{}, err
		}
		for _, q := range questions {
			questionTexts[q.ID] = q.Text
		}
		bands, err := a.defs.ListBands(ctx, d.ID)
		if err != nil {
			return Context{}, err
		}
		for _, b := range bands {
			bandDescriptions[b.ID] = b.Description
		}
	}

	results, err := a.records.ListDimensionResults(ctx, sessionID)
	if err != nil {
		return Context{}, err
	}
	for _, r := range results {
		out.Dimensions = append(out.Dimensions, DimensionSummary{
			Name:           dimNames[r.DimensionID],
			Score:          r.Score,
			Level:          r.Level,
			Recommendation: bandDescriptions[r.BandID],
		})
	}

	responses, err := a.records.ListResponses(ctx, sessionID)
	if err != nil {
		return Context{}, err
	}
	for _, r := range responses {
		if r.Justification == "" {
			continue
		}
		out.Justifications = append(out.Justifications, Justification{
			Question:      questionTexts[r.QuestionID],
			Justification: r.Justification,
		})
	}
	return out, nil
}
