package prompt

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"maturix/internal/gateway/repository/evaluation"
	"maturix/internal/gateway/repository/session"
)

func TestBuildUserPromptContainsRequiredSections(t *testing.T) {
	p := BuildUserPrompt(Context{
		CompanyName:    "Acme",
		EvaluationName: "Madurez Digital",
		GlobalScore:    62.5,
		Characterization: map[string]string{
			"sector": "Retail",
		},
		Dimensions: []DimensionSummary{
			{Name: "Tecnología", Score: 75, Level: "Maduro", Recommendation: "Consolidar"},
		},
		Justifications: []Justification{
			{Question: "¿Por qué?", Justification: "Porque sí"},
		},
	})

	for _, want := range []string{
		"**Diagnóstico Ejecutivo**",
		"**Fortalezas Identificadas**",
		"**Áreas Críticas de Mejora**",
		"**Roadmap de 90 Días**",
		"**Quick Wins**",
		"**Métricas de Seguimiento**",
		"Ser específico al sector y tamaño de la empresa",
		"Considerar las justificaciones de texto que proporcionó el usuario",
		"Dar recomendaciones prácticas y accionables, no genéricas",
	} {
		require.Truef(t, strings.Contains(p, want), "prompt missing %q", want)
	}
	require.Contains(t, p, "- **Tecnología:** 75/100 (Maduro)")
	require.Contains(t, p, "**Puntaje Global:** 62.5/100")
	require.Contains(t, p, "**Pregunta:** ¿Por qué?")
}

func TestBuildUserPromptWithoutJustifications(t *testing.T) {
	p := BuildUserPrompt(Context{CompanyName: "Acme"})
	require.Contains(t, p, "No se proporcionaron justificaciones adicionales.")
}

func TestResolveConfigFallsBackToDefault(t *testing.T) {
	defs := evaluation.NewMemoryStore()
	cfg, err := ResolveConfig(context.Background(), defs, "eval-1")
	require.NoError(t, err)
	require.Equal(t, "anthropic", cfg.Provider)
	require.Equal(t, "claude-sonnet-4-20250514", cfg.Model)
	require.Equal(t, 0.7, cfg.Temperature)
	require.Equal(t, 4000, cfg.MaxTokens)
	require.Equal(t, DefaultSystemPrompt, cfg.SystemPrompt)
}

func TestResolveConfigPrefersStoredRecord(t *testing.T) {
	defs := evaluation.NewMemoryStore()
	stored := evaluation.LLMConfig{
		EvaluationID: "eval-1",
		Provider:     "gemini",
		Model:        "gemini-2.0-flash",
		SystemPrompt: "persona",
		Temperature:  0.2,
		MaxTokens:    2048,
	}
	require.NoError(t, defs.PutLLMConfig(context.Background(), stored))

	cfg, err := ResolveConfig(context.Background(), defs, "eval-1")
	require.NoError(t, err)
	require.Equal(t, stored, cfg)
}

func TestAssembleContextGathersEverything(t *testing.T) {
	ctx := context.Background()
	defs := evaluation.NewMemoryStore()
	records := session.NewMemoryStore()

	require.NoError(t, defs.PutEvaluation(ctx, evaluation.Evaluation{ID: "eval-1", Name: "Madurez Digital", Active: true}))
	require.NoError(t, defs.PutCharacterizationField(ctx, evaluation.CharacterizationField{
		ID: "field-1", EvaluationID: "eval-1", Name: "sector", Label: "Sector",
	}))
	require.NoError(t, defs.PutDimension(ctx, evaluation.Dimension{ID: "dim-1", EvaluationID: "eval-1", Name: "Tecnología", Weight: 1}))
	require.NoError(t, defs.PutQuestion(ctx, evaluation.Question{
		ID: "q1", DimensionID: "dim-1", Text: "¿Nivel de digitalización?", Type: evaluation.QuestionSingle, Weight: 1, Active: true,
	}))
	require.NoError(t, defs.PutBand(ctx, evaluation.RecommendationBand{
		ID: "band-1", DimensionID: "dim-1", ScoreMin: 60, ScoreMax: 80, Level: "Maduro", Description: "Consolidar capacidades",
	}))

	company, err := records.UpsertCompany(ctx, "Acme", "acme@example.com", "")
	require.NoError(t, err)
	score := 70.0
	require.NoError(t, records.CreateSession(ctx, session.Session{
		ID: "sess-1", CompanyID: company.ID, EvaluationID: "eval-1",
		State: session.StateProcessing, GlobalScore: &score,
	}))
	require.NoError(t, records.UpsertCharacterizationValue(ctx, session.CharacterizationValue{
		CompanyID: company.ID, EvaluationID: "eval-1", FieldID: "field-1", Value: "Retail",
	}))
	require.NoError(t, records.UpsertDimensionResult(ctx, session.DimensionResult{
		SessionID: "sess-1", DimensionID: "dim-1", Score: 70, Level: "Maduro", BandID: "band-1",
	}))
	require.NoError(t, records.CreateResponse(ctx, session.Response{
		SessionID: "sess-1", QuestionID: "q1", SelectedOptionIDs: []string{"o1"}, Justification: "Usamos ERP moderno",
	}))

	a := NewAssembler(defs, records)
	c, err := a.AssembleContext(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, "Acme", c.CompanyName)
	require.Equal(t, "Madurez Digital", c.EvaluationName)
	require.Equal(t, 70.0, c.GlobalScore)
	require.Equal(t, map[string]string{"sector": "Retail"}, c.Characterization)
	require.Equal(t, []DimensionSummary{
		{Name: "Tecnología", Score: 70, Level: "Maduro", Recommendation: "Consolidar capacidades"},
	}, c.Dimensions)
	require.Equal(t, []Justification{
		{Question: "¿Nivel de digitalización?", Justification: "Usamos ERP moderno"},
	}, c.Justifications)
}

func TestAssembleContextMissingSession(t *testing.T) {
	a := NewAssembler(evaluation.NewMemoryStore(), session.NewMemoryStore())
	_, err := a.AssembleContext(context.Background(), "missing")
	require.ErrorIs(t, err, session.ErrNotFound)
}
