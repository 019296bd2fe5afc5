package prompt

import (
	"context"

	"maturix/internal/gateway/repository/evaluation"
)

// DefaultSystemPrompt is the consulting persona used when an evaluation has no
// explicit LLM configuration. Kept verbatim for behavioral parity: most
// evaluations run on this default.
const DefaultSystemPrompt = `Eres un consultor experto en transformación digital y madurez organizacional.
Tu rol es analizar los resultados de evaluaciones de madurez empresarial y proporcionar
recomendaciones estratégicas personalizadas.

Características de tu análisis:
- Basado en evidencia y datos proporcionados
- Específico al contexto de la empresa (sector, tamaño, situación actual)
- Priorizado por impacto y factibilidad
- Accionable y medible
- Tono profesional pero accesible

Evita:
- Recomendaciones genéricas que apliquen a cualquier empresa
- Jerga técnica excesiva
- Sugerencias sin considerar el contexto proporcionado`

// DefaultConfig is returned by ResolveConfig when no per-evaluation record
// exists.
func DefaultConfig(evaluationID string) evaluation.LLMConfig {
	return evaluation.LLMConfig{
		EvaluationID: evaluationID,
		Provider:     "anthropic",
		Model:        "claude-sonnet-4-20250514",
		SystemPrompt: DefaultSystemPrompt,
		Temperature:  0.7,
		MaxTokens:    4000,
	}
}

// ResolveConfig returns the evaluation's configured LLM settings, or the
// hardcoded default when none are stored.
func ResolveConfig(ctx context.Context, defs Definitions, evaluationID string) (evaluation.LLMConfig, error) {
	cfg, ok, err := defs.GetLLMConfig(ctx, evaluationID)
	if err != nil {
		return evaluation.LLMConfig{}, err
	}
	if !ok {
		return DefaultConfig(evaluationID), nil
	}
	return cfg, nil
}
