// Command seed loads the demo questionnaire into the configured database:
// the "Evaluación de Madurez Digital" evaluation, its characterization
// fields, dimensions with questions and options, recommendation bands and
// the LLM configuration. Idempotent: every record upserts by a fixed id.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"maturix/internal/gateway/repository/evaluation"
)

const evaluationID = "demo"

const systemPrompt = `Eres un consultor experto en transformación digital y madurez organizacional con más de 15 años de experiencia en empresas de Latinoamérica.

Tu rol es analizar los resultados de evaluaciones de madurez empresarial y proporcionar recomendaciones estratégicas personalizadas.

Características de tu análisis:
- Basado en evidencia y datos proporcionados
- Específico al contexto de la empresa (sector, tamaño, situación actual)
- Priorizado por impacto y factibilidad
- Accionable y medible
- Tono profesional pero accesible, en español

Estructura tu respuesta en formato Markdown con:
## Diagnóstico Ejecutivo
## Fortalezas Identificadas
## Áreas Críticas de Mejora
## Roadmap de 90 Días
## Quick Wins
## Métricas de Seguimiento

Evita:
- Recomendaciones genéricas que apliquen a cualquier empresa
- Jerga técnica excesiva sin explicación
- Sugerencias sin considerar el contexto proporcionado`

func main() {
	_ = godotenv.Load()

	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}
	store, err := evaluation.NewPostgresStore(dsn)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	if err := seed(context.Background(), store); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	log.Println("Seed completado")
}

func seed(ctx context.Context, store evaluation.Store) error {
	if err := store.PutEvaluation(ctx, evaluation.Evaluation{
		ID:          evaluationID,
		Name:        "Evaluación de Madurez Digital",
		Description: "Evalúa el nivel de madurez digital de tu organización en múltiples dimensiones",
		Version:     "1.0",
		Active:      true,
	}); err != nil {
		return fmt.Errorf("evaluation: %w", err)
	}

	if err := store.PutLLMConfig(ctx, evaluation.LLMConfig{
		EvaluationID: evaluationID,
		Provider:     "anthropic",
		Model:        "claude-sonnet-4-20250514",
		SystemPrompt: systemPrompt,
		Temperature:  0.7,
		MaxTokens:    4000,
	}); err != nil {
		return fmt.Errorf("llm config: %w", err)
	}

	for _, f := range characterizationFields() {
		if err := store.PutCharacterizationField(ctx, f); err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
	}

	for _, d := range dimensions() {
		if err := store.PutDimension(ctx, d.Dimension); err != nil {
			return fmt.Errorf("dimension %s: %w", d.Name, err)
		}
		for _, b := range recommendationBands(d.Dimension) {
			if err := store.PutBand(ctx, b); err != nil {
				return fmt.Errorf("band %s/%s: %w", d.Name, b.Level, err)
			}
		}
		for _, q := range d.Questions {
			if err := store.PutQuestion(ctx, q); err != nil {
				return fmt.Errorf("question %s: %w", q.ID, err)
			}
		}
		log.Printf("Dimensión creada: %s (%d preguntas)", d.Name, len(d.Questions))
	}
	return nil
}

func characterizationFields() []evaluation.CharacterizationField {
	return []evaluation.CharacterizationField{
		{
			ID: "campo-sector", EvaluationID: evaluationID,
			Name: "sector", Label: "Sector Industrial", Type: "select",
			Options: []string{
				"Fintech", "Retail", "Manufactura", "Servicios Profesionales",
				"Salud", "Educación", "Logística", "Telecomunicaciones", "Otro",
			},
			Required: true, Order: 0, Placeholder: "Selecciona tu sector",
		},
		{
			ID: "campo-empleados", EvaluationID: evaluationID,
			Name: "empleados", Label: "Número de Empleados", Type: "select",
			Options:  []string{"1-10", "11-50", "51-200", "201-500", "500+"},
			Required: true, Order: 1,
		},
		{
			ID: "campo-pais", EvaluationID: evaluationID,
			Name: "pais", Label: "País", Type: "select",
			Options: []string{
				"Colombia", "México", "Argentina", "Chile", "Perú", "Ecuador", "España", "Otro",
			},
			Required: true, Order: 2,
		},
		{
			ID: "campo-facturacion", EvaluationID: evaluationID,
			Name: "facturacion", Label: "Facturación Anual (USD)", Type: "select",
			Options: []string{
				"Menos de $100K", "$100K - $500K", "$500K - $1M",
				"$1M - $5M", "$5M - $20M", "Más de $20M",
			},
			Required: false, Order: 3,
		},
	}
}

type seedDimension struct {
	evaluation.Dimension
	Questions []evaluation.Question
}

func dimensions() []seedDimension {
	return []seedDimension{
		{
			Dimension: evaluation.Dimension{
				ID: "dim-tecnologia", EvaluationID: evaluationID,
				Name:        "Tecnología",
				Description: "Evalúa la infraestructura tecnológica y herramientas digitales de la organización",
				Weight:      1.0, Order: 0, Icon: "server", Color: "#3B82F6",
			},
			Questions: []evaluation.Question{
				question("dim-tecnologia", 0, "¿Qué nivel de digitalización tienen sus procesos core de negocio?",
					evaluation.QuestionSingle, true, false, []seedOption{
						{"Totalmente manuales (papel/Excel)", 0},
						{"Parcialmente digitalizados (algunas herramientas)", 25},
						{"Mayormente digitalizados con sistemas legacy", 50},
						{"Completamente digitales con sistemas modernos", 75},
						{"Digitales con IA/automatización avanzada", 100},
					}),
				question("dim-tecnologia", 1, "¿Qué tecnologías cloud utilizan actualmente?",
					evaluation.QuestionMultiple, false, false, []seedOption{
						{"Ninguna (todo on-premise)", 0},
						{"SaaS (Office 365, Google Workspace, etc.)", 25},
						{"IaaS (AWS, Azure, GCP)", 50},
						{"PaaS (Heroku, Railway, Vercel)", 75},
						{"Arquitectura serverless/microservicios", 100},
					}),
				question("dim-tecnologia", 2, "¿Cómo gestionan la seguridad de la información?",
					evaluation.QuestionSingle, true, false, []seedOption{
						{"No hay políticas formales de seguridad", 0},
						{"Políticas básicas (antivirus, backups manuales)", 25},
						{"Políticas documentadas pero implementación parcial", 50},
						{"Framework de seguridad implementado (ISO 27001, SOC2)", 75},
						{"Seguridad proactiva con monitoreo 24/7 y respuesta a incidentes", 100},
					}),
			},
		},
		{
			Dimension: evaluation.Dimension{
				ID: "dim-cultura", EvaluationID: evaluationID,
				Name:        "Cultura Organizacional",
				Description: "Evalúa la mentalidad digital y capacidad de cambio de la organización",
				Weight:      1.0, Order: 1, Icon: "users", Color: "#10B981",
			},
			Questions: []evaluation.Question{
				question("dim-cultura", 0, "¿Cómo describirías la apertura al cambio tecnológico en tu organización?",
					evaluation.QuestionSingle, true, true, []seedOption{
						{"Alta resistencia al cambio", 0},
						{"Aceptan cambios pero con mucha lentitud", 25},
						{"Abiertos pero necesitan convencimiento", 50},
						{"Proactivos en adoptar nuevas tecnologías", 75},
						{"Cultura de innovación continua", 100},
					}),
				question("dim-cultura", 1, "¿Cómo se toman las decisiones basadas en datos?",
					evaluation.QuestionSingle, false, false, []seedOption{
						{"Las decisiones son principalmente por intuición", 0},
						{"Algunos reportes pero decisiones mayormente intuitivas", 25},
						{"Dashboards disponibles pero uso inconsistente", 50},
						{"Data-driven en la mayoría de decisiones", 75},
						{"Cultura data-driven con experimentación continua (A/B testing)", 100},
					}),
				question("dim-cultura", 2, "¿Qué nivel de capacitación digital tiene tu equipo?",
					evaluation.QuestionSingle, false, false, []seedOption{
						{"Conocimientos básicos de ofimática", 0},
						{"Capacitados en herramientas específicas del trabajo", 25},
						{"Programas de capacitación ocasionales", 50},
						{"Plan de desarrollo digital continuo", 75},
						{"Cultura de aprendizaje con certificaciones y upskilling activo", 100},
					}),
			},
		},
		{
			Dimension: evaluation.Dimension{
				ID: "dim-procesos", EvaluationID: evaluationID,
				Name:        "Procesos",
				Description: "Evalúa la eficiencia y automatización de los procesos de negocio",
				Weight:      1.0, Order: 2, Icon: "workflow", Color: "#F59E0B",
			},
			Questions: []evaluation.Question{
				question("dim-procesos", 0, "¿Qué nivel de documentación tienen sus procesos de negocio?",
					evaluation.QuestionSingle, false, false, []seedOption{
						{"No hay documentación formal", 0},
						{"Documentación parcial o desactualizada", 25},
						{"Procesos principales documentados", 50},
						{"Todos los procesos documentados y actualizados", 75},
						{"Procesos documentados con mejora continua (BPM)", 100},
					}),
				question("dim-procesos", 1, "¿Qué nivel de automatización tienen los procesos repetitivos?",
					evaluation.QuestionSingle, true, false, []seedOption{
						{"Todo es manual", 0},
						{"Algunas macros o scripts básicos", 25},
						{"Automatización con herramientas no-code (Zapier, Make)", 50},
						{"RPA implementado en procesos clave", 75},
						{"Automatización inteligente con IA/ML", 100},
					}),
				question("dim-procesos", 2, "¿Cómo miden y optimizan el rendimiento de sus procesos?",
					evaluation.QuestionSingle, false, false, []seedOption{
						{"No hay métricas definidas", 0},
						{"Métricas básicas (tiempo, costo) medidas manualmente", 25},
						{"KPIs definidos con seguimiento periódico", 50},
						{"Dashboards en tiempo real con alertas", 75},
						{"Optimización continua basada en analytics predictivo", 100},
					}),
			},
		},
		{
			Dimension: evaluation.Dimension{
				ID: "dim-experiencia", EvaluationID: evaluationID,
				Name:        "Experiencia del Cliente",
				Description: "Evalúa la madurez en la gestión de la experiencia digital del cliente",
				Weight:      1.0, Order: 3, Icon: "heart", Color: "#EC4899",
			},
			Questions: []evaluation.Question{
				question("dim-experiencia", 0, "¿Qué canales digitales utilizan para interactuar con clientes?",
					evaluation.QuestionMultiple, false, false, []seedOption{
						{"Solo canales tradicionales (teléfono, presencial)", 0},
						{"Email y formularios web", 20},
						{"Redes sociales activas", 40},
						{"Chat en vivo / WhatsApp Business", 60},
						{"App móvil propia", 80},
						{"Chatbot con IA / Omnicanalidad integrada", 100},
					}),
				question("dim-experiencia", 1, "¿Cómo personalizan la experiencia del cliente?",
					evaluation.QuestionSingle, false, false, []seedOption{
						{"Experiencia genérica para todos", 0},
						{"Segmentación básica por tipo de cliente", 25},
						{"Personalización basada en historial de compras", 50},
						{"Recomendaciones personalizadas en tiempo real", 75},
						{"Hiper-personalización con IA predictiva", 100},
					}),
				question("dim-experiencia", 2, "¿Cómo recopilan y actúan sobre el feedback del cliente?",
					evaluation.QuestionSingle, true, false, []seedOption{
						{"No hay proceso formal de feedback", 0},
						{"Encuestas ocasionales", 25},
						{"NPS/CSAT medido regularmente", 50},
						{"Voice of Customer integrado en decisiones", 75},
						{"Feedback en tiempo real con acción automatizada", 100},
					}),
			},
		},
	}
}

type seedOption struct {
	Text  string
	Score float64
}

func question(dimensionID string, order int, text, qtype string, requiresJust, justMandatory bool, options []seedOption) evaluation.Question {
	id := fmt.Sprintf("%s-q%d", dimensionID, order)
	q := evaluation.Question{
		ID:                     id,
		DimensionID:            dimensionID,
		Text:                   text,
		Type:                   qtype,
		Weight:                 1.0,
		Order:                  order,
		RequiresJustification:  requiresJust,
		JustificationMandatory: justMandatory,
		Active:                 true,
	}
	for i, o := range options {
		q.Options = append(q.Options, evaluation.Option{
			ID:         fmt.Sprintf("%s-o%d", id, i),
			QuestionID: id,
			Text:       o.Text,
			Score:      o.Score,
			Order:      i,
		})
	}
	return q
}

func recommendationBands(d evaluation.Dimension) []evaluation.RecommendationBand {
	type band struct {
		min, max float64
		level    string
		title    string
		desc     string
		actions  []string
	}
	bands := []band{
		{0, 20, "Incipiente", "Nivel Incipiente",
			fmt.Sprintf("Tu organización está en las etapas iniciales de madurez en %s. Se requiere una estrategia integral de transformación.", d.Name),
			[]string{"Realizar diagnóstico detallado", "Definir visión y roadmap", "Identificar quick wins"}},
		{20, 40, "Inicial", "Nivel Inicial",
			fmt.Sprintf("Hay esfuerzos aislados en %s pero falta una estrategia integrada. Es momento de consolidar.", d.Name),
			[]string{"Documentar procesos actuales", "Identificar gaps principales", "Priorizar iniciativas de alto impacto"}},
		{40, 60, "En Desarrollo", "En Desarrollo",
			fmt.Sprintf("Buen progreso en %s. Las bases están establecidas, ahora es momento de escalar.", d.Name),
			[]string{"Optimizar procesos existentes", "Implementar métricas avanzadas", "Expandir adopción en toda la organización"}},
		{60, 80, "Maduro", "Nivel Maduro",
			fmt.Sprintf("Excelente nivel de madurez en %s. Enfócate en optimización continua y diferenciación.", d.Name),
			[]string{"Implementar mejora continua", "Explorar tecnologías emergentes", "Compartir best practices internamente"}},
		{80, 100, "Líder", "Nivel Líder",
			fmt.Sprintf("Tu organización es líder en %s. Mantén la innovación y considera compartir conocimiento con el ecosistema.", d.Name),
			[]string{"Innovación continua", "Mentoring a otras áreas/organizaciones", "Explorar nuevos horizontes tecnológicos"}},
	}

	out := make([]evaluation.RecommendationBand, 0, len(bands))
	for i, b := range bands {
		out = append(out, evaluation.RecommendationBand{
			ID:               fmt.Sprintf("%s-band%d", d.ID, i),
			DimensionID:      d.ID,
			ScoreMin:         b.min,
			ScoreMax:         b.max,
			Level:            b.level,
			Title:            fmt.Sprintf("%s: %s", d.Name, b.title),
			Description:      b.desc,
			SuggestedActions: strings.Join(b.actions, "\n"),
		})
	}
	return out
}
