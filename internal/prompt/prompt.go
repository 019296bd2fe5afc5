package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// BuildUserPrompt renders the assembled context into the natural-language
// brief. The section names and the closing instruction block are part of the
// contract generated reports are compared against across evaluations, so the
// wording stays fixed.
func BuildUserPrompt(c Context) string {
	var dims strings.Builder
	for i, d := range c.Dimensions {
		if i > 0 {
			dims.WriteString("\n")
		}
		fmt.Fprintf(&dims, "- **%s:** %v/100 (%s)", d.Name, d.Score, d.Level)
	}

	justifications := "No se proporcionaron justificaciones adicionales."
	if len(c.Justifications) > 0 {
		var b strings.Builder
		for i, j := range c.Justifications {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "**Pregunta:** %s\n**Respuesta del usuario:** %s", j.Question, j.Justification)
		}
		justifications = b.String()
	}

	return fmt.Sprintf(`## Contexto de la Evaluación

### Datos de la Empresa
- **Nombre:** %s
- **Caracterización:**
%s

### Resultados de Madurez
- **Puntaje Global:** %v/100

#### Resultados por Dimensión:
%s

### Justificaciones y Contexto Adicional del Usuario
%s

---

Por favor genera un análisis personalizado y accionable con los siguientes elementos:

1. **Diagnóstico Ejecutivo** (3-4 párrafos que resuman la situación actual de la empresa)

2. **Fortalezas Identificadas** (las dimensiones donde la empresa destaca)

3. **Áreas Críticas de Mejora** (las dimensiones con mayor oportunidad, priorizadas por impacto)

4. **Roadmap de 90 Días** con acciones priorizadas:
   - Semanas 1-2: Quick wins
   - Semanas 3-6: Iniciativas de mediano plazo
   - Semanas 7-12: Proyectos estratégicos

5. **Quick Wins** (3-5 acciones de impacto inmediato que pueden ejecutarse esta semana)

6. **Métricas de Seguimiento** (KPIs sugeridos para medir progreso en la próxima evaluación)

Asegúrate de:
- Ser específico al sector y tamaño de la empresa
- Considerar las justificaciones de texto que proporcionó el usuario
- Dar recomendaciones prácticas y accionables, no genéricas
- Usar un tono profesional pero accesible
`,
		c.CompanyName,
		characterizationJSON(c.Characterization),
		c.GlobalScore,
		dims.String(),
		justifications,
	)
}

func characterizationJSON(m map[string]string) string {
	if m == nil {
		m = map[string]string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	_ = enc.Encode(m)
	return strings.TrimRight(buf.String(), "\n")
}
