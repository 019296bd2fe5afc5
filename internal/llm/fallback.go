package llm

// FallbackReport is the canned analysis used when no provider is configured or
// a provider call fails. It mirrors the six-section structure of a real
// generated report so downstream rendering never has to distinguish the two.
const FallbackReport = `## Diagnóstico Ejecutivo

No fue posible generar un análisis personalizado con IA en este momento. A continuación se presenta un resumen general basado en los puntajes calculados de la evaluación.

Los resultados por dimensión reflejan el nivel de madurez digital actual de la organización. Se recomienda revisar cada dimensión junto con las recomendaciones base configuradas para su rango de puntaje, que siguen siendo válidas y accionables.

## Fortalezas Identificadas

Las dimensiones con mayor puntaje representan las áreas donde la organización ya cuenta con capacidades consolidadas. Apóyese en ellas como palanca para las iniciativas de mejora.

## Áreas Críticas de Mejora

Las dimensiones con menor puntaje concentran la mayor oportunidad de impacto. Priorice las acciones sugeridas en las recomendaciones base de cada una, comenzando por las de menor esfuerzo de implementación.

## Roadmap de 90 Días

- **Semanas 1-2:** Socializar los resultados de la evaluación con el equipo directivo y definir responsables por dimensión.
- **Semanas 3-6:** Ejecutar las acciones de mejora de menor complejidad en las dimensiones críticas.
- **Semanas 7-12:** Formular iniciativas estratégicas para las brechas estructurales identificadas.

## Quick Wins

- Revisar las recomendaciones base de cada dimensión evaluada.
- Asignar un responsable de seguimiento por dimensión.
- Agendar una nueva evaluación en 90 días para medir avance.

## Métricas de Seguimiento

- Puntaje global y por dimensión en la próxima evaluación.
- Porcentaje de acciones recomendadas ejecutadas.
- Brecha entre la dimensión más fuerte y la más débil.
`
