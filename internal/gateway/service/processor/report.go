package processor

import (
	"fmt"
	"html"
	"strings"

	"maturix/internal/prompt"
)

// RenderReportHTML wraps the generated analysis in a self-contained HTML
// document with the session's scorecard. The analysis markdown is embedded
// escaped; clients render it on their side.
func RenderReportHTML(pctx prompt.Context, analysis string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"es\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>Reporte de Madurez Digital - %s</title>\n", html.EscapeString(pctx.CompanyName))
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(pctx.EvaluationName))
	fmt.Fprintf(&b, "<h2>%s</h2>\n", html.EscapeString(pctx.CompanyName))
	fmt.Fprintf(&b, "<p>Puntaje global: <strong>%v/100</strong></p>\n", pctx.GlobalScore)

	b.WriteString("<table>\n<thead><tr><th>Dimensión</th><th>Puntaje</th><th>Nivel</th></tr></thead>\n<tbody>\n")
	for _, d := range pctx.Dimensions {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%v</td><td>%s</td></tr>\n",
			html.EscapeString(d.Name), d.Score, html.EscapeString(d.Level))
	}
	b.WriteString("</tbody>\n</table>\n")

	fmt.Fprintf(&b, "<section id=\"analisis\">\n<pre>%s</pre>\n</section>\n", html.EscapeString(analysis))
	b.WriteString("</body>\n</html>\n")
	return b.String()
}
