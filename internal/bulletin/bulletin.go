// Package bulletin renders an engine report as a human-readable diagnostic
// bulletin, in Markdown or HTML.
package bulletin

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"goenso/app"
	"goenso/domain/enso"
)

// Render writes the report as a Markdown document.
func Render(r *app.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# ENSO Diagnostic Bulletin\n\n")
	fmt.Fprintf(&b, "Dataset `%s`, run `%s`, configuration `%s`.\n", r.Dataset, r.RunID, r.Fingerprint)
	fmt.Fprintf(&b, "Generated %s from %d base-period samples.\n\n", r.CreatedAt.Format("2006-01-02 15:04 UTC"), r.Samples)

	fmt.Fprintf(&b, "## E and C index\n\n")
	fmt.Fprintf(&b, "| Series | Samples | Mean | Std | Min | Max | Median | Last |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|---|---|---|\n")
	writeStatsRow(&b, "E", r.E)
	writeStatsRow(&b, "C", r.C)
	writeStatsRow(&b, "E (smoothed)", r.ESmooth)
	writeStatsRow(&b, "C (smoothed)", r.CSmooth)
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Niño zone anomalies\n\n")
	fmt.Fprintf(&b, "| Zone | Samples | Mean | Std | Last |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|\n")
	for _, zone := range enso.Zones() {
		stats, ok := r.Zones[zone]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "| Niño %s | %d | %.3f | %.3f | %.3f |\n",
			zone, stats.Samples, stats.Mean, stats.StdDev, stats.Last)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Mode diagnostics\n\n")
	if len(r.ExplainedVariance) >= 2 {
		fmt.Fprintf(&b, "- Explained variance: mode 0 %.1f%%, mode 1 %.1f%%\n",
			100*r.ExplainedVariance[0], 100*r.ExplainedVariance[1])
	}
	fmt.Fprintf(&b, "- Correction factor: %s\n", r.Correction)
	fmt.Fprintf(&b, "- Nonlinearity alpha (DJF means): %.3f\n", r.Alpha)

	return b.String()
}

// RenderHTML renders the report as a standalone HTML page.
func RenderHTML(r *app.Report) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(Render(r)))

	renderer := html.NewRenderer(html.RendererOptions{
		Title: "ENSO Diagnostic Bulletin",
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.Render(doc, renderer)
}

func writeStatsRow(b *strings.Builder, label string, s enso.SeriesStats) {
	fmt.Fprintf(b, "| %s | %d | %.3f | %.3f | %.3f | %.3f | %.3f | %.3f |\n",
		label, s.Samples, s.Mean, s.StdDev, s.Min, s.Max, s.Median, s.Last)
}
