package app

import (
	"fmt"
	"os"
	"strings"

	"immunoscope/domain/outcome"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// RenderText formats a run for the terminal
func RenderText(run *outcome.Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s (%s, project %s)\n", run.ID, run.Source, run.Query.ProjectID)
	fmt.Fprintf(&b, "Cohort: %d genes x %d patients, %d analysed, %d dropped for missing vital status\n",
		run.Genes, run.Patients, run.Outcome.Len(), len(run.Dropped))
	fmt.Fprintf(&b, "Markers matched: %s\n", joinOrNone(run.Matched))
	if len(run.Missing) > 0 {
		fmt.Fprintf(&b, "Markers missing: %s\n", strings.Join(run.Missing, ", "))
	}
	for _, g := range run.Groups {
		fmt.Fprintf(&b, "  %-12s n=%-4d mean=%.3f median=%.3f\n", g.Label, g.N, g.Mean, g.Median)
	}
	fmt.Fprintf(&b, "%s (%s): W = %g, p-value = %.4g%s\n",
		run.Test.Method, run.Test.Alternative, run.Test.Statistic, run.Test.PValue, exactness(run.Test))
	fmt.Fprintf(&b, "Verdict: %s\n", run.Verdict)
	return b.String()
}

// RenderMarkdown formats a run as a markdown document
func RenderMarkdown(run *outcome.Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Immune signature vs vital status: %s\n\n", run.Query.ProjectID)
	fmt.Fprintf(&b, "- Run: `%s`\n", run.ID)
	fmt.Fprintf(&b, "- Source: %s\n", run.Source)
	fmt.Fprintf(&b, "- Cohort hash: `%s`\n", run.CohortHash)
	fmt.Fprintf(&b, "- Genes x patients: %d x %d\n", run.Genes, run.Patients)
	fmt.Fprintf(&b, "- Markers matched: %s\n", joinOrNone(run.Matched))
	fmt.Fprintf(&b, "- Markers missing: %s\n", joinOrNone(run.Missing))
	fmt.Fprintf(&b, "- Dropped (no vital status): %d\n\n", len(run.Dropped))

	b.WriteString("## Groups\n\n| Vital status | n | Mean score | Median score |\n|---|---|---|---|\n")
	for _, g := range run.Groups {
		fmt.Fprintf(&b, "| %s | %d | %.3f | %.3f |\n", g.Label, g.N, g.Mean, g.Median)
	}

	b.WriteString("\n## Test\n\n")
	fmt.Fprintf(&b, "%s, %s: W = %g, p-value = %.4g%s\n\n", run.Test.Method, run.Test.Alternative,
		run.Test.Statistic, run.Test.PValue, exactness(run.Test))
	fmt.Fprintf(&b, "**Verdict:** %s\n\n", run.Verdict)

	b.WriteString("## Patient scores\n\n| Patient | Vital status | Score |\n|---|---|---|\n")
	for _, r := range run.Outcome.Records {
		fmt.Fprintf(&b, "| %s | %s | %.4f |\n", r.PatientID, r.VitalStatus, r.Score)
	}
	return b.String()
}

// RenderHTML converts the markdown report into a standalone page
func RenderHTML(run *outcome.Run) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(RenderMarkdown(run)))
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: fmt.Sprintf("Immune signature report %s", run.Query.ProjectID),
	})
	return markdown.Render(doc, renderer)
}

// WriteHTMLReport writes the HTML report to path
func WriteHTMLReport(path string, run *outcome.Run) error {
	if err := os.WriteFile(path, RenderHTML(run), 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

func exactness(t outcome.TestResult) string {
	if t.Exact {
		return " (exact)"
	}
	return " (normal approximation)"
}

func joinOrNone(s []string) string {
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, ", ")
}
