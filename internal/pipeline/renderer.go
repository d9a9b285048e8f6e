package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/overlap/internal/model"
)

// Renderer writes reports as JSON, Markdown and a terminal summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return r.writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes the report as a Markdown document
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return r.writeFile(path, []byte(r.Markdown(report)))
}

// Markdown formats the report as Markdown
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Claim overlap: %s\n\n", report.Subject)
	fmt.Fprintf(&b, "- Source: `%s`\n", report.Source)
	fmt.Fprintf(&b, "- Analyzed: %s\n", report.AnalyzedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- Input sha256: `%s`\n\n", report.InputHash)

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Claims | %d |\n", report.Claims)
	fmt.Fprintf(&b, "| Claimed squares | %d |\n", report.ClaimedSquares)
	fmt.Fprintf(&b, "| Overlapping squares | %d |\n", report.OverlappingSquares)
	fmt.Fprintf(&b, "| Conflicting claims | %d |\n", report.ConflictingClaims)
	fmt.Fprintf(&b, "| Intact claims | %d |\n", len(report.IntactClaims))
	fmt.Fprintf(&b, "| Contention | %.1f%% |\n", report.Score.Contention*100)
	if report.Bounds != nil {
		fmt.Fprintf(&b, "| Bounds | %v .. %v |\n", report.Bounds.Min, report.Bounds.Max)
	}
	b.WriteString("\n")

	b.WriteString("## Intact claims\n\n")
	if len(report.IntactClaims) == 0 {
		b.WriteString("_None._\n\n")
	} else {
		for _, c := range report.IntactClaims {
			fmt.Fprintf(&b, "- `%s`\n", c)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Signals\n\n")
	b.WriteString("| Signal | Severity | Description |\n|---|---|---|\n")
	for _, s := range report.Score.Signals {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", s.Type, s.Severity, s.Description)
	}
	b.WriteString("\n")

	if len(report.Issues) > 0 {
		b.WriteString("## Issues\n\n")
		for _, issue := range report.Issues {
			fmt.Fprintf(&b, "- **%s** `%s` (%s): %s\n", issue.Kind, issue.ClaimID, issue.Severity, issue.Message)
		}
		b.WriteString("\n")
	}

	if len(report.ParseErrors) > 0 {
		b.WriteString("## Skipped lines\n\n")
		for _, pe := range report.ParseErrors {
			fmt.Fprintf(&b, "- line %d `%s`: %s\n", pe.Line, pe.Text, pe.Error)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n_Generated by overlap. Counts are exact; no sampling is involved._\n")
	}

	return b.String()
}

// RenderSummary prints a short summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	ids := make([]string, len(report.IntactClaims))
	for i, c := range report.IntactClaims {
		ids[i] = string(c.ID)
	}
	intact := strings.Join(ids, ", ")
	if intact == "" {
		intact = "none"
	}

	fmt.Fprintf(w, "%s\n", report.Subject)
	fmt.Fprintf(w, "  Claims:              %d\n", report.Claims)
	fmt.Fprintf(w, "  Overlapping squares: %d\n", report.OverlappingSquares)
	fmt.Fprintf(w, "  Intact claims:       %s\n", intact)
	if len(report.ParseErrors) > 0 {
		fmt.Fprintf(w, "  Skipped lines:       %d\n", len(report.ParseErrors))
	}
}

func (r *Renderer) writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
