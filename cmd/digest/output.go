package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/docrank/internal/digest"
	"github.com/dgallion1/docrank/internal/outline"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
)

const titleWidth = 60

// renderSummary prints the run header and the ranked sections.
func renderSummary(w io.Writer, out *digest.Output, path string) {
	md := out.Metadata
	header := fmt.Sprintf("%s %s\n%s %s\n%s %s  %s %.2fs\n%s %s",
		dimStyle.Render("Persona:"), titleStyle.Render(md.Persona),
		dimStyle.Render("Task:"), md.JobToBeDone,
		dimStyle.Render("Model:"), md.ModelUsed,
		dimStyle.Render("Time:"), md.ProcessingTimeSeconds,
		dimStyle.Render("Wrote:"), path,
	)
	fmt.Fprintln(w, boxStyle.Render(header))

	if len(out.ExtractedSections) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no sections ranked"))
		return
	}
	for _, s := range out.ExtractedSections {
		fmt.Fprintf(w, "%3d  %s  %s %s\n",
			s.ImportanceRank,
			scoreStyle.Render(fmt.Sprintf("%.4f", s.RelevanceScore)),
			clip(s.SectionTitle, titleWidth),
			dimStyle.Render(fmt.Sprintf("(%s p.%d)", s.Document, s.PageNumber)),
		)
	}
}

// renderOutline prints an indented heading tree.
func renderOutline(w io.Writer, o outline.Outline, path string) {
	title := o.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintln(w, boxStyle.Render(fmt.Sprintf("%s\n%s %s",
		titleStyle.Render(title),
		dimStyle.Render("Wrote:"), path,
	)))
	for _, e := range o.Outline {
		indent := 0
		switch e.Level {
		case outline.H2:
			indent = 2
		case outline.H3:
			indent = 4
		}
		fmt.Fprintf(w, "%s%s %s %s\n",
			strings.Repeat(" ", indent),
			dimStyle.Render(string(e.Level)),
			clip(e.Text, titleWidth),
			dimStyle.Render(fmt.Sprintf("p.%d", e.Page)),
		)
	}
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
