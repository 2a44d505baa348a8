package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spigell/resume-analyzer/internal/report"
)

func printSummary(w io.Writer, view report.View) {
	fmt.Fprintf(w, "\nMatching score: %d%% (%s)\n", view.Score, view.Verdict.Level)
	fmt.Fprintf(w, "%s\n\n", view.Verdict.Message)

	printList(w, fmt.Sprintf("Top matching skills (%d total)", view.Matched), view.TopMatching, "No matching skills found.")
	printList(w, fmt.Sprintf("Top missing skills (%d total)", view.Missing), view.TopMissing, "No critical missing skills.")

	if len(view.FocusAreas) > 0 {
		fmt.Fprintf(w, "Key focus areas: %s\n\n", strings.Join(view.FocusAreas, ", "))
	}
}

func printKeywords(w io.Writer, title string, keywords []string) {
	printList(w, fmt.Sprintf("%s (%d)", title, len(keywords)), keywords, "None.")
}

func printCategories(w io.Writer, categories []report.Category) {
	if len(categories) == 0 {
		fmt.Fprint(w, "No major improvements needed.\n\n")
		return
	}

	for _, c := range categories {
		printList(w, fmt.Sprintf("%s (%d)", c.Name, len(c.Items)), c.Items, "")
	}
}

func printPriorities(w io.Writer, priorities []report.Priority) {
	if len(priorities) == 0 {
		fmt.Fprint(w, "No suggestions.\n\n")
		return
	}

	for _, p := range priorities {
		fmt.Fprintf(w, "[%-6s] %s\n", p.Level, p.Suggestion)
	}
	fmt.Fprintln(w)
}

func printList(w io.Writer, title string, items []string, empty string) {
	fmt.Fprintf(w, "%s:\n", title)
	if len(items) == 0 && empty != "" {
		fmt.Fprintf(w, "  %s\n", empty)
	}
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
	fmt.Fprintln(w)
}

func keywordStatus(rep *report.ScoreReport, keyword string) string {
	switch {
	case rep.Matches(keyword):
		return "matched"
	case rep.Misses(keyword):
		return "missing"
	default:
		return "not mentioned by the report"
	}
}
