package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/fmjrey/chkodf/result"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	successStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	categoryStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	dimStyle         = lipgloss.NewStyle().Faint(true)
	urlStyle         = lipgloss.NewStyle()
	statusErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	replaceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// categoryOrder defines the display order for failure categories (most to least actionable).
var categoryOrder = []result.ErrorCategory{
	result.CategoryInvalidArticle,
	result.Category4xx,
	result.Category5xx,
	result.CategoryTimeout,
	result.CategoryDNSFailure,
	result.CategoryConnectionRefused,
	result.CategoryRedirectLoop,
	result.CategoryCancelled,
	result.CategoryUnknown,
}

// RenderSummary produces a Lip Gloss styled summary of a report.
func RenderSummary(report *result.Report) string {
	if report == nil {
		return errorStyle.Render("No results available.")
	}

	var builder strings.Builder

	if len(report.Replacements) > 0 {
		builder.WriteString(categoryStyle.Render(fmt.Sprintf("## Replacements (%d)", len(report.Replacements))))
		builder.WriteString("\n")
		builder.WriteString(replacementTable(report.Replacements))
		builder.WriteString("\n\n")
	}

	// Group failures by category
	grouped := make(map[result.ErrorCategory][]result.Result)
	for _, res := range report.Results {
		if res.Classification != result.Failure {
			continue
		}
		cat := res.Category
		if cat == "" {
			cat = result.CategoryUnknown
		}
		grouped[cat] = append(grouped[cat], res)
	}

	for _, cat := range categoryOrder {
		failures := grouped[cat]
		if len(failures) == 0 {
			continue
		}

		builder.WriteString(categoryStyle.Render(fmt.Sprintf("## %s (%d)", result.FormatCategory(cat), len(failures))))
		builder.WriteString("\n")

		rows := make([][]string, 0, len(failures))
		for _, res := range failures {
			status := ""
			if res.Status != 0 {
				status = fmt.Sprintf("%d", res.Status)
			}
			if len(res.Messages) > 0 {
				status = strings.TrimSpace(status + " " + res.Messages[0])
			}
			rows = append(rows, []string{res.URL, status})
		}

		catTable := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("URL", "Status").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				if col == 1 { // Status column
					return statusErrorStyle
				}
				return urlStyle
			}).
			Rows(rows...)

		builder.WriteString(catTable.Render())
		builder.WriteString("\n\n")
	}

	summary := report.Summary
	if summary.FailedLinks == 0 {
		builder.WriteString(successStyle.Render("No broken links found!"))
		builder.WriteString("\n")
	}
	builder.WriteString(titleStyle.Render(fmt.Sprintf(
		"Checked %d links (%d distinct URLs)",
		summary.Inputs,
		summary.Distinct,
	)))
	builder.WriteString("\n")

	counts := make([]string, 0, len(result.Classifications))
	for _, class := range result.Classifications {
		counts = append(counts, fmt.Sprintf("%s %d", class.Tag(), summary.Counts[class]))
	}
	builder.WriteString(dimStyle.Render(strings.Join(counts, "  ")))
	builder.WriteString("\n")

	if !report.Consistency.OK() {
		builder.WriteString(errorStyle.Render(fmt.Sprintf(
			"Warning: %d URLs registered but %d assigned",
			report.Consistency.Created,
			report.Consistency.Assigned,
		)))
		builder.WriteString("\n")
	}

	return builder.String()
}

func replacementTable(replacements map[string]string) string {
	urls := make([]string, 0, len(replacements))
	for url := range replacements {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	rows := make([][]string, 0, len(urls))
	for _, url := range urls {
		rows = append(rows, []string{url, replacements[url]})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("URL", "Replacement").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 {
				return replaceStyle
			}
			return urlStyle
		}).
		Rows(rows...).
		Render()
}
