package result

import (
	"fmt"
	"io"
	"sort"
)

// PrintResult writes one resolved URL with its tag, messages, and warnings.
func PrintResult(w io.Writer, res Result) {
	writef := func(format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

	if res.IsRewrite() {
		writef("%s %s -> %s\n", res.Classification.Tag(), res.URL, res.Location)
	} else {
		writef("%s %s\n", res.Classification.Tag(), res.URL)
	}
	if res.Status != 0 {
		writef("  Status: %d %s\n", res.Status, res.ReasonPhrase)
	}
	for _, msg := range res.Messages {
		writef("  %s\n", msg)
	}
	for _, warn := range res.Warnings {
		writef("  Warning: %s\n", warn)
	}
}

// PrintSummary writes the per-classification counts and, when the registry
// bookkeeping does not add up, a warning naming the discrepancy.
func PrintSummary(w io.Writer, report *Report) {
	writef := func(format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

	writef("Checked %d links (%d distinct URLs)\n", report.Summary.Inputs, report.Summary.Distinct)
	for _, class := range Classifications {
		if n := report.Summary.Counts[class]; n > 0 {
			writef("  %-10s %d\n", class, n)
		}
	}
	if len(report.Summary.Categories) > 0 {
		cats := make([]ErrorCategory, 0, len(report.Summary.Categories))
		for cat := range report.Summary.Categories {
			cats = append(cats, cat)
		}
		sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
		for _, cat := range cats {
			writef("    %s: %d\n", FormatCategory(cat), report.Summary.Categories[cat])
		}
	}
	if report.Summary.FailedLinks > 0 {
		writef("%d broken links in the document\n", report.Summary.FailedLinks)
	}
	if !report.Consistency.OK() {
		writef("Warning: %d URLs registered but %d assigned\n", report.Consistency.Created, report.Consistency.Assigned)
		for _, u := range report.Consistency.Unassigned {
			writef("  unassigned: %s\n", u)
		}
	}
}

// PrintReport writes every result followed by the summary.
func PrintReport(w io.Writer, report *Report) {
	for _, res := range report.Results {
		PrintResult(w, res)
	}
	if len(report.Results) > 0 {
		_, _ = fmt.Fprintln(w)
	}
	PrintSummary(w, report)
}
