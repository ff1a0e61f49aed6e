package registry

import "github.com/fmjrey/chkodf/result"

// Aggregate folds a finished registry into a report. Per-classification
// counts come from the registry's groups. A creation/assignment mismatch is
// recorded in Consistency, never returned as an error.
func Aggregate(snap Snapshot) result.Report {
	report := result.Report{
		Results: snap.Results,
		Summary: result.Summary{
			Inputs:     len(snap.Inputs),
			Distinct:   snap.Created,
			Counts:     make(map[result.Classification]int, len(result.Classifications)),
			Categories: make(map[result.ErrorCategory]int),
		},
		Consistency: result.Consistency{
			Created:    snap.Created,
			Assigned:   snap.Assigned,
			Unassigned: snap.Pending,
		},
		Replacements: make(map[string]string),
	}

	inputs := make(map[string]struct{}, len(snap.Inputs))
	for _, href := range snap.Inputs {
		inputs[href] = struct{}{}
	}

	for class, urls := range snap.Groups {
		report.Summary.Counts[class] = len(urls)
	}
	for _, url := range snap.Groups[result.Failure] {
		if _, ok := inputs[url]; ok {
			report.Summary.FailedLinks++
		}
	}
	for _, res := range snap.Results {
		switch res.Classification {
		case result.Failure:
			report.Summary.Categories[res.Category]++
		case result.Replace, result.Redirect:
			report.Replacements[res.URL] = res.Location
		}
	}
	return report
}
