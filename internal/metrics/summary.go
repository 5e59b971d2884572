package metrics

import (
	"math"
	"sort"

	"serverstatus/internal/models"
)

// Summary counts the outcomes of one run.
type Summary struct {
	Total           int             `json:"total"`
	Online          int             `json:"online"`
	Offline         int             `json:"offline"`
	Errors          int             `json:"errors"`
	AvailabilityPct float64         `json:"availability_percent"`
	Targets         []TargetSummary `json:"targets,omitempty"`
}

// TargetSummary counts outcomes per configured target.
type TargetSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Online  int    `json:"online"`
	Offline int    `json:"offline"`
	Errors  int    `json:"errors"`
}

// HasErrors reports whether any endpoint could not be classified as Online or Offline.
func (s Summary) HasErrors() bool {
	return s.Errors > 0
}

// Summarize aggregates results per status and per target.
func Summarize(results []models.CheckResult) Summary {
	var summary Summary
	perTarget := make(map[string]*TargetSummary)
	for _, res := range results {
		key := res.TargetID
		if key == "" {
			key = res.Name
		}
		ts := perTarget[key]
		if ts == nil {
			ts = &TargetSummary{ID: key, Name: res.Name}
			perTarget[key] = ts
		}

		summary.Total++
		switch res.Status {
		case models.StatusOnline:
			summary.Online++
			ts.Online++
		case models.StatusOffline:
			summary.Offline++
			ts.Offline++
		default:
			summary.Errors++
			ts.Errors++
		}
	}
	if summary.Total > 0 {
		summary.AvailabilityPct = round2(float64(summary.Online) / float64(summary.Total) * 100)
	}
	if len(perTarget) == 0 {
		return summary
	}

	keys := make([]string, 0, len(perTarget))
	for k := range perTarget {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	summary.Targets = make([]TargetSummary, 0, len(keys))
	for _, k := range keys {
		summary.Targets = append(summary.Targets, *perTarget[k])
	}
	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
