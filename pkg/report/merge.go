// Package report produces the Result Reporter artifact (C9): summary
// counts, the ordered issue list, and run metadata.
package report

import (
	"fmt"
	"time"

	"reconciled/pkg/engine"
	"reconciled/pkg/rules"
	"reconciled/pkg/schema"
)

// Summary holds the record-count breakdown for one completed run.
type Summary struct {
	TotalBusinessRecords int `json:"total_business_records"`
	TotalFinanceRecords  int `json:"total_finance_records"`
	MatchedRecords       int `json:"matched_records"`
	UnmatchedRecords     int `json:"unmatched_records"`
}

// Metadata carries the run's provenance: schema version, processing
// timestamp, which files landed on which side, and accumulated warnings.
type Metadata struct {
	RuleVersion     string              `json:"rule_version"`
	ProcessedAt     time.Time           `json:"processed_at"`
	FileAssignments map[string][]string `json:"file_assignments"`
	Warnings        []string            `json:"warnings"`
}

// Artifact is the full persisted reconciliation result (§6.3), written to
// <results>/<task_id>.json on task completion.
type Artifact struct {
	TaskID   string        `json:"task_id"`
	Status   string        `json:"status"`
	Summary  Summary       `json:"summary"`
	Issues   []rules.Issue `json:"issues"`
	Metadata Metadata      `json:"metadata"`
}

// Build assembles the final artifact from the matching engine's join
// result and the validation evaluator's issues. Issue order is preserved
// exactly as produced by rules.Evaluate — scan order of candidates times
// rule declaration order, per §4.9's P3/P6 ordering guarantees.
func Build(taskID string, s *schema.Schema, joined *engine.JoinResult, evaluated rules.Result, fileAssignments map[string][]string, processedAt time.Time) Artifact {
	totalBusiness := len(joined.Matched) + len(joined.BusinessOnly)
	totalFinance := len(joined.Matched) + len(joined.FinanceOnly)
	unmatched := len(joined.BusinessOnly) + len(joined.FinanceOnly)

	warnings := make([]string, 0, len(joined.Warnings)+len(evaluated.Warnings))
	for _, w := range joined.Warnings {
		warnings = append(warnings, w.Kind+": duplicate key "+w.Key)
	}
	for _, w := range evaluated.Warnings {
		warnings = append(warnings, string(w.Kind)+": "+w.Message)
	}
	warnings = append(warnings, fuzzyHints(joined, s.KeyRole)...)

	return Artifact{
		TaskID: taskID,
		Status: "completed",
		Summary: Summary{
			TotalBusinessRecords: totalBusiness,
			TotalFinanceRecords:  totalFinance,
			MatchedRecords:       len(joined.Matched),
			UnmatchedRecords:     unmatched,
		},
		Issues: evaluated.Issues,
		Metadata: Metadata{
			RuleVersion:     s.Version,
			ProcessedAt:     processedAt,
			FileAssignments: fileAssignments,
			Warnings:        warnings,
		},
	}
}

// fuzzyHints surfaces a non-authoritative "closest row on the other side"
// note for every orphaned row, so an operator reviewing unmatched records
// gets a lead without the matching engine itself ever acting on fuzzy
// similarity (the join stays strict key-comparator equality, per §4.6).
func fuzzyHints(joined *engine.JoinResult, keyRole string) []string {
	var hints []string
	for _, r := range joined.BusinessOnly {
		key := r.Get(keyRole).FormatString()
		if hint, score := engine.FuzzyHint(key, joined.FinanceOnly, keyRole); hint != "" {
			hints = append(hints, fmt.Sprintf("business-only %q closely resembles finance-only %q (similarity %.2f)", key, hint, score))
		}
	}
	for _, r := range joined.FinanceOnly {
		key := r.Get(keyRole).FormatString()
		if hint, score := engine.FuzzyHint(key, joined.BusinessOnly, keyRole); hint != "" {
			hints = append(hints, fmt.Sprintf("finance-only %q closely resembles business-only %q (similarity %.2f)", key, hint, score))
		}
	}
	return hints
}
