package report

import (
	"testing"
	"time"

	"reconciled/pkg/engine"
	"reconciled/pkg/rules"
	"reconciled/pkg/row"
	"reconciled/pkg/schema"
)

func TestBuildComputesSummaryCounts(t *testing.T) {
	joined := &engine.JoinResult{
		Matched:      []engine.Pair{{}, {}},
		BusinessOnly: row.Rows{{"tx_id": row.String("A1")}},
		FinanceOnly:  row.Rows{{"tx_id": row.String("B1")}, {"tx_id": row.String("B2")}},
	}
	s := &schema.Schema{Version: "1.0", KeyRole: "tx_id"}
	evaluated := rules.Result{Issues: []rules.Issue{{KeyValue: "A1"}}}

	artifact := Build("task_1", s, joined, evaluated, map[string][]string{"business": {"orders.csv"}}, time.Unix(0, 0))

	if artifact.Summary.TotalBusinessRecords != 3 {
		t.Errorf("got %d, want 3", artifact.Summary.TotalBusinessRecords)
	}
	if artifact.Summary.TotalFinanceRecords != 4 {
		t.Errorf("got %d, want 4", artifact.Summary.TotalFinanceRecords)
	}
	if artifact.Summary.MatchedRecords != 2 {
		t.Errorf("got %d, want 2", artifact.Summary.MatchedRecords)
	}
	if artifact.Summary.UnmatchedRecords != 3 {
		t.Errorf("got %d, want 3", artifact.Summary.UnmatchedRecords)
	}
	if artifact.Status != "completed" {
		t.Errorf("got %q", artifact.Status)
	}
	if len(artifact.Issues) != 1 {
		t.Errorf("issues should be carried through unchanged")
	}
}

func TestBuildMergesJoinAndRuleWarnings(t *testing.T) {
	joined := &engine.JoinResult{
		Warnings: []engine.Warning{{Kind: "DuplicateKey", Key: "A1"}},
	}
	s := &schema.Schema{Version: "1.0", KeyRole: "tx_id"}
	evaluated := rules.Result{Warnings: []rules.Warning{{Kind: "PredicateError", Message: "bad regex"}}}

	artifact := Build("task_1", s, joined, evaluated, nil, time.Unix(0, 0))

	if len(artifact.Metadata.Warnings) != 2 {
		t.Fatalf("got %d warnings, want 2", len(artifact.Metadata.Warnings))
	}
}
