package schema

import (
	"testing"

	"reconciled/pkg/parser"
)

func TestCanonicalizeRewritesHeadersToRoles(t *testing.T) {
	side := &Side{FieldRoles: map[string][]string{
		"tx_id":  {"Transaction ID"},
		"amount": {"Amount"},
	}}
	table := &parser.RawTable{
		Headers: []string{"Transaction ID", "Amount", "Notes"},
		Records: []map[string]string{
			{"Transaction ID": "A1", "Amount": "100", "Notes": "flagged"},
		},
	}

	rows := Canonicalize(side, table)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	r := rows[0]
	if r["tx_id"].Str != "A1" || r["amount"].Str != "100" {
		t.Errorf("got %+v", r)
	}
	if r["Notes"].Str != "flagged" {
		t.Errorf("unclaimed column should be preserved under its original header, got %+v", r)
	}
	if _, ok := r["Transaction ID"]; ok {
		t.Error("a claimed column should not also appear under its original header")
	}
}
