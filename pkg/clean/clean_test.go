package clean

import (
	"testing"

	"reconciled/pkg/row"
	"reconciled/pkg/schema"
)

func TestDivideBy100(t *testing.T) {
	rows := row.Rows{{"amount": row.String("10050")}}
	rule := schema.CleanRule{Op: schema.OpDivideBy100, Fields: []string{"amount"}}

	out, warns := Apply(rows, []schema.CleanRule{rule}, "", "")
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %+v", warns)
	}
	if out[0]["amount"].Num != 100.5 {
		t.Errorf("got %v, want 100.5", out[0]["amount"].Num)
	}
}

func TestMultiplyByFactor(t *testing.T) {
	rows := row.Rows{{"amount": row.String("10")}}
	rule := schema.CleanRule{Op: schema.OpMultiplyBy, Fields: []string{"amount"}, Factor: 1.5}

	out, _ := Apply(rows, []schema.CleanRule{rule}, "", "")
	if out[0]["amount"].Num != 15 {
		t.Errorf("got %v, want 15", out[0]["amount"].Num)
	}
}

func TestUnparsableAmountBecomesNullWithWarning(t *testing.T) {
	rows := row.Rows{{"amount": row.String("not-a-number")}}
	rule := schema.CleanRule{Op: schema.OpDivideBy100, Fields: []string{"amount"}}

	out, warns := Apply(rows, []schema.CleanRule{rule}, "", "")
	if !out[0]["amount"].IsNull() {
		t.Errorf("expected null, got %v", out[0]["amount"])
	}
	if len(warns) != 1 {
		t.Errorf("expected one warning, got %d", len(warns))
	}
}

func TestTrimWhitespace(t *testing.T) {
	rows := row.Rows{{"name": row.String("  acme  ")}}
	rule := schema.CleanRule{Op: schema.OpTrimWhitespace, Fields: []string{"name"}}

	out, _ := Apply(rows, []schema.CleanRule{rule}, "", "")
	if out[0]["name"].Str != "acme" {
		t.Errorf("got %q, want %q", out[0]["name"].Str, "acme")
	}
}

func TestDateParse(t *testing.T) {
	rows := row.Rows{{"posted_at": row.String("2026-03-05")}}
	rule := schema.CleanRule{Op: schema.OpDateParse, Fields: []string{"posted_at"}}

	out, _ := Apply(rows, []schema.CleanRule{rule}, "", "%Y-%m-%d")
	if out[0]["posted_at"].Kind != row.KindDate {
		t.Errorf("expected date kind, got %v", out[0]["posted_at"].Kind)
	}
}

func TestAggregateDuplicatesRunsLastRegardlessOfDeclaredOrder(t *testing.T) {
	rows := row.Rows{
		{"tx_id": row.String("A1"), "amount": row.String("100")},
		{"tx_id": row.String("A1"), "amount": row.String("50")},
	}
	rules := []schema.CleanRule{
		// declared first, but still runs after every other rule per §4.5
		{Op: schema.OpAggregateDuplicates, GroupBy: "tx_id", Aggregations: map[string]string{"amount": "sum"}},
		{Op: schema.OpDivideBy100, Fields: []string{"amount"}},
	}

	out, _ := Apply(rows, rules, "", "")
	if len(out) != 1 {
		t.Fatalf("expected 1 aggregated row, got %d", len(out))
	}
	// divide_by_100 runs on each raw row first (100->1, 50->0.5), then sum.
	if out[0]["amount"].Num != 1.5 {
		t.Errorf("got %v, want 1.5", out[0]["amount"].Num)
	}
}

func TestAggregateDuplicatesDefaultsToFirst(t *testing.T) {
	rows := row.Rows{
		{"tx_id": row.String("A1"), "memo": row.String("first")},
		{"tx_id": row.String("A1"), "memo": row.String("second")},
	}
	rule := schema.CleanRule{Op: schema.OpAggregateDuplicates, GroupBy: "tx_id"}

	out := aggregateDuplicates(rows, rule)
	if out[0]["memo"].Str != "first" {
		t.Errorf("got %q, want first", out[0]["memo"].Str)
	}
}

func TestFilePatternGatesRule(t *testing.T) {
	rows := row.Rows{{"amount": row.String("100")}}
	rule := schema.CleanRule{Op: schema.OpDivideBy100, Fields: []string{"amount"}, FilePattern: "legacy_*.csv"}

	unaffected, _ := ApplyPerFile(rows, []schema.CleanRule{rule}, "current.csv", "")
	if unaffected[0]["amount"].Str != "100" {
		t.Errorf("rule should not apply to a non-matching file, got %+v", unaffected[0])
	}

	affected, _ := ApplyPerFile(rows, []schema.CleanRule{rule}, "legacy_2020.csv", "")
	if affected[0]["amount"].Num != 1 {
		t.Errorf("rule should apply to a matching file, got %+v", affected[0])
	}
}

func TestDiscardUnkeyedRemovesNullKeyRows(t *testing.T) {
	rows := row.Rows{
		{"tx_id": row.String("A1")},
		{"tx_id": row.Null},
	}
	kept, warns := DiscardUnkeyed(rows, "tx_id")
	if len(kept) != 1 {
		t.Fatalf("expected 1 row kept, got %d", len(kept))
	}
	if len(warns) != 1 {
		t.Errorf("expected 1 discard warning, got %d", len(warns))
	}
}

func TestCombineFieldAggregations(t *testing.T) {
	group := row.Rows{
		{"amount": row.String("10")},
		{"amount": row.String("20")},
		{"amount": row.String("30")},
	}
	if v := combineField(group, "amount", "sum"); v.Num != 60 {
		t.Errorf("sum got %v, want 60", v.Num)
	}
	if v := combineField(group, "amount", "mean"); v.Num != 20 {
		t.Errorf("mean got %v, want 20", v.Num)
	}
	if v := combineField(group, "amount", "max"); v.Num != 30 {
		t.Errorf("max got %v, want 30", v.Num)
	}
	if v := combineField(group, "amount", "min"); v.Num != 10 {
		t.Errorf("min got %v, want 10", v.Num)
	}
	if v := combineField(group, "amount", "count"); v.Num != 3 {
		t.Errorf("count got %v, want 3", v.Num)
	}
	if v := combineField(group, "amount", "join:|"); v.Str != "10|20|30" {
		t.Errorf("join got %q", v.Str)
	}
}
