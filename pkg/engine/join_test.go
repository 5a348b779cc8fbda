package engine

import (
	"testing"

	"reconciled/pkg/row"
	"reconciled/pkg/schema"
)

func TestJoinMatchesOnKeyRole(t *testing.T) {
	business := row.Rows{
		{"tx_id": row.String("A1"), "amount": row.Number(100)},
		{"tx_id": row.String("A2"), "amount": row.Number(200)},
	}
	finance := row.Rows{
		{"tx_id": row.String("A1"), "amount": row.Number(100)},
	}

	result := Join(business, finance, "tx_id", schema.Tolerance{})

	if len(result.Matched) != 1 {
		t.Fatalf("expected 1 matched pair, got %d", len(result.Matched))
	}
	if len(result.BusinessOnly) != 1 || result.BusinessOnly[0].Get("tx_id").Str != "A2" {
		t.Errorf("expected A2 business-only, got %+v", result.BusinessOnly)
	}
	if len(result.FinanceOnly) != 0 {
		t.Errorf("expected no finance-only rows, got %+v", result.FinanceOnly)
	}
}

func TestJoinFinanceOnly(t *testing.T) {
	business := row.Rows{{"tx_id": row.String("A1")}}
	finance := row.Rows{
		{"tx_id": row.String("A1")},
		{"tx_id": row.String("B2")},
	}

	result := Join(business, finance, "tx_id", schema.Tolerance{})

	if len(result.FinanceOnly) != 1 || result.FinanceOnly[0].Get("tx_id").Str != "B2" {
		t.Errorf("expected B2 finance-only, got %+v", result.FinanceOnly)
	}
}

func TestJoinDuplicateKeyCartesianAndWarning(t *testing.T) {
	business := row.Rows{
		{"tx_id": row.String("A1"), "amount": row.Number(1)},
		{"tx_id": row.String("A1"), "amount": row.Number(2)},
	}
	finance := row.Rows{
		{"tx_id": row.String("A1"), "amount": row.Number(1)},
	}

	result := Join(business, finance, "tx_id", schema.Tolerance{})

	if len(result.Matched) != 2 {
		t.Fatalf("expected 2x1 Cartesian matches, got %d", len(result.Matched))
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Kind != "DuplicateKey" {
		t.Errorf("expected one DuplicateKey warning, got %+v", result.Warnings)
	}
}

func TestJoinTrimComparatorIgnoresWhitespace(t *testing.T) {
	business := row.Rows{{"tx_id": row.String("  A1  ")}}
	finance := row.Rows{{"tx_id": row.String("A1")}}

	result := Join(business, finance, "tx_id", schema.Tolerance{KeyComparator: schema.KeyComparatorTrim})

	if len(result.Matched) != 1 {
		t.Errorf("expected trimmed keys to match, got %d matches", len(result.Matched))
	}
}

func TestJoinNumericComparatorIgnoresThousandsSeparator(t *testing.T) {
	business := row.Rows{{"tx_id": row.String("1,000")}}
	finance := row.Rows{{"tx_id": row.String("1000")}}

	result := Join(business, finance, "tx_id", schema.Tolerance{KeyComparator: schema.KeyComparatorNumeric})

	if len(result.Matched) != 1 {
		t.Errorf("expected numeric-normalized keys to match, got %d matches", len(result.Matched))
	}
}

func TestJoinExactComparatorIsCaseAndWhitespaceSensitive(t *testing.T) {
	business := row.Rows{{"tx_id": row.String("A1 ")}}
	finance := row.Rows{{"tx_id": row.String("A1")}}

	result := Join(business, finance, "tx_id", schema.Tolerance{KeyComparator: schema.KeyComparatorExact})

	if len(result.Matched) != 0 {
		t.Errorf("expected exact comparator not to match on trailing whitespace, got %d", len(result.Matched))
	}

	caseResult := Join(row.Rows{{"tx_id": row.String("a1")}}, finance, "tx_id", schema.Tolerance{KeyComparator: schema.KeyComparatorExact})
	if len(caseResult.Matched) != 0 {
		t.Errorf("expected exact comparator not to match on differing case, got %d", len(caseResult.Matched))
	}
}

func TestJoinIsDeterministicAcrossRuns(t *testing.T) {
	business := row.Rows{
		{"tx_id": row.String("C1")},
		{"tx_id": row.String("B1")},
		{"tx_id": row.String("A1")},
	}
	finance := row.Rows{
		{"tx_id": row.String("C1")},
		{"tx_id": row.String("B1")},
		{"tx_id": row.String("A1")},
	}

	first := Join(business, finance, "tx_id", schema.Tolerance{})
	second := Join(business, finance, "tx_id", schema.Tolerance{})

	for i := range first.Matched {
		if first.Matched[i].Business.Get("tx_id").Str != second.Matched[i].Business.Get("tx_id").Str {
			t.Fatalf("join order is not deterministic at index %d", i)
		}
	}
}
