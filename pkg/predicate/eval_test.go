package predicate

import (
	"testing"

	"reconciled/pkg/row"
)

func evalExpr(t *testing.T, expr string, ctx Context) Value {
	t.Helper()
	node, err := Parse(expr)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", expr, err)
	}
	v, err := Eval(node, ctx)
	if err != nil {
		t.Fatalf("Eval(%q) error: %v", expr, err)
	}
	return v
}

func TestNullPropagationInComparisons(t *testing.T) {
	ctx := NewPairContext(row.Row{}, row.Row{"amount": row.Number(5)})

	// business.amount is absent -> null; comparing null to a number is
	// always false, never an error.
	if got := evalExpr(t, `business.amount == finance.amount`, ctx); got.IsTruthy() {
		t.Error("null == number should be false")
	}
	if got := evalExpr(t, `business.amount < finance.amount`, ctx); got.IsTruthy() {
		t.Error("null < number should be false")
	}
}

func TestNullEqualsNullIsTrue(t *testing.T) {
	ctx := NewPairContext(row.Row{}, row.Row{})
	got := evalExpr(t, `business.amount == finance.amount`, ctx)
	if !got.IsTruthy() {
		t.Error("null == null should be true")
	}
}

func TestArithmeticPropagatesNull(t *testing.T) {
	ctx := NewPairContext(row.Row{"amount": row.Number(10)}, row.Row{})
	got := evalExpr(t, `business.amount + finance.amount`, ctx)
	if !got.IsNull() {
		t.Errorf("expected null, got %v", got)
	}
}

func TestDivisionByZeroPropagatesNull(t *testing.T) {
	ctx := NewPairContext(row.Row{"amount": row.Number(10)}, row.Row{"amount": row.Number(0)})
	got := evalExpr(t, `business.amount / finance.amount`, ctx)
	if !got.IsNull() {
		t.Errorf("expected null, got %v", got)
	}
}

func TestAbsAndNumBuiltins(t *testing.T) {
	ctx := NewPairContext(row.Row{"amount": row.Number(-5)}, row.Row{"amount": row.String("7.5")})
	if got := evalExpr(t, `abs(business.amount)`, ctx); got.Num != 5 {
		t.Errorf("abs(-5) = %v, want 5", got.Num)
	}
	if got := evalExpr(t, `num(finance.amount)`, ctx); got.Num != 7.5 {
		t.Errorf("num(\"7.5\") = %v, want 7.5", got.Num)
	}
}

func TestContainsAndMatches(t *testing.T) {
	ctx := NewPairContext(row.Row{"memo": row.String("invoice #123")}, row.Row{})
	if got := evalExpr(t, `business.memo contains 'invoice'`, ctx); !got.IsTruthy() {
		t.Error("contains should be true")
	}
	if got := evalExpr(t, `business.memo matches '^invoice #[0-9]+$'`, ctx); !got.IsTruthy() {
		t.Error("matches should be true")
	}
}

func TestIndexRefReachesUnclaimedColumn(t *testing.T) {
	ctx := NewPairContext(row.Row{"Notes Column": row.String("flagged")}, row.Row{})
	got := evalExpr(t, `business["Notes Column"] == 'flagged'`, ctx)
	if !got.IsTruthy() {
		t.Error("index reference should resolve the unclaimed header")
	}
}

func TestLogicalShortCircuit(t *testing.T) {
	ctx := NewSingleContext("business", row.Row{})
	// finance.amount on a business_only candidate resolves to null via the
	// absent-side path; && should short circuit without erroring.
	got := evalExpr(t, `false && finance.amount > 0`, ctx)
	if got.IsTruthy() {
		t.Error("expected false")
	}
}
