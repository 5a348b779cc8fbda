package predicate

import "testing"

func TestParseFieldRef(t *testing.T) {
	node, err := Parse("business.amount")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ref, ok := node.(FieldRef)
	if !ok {
		t.Fatalf("got %T, want FieldRef", node)
	}
	if ref.Side != "business" || ref.Role != "amount" {
		t.Errorf("got %+v", ref)
	}
}

func TestParseOperatorPrecedence(t *testing.T) {
	// && binds tighter than ||, and arithmetic binds tighter than comparison.
	node, err := Parse("1 + 2 == 3 && true || false")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	top, ok := node.(Binary)
	if !ok || top.Op != "||" {
		t.Fatalf("top-level node should be ||, got %+v", node)
	}
}

func TestParseRejectsTrailingInput(t *testing.T) {
	if _, err := Parse("business.amount )"); err == nil {
		t.Error("expected a trailing-input error")
	}
}

func TestParseIndexRefRequiresQuotedHeader(t *testing.T) {
	if _, err := Parse("business[amount]"); err == nil {
		t.Error("expected an error for an unquoted index reference")
	}
}

func TestParseUnknownFunction(t *testing.T) {
	_, err := Parse("sqrt(business.amount)")
	if err == nil {
		t.Error("expected an error parsing an unrecognized identifier as a call-less reference")
	}
}
