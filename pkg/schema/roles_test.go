package schema

import (
	"testing"

	"reconciled/pkg/reconerr"
)

func TestResolveColumnRolesExactAliasMatch(t *testing.T) {
	side := &Side{FieldRoles: map[string][]string{
		"tx_id":  {"Transaction ID", "TxnID"},
		"amount": {"Amount"},
	}}
	headers := []string{"Transaction ID", "Amount", "Notes"}

	got := ResolveColumnRoles(side, headers)
	if got["Transaction ID"] != "tx_id" || got["Amount"] != "amount" {
		t.Errorf("got %+v", got)
	}
	if _, ok := got["Notes"]; ok {
		t.Error("an unaliased header should not appear in the result")
	}
}

func TestResolveColumnRolesIsWhitespaceTolerant(t *testing.T) {
	side := &Side{FieldRoles: map[string][]string{"tx_id": {"Transaction ID"}}}
	headers := []string{"  Transaction ID  "}

	got := ResolveColumnRoles(side, headers)
	if got["  Transaction ID  "] != "tx_id" {
		t.Errorf("expected trimmed match, got %+v", got)
	}
}

func TestResolveColumnRolesFirstAliasWinsOnCollision(t *testing.T) {
	// Two roles whose alias lists both name the same header: the
	// alphabetically-first role name claims it, per the documented
	// deterministic tie-break.
	side := &Side{FieldRoles: map[string][]string{
		"amount":    {"Value"},
		"unit_cost": {"Value"},
	}}
	got := ResolveColumnRoles(side, []string{"Value"})
	if got["Value"] != "amount" {
		t.Errorf("got %q, want amount", got["Value"])
	}
}

func TestResolveKeyRoleUnresolvedFailsWithReconerrKind(t *testing.T) {
	s := &Schema{KeyRole: "tx_id"}
	side := &Side{FieldRoles: map[string][]string{"tx_id": {"Transaction ID"}}}

	_, err := ResolveKeyRole(s, "business", side, []string{"Amount"})
	if err == nil {
		t.Fatal("expected an error when no header resolves the key role")
	}
	if kind, ok := reconerr.KindOf(err); !ok || kind != reconerr.KeyRoleUnresolved {
		t.Errorf("got kind (%v, %v), want (KeyRoleUnresolved, true)", kind, ok)
	}
}

func TestSuggestAliasesForUnclaimedFindsSubstringMatch(t *testing.T) {
	side := &Side{FieldRoles: map[string][]string{"amount": {"Amount USD"}}}
	headers := []string{"Amount (local)"}

	suggestions := SuggestAliasesForUnclaimed(side, headers)
	if len(suggestions["Amount (local)"]) != 1 || suggestions["Amount (local)"][0] != "amount" {
		t.Errorf("got %+v", suggestions)
	}
}
