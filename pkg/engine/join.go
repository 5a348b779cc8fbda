// Package engine implements the matching engine (C6): it joins the two
// cleaned sides on the configured key role and classifies every row into
// matched, business_only, or finance_only.
package engine

import (
	"fmt"
	"strconv"
	"strings"

	"reconciled/pkg/row"
	"reconciled/pkg/schema"
)

// Pair is a matched business/finance row under the key comparator.
type Pair struct {
	Business row.Row
	Finance  row.Row
}

// JoinResult is the outcome of C6: three disjoint candidate sets plus any
// warnings raised while joining (duplicate keys on either side).
type JoinResult struct {
	Matched      []Pair
	BusinessOnly row.Rows
	FinanceOnly  row.Rows
	Warnings     []Warning
}

// Warning carries a C6 diagnostic that does not abort the task.
type Warning struct {
	Kind string
	Key  string
}

// Join performs the key-role equality join described in §4.6: every
// business row is looked up against an index of finance rows built under
// the same comparator. Duplicate keys on either side produce a Cartesian
// pairing and a DuplicateKey warning per duplicated key — this is
// permitted, not fatal, since it usually signals a cleaning
// misconfiguration rather than a structurally invalid input.
func Join(business, finance row.Rows, keyRole string, tol schema.Tolerance) *JoinResult {
	comparator := tol.EffectiveKeyComparator()

	finIdx := BuildKeyIndex(finance, keyRole, comparator)
	bizIdx := BuildKeyIndex(business, keyRole, comparator)

	result := &JoinResult{}
	seen := make(map[string]bool)

	for _, bizKey := range sortedKeys(bizIdx) {
		bizRows, _ := bizIdx.lookup(bizKey)
		finRows, ok := finIdx.lookup(bizKey)

		if !ok {
			result.BusinessOnly = append(result.BusinessOnly, bizRows...)
			continue
		}

		if len(bizRows) > 1 {
			result.Warnings = append(result.Warnings, Warning{Kind: "DuplicateKey", Key: bizKey})
		}
		if len(finRows) > 1 {
			result.Warnings = append(result.Warnings, Warning{Kind: "DuplicateKey", Key: bizKey})
		}

		for _, b := range bizRows {
			for _, f := range finRows {
				result.Matched = append(result.Matched, Pair{Business: b, Finance: f})
			}
		}
		seen[bizKey] = true
	}

	for _, finKey := range sortedKeys(finIdx) {
		if seen[finKey] {
			continue
		}
		finRows, _ := finIdx.lookup(finKey)
		result.FinanceOnly = append(result.FinanceOnly, finRows...)
	}

	return result
}

// sortedKeys returns an index's bucket keys in deterministic order so join
// output (and therefore issue emission order, per P6) does not depend on
// Go's randomized map iteration.
func sortedKeys(idx *KeyIndex) []string {
	ks := idx.keys()
	for i := 1; i < len(ks); i++ {
		for j := i; j > 0 && ks[j-1] > ks[j]; j-- {
			ks[j-1], ks[j] = ks[j], ks[j-1]
		}
	}
	return ks
}

// NormalizeKey renders a key-role Value into its comparison string under
// the configured comparator: exact (raw formatted string), trim
// (whitespace-trimmed, the default), or numeric (locale-formatted numbers
// compare equal, e.g. "1,000" == "1000", per spec.md's open question —
// resolved by stripping thousands separators before parsing).
func NormalizeKey(v row.Value, comparator string) string {
	s := v.FormatString()
	switch comparator {
	case schema.KeyComparatorExact:
		return s
	case schema.KeyComparatorNumeric:
		if n, err := row.ParseNumber(s); err == nil {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
		return strings.TrimSpace(s)
	default: // trim
		return strings.TrimSpace(s)
	}
}

// String renders a Pair for debug/logging purposes.
func (p Pair) String() string {
	return fmt.Sprintf("Pair{business=%v finance=%v}", p.Business, p.Finance)
}
