// Package clean implements the Data Cleaner (C5): per-side numeric
// conversions, whitespace trimming, date parsing, and group aggregation.
package clean

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"reconciled/pkg/row"
	"reconciled/pkg/schema"
)

// Warning is a non-fatal C5 diagnostic (e.g. an unparsable amount cell).
type Warning struct {
	Role    string
	Message string
}

// Apply runs a side's cleaning_rules against rows in declared order.
// sourceBasename gates rules carrying a file_pattern beyond the side's own
// classification pattern — the supplemented per-rule scoping original_source
// exposed but the distilled spec dropped. aggregate_duplicates, if present,
// always applies last regardless of its position in the declared list,
// per §4.5 ("aggregation is applied last").
//
// Apply is meant for a side's fully concatenated row set. When a side
// spans multiple files, call ApplyPerFile on each file's rows first (so
// file_pattern gating sees the file that actually produced each row),
// concatenate, then call Aggregate once across the combined set — a
// duplicate split across two files must still collapse into one row.
func Apply(rows row.Rows, rules []schema.CleanRule, sourceBasename, dateFormat string) (row.Rows, []Warning) {
	rows, warnings := ApplyPerFile(rows, rules, sourceBasename, dateFormat)
	rows = Aggregate(rows, rules)
	return rows, warnings
}

// ApplyPerFile runs every non-aggregating rule in declared order, gated
// by file_pattern against sourceBasename. It does not run
// aggregate_duplicates — see Aggregate.
func ApplyPerFile(rows row.Rows, rules []schema.CleanRule, sourceBasename, dateFormat string) (row.Rows, []Warning) {
	var warnings []Warning

	for i := range rules {
		rule := rules[i]
		if rule.Op == schema.OpAggregateDuplicates {
			continue
		}
		if rule.FilePattern != "" {
			if ok, _ := filepath.Match(rule.FilePattern, sourceBasename); !ok {
				continue
			}
		}
		rows, warnings = applyRule(rows, rule, dateFormat, warnings)
	}

	return rows, warnings
}

// Aggregate applies the side's aggregate_duplicates rule, if declared,
// across rows already merged from every file belonging to the side.
func Aggregate(rows row.Rows, rules []schema.CleanRule) row.Rows {
	for i := range rules {
		if rules[i].Op == schema.OpAggregateDuplicates {
			return aggregateDuplicates(rows, rules[i])
		}
	}
	return rows
}

func applyRule(rows row.Rows, rule schema.CleanRule, dateFormat string, warnings []Warning) (row.Rows, []Warning) {
	switch rule.Op {
	case schema.OpDivideBy100:
		return convertAmount(rows, rule.Fields, func(d decimal.Decimal) decimal.Decimal {
			return d.Div(decimal.NewFromInt(100))
		}, warnings)

	case schema.OpMultiplyBy:
		factor := decimal.NewFromFloat(rule.Factor)
		return convertAmount(rows, rule.Fields, func(d decimal.Decimal) decimal.Decimal {
			return d.Mul(factor)
		}, warnings)

	case schema.OpTrimWhitespace:
		for _, r := range rows {
			for _, field := range rule.Fields {
				v := r.Get(field)
				if v.Kind == row.KindString {
					r[field] = row.String(strings.TrimSpace(v.Str))
				}
			}
		}
		return rows, warnings

	case schema.OpDateParse:
		return parseDates(rows, rule.Fields, dateFormat, warnings)

	default:
		return rows, warnings
	}
}

// convertAmount applies a decimal transform to each listed role field.
// Values unparsable as decimal numbers become null with a warning, per
// §4.5 — monetary math runs through shopspring/decimal rather than
// float64, so repeated divide/multiply passes don't accumulate binary
// rounding error.
func convertAmount(rows row.Rows, fields []string, transform func(decimal.Decimal) decimal.Decimal, warnings []Warning) (row.Rows, []Warning) {
	for _, r := range rows {
		for _, field := range fields {
			v := r.Get(field)
			s := v.FormatString()
			d, err := decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(s, ",", "")))
			if err != nil {
				r[field] = row.Null
				warnings = append(warnings, Warning{Role: field, Message: fmt.Sprintf("unparsable amount %q: %v", s, err)})
				continue
			}
			result := transform(d)
			f, _ := result.Float64()
			r[field] = row.Money(f)
		}
	}
	return rows, warnings
}

func parseDates(rows row.Rows, fields []string, dateFormat string, warnings []Warning) (row.Rows, []Warning) {
	for _, r := range rows {
		for _, field := range fields {
			v := r.Get(field)
			s := v.FormatString()
			t, err := row.ParseDate(s, dateFormat)
			if err != nil {
				r[field] = row.Null
				warnings = append(warnings, Warning{Role: field, Message: fmt.Sprintf("unparsable date %q: %v", s, err)})
				continue
			}
			r[field] = row.Date(t)
		}
	}
	return rows, warnings
}

// aggregateDuplicates groups rows by group_by and combines the remaining
// role fields per the declared aggregation function; a role with no
// declared aggregation defaults to "first", per §4.5. Produces one row per
// distinct group-by value, in first-seen order.
func aggregateDuplicates(rows row.Rows, rule schema.CleanRule) row.Rows {
	groupBy := rule.GroupBy
	if groupBy == "" {
		return rows
	}

	order := make([]string, 0)
	groups := make(map[string]row.Rows)
	for _, r := range rows {
		key := r.Get(groupBy).FormatString()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	result := make(row.Rows, 0, len(order))
	for _, key := range order {
		group := groups[key]
		result = append(result, combineGroup(group, groupBy, rule.Aggregations))
	}
	return result
}

func combineGroup(group row.Rows, groupBy string, aggregations map[string]string) row.Row {
	out := group[0].Clone()

	fields := allFields(group)
	for _, field := range fields {
		if field == groupBy {
			continue
		}
		agg := aggregations[field]
		if agg == "" {
			agg = "first"
		}
		out[field] = combineField(group, field, agg)
	}
	return out
}

func allFields(group row.Rows) []string {
	seen := make(map[string]bool)
	var fields []string
	for _, r := range group {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				fields = append(fields, k)
			}
		}
	}
	sort.Strings(fields)
	return fields
}

func combineField(group row.Rows, field, agg string) row.Value {
	switch {
	case agg == "first":
		return group[0].Get(field)
	case agg == "last":
		return group[len(group)-1].Get(field)
	case agg == "count":
		return row.Number(float64(len(group)))
	case agg == "sum" || agg == "mean":
		sum := decimal.Zero
		n := 0
		for _, r := range group {
			v := r.Get(field)
			if v.IsNull() {
				continue
			}
			d, err := decimal.NewFromString(v.FormatString())
			if err != nil {
				continue
			}
			sum = sum.Add(d)
			n++
		}
		if agg == "mean" {
			if n == 0 {
				return row.Null
			}
			sum = sum.Div(decimal.NewFromInt(int64(n)))
		}
		f, _ := sum.Float64()
		return row.Number(f)
	case agg == "max" || agg == "min":
		var best *decimal.Decimal
		for _, r := range group {
			v := r.Get(field)
			if v.IsNull() {
				continue
			}
			d, err := decimal.NewFromString(v.FormatString())
			if err != nil {
				continue
			}
			if best == nil || (agg == "max" && d.GreaterThan(*best)) || (agg == "min" && d.LessThan(*best)) {
				val := d
				best = &val
			}
		}
		if best == nil {
			return row.Null
		}
		f, _ := best.Float64()
		return row.Number(f)
	case strings.HasPrefix(agg, "join:"):
		sep := strings.TrimPrefix(agg, "join:")
		var parts []string
		for _, r := range group {
			v := r.Get(field)
			if !v.IsNull() {
				parts = append(parts, v.FormatString())
			}
		}
		return row.String(strings.Join(parts, sep))
	default:
		return group[0].Get(field)
	}
}

// DiscardUnkeyed removes rows whose key-role value is null, recording a
// Warning per discard, per I2.
func DiscardUnkeyed(rows row.Rows, keyRole string) (row.Rows, []Warning) {
	var kept row.Rows
	var warnings []Warning
	for _, r := range rows {
		if r.Get(keyRole).IsNull() {
			warnings = append(warnings, Warning{Role: keyRole, Message: "row discarded: null key role value"})
			continue
		}
		kept = append(kept, r)
	}
	return kept, warnings
}
