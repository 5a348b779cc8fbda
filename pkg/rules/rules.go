// Package rules orchestrates the validation evaluator (C7): for each
// candidate produced by the matching engine, it runs the schema's
// validation rules — in declaration order, against the applicable scope
// — through the predicate package, and emits typed Issue records.
package rules

import (
	"fmt"

	"reconciled/pkg/engine"
	"reconciled/pkg/predicate"
	"reconciled/pkg/reconerr"
	"reconciled/pkg/row"
	"reconciled/pkg/schema"
)

// Issue is a single typed finding produced by a fired validation rule.
type Issue struct {
	KeyValue      string
	IssueType     string
	BusinessValue string
	FinanceValue  string
	HasBusiness   bool
	HasFinance    bool
	Detail        string
}

// Warning is a non-fatal diagnostic recorded into the task's metadata.
type Warning struct {
	Kind    reconerr.Kind
	Message string
}

// Result holds everything C7 produces: issues in emission order, plus any
// warnings raised along the way (e.g. a rule whose predicate errored).
type Result struct {
	Issues   []Issue
	Warnings []Warning
}

// Evaluate runs schema.Validations against an engine.JoinResult. Scan order is
// deterministic: matched pairs first (in join order), then business-only
// rows, then finance-only rows; within a candidate, rules fire in
// declaration order and a "skipped" issue short-circuits the rest.
func Evaluate(s *schema.Schema, joined *engine.JoinResult, keyRole string) Result {
	var res Result

	pairRules, businessRules, financeRules := partitionRules(parseRules(s.Validations))

	for _, pair := range joined.Matched {
		keyVal := pair.Business.Get(keyRole).FormatString()
		ctx := predicate.NewPairContext(pair.Business, pair.Finance)
		issues, warns := evalCandidate(pairRules, ctx, keyRole, keyVal, pair.Business, pair.Finance, true, true)

		// The custom rules run first; a "skipped" issue short-circuits
		// everything after it, including the built-in checks below —
		// mirroring _check_record's ordering (reconciliation_engine.py:134).
		// A custom rule that already reported the same issue_type for this
		// candidate suppresses the matching built-in: an authored rule is
		// assumed to be a deliberate, possibly differently-tolerant
		// replacement for it, not a second opinion to stack on top of.
		if !skippedCandidate(issues) {
			if !hasIssueType(issues, "amount_mismatch") {
				if issue, ok := checkAmount(pair.Business, pair.Finance, keyVal, s.Tolerance); ok {
					issues = append(issues, issue)
				}
			}
			if !hasIssueType(issues, "date_mismatch") {
				if issue, ok := checkDate(pair.Business, pair.Finance, keyVal, s.Tolerance); ok {
					issues = append(issues, issue)
				}
			}
		}

		res.Issues = append(res.Issues, issues...)
		res.Warnings = append(res.Warnings, warns...)
	}

	for _, r := range joined.BusinessOnly {
		keyVal := r.Get(keyRole).FormatString()
		ctx := predicate.NewSingleContext("business", r)
		issues, warns := evalCandidate(businessRules, ctx, keyRole, keyVal, r, nil, true, false)
		res.Issues = append(res.Issues, issues...)
		res.Warnings = append(res.Warnings, warns...)
	}

	for _, r := range joined.FinanceOnly {
		keyVal := r.Get(keyRole).FormatString()
		ctx := predicate.NewSingleContext("finance", r)
		issues, warns := evalCandidate(financeRules, ctx, keyRole, keyVal, nil, r, false, true)
		res.Issues = append(res.Issues, issues...)
		res.Warnings = append(res.Warnings, warns...)
	}

	return res
}

// parsedRule pairs a validation rule with its parsed predicate AST, so a
// candidate scan evaluates the same tree repeatedly instead of re-parsing
// condition_expr for every candidate — C1 (validate.go) already proved it
// parses once, at schema-load time.
type parsedRule struct {
	rule schema.ValidationRule
	ast  predicate.Node
	err  error
}

// parseRules parses every rule's condition_expr once. A rule that fails to
// parse here (which schema validation should already have caught) carries
// its error forward so evalCandidate can still emit a PredicateError
// warning instead of panicking.
func parseRules(all []schema.ValidationRule) []parsedRule {
	out := make([]parsedRule, len(all))
	for i, v := range all {
		ast, err := predicate.Parse(v.ConditionExpr)
		out[i] = parsedRule{rule: v, ast: ast, err: err}
	}
	return out
}

func partitionRules(all []parsedRule) (pair, businessOnly, financeOnly []parsedRule) {
	for _, v := range all {
		switch v.rule.EffectiveScope() {
		case schema.ScopeBusinessOnly:
			businessOnly = append(businessOnly, v)
		case schema.ScopeFinanceOnly:
			financeOnly = append(financeOnly, v)
		default:
			pair = append(pair, v)
		}
	}
	return
}

// evalCandidate runs rules against one candidate. business_value/finance_value
// on an emitted Issue carry the key role's value as observed on that side —
// the only role guaranteed to exist on every schema, since an arbitrary
// schema has no other universally-present role to surface here.
func evalCandidate(rules []parsedRule, ctx predicate.Context, keyRole, keyVal string, business, finance row.Row, hasBusiness, hasFinance bool) ([]Issue, []Warning) {
	var issues []Issue
	var warnings []Warning

	for _, pr := range rules {
		rule := pr.rule
		if pr.err != nil {
			warnings = append(warnings, Warning{
				Kind:    reconerr.PredicateError,
				Message: rule.Name + ": " + pr.err.Error(),
			})
			continue
		}

		result, err := predicate.Eval(pr.ast, ctx)
		if err != nil {
			warnings = append(warnings, Warning{
				Kind:    reconerr.PredicateError,
				Message: rule.Name + ": " + err.Error(),
			})
			continue
		}

		if !result.IsTruthy() {
			continue
		}

		detail := predicate.RenderTemplate(rule.DetailTemplate, business, finance)
		issue := Issue{
			KeyValue:    keyVal,
			IssueType:   rule.IssueType,
			Detail:      detail,
			HasBusiness: hasBusiness,
			HasFinance:  hasFinance,
		}
		if hasBusiness {
			issue.BusinessValue = business.Get(keyRole).FormatString()
		}
		if hasFinance {
			issue.FinanceValue = finance.Get(keyRole).FormatString()
		}
		issues = append(issues, issue)

		if rule.IssueType == "skipped" {
			break
		}
	}

	return issues, warnings
}

// skippedCandidate reports whether a candidate's custom-rule pass ended
// in a "skipped" issue — evalCandidate breaks immediately after appending
// one, so it is always the last issue in the slice when present.
func skippedCandidate(issues []Issue) bool {
	return len(issues) > 0 && issues[len(issues)-1].IssueType == "skipped"
}

// hasIssueType reports whether issues already contains one of the given type.
func hasIssueType(issues []Issue, issueType string) bool {
	for _, i := range issues {
		if i.IssueType == issueType {
			return true
		}
	}
	return false
}

// checkAmount is the built-in amount_mismatch check the original engine
// always ran after custom validations, independent of any authored rule
// (reconciliation_engine.py:180): for a matched pair where both sides
// carry the amount role, a diff exceeding tolerance.amount_diff_max is
// reported. A diff exactly equal to the tolerance is not a mismatch (B1).
func checkAmount(business, finance row.Row, keyVal string, tol schema.Tolerance) (Issue, bool) {
	bizVal, ok := business["amount"]
	if !ok {
		return Issue{}, false
	}
	finVal, ok := finance["amount"]
	if !ok {
		return Issue{}, false
	}
	bizAmount, ok := bizVal.AsNumber()
	if !ok {
		return Issue{}, false
	}
	finAmount, ok := finVal.AsNumber()
	if !ok {
		return Issue{}, false
	}

	diff := bizAmount - finAmount
	if diff < 0 {
		diff = -diff
	}
	if diff <= tol.AmountDiffMax {
		return Issue{}, false
	}

	return Issue{
		KeyValue:      keyVal,
		IssueType:     "amount_mismatch",
		BusinessValue: bizVal.FormatString(),
		FinanceValue:  finVal.FormatString(),
		HasBusiness:   true,
		HasFinance:    true,
		Detail:        fmt.Sprintf("business amount %s vs finance amount %s, diff %.2f exceeds tolerance %.2f", bizVal.FormatString(), finVal.FormatString(), diff, tol.AmountDiffMax),
	}, true
}

// checkDate is the built-in date_mismatch check (reconciliation_engine.py:202):
// both sides' date role values are normalized through tolerance.date_format
// and compared as formatted strings, not as instants — two timestamps on
// the same calendar day under the configured format are not a mismatch.
func checkDate(business, finance row.Row, keyVal string, tol schema.Tolerance) (Issue, bool) {
	bizVal, ok := business["date"]
	if !ok {
		return Issue{}, false
	}
	finVal, ok := finance["date"]
	if !ok {
		return Issue{}, false
	}
	if bizVal.IsNull() || finVal.IsNull() {
		return Issue{}, false
	}

	format := tol.DateFormat
	if format == "" {
		format = "%Y-%m-%d"
	}
	bizFormatted := formatDateRole(bizVal, format)
	finFormatted := formatDateRole(finVal, format)
	if bizFormatted == finFormatted {
		return Issue{}, false
	}

	return Issue{
		KeyValue:      keyVal,
		IssueType:     "date_mismatch",
		BusinessValue: bizVal.FormatString(),
		FinanceValue:  finVal.FormatString(),
		HasBusiness:   true,
		HasFinance:    true,
		Detail:        fmt.Sprintf("business date %s vs finance date %s", bizVal.FormatString(), finVal.FormatString()),
	}, true
}

// formatDateRole renders v under format, parsing it first if it isn't
// already a date-kind Value (an unparsed date role left as a raw string
// when no date_parse cleaning rule was declared for it).
func formatDateRole(v row.Value, format string) string {
	if v.Kind == row.KindDate {
		return row.FormatDate(v.Time, format)
	}
	t, err := row.ParseDate(v.FormatString(), format)
	if err != nil {
		return v.FormatString()
	}
	return row.FormatDate(t, format)
}
