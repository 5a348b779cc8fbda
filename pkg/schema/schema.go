// Package schema parses and validates the reconciliation schema (C1) and
// resolves source column headers to canonical field roles (C4).
package schema

// Schema is the immutable, per-task reconciliation configuration.
type Schema struct {
	Version       string                 `json:"version"`
	Sides         map[string]*Side       `json:"sides"`
	KeyRole       string                 `json:"key_role"`

	// SideOrder records sides in declaration order, independent of the
	// Sides map — C2's file-matching tie-break ("earlier-declared side
	// wins") depends on it, since Go map iteration order is randomized.
	// Re-rendering a schema (Render) loses this order, as JSON object
	// key order is not semantically meaningful; P5's idempotence
	// property is about validation outcome, not side declaration order.
	SideOrder []string `json:"-"`
	Tolerance     Tolerance              `json:"tolerance"`
	CleaningRules map[string][]CleanRule `json:"cleaning_rules"`
	Validations   []ValidationRule       `json:"validations"`

	// AllowEmptySide resolves the open question in spec.md §9: when a
	// side has no file_pattern matches, whether the task should fail or
	// proceed with an empty side. Default false preserves current
	// (fail) behavior; set true to opt into the proceed-with-empty-side
	// toggle the design notes flag as plausible future work.
	AllowEmptySide bool `json:"allow_empty_side"`
}

// Side declares one labeled source of records: where its files come
// from (by name-matching pattern) and how its columns map to roles.
type Side struct {
	FilePattern []string            `json:"file_pattern"`
	FieldRoles  map[string][]string `json:"field_roles"`
	Sheet       string              `json:"sheet,omitempty"`
}

// Tolerance controls numeric/date comparison slack and the key comparator.
type Tolerance struct {
	AmountDiffMax float64 `json:"amount_diff_max"`
	DateFormat    string  `json:"date_format"`
	KeyComparator string  `json:"key_comparator,omitempty"` // exact | trim | numeric
}

// CleanRule is one data-cleaning directive for a side, applied in the
// order declared in cleaning_rules.
type CleanRule struct {
	Op string `json:"op"`

	// amount_conversion.divide_by_100 / multiply_by / trim_whitespace / date_parse
	Fields []string `json:"fields,omitempty"`
	Factor float64  `json:"factor,omitempty"`

	// aggregate_duplicates
	GroupBy      string            `json:"group_by,omitempty"`
	Aggregations map[string]string `json:"aggregations,omitempty"`

	// FilePattern optionally gates this rule to only sides whose input
	// files additionally match this glob, beyond the side's own
	// classification pattern — supplemented from the original
	// implementation's per-transform file_pattern condition.
	FilePattern string `json:"file_pattern,omitempty"`
}

// ValidationRule is one predicate rule evaluated against candidates (C7).
type ValidationRule struct {
	Name           string `json:"name"`
	ConditionExpr  string `json:"condition_expr"`
	IssueType      string `json:"issue_type"`
	DetailTemplate string `json:"detail_template"`
	Scope          string `json:"scope,omitempty"` // pair | business_only | finance_only
}

// EffectiveScope returns the rule's scope, defaulting to "pair".
func (v ValidationRule) EffectiveScope() string {
	if v.Scope == "" {
		return "pair"
	}
	return v.Scope
}

const (
	ScopePair          = "pair"
	ScopeBusinessOnly  = "business_only"
	ScopeFinanceOnly   = "finance_only"
)

const (
	KeyComparatorExact   = "exact"
	KeyComparatorTrim    = "trim"
	KeyComparatorNumeric = "numeric"
)

// EffectiveKeyComparator returns the configured key comparator, defaulting
// to "trim" (trimmed string equality, spec.md's documented default).
func (t Tolerance) EffectiveKeyComparator() string {
	if t.KeyComparator == "" {
		return KeyComparatorTrim
	}
	return t.KeyComparator
}

const (
	OpDivideBy100         = "amount_conversion.divide_by_100"
	OpMultiplyBy          = "amount_conversion.multiply_by"
	OpTrimWhitespace      = "trim_whitespace"
	OpDateParse           = "date_parse"
	OpAggregateDuplicates = "aggregate_duplicates"
)
