package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"reconciled/pkg/predicate"
	"reconciled/pkg/reconerr"
)

var (
	lineCommentRe  = regexp.MustCompile(`(?m)//[^\n]*$`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// stripJSON5Comments removes `//` and `/* */` comments, the JSON5-lite
// convenience the original schema loader supported so authored schema
// files can carry inline documentation.
func stripJSON5Comments(data []byte) []byte {
	out := blockCommentRe.ReplaceAll(data, nil)
	out = lineCommentRe.ReplaceAll(out, nil)
	return out
}

// rawSide mirrors Side but with a flexible field_roles value shape:
// each role may be declared as a single alias string or a list of aliases.
type rawSide struct {
	FilePattern json.RawMessage            `json:"file_pattern"`
	FieldRoles  map[string]json.RawMessage `json:"field_roles"`
	Sheet       string                     `json:"sheet,omitempty"`
}

type rawSchema struct {
	Version        string                 `json:"version"`
	Sides          orderedSides           `json:"sides"`
	KeyRole        string                 `json:"key_role"`
	Tolerance      Tolerance              `json:"tolerance"`
	CleaningRules  map[string][]CleanRule `json:"cleaning_rules"`
	Validations    []ValidationRule       `json:"validations"`
	AllowEmptySide bool                   `json:"allow_empty_side"`
}

// orderedSides decodes the sides object while recording declaration order —
// plain map unmarshaling loses key order, but C2's file-matching tie-break
// ("earlier-declared side wins") depends on it.
type orderedSides struct {
	names []string
	byName map[string]rawSide
}

func (o *orderedSides) UnmarshalJSON(data []byte) error {
	o.byName = make(map[string]rawSide)
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("sides must be a JSON object")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("sides key must be a string")
		}
		var val rawSide
		if err := dec.Decode(&val); err != nil {
			return err
		}
		o.names = append(o.names, key)
		o.byName[key] = val
	}
	_, err = dec.Token()
	return err
}

// ParseAndValidate parses raw schema JSON (optionally carrying JSON5-lite
// comments), normalizes single-string alias/pattern lists to one-element
// lists, fills missing optional sections with defaults, and validates the
// result per C1's contract. It never returns a non-nil *Schema alongside
// a non-nil error.
func ParseAndValidate(data []byte) (*Schema, error) {
	var raw rawSchema
	if err := json.Unmarshal(stripJSON5Comments(data), &raw); err != nil {
		return nil, reconerr.Wrap(reconerr.SchemaInvalid, "parse", err)
	}
	return normalizeAndValidate(raw)
}

// ParseAndValidateMap validates a schema already decoded into a generic
// map (the shape a tool-call envelope delivers it in) by round-tripping
// it through JSON — this keeps a single normalization/validation path.
func ParseAndValidateMap(m map[string]any) (*Schema, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, reconerr.Wrap(reconerr.SchemaInvalid, "re-encode", err)
	}
	return ParseAndValidate(data)
}

func normalizeAndValidate(raw rawSchema) (*Schema, error) {
	if raw.Version == "" {
		return nil, reconerr.New(reconerr.SchemaInvalid, "version is required")
	}
	if len(raw.Sides.names) < 1 {
		return nil, reconerr.New(reconerr.SchemaInvalid, "at least one side is required")
	}
	// §3 declares side names as "conventionally business and finance, but
	// any string" while §4.7's predicate language hardcodes the
	// `business.`/`finance.` reference prefixes and scope names
	// business_only/finance_only. Those two facts only reconcile if the
	// two active sides are literally named "business" and "finance" — so
	// that is enforced here rather than left as dead flexibility.
	if _, ok := raw.Sides.byName["business"]; !ok {
		return nil, reconerr.New(reconerr.SchemaInvalid, `sides must declare a "business" side`)
	}
	if _, ok := raw.Sides.byName["finance"]; !ok {
		return nil, reconerr.New(reconerr.SchemaInvalid, `sides must declare a "finance" side`)
	}
	if len(raw.Sides.names) != 2 {
		return nil, reconerr.New(reconerr.SchemaInvalid, `exactly two sides are required: "business" and "finance"`)
	}
	if raw.KeyRole == "" {
		return nil, reconerr.New(reconerr.SchemaInvalid, "key_role is required")
	}
	if raw.Tolerance.AmountDiffMax < 0 {
		return nil, reconerr.New(reconerr.SchemaInvalid, "tolerance.amount_diff_max must be >= 0")
	}

	sides := make(map[string]*Side, len(raw.Sides.names))
	for _, name := range raw.Sides.names {
		rs := raw.Sides.byName[name]
		patterns, err := stringOrList(rs.FilePattern)
		if err != nil {
			return nil, reconerr.Wrap(reconerr.SchemaInvalid, fmt.Sprintf("sides.%s.file_pattern", name), err)
		}
		if len(patterns) == 0 {
			return nil, reconerr.New(reconerr.SchemaInvalid, fmt.Sprintf("sides.%s.file_pattern must not be empty", name))
		}
		for _, p := range patterns {
			if p == "" {
				return nil, reconerr.New(reconerr.SchemaInvalid, fmt.Sprintf("sides.%s.file_pattern entries must not be empty", name))
			}
		}

		fieldRoles := make(map[string][]string, len(rs.FieldRoles))
		for role, aliasRaw := range rs.FieldRoles {
			aliases, err := stringOrList(aliasRaw)
			if err != nil {
				return nil, reconerr.Wrap(reconerr.SchemaInvalid, fmt.Sprintf("sides.%s.field_roles.%s", name, role), err)
			}
			fieldRoles[role] = aliases
		}

		if _, ok := fieldRoles[raw.KeyRole]; !ok {
			return nil, reconerr.New(reconerr.SchemaInvalid, fmt.Sprintf("key_role %q not declared in side %q field_roles", raw.KeyRole, name))
		}

		sides[name] = &Side{
			FilePattern: patterns,
			FieldRoles:  fieldRoles,
			Sheet:       rs.Sheet,
		}
	}

	for i, v := range raw.Validations {
		if v.ConditionExpr == "" {
			return nil, reconerr.New(reconerr.SchemaInvalid, fmt.Sprintf("validations[%d].condition_expr must not be empty", i))
		}
		if _, err := predicate.Parse(v.ConditionExpr); err != nil {
			return nil, reconerr.Wrap(reconerr.SchemaInvalid, fmt.Sprintf("validations[%d].condition_expr", i), err)
		}
		switch v.EffectiveScope() {
		case ScopePair, ScopeBusinessOnly, ScopeFinanceOnly:
		default:
			return nil, reconerr.New(reconerr.SchemaInvalid, fmt.Sprintf("validations[%d].scope %q is invalid", i, v.Scope))
		}
	}

	cleaningRules := raw.CleaningRules
	if cleaningRules == nil {
		cleaningRules = map[string][]CleanRule{}
	}
	validations := raw.Validations
	if validations == nil {
		validations = []ValidationRule{}
	}

	return &Schema{
		Version:        raw.Version,
		Sides:          sides,
		SideOrder:      raw.Sides.names,
		KeyRole:        raw.KeyRole,
		Tolerance:      raw.Tolerance,
		CleaningRules:  cleaningRules,
		Validations:    validations,
		AllowEmptySide: raw.AllowEmptySide,
	}, nil
}

// stringOrList decodes a JSON value that may be either a bare string or
// an array of strings, lifting a bare string to a one-element list — the
// normalization rule C1 requires for file_pattern and alias lists.
func stringOrList(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("expected string or array of strings: %w", err)
	}
	return list, nil
}

// Render serializes schema back to JSON, used for the idempotence
// property (validate, render, re-validate yields the same schema).
func Render(s *Schema) ([]byte, error) {
	return json.Marshal(s)
}
