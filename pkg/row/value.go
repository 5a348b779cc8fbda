// Package row implements the canonical row model: a Value is a scalar
// string | number | date | null, and a Row maps canonical role names (or,
// for unclaimed columns, original headers) to Values.
package row

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind discriminates which variant of Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindDate

	// KindMoney is a number produced by an amount_conversion cleaning rule
	// (divide_by_100 / multiply_by). It behaves as a plain number for
	// predicate arithmetic, but FormatString renders it fixed to two
	// decimal places, matching the original's `f"{amount:.2f}"` monetary
	// formatting (reconciliation_engine.py:193) so detail templates and
	// built-in amount_mismatch issues print "100.00", not "100".
	KindMoney
)

// Value is a scalar cell value. Exactly one field is meaningful,
// selected by Kind; this mirrors the "string | number | date | null"
// data model without resorting to `any` and runtime type assertions
// scattered through the pipeline.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Time time.Time
}

// Null is the canonical null value.
var Null = Value{Kind: KindNull}

// String constructs a string-kind Value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number constructs a number-kind Value.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// Date constructs a date-kind Value.
func Date(t time.Time) Value { return Value{Kind: KindDate, Time: t} }

// Money constructs a money-kind Value — a number formatted to two decimal
// places wherever it renders as text.
func Money(n float64) Value { return Value{Kind: KindMoney, Num: n} }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// FormatString formats v the way it should appear in rendered templates and
// JSON output: empty string for null, otherwise the natural textual form.
func (v Value) FormatString() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindMoney:
		return strconv.FormatFloat(v.Num, 'f', 2, 64)
	case KindDate:
		return v.Time.Format("2006-01-02")
	default:
		return ""
	}
}

// AsNumber coerces v to a float64, mirroring the predicate language's
// num() builtin. Non-numeric strings and null yield (0, false).
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber, KindMoney:
		return v.Num, true
	case KindString:
		f, err := ParseNumber(v.Str)
		if err != nil {
			return 0, false
		}
		return f, true
	case KindDate:
		return float64(v.Time.Unix()), true
	default:
		return 0, false
	}
}

// ParseNumber parses a decimal-looking string into a float64, tolerating
// surrounding whitespace and a thousands separator (",").
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty numeric string")
	}
	return strconv.ParseFloat(s, 64)
}

// commonDateLayouts are attempted, in order, when a strict parse against
// the schema's configured date_format fails. This mirrors the lenient,
// multi-format fallback the teacher repo used for "last login" timestamps,
// repurposed here for general date-role parsing.
var commonDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-Jan-2006",
}

// ParseDate parses s against the strftime-style layout first (converted to
// Go reference-time form), falling back to a fixed list of common layouts.
// Returns an error only if none of them match.
func ParseDate(s string, strftimeFormat string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	if strftimeFormat != "" {
		if t, err := time.Parse(StrftimeToGoLayout(strftimeFormat), s); err == nil {
			return t, nil
		}
	}

	for _, layout := range commonDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unparsable date %q", s)
}

// strftimeReplacer maps the handful of strftime directives the schema's
// tolerance.date_format is documented to use into Go's reference-time layout.
var strftimeReplacer = strings.NewReplacer(
	"%Y", "2006",
	"%m", "01",
	"%d", "02",
	"%H", "15",
	"%M", "04",
	"%S", "05",
)

// StrftimeToGoLayout converts a strftime-style format string (e.g. "%Y-%m-%d")
// into the equivalent Go time.Parse reference layout.
func StrftimeToGoLayout(format string) string {
	return strftimeReplacer.Replace(format)
}

// FormatDate renders t using a strftime-style format string.
func FormatDate(t time.Time, strftimeFormat string) string {
	if strftimeFormat == "" {
		strftimeFormat = "%Y-%m-%d"
	}
	return t.Format(StrftimeToGoLayout(strftimeFormat))
}
