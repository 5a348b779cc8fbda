// Package predicate implements the safe predicate language used by the
// validation evaluator (C7): a hand-written recursive-descent parser
// producing a small AST, plus a tree-walking evaluator with strict null
// propagation. No host-language code is ever executed — this is the
// systems-reimplementation answer to evaluating a user-authored
// condition_expr without exec/eval.
package predicate

import (
	"fmt"
	"time"
)

// Kind discriminates the variants of a predicate-language runtime Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindDate
)

// Value is the runtime value produced by evaluating an expression node.
type Value struct {
	Kind Kind
	Bool bool
	Num  float64
	Str  string
	Time time.Time
}

var Null = Value{Kind: KindNull}

func Bool(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }
func String(s string) Value { return Value{Kind: KindString, Str: s} }
func DateVal(t time.Time) Value { return Value{Kind: KindDate, Time: t} }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// IsTruthy reports whether v should be treated as boolean true by &&/||/!.
// Only an explicit boolean true is truthy; null, zero, empty string, and
// false are all falsy. This keeps truthiness unsurprising for schema
// authors writing predicates against typed roles.
func (v Value) IsTruthy() bool {
	return v.Kind == KindBool && v.Bool
}

// String renders v for error messages and debugging (not the detail
// template — see RenderTemplate for that).
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%v", v.Bool)
	case KindNumber:
		return fmt.Sprintf("%v", v.Num)
	case KindString:
		return v.Str
	case KindDate:
		return v.Time.Format("2006-01-02")
	default:
		return ""
	}
}
