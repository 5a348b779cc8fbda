package predicate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"reconciled/pkg/row"
)

// Context supplies the row(s) available to a predicate evaluation. A pair
// candidate populates both sides; a *_only candidate populates just one —
// references to the absent side resolve to null throughout, which is what
// drives B3 (missing field -> false, never an error).
type Context struct {
	Rows map[string]row.Row
}

// NewPairContext builds a Context for a matched pair.
func NewPairContext(business, finance row.Row) Context {
	return Context{Rows: map[string]row.Row{"business": business, "finance": finance}}
}

// NewSingleContext builds a Context for a business_only or finance_only candidate.
func NewSingleContext(side string, r row.Row) Context {
	return Context{Rows: map[string]row.Row{side: r}}
}

func (c Context) lookup(side, key string) Value {
	r, ok := c.Rows[side]
	if !ok {
		return Null
	}
	return rowValueToPredicate(r.Get(key))
}

func rowValueToPredicate(v row.Value) Value {
	switch v.Kind {
	case row.KindNull:
		return Null
	case row.KindString:
		return String(v.Str)
	case row.KindNumber, row.KindMoney:
		return Number(v.Num)
	case row.KindDate:
		return DateVal(v.Time)
	default:
		return Null
	}
}

// Eval walks node against ctx. Errors returned here are genuine predicate
// language errors (e.g. malformed regex in `matches`, unknown function) —
// the caller (the validation evaluator) treats those as PredicateError and
// skips the rule for that candidate. Missing data never produces an error;
// it always resolves to null and propagates per the rules below.
func Eval(node Node, ctx Context) (Value, error) {
	switch n := node.(type) {
	case Literal:
		return n.Value, nil

	case FieldRef:
		return ctx.lookup(n.Side, n.Role), nil

	case IndexRef:
		return ctx.lookup(n.Side, n.Header), nil

	case Unary:
		return evalUnary(n, ctx)

	case Binary:
		return evalBinary(n, ctx)

	case Call:
		return evalCall(n, ctx)

	default:
		return Null, fmt.Errorf("unknown predicate node type %T", node)
	}
}

func evalUnary(n Unary, ctx Context) (Value, error) {
	x, err := Eval(n.X, ctx)
	if err != nil {
		return Null, err
	}
	switch n.Op {
	case "!":
		return Bool(!x.IsTruthy()), nil
	case "-":
		if x.IsNull() {
			return Null, nil
		}
		num, ok := toNumber(x)
		if !ok {
			return Null, nil
		}
		return Number(-num), nil
	default:
		return Null, fmt.Errorf("unknown unary operator %q", n.Op)
	}
}

func evalBinary(n Binary, ctx Context) (Value, error) {
	switch n.Op {
	case "&&":
		l, err := Eval(n.Left, ctx)
		if err != nil {
			return Null, err
		}
		if !l.IsTruthy() {
			return Bool(false), nil
		}
		r, err := Eval(n.Right, ctx)
		if err != nil {
			return Null, err
		}
		return Bool(r.IsTruthy()), nil

	case "||":
		l, err := Eval(n.Left, ctx)
		if err != nil {
			return Null, err
		}
		if l.IsTruthy() {
			return Bool(true), nil
		}
		r, err := Eval(n.Right, ctx)
		if err != nil {
			return Null, err
		}
		return Bool(r.IsTruthy()), nil
	}

	l, err := Eval(n.Left, ctx)
	if err != nil {
		return Null, err
	}
	r, err := Eval(n.Right, ctx)
	if err != nil {
		return Null, err
	}

	switch n.Op {
	case "==", "!=", "<", "<=", ">", ">=":
		return evalComparison(n.Op, l, r), nil
	case "+", "-", "*", "/":
		return evalArithmetic(n.Op, l, r), nil
	case "contains":
		return evalContains(l, r), nil
	case "matches":
		return evalMatches(l, r)
	default:
		return Null, fmt.Errorf("unknown binary operator %q", n.Op)
	}
}

// evalComparison implements the strict null-propagation rule: a null
// operand makes every comparison false, except that comparing null to
// null with == is true.
func evalComparison(op string, l, r Value) Value {
	if l.IsNull() || r.IsNull() {
		if op == "==" && l.IsNull() && r.IsNull() {
			return Bool(true)
		}
		return Bool(false)
	}

	if op == "==" || op == "!=" {
		eq := valuesEqual(l, r)
		if op == "==" {
			return Bool(eq)
		}
		return Bool(!eq)
	}

	// Ordering comparisons: numeric if both sides coerce to a number,
	// date if both are dates, otherwise lexicographic string comparison.
	if lnum, lok := toNumber(l); lok {
		if rnum, rok := toNumber(r); rok {
			return Bool(compareOrdered(op, lnum < rnum, lnum == rnum, lnum > rnum))
		}
	}
	if l.Kind == KindDate && r.Kind == KindDate {
		return Bool(compareOrdered(op, l.Time.Before(r.Time), l.Time.Equal(r.Time), l.Time.After(r.Time)))
	}
	ls, rs := l.String(), r.String()
	return Bool(compareOrdered(op, ls < rs, ls == rs, ls > rs))
}

func compareOrdered(op string, lt, eq, gt bool) bool {
	switch op {
	case "<":
		return lt
	case "<=":
		return lt || eq
	case ">":
		return gt
	case ">=":
		return gt || eq
	default:
		return false
	}
}

func valuesEqual(l, r Value) bool {
	if lnum, lok := toNumber(l); lok {
		if rnum, rok := toNumber(r); rok {
			return lnum == rnum
		}
	}
	if l.Kind == KindDate && r.Kind == KindDate {
		return l.Time.Equal(r.Time)
	}
	if l.Kind == KindBool && r.Kind == KindBool {
		return l.Bool == r.Bool
	}
	return l.String() == r.String()
}

// evalArithmetic propagates null through +, -, *, /; division by zero
// also propagates null rather than producing Inf/NaN.
func evalArithmetic(op string, l, r Value) Value {
	if l.IsNull() || r.IsNull() {
		return Null
	}
	ln, lok := toNumber(l)
	rn, rok := toNumber(r)
	if !lok || !rok {
		return Null
	}
	switch op {
	case "+":
		return Number(ln + rn)
	case "-":
		return Number(ln - rn)
	case "*":
		return Number(ln * rn)
	case "/":
		if rn == 0 {
			return Null
		}
		return Number(ln / rn)
	default:
		return Null
	}
}

func evalContains(l, r Value) Value {
	if l.IsNull() || r.IsNull() {
		return Bool(false)
	}
	return Bool(strings.Contains(l.String(), r.String()))
}

func evalMatches(l, r Value) (Value, error) {
	if l.IsNull() || r.IsNull() {
		return Bool(false), nil
	}
	re, err := regexp.Compile(r.String())
	if err != nil {
		return Null, fmt.Errorf("invalid regex in matches: %w", err)
	}
	return Bool(re.MatchString(l.String())), nil
}

func evalCall(n Call, ctx Context) (Value, error) {
	switch n.Name {
	case "abs":
		if len(n.Args) != 1 {
			return Null, fmt.Errorf("abs() takes exactly 1 argument")
		}
		x, err := Eval(n.Args[0], ctx)
		if err != nil {
			return Null, err
		}
		if x.IsNull() {
			return Null, nil
		}
		num, ok := toNumber(x)
		if !ok {
			return Null, nil
		}
		if num < 0 {
			num = -num
		}
		return Number(num), nil

	case "num":
		if len(n.Args) != 1 {
			return Null, fmt.Errorf("num() takes exactly 1 argument")
		}
		x, err := Eval(n.Args[0], ctx)
		if err != nil {
			return Null, err
		}
		if x.IsNull() {
			return Null, nil
		}
		num, ok := toNumber(x)
		if !ok {
			return Null, nil
		}
		return Number(num), nil

	case "date":
		if len(n.Args) != 2 {
			return Null, fmt.Errorf("date() takes exactly 2 arguments")
		}
		x, err := Eval(n.Args[0], ctx)
		if err != nil {
			return Null, err
		}
		fmtArg, err := Eval(n.Args[1], ctx)
		if err != nil {
			return Null, err
		}
		if x.IsNull() || fmtArg.IsNull() {
			return Null, nil
		}
		if x.Kind == KindDate {
			return x, nil
		}
		t, perr := parseDateValue(x.String(), fmtArg.String())
		if perr != nil {
			return Null, nil
		}
		return DateVal(t), nil

	default:
		return Null, fmt.Errorf("unknown function %q", n.Name)
	}
}

// toNumber coerces a predicate Value to float64, used by arithmetic,
// ordering comparisons, and the abs()/num() builtins.
func toNumber(v Value) (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		n, err := row.ParseNumber(v.Str)
		if err != nil {
			return 0, false
		}
		return n, true
	case KindDate:
		return float64(v.Time.Unix()), true
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func parseDateValue(s, format string) (time.Time, error) {
	return row.ParseDate(s, format)
}
