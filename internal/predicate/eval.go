package predicate

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValueKind tags which alternative of Value is populated.
type ValueKind int

const (
	KindInt ValueKind = iota
	KindString
	KindBool
	// KindError marks the <ERROR> sentinel substituted for a sub-expression
	// that failed to evaluate (spec.md §7, "Predicate runtime error"): the
	// failing leaf becomes this value and the enclosing expression keeps
	// evaluating around it rather than aborting.
	KindError
)

// Value is a tagged union of the three literal types predicate expressions
// operate on, plus the KindError sentinel.
type Value struct {
	Kind ValueKind
	Int  int64
	Str  string
	Bool bool
}

// errorValue is substituted wherever a sub-expression raises a
// *RuntimeError; its string form is the literal sentinel the spec names.
var errorValue = Value{Kind: KindError, Str: "<ERROR>"}

// Env supplies the `$P`-style variables an expression may reference; keys
// are variable names without the leading '$' (e.g. "L", "P_3").
type Env map[string]Value

// AbortError is raised by the `abort` keyword: the engine must stop the
// whole search, not merely reject the current method.
type AbortError struct{ Reason string }

func (e *AbortError) Error() string { return fmt.Sprintf("predicate: abort: %s", e.Reason) }

// SuppressError is raised by the `suppress` keyword: the current method is
// rejected without stopping the search.
type SuppressError struct{ Reason string }

func (e *SuppressError) Error() string { return fmt.Sprintf("predicate: suppress: %s", e.Reason) }

// RuntimeError wraps any other evaluation failure (type mismatch, unknown
// variable, division by zero, bad regex). Per spec.md §7 it never reaches a
// caller directly: evalChild substitutes the <ERROR> sentinel for the
// offending sub-expression and evaluation of its parent continues.
type RuntimeError struct{ Msg string }

func (e *RuntimeError) Error() string { return fmt.Sprintf("predicate: runtime error: %s", e.Msg) }

// Eval evaluates the expression against env. A returned *AbortError must
// propagate to the caller as a search-terminating signal; a *SuppressError
// means "reject this method, keep searching". A predicate runtime error
// never reaches here as an error: it resolves to <ERROR>, which toBool
// treats as false, so the method is simply rejected.
func (e *Expr) Eval(env Env) (bool, error) {
	v, err := evalChild(e.root, env)
	if err != nil {
		return false, err
	}
	b, err := toBool(v)
	if err != nil {
		return false, nil
	}
	return b, nil
}

// evalChild evaluates n and converts any *RuntimeError raised while doing so
// into the <ERROR> sentinel Value in place, per the error-substitution rule
// of spec.md §7 ("substitute the literal sentinel <ERROR> ... and do not
// match"). *AbortError and *SuppressError are script-control signals, not
// runtime errors, and still propagate untouched.
func evalChild(n Node, env Env) (Value, error) {
	v, err := evalNode(n, env)
	if err == nil {
		return v, nil
	}
	switch err.(type) {
	case *AbortError, *SuppressError:
		return Value{}, err
	default:
		return errorValue, nil
	}
}

func evalNode(n Node, env Env) (Value, error) {
	switch x := n.(type) {
	case intLit:
		return Value{Kind: KindInt, Int: x.v}, nil
	case strLit:
		return Value{Kind: KindString, Str: x.v}, nil
	case boolLit:
		return Value{Kind: KindBool, Bool: x.v}, nil
	case keyword:
		switch x.word {
		case "abort":
			return Value{}, &AbortError{Reason: "abort expression evaluated"}
		case "suppress":
			return Value{}, &SuppressError{Reason: "suppress expression evaluated"}
		}
		return Value{}, &RuntimeError{Msg: "unknown keyword " + x.word}
	case varRef:
		v, ok := env[x.name]
		if !ok {
			return Value{}, &RuntimeError{Msg: fmt.Sprintf("undefined variable $%s", x.name)}
		}
		return v, nil
	case unary:
		return evalUnary(x, env)
	case binary:
		return evalBinary(x, env)
	case ternary:
		c, err := evalChild(x.cond, env)
		if err != nil {
			return Value{}, err
		}
		cb, _ := toBool(c)
		if cb {
			return evalChild(x.then, env)
		}
		return evalChild(x.els, env)
	default:
		return Value{}, &RuntimeError{Msg: "unknown AST node"}
	}
}

func evalUnary(x unary, env Env) (Value, error) {
	v, err := evalChild(x.x, env)
	if err != nil {
		return Value{}, err
	}
	if v.Kind == KindError {
		// The operand already failed; the negation/negative is equally
		// undefined rather than flipping sense on a sentinel.
		return errorValue, nil
	}
	switch x.op {
	case "!":
		b, err := toBool(v)
		if err != nil {
			return errorValue, nil
		}
		return Value{Kind: KindBool, Bool: !b}, nil
	case "-":
		i, err := toInt(v)
		if err != nil {
			return errorValue, nil
		}
		return Value{Kind: KindInt, Int: -i}, nil
	}
	return Value{}, &RuntimeError{Msg: "unknown unary operator " + x.op}
}

func evalBinary(x binary, env Env) (Value, error) {
	// Short-circuit logical operators. <ERROR> is falsy here, which is what
	// lets "$undefined || true" still resolve true: the left side fails to
	// evaluate, substitutes <ERROR>, toBool(<ERROR>) is false, so the
	// right-hand side is evaluated as normal.
	if x.op == "&&" || x.op == "||" {
		l, err := evalChild(x.l, env)
		if err != nil {
			return Value{}, err
		}
		lb, _ := toBool(l)
		if x.op == "&&" && !lb {
			return Value{Kind: KindBool, Bool: false}, nil
		}
		if x.op == "||" && lb {
			return Value{Kind: KindBool, Bool: true}, nil
		}
		r, err := evalChild(x.r, env)
		if err != nil {
			return Value{}, err
		}
		rb, _ := toBool(r)
		return Value{Kind: KindBool, Bool: rb}, nil
	}

	l, err := evalChild(x.l, env)
	if err != nil {
		return Value{}, err
	}
	r, err := evalChild(x.r, env)
	if err != nil {
		return Value{}, err
	}

	// Any other operator applied to an already-failed operand does not
	// match (comparisons) and does not itself produce a usable value
	// (arithmetic): the sentinel keeps propagating rather than being
	// coerced into a number that could spuriously match.
	if l.Kind == KindError || r.Kind == KindError {
		switch x.op {
		case "==", "!=", "<", "<=", ">", ">=", "~~":
			return Value{Kind: KindBool, Bool: false}, nil
		default:
			return errorValue, nil
		}
	}

	switch x.op {
	case "~~":
		ls, _ := toString(l)
		rs, _ := toString(r)
		matched, err := filepath.Match(rs, ls)
		if err != nil {
			return errorValue, nil
		}
		return Value{Kind: KindBool, Bool: matched}, nil
	case "==", "!=":
		eq, err := valuesEqual(l, r)
		if err != nil {
			return errorValue, nil
		}
		if x.op == "!=" {
			eq = !eq
		}
		return Value{Kind: KindBool, Bool: eq}, nil
	case "<", "<=", ">", ">=":
		li, err := toInt(l)
		if err != nil {
			return Value{Kind: KindBool, Bool: false}, nil
		}
		ri, err := toInt(r)
		if err != nil {
			return Value{Kind: KindBool, Bool: false}, nil
		}
		var b bool
		switch x.op {
		case "<":
			b = li < ri
		case "<=":
			b = li <= ri
		case ">":
			b = li > ri
		case ">=":
			b = li >= ri
		}
		return Value{Kind: KindBool, Bool: b}, nil
	case "+":
		if l.Kind == KindString || r.Kind == KindString {
			ls, _ := toString(l)
			rs, _ := toString(r)
			return Value{Kind: KindString, Str: ls + rs}, nil
		}
		li, err := toInt(l)
		if err != nil {
			return errorValue, nil
		}
		ri, err := toInt(r)
		if err != nil {
			return errorValue, nil
		}
		return Value{Kind: KindInt, Int: li + ri}, nil
	case "-", "*", "/", "%":
		li, err := toInt(l)
		if err != nil {
			return errorValue, nil
		}
		ri, err := toInt(r)
		if err != nil {
			return errorValue, nil
		}
		switch x.op {
		case "-":
			return Value{Kind: KindInt, Int: li - ri}, nil
		case "*":
			return Value{Kind: KindInt, Int: li * ri}, nil
		case "/":
			if ri == 0 {
				return errorValue, nil
			}
			return Value{Kind: KindInt, Int: li / ri}, nil
		case "%":
			if ri == 0 {
				return errorValue, nil
			}
			return Value{Kind: KindInt, Int: li % ri}, nil
		}
	}
	return Value{}, &RuntimeError{Msg: "unknown binary operator " + x.op}
}

func valuesEqual(l, r Value) (bool, error) {
	if l.Kind == KindError || r.Kind == KindError {
		return false, nil
	}
	if l.Kind == KindString || r.Kind == KindString {
		ls, _ := toString(l)
		rs, _ := toString(r)
		return ls == rs, nil
	}
	if l.Kind == KindBool || r.Kind == KindBool {
		lb, _ := toBool(l)
		rb, _ := toBool(r)
		return lb == rb, nil
	}
	li, err := toInt(l)
	if err != nil {
		return false, err
	}
	ri, err := toInt(r)
	if err != nil {
		return false, err
	}
	return li == ri, nil
}

func toBool(v Value) (bool, error) {
	switch v.Kind {
	case KindBool:
		return v.Bool, nil
	case KindInt:
		return v.Int != 0, nil
	case KindString:
		return v.Str != "", nil
	case KindError:
		return false, nil
	}
	return false, &RuntimeError{Msg: "cannot convert value to bool"}
}

func toInt(v Value) (int64, error) {
	switch v.Kind {
	case KindInt:
		return v.Int, nil
	case KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case KindError:
		return 0, nil
	}
	return 0, &RuntimeError{Msg: "cannot convert string to int"}
}

func toString(v Value) (string, error) {
	switch v.Kind {
	case KindString:
		return v.Str, nil
	case KindInt:
		return fmt.Sprintf("%d", v.Int), nil
	case KindBool:
		return strings.ToLower(fmt.Sprintf("%t", v.Bool)), nil
	case KindError:
		return v.Str, nil
	}
	return "", &RuntimeError{Msg: "cannot convert value to string"}
}
