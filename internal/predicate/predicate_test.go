package predicate

import "testing"

func TestEval_Arithmetic(t *testing.T) {
	e, err := Parse("$L * 2 + 1 == 25")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	ok, err := e.Eval(Env{"L": {Kind: KindInt, Int: 12}})
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if !ok {
		t.Errorf("expected 12*2+1==25 to be true")
	}
}

func TestEval_Ternary(t *testing.T) {
	e, err := Parse(`$F == "A" ? true : false`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	ok, err := e.Eval(Env{"F": {Kind: KindString, Str: "A"}})
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if !ok {
		t.Errorf("expected ternary to select the true branch")
	}
}

func TestEval_LogicalShortCircuit(t *testing.T) {
	e, err := Parse("$L > 10 && $M > 0")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	ok, err := e.Eval(Env{"L": {Kind: KindInt, Int: 5}, "M": {Kind: KindInt, Int: 0}})
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if ok {
		t.Errorf("expected false since $L is not > 10")
	}
}

func TestEval_MatchOperator(t *testing.T) {
	e, err := Parse(`$l ~~ "1234*"`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	ok, err := e.Eval(Env{"l": {Kind: KindString, Str: "123456"}})
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if !ok {
		t.Errorf("expected 123456 to match pattern 1234*")
	}
}

func TestEval_AbortPropagates(t *testing.T) {
	e, err := Parse("$L < 0 ? abort : true")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	_, err = e.Eval(Env{"L": {Kind: KindInt, Int: -1}})
	if err == nil {
		t.Fatalf("expected an AbortError")
	}
	if _, ok := err.(*AbortError); !ok {
		t.Errorf("expected *AbortError, got %T: %v", err, err)
	}
}

func TestEval_UndefinedVariableRejectsWithoutError(t *testing.T) {
	// spec.md §7: a predicate runtime error substitutes <ERROR> for the
	// failing sub-expression and rejects the method; it must never
	// surface as a Go error or abort the search.
	e, err := Parse("$Z == 1")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	ok, err := e.Eval(Env{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ok {
		t.Errorf("expected an undefined variable to fail to match")
	}
}

func TestEval_UndefinedVariableErrorSubstitutionKeepsEvaluating(t *testing.T) {
	e, err := Parse("$Z || true")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	ok, err := e.Eval(Env{})
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if !ok {
		t.Errorf("expected $Z || true to resolve true despite $Z being undefined")
	}
}
