package expand

import (
	"errors"
	"testing"

	"yamlconfig-tool/internal/docmodel"
	"yamlconfig-tool/internal/varenv"
)

func envWith(pairs map[string]docmodel.Value) varenv.Env {
	e := varenv.New()
	for k, v := range pairs {
		e.Set(k, v)
	}
	return e
}

func TestExpandNoTemplate(t *testing.T) {
	got, err := Expand("plain text", varenv.New())
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if got != "plain text" {
		t.Errorf("Expand() = %q, want %q", got, "plain text")
	}
}

func TestExpandVariableSubstitution(t *testing.T) {
	env := envWith(map[string]docmodel.Value{"x": docmodel.NewInt(2, docmodel.Origin{})})
	got, err := Expand("value is {{ x }}", env)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if got != "value is 2" {
		t.Errorf("Expand() = %q, want %q", got, "value is 2")
	}
}

func TestExpandMultipleSpans(t *testing.T) {
	env := envWith(map[string]docmodel.Value{
		"a": docmodel.NewInt(1, docmodel.Origin{}),
		"b": docmodel.NewInt(2, docmodel.Origin{}),
	})
	got, err := Expand("{{ a }}-{{ b }}", env)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if got != "1-2" {
		t.Errorf("Expand() = %q, want %q", got, "1-2")
	}
}

func TestExpandUndefinedVariable(t *testing.T) {
	_, err := Expand("{{ missing }}", varenv.New())
	if err == nil {
		t.Fatal("Expand() error = nil, want undefined-variable error")
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error is not *Error: %v", err)
	}
	if e.Kind != ErrUndefined {
		t.Errorf("Kind = %v, want ErrUndefined", e.Kind)
	}
}

func TestExpandSyntaxError(t *testing.T) {
	_, err := Expand("{{ 1 + }}", varenv.New())
	if err == nil {
		t.Fatal("Expand() error = nil, want syntax error")
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error is not *Error: %v", err)
	}
	if e.Kind != ErrSyntax {
		t.Errorf("Kind = %v, want ErrSyntax", e.Kind)
	}
	if e.Line != 1 {
		t.Errorf("Line = %d, want 1", e.Line)
	}
}

func TestExpandSyntaxErrorLineNumber(t *testing.T) {
	_, err := Expand("one\ntwo\n{{ 1 + }}", varenv.New())
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error is not *Error: %v", err)
	}
	if e.Line != 3 {
		t.Errorf("Line = %d, want 3", e.Line)
	}
}

func TestExpandBooleanResult(t *testing.T) {
	env := envWith(map[string]docmodel.Value{"x": docmodel.NewInt(5, docmodel.Origin{})})
	got, err := Expand("{{ x > 1 }}", env)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if got != "true" {
		t.Errorf("Expand() = %q, want %q", got, "true")
	}
}
