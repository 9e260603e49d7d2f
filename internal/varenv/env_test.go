package varenv

import (
	"reflect"
	"testing"

	"yamlconfig-tool/internal/docmodel"
)

func TestEnvSetGet(t *testing.T) {
	e := New()
	e.Set("a", docmodel.NewInt(1, docmodel.Origin{}))
	e.Set("b", docmodel.NewString("x", docmodel.Origin{}))

	v, ok := e.Get("a")
	if !ok || v.Int != 1 {
		t.Errorf("Get(a) = %v, %v, want 1, true", v, ok)
	}
	if _, ok := e.Get("missing"); ok {
		t.Errorf("Get(missing) ok = true, want false")
	}
	if got := e.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Keys() = %v, want [a b]", got)
	}
	if e.Len() != 2 {
		t.Errorf("Len() = %d, want 2", e.Len())
	}
}

func TestEnvChildIsolation(t *testing.T) {
	parent := New()
	parent.Set("a", docmodel.NewInt(1, docmodel.Origin{}))

	child := parent.Child()
	child.Set("a", docmodel.NewInt(2, docmodel.Origin{}))
	child.Set("b", docmodel.NewInt(3, docmodel.Origin{}))

	pv, _ := parent.Get("a")
	if pv.Int != 1 {
		t.Errorf("parent.Get(a) after child mutation = %d, want 1", pv.Int)
	}
	if _, ok := parent.Get("b"); ok {
		t.Errorf("parent.Get(b) ok = true, want false (child-only binding leaked to parent)")
	}

	cv, _ := child.Get("a")
	if cv.Int != 2 {
		t.Errorf("child.Get(a) = %d, want 2", cv.Int)
	}
}

func TestEnvToMapNative(t *testing.T) {
	e := New()
	e.Set("n", docmodel.NewInt(7, docmodel.Origin{}))
	e.Set("s", docmodel.NewString("hi", docmodel.Origin{}))
	e.Set("list", docmodel.NewSeq([]docmodel.Value{docmodel.NewInt(1, docmodel.Origin{})}, docmodel.Origin{}))

	m := e.ToMap()
	if m["n"] != int64(7) {
		t.Errorf("ToMap()[n] = %v, want int64(7)", m["n"])
	}
	if m["s"] != "hi" {
		t.Errorf("ToMap()[s] = %v, want \"hi\"", m["s"])
	}
	list, ok := m["list"].([]interface{})
	if !ok || len(list) != 1 || list[0] != int64(1) {
		t.Errorf("ToMap()[list] = %v, want [1]", m["list"])
	}
}
