package docmodel

import "testing"

func TestValueTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", Null(Origin{}), false},
		{"bool false", NewBool(false, Origin{}), false},
		{"bool true", NewBool(true, Origin{}), true},
		{"int zero", NewInt(0, Origin{}), false},
		{"int nonzero", NewInt(1, Origin{}), true},
		{"float zero", NewFloat(0, Origin{}), false},
		{"empty string", NewString("", Origin{}), false},
		{"nonempty string", NewString("x", Origin{}), true},
		{"empty seq", NewSeq(nil, Origin{}), false},
		{"nonempty seq", NewSeq([]Value{NewInt(1, Origin{})}, Origin{}), true},
		{"empty map", NewMap(nil, Origin{}), false},
		{"nonempty map", NewMap([]Pair{{Key: "a", Value: NewInt(1, Origin{})}}, Origin{}), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.v.Truthy(); got != c.want {
				t.Errorf("Truthy() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestValueField(t *testing.T) {
	m := NewMap([]Pair{
		{Key: "a", Value: NewInt(1, Origin{})},
		{Key: "b", Value: NewString("x", Origin{})},
	}, Origin{})

	if v, ok := m.Field("a"); !ok || v.Int != 1 {
		t.Errorf("Field(a) = %v, %v, want 1, true", v, ok)
	}
	if _, ok := m.Field("missing"); ok {
		t.Errorf("Field(missing) ok = true, want false")
	}
	if _, ok := NewInt(1, Origin{}).Field("a"); ok {
		t.Errorf("Field on non-mapping ok = true, want false")
	}
}

func TestValueKeys(t *testing.T) {
	m := NewMap([]Pair{{Key: "a", Value: Null(Origin{})}, {Key: "b", Value: Null(Origin{})}}, Origin{})
	got := m.Keys()
	want := []string{"a", "b"}
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestOriginIsZero(t *testing.T) {
	if !(Origin{}).IsZero() {
		t.Errorf("zero Origin.IsZero() = false, want true")
	}
	if (Origin{StartLine: 1}).IsZero() {
		t.Errorf("Origin{StartLine:1}.IsZero() = true, want false")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindNull:    "null",
		KindBool:    "bool",
		KindInt:     "int",
		KindFloat:   "float",
		KindString:  "string",
		KindBinary:  "binary",
		KindMap:     "map",
		KindOMap:    "omap",
		KindSeq:     "sequence",
		KindForList: "forlist",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
