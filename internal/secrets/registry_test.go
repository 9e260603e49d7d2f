package secrets

import (
	"testing"

	"yamlconfig-tool/internal/docmodel"
)

func TestRegistryRecordAndLookup(t *testing.T) {
	r := New()
	r.Record("s3cr3t", "api_key")

	name, ok := r.NameFor("s3cr3t")
	if !ok || name != "api_key" {
		t.Errorf("NameFor(s3cr3t) = %q, %v, want api_key, true", name, ok)
	}
	if _, ok := r.NameFor("other"); ok {
		t.Errorf("NameFor(other) ok = true, want false")
	}
}

func TestRegistryClear(t *testing.T) {
	r := New()
	r.Record("s3cr3t", "api_key")
	r.CacheDoc("/tmp/secrets.yaml", docmodel.NewString("cached", docmodel.Origin{}))

	r.Clear()

	if _, ok := r.NameFor("s3cr3t"); ok {
		t.Errorf("NameFor after Clear ok = true, want false")
	}
	if _, ok := r.CachedDoc("/tmp/secrets.yaml"); ok {
		t.Errorf("CachedDoc after Clear ok = true, want false")
	}
}

func TestRegistryDocCache(t *testing.T) {
	r := New()
	doc := docmodel.NewString("value", docmodel.Origin{})
	r.CacheDoc("/tmp/secrets.yaml", doc)

	got, ok := r.CachedDoc("/tmp/secrets.yaml")
	if !ok || got.Str != "value" {
		t.Errorf("CachedDoc() = %v, %v, want %q, true", got, ok, "value")
	}
	if _, ok := r.CachedDoc("/tmp/missing.yaml"); ok {
		t.Errorf("CachedDoc(missing) ok = true, want false")
	}
}

func TestLiteral(t *testing.T) {
	cases := []struct {
		name string
		v    docmodel.Value
		want string
	}{
		{"string", docmodel.NewString("hi", docmodel.Origin{}), "hi"},
		{"int", docmodel.NewInt(42, docmodel.Origin{}), "42"},
		{"bool", docmodel.NewBool(true, docmodel.Origin{}), "true"},
		{"null", docmodel.Null(docmodel.Origin{}), "null"},
	}
	for _, c := range cases {
		if got := Literal(c.v); got != c.want {
			t.Errorf("Literal(%s) = %q, want %q", c.name, got, c.want)
		}
	}
}
