package emit

import (
	"math"
	"strings"
	"testing"

	"yamlconfig-tool/internal/docmodel"
	"yamlconfig-tool/internal/secrets"
)

func TestDumpScalars(t *testing.T) {
	m := docmodel.NewMap([]docmodel.Pair{
		{Key: "b", Value: docmodel.NewBool(true, docmodel.Origin{})},
		{Key: "s", Value: docmodel.NewString("hi", docmodel.Origin{})},
	}, docmodel.Origin{})

	out, err := Dump(m)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(out, "b: true") {
		t.Errorf("Dump() = %q, want it to contain %q", out, "b: true")
	}
	if !strings.Contains(out, "s: hi") {
		t.Errorf("Dump() = %q, want it to contain %q", out, "s: hi")
	}
}

func TestDumpFloatFormatting(t *testing.T) {
	m := docmodel.NewMap([]docmodel.Pair{
		{Key: "big", Value: docmodel.NewFloat(1e17, docmodel.Origin{})},
		{Key: "nan", Value: docmodel.NewFloat(math.NaN(), docmodel.Origin{})},
		{Key: "inf", Value: docmodel.NewFloat(math.Inf(1), docmodel.Origin{})},
	}, docmodel.Origin{})

	out, err := Dump(m)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(out, "1.0e+17") {
		t.Errorf("Dump() = %q, want it to contain %q", out, "1.0e+17")
	}
	if !strings.Contains(out, ".nan") {
		t.Errorf("Dump() = %q, want it to contain %q", out, ".nan")
	}
	if !strings.Contains(out, ".inf") {
		t.Errorf("Dump() = %q, want it to contain %q", out, ".inf")
	}
}

func TestDumpSecretRedaction(t *testing.T) {
	reg := secrets.New()
	reg.Record("topsecret", "api_key")

	m := docmodel.NewMap([]docmodel.Pair{
		{Key: "k", Value: docmodel.NewString("topsecret", docmodel.Origin{})},
	}, docmodel.Origin{})

	out, err := NewDumper(reg).Dump(m)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(out, "!secret api_key") {
		t.Errorf("Dump() = %q, want it to contain %q", out, "!secret api_key")
	}
	if strings.Contains(out, "topsecret") {
		t.Errorf("Dump() = %q, leaked raw secret value", out)
	}
}

func TestDumpLambda(t *testing.T) {
	v := docmodel.NewString("return 1;", docmodel.Origin{})
	v.Lambda = true
	m := docmodel.NewMap([]docmodel.Pair{{Key: "v", Value: v}}, docmodel.Origin{})

	out, err := Dump(m)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(out, "!lambda") {
		t.Errorf("Dump() = %q, want it to contain %q", out, "!lambda")
	}
	if !strings.Contains(out, "return 1;") {
		t.Errorf("Dump() = %q, want it to contain %q", out, "return 1;")
	}
}

func TestDumpSequence(t *testing.T) {
	seq := docmodel.NewSeq([]docmodel.Value{
		docmodel.NewInt(1, docmodel.Origin{}),
		docmodel.NewInt(2, docmodel.Origin{}),
	}, docmodel.Origin{})

	out, err := Dump(seq)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(out, "- 1") || !strings.Contains(out, "- 2") {
		t.Errorf("Dump() = %q, want block sequence of 1, 2", out)
	}
}
