package numfmt

import (
	"math"
	"testing"
)

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1.5, "1.5"},
		{1e17, "1.0e+17"},
		{0, "0"},
	}
	for _, c := range cases {
		if got := FormatFloat(c.in); got != c.want {
			t.Errorf("FormatFloat(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatFloatYAML(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want string
	}{
		{"nan", math.NaN(), ".nan"},
		{"posinf", math.Inf(1), ".inf"},
		{"neginf", math.Inf(-1), "-.inf"},
		{"finite", 2.5, "2.5"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := FormatFloatYAML(c.in); got != c.want {
				t.Errorf("FormatFloatYAML(%v) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}
