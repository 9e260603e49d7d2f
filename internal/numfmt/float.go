// Package numfmt centralizes the numeric-to-string conversion rules
// shared by the template expander (stringifying an expression result for
// substitution) and the emitter (writing a float scalar back out as
// YAML): both need the same "always put a '.' before an 'e' exponent"
// fixup that the original Python dumper applied to repr(float) output.
package numfmt

import (
	"math"
	"strconv"
	"strings"
)

// FormatFloat renders f the way the original loader's represent_float did:
// lowercase, shortest round-tripping decimal representation, with a
// guaranteed '.' before any 'e' exponent marker (Go's strconv, like
// Python's repr, can produce "1e+17" for large floats, which is not a
// valid YAML !!float token).
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	s = strings.ToLower(s)
	if i := strings.IndexByte(s, 'e'); i >= 0 && !strings.Contains(s[:i], ".") {
		s = s[:i] + ".0" + s[i:]
	}
	return s
}

// FormatFloatYAML renders f as a YAML !!float scalar body, special-casing
// the non-finite values per spec §4.6/§8 (NaN -> .nan, +Inf -> .inf, -Inf
// -> -.inf) and otherwise delegating to FormatFloat.
func FormatFloatYAML(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	default:
		return FormatFloat(f)
	}
}
