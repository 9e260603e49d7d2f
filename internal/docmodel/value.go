// Package docmodel defines the annotated value tree produced by the
// construction pass: a tagged union over the YAML scalar/collection types
// plus source-location metadata and the two directive-driven behavior
// wrappers (Lambda, ForceValue).
package docmodel

import "fmt"

// Kind discriminates the dynamic type carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBinary
	KindMap
	KindOMap
	KindSeq
	// KindForList is the internal marker produced by !for. The
	// sequence-flattening step in internal/construct splices it into the
	// enclosing sequence; a !for that is not a sequence item (for example a
	// mapping value or a document root) is returned as KindForList as is.
	KindForList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindMap:
		return "map"
	case KindOMap:
		return "omap"
	case KindSeq:
		return "sequence"
	case KindForList:
		return "forlist"
	default:
		return "unknown"
	}
}

// Origin is the source-location metadata attached to every non-synthetic
// node. It is immutable once set: constructors copy it in, nothing ever
// mutates a Value's Origin field after construction.
type Origin struct {
	File       string
	StartLine  int
	StartCol   int
	EndLine    int
	EndCol     int
}

// IsZero reports whether o carries no location (a synthetic value, such
// as one produced by a default applied outside any source node).
func (o Origin) IsZero() bool {
	return o.StartLine == 0
}

func (o Origin) String() string {
	if o.IsZero() {
		return "<synthetic>"
	}
	if o.File == "" {
		return fmt.Sprintf("line %d, column %d", o.StartLine, o.StartCol)
	}
	return fmt.Sprintf("%s: line %d, column %d", o.File, o.StartLine, o.StartCol)
}

// Pair is a single key/value entry of a mapping, in declaration order.
type Pair struct {
	Key   string
	Value Value
}

// Value is the tagged-union annotated value. Only the fields relevant to
// Kind are meaningful; the zero value is KindNull.
type Value struct {
	Kind   Kind
	Origin Origin

	Bool   bool
	Int    int64
	Float  float64
	Str    string
	Binary []byte
	Pairs  []Pair  // KindMap, KindOMap
	Seq    []Value // KindSeq, KindForList

	// Lambda marks a KindString value as originating from !lambda: it is
	// rendered with block-literal style and tag !lambda on emission.
	Lambda bool
	// Forced marks a scalar as originating from !force: it bypasses later
	// coercions performed by downstream consumers (opaque to this package).
	Forced bool
}

// Null returns a KindNull value at origin o.
func Null(o Origin) Value { return Value{Kind: KindNull, Origin: o} }

// Bool constructs a KindBool value.
func NewBool(b bool, o Origin) Value { return Value{Kind: KindBool, Bool: b, Origin: o} }

// NewInt constructs a KindInt value.
func NewInt(i int64, o Origin) Value { return Value{Kind: KindInt, Int: i, Origin: o} }

// NewFloat constructs a KindFloat value.
func NewFloat(f float64, o Origin) Value { return Value{Kind: KindFloat, Float: f, Origin: o} }

// NewString constructs a KindString value.
func NewString(s string, o Origin) Value { return Value{Kind: KindString, Str: s, Origin: o} }

// NewBinary constructs a KindBinary value.
func NewBinary(b []byte, o Origin) Value { return Value{Kind: KindBinary, Binary: b, Origin: o} }

// NewMap constructs a KindMap value from already-resolved pairs.
func NewMap(pairs []Pair, o Origin) Value { return Value{Kind: KindMap, Pairs: pairs, Origin: o} }

// NewOMap constructs a KindOMap (explicit !!omap) value.
func NewOMap(pairs []Pair, o Origin) Value { return Value{Kind: KindOMap, Pairs: pairs, Origin: o} }

// NewSeq constructs a KindSeq value.
func NewSeq(items []Value, o Origin) Value { return Value{Kind: KindSeq, Seq: items, Origin: o} }

// NewForList wraps items as the internal !for marker.
func NewForList(items []Value, o Origin) Value {
	return Value{Kind: KindForList, Seq: items, Origin: o}
}

// IsNull reports whether v is the null value (synthetic or sourced).
func (v Value) IsNull() bool { return v.Kind == KindNull }

// IsMapping reports whether v is a mapping (plain or ordered-map).
func (v Value) IsMapping() bool { return v.Kind == KindMap || v.Kind == KindOMap }

// Field looks up a key in a mapping value, returning ok=false for
// non-mappings or missing keys.
func (v Value) Field(key string) (Value, bool) {
	if !v.IsMapping() {
		return Value{}, false
	}
	for _, p := range v.Pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return Value{}, false
}

// Keys returns the ordered key list of a mapping value, or nil otherwise.
func (v Value) Keys() []string {
	if !v.IsMapping() {
		return nil
	}
	keys := make([]string, len(v.Pairs))
	for i, p := range v.Pairs {
		keys[i] = p.Key
	}
	return keys
}

// Truthy implements the truthiness rule used by !if's condition, matching
// Python truthiness: null, boolean false, numeric zero, the empty string,
// and empty mappings and sequences are false; everything else is true.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int != 0
	case KindFloat:
		return v.Float != 0
	case KindString:
		return v.Str != ""
	case KindMap, KindOMap:
		return len(v.Pairs) > 0
	case KindSeq, KindForList:
		return len(v.Seq) > 0
	default:
		return true
	}
}
