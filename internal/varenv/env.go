// Package varenv implements the scoped variable environment threaded
// through the construction pass. Environments compose by shallow
// copy-on-extend: entering !for or !include creates a child whose
// mutations never reach the parent, mirroring the defensive-copy
// discipline used for shared maps throughout the pack (see e.g.
// codeready-toolchain-tarsy's merge.go comments on avoiding shared state).
package varenv

import "yamlconfig-tool/internal/docmodel"

// Env is an ordered name -> value mapping. The zero value is a valid,
// empty environment.
type Env struct {
	keys   []string
	values map[string]docmodel.Value
}

// New returns an empty environment.
func New() Env {
	return Env{values: map[string]docmodel.Value{}}
}

// Child returns a shallow copy of e: same keys and values, but a distinct
// backing map/slice so that subsequent Set calls on the child do not
// mutate e.
func (e Env) Child() Env {
	c := Env{
		keys:   make([]string, len(e.keys)),
		values: make(map[string]docmodel.Value, len(e.values)),
	}
	copy(c.keys, e.keys)
	for k, v := range e.values {
		c.values[k] = v
	}
	return c
}

// Set binds name to value, appending name to the key order the first
// time it is assigned and overwriting in place on subsequent assignments.
func (e *Env) Set(name string, value docmodel.Value) {
	if e.values == nil {
		e.values = map[string]docmodel.Value{}
	}
	if _, exists := e.values[name]; !exists {
		e.keys = append(e.keys, name)
	}
	e.values[name] = value
}

// Get returns the bound value for name, or ok=false if unbound.
func (e Env) Get(name string) (docmodel.Value, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Keys returns the bound variable names in declaration order.
func (e Env) Keys() []string {
	out := make([]string, len(e.keys))
	copy(out, e.keys)
	return out
}

// Len reports the number of bound variables.
func (e Env) Len() int { return len(e.values) }

// ToMap returns a plain map suitable for handing to an expression engine
// (e.g. govaluate.EvaluableExpression.Evaluate), keyed by variable name
// with each Value reduced to its native Go dynamic value.
func (e Env) ToMap() map[string]interface{} {
	out := make(map[string]interface{}, len(e.values))
	for k, v := range e.values {
		out[k] = Native(v)
	}
	return out
}

// Native reduces an annotated Value to the plain Go value an expression
// engine or template substitution can operate on directly.
func Native(v docmodel.Value) interface{} {
	switch v.Kind {
	case docmodel.KindNull:
		return nil
	case docmodel.KindBool:
		return v.Bool
	case docmodel.KindInt:
		return v.Int
	case docmodel.KindFloat:
		return v.Float
	case docmodel.KindString:
		return v.Str
	case docmodel.KindBinary:
		return v.Binary
	case docmodel.KindMap, docmodel.KindOMap:
		m := make(map[string]interface{}, len(v.Pairs))
		for _, p := range v.Pairs {
			m[p.Key] = Native(p.Value)
		}
		return m
	case docmodel.KindSeq, docmodel.KindForList:
		s := make([]interface{}, len(v.Seq))
		for i, item := range v.Seq {
			s[i] = Native(item)
		}
		return s
	default:
		return nil
	}
}
