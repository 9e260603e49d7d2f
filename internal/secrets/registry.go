// Package secrets implements the per-load secret registry: a value->name
// map used to redact !secret values when a tree is later
// dumped, plus the document cache that lets repeated !secret lookups
// within one load share a single parse of secrets.yaml.
//
// The original loader kept this state in module-level globals
// (_SECRET_VALUES, _SECRET_CACHE) cleared on demand. Per spec §5 and the
// "Global secret registry" design note, this is modeled instead as an
// explicit context object: each load owns a *Registry, so concurrent
// loads never share mutable state.
package secrets

import (
	"fmt"
	"strconv"

	"yamlconfig-tool/internal/docmodel"
)

// Literal stringifies a value the same way for both recording (construct's
// !secret handler) and lookup (the emitter), so the two sides of the
// value->name map agree on key shape regardless of the value's Kind.
func Literal(v docmodel.Value) string {
	switch v.Kind {
	case docmodel.KindString:
		return v.Str
	case docmodel.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case docmodel.KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case docmodel.KindBool:
		return strconv.FormatBool(v.Bool)
	case docmodel.KindNull:
		return "null"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Registry tracks secret values discovered during a load so the emitter
// can redact them, and caches parsed secrets.yaml documents by absolute
// path so a load that references several secrets only parses the file
// once.
type Registry struct {
	valueToName map[string]string
	docCache    map[string]docmodel.Value
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		valueToName: map[string]string{},
		docCache:    map[string]docmodel.Value{},
	}
}

// Clear resets both the value->name map and the document cache. Called at
// the start of a top-level load when the caller requests clearing.
func (r *Registry) Clear() {
	r.valueToName = map[string]string{}
	r.docCache = map[string]docmodel.Value{}
}

// Record remembers that literal stringifies to name, so that any later
// dump of a value that stringifies identically is redacted to !secret
// name.
func (r *Registry) Record(literal string, name string) {
	r.valueToName[literal] = name
}

// NameFor returns the secret name a literal value was recorded under, if
// any. Callers stringify the candidate value the same way the value was
// recorded (see internal/emit for the stringification rules used there).
func (r *Registry) NameFor(literal string) (string, bool) {
	name, ok := r.valueToName[literal]
	return name, ok
}

// CachedDoc returns a previously loaded secrets.yaml content for path, if
// this registry has already parsed it.
func (r *Registry) CachedDoc(path string) (docmodel.Value, bool) {
	v, ok := r.docCache[path]
	return v, ok
}

// CacheDoc records the parsed content of the secrets.yaml file at path.
func (r *Registry) CacheDoc(path string, v docmodel.Value) {
	r.docCache[path] = v
}
