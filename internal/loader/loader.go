// Package loader drives one document load end to end: reading a file (or
// string) and handing it to internal/construct for tag dispatch,
// maintaining the include stack for cycle detection, and implementing the
// substitutions preload (spec §4.4, §4.5).
//
// Grounded on brian-c-moore-etl-tool/internal/config's LoadConfig, which
// is the teacher's only "read a YAML file from disk and turn it into a
// usable tree" entry point.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"yamlconfig-tool/internal/construct"
	"yamlconfig-tool/internal/docmodel"
	"yamlconfig-tool/internal/expand"
	"yamlconfig-tool/internal/gitfetch"
	"yamlconfig-tool/internal/logging"
	"yamlconfig-tool/internal/secrets"
	"yamlconfig-tool/internal/varenv"
)

// ErrNotFound is wrapped into any error produced by a missing top-level
// file passed to Load.
var ErrNotFound = errors.New("configuration document not found")

const substitutionsKey = "substitutions"

// Loader loads documents and satisfies internal/construct.DocLoader so
// directive handlers (!include, !include_dir_*, !secret) can recurse back
// through it without construct importing this package.
type Loader struct {
	Secrets *secrets.Registry
	Fetcher gitfetch.Fetcher

	// readFile and loadStack are overridable/stateful seams: readFile for
	// test substitution, loadStack for cyclic-include detection.
	readFile  func(path string) ([]byte, error)
	loadStack []string
}

// New returns a Loader with its own secret registry and the default
// go-git-backed fetcher.
func New() *Loader {
	return &Loader{
		Secrets:  secrets.New(),
		Fetcher:  gitfetch.NewGitFetcher(),
		readFile: os.ReadFile,
	}
}

// Load reads path from disk and constructs its annotated tree. If
// clearSecrets is true, the secret registry and document cache are reset
// first. The top-level substitutions mapping, if present, is stripped
// from the returned root (callers that want it should call LoadVars
// first and feed the result in as vars).
func (l *Loader) Load(path string, clearSecrets bool, vars varenv.Env) (docmodel.Value, error) {
	if clearSecrets {
		l.Secrets.Clear()
	}
	l.loadStack = nil

	abs, err := filepath.Abs(path)
	if err != nil {
		return docmodel.Value{}, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}

	v, err := l.loadPath(abs, vars, false)
	if err != nil {
		return docmodel.Value{}, err
	}
	return stripSubstitutions(v), nil
}

// LoadFile implements construct.DocLoader: it is the recursion seam used
// by directive handlers.
func (l *Loader) LoadFile(path string, vars varenv.Env) (docmodel.Value, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return docmodel.Value{}, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}
	return l.loadPath(abs, vars, false)
}

// FetchGit implements construct.DocLoader.
func (l *Loader) FetchGit(req gitfetch.Request) (string, error) {
	return l.Fetcher.Fetch(req)
}

func (l *Loader) loadPath(abs string, vars varenv.Env, disableExpansion bool) (docmodel.Value, error) {
	for _, onStack := range l.loadStack {
		if onStack == abs {
			return docmodel.Value{}, &construct.CycleError{Path: abs, Chain: append([]string{}, l.loadStack...)}
		}
	}

	content, err := l.readFile(abs)
	if err != nil {
		return docmodel.Value{}, fmt.Errorf("%w: %s: %v", ErrNotFound, abs, err)
	}

	l.loadStack = append(l.loadStack, abs)
	defer func() { l.loadStack = l.loadStack[:len(l.loadStack)-1] }()

	logging.Logf(logging.Debug, "loader: loading %s", abs)
	return l.build(content, abs, vars, disableExpansion)
}

func (l *Loader) build(content []byte, path string, vars varenv.Env, disableExpansion bool) (docmodel.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return docmodel.Value{}, &construct.ParseError{Message: fmt.Sprintf("%s: %v", path, err), Cause: err}
	}
	if len(doc.Content) == 0 {
		return docmodel.Null(docmodel.Origin{File: path}), nil
	}

	ctx := &construct.Context{
		Loader:           l,
		Secrets:          l.Secrets,
		File:             path,
		Dir:              filepath.Dir(path),
		Env:              vars,
		DisableExpansion: disableExpansion,
	}
	return construct.Build(doc.Content[0], ctx)
}

// LoadString is the lower-level entry point used directly by callers that
// already have document bytes in hand (e.g. tests), bypassing the
// file-reader collaborator and cycle tracking.
func (l *Loader) LoadString(content []byte, name string, vars varenv.Env, disableExpansion bool) (docmodel.Value, error) {
	return l.build(content, name, vars, disableExpansion)
}

func stripSubstitutions(v docmodel.Value) docmodel.Value {
	if !v.IsMapping() {
		return v
	}
	out := make([]docmodel.Pair, 0, len(v.Pairs))
	for _, p := range v.Pairs {
		if p.Key == substitutionsKey {
			continue
		}
		out = append(out, p)
	}
	v.Pairs = out
	return v
}

// LoadVars implements the Substitutions Preload (spec §4.5): parse path
// in expansion-disabled mode, pull out the top-level substitutions
// mapping, merge command-line overrides over it, then expand each
// substitution value in declaration order so later entries may reference
// earlier ones.
func (l *Loader) LoadVars(path string, overrides map[string]string) (varenv.Env, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return varenv.Env{}, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}
	content, err := l.readFile(abs)
	if err != nil {
		return varenv.Env{}, fmt.Errorf("%w: %s: %v", ErrNotFound, abs, err)
	}

	raw, err := l.build(content, abs, varenv.New(), true)
	if err != nil {
		return varenv.Env{}, err
	}

	subs, _ := raw.Field(substitutionsKey)

	declared := varenv.New()
	if subs.IsMapping() {
		for _, p := range subs.Pairs {
			declared.Set(p.Key, p.Value)
		}
	}
	for k, v := range overrides {
		ov, err := parseOverrideValue(v)
		if err != nil {
			return varenv.Env{}, fmt.Errorf("invalid -var override for %q: %w", k, err)
		}
		declared.Set(k, ov)
	}

	env := varenv.New()
	for _, key := range declared.Keys() {
		value, _ := declared.Get(key)
		resolved, err := resolveSubstitution(value, env)
		if err != nil {
			return varenv.Env{}, fmt.Errorf("substitution %q: %w", key, err)
		}
		env.Set(key, resolved)
	}
	return env, nil
}

func resolveSubstitution(v docmodel.Value, env varenv.Env) (docmodel.Value, error) {
	if v.Kind != docmodel.KindString || !strings.Contains(v.Str, "{{") {
		return v, nil
	}
	return expand.ExpandValue(v.Str, env, v.Origin)
}

func parseOverrideValue(text string) (docmodel.Value, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(text), &node); err != nil {
		return docmodel.Value{}, err
	}
	if len(node.Content) == 0 {
		return docmodel.Null(docmodel.Origin{}), nil
	}
	ctx := &construct.Context{Env: varenv.New(), DisableExpansion: true}
	return construct.Build(node.Content[0], ctx)
}
