// Package construct is the tag-dispatch core (spec §4.2): it turns a
// gopkg.in/yaml.v3 *yaml.Node parse tree into the internal/docmodel
// annotated value tree, dispatching custom tags to the directive handlers
// in directives.go and enforcing duplicate-key detection and merge-key
// (<<) semantics along the way.
//
// Grounded on brian-c-moore-etl-tool/internal/config's loader.go, which
// walks a parsed tree applying defaults and env substitution in a single
// pass; here the single pass is a full tag-dispatch construction instead.
package construct

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"yamlconfig-tool/internal/docmodel"
	"yamlconfig-tool/internal/expand"
	"yamlconfig-tool/internal/gitfetch"
	"yamlconfig-tool/internal/logging"
	"yamlconfig-tool/internal/secrets"
	"yamlconfig-tool/internal/varenv"
)

const (
	tagEnvVar               = "!env_var"
	tagSecret                = "!secret"
	tagInclude               = "!include"
	tagLiteral               = "!literal"
	tagFor                   = "!for"
	tagIf                    = "!if"
	tagMerge                 = "!merge"
	tagIncludeDirList        = "!include_dir_list"
	tagIncludeDirMergeList   = "!include_dir_merge_list"
	tagIncludeDirNamed       = "!include_dir_named"
	tagIncludeDirMergeNamed  = "!include_dir_merge_named"
	tagLambda                = "!lambda"
	tagForce                 = "!force"
)

type directiveFunc func(*Context, *yaml.Node) (docmodel.Value, error)

var directiveHandlers = map[string]directiveFunc{
	tagEnvVar:               handleEnvVar,
	tagSecret:               handleSecret,
	tagInclude:              handleInclude,
	tagLiteral:              handleLiteral,
	tagFor:                  handleFor,
	tagIf:                   handleIf,
	tagMerge:                handleMerge,
	tagIncludeDirList:       handleIncludeDirList,
	tagIncludeDirMergeList:  handleIncludeDirMergeList,
	tagIncludeDirNamed:      handleIncludeDirNamed,
	tagIncludeDirMergeNamed: handleIncludeDirMergeNamed,
	tagLambda:               handleLambda,
	tagForce:                handleForce,
}

// DocLoader is the recursion seam the construction pass uses to load
// another document, implemented by internal/loader.Loader. Keeping the
// interface here (rather than in internal/loader) lets the directive
// handlers in this package recurse through it without this package
// importing internal/loader, which avoids a circular import since
// internal/loader must import internal/construct to drive the tag
// dispatch itself.
type DocLoader interface {
	// LoadFile loads the document at path (a resolved filesystem path)
	// with vars as its initial environment.
	LoadFile(path string, vars varenv.Env) (docmodel.Value, error)
	// FetchGit resolves a git-backed !include to a local directory.
	FetchGit(req gitfetch.Request) (string, error)
}

// Context carries everything the construction pass and directive handlers
// need to resolve one node: the current document's identity and
// directory (for relative path resolution), the active variable
// environment, the shared secret registry, the recursion seam back into
// the loader, and the expansion-disable flag (spec §4.1).
type Context struct {
	Loader           DocLoader
	Secrets          *secrets.Registry
	File             string
	Dir              string
	Env              varenv.Env
	DisableExpansion bool
}

// Build converts node into an annotated value, dispatching by custom tag
// first and by structural kind otherwise.
func Build(node *yaml.Node, ctx *Context) (docmodel.Value, error) {
	if node == nil {
		return docmodel.Null(docmodel.Origin{}), nil
	}
	if node.Kind == yaml.AliasNode {
		return Build(node.Alias, ctx)
	}

	if h, ok := directiveHandlers[node.Tag]; ok {
		logging.Logf(logging.Debug, "construct: dispatching %s at %s", node.Tag, origin(ctx.File, node))
		v, err := h(ctx, node)
		if err != nil {
			logging.Logf(logging.Warning, "construct: %s failed: %v", node.Tag, err)
			return docmodel.Value{}, err
		}
		return v, nil
	}

	switch node.Kind {
	case yaml.ScalarNode:
		return constructScalar(node, ctx)
	case yaml.SequenceNode:
		return constructSequence(node, ctx)
	case yaml.MappingNode:
		return constructMapping(node, ctx)
	default:
		return docmodel.Value{}, &ParseError{Org: origin(ctx.File, node), Message: fmt.Sprintf("unsupported node kind %d", node.Kind)}
	}
}

func origin(file string, node *yaml.Node) docmodel.Origin {
	endCol := node.Column
	if node.Kind == yaml.ScalarNode {
		endCol += len(node.Value)
	}
	return docmodel.Origin{
		File:      file,
		StartLine: node.Line,
		StartCol:  node.Column,
		EndLine:   node.Line,
		EndCol:    endCol,
	}
}

func constructScalar(node *yaml.Node, ctx *Context) (docmodel.Value, error) {
	o := origin(ctx.File, node)
	switch node.Tag {
	case "!!null":
		return docmodel.Null(o), nil
	case "!!bool":
		b, err := strconv.ParseBool(node.Value)
		if err != nil {
			return docmodel.Value{}, &ParseError{Org: o, Message: fmt.Sprintf("invalid bool %q: %v", node.Value, err), Cause: err}
		}
		return docmodel.NewBool(b, o), nil
	case "!!int":
		i, err := strconv.ParseInt(node.Value, 0, 64)
		if err != nil {
			return docmodel.Value{}, &ParseError{Org: o, Message: fmt.Sprintf("invalid int %q: %v", node.Value, err), Cause: err}
		}
		return docmodel.NewInt(i, o), nil
	case "!!float":
		f, err := parseFloatScalar(node.Value)
		if err != nil {
			return docmodel.Value{}, &ParseError{Org: o, Message: fmt.Sprintf("invalid float %q: %v", node.Value, err), Cause: err}
		}
		return docmodel.NewFloat(f, o), nil
	case "!!binary":
		b, err := decodeBinaryScalar(node.Value)
		if err != nil {
			return docmodel.Value{}, &ParseError{Org: o, Message: fmt.Sprintf("invalid binary scalar: %v", err), Cause: err}
		}
		return docmodel.NewBinary(b, o), nil
	default:
		s := node.Value
		if ctx.DisableExpansion {
			return docmodel.NewString(s, o), nil
		}
		expanded, err := expand.Expand(s, ctx.Env)
		if err != nil {
			return docmodel.Value{}, wrapTemplateError(err, o)
		}
		return docmodel.NewString(expanded, o), nil
	}
}

func constructSequence(node *yaml.Node, ctx *Context) (docmodel.Value, error) {
	o := origin(ctx.File, node)
	var items []docmodel.Value
	for _, c := range node.Content {
		v, err := Build(c, ctx)
		if err != nil {
			return docmodel.Value{}, err
		}
		if c.Tag == tagIf && v.IsNull() {
			continue
		}
		if v.Kind == docmodel.KindForList {
			for _, item := range v.Seq {
				if item.IsNull() {
					continue
				}
				items = append(items, item)
			}
			continue
		}
		items = append(items, v)
	}
	return docmodel.NewSeq(items, o), nil
}

func constructMapping(node *yaml.Node, ctx *Context) (docmodel.Value, error) {
	o := origin(ctx.File, node)

	type directEntry struct {
		pair docmodel.Pair
	}

	var direct []directEntry
	var mergePairs []docmodel.Pair
	seen := map[string]docmodel.Origin{}
	directKeys := map[string]bool{}

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]

		if keyNode.Tag == "!!merge" || keyNode.Value == "<<" {
			mv, err := Build(valNode, ctx)
			if err != nil {
				return docmodel.Value{}, err
			}
			pairs, err := mergeValuePairs(mv, origin(ctx.File, valNode))
			if err != nil {
				return docmodel.Value{}, err
			}
			mergePairs = append(mergePairs, pairs...)
			continue
		}

		keyCtx := *ctx
		keyCtx.DisableExpansion = true
		kv, err := Build(keyNode, &keyCtx)
		if err != nil {
			return docmodel.Value{}, err
		}
		key := keyToString(kv)
		ko := origin(ctx.File, keyNode)

		if prior, dup := seen[key]; dup {
			return docmodel.Value{}, &DuplicateKeyError{Key: key, First: prior, Second: ko}
		}
		seen[key] = ko
		directKeys[key] = true

		vv, err := Build(valNode, ctx)
		if err != nil {
			return docmodel.Value{}, err
		}
		direct = append(direct, directEntry{pair: docmodel.Pair{Key: key, Value: vv}})
	}

	result := make([]docmodel.Pair, 0, len(direct)+len(mergePairs))
	for _, d := range direct {
		result = append(result, d.pair)
	}

	adopted := map[string]bool{}
	for _, mp := range mergePairs {
		if directKeys[mp.Key] || adopted[mp.Key] {
			continue
		}
		adopted[mp.Key] = true
		result = append(result, mp)
	}

	return docmodel.NewMap(result, o), nil
}

// mergeValuePairs implements the standard YAML merge-key value shapes: a
// single mapping, or a sequence of mappings where earlier entries
// override keys from later entries.
func mergeValuePairs(v docmodel.Value, o docmodel.Origin) ([]docmodel.Pair, error) {
	switch {
	case v.IsMapping():
		out := make([]docmodel.Pair, len(v.Pairs))
		copy(out, v.Pairs)
		return out, nil
	case v.Kind == docmodel.KindSeq:
		seen := map[string]bool{}
		var out []docmodel.Pair
		for _, item := range v.Seq {
			if !item.IsMapping() {
				return nil, &DirectiveTypeError{Org: o, Directive: "<<", Message: "merge sequence item must be a mapping"}
			}
			for _, p := range item.Pairs {
				if seen[p.Key] {
					continue
				}
				seen[p.Key] = true
				out = append(out, p)
			}
		}
		return out, nil
	default:
		return nil, &DirectiveTypeError{Org: o, Directive: "<<", Message: "merge value must be a mapping or sequence of mappings"}
	}
}

func keyToString(v docmodel.Value) string {
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

func parseFloatScalar(s string) (float64, error) {
	switch strings.ToLower(s) {
	case ".inf", "+.inf":
		return math.Inf(1), nil
	case "-.inf":
		return math.Inf(-1), nil
	case ".nan":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func decodeBinaryScalar(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}
