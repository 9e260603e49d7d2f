// Directive handlers for the custom tags recognized during construction
// (spec §4.3). Kept in the same package as construct.go, matching
// brian-c-moore-etl-tool's convention of one package split across
// concern-named files (internal/config's loader.go/merge.go/envexpand.go)
// rather than a separate package that would need to call back into this
// one for recursive directive bodies (!for's repeat, !if's then/else,
// !literal's subtree) and create an import cycle.
package construct

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"yamlconfig-tool/internal/docmodel"
	"yamlconfig-tool/internal/gitfetch"
	"yamlconfig-tool/internal/merge"
	"yamlconfig-tool/internal/secrets"
)

func mappingFields(node *yaml.Node) map[string]*yaml.Node {
	fields := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		fields[node.Content[i].Value] = node.Content[i+1]
	}
	return fields
}

// defaultTagFor resets a directive-tagged node back to the structural tag
// its shape would have resolved to without the custom tag. For scalars
// this re-runs the plain-scalar implicit-typing heuristic so that, e.g.,
// !force 5 stays an int rather than being coerced to the string "5".
func defaultTagFor(node *yaml.Node) string {
	switch node.Kind {
	case yaml.SequenceNode:
		return "!!seq"
	case yaml.MappingNode:
		return "!!map"
	default:
		return implicitScalarTag(node.Value)
	}
}

// implicitScalarTag mimics the subset of the YAML 1.1 core schema resolver
// that gopkg.in/yaml.v3 itself uses for untagged scalars: null, bool, int,
// and float literals resolve to their typed tag; everything else is a
// string.
func implicitScalarTag(s string) string {
	switch strings.ToLower(s) {
	case "", "~", "null":
		return "!!null"
	case "true", "false":
		return "!!bool"
	case ".inf", "+.inf", "-.inf", ".nan":
		return "!!float"
	}
	if looksLikeInt(s) {
		return "!!int"
	}
	if looksLikeFloat(s) {
		return "!!float"
	}
	return "!!str"
}

func looksLikeInt(s string) bool {
	i := 0
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		i = 1
	}
	if i >= len(s) {
		return false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func looksLikeFloat(s string) bool {
	i := 0
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		i = 1
	}
	if i >= len(s) {
		return false
	}
	seenDigit, seenDot, seenExp := false, false, false
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
		case (c == 'e' || c == 'E') && !seenExp && seenDigit:
			seenExp = true
			if i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-') {
				i++
			}
		default:
			return false
		}
	}
	return seenDigit && (seenDot || seenExp)
}

// handleEnvVar implements !env_var NAME [DEFAULT...].
func handleEnvVar(ctx *Context, node *yaml.Node) (docmodel.Value, error) {
	o := origin(ctx.File, node)
	if node.Kind != yaml.ScalarNode {
		return docmodel.Value{}, &DirectiveTypeError{Org: o, Directive: tagEnvVar, Message: "payload must be a scalar"}
	}
	fields := strings.Fields(node.Value)
	if len(fields) == 0 {
		return docmodel.Value{}, &MissingFieldError{Org: o, Directive: tagEnvVar, Field: "name"}
	}
	name := fields[0]
	if v, ok := os.LookupEnv(name); ok {
		return docmodel.NewString(v, o), nil
	}
	if len(fields) > 1 {
		return docmodel.NewString(strings.Join(fields[1:], " "), o), nil
	}
	return docmodel.Value{}, &LookupError{Org: o, Message: fmt.Sprintf("environment variable not defined: %s", name)}
}

// handleSecret implements !secret NAME.
func handleSecret(ctx *Context, node *yaml.Node) (docmodel.Value, error) {
	o := origin(ctx.File, node)
	if node.Kind != yaml.ScalarNode {
		return docmodel.Value{}, &DirectiveTypeError{Org: o, Directive: tagSecret, Message: "payload must be a scalar name"}
	}
	name := strings.TrimSpace(node.Value)
	secretsPath := filepath.Join(ctx.Dir, "secrets.yaml")

	doc, ok := ctx.Secrets.CachedDoc(secretsPath)
	if !ok {
		loaded, err := ctx.Loader.LoadFile(secretsPath, ctx.Env)
		if err != nil {
			return docmodel.Value{}, &IOError{Org: o, Message: fmt.Sprintf("loading %s: %v", secretsPath, err), Cause: err}
		}
		ctx.Secrets.CacheDoc(secretsPath, loaded)
		doc = loaded
	}

	val, ok := doc.Field(name)
	if !ok {
		return docmodel.Value{}, &LookupError{Org: o, Message: fmt.Sprintf("Secret not defined: %s", name)}
	}

	ctx.Secrets.Record(secrets.Literal(val), name)
	return val, nil
}

// handleInclude implements both forms of !include: a bare scalar path, or
// a mapping with file/url/username/password/ref/refresh/vars.
func handleInclude(ctx *Context, node *yaml.Node) (docmodel.Value, error) {
	o := origin(ctx.File, node)
	switch node.Kind {
	case yaml.ScalarNode:
		resolved := filepath.Join(ctx.Dir, node.Value)
		v, err := ctx.Loader.LoadFile(resolved, ctx.Env)
		if err != nil {
			return docmodel.Value{}, wrapIncludeErr(o, resolved, err)
		}
		return v, nil
	case yaml.MappingNode:
		return handleIncludeMapping(ctx, node, o)
	default:
		return docmodel.Value{}, &DirectiveTypeError{Org: o, Directive: tagInclude, Message: "payload must be a string or mapping"}
	}
}

func handleIncludeMapping(ctx *Context, node *yaml.Node, o docmodel.Origin) (docmodel.Value, error) {
	fields := mappingFields(node)

	fileNode, ok := fields["file"]
	if !ok {
		return docmodel.Value{}, &MissingFieldError{Org: o, Directive: tagInclude, Field: "file"}
	}

	childVars := ctx.Env.Child()
	if varsNode, ok := fields["vars"]; ok {
		vv, err := Build(varsNode, ctx)
		if err != nil {
			return docmodel.Value{}, err
		}
		if vv.IsMapping() {
			for _, p := range vv.Pairs {
				childVars.Set(p.Key, p.Value)
			}
		}
	}

	baseDir := ctx.Dir
	if urlNode, ok := fields["url"]; ok {
		req := gitfetch.Request{URL: urlNode.Value, Refresh: 24 * time.Hour, Domain: ctx.File}
		if refNode, ok := fields["ref"]; ok {
			req.Ref = refNode.Value
		}
		if userNode, ok := fields["username"]; ok {
			req.Username = userNode.Value
		}
		if passNode, ok := fields["password"]; ok {
			req.Password = passNode.Value
		}
		if refreshNode, ok := fields["refresh"]; ok {
			if d, err := time.ParseDuration(refreshNode.Value); err == nil {
				req.Refresh = d
			}
		}
		dir, err := ctx.Loader.FetchGit(req)
		if err != nil {
			return docmodel.Value{}, &IOError{Org: o, Message: fmt.Sprintf("git fetch %s: %v", req.URL, err), Cause: err}
		}
		baseDir = dir
	}

	resolved := filepath.Join(baseDir, fileNode.Value)
	v, err := ctx.Loader.LoadFile(resolved, childVars)
	if err != nil {
		return docmodel.Value{}, wrapIncludeErr(o, resolved, err)
	}
	return v, nil
}

func wrapIncludeErr(o docmodel.Origin, path string, err error) error {
	var cycle *CycleError
	if errors.As(err, &cycle) {
		return err
	}
	return &IOError{Org: o, Message: fmt.Sprintf("including %s: %v", path, err), Cause: err}
}

// handleLiteral disables expansion for the entire subtree by rewriting
// the node's tag to its structural default and reconstructing with
// DisableExpansion set.
func handleLiteral(ctx *Context, node *yaml.Node) (docmodel.Value, error) {
	litCtx := *ctx
	litCtx.DisableExpansion = true
	clone := *node
	clone.Tag = defaultTagFor(node)
	return Build(&clone, &litCtx)
}

// handleFor implements !for {items, var?, repeat}.
func handleFor(ctx *Context, node *yaml.Node) (docmodel.Value, error) {
	o := origin(ctx.File, node)
	if ctx.DisableExpansion {
		return docmodel.Null(o), nil
	}
	if node.Kind != yaml.MappingNode {
		return docmodel.Value{}, &DirectiveTypeError{Org: o, Directive: tagFor, Message: "payload must be a mapping"}
	}
	fields := mappingFields(node)

	itemsNode, ok := fields["items"]
	if !ok {
		return docmodel.Value{}, &MissingFieldError{Org: o, Directive: tagFor, Field: "items"}
	}
	repeatNode, ok := fields["repeat"]
	if !ok {
		return docmodel.Value{}, &MissingFieldError{Org: o, Directive: tagFor, Field: "repeat"}
	}

	varName := "item"
	if varNode, ok := fields["var"]; ok {
		if varNode.Kind != yaml.ScalarNode {
			return docmodel.Value{}, &DirectiveTypeError{Org: o, Directive: tagFor, Message: "var must be a string"}
		}
		varName = varNode.Value
	}

	items, err := resolveForItems(ctx, itemsNode, o)
	if err != nil {
		return docmodel.Value{}, err
	}

	out := make([]docmodel.Value, 0, len(items))
	for _, item := range items {
		childEnv := ctx.Env.Child()
		childEnv.Set(varName, item)
		childCtx := *ctx
		childCtx.Env = childEnv
		v, err := Build(repeatNode, &childCtx)
		if err != nil {
			return docmodel.Value{}, err
		}
		out = append(out, v)
	}
	return docmodel.NewForList(out, o), nil
}

func resolveForItems(ctx *Context, node *yaml.Node, o docmodel.Origin) ([]docmodel.Value, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!str" {
		v, ok := ctx.Env.Get(node.Value)
		if !ok {
			return nil, &LookupError{Org: o, Message: fmt.Sprintf("variable not defined: %s", node.Value)}
		}
		if v.Kind != docmodel.KindSeq && v.Kind != docmodel.KindForList {
			return nil, &DirectiveTypeError{Org: o, Directive: tagFor, Message: "items variable must resolve to a list"}
		}
		return v.Seq, nil
	}
	v, err := Build(node, ctx)
	if err != nil {
		return nil, err
	}
	if v.Kind != docmodel.KindSeq && v.Kind != docmodel.KindForList {
		return nil, &DirectiveTypeError{Org: o, Directive: tagFor, Message: "items must be a list"}
	}
	return v.Seq, nil
}

// handleIf implements !if {condition, then, else?}.
func handleIf(ctx *Context, node *yaml.Node) (docmodel.Value, error) {
	o := origin(ctx.File, node)
	if ctx.DisableExpansion {
		return docmodel.Null(o), nil
	}
	if node.Kind != yaml.MappingNode {
		return docmodel.Value{}, &DirectiveTypeError{Org: o, Directive: tagIf, Message: "payload must be a mapping"}
	}
	fields := mappingFields(node)

	condNode, ok := fields["condition"]
	if !ok {
		return docmodel.Value{}, &MissingFieldError{Org: o, Directive: tagIf, Field: "condition"}
	}
	cond, err := Build(condNode, ctx)
	if err != nil {
		return docmodel.Value{}, err
	}

	thenNode, ok := fields["then"]
	if !ok {
		return docmodel.Value{}, &MissingFieldError{Org: o, Directive: tagIf, Field: "then"}
	}

	if cond.Truthy() {
		return Build(thenNode, ctx)
	}
	if elseNode, ok := fields["else"]; ok {
		return Build(elseNode, ctx)
	}
	return docmodel.Null(o), nil
}

// handleMerge implements !merge [items...] by folding the constructed
// sequence left through internal/merge.
func handleMerge(ctx *Context, node *yaml.Node) (docmodel.Value, error) {
	o := origin(ctx.File, node)
	if ctx.DisableExpansion {
		return docmodel.Null(o), nil
	}
	if node.Kind != yaml.SequenceNode {
		return docmodel.Value{}, &DirectiveTypeError{Org: o, Directive: tagMerge, Message: "payload must be a sequence"}
	}
	seqVal, err := constructSequence(node, ctx)
	if err != nil {
		return docmodel.Value{}, err
	}
	if len(seqVal.Seq) == 0 {
		return docmodel.Null(o), nil
	}
	acc := seqVal.Seq[0]
	for _, item := range seqVal.Seq[1:] {
		acc = merge.Merge(acc, item)
	}
	acc.Origin = o
	return acc, nil
}

func resolveDirArg(ctx *Context, node *yaml.Node, directive string) (string, error) {
	o := origin(ctx.File, node)
	if node.Kind != yaml.ScalarNode {
		return "", &DirectiveTypeError{Org: o, Directive: directive, Message: "payload must be a directory path"}
	}
	return filepath.Join(ctx.Dir, node.Value), nil
}

func discoverYAMLFiles(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		base := d.Name()
		if d.IsDir() {
			if path != dir && strings.HasPrefix(base, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(base, ".") {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(base))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// handleIncludeDirList implements !include_dir_list DIR.
func handleIncludeDirList(ctx *Context, node *yaml.Node) (docmodel.Value, error) {
	o := origin(ctx.File, node)
	dir, err := resolveDirArg(ctx, node, tagIncludeDirList)
	if err != nil {
		return docmodel.Value{}, err
	}
	files, err := discoverYAMLFiles(dir)
	if err != nil {
		return docmodel.Value{}, &IOError{Org: o, Message: err.Error(), Cause: err}
	}
	items := make([]docmodel.Value, 0, len(files))
	for _, f := range files {
		v, err := ctx.Loader.LoadFile(f, ctx.Env)
		if err != nil {
			return docmodel.Value{}, wrapIncludeErr(o, f, err)
		}
		items = append(items, v)
	}
	return docmodel.NewSeq(items, o), nil
}

// handleIncludeDirMergeList implements !include_dir_merge_list DIR.
func handleIncludeDirMergeList(ctx *Context, node *yaml.Node) (docmodel.Value, error) {
	o := origin(ctx.File, node)
	dir, err := resolveDirArg(ctx, node, tagIncludeDirMergeList)
	if err != nil {
		return docmodel.Value{}, err
	}
	files, err := discoverYAMLFiles(dir)
	if err != nil {
		return docmodel.Value{}, &IOError{Org: o, Message: err.Error(), Cause: err}
	}
	var items []docmodel.Value
	for _, f := range files {
		v, err := ctx.Loader.LoadFile(f, ctx.Env)
		if err != nil {
			return docmodel.Value{}, wrapIncludeErr(o, f, err)
		}
		if v.Kind == docmodel.KindSeq {
			items = append(items, v.Seq...)
		}
	}
	return docmodel.NewSeq(items, o), nil
}

// handleIncludeDirNamed implements !include_dir_named DIR.
func handleIncludeDirNamed(ctx *Context, node *yaml.Node) (docmodel.Value, error) {
	o := origin(ctx.File, node)
	dir, err := resolveDirArg(ctx, node, tagIncludeDirNamed)
	if err != nil {
		return docmodel.Value{}, err
	}
	files, err := discoverYAMLFiles(dir)
	if err != nil {
		return docmodel.Value{}, &IOError{Org: o, Message: err.Error(), Cause: err}
	}
	pairs := make([]docmodel.Pair, 0, len(files))
	for _, f := range files {
		v, err := ctx.Loader.LoadFile(f, ctx.Env)
		if err != nil {
			return docmodel.Value{}, wrapIncludeErr(o, f, err)
		}
		name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		pairs = append(pairs, docmodel.Pair{Key: name, Value: v})
	}
	return docmodel.NewMap(pairs, o), nil
}

// handleIncludeDirMergeNamed implements !include_dir_merge_named DIR.
func handleIncludeDirMergeNamed(ctx *Context, node *yaml.Node) (docmodel.Value, error) {
	o := origin(ctx.File, node)
	dir, err := resolveDirArg(ctx, node, tagIncludeDirMergeNamed)
	if err != nil {
		return docmodel.Value{}, err
	}
	files, err := discoverYAMLFiles(dir)
	if err != nil {
		return docmodel.Value{}, &IOError{Org: o, Message: err.Error(), Cause: err}
	}
	index := map[string]int{}
	var pairs []docmodel.Pair
	for _, f := range files {
		v, err := ctx.Loader.LoadFile(f, ctx.Env)
		if err != nil {
			return docmodel.Value{}, wrapIncludeErr(o, f, err)
		}
		if !v.IsMapping() {
			continue
		}
		for _, p := range v.Pairs {
			if i, ok := index[p.Key]; ok {
				pairs[i] = p
			} else {
				index[p.Key] = len(pairs)
				pairs = append(pairs, p)
			}
		}
	}
	return docmodel.NewMap(pairs, o), nil
}

// handleLambda implements !lambda BODY.
func handleLambda(ctx *Context, node *yaml.Node) (docmodel.Value, error) {
	o := origin(ctx.File, node)
	if node.Kind != yaml.ScalarNode {
		return docmodel.Value{}, &DirectiveTypeError{Org: o, Directive: tagLambda, Message: "payload must be a string"}
	}
	v := docmodel.NewString(node.Value, o)
	v.Lambda = true
	return v, nil
}

// handleForce implements !force VALUE.
func handleForce(ctx *Context, node *yaml.Node) (docmodel.Value, error) {
	clone := *node
	clone.Tag = defaultTagFor(node)
	v, err := Build(&clone, ctx)
	if err != nil {
		return docmodel.Value{}, err
	}
	v.Forced = true
	return v, nil
}
