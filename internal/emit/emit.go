// Package emit serializes an annotated value tree back to YAML text
// (spec §4.6), building a *yaml.Node tree handed to yaml.Encoder — the
// idiomatic Go counterpart of a representer. It consults the secret
// registry so any value that was recorded as a secret during loading
// round-trips back out as a !secret reference instead of its raw literal.
package emit

import (
	"bytes"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"yamlconfig-tool/internal/docmodel"
	"yamlconfig-tool/internal/numfmt"
	"yamlconfig-tool/internal/secrets"
)

// Dumper serializes annotated values, redacting any literal recorded in
// its Secrets registry.
type Dumper struct {
	Secrets *secrets.Registry
}

// NewDumper returns a Dumper backed by reg. A nil reg disables redaction.
func NewDumper(reg *secrets.Registry) *Dumper {
	return &Dumper{Secrets: reg}
}

// Dump renders v as a YAML document.
func (d *Dumper) Dump(v docmodel.Value) (string, error) {
	node := d.toNode(v)
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{node}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("emit: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("emit: close encoder: %w", err)
	}
	return buf.String(), nil
}

// Dump is a package-level convenience for the common case of no secret
// redaction (e.g. dumping a value never loaded through a Registry).
func Dump(v docmodel.Value) (string, error) {
	return (&Dumper{}).Dump(v)
}

func (d *Dumper) redactionName(literal string) (string, bool) {
	if d.Secrets == nil {
		return "", false
	}
	return d.Secrets.NameFor(literal)
}

func (d *Dumper) toNode(v docmodel.Value) *yaml.Node {
	if v.Lambda {
		return d.lambdaNode(v)
	}

	switch v.Kind {
	case docmodel.KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case docmodel.KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.Bool)}
	case docmodel.KindInt:
		literal := strconv.FormatInt(v.Int, 10)
		if name, ok := d.redactionName(literal); ok {
			return secretNode(name)
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: literal}
	case docmodel.KindFloat:
		literal := strconv.FormatFloat(v.Float, 'g', -1, 64)
		if name, ok := d.redactionName(literal); ok {
			return secretNode(name)
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: numfmt.FormatFloatYAML(v.Float)}
	case docmodel.KindString:
		if name, ok := d.redactionName(v.Str); ok {
			return secretNode(name)
		}
		return stringNode(v.Str, v.Forced)
	case docmodel.KindBinary:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!binary", Value: string(v.Binary)}
	case docmodel.KindMap, docmodel.KindOMap:
		return d.mapNode(v)
	case docmodel.KindSeq, docmodel.KindForList:
		return d.seqNode(v)
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

func stringNode(s string, forced bool) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if forced {
		n.Style = yaml.DoubleQuotedStyle
	}
	return n
}

func secretNode(name string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!secret", Value: name}
}

func (d *Dumper) lambdaNode(v docmodel.Value) *yaml.Node {
	if name, ok := d.redactionName(v.Str); ok {
		return secretNode(name)
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!lambda", Value: v.Str, Style: yaml.LiteralStyle}
}

func (d *Dumper) mapNode(v docmodel.Value) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: defaultMapTag(v.Kind)}
	n.Content = make([]*yaml.Node, 0, len(v.Pairs)*2)
	for _, p := range v.Pairs {
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key}, d.toNode(p.Value))
	}
	return n
}

func defaultMapTag(k docmodel.Kind) string {
	if k == docmodel.KindOMap {
		return "!!omap"
	}
	return "!!map"
}

func (d *Dumper) seqNode(v docmodel.Value) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	n.Content = make([]*yaml.Node, 0, len(v.Seq))
	for _, item := range v.Seq {
		n.Content = append(n.Content, d.toNode(item))
	}
	return n
}
