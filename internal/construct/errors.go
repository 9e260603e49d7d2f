// Located error types returned by the construction pass and its directive
// handlers (spec §7). Each implements LocatedError so a caller can recover
// source coordinates with errors.As regardless of how deep the failure
// occurred.
package construct

import (
	"fmt"

	"yamlconfig-tool/internal/docmodel"
	"yamlconfig-tool/internal/expand"
)

// LocatedError is implemented by every error type in this file.
type LocatedError interface {
	error
	Origin() docmodel.Origin
}

// ParseError wraps a malformed-YAML failure from gopkg.in/yaml.v3, or an
// internally detected malformed scalar (bad int/float/binary literal).
type ParseError struct {
	Org     docmodel.Origin
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse error: %s", e.Org, e.Message)
}
func (e *ParseError) Origin() docmodel.Origin { return e.Org }
func (e *ParseError) Unwrap() error           { return e.Cause }

// DuplicateKeyError reports a mapping key declared twice, naming both
// source locations.
type DuplicateKeyError struct {
	Key    string
	First  docmodel.Origin
	Second docmodel.Origin
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s: duplicate key %q (first defined at %s)", e.Second, e.Key, e.First)
}
func (e *DuplicateKeyError) Origin() docmodel.Origin { return e.Second }

// DirectiveTypeError reports a directive payload of the wrong shape, e.g.
// !for.items not a list, !merge not a sequence, !lambda not a string.
type DirectiveTypeError struct {
	Org       docmodel.Origin
	Directive string
	Message   string
}

func (e *DirectiveTypeError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Org, e.Directive, e.Message)
}
func (e *DirectiveTypeError) Origin() docmodel.Origin { return e.Org }

// MissingFieldError reports a required directive field that was absent,
// e.g. !include without file, !for without repeat, !if without then.
type MissingFieldError struct {
	Org       docmodel.Origin
	Directive string
	Field     string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s: missing required field %q", e.Org, e.Directive, e.Field)
}
func (e *MissingFieldError) Origin() docmodel.Origin { return e.Org }

// LookupError reports a !secret miss or an !env_var miss with no default,
// or a !for items variable that is not bound.
type LookupError struct {
	Org     docmodel.Origin
	Message string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: %s", e.Org, e.Message)
}
func (e *LookupError) Origin() docmodel.Origin { return e.Org }

// TemplateError wraps a failure from the expand package: undefined
// variable, template syntax error (with line number baked into Message by
// expand.Error), or a generic evaluation error.
type TemplateError struct {
	Org     docmodel.Origin
	Kind    expand.ErrorKind
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Org, e.Message)
}
func (e *TemplateError) Origin() docmodel.Origin { return e.Org }
func (e *TemplateError) Unwrap() error           { return e.Cause }

// IOError wraps a failure surfaced by the file-reader or git-fetcher
// collaborator.
type IOError struct {
	Org     docmodel.Origin
	Message string
	Cause   error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %s", e.Org, e.Message)
}
func (e *IOError) Origin() docmodel.Origin { return e.Org }
func (e *IOError) Unwrap() error           { return e.Cause }

// CycleError reports a cyclic !include chain.
type CycleError struct {
	Org   docmodel.Origin
	Path  string
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: cyclic include of %s (chain: %v)", e.Org, e.Path, e.Chain)
}
func (e *CycleError) Origin() docmodel.Origin { return e.Org }

func wrapTemplateError(err error, o docmodel.Origin) error {
	if exErr, ok := err.(*expand.Error); ok {
		return &TemplateError{Org: o, Kind: exErr.Kind, Message: exErr.Error(), Cause: exErr}
	}
	return &TemplateError{Org: o, Message: err.Error(), Cause: err}
}
