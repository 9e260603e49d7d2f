// Package expand implements the string-level template expansion layer
// (spec §4.1): scanning a string for {{ expr }} spans and evaluating each
// as a govaluate expression against the current variable environment.
//
// This repurposes brian-c-moore-etl-tool's only expression-evaluation
// dependency, github.com/Knetic/govaluate (previously used there to
// evaluate ETL filter/branch conditions), as the template engine
// collaborator the spec calls for.
package expand

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"

	"yamlconfig-tool/internal/docmodel"
	"yamlconfig-tool/internal/numfmt"
	"yamlconfig-tool/internal/varenv"
)

// ErrorKind distinguishes the three failure modes the spec requires
// distinct user-facing messages for.
type ErrorKind int

const (
	// ErrUndefined means the expression referenced a variable absent from
	// the environment.
	ErrUndefined ErrorKind = iota
	// ErrSyntax means the expression failed to parse.
	ErrSyntax
	// ErrOther covers any other evaluation failure (type mismatches,
	// unsupported operators, ...).
	ErrOther
)

// Error is returned by Expand on failure. Line is 1-based and only
// meaningful for ErrSyntax; it counts newlines in the original string up
// to the start of the failing {{ ... }} span.
type Error struct {
	Kind    ErrorKind
	Line    int
	Expr    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrUndefined:
		return fmt.Sprintf("variable is undefined: %s", e.Message)
	case ErrSyntax:
		return fmt.Sprintf("error in line %d of expression: %s", e.Line, e.Message)
	default:
		return fmt.Sprintf("error in expression: %s", e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Expand scans s for {{ expr }} spans and replaces each with the
// stringified result of evaluating expr against env. Strings containing
// no such span are returned unchanged (result == input, no error).
func Expand(s string, env varenv.Env) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}

	vars := env.ToMap()
	var out strings.Builder
	rest := s
	consumed := 0

	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			out.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], "}}")
		if end < 0 {
			// No closing marker: treat the remainder literally, matching
			// a tolerant scanner rather than failing on stray braces.
			out.WriteString(rest)
			break
		}
		end += start

		out.WriteString(rest[:start])
		exprText := strings.TrimSpace(rest[start+2 : end])

		absoluteOffset := consumed + start
		line := 1 + strings.Count(s[:absoluteOffset], "\n")

		result, err := evaluate(exprText, vars, line)
		if err != nil {
			return "", err
		}
		out.WriteString(stringify(result))

		advance := end + 2
		rest = rest[advance:]
		consumed += advance
	}

	return out.String(), nil
}

func evaluate(exprText string, vars map[string]interface{}, line int) (interface{}, error) {
	expression, err := govaluate.NewEvaluableExpression(exprText)
	if err != nil {
		return nil, &Error{Kind: ErrSyntax, Line: line, Expr: exprText, Message: err.Error(), Cause: err}
	}

	result, err := expression.Evaluate(vars)
	if err != nil {
		if isUndefinedParameter(err) {
			return nil, &Error{Kind: ErrUndefined, Expr: exprText, Message: missingParamName(err, exprText), Cause: err}
		}
		return nil, &Error{Kind: ErrOther, Expr: exprText, Message: err.Error(), Cause: err}
	}
	return result, nil
}

// isUndefinedParameter recognizes govaluate's "no parameter found" error
// text, which is how the library reports a variable reference that was
// never supplied in the Evaluate() parameters map.
func isUndefinedParameter(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no parameter") || strings.Contains(msg, "undefined")
}

func missingParamName(err error, exprText string) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\''); i >= 0 {
		if j := strings.IndexByte(msg[i+1:], '\''); j >= 0 {
			return msg[i+1 : i+1+j]
		}
	}
	return exprText
}

// stringify converts a govaluate result (bool, float64, string, or nil)
// to the text spliced into the expanded string.
func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(t)
	case string:
		return t
	case float64:
		return numfmt.FormatFloat(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// ExpandValue expands s and returns the result as a string docmodel.Value
// carrying origin, the original node's location (spec §4.1's "inherits
// origin metadata from the original node" rule). The result is returned
// this way whether or not expansion changed s.
func ExpandValue(s string, env varenv.Env, origin docmodel.Origin) (docmodel.Value, error) {
	result, err := Expand(s, env)
	if err != nil {
		return docmodel.Value{}, err
	}
	return docmodel.NewString(result, origin), nil
}
