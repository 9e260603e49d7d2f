// Package merge implements the !merge deep-merge fold (spec §4.3.1): the
// dict/dict, list/list (identity-keyed), and scalar-replacement cases the
// original loader's nested merge() closure implemented, restructured here
// as a standalone function the way
// codeready-toolchain-tarsy/pkg/config/merge.go keeps "builtin overridden
// by user" merging in its own small file rather than inline in the
// loader.
package merge

import (
	"fmt"

	"yamlconfig-tool/internal/docmodel"
)

const identityField = "id"

// Merge folds new onto old per spec §4.3.1. It never mutates old or new;
// it returns a new Value tree.
func Merge(old, new docmodel.Value) docmodel.Value {
	if old.IsNull() {
		return new
	}
	if new.IsNull() {
		return old
	}

	if new.IsMapping() {
		if !old.IsMapping() {
			return new
		}
		return mergeMappings(old, new)
	}

	if new.Kind == docmodel.KindSeq {
		if old.Kind != docmodel.KindSeq {
			return new
		}
		return mergeSequences(old, new)
	}

	// Scalar, or new has a kind that doesn't recurse: replace.
	return new
}

func mergeMappings(old, new docmodel.Value) docmodel.Value {
	index := make(map[string]int, len(old.Pairs))
	result := make([]docmodel.Pair, len(old.Pairs))
	copy(result, old.Pairs)
	for i, p := range result {
		index[p.Key] = i
	}

	for _, np := range new.Pairs {
		if i, ok := index[np.Key]; ok {
			result[i] = docmodel.Pair{Key: np.Key, Value: Merge(result[i].Value, np.Value)}
			continue
		}
		index[np.Key] = len(result)
		result = append(result, np)
	}

	out := old
	out.Pairs = result
	return out
}

// identityKeys computes the §4.3.1 identity key for every item of a
// !merge sequence operand: a mapping item's "id" field if present,
// otherwise its rank among the other non-"id" items in the same
// sequence.
func identityKeys(seq []docmodel.Value) []string {
	keys := make([]string, len(seq))
	pos := 0
	for i, item := range seq {
		if item.IsMapping() {
			if idVal, ok := item.Field(identityField); ok {
				keys[i] = "id:" + stringifyID(idVal)
				continue
			}
		}
		keys[i] = fmt.Sprintf("pos:%d", pos)
		pos++
	}
	return keys
}

func stringifyID(v docmodel.Value) string {
	switch v.Kind {
	case docmodel.KindInt:
		return fmt.Sprintf("%d", v.Int)
	case docmodel.KindFloat:
		return fmt.Sprintf("%v", v.Float)
	case docmodel.KindBool:
		return fmt.Sprintf("%v", v.Bool)
	default:
		return v.Str
	}
}

func mergeSequences(old, new docmodel.Value) docmodel.Value {
	oldKeys := identityKeys(old.Seq)
	newKeys := identityKeys(new.Seq)

	newIndexByKey := make(map[string]int, len(new.Seq))
	for i, k := range newKeys {
		newIndexByKey[k] = i
	}
	consumed := make([]bool, len(new.Seq))

	result := make([]docmodel.Value, len(old.Seq))
	for i, item := range old.Seq {
		if ni, ok := newIndexByKey[oldKeys[i]]; ok {
			result[i] = Merge(item, new.Seq[ni])
			consumed[ni] = true
		} else {
			result[i] = item
		}
	}
	for i, item := range new.Seq {
		if !consumed[i] {
			result = append(result, item)
		}
	}

	out := old
	out.Kind = docmodel.KindSeq
	out.Seq = result
	return out
}
