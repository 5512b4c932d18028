package overlay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MergeStrategy decides how generated content meets an existing file.
type MergeStrategy string

const (
	// StrategyCreate owns the whole file. It overwrites only content it wrote itself.
	StrategyCreate MergeStrategy = "create"
	// StrategyAppendMarker appends to a shared file unless the marker is present.
	StrategyAppendMarker MergeStrategy = "append-if-missing-marker"
	// StrategySkip writes a file once and never touches it again.
	StrategySkip MergeStrategy = "skip"
	// StrategyMergeJSON adds missing keys to a shared JSON object.
	StrategyMergeJSON MergeStrategy = "merge-json"
)

// Shared reports whether the file may hold content that is not ours.
func (s MergeStrategy) Shared() bool {
	return s == StrategyAppendMarker || s == StrategyMergeJSON
}

type jsonObject = orderedmap.OrderedMap[string, json.RawMessage]

// mergeJSON adds every key of incoming that is absent from existing, recursing
// into nested objects. Keys present on both sides with different values are
// left as they are and reported as conflicts.
func mergeJSON(existing, incoming []byte) ([]byte, bool, []string, error) {
	dst, err := parseObject(existing)
	if err != nil {
		return nil, false, nil, fmt.Errorf("failed to parse existing JSON: %w", err)
	}
	src, err := parseObject(incoming)
	if err != nil {
		return nil, false, nil, fmt.Errorf("failed to parse generated JSON: %w", err)
	}

	changed, conflicts, err := mergeObjects(dst, src, "")
	if err != nil {
		return nil, false, nil, err
	}
	if !changed {
		return existing, false, conflicts, nil
	}

	out, err := encodeObject(dst)
	if err != nil {
		return nil, false, nil, err
	}
	return out, true, conflicts, nil
}

func mergeObjects(dst, src *jsonObject, prefix string) (bool, []string, error) {
	changed := false
	var conflicts []string

	for pair := src.Oldest(); pair != nil; pair = pair.Next() {
		key := pair.Key
		if prefix != "" {
			key = prefix + "." + pair.Key
		}

		current, ok := dst.Get(pair.Key)
		if !ok {
			dst.Set(pair.Key, pair.Value)
			changed = true
			continue
		}

		if isObject(current) && isObject(pair.Value) {
			child, err := parseObject(current)
			if err != nil {
				return false, nil, err
			}
			want, err := parseObject(pair.Value)
			if err != nil {
				return false, nil, err
			}
			childChanged, childConflicts, err := mergeObjects(child, want, key)
			if err != nil {
				return false, nil, err
			}
			conflicts = append(conflicts, childConflicts...)
			if childChanged {
				raw, err := child.MarshalJSON()
				if err != nil {
					return false, nil, fmt.Errorf("failed to encode %s: %w", key, err)
				}
				dst.Set(pair.Key, raw)
				changed = true
			}
			continue
		}

		equal, err := jsonEqual(current, pair.Value)
		if err != nil {
			return false, nil, err
		}
		if !equal {
			conflicts = append(conflicts, key)
		}
	}
	return changed, conflicts, nil
}

func parseObject(data []byte) (*jsonObject, error) {
	if !isObject(data) {
		return nil, fmt.Errorf("not a JSON object")
	}
	obj := orderedmap.New[string, json.RawMessage]()
	if err := obj.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return obj, nil
}

func isObject(data []byte) bool {
	return strings.HasPrefix(string(bytes.TrimSpace(data)), "{")
}

func jsonEqual(a, b json.RawMessage) (bool, error) {
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		return false, fmt.Errorf("failed to decode JSON value: %w", err)
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false, fmt.Errorf("failed to decode JSON value: %w", err)
	}
	return cmp.Equal(av, bv), nil
}

func encodeObject(obj *jsonObject) ([]byte, error) {
	compact, err := obj.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to indent JSON: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
