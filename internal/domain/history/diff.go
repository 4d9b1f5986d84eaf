package history

import (
	"reflect"
	"sort"
)

// excluded lists bookkeeping properties that never produce audit entries.
var excluded = map[string]struct{}{
	"id":              {},
	"version":         {},
	"created":         {},
	"updated":         {},
	"createdByClient": {},
	"updatedByClient": {},
	"createdBy":       {},
	"updatedBy":       {},
	"processId":       {},
}

// IsExcluded reports whether a top level property is left out of diffs.
func IsExcluded(property string) bool {
	_, ok := excluded[property]
	return ok
}

// Diff returns the property changes between two snapshots of the same
// entity, sorted by property path. A nil snapshot stands for an entity that
// does not exist, so Diff(nil, s) lists every populated property of s.
// Nested maps are compared key by key; lists are compared as whole values.
func Diff(before, after Snapshot) []PropertyChange {
	var out []PropertyChange
	diffInto(&out, "", before, after)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Property < out[j].Property })
	return out
}

func diffInto(out *[]PropertyChange, prefix string, before, after map[string]any) {
	for _, k := range unionKeys(before, after) {
		if prefix == "" && IsExcluded(k) {
			continue
		}
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		l, r := before[k], after[k]
		lm, lIsMap := asMap(l)
		rm, rIsMap := asMap(r)
		if (lIsMap || l == nil) && (rIsMap || r == nil) && (lIsMap || rIsMap) {
			diffInto(out, path, lm, rm)
			continue
		}
		if isEmpty(l) && isEmpty(r) {
			continue
		}
		if reflect.DeepEqual(l, r) {
			continue
		}
		*out = append(*out, PropertyChange{Property: path, Left: l, Right: r})
	}
}

// Compare classifies every entity present in either set. Entities only in
// after are created, only in before are removed, and entities in both are
// updated when their diff is non-empty. The result is ordered by entity type
// and then id.
func Compare(before, after map[Key]Snapshot) []Change {
	keys := make([]Key, 0, len(before)+len(after))
	seen := make(map[Key]struct{}, len(before)+len(after))
	for k := range before {
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	for k := range after {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Type != keys[j].Type {
			return entityOrder[keys[i].Type] < entityOrder[keys[j].Type]
		}
		return keys[i].ID < keys[j].ID
	})

	var out []Change
	for _, k := range keys {
		b, inBefore := before[k]
		a, inAfter := after[k]
		var ct ChangeType
		switch {
		case !inBefore && inAfter:
			ct = ChangeCreated
		case inBefore && !inAfter:
			ct = ChangeRemoved
		default:
			ct = ChangeUpdated
		}
		props := Diff(b, a)
		if ct == ChangeUpdated && len(props) == 0 {
			continue
		}
		out = append(out, Change{
			EntityType: k.Type,
			EntityID:   k.ID,
			ChangeType: ct,
			Properties: props,
		})
	}
	return out
}

func unionKeys(a, b map[string]any) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Snapshot:
		return m, true
	default:
		return nil, false
	}
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	default:
		return false
	}
}
