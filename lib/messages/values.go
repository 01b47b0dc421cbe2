package messages

import (
	"sort"
	"strings"

	"github.com/iancoleman/orderedmap"
	"golang.org/x/xerrors"
)

// SplitKey turns a dotted target key ("guides.advancedConfig") into its
// path components. An empty key addresses the whole document.
func SplitKey(key string) []string {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	return strings.Split(key, ".")
}

// AsObject reports whether v is a JSON object and returns it as a pointer
// that can be mutated and stored back.
func AsObject(v any) (*orderedmap.OrderedMap, bool) {
	switch o := v.(type) {
	case *orderedmap.OrderedMap:
		return o, o != nil
	case orderedmap.OrderedMap:
		return &o, true
	case map[string]any:
		return fromMap(o), true
	default:
		return nil, false
	}
}

// Lookup returns the value at path. An empty path returns the document.
func Lookup(doc *orderedmap.OrderedMap, path []string) (any, bool) {
	var cur any = doc
	for _, k := range path {
		obj, ok := AsObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj.Get(k)
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// SetPath stores v at path, creating intermediate objects as needed. It
// fails with ErrNotObject when an intermediate value exists but is not an
// object; nothing is modified in that case.
func SetPath(doc *orderedmap.OrderedMap, path []string, v any) error {
	if len(path) == 0 {
		return xerrors.Errorf("empty key path")
	}
	if len(path) == 1 {
		doc.Set(path[0], v)
		return nil
	}

	var child *orderedmap.OrderedMap
	existing, ok := doc.Get(path[0])
	switch {
	case !ok || existing == nil:
		child = NewObject()
	default:
		obj, isObj := AsObject(existing)
		if !isObj {
			return xerrors.Errorf("key %q: %w", path[0], ErrNotObject)
		}
		child = obj
	}

	if err := SetPath(child, path[1:], v); err != nil {
		return xerrors.Errorf("under %q: %w", path[0], err)
	}
	doc.Set(path[0], *child)
	return nil
}

// Normalize rewrites v so every object it contains is an ordered object
// with HTML escaping disabled. Plain maps get their keys sorted.
func Normalize(v any) any {
	switch t := v.(type) {
	case *orderedmap.OrderedMap:
		if t == nil {
			return nil
		}
		return normalizeObject(*t)
	case orderedmap.OrderedMap:
		return normalizeObject(t)
	case map[string]any:
		return normalizeObject(*fromMap(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	default:
		return v
	}
}

func normalizeObject(o orderedmap.OrderedMap) orderedmap.OrderedMap {
	out := NewObject()
	for _, k := range o.Keys() {
		v, _ := o.Get(k)
		out.Set(k, Normalize(v))
	}
	return *out
}

func fromMap(m map[string]any) *orderedmap.OrderedMap {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	o := NewObject()
	for _, k := range keys {
		o.Set(k, m[k])
	}
	return o
}
