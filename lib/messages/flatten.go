package messages

import (
	"strconv"

	"github.com/iancoleman/orderedmap"
)

// Leaf is one scalar value of a dictionary addressed by its dotted path.
// Array elements are addressed as "faq.items[2].question".
type Leaf struct {
	Path  string
	Value any
}

// Flatten walks doc depth-first in key order and returns its leaves.
// Empty objects and arrays are reported as leaves so they count as present.
func Flatten(doc *orderedmap.OrderedMap) []Leaf {
	var out []Leaf
	flattenInto(&out, "", doc)
	return out
}

func flattenInto(out *[]Leaf, prefix string, v any) {
	if obj, ok := AsObject(v); ok {
		keys := obj.Keys()
		if len(keys) == 0 && prefix != "" {
			*out = append(*out, Leaf{Path: prefix, Value: v})
			return
		}
		for _, k := range keys {
			child, _ := obj.Get(k)
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			flattenInto(out, p, child)
		}
		return
	}

	if arr, ok := v.([]any); ok {
		if len(arr) == 0 {
			*out = append(*out, Leaf{Path: prefix, Value: v})
			return
		}
		for i, e := range arr {
			flattenInto(out, prefix+"["+strconv.Itoa(i)+"]", e)
		}
		return
	}

	*out = append(*out, Leaf{Path: prefix, Value: v})
}
