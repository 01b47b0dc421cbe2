package merge

import (
	"bytes"
	"strings"

	"github.com/iancoleman/orderedmap"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/localepatch/lib/atomicfile"
	"github.com/filecoin-project/localepatch/lib/messages"
)

var log = logging.Logger("merge")

var (
	ErrMissingFile = messages.ErrMissingFile
	ErrMalformed   = messages.ErrMalformed
	ErrNotObject   = messages.ErrNotObject
)

type Strategy string

const (
	// Replace installs the payload as the exact value of the target key.
	// Whatever was under the key before is dropped.
	Replace Strategy = "replace"
	// Assign copies the payload's top-level keys onto the object at the
	// target key, leaving its other keys alone.
	Assign Strategy = "assign"
	// Deep merges objects recursively; non-object values are replaced.
	Deep Strategy = "deep"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Replace:
		return Replace, nil
	case Assign:
		return Assign, nil
	case Deep:
		return Deep, nil
	}
	return "", xerrors.Errorf("unknown merge strategy %q (want replace, assign or deep)", s)
}

type Options struct {
	// Key is the dotted target key. Empty targets the whole document, in
	// which case Replace behaves like Assign.
	Key      string
	Strategy Strategy
	Indent   string
	DryRun   bool
}

type Result struct {
	Path    string
	Changed bool
	Before  []byte
	After   []byte
}

// Apply merges payload into doc in memory.
func Apply(doc *orderedmap.OrderedMap, payload any, key string, strategy Strategy) error {
	path := messages.SplitKey(key)
	payload = messages.Normalize(payload)

	if len(path) == 0 {
		obj, ok := messages.AsObject(payload)
		if !ok {
			return xerrors.Errorf("whole-document merge needs an object payload: %w", ErrNotObject)
		}
		if strategy == Deep {
			deepMerge(doc, obj)
		} else {
			assign(doc, obj)
		}
		return nil
	}

	switch strategy {
	case Replace, "":
		return messages.SetPath(doc, path, payload)
	case Assign, Deep:
		obj, ok := messages.AsObject(payload)
		if !ok {
			return xerrors.Errorf("%s merge needs an object payload: %w", strategy, ErrNotObject)
		}

		target := messages.NewObject()
		if cur, found := messages.Lookup(doc, path); found && cur != nil {
			existing, isObj := messages.AsObject(messages.Normalize(cur))
			if !isObj {
				return xerrors.Errorf("key %q holds a non-object value: %w", key, ErrNotObject)
			}
			target = existing
		}

		if strategy == Deep {
			deepMerge(target, obj)
		} else {
			assign(target, obj)
		}
		return messages.SetPath(doc, path, *target)
	default:
		return xerrors.Errorf("unknown merge strategy %q", strategy)
	}
}

func assign(dst, src *orderedmap.OrderedMap) {
	for _, k := range src.Keys() {
		v, _ := src.Get(k)
		dst.Set(k, v)
	}
}

func deepMerge(dst, src *orderedmap.OrderedMap) {
	for _, k := range src.Keys() {
		sv, _ := src.Get(k)
		dv, exists := dst.Get(k)

		sObj, sIsObj := messages.AsObject(sv)
		dObj, dIsObj := messages.AsObject(dv)
		if exists && sIsObj && dIsObj {
			deepMerge(dObj, sObj)
			dst.Set(k, *dObj)
			continue
		}
		dst.Set(k, sv)
	}
}

// File loads the dictionary at path, merges payload into it and writes it
// back atomically. The file is left untouched when the merge does not change
// its bytes, so repeated runs are no-ops.
func File(path string, payload any, opts Options) (*Result, error) {
	if opts.Indent == "" {
		opts.Indent = messages.DefaultIndent
	}

	d, err := messages.Load(path)
	if err != nil {
		return nil, err
	}

	if err := Apply(d.Doc, payload, opts.Key, opts.Strategy); err != nil {
		return nil, xerrors.Errorf("merging into %s: %w", path, err)
	}

	out, err := d.Bytes(opts.Indent)
	if err != nil {
		return nil, xerrors.Errorf("encoding %s: %w", path, err)
	}

	res := &Result{
		Path:    path,
		Changed: !bytes.Equal(d.Raw(), out),
		Before:  d.Raw(),
		After:   out,
	}

	if !res.Changed {
		log.Debugw("dictionary already up to date", "path", path, "key", opts.Key)
		return res, nil
	}
	if opts.DryRun {
		return res, nil
	}

	if err := atomicfile.WriteFile(path, out); err != nil {
		return nil, err
	}
	log.Infow("merged translations", "path", path, "key", opts.Key, "strategy", opts.Strategy, "bytes", len(out))
	return res, nil
}
