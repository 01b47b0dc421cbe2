package messages

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/iancoleman/orderedmap"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
)

var log = logging.Logger("messages")

const DefaultIndent = "  "

// LocalePlaceholder stands for a locale code in paths and patterns.
const LocalePlaceholder = "{locale}"

// ExpandLocale replaces every LocalePlaceholder in s with locale.
func ExpandLocale(s, locale string) string {
	return strings.ReplaceAll(s, LocalePlaceholder, locale)
}

var (
	ErrMissingFile = errors.New("dictionary file does not exist")
	ErrMalformed   = errors.New("malformed JSON")
	ErrNotObject   = errors.New("JSON value is not an object")
)

// Dictionary is one locale's message file as it was read from disk.
// Doc keeps the key order of the file so rewriting it only moves what was
// actually changed.
type Dictionary struct {
	Path string
	Doc  *orderedmap.OrderedMap

	raw             []byte
	trailingNewline bool
}

func Load(path string) (*Dictionary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerrors.Errorf("%s: %w", path, ErrMissingFile)
		}
		return nil, xerrors.Errorf("reading %s: %w", path, err)
	}

	doc, err := ParseObject(raw)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", path, err)
	}

	log.Debugw("loaded dictionary", "path", path, "keys", len(doc.Keys()))

	return &Dictionary{
		Path:            path,
		Doc:             doc,
		raw:             raw,
		trailingNewline: bytes.HasSuffix(raw, []byte("\n")),
	}, nil
}

// Raw returns the bytes the dictionary was loaded from.
func (d *Dictionary) Raw() []byte {
	return d.raw
}

// Bytes serializes the current document with the given indent, keeping the
// trailing newline convention of the original file.
func (d *Dictionary) Bytes(indent string) ([]byte, error) {
	return Encode(d.Doc, indent, d.trailingNewline)
}

// ParseObject decodes a JSON document whose top level must be an object.
func ParseObject(data []byte) (*orderedmap.OrderedMap, error) {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return nil, xerrors.Errorf("%s: %w", syntaxError(trimmed), ErrMalformed)
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}

	v, err := decode(trimmed)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", err, ErrMalformed)
	}
	doc, _ := AsObject(v)
	return doc, nil
}

// ParseValue decodes any JSON value, keeping key order in every object it
// contains (including objects nested in arrays).
func ParseValue(data []byte) (any, error) {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return nil, xerrors.Errorf("%s: %w", syntaxError(trimmed), ErrMalformed)
	}

	v, err := decode(trimmed)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", err, ErrMalformed)
	}
	return Normalize(v), nil
}

// decode reads one JSON value. Objects keep their key order and numbers stay
// json.Number, so untouched values are written back exactly as they were read.
func decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return decodeValue(dec)
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		// string, json.Number, bool or nil
		return tok, nil
	}

	switch delim {
	case '{':
		obj := NewObject()
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, xerrors.Errorf("object key %v is not a string", kt)
			}
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(key, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return *obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, xerrors.Errorf("unexpected %s", delim)
}

// NewObject returns an empty ordered object that encodes without HTML
// escaping, the way JSON.stringify writes message files.
func NewObject() *orderedmap.OrderedMap {
	o := orderedmap.New()
	o.SetEscapeHTML(false)
	return o
}

// Encode writes v as indented JSON. HTML characters are left as-is.
func Encode(v any, indent string, trailingNewline bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(Normalize(v)); err != nil {
		return nil, xerrors.Errorf("encoding JSON: %w", err)
	}

	out := buf.Bytes()
	if !trailingNewline {
		out = bytes.TrimSuffix(out, []byte("\n"))
	}
	return out, nil
}

func syntaxError(data []byte) string {
	var v any
	err := json.Unmarshal(data, &v)
	if err == nil {
		return "invalid JSON"
	}
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return se.Error() + " (offset " + strconv.FormatInt(se.Offset, 10) + ")"
	}
	return err.Error()
}
