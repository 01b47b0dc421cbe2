package messages

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const enJSON = `{
  "nav": {
    "home": "Home",
    "docs": "Docs"
  },
  "guidesAdvancedConfig": {
    "title": "Advanced <config>",
    "steps": [
      {
        "name": "one",
        "done": false
      },
      "plain"
    ]
  },
  "count": 3,
  "empty": {}
}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoadRoundTripKeepsBytes(t *testing.T) {
	p := writeFile(t, "en.json", enJSON)

	d, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"nav", "guidesAdvancedConfig", "count", "empty"}, d.Doc.Keys())

	out, err := d.Bytes(DefaultIndent)
	require.NoError(t, err)
	assert.Equal(t, enJSON, string(out))
}

func TestLoadWithoutTrailingNewline(t *testing.T) {
	p := writeFile(t, "de.json", `{"b":"&","a":1}`)

	d, err := Load(p)
	require.NoError(t, err)

	out, err := d.Bytes(DefaultIndent)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"b\": \"&\",\n  \"a\": 1\n}", string(out))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingFile))

	_, err = Load(writeFile(t, "bad.json", `{"a": `))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))

	_, err = Load(writeFile(t, "arr.json", `["a"]`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotObject))

	_, err = Load(writeFile(t, "empty.json", ``))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestSetPathCreatesIntermediates(t *testing.T) {
	doc, err := ParseObject([]byte(`{"x":1}`))
	require.NoError(t, err)

	require.NoError(t, SetPath(doc, SplitKey("guides.advanced.title"), "Hi"))

	v, ok := Lookup(doc, []string{"guides", "advanced", "title"})
	require.True(t, ok)
	assert.Equal(t, "Hi", v)

	out, err := Encode(doc, "", false)
	require.NoError(t, err)
	assert.Equal(t, `{"x":1,"guides":{"advanced":{"title":"Hi"}}}`, string(out))
}

func TestSetPathRefusesScalarParent(t *testing.T) {
	doc, err := ParseObject([]byte(`{"x":1}`))
	require.NoError(t, err)

	err = SetPath(doc, SplitKey("x.y"), "v")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotObject))

	out, err := Encode(doc, "", false)
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(out))
}

func TestParsePayloadYAMLKeepsOrder(t *testing.T) {
	v, err := ParsePayload(".yaml", []byte(`
title: Erweiterte Konfiguration
intro: "Mit <b>Vorsicht</b> ändern"
faq:
  - q: Warum?
    a: Darum.
  - q: Wie?
    a: So.
enabled: true
retries: 3
`))
	require.NoError(t, err)

	out, err := Encode(v, "", false)
	require.NoError(t, err)
	assert.Equal(t,
		`{"title":"Erweiterte Konfiguration","intro":"Mit <b>Vorsicht</b> ändern","faq":[{"q":"Warum?","a":"Darum."},{"q":"Wie?","a":"So."}],"enabled":true,"retries":3}`,
		string(out))
}

func TestParsePayloadJSONArray(t *testing.T) {
	v, err := ParsePayload(".json", []byte(`[{"z":1,"a":2}]`))
	require.NoError(t, err)

	out, err := Encode(v, "", false)
	require.NoError(t, err)
	assert.Equal(t, `[{"z":1,"a":2}]`, string(out))
}

func TestParsePayloadUnknownExt(t *testing.T) {
	_, err := ParsePayload(".toml", []byte(`a = 1`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownPayloadFormat))
}

func TestLoadPayloadMissing(t *testing.T) {
	_, err := LoadPayload(filepath.Join(t.TempDir(), "ja.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingFile))
}

func TestFlatten(t *testing.T) {
	doc, err := ParseObject([]byte(enJSON))
	require.NoError(t, err)

	var paths []string
	for _, l := range Flatten(doc) {
		paths = append(paths, l.Path)
	}
	assert.Equal(t, []string{
		"nav.home",
		"nav.docs",
		"guidesAdvancedConfig.title",
		"guidesAdvancedConfig.steps[0].name",
		"guidesAdvancedConfig.steps[0].done",
		"guidesAdvancedConfig.steps[1]",
		"count",
		"empty",
	}, paths)
}

func TestParseValueKeepsNumbers(t *testing.T) {
	v, err := ParseValue([]byte(`{"a": [1.0, 9007199254740993], "b": {"c": 1e-7}}`))
	require.NoError(t, err)

	obj, ok := AsObject(v)
	require.True(t, ok)
	a, _ := obj.Get("a")
	assert.Equal(t, []any{json.Number("1.0"), json.Number("9007199254740993")}, a)
	c, ok := Lookup(obj, []string{"b", "c"})
	require.True(t, ok)
	assert.Equal(t, json.Number("1e-7"), c)

	out, err := Encode(v, "", false)
	require.NoError(t, err)
	assert.Equal(t, `{"a":[1.0,9007199254740993],"b":{"c":1e-7}}`, string(out))
}

func TestExpandLocale(t *testing.T) {
	assert.Equal(t, "src/messages/de.json", ExpandLocale("src/messages/"+LocalePlaceholder+".json", "de"))
	assert.Equal(t, "de/de.yaml", ExpandLocale("{locale}/{locale}.yaml", "de"))
	assert.Equal(t, "plain.json", ExpandLocale("plain.json", "de"))
}
