package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlan = `
[[merge]]
name = "advanced-config"
target = "src/messages/{locale}.json"
key = "guidesAdvancedConfig"
payload = "payloads/advanced/{locale}.yaml"
locales = ["de", "ja", "pt-BR"]
fallback = "en"

[[patch]]
name = "api-reference-de"
target = "src/app/[locale]/api/page.tsx"
anchor = "  zh: {"
position = "before"
insert_file = "blocks/api-de.tsx"
`

func TestLoadPlan(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "plan.toml")
	require.NoError(t, os.WriteFile(p, []byte(samplePlan), 0644))

	plan, err := LoadPlan(p)
	require.NoError(t, err)
	assert.Equal(t, dir, plan.Dir)
	require.Len(t, plan.Merge, 1)
	require.Len(t, plan.Patch, 1)
	assert.Equal(t, []string{"de", "ja", "pt-BR"}, plan.Merge[0].Locales)
	assert.Equal(t, "before", plan.Patch[0].Position)
}

func TestLoadPlanRejectsUnknownKeys(t *testing.T) {
	p := filepath.Join(t.TempDir(), "plan.toml")
	require.NoError(t, os.WriteFile(p, []byte(samplePlan+"\n[[merge]]\nname = \"x\"\ntarget = \"a.json\"\npayload = \"b.json\"\nstrategey = \"deep\"\n"), 0644))

	_, err := LoadPlan(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strategey")
}

func TestValidate(t *testing.T) {
	ok := MergeJob{Name: "m", Target: "a.json", Payload: "p.json"}

	cases := map[string]Plan{
		"empty":          {},
		"no name":        {Merge: []MergeJob{{Target: "a.json", Payload: "p.json"}}},
		"dup name":       {Merge: []MergeJob{ok, ok}},
		"no payload":     {Merge: []MergeJob{{Name: "m", Target: "a.json"}}},
		"bad strategy":   {Merge: []MergeJob{{Name: "m", Target: "a.json", Payload: "p.json", Strategy: "union"}}},
		"bad locale":     {Merge: []MergeJob{{Name: "m", Target: "a.json", Payload: "p.json", Locales: []string{"../en"}}}},
		"static fallbck": {Merge: []MergeJob{{Name: "m", Target: "a.json", Payload: "p.json", Fallback: "en"}}},
		"no anchor":      {Patch: []PatchJob{{Name: "p", Target: "a.tsx", Insert: "x"}}},
		"two inserts":    {Patch: []PatchJob{{Name: "p", Target: "a.tsx", Anchor: "a", Insert: "x", InsertFile: "f"}}},
		"bad position":   {Patch: []PatchJob{{Name: "p", Target: "a.tsx", Anchor: "a", Insert: "x", Position: "inside"}}},
		"bad guard":      {Patch: []PatchJob{{Name: "p", Target: "a.tsx", Anchor: "a", Insert: "x", Guard: "nearby"}}},
	}
	for name, plan := range cases {
		plan := plan
		t.Run(name, func(t *testing.T) {
			require.Error(t, plan.Validate())
		})
	}

	require.NoError(t, (&Plan{Merge: []MergeJob{ok}}).Validate())
}

func TestValidateLocales(t *testing.T) {
	require.NoError(t, ValidateLocales("en", "zh", "pt-BR", "zh-Hant"))
	require.Error(t, ValidateLocales(""))
	require.Error(t, ValidateLocales("not a locale"))
}

func TestSchema(t *testing.T) {
	s := Schema()
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"insert_file"`)
	assert.Contains(t, string(b), `"fallback"`)
}
