package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/snadrus/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	root string
	out  bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{root: t.TempDir()}
	f.write(t, "src/messages/en.json", "{\n  \"nav\": {\n    \"home\": \"Home\"\n  }\n}\n")
	f.write(t, "src/messages/de.json", "{\n  \"nav\": {\n    \"home\": \"Startseite\"\n  }\n}\n")
	f.write(t, "src/app/api/page.tsx", "const content = {\n  en: {\n    title: 'API',\n  },\n};\n")
	f.write(t, "payloads/en.json", `{"title": "Advanced configuration"}`)
	return f
}

func (f *fixture) path(rel string) string {
	return filepath.Join(f.root, rel)
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(f.path(rel)), 0755))
	require.NoError(t, os.WriteFile(f.path(rel), []byte(content), 0644))
}

func (f *fixture) read(t *testing.T, rel string) string {
	return string(must.One(os.ReadFile(f.path(rel))))
}

func (f *fixture) run(args ...string) error {
	f.out.Reset()
	app := newApp()
	app.Writer = &f.out
	app.ErrWriter = &f.out
	return app.Run(append([]string{"localepatch", "--root", f.root}, args...))
}

func TestMergeCommand(t *testing.T) {
	f := newFixture(t)

	err := f.run("merge",
		"--target", f.path("src/messages/{locale}.json"),
		"--key", "guidesAdvancedConfig",
		"--payload", f.path("payloads/{locale}.json"),
		"--locales", "en,de",
		"--fallback", "en",
	)
	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "2 applied")

	assert.Equal(t, "{\n  \"nav\": {\n    \"home\": \"Startseite\"\n  },\n  \"guidesAdvancedConfig\": {\n    \"title\": \"Advanced configuration\"\n  }\n}\n", f.read(t, "src/messages/de.json"))

	// backups of the pre-run content
	matches, err := filepath.Glob(f.path(".localepatch/backups/*/src/messages/de.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, string(must.One(os.ReadFile(matches[0]))), "Startseite")

	require.NoError(t, f.run("ledger", "list"))
	assert.Contains(t, f.out.String(), "merge-guidesAdvancedConfig/de")

	require.NoError(t, f.run("ledger", "forget", "merge-guidesAdvancedConfig/de"))
	require.Error(t, f.run("ledger", "forget", "merge-guidesAdvancedConfig/de"))
}

func TestMergeCommandFailureExitsNonZero(t *testing.T) {
	f := newFixture(t)

	err := f.run("merge",
		"--target", f.path("src/messages/fr.json"),
		"--key", "k",
		"--payload", f.path("payloads/en.json"),
		"--no-backup",
	)
	require.Error(t, err)
	assert.Contains(t, f.out.String(), "failed")
}

func TestPatchCommand(t *testing.T) {
	f := newFixture(t)

	args := []string{"patch",
		"--target", f.path("src/app/api/page.tsx"),
		"--anchor", `};\n`,
		"--before",
		"--insert", `  de: {\n    title: 'API-Referenz',\n  },\n`,
	}
	require.NoError(t, f.run(args...))
	assert.Equal(t, "const content = {\n  en: {\n    title: 'API',\n  },\n  de: {\n    title: 'API-Referenz',\n  },\n};\n", f.read(t, "src/app/api/page.tsx"))

	require.NoError(t, f.run(args...))
	assert.Contains(t, f.out.String(), "1 unchanged")
}

func TestPatchCommandAnchorMissing(t *testing.T) {
	f := newFixture(t)
	before := f.read(t, "src/app/api/page.tsx")

	err := f.run("patch", "--target", f.path("src/app/api/page.tsx"), "--anchor", "  ko: {", "--insert", "x")
	require.Error(t, err)
	assert.Equal(t, before, f.read(t, "src/app/api/page.tsx"))
}

func TestApplyDryRun(t *testing.T) {
	f := newFixture(t)
	f.write(t, "plan.toml", `
[[merge]]
name = "advanced"
target = "src/messages/de.json"
key = "guidesAdvancedConfig"
payload = "payloads/en.json"
`)
	before := f.read(t, "src/messages/de.json")

	require.NoError(t, f.run("apply", "--dry-run", f.path("plan.toml")))
	assert.Contains(t, f.out.String(), "(dry run)")
	assert.Contains(t, f.out.String(), "Advanced configuration")
	assert.Equal(t, before, f.read(t, "src/messages/de.json"))
}

func TestApplyNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	f.write(t, "plan.toml", "[[merge]]\nname = \"a\"\ntarget = \"src/messages/de.json\"\nkey = \"k\"\npayload = \"payloads/en.json\"\n")

	stdinIsTerminal = func() bool { return false }
	require.Error(t, f.run("apply", f.path("plan.toml")))

	require.NoError(t, f.run("apply", "--yes", f.path("plan.toml")))
	assert.Contains(t, f.read(t, "src/messages/de.json"), `"k": {`)
}

func TestCheckCommand(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run("check"))

	f.write(t, "src/messages/ja.json", `{"nav": {}}`)
	err := f.run("check", "--details")
	require.Error(t, err)
	assert.Contains(t, f.out.String(), "ja: missing nav.home")
}

func TestSchemaCommand(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run("schema"))
	assert.Contains(t, f.out.String(), `"insert_file"`)
}

func TestInitCommand(t *testing.T) {
	f := newFixture(t)
	f.write(t, ".gitignore", "node_modules")

	require.NoError(t, f.run("init", "--yes"))
	cfg := f.read(t, "localepatch.toml")
	assert.Contains(t, cfg, `Locales = ["de", "en"]`)
	assert.Equal(t, "node_modules\n/.localepatch/\n", f.read(t, ".gitignore"))

	require.Error(t, f.run("init", "--yes"))
	require.NoError(t, f.run("init", "--yes", "--force"))
	assert.Equal(t, "node_modules\n/.localepatch/\n", f.read(t, ".gitignore"))
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(wd))
	})
}

func TestTargetsResolveAgainstRoot(t *testing.T) {
	f := newFixture(t)
	elsewhere := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(elsewhere, "de.json"), []byte(`{"title": "Erweitert"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(elsewhere, "block.tsx"), []byte("  de: {\n    title: 'API-Referenz',\n  },\n"), 0644))
	chdir(t, elsewhere)

	require.NoError(t, f.run("merge",
		"--target", "src/messages/de.json",
		"--key", "guidesAdvancedConfig",
		"--payload", "de.json",
		"--no-backup",
	))
	assert.Contains(t, f.read(t, "src/messages/de.json"), `"title": "Erweitert"`)

	require.NoError(t, f.run("patch",
		"--target", "src/app/api/page.tsx",
		"--anchor", `};\n`,
		"--before",
		"--insert-file", "block.tsx",
		"--no-backup",
	))
	assert.Contains(t, f.read(t, "src/app/api/page.tsx"), "API-Referenz")

	_, err := os.Stat(filepath.Join(elsewhere, "src"))
	assert.True(t, os.IsNotExist(err))
}
