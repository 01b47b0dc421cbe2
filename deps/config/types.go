package config

import (
	"time"

	"golang.org/x/xerrors"
)

// Config is read from localepatch.toml in the site root.
type Config struct {
	// Directory holding one JSON dictionary per locale, relative to the site root.
	MessagesDir string `split_words:"true"`
	// File name pattern inside MessagesDir; {locale} is replaced by the locale code.
	MessagesPattern string `split_words:"true"`
	// Locale every other dictionary is compared against by `check`.
	SourceLocale string `split_words:"true"`
	// Locales processed by jobs that use {locale} without their own list.
	Locales []string
	// JSON indentation used when writing dictionaries.
	Indent string
	// Ledger, lock and backups live here. Relative paths resolve against the site root.
	StateDir string `split_words:"true"`

	Backup BackupConfig
	Verify VerifyConfig
}

type BackupConfig struct {
	// Copy every target file before its first write in a run.
	Enable bool
	// Number of backup runs kept; 0 keeps all.
	Keep int
}

type VerifyConfig struct {
	// Shell command run in the site root after source files were patched,
	// e.g. "npx tsc --noEmit". Empty disables verification.
	Command string
	Timeout Duration
}

func DefaultConfig() *Config {
	return &Config{
		MessagesDir:     "src/messages",
		MessagesPattern: "{locale}.json",
		SourceLocale:    "en",
		Locales:         []string{},
		Indent:          "  ",
		StateDir:        ".localepatch",
		Backup: BackupConfig{
			Enable: true,
			Keep:   10,
		},
		Verify: VerifyConfig{
			Timeout: Duration(5 * time.Minute),
		},
	}
}

// Duration is a time.Duration that reads and writes as "5m0s" in TOML and
// environment variables.
type Duration time.Duration

func (dur *Duration) UnmarshalText(text []byte) error {
	d, err := time.ParseDuration(string(text))
	if err != nil {
		return xerrors.Errorf("parsing duration %q: %w", string(text), err)
	}
	*dur = Duration(d)
	return nil
}

func (dur Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(dur).String()), nil
}
