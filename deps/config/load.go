package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/go-homedir"
	"github.com/samber/lo"
	"golang.org/x/xerrors"
)

const (
	FileName  = "localepatch.toml"
	EnvPrefix = "LOCALEPATCH"
)

// FromFile loads config from a specified file overriding defaults. If the file
// does not exist defaults are assumed.
func FromFile(path string, opts ...LoadCfgOpt) (*Config, error) {
	loadOpts, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	switch {
	case os.IsNotExist(err):
		if loadOpts.canFallbackOnDefault != nil {
			if err := loadOpts.canFallbackOnDefault(); err != nil {
				return nil, err
			}
		}
		return FromReader(strings.NewReader(""), DefaultConfig(), opts...)
	case err != nil:
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	return FromReader(file, DefaultConfig(), opts...)
}

// FromReader decodes TOML over def and then applies LOCALEPATCH_* environment
// overrides.
func FromReader(reader io.Reader, def *Config, opts ...LoadCfgOpt) (*Config, error) {
	loadOpts, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, xerrors.Errorf("reading config: %w", err)
	}

	cfg := def
	md, err := toml.Decode(buf.String(), cfg)
	if err != nil {
		return nil, xerrors.Errorf("decoding config: %w", err)
	}

	if und := md.Undecoded(); len(und) > 0 {
		var warningOut io.Writer = os.Stderr
		if loadOpts.warningWriter != nil {
			warningOut = loadOpts.warningWriter
		}
		keys := lo.Map(und, func(k toml.Key, _ int) string { return k.String() })
		sort.Strings(keys)
		_, _ = fmt.Fprintf(warningOut, "WARNING: unknown configuration options ignored: %s\n", strings.Join(keys, ", "))
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("processing env vars overrides: %s", err)
	}

	return cfg, nil
}

type cfgLoadOpts struct {
	canFallbackOnDefault func() error
	warningWriter        io.Writer
}

type LoadCfgOpt func(opts *cfgLoadOpts) error

func applyOpts(opts ...LoadCfgOpt) (cfgLoadOpts, error) {
	var loadOpts cfgLoadOpts
	var err error
	for _, opt := range opts {
		if err = opt(&loadOpts); err != nil {
			return loadOpts, fmt.Errorf("failed to apply load cfg option: %w", err)
		}
	}
	return loadOpts, nil
}

func SetCanFallbackOnDefault(f func() error) LoadCfgOpt {
	return func(opts *cfgLoadOpts) error {
		opts.canFallbackOnDefault = f
		return nil
	}
}

func SetWarningWriter(w io.Writer) LoadCfgOpt {
	return func(opts *cfgLoadOpts) error {
		opts.warningWriter = w
		return nil
	}
}

// Load reads <root>/.env (when present) into the environment, loads the config
// file and resolves its paths against root. An empty path means
// <root>/localepatch.toml.
func Load(root, path string, opts ...LoadCfgOpt) (*Config, error) {
	root, err := homedir.Expand(root)
	if err != nil {
		return nil, xerrors.Errorf("expanding root: %w", err)
	}

	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, xerrors.Errorf("loading .env: %w", err)
	}

	if path == "" {
		path = filepath.Join(root, FileName)
	}
	path, err = homedir.Expand(path)
	if err != nil {
		return nil, xerrors.Errorf("expanding config path: %w", err)
	}

	cfg, err := FromFile(path, opts...)
	if err != nil {
		return nil, xerrors.Errorf("loading config %s: %w", path, err)
	}
	if err := cfg.Resolve(root); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Resolve expands ~ and makes MessagesDir and StateDir absolute.
func (c *Config) Resolve(root string) error {
	for _, p := range []*string{&c.MessagesDir, &c.StateDir} {
		v, err := homedir.Expand(*p)
		if err != nil {
			return xerrors.Errorf("expanding %q: %w", *p, err)
		}
		if !filepath.IsAbs(v) {
			v = filepath.Join(root, v)
		}
		*p = v
	}
	return nil
}

func (c *Config) Validate() error {
	if !strings.Contains(c.MessagesPattern, "{locale}") {
		return xerrors.Errorf("MessagesPattern %q must contain {locale}", c.MessagesPattern)
	}
	if c.SourceLocale == "" {
		return xerrors.Errorf("SourceLocale is required")
	}
	if strings.Trim(c.Indent, " \t") != "" {
		return xerrors.Errorf("Indent may only contain spaces and tabs")
	}
	if c.Backup.Keep < 0 {
		return xerrors.Errorf("Backup.Keep must not be negative")
	}
	return nil
}

// Encode writes cfg as TOML with a short header, as used by `init`.
func Encode(cfg *Config) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteString("# localepatch configuration. Every option can be overridden with\n")
	buf.WriteString("# LOCALEPATCH_<OPTION> environment variables, e.g. LOCALEPATCH_SOURCE_LOCALE.\n\n")

	if err := toml.NewEncoder(buf).Encode(cfg); err != nil {
		return nil, xerrors.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}
