package batch

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/localepatch/lib/merge"
	"github.com/filecoin-project/localepatch/lib/messages"
	"github.com/filecoin-project/localepatch/lib/splice"
)

// Plan lists the merge and patch jobs of one batch run.
type Plan struct {
	Merge []MergeJob `toml:"merge" json:"merge,omitempty" jsonschema:"description=Translation merges into JSON dictionaries"`
	Patch []PatchJob `toml:"patch" json:"patch,omitempty" jsonschema:"description=Anchor based insertions into source files"`

	// Dir resolves relative payload and insert_file paths.
	Dir string `toml:"-" json:"-"`
}

type MergeJob struct {
	Name     string   `toml:"name" json:"name" jsonschema:"required"`
	Target   string   `toml:"target" json:"target" jsonschema:"required,description=Dictionary path relative to the site root; may contain {locale}"`
	Key      string   `toml:"key" json:"key,omitempty" jsonschema:"description=Dotted target key; empty merges into the whole document"`
	Strategy string   `toml:"strategy" json:"strategy,omitempty" jsonschema:"enum=replace,enum=assign,enum=deep,default=replace"`
	Payload  string   `toml:"payload" json:"payload" jsonschema:"required,description=.json/.yaml payload path; may contain {locale}"`
	Locales  []string `toml:"locales" json:"locales,omitempty" jsonschema:"description=Locales to run for; defaults to the configured locales"`
	Fallback string   `toml:"fallback" json:"fallback,omitempty" jsonschema:"description=Locale whose payload is used when a locale has none"`
}

type PatchJob struct {
	Name       string   `toml:"name" json:"name" jsonschema:"required"`
	Target     string   `toml:"target" json:"target" jsonschema:"required"`
	Anchor     string   `toml:"anchor" json:"anchor" jsonschema:"required"`
	Insert     string   `toml:"insert" json:"insert,omitempty"`
	InsertFile string   `toml:"insert_file" json:"insert_file,omitempty"`
	Position   string   `toml:"position" json:"position,omitempty" jsonschema:"enum=after,enum=before,default=after"`
	Occurrence string   `toml:"occurrence" json:"occurrence,omitempty" jsonschema:"enum=unique,enum=first,enum=last,default=unique"`
	Guard      string   `toml:"guard" json:"guard,omitempty" jsonschema:"enum=adjacent,enum=anywhere,default=adjacent,description=Where an earlier copy of the block counts as already applied"`
	Locales    []string `toml:"locales" json:"locales,omitempty" jsonschema:"description=Expands {locale} in target, anchor and insert once per locale"`
}

// LoadPlan decodes a TOML plan file. Unknown keys are rejected so typos do
// not silently turn into no-ops.
func LoadPlan(path string) (*Plan, error) {
	var p Plan
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return nil, xerrors.Errorf("decoding plan %s: %w", path, err)
	}
	if und := md.Undecoded(); len(und) > 0 {
		keys := lo.Map(und, func(k toml.Key, _ int) string { return k.String() })
		sort.Strings(keys)
		return nil, xerrors.Errorf("plan %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	p.Dir = filepath.Dir(path)
	if err := p.Validate(); err != nil {
		return nil, xerrors.Errorf("plan %s: %w", path, err)
	}
	return &p, nil
}

func (p *Plan) Validate() error {
	if len(p.Merge) == 0 && len(p.Patch) == 0 {
		return xerrors.Errorf("plan has no jobs")
	}

	seen := map[string]struct{}{}
	checkName := func(kind, name string) error {
		if strings.TrimSpace(name) == "" {
			return xerrors.Errorf("%s job without a name", kind)
		}
		if strings.ContainsAny(name, "/ ") {
			return xerrors.Errorf("%s job %q: names may not contain spaces or slashes", kind, name)
		}
		if _, ok := seen[name]; ok {
			return xerrors.Errorf("duplicate job name %q", name)
		}
		seen[name] = struct{}{}
		return nil
	}

	for _, j := range p.Merge {
		if err := checkName("merge", j.Name); err != nil {
			return err
		}
		if j.Target == "" {
			return xerrors.Errorf("merge job %q: target is required", j.Name)
		}
		if j.Payload == "" {
			return xerrors.Errorf("merge job %q: payload is required", j.Name)
		}
		if _, err := merge.ParseStrategy(j.Strategy); err != nil {
			return xerrors.Errorf("merge job %q: %w", j.Name, err)
		}
		if err := ValidateLocales(j.Locales...); err != nil {
			return xerrors.Errorf("merge job %q: %w", j.Name, err)
		}
		if j.Fallback != "" {
			if err := ValidateLocales(j.Fallback); err != nil {
				return xerrors.Errorf("merge job %q fallback: %w", j.Name, err)
			}
			if !strings.Contains(j.Payload, messages.LocalePlaceholder) {
				return xerrors.Errorf("merge job %q: fallback needs a %s placeholder in payload", j.Name, messages.LocalePlaceholder)
			}
		}
	}

	for _, j := range p.Patch {
		if err := checkName("patch", j.Name); err != nil {
			return err
		}
		if j.Target == "" {
			return xerrors.Errorf("patch job %q: target is required", j.Name)
		}
		if j.Anchor == "" {
			return xerrors.Errorf("patch job %q: anchor is required", j.Name)
		}
		if (j.Insert == "") == (j.InsertFile == "") {
			return xerrors.Errorf("patch job %q: exactly one of insert or insert_file is required", j.Name)
		}
		if _, err := splice.ParsePosition(j.Position); err != nil {
			return xerrors.Errorf("patch job %q: %w", j.Name, err)
		}
		if _, err := splice.ParseOccurrence(j.Occurrence); err != nil {
			return xerrors.Errorf("patch job %q: %w", j.Name, err)
		}
		if _, err := splice.ParseGuard(j.Guard); err != nil {
			return xerrors.Errorf("patch job %q: %w", j.Name, err)
		}
		if err := ValidateLocales(j.Locales...); err != nil {
			return xerrors.Errorf("patch job %q: %w", j.Name, err)
		}
	}
	return nil
}

// ValidateLocales checks that every code is a well formed BCP 47 tag.
func ValidateLocales(codes ...string) error {
	for _, c := range codes {
		if c == "" {
			return xerrors.Errorf("empty locale code")
		}
		if strings.ContainsAny(c, `/\`) {
			return xerrors.Errorf("locale %q contains a path separator", c)
		}
		if _, err := language.Parse(c); err != nil {
			return xerrors.Errorf("locale %q: %w", c, err)
		}
	}
	return nil
}

// Schema describes plan files for editors.
func Schema() *jsonschema.Schema {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	s := r.Reflect(&Plan{})
	s.Title = "localepatch plan"
	return s
}
