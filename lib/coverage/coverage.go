package coverage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/iancoleman/orderedmap"
	logging "github.com/ipfs/go-log/v2"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/localepatch/lib/messages"
)

var log = logging.Logger("coverage")


// LocaleReport lists how one locale's dictionary differs from the source.
type LocaleReport struct {
	Locale  string
	File    string
	Keys    int
	Missing []string
	Empty   []string
	Extra   []string
	Err     error
}

func (l LocaleReport) OK() bool {
	return l.Err == nil && len(l.Missing) == 0 && len(l.Empty) == 0
}

type Report struct {
	Source     string
	SourceKeys int
	Locales    []LocaleReport
}

// Incomplete counts locales that miss keys, have empty values or failed to load.
func (r *Report) Incomplete() int {
	return lo.CountBy(r.Locales, func(l LocaleReport) bool { return !l.OK() })
}

// Compare reports leaves of src absent in dst, string leaves that are blank in
// dst while set in src, and leaves dst has but src does not.
func Compare(src, dst *orderedmap.OrderedMap) (missing, empty, extra []string) {
	srcLeaves := messages.Flatten(src)
	dstLeaves := messages.Flatten(dst)

	dstByPath := lo.SliceToMap(dstLeaves, func(l messages.Leaf) (string, any) { return l.Path, l.Value })

	missing, extra = lo.Difference(
		lo.Map(srcLeaves, func(l messages.Leaf, _ int) string { return l.Path }),
		lo.Map(dstLeaves, func(l messages.Leaf, _ int) string { return l.Path }),
	)

	for _, l := range srcLeaves {
		sv, isStr := l.Value.(string)
		if !isStr || strings.TrimSpace(sv) == "" {
			continue
		}
		dv, ok := dstByPath[l.Path]
		if !ok {
			continue
		}
		if ds, ok := dv.(string); ok && strings.TrimSpace(ds) == "" {
			empty = append(empty, l.Path)
		}
	}
	return missing, empty, extra
}

// LocaleFile resolves a locale's dictionary path from the messages pattern.
func LocaleFile(dir, pattern, locale string) string {
	return filepath.Join(dir, messages.ExpandLocale(pattern, locale))
}

// Discover lists locales that have a dictionary in dir matching pattern.
func Discover(dir, pattern string) ([]string, error) {
	prefix, suffix, ok := strings.Cut(pattern, messages.LocalePlaceholder)
	if !ok {
		return nil, xerrors.Errorf("messages pattern %q has no %s placeholder", pattern, messages.LocalePlaceholder)
	}
	if strings.Contains(prefix, string(filepath.Separator)) || strings.Contains(suffix, string(filepath.Separator)) {
		return nil, xerrors.Errorf("messages pattern %q must name files directly inside the messages dir", pattern)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, xerrors.Errorf("reading messages dir: %w", err)
	}

	var out []string
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		loc := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
		if loc == "" {
			continue
		}
		out = append(out, loc)
	}
	sort.Strings(out)
	return out, nil
}

// Check compares every locale against source. An empty locales list checks
// every dictionary found in dir.
func Check(dir, pattern, source string, locales []string) (*Report, error) {
	srcFile := LocaleFile(dir, pattern, source)
	src, err := messages.Load(srcFile)
	if err != nil {
		return nil, xerrors.Errorf("loading source locale %s: %w", source, err)
	}

	if len(locales) == 0 {
		locales, err = Discover(dir, pattern)
		if err != nil {
			return nil, err
		}
	}
	locales = lo.Uniq(lo.Without(locales, source))

	rep := &Report{
		Source:     source,
		SourceKeys: len(messages.Flatten(src.Doc)),
	}
	rep.Locales = make([]LocaleReport, len(locales))

	var eg errgroup.Group
	eg.SetLimit(8)
	for i, loc := range locales {
		eg.Go(func() error {
			lr := LocaleReport{Locale: loc, File: LocaleFile(dir, pattern, loc)}
			defer func() {
				rep.Locales[i] = lr
			}()

			d, err := messages.Load(lr.File)
			if err != nil {
				lr.Err = err
				log.Warnw("could not load locale dictionary", "locale", loc, "error", err)
				return nil
			}

			lr.Keys = len(messages.Flatten(d.Doc))
			lr.Missing, lr.Empty, lr.Extra = Compare(src.Doc, d.Doc)
			return nil
		})
	}
	// per-locale errors are kept on the report
	_ = eg.Wait()
	return rep, nil
}

// Render prints a per-locale summary table; with details the offending keys
// are listed below it.
func (r *Report) Render(w io.Writer, details bool) error {
	cell := lipgloss.NewStyle().Padding(0, 1)

	rows := lo.Map(r.Locales, func(l LocaleReport, _ int) []string {
		status := "ok"
		if l.Err != nil {
			status = "error"
		} else if !l.OK() {
			status = "incomplete"
		}
		return []string{
			l.Locale,
			fmt.Sprint(l.Keys),
			fmt.Sprint(len(l.Missing)),
			fmt.Sprint(len(l.Empty)),
			fmt.Sprint(len(l.Extra)),
			status,
		}
	})

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style { return cell }).
		Headers("LOCALE", "KEYS", "MISSING", "EMPTY", "EXTRA", "STATUS").
		Rows(rows...)

	if _, err := fmt.Fprintf(w, "source %s: %d keys\n%s\n", r.Source, r.SourceKeys, t.String()); err != nil {
		return err
	}
	if !details {
		return nil
	}

	for _, l := range r.Locales {
		if l.Err != nil {
			if _, err := fmt.Fprintf(w, "%s: %s\n", l.Locale, l.Err); err != nil {
				return err
			}
			continue
		}
		for _, k := range l.Missing {
			if _, err := fmt.Fprintf(w, "%s: missing %s\n", l.Locale, k); err != nil {
				return err
			}
		}
		for _, k := range l.Empty {
			if _, err := fmt.Fprintf(w, "%s: empty %s\n", l.Locale, k); err != nil {
				return err
			}
		}
		for _, k := range l.Extra {
			if _, err := fmt.Fprintf(w, "%s: extra %s\n", l.Locale, k); err != nil {
				return err
			}
		}
	}
	return nil
}
