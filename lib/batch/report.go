package batch

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/localepatch/lib/verify"
)

type Kind string

const (
	KindMerge Kind = "merge"
	KindPatch Kind = "patch"
)

type Status string

const (
	StatusApplied   Status = "applied"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
	StatusPlanned   Status = "planned"
)

func (s Status) Marker() string {
	switch s {
	case StatusApplied:
		return "✅"
	case StatusSkipped:
		return "⚠️"
	case StatusFailed:
		return "❌"
	case StatusPlanned:
		return "📝"
	default:
		return "·"
	}
}

type Result struct {
	Job    string
	Kind   Kind
	Locale string
	Target string
	Status Status
	Err    error
	Note   string
	Bytes  int
	// Diff is set for planned operations in dry runs.
	Diff string
}

type Report struct {
	RunID   string
	DryRun  bool
	Started time.Time
	Took    time.Duration
	Results []Result

	Verify    *verify.Result
	VerifyErr error
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
}

func (r *Report) Count(s Status) int {
	return lo.CountBy(r.Results, func(res Result) bool { return res.Status == s })
}

// Changed reports whether any target file was written.
func (r *Report) Changed() bool {
	return r.Count(StatusApplied) > 0
}

func (r *Report) patchedSource() bool {
	return lo.ContainsBy(r.Results, func(res Result) bool {
		return res.Kind == KindPatch && res.Status == StatusApplied
	})
}

// Err aggregates failed operations and a failed verify command.
func (r *Report) Err() error {
	var merr *multierror.Error
	for _, res := range r.Results {
		if res.Status != StatusFailed {
			continue
		}
		name := res.Job
		if res.Locale != "" {
			name += "/" + res.Locale
		}
		merr = multierror.Append(merr, xerrors.Errorf("%s: %w", name, res.Err))
	}
	if r.VerifyErr != nil {
		merr = multierror.Append(merr, r.VerifyErr)
	}
	return merr.ErrorOrNil()
}

func (r *Report) Summary() string {
	parts := []string{}
	for _, s := range []Status{StatusApplied, StatusPlanned, StatusUnchanged, StatusSkipped, StatusFailed} {
		if n := r.Count(s); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, s))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "nothing to do")
	}
	return strings.Join(parts, ", ")
}

// Render prints the results table, any errors, dry-run diffs and the verify
// outcome.
func (r *Report) Render(w io.Writer) error {
	cell := lipgloss.NewStyle().Padding(0, 1)

	rows := lo.Map(r.Results, func(res Result, _ int) []string {
		detail := res.Note
		if res.Err != nil {
			detail = res.Err.Error()
		}
		size := ""
		if res.Bytes > 0 {
			size = humanize.Bytes(uint64(res.Bytes))
		}
		return []string{
			res.Status.Marker(),
			res.Job,
			lo.Ternary(res.Locale == "", "-", res.Locale),
			res.Target,
			string(res.Status),
			size,
			detail,
		}
	})

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style { return cell }).
		Headers("", "JOB", "LOCALE", "TARGET", "STATUS", "SIZE", "DETAIL").
		Rows(rows...)

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n")

	for _, res := range r.Results {
		if res.Diff == "" {
			continue
		}
		fmt.Fprintf(&b, "\n--- %s (%s) -before +after:\n%s", res.Target, res.Job, res.Diff)
	}

	if r.Verify != nil || r.VerifyErr != nil {
		if r.VerifyErr != nil {
			fmt.Fprintf(&b, "\n%s verify: %s\n", StatusFailed.Marker(), r.VerifyErr)
		} else {
			fmt.Fprintf(&b, "\n%s verify passed in %s\n", StatusApplied.Marker(), durafmt.Parse(r.Verify.Duration.Round(time.Millisecond)).LimitFirstN(2))
		}
		if r.Verify != nil && r.VerifyErr != nil && r.Verify.Output != "" {
			b.WriteString(r.Verify.Output)
			if !strings.HasSuffix(r.Verify.Output, "\n") {
				b.WriteString("\n")
			}
		}
	}

	mode := ""
	if r.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(&b, "\nrun %s%s: %s, started %s, took %s\n", r.RunID, mode, r.Summary(), humanize.Time(r.Started), durafmt.Parse(r.Took.Round(time.Millisecond)).LimitFirstN(2))

	_, err := io.WriteString(w, b.String())
	return err
}
