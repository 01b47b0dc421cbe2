package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/localepatch/lib/atomicfile"
	"github.com/filecoin-project/localepatch/lib/backup"
	"github.com/filecoin-project/localepatch/lib/ledger"
	"github.com/filecoin-project/localepatch/lib/merge"
	"github.com/filecoin-project/localepatch/lib/messages"
	"github.com/filecoin-project/localepatch/lib/splice"
	"github.com/filecoin-project/localepatch/lib/verify"
)

var log = logging.Logger("batch")

// ErrNoPayload marks a locale that has no translation payload and no usable
// fallback. Such operations are skipped, not failed.
var ErrNoPayload = errors.New("no payload for locale")

// Runner executes plans against a site tree. Operations run one at a time in
// plan order; a failing operation does not stop the ones after it.
type Runner struct {
	Root    string
	Locales []string
	Indent  string

	DryRun      bool
	SkipApplied bool

	// Optional.
	Ledger  *ledger.Ledger
	Backups *backup.Set
	Verify  verify.Command

	RunID string
}

type op struct {
	job    string
	kind   Kind
	locale string
	target string

	fingerprint func() (string, error)
	compute     func() (before, after []byte, err error)
}

func (o *op) id() string {
	if o.locale == "" {
		return o.job
	}
	return o.job + "/" + o.locale
}

// Run executes every job of plan. The returned error is only set when the run
// could not proceed (invalid plan, cancellation); per-operation failures are
// in the report.
func (r *Runner) Run(ctx context.Context, plan *Plan) (*Report, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if r.RunID == "" {
		r.RunID = uuid.New().String()
	}
	if r.Indent == "" {
		r.Indent = messages.DefaultIndent
	}

	rep := &Report{
		RunID:   r.RunID,
		DryRun:  r.DryRun,
		Started: time.Now(),
	}
	defer func() {
		rep.Took = time.Since(rep.Started)
	}()

	ops, err := r.expand(plan)
	if err != nil {
		return nil, err
	}
	log.Infow("starting run", "run", r.RunID, "operations", len(ops), "dry-run", r.DryRun)

	for i := range ops {
		if err := ctx.Err(); err != nil {
			for _, rest := range ops[i:] {
				rep.add(Result{Job: rest.job, Kind: rest.kind, Locale: rest.locale, Target: rest.target, Status: StatusSkipped, Err: err})
			}
			return rep, xerrors.Errorf("run interrupted: %w", err)
		}
		rep.add(r.execute(&ops[i]))
	}

	if r.Verify.Enabled() && !r.DryRun && rep.patchedSource() {
		if r.Root != "" && r.Verify.Dir == "" {
			r.Verify.Dir = r.Root
		}
		rep.Verify, rep.VerifyErr = r.Verify.Exec(ctx)
		if rep.VerifyErr != nil {
			log.Errorw("verify command failed", "error", rep.VerifyErr)
		}
	}

	return rep, nil
}

func (r *Runner) execute(o *op) Result {
	res := Result{Job: o.job, Kind: o.kind, Locale: o.locale, Target: o.target}
	path := r.abs(o.target)

	fp, err := o.fingerprint()
	if err != nil {
		if errors.Is(err, ErrNoPayload) {
			log.Warnw("no translation payload, skipping", "job", o.job, "locale", o.locale)
			res.Status, res.Err = StatusSkipped, err
			return res
		}
		res.Status, res.Err = StatusFailed, err
		return res
	}

	if r.SkipApplied && r.Ledger != nil {
		done, err := r.Ledger.Applied(o.id(), fp)
		if err != nil {
			res.Status, res.Err = StatusFailed, err
			return res
		}
		if done {
			res.Status, res.Note = StatusSkipped, "already applied"
			return res
		}
	}

	before, after, err := o.compute()
	switch {
	case errors.Is(err, splice.ErrAlreadyApplied):
		res.Status = StatusUnchanged
		r.record(o, fp)
		return res
	case err != nil:
		log.Errorw("operation failed", "job", o.job, "locale", o.locale, "target", o.target, "error", err)
		res.Status, res.Err = StatusFailed, err
		return res
	}

	res.Bytes = len(after)
	if string(before) == string(after) {
		res.Status = StatusUnchanged
		r.record(o, fp)
		return res
	}

	if r.DryRun {
		res.Status = StatusPlanned
		res.Diff = cmp.Diff(string(before), string(after))
		return res
	}

	if r.Backups != nil {
		if _, err := r.Backups.Save(path); err != nil {
			res.Status, res.Err = StatusFailed, err
			return res
		}
	}
	if err := atomicfile.WriteFile(path, after); err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}

	res.Status = StatusApplied
	r.record(o, fp)
	log.Infow("applied", "job", o.job, "locale", o.locale, "target", o.target, "bytes", len(after))
	return res
}

func (r *Runner) record(o *op, fp string) {
	if r.Ledger == nil || r.DryRun {
		return
	}
	err := r.Ledger.Record(ledger.Entry{
		ID:          o.id(),
		Fingerprint: fp,
		Kind:        string(o.kind),
		Target:      o.target,
		Locale:      o.locale,
		RunID:       r.RunID,
	})
	if err != nil {
		log.Errorw("failed to record operation", "id", o.id(), "error", err)
	}
}

func (r *Runner) abs(p string) string {
	if filepath.IsAbs(p) || r.Root == "" {
		return p
	}
	return filepath.Join(r.Root, p)
}

func planPath(dir, p string) string {
	if filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}

func (r *Runner) jobLocales(kind, name string, locales []string, templated bool) ([]string, error) {
	if len(locales) > 0 {
		return locales, nil
	}
	if !templated {
		return []string{""}, nil
	}
	if len(r.Locales) == 0 {
		return nil, xerrors.Errorf("%s job %q uses %s but no locales are configured", kind, name, messages.LocalePlaceholder)
	}
	return r.Locales, nil
}

func (r *Runner) expand(plan *Plan) ([]op, error) {
	var ops []op

	for _, j := range plan.Merge {
		j := j
		templated := strings.Contains(j.Target, messages.LocalePlaceholder) || strings.Contains(j.Payload, messages.LocalePlaceholder)
		locales, err := r.jobLocales("merge", j.Name, j.Locales, templated)
		if err != nil {
			return nil, err
		}
		strategy, _ := merge.ParseStrategy(j.Strategy)

		for _, loc := range locales {
			loc := loc
			target := messages.ExpandLocale(j.Target, loc)

			var payload any
			load := func() (any, error) {
				if payload != nil {
					return payload, nil
				}
				v, err := r.loadPayload(plan.Dir, j, loc)
				if err != nil {
					return nil, err
				}
				payload = v
				return v, nil
			}

			ops = append(ops, op{
				job:    j.Name,
				kind:   KindMerge,
				locale: loc,
				target: target,
				fingerprint: func() (string, error) {
					v, err := load()
					if err != nil {
						return "", err
					}
					enc, err := messages.Encode(v, "", false)
					if err != nil {
						return "", err
					}
					return ledger.Fingerprint(string(KindMerge), target, j.Key, string(strategy), string(enc)), nil
				},
				compute: func() ([]byte, []byte, error) {
					v, err := load()
					if err != nil {
						return nil, nil, err
					}
					res, err := merge.File(r.abs(target), v, merge.Options{
						Key:      j.Key,
						Strategy: strategy,
						Indent:   r.Indent,
						DryRun:   true,
					})
					if err != nil {
						return nil, nil, err
					}
					return res.Before, res.After, nil
				},
			})
		}
	}

	for _, j := range plan.Patch {
		j := j
		templated := strings.Contains(j.Target, messages.LocalePlaceholder) ||
			strings.Contains(j.Anchor, messages.LocalePlaceholder) ||
			strings.Contains(j.Insert, messages.LocalePlaceholder) ||
			strings.Contains(j.InsertFile, messages.LocalePlaceholder)
		locales, err := r.jobLocales("patch", j.Name, j.Locales, templated)
		if err != nil {
			return nil, err
		}
		pos, _ := splice.ParsePosition(j.Position)
		occ, _ := splice.ParseOccurrence(j.Occurrence)
		guard, _ := splice.ParseGuard(j.Guard)

		patchFor := func(loc string) (splice.Patch, error) {
			insert := messages.ExpandLocale(j.Insert, loc)
			if j.InsertFile != "" {
				b, err := os.ReadFile(planPath(plan.Dir, messages.ExpandLocale(j.InsertFile, loc)))
				if err != nil {
					if os.IsNotExist(err) {
						return splice.Patch{}, xerrors.Errorf("insert file for %s: %w", loc, ErrNoPayload)
					}
					return splice.Patch{}, xerrors.Errorf("reading insert file: %w", err)
				}
				insert = string(b)
			}
			return splice.Patch{
				Anchor:     messages.ExpandLocale(j.Anchor, loc),
				Insert:     insert,
				Position:   pos,
				Occurrence: occ,
				Guard:      guard,
			}, nil
		}

		for _, loc := range locales {
			loc := loc
			target := messages.ExpandLocale(j.Target, loc)

			// blocks of the job's other locales that land on the same anchor
			siblings := func(p splice.Patch) []string {
				var out []string
				for _, other := range locales {
					if other == loc || messages.ExpandLocale(j.Target, other) != target {
						continue
					}
					sp, err := patchFor(other)
					if err != nil || sp.Anchor != p.Anchor {
						continue
					}
					out = append(out, sp.Insert)
				}
				return out
			}

			ops = append(ops, op{
				job:    j.Name,
				kind:   KindPatch,
				locale: loc,
				target: target,
				fingerprint: func() (string, error) {
					p, err := patchFor(loc)
					if err != nil {
						return "", err
					}
					return ledger.Fingerprint(string(KindPatch), target, p.Anchor, p.Insert, string(p.Position), string(p.Occurrence)), nil
				},
				compute: func() ([]byte, []byte, error) {
					p, err := patchFor(loc)
					if err != nil {
						return nil, nil, err
					}
					p.Siblings = siblings(p)
					res, err := splice.File(r.abs(target), p, true)
					if err != nil {
						return nil, nil, err
					}
					return res.Before, res.After, nil
				},
			})
		}
	}

	return ops, nil
}

// loadPayload reads the locale's payload, falling back to the job's fallback
// locale when the locale has none.
func (r *Runner) loadPayload(dir string, j MergeJob, locale string) (any, error) {
	v, err := messages.LoadPayload(planPath(dir, messages.ExpandLocale(j.Payload, locale)))
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, messages.ErrMissingFile) {
		return nil, err
	}

	if j.Fallback == "" || j.Fallback == locale {
		return nil, xerrors.Errorf("%s: %w", locale, ErrNoPayload)
	}

	log.Warnw("no payload for locale, using fallback", "job", j.Name, "locale", locale, "fallback", j.Fallback)
	v, err = messages.LoadPayload(planPath(dir, messages.ExpandLocale(j.Payload, j.Fallback)))
	if err != nil {
		if errors.Is(err, messages.ErrMissingFile) {
			return nil, xerrors.Errorf("%s (fallback %s): %w", locale, j.Fallback, ErrNoPayload)
		}
		return nil, err
	}
	return v, nil
}
