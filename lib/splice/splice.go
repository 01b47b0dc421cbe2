package splice

import (
	"errors"
	"os"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/localepatch/lib/atomicfile"
)

var log = logging.Logger("splice")

var (
	ErrAnchorNotFound  = errors.New("anchor not found")
	ErrAnchorAmbiguous = errors.New("anchor occurs more than once")
	ErrAlreadyApplied  = errors.New("block already present")
	ErrMissingFile     = errors.New("patch target does not exist")
)

type Position string

const (
	After  Position = "after"
	Before Position = "before"
)

type Occurrence string

const (
	// Unique refuses to patch when the anchor is not exactly one match.
	Unique Occurrence = "unique"
	First  Occurrence = "first"
	Last   Occurrence = "last"
)

// Guard decides where an earlier insertion of the block is looked for.
type Guard string

const (
	// Adjacent only counts the block as present when it sits right at the
	// located insertion point.
	Adjacent Guard = "adjacent"
	// Anywhere counts the block as present when it occurs anywhere in the
	// text. Use it for blocks that are unique to the file.
	Anywhere Guard = "anywhere"
)

// Patch describes one anchor-based insertion.
type Patch struct {
	Anchor     string
	Insert     string
	Position   Position
	Occurrence Occurrence
	Guard      Guard

	// Siblings are blocks that may have been stacked at the same anchor by
	// related patches (other locales of one job). The adjacent guard looks
	// past them.
	Siblings []string
}

func ParsePosition(s string) (Position, error) {
	switch Position(strings.ToLower(strings.TrimSpace(s))) {
	case "", After:
		return After, nil
	case Before:
		return Before, nil
	}
	return "", xerrors.Errorf("unknown position %q (want after or before)", s)
}

func ParseOccurrence(s string) (Occurrence, error) {
	switch Occurrence(strings.ToLower(strings.TrimSpace(s))) {
	case "", Unique:
		return Unique, nil
	case First:
		return First, nil
	case Last:
		return Last, nil
	}
	return "", xerrors.Errorf("unknown occurrence %q (want unique, first or last)", s)
}

func ParseGuard(s string) (Guard, error) {
	switch Guard(strings.ToLower(strings.TrimSpace(s))) {
	case "", Adjacent:
		return Adjacent, nil
	case Anywhere:
		return Anywhere, nil
	}
	return "", xerrors.Errorf("unknown guard %q (want adjacent or anywhere)", s)
}

func (p Patch) Validate() error {
	if p.Anchor == "" {
		return xerrors.Errorf("patch anchor is empty")
	}
	if p.Insert == "" {
		return xerrors.Errorf("patch insert block is empty")
	}
	if _, err := ParsePosition(string(p.Position)); err != nil {
		return err
	}
	if _, err := ParseOccurrence(string(p.Occurrence)); err != nil {
		return err
	}
	if _, err := ParseGuard(string(p.Guard)); err != nil {
		return err
	}
	return nil
}

// Locate returns the byte offset at which Insert would be spliced into text.
func (p Patch) Locate(text string) (int, error) {
	if err := p.Validate(); err != nil {
		return -1, err
	}
	occ, _ := ParseOccurrence(string(p.Occurrence))
	pos, _ := ParsePosition(string(p.Position))

	var at int
	switch occ {
	case First:
		at = strings.Index(text, p.Anchor)
	case Last:
		at = strings.LastIndex(text, p.Anchor)
	default:
		at = strings.Index(text, p.Anchor)
		if at >= 0 && strings.Count(text, p.Anchor) > 1 {
			return -1, xerrors.Errorf("%q found %d times: %w", p.Anchor, strings.Count(text, p.Anchor), ErrAnchorAmbiguous)
		}
	}
	if at < 0 {
		return -1, xerrors.Errorf("%q: %w", p.Anchor, ErrAnchorNotFound)
	}

	if pos == After {
		at += len(p.Anchor)
	}
	return at, nil
}

// Apply splices Insert into text. Everything outside the insertion point is
// preserved byte for byte. When the block is already in place (see Guard)
// ErrAlreadyApplied is returned together with the unchanged text, so reruns
// never duplicate it.
func (p Patch) Apply(text string) (string, int, error) {
	if err := p.Validate(); err != nil {
		return text, -1, err
	}
	if guard, _ := ParseGuard(string(p.Guard)); guard == Anywhere {
		if i := strings.Index(text, p.Insert); i >= 0 {
			return text, i, ErrAlreadyApplied
		}
	}

	at, err := p.Locate(text)
	if err != nil {
		return text, -1, err
	}
	if i := p.adjacent(text, at); i >= 0 {
		return text, i, ErrAlreadyApplied
	}

	var sb strings.Builder
	sb.Grow(len(text) + len(p.Insert))
	sb.WriteString(text[:at])
	sb.WriteString(p.Insert)
	sb.WriteString(text[at:])
	return sb.String(), at, nil
}

// adjacent returns the offset of a copy of Insert at the insertion point at,
// possibly behind a run of sibling blocks, or -1.
func (p Patch) adjacent(text string, at int) int {
	pos, _ := ParsePosition(string(p.Position))
	before := pos == Before

	for i := at; ; {
		if before && strings.HasSuffix(text[:i], p.Insert) {
			return i - len(p.Insert)
		}
		if !before && strings.HasPrefix(text[i:], p.Insert) {
			return i
		}

		next := -1
		for _, sib := range p.Siblings {
			if sib == "" || sib == p.Insert {
				continue
			}
			if before && strings.HasSuffix(text[:i], sib) {
				next = i - len(sib)
				break
			}
			if !before && strings.HasPrefix(text[i:], sib) {
				next = i + len(sib)
				break
			}
		}
		if next < 0 {
			return -1
		}
		i = next
	}
}

type Result struct {
	Path    string
	Offset  int
	Changed bool
	Before  []byte
	After   []byte
}

// File applies p to the file at path and writes it back atomically. Nothing
// is written when the anchor cannot be placed or the block is already there.
func File(path string, p Patch, dryRun bool) (*Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerrors.Errorf("%s: %w", path, ErrMissingFile)
		}
		return nil, xerrors.Errorf("reading %s: %w", path, err)
	}

	out, at, err := p.Apply(string(raw))
	if err != nil {
		if errors.Is(err, ErrAlreadyApplied) {
			log.Debugw("block already present", "path", path, "offset", at)
			return &Result{Path: path, Offset: at, Before: raw, After: raw}, err
		}
		return nil, xerrors.Errorf("%s: %w", path, err)
	}

	res := &Result{
		Path:    path,
		Offset:  at,
		Changed: true,
		Before:  raw,
		After:   []byte(out),
	}
	if dryRun {
		return res, nil
	}

	if err := atomicfile.WriteFile(path, res.After); err != nil {
		return nil, err
	}
	log.Infow("spliced block", "path", path, "offset", at, "inserted", len(p.Insert))
	return res, nil
}
