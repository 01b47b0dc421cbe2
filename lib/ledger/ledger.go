package ledger

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"sort"
	"time"

	"github.com/cockroachdb/pebble"
	logging "github.com/ipfs/go-log/v2"
	"github.com/minio/sha256-simd"
	"golang.org/x/xerrors"
)

var log = logging.Logger("ledger")

const keyPrefix = "applied/"

var ErrNotFound = errors.New("ledger entry not found")

// Entry records one operation that changed a target file.
type Entry struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Kind        string    `json:"kind"`
	Target      string    `json:"target"`
	Locale      string    `json:"locale,omitempty"`
	RunID       string    `json:"run"`
	AppliedAt   time.Time `json:"applied_at"`
}

// Ledger is a small pebble store remembering which operations were applied
// to the site tree and with which content.
type Ledger struct {
	db *pebble.DB
}

func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, xerrors.Errorf("creating ledger dir %s: %w", dir, err)
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, xerrors.Errorf("opening ledger %s: %w", dir, err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

// Fingerprint hashes the parts that identify an operation's content.
// Parts are length-prefixed so ("ab","c") and ("a","bc") differ.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	var lb [8]byte
	for _, p := range parts {
		n := uint64(len(p))
		for i := 0; i < 8; i++ {
			lb[i] = byte(n >> (8 * i))
		}
		_, _ = h.Write(lb[:])
		_, _ = h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (l *Ledger) Record(e Entry) error {
	if e.ID == "" {
		return xerrors.Errorf("ledger entry without id")
	}
	if e.AppliedAt.IsZero() {
		e.AppliedAt = time.Now()
	}
	val, err := json.Marshal(e)
	if err != nil {
		return xerrors.Errorf("marshaling ledger entry: %w", err)
	}
	if err := l.db.Set([]byte(keyPrefix+e.ID), val, pebble.Sync); err != nil {
		return xerrors.Errorf("writing ledger entry %s: %w", e.ID, err)
	}
	log.Debugw("recorded operation", "id", e.ID, "fingerprint", e.Fingerprint)
	return nil
}

func (l *Ledger) Get(id string) (*Entry, error) {
	val, closer, err := l.db.Get([]byte(keyPrefix + id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, xerrors.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil, xerrors.Errorf("reading ledger entry %s: %w", id, err)
	}
	defer func() {
		_ = closer.Close()
	}()

	var e Entry
	if err := json.Unmarshal(val, &e); err != nil {
		return nil, xerrors.Errorf("decoding ledger entry %s: %w", id, err)
	}
	return &e, nil
}

// Applied reports whether id was recorded with exactly this fingerprint.
func (l *Ledger) Applied(id, fingerprint string) (bool, error) {
	e, err := l.Get(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return e.Fingerprint == fingerprint, nil
}

// List returns all entries, newest first.
func (l *Ledger) List() ([]Entry, error) {
	iter, err := l.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: prefixEnd([]byte(keyPrefix)),
	})
	if err != nil {
		return nil, xerrors.Errorf("iterating ledger: %w", err)
	}
	defer func() {
		_ = iter.Close()
	}()

	var out []Entry
	for iter.First(); iter.Valid(); iter.Next() {
		var e Entry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			log.Warnw("skipping undecodable ledger entry", "key", string(iter.Key()), "error", err)
			continue
		}
		out = append(out, e)
	}
	if err := iter.Error(); err != nil {
		return nil, xerrors.Errorf("iterating ledger: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AppliedAt.After(out[j].AppliedAt)
	})
	return out, nil
}

func (l *Ledger) Forget(id string) error {
	if _, err := l.Get(id); err != nil {
		return err
	}
	if err := l.db.Delete([]byte(keyPrefix+id), pebble.Sync); err != nil {
		return xerrors.Errorf("deleting ledger entry %s: %w", id, err)
	}
	return nil
}

func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
