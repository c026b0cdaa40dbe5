// Package journal keeps a per-project record of fix sessions: the bytes of
// every file before the session touched it, the edits that were committed and
// how the session ended. Records are msgpack files under <dir>/sessions.
package journal

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"typeguard/internal/driver"
	"typeguard/internal/fix"
)

// bump when Record changes shape
const schemaVersion uint16 = 1

var (
	ErrNoSession      = errors.New("no matching session")
	ErrAmbiguousID    = errors.New("session id prefix is ambiguous")
	ErrSchemaMismatch = errors.New("journal record has an unknown schema")
)

// Journal is safe for concurrent use.
type Journal struct {
	mu  sync.RWMutex
	dir string
}

// Backup is one file as it was before the session.
type Backup struct {
	Path    string
	Hash    [32]byte
	Mode    uint32
	Content []byte
}

// Edit is one committed proposal.
type Edit struct {
	Path        string
	Line        uint32
	Title       string
	Replacement string
	Class       string
	Code        string
	Confidence  float64
	Iteration   int
}

// Record describes one session.
type Record struct {
	Schema     uint16
	ID         string
	Started    time.Time
	Finished   time.Time
	Mode       string
	State      string
	Err        string
	Initial    int
	Final      int
	Iterations int
	Backups    []Backup
	Edits      []Edit
	Touched    []string
	Reverted   time.Time
}

// Open creates dir if needed.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Join(dir, "sessions"), 0o755); err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Journal{dir: dir}, nil
}

// Dir returns the journal directory.
func (j *Journal) Dir() string {
	return j.dir
}

func (j *Journal) pathFor(id string) string {
	return filepath.Join(j.dir, "sessions", id+".mp")
}

// Begin snapshots files and stores a new record before anything is modified.
func (j *Journal) Begin(mode string, files []string) (*Record, error) {
	rec := &Record{
		Schema:  schemaVersion,
		ID:      uuid.NewString(),
		Started: time.Now().UTC(),
		Mode:    mode,
		State:   "running",
	}
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("backup %s: %w", path, err)
		}
		// #nosec G304 -- paths come from target discovery
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("backup %s: %w", path, err)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		rec.Backups = append(rec.Backups, Backup{
			Path:    abs,
			Hash:    sha256.Sum256(data),
			Mode:    uint32(info.Mode().Perm()),
			Content: data,
		})
	}
	if err := j.put(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Finish stores how the session ended. Backups of files the session never
// touched are dropped.
func (j *Journal) Finish(rec *Record, res *driver.Result) error {
	rec.Finished = time.Now().UTC()
	rec.State = res.State.String()
	if res.Err != nil {
		rec.Err = res.Err.Error()
	}
	rec.Initial, rec.Final, rec.Iterations = res.InitialCount, res.FinalCount, res.Iterations

	touched := make(map[string]bool, len(res.FilesTouched))
	rec.Touched = rec.Touched[:0]
	for _, p := range res.FilesTouched {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		touched[abs] = true
		rec.Touched = append(rec.Touched, abs)
	}
	kept := rec.Backups[:0]
	for _, b := range rec.Backups {
		if touched[b.Path] {
			kept = append(kept, b)
		}
	}
	rec.Backups = kept
	rec.Edits = rec.Edits[:0]
	for _, e := range res.EditsApplied {
		rec.Edits = append(rec.Edits, Edit{
			Path:        e.Path,
			Line:        e.Line,
			Title:       e.Title,
			Replacement: e.Replacement,
			Class:       e.Class,
			Code:        e.Code,
			Confidence:  e.Confidence,
			Iteration:   e.Iteration,
		})
	}
	return j.put(rec)
}

// Get loads the record whose ID starts with prefix. An empty prefix or "last"
// selects the newest record that touched files and was not reverted.
func (j *Journal) Get(prefix string) (*Record, error) {
	recs, err := j.List()
	if err != nil {
		return nil, err
	}
	if prefix == "" || prefix == "last" {
		for _, r := range recs {
			if len(r.Touched) > 0 && r.Reverted.IsZero() {
				return r, nil
			}
		}
		return nil, ErrNoSession
	}
	var found *Record
	for _, r := range recs {
		if strings.HasPrefix(r.ID, prefix) {
			if found != nil {
				return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
			}
			found = r
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, prefix)
	}
	return found, nil
}

// List returns every record, newest first.
func (j *Journal) List() ([]*Record, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(j.dir, "sessions"))
	if err != nil {
		return nil, err
	}
	var out []*Record
	for _, ent := range entries {
		name := ent.Name()
		if ent.IsDir() || !strings.HasSuffix(name, ".mp") {
			continue
		}
		rec, err := j.read(filepath.Join(j.dir, "sessions", name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Started.After(out[b].Started) })
	return out, nil
}

// RevertResult reports what Revert did per file.
type RevertResult struct {
	Restored []string
	Skipped  map[string]string // path -> why it was left alone
}

// Revert restores the pre-session bytes of every file the session touched.
// Files that a later, unreverted session also touched are skipped unless force is set.
func (j *Journal) Revert(rec *Record, force bool) (*RevertResult, error) {
	res := &RevertResult{Skipped: make(map[string]string)}
	for _, b := range rec.Backups {
		// #nosec G304 -- path recorded by Begin
		current, err := os.ReadFile(b.Path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			if !force {
				res.Skipped[b.Path] = "file no longer exists"
				continue
			}
		case err != nil:
			return res, err
		case sha256.Sum256(current) == b.Hash:
			res.Skipped[b.Path] = "already at backup"
			continue
		case !force && j.laterSessionTouched(rec, b.Path):
			res.Skipped[b.Path] = "changed by a later session"
			continue
		}
		if err := restore(b); err != nil {
			return res, fmt.Errorf("restore %s: %w", b.Path, err)
		}
		res.Restored = append(res.Restored, b.Path)
	}
	sort.Strings(res.Restored)
	rec.Reverted = time.Now().UTC()
	return res, j.put(rec)
}

func (j *Journal) laterSessionTouched(rec *Record, path string) bool {
	recs, err := j.List()
	if err != nil {
		return false
	}
	for _, r := range recs {
		if r.ID == rec.ID || !r.Started.After(rec.Started) || !r.Reverted.IsZero() {
			continue
		}
		for _, p := range r.Touched {
			if p == path {
				return true
			}
		}
	}
	return false
}

func restore(b Backup) error {
	if _, err := os.Stat(b.Path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(b.Path), 0o755); err != nil {
			return err
		}
		return os.WriteFile(b.Path, b.Content, os.FileMode(b.Mode))
	}
	return fix.WriteAtomic(b.Path, b.Content)
}

func (j *Journal) put(rec *Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	p := j.pathFor(rec.ID)
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(f.Name()) //nolint:errcheck // gone after a successful rename
	}()

	if err := msgpack.NewEncoder(f).Encode(rec); err != nil {
		_ = f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

func (j *Journal) read(path string) (*Record, error) {
	// #nosec G304 -- journal-owned path
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rec Record
	if err := msgpack.NewDecoder(f).Decode(&rec); err != nil {
		return nil, err
	}
	if rec.Schema != schemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrSchemaMismatch, rec.Schema)
	}
	return &rec, nil
}
