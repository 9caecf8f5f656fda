package storage

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const notesDir = "notes"

// runner executes the jj binary with the given working directory and
// arguments and returns its stdout. Injectable so tests never need jj.
type runner func(dir string, args ...string) ([]byte, error)

func execJJ(dir string, args ...string) ([]byte, error) {
	cmd := exec.Command("jj", args...)
	cmd.Dir = dir
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("jj %s: %w (%s)", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// Jujutsu implements Store on top of a jj repository. Each note is one JSON
// file under notes/; history entries are jj commits whose descriptions are
// supplied by the service layer.
type Jujutsu struct {
	root string
	run  runner
}

// NewJujutsu creates a store rooted at the given directory. The directory
// does not have to exist yet; Init creates it.
func NewJujutsu(root string) (*Jujutsu, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	return &Jujutsu{root: abs, run: execJJ}, nil
}

// Root returns the absolute repository path.
func (j *Jujutsu) Root() string { return j.root }

// NotesDir returns the absolute path of the directory holding note records.
// The repository watcher observes this directory for external mutation.
func (j *Jujutsu) NotesDir() string { return filepath.Join(j.root, notesDir) }

// Init creates the repository and notes directory, running jj init when the
// directory is not a jj workspace yet.
func (j *Jujutsu) Init() error {
	if err := os.MkdirAll(j.NotesDir(), 0o755); err != nil {
		return fmt.Errorf("storage: create notes dir: %w", err)
	}
	if _, err := os.Stat(filepath.Join(j.root, ".jj")); err == nil {
		return nil
	}
	if _, err := j.run(j.root, "init", "."); err != nil {
		return fmt.Errorf("storage: init repo: %w", err)
	}
	return nil
}

// ReadAll returns the raw bytes of every note record in the snapshot.
// Records that cannot be read are skipped; structural validation of the
// contents is the repository's job, not the store's.
func (j *Jujutsu) ReadAll() ([][]byte, error) {
	entries, err := os.ReadDir(j.NotesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: read notes dir: %w", err)
	}
	var out [][]byte
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(j.NotesDir(), e.Name()))
		if err != nil {
			continue
		}
		out = append(out, data)
	}
	return out, nil
}

// Write atomically writes a record: tmp file → fsync → rename. A reader that
// races the write sees either the old record or the new one, never a torn one.
func (j *Jujutsu) Write(id string, data []byte) error {
	if err := os.MkdirAll(j.NotesDir(), 0o755); err != nil {
		return fmt.Errorf("storage: create notes dir: %w", err)
	}
	dest := j.recordPath(id)

	tmp, err := os.CreateTemp(j.NotesDir(), ".jjzettel-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// RecordChange snapshots the working copy into a new change carrying the
// given description.
func (j *Jujutsu) RecordChange(description string) error {
	if _, err := j.run(j.root, "new", "-m", description); err != nil {
		return fmt.Errorf("storage: record change: %w", err)
	}
	return nil
}

// History returns the change log entries that touched the given note's record
// file, newest first.
func (j *Jujutsu) History(id string) ([]Change, error) {
	rel := filepath.Join(notesDir, id+".json")
	out, err := j.run(j.root, "log", "--no-graph", "--template", "{commit_id} {description}\n", rel)
	if err != nil {
		return nil, fmt.Errorf("storage: note history: %w", err)
	}
	return parseLog(out), nil
}

// Changes returns up to limit entries of the whole-store change log,
// newest first.
func (j *Jujutsu) Changes(limit int) ([]Change, error) {
	out, err := j.run(j.root, "log", "--no-graph", "--template", "{commit_id} {description}\n")
	if err != nil {
		return nil, fmt.Errorf("storage: change log: %w", err)
	}
	changes := parseLog(out)
	if limit > 0 && len(changes) > limit {
		changes = changes[:limit]
	}
	return changes, nil
}

func (j *Jujutsu) recordPath(id string) string {
	return filepath.Join(j.NotesDir(), id+".json")
}

// parseLog splits "commit_id description" lines into Change entries.
func parseLog(out []byte) []Change {
	var changes []Change
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		id, desc, _ := strings.Cut(line, " ")
		changes = append(changes, Change{ID: id, Description: desc})
	}
	return changes
}
