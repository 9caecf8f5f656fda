// Package noterepo holds the in-memory note index reconciled from the
// versioned store. The index is a cache: the store is the source of truth,
// and any snapshot of it can be loaded into a fresh index.
package noterepo

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/DmarshalTU/jjzettel/internal/apperr"
	"github.com/DmarshalTU/jjzettel/internal/models"
	"github.com/DmarshalTU/jjzettel/internal/storage"
)

// Repository is a thread-safe in-memory index over the store's note records.
type Repository struct {
	mu    sync.RWMutex
	notes map[string]models.Note

	store  storage.Store
	logger *slog.Logger
}

// New creates an empty repository backed by store. Call Load to populate it.
func New(store storage.Store, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		notes:  make(map[string]models.Note),
		store:  store,
		logger: logger,
	}
}

// Load rebuilds the index from the store's current snapshot. Records that
// fail to deserialize or violate structural invariants are logged and
// skipped, never aborting the load. Loading replaces the previous index
// wholesale, so externally deleted records disappear.
func (r *Repository) Load() error {
	records, err := r.store.ReadAll()
	if err != nil {
		return fmt.Errorf("noterepo: load: %w", err)
	}

	notes := make(map[string]models.Note, len(records))
	for _, data := range records {
		var n models.Note
		if err := json.Unmarshal(data, &n); err != nil {
			r.logger.Warn("skipping malformed note record", "error", err)
			continue
		}
		if reason := validate(n); reason != "" {
			r.logger.Warn("skipping invalid note record", "id", n.ID, "reason", reason)
			continue
		}
		if _, dup := notes[n.ID]; dup {
			r.logger.Warn("skipping duplicate note id", "id", n.ID)
			continue
		}
		notes[n.ID] = n
	}

	r.mu.Lock()
	r.notes = notes
	r.mu.Unlock()
	return nil
}

// validate reports why a deserialized record is unusable, or "" if it is fine.
func validate(n models.Note) string {
	switch {
	case n.ID == "":
		return "empty id"
	case n.HasLink(n.ID):
		return "self link"
	case n.UpdatedAt.Before(n.CreatedAt):
		return "updated_at before created_at"
	}
	return ""
}

// Get returns a copy of the note with the given id.
func (r *Repository) Get(id string) (models.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notes[id]
	if !ok {
		return models.Note{}, fmt.Errorf("noterepo: get %q: %w", id, apperr.ErrNotFound)
	}
	return n.Clone(), nil
}

// Exists reports whether a note with the given id is in the index,
// archived or not.
func (r *Repository) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.notes[id]
	return ok
}

// ActiveNotes returns copies of all non-archived notes, most recently
// updated first. Ties break on id so the order is deterministic.
func (r *Repository) ActiveNotes() []models.Note {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Note, 0, len(r.notes))
	for _, n := range r.notes {
		if n.Archived {
			continue
		}
		out = append(out, n.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// AllNotes returns copies of every note in the index, archived included,
// in the same order as ActiveNotes.
func (r *Repository) AllNotes() []models.Note {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Note, 0, len(r.notes))
	for _, n := range r.notes {
		out = append(out, n.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of indexed notes, archived included.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.notes)
}

// Save persists the note and records one change with the given description.
// The index is updated only after both store operations succeed, so a
// failed persist leaves the in-memory state matching the store.
func (r *Repository) Save(n models.Note, description string) error {
	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return fmt.Errorf("noterepo: marshal %q: %w", n.ID, err)
	}
	if err := r.store.Write(n.ID, data); err != nil {
		return fmt.Errorf("noterepo: save %q: %w", n.ID, err)
	}
	if err := r.store.RecordChange(description); err != nil {
		return fmt.Errorf("noterepo: record change for %q: %w", n.ID, err)
	}

	r.mu.Lock()
	r.notes[n.ID] = n.Clone()
	r.mu.Unlock()
	return nil
}

// History returns the store's change log entries for the given note.
func (r *Repository) History(id string) ([]storage.Change, error) {
	if !r.Exists(id) {
		return nil, fmt.Errorf("noterepo: history %q: %w", id, apperr.ErrNotFound)
	}
	changes, err := r.store.History(id)
	if err != nil {
		return nil, fmt.Errorf("noterepo: history %q: %w", id, err)
	}
	return changes, nil
}

// Changes returns up to limit entries of the store's whole change log.
func (r *Repository) Changes(limit int) ([]storage.Change, error) {
	changes, err := r.store.Changes(limit)
	if err != nil {
		return nil, fmt.Errorf("noterepo: changes: %w", err)
	}
	return changes, nil
}
