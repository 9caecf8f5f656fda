// Package noteservice implements the business operations over the note
// repository. Every mutating operation persists exactly one record and
// records exactly one change description, so the store's history reads as
// an audit log of logical operations.
package noteservice

import (
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/DmarshalTU/jjzettel/internal/apperr"
	"github.com/DmarshalTU/jjzettel/internal/models"
	"github.com/DmarshalTU/jjzettel/internal/noterepo"
	"github.com/DmarshalTU/jjzettel/internal/storage"
)

// Service exposes note operations to the controller.
type Service struct {
	repo   *noterepo.Repository
	logger *slog.Logger
}

// New creates a service over repo.
func New(repo *noterepo.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Create makes a new note and persists it with a "Note: {title}" change.
func (s *Service) Create(title, content string) (models.Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Note{}, fmt.Errorf("noteservice: create: %w", apperr.ErrEmptyTitle)
	}

	n := models.New(title, content)
	if err := s.repo.Save(n, "Note: "+title); err != nil {
		return models.Note{}, fmt.Errorf("noteservice: create %q: %w", title, err)
	}
	s.logger.Info("note created", "id", n.ID, "title", title)
	return n, nil
}

// Update replaces a note's title and content and bumps updated_at.
func (s *Service) Update(id, title, content string) (models.Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Note{}, fmt.Errorf("noteservice: update: %w", apperr.ErrEmptyTitle)
	}

	n, err := s.repo.Get(id)
	if err != nil {
		return models.Note{}, fmt.Errorf("noteservice: update: %w", err)
	}
	if n.Archived {
		return models.Note{}, fmt.Errorf("noteservice: update %q: %w", id, apperr.ErrArchived)
	}

	n.Title = title
	n.Content = content
	n.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(n, "Update: "+title); err != nil {
		return models.Note{}, fmt.Errorf("noteservice: update %q: %w", id, err)
	}
	s.logger.Info("note updated", "id", id, "title", title)
	return n, nil
}

// Archive soft-deletes a note. Archiving an already-archived note is a
// no-op and writes nothing.
func (s *Service) Archive(id string) error {
	n, err := s.repo.Get(id)
	if err != nil {
		return fmt.Errorf("noteservice: archive: %w", err)
	}
	if n.Archived {
		return nil
	}

	n.Archived = true
	n.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(n, "Delete note: "+id); err != nil {
		return fmt.Errorf("noteservice: archive %q: %w", id, err)
	}
	s.logger.Info("note archived", "id", id, "title", n.Title)
	return nil
}

// AddLink adds a directed link from one note to another. The target must
// exist but may be archived; links to archived notes stay valid.
func (s *Service) AddLink(from, to string) error {
	if from == to {
		return fmt.Errorf("noteservice: add link: %w", apperr.ErrSelfLink)
	}

	n, err := s.repo.Get(from)
	if err != nil {
		return fmt.Errorf("noteservice: add link: %w", err)
	}
	if !s.repo.Exists(to) {
		return fmt.Errorf("noteservice: add link target %q: %w", to, apperr.ErrNotFound)
	}
	if n.HasLink(to) {
		return fmt.Errorf("noteservice: add link: %w", apperr.ErrDuplicateLink)
	}

	n.Links = append(n.Links, to)
	n.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(n, "Update: "+n.Title); err != nil {
		return fmt.Errorf("noteservice: add link %q -> %q: %w", from, to, err)
	}
	s.logger.Info("link added", "from", from, "to", to)
	return nil
}

// RemoveLink removes a directed link. A link that is not present is an
// ErrNotFound, mirroring AddLink's duplicate check.
func (s *Service) RemoveLink(from, to string) error {
	n, err := s.repo.Get(from)
	if err != nil {
		return fmt.Errorf("noteservice: remove link: %w", err)
	}
	if !n.HasLink(to) {
		return fmt.Errorf("noteservice: remove link %q -> %q: %w", from, to, apperr.ErrNotFound)
	}

	links := make([]string, 0, len(n.Links)-1)
	for _, l := range n.Links {
		if l != to {
			links = append(links, l)
		}
	}
	n.Links = links
	n.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(n, "Update: "+n.Title); err != nil {
		return fmt.Errorf("noteservice: remove link %q -> %q: %w", from, to, err)
	}
	s.logger.Info("link removed", "from", from, "to", to)
	return nil
}

// AddTag attaches a normalized tag to a note. Adding a tag the note already
// carries is a no-op and writes nothing.
func (s *Service) AddTag(id, tag string) error {
	tag = models.NormalizeTag(tag)
	if tag == "" {
		return fmt.Errorf("noteservice: add tag: %w", apperr.ErrEmptyTag)
	}

	n, err := s.repo.Get(id)
	if err != nil {
		return fmt.Errorf("noteservice: add tag: %w", err)
	}
	if n.HasTag(tag) {
		return nil
	}

	n.Tags = append(n.Tags, tag)
	n.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(n, "Update: "+n.Title); err != nil {
		return fmt.Errorf("noteservice: add tag %q to %q: %w", tag, id, err)
	}
	s.logger.Info("tag added", "id", id, "tag", tag)
	return nil
}

// RemoveTag detaches a tag. An absent tag is a no-op, symmetric with AddTag.
func (s *Service) RemoveTag(id, tag string) error {
	tag = models.NormalizeTag(tag)
	if tag == "" {
		return fmt.Errorf("noteservice: remove tag: %w", apperr.ErrEmptyTag)
	}

	n, err := s.repo.Get(id)
	if err != nil {
		return fmt.Errorf("noteservice: remove tag: %w", err)
	}
	if !n.HasTag(tag) {
		return nil
	}

	tags := make([]string, 0, len(n.Tags)-1)
	for _, t := range n.Tags {
		if t != tag {
			tags = append(tags, t)
		}
	}
	n.Tags = tags
	n.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(n, "Update: "+n.Title); err != nil {
		return fmt.Errorf("noteservice: remove tag %q from %q: %w", tag, id, err)
	}
	s.logger.Info("tag removed", "id", id, "tag", tag)
	return nil
}

// Search returns a lazy sequence of active notes matching the query, in
// the repository's active order. An empty query yields every active note.
// A query starting with "#" matches notes carrying that tag; anything else
// is a case-insensitive substring match over title and content. The
// sequence snapshots the index when first iterated and can be ranged over
// more than once.
func (s *Service) Search(query string) iter.Seq[models.Note] {
	query = strings.TrimSpace(query)
	return func(yield func(models.Note) bool) {
		notes := s.repo.ActiveNotes()
		match := matcher(query)
		for _, n := range notes {
			if !match(n) {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

func matcher(query string) func(models.Note) bool {
	if query == "" {
		return func(models.Note) bool { return true }
	}
	if tag, ok := strings.CutPrefix(query, "#"); ok {
		tag = models.NormalizeTag(tag)
		if tag == "" {
			return func(models.Note) bool { return true }
		}
		return func(n models.Note) bool { return n.HasTag(tag) }
	}
	q := strings.ToLower(query)
	return func(n models.Note) bool {
		return strings.Contains(strings.ToLower(n.Title), q) ||
			strings.Contains(strings.ToLower(n.Content), q)
	}
}

// Backlinks returns the active notes that link to the given note, in the
// repository's active order. Archived sources are excluded; the target
// itself may be archived.
func (s *Service) Backlinks(id string) ([]models.Note, error) {
	if !s.repo.Exists(id) {
		return nil, fmt.Errorf("noteservice: backlinks %q: %w", id, apperr.ErrNotFound)
	}

	var out []models.Note
	for _, n := range s.repo.ActiveNotes() {
		if n.HasLink(id) {
			out = append(out, n)
		}
	}
	return out, nil
}

// Duplicate creates a copy of a note titled "Copy of {title}" with a fresh
// id and timestamps. Tags carry over; links do not.
func (s *Service) Duplicate(id string) (models.Note, error) {
	src, err := s.repo.Get(id)
	if err != nil {
		return models.Note{}, fmt.Errorf("noteservice: duplicate: %w", err)
	}

	copyTitle := "Copy of " + src.Title
	n := models.New(copyTitle, src.Content)
	n.Tags = append([]string(nil), src.Tags...)
	if err := s.repo.Save(n, "Duplicate: "+copyTitle); err != nil {
		return models.Note{}, fmt.Errorf("noteservice: duplicate %q: %w", id, err)
	}
	s.logger.Info("note duplicated", "source", id, "id", n.ID)
	return n, nil
}

// Stats summarizes the knowledge base.
type Stats struct {
	Notes      int
	Active     int
	Archived   int
	Links      int
	Tags       int
	UniqueTags int
}

// Statistics computes totals over the whole index, archived notes included.
func (s *Service) Statistics() Stats {
	var st Stats
	unique := make(map[string]struct{})
	for _, n := range s.repo.AllNotes() {
		st.Notes++
		if n.Archived {
			st.Archived++
		} else {
			st.Active++
		}
		st.Links += len(n.Links)
		st.Tags += len(n.Tags)
		for _, t := range n.Tags {
			unique[t] = struct{}{}
		}
	}
	st.UniqueTags = len(unique)
	return st
}

// ExportMarkdown renders a note as a standalone markdown document with a
// metadata header. Link targets are resolved to titles where they still
// exist; dangling ids are written as-is.
func (s *Service) ExportMarkdown(id string) (string, error) {
	n, err := s.repo.Get(id)
	if err != nil {
		return "", fmt.Errorf("noteservice: export: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", n.Title)
	fmt.Fprintf(&b, "- Created: %s\n", n.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Updated: %s\n", n.UpdatedAt.Format(time.RFC3339))
	if len(n.Tags) > 0 {
		fmt.Fprintf(&b, "- Tags: %s\n", strings.Join(n.Tags, ", "))
	}
	b.WriteString("\n")
	b.WriteString(n.Content)
	if !strings.HasSuffix(n.Content, "\n") {
		b.WriteString("\n")
	}

	if len(n.Links) > 0 {
		b.WriteString("\n## Links\n\n")
		for _, id := range n.Links {
			if target, err := s.repo.Get(id); err == nil {
				fmt.Fprintf(&b, "- %s\n", target.Title)
			} else {
				fmt.Fprintf(&b, "- %s\n", id)
			}
		}
	}
	return b.String(), nil
}

// History returns the store's change log entries for a note, newest first.
func (s *Service) History(id string) ([]storage.Change, error) {
	changes, err := s.repo.History(id)
	if err != nil {
		return nil, fmt.Errorf("noteservice: history: %w", err)
	}
	return changes, nil
}

// Changes returns the whole-store change log, newest first.
func (s *Service) Changes(limit int) ([]storage.Change, error) {
	changes, err := s.repo.Changes(limit)
	if err != nil {
		return nil, fmt.Errorf("noteservice: changes: %w", err)
	}
	return changes, nil
}

// Reload rebuilds the repository index from the store's current snapshot.
func (s *Service) Reload() error {
	if err := s.repo.Load(); err != nil {
		return fmt.Errorf("noteservice: reload: %w", err)
	}
	return nil
}

// Get returns a single note by id.
func (s *Service) Get(id string) (models.Note, error) {
	n, err := s.repo.Get(id)
	if err != nil {
		return models.Note{}, fmt.Errorf("noteservice: get: %w", err)
	}
	return n, nil
}

// ActiveNotes lists the non-archived notes, most recently updated first.
func (s *Service) ActiveNotes() []models.Note {
	return s.repo.ActiveNotes()
}
