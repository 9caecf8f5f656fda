// Package models defines the domain types for jjzettel.
package models

import (
	"strings"
	"time"

	"github.com/DmarshalTU/jjzettel/internal/checksum"
)

// Note is the atomic unit of the knowledge base. One note maps to exactly one
// record in the versioned store. Notes are never physically deleted; Archived
// marks them as soft-deleted while existing links to them stay valid.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Links     []string  `json:"links"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// Archived is omitted when false so records written by older clients
	// round-trip unchanged; an absent field means not archived.
	Archived bool `json:"archived,omitempty"`
}

// New creates a note with a freshly derived id and both timestamps set to the
// same instant, so created_at == updated_at until the first mutation.
func New(title, content string) Note {
	now := time.Now().UTC()
	return Note{
		ID:        checksum.NoteID(title),
		Title:     title,
		Content:   content,
		Links:     []string{},
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasLink reports whether the note already links to id.
func (n Note) HasLink(id string) bool {
	for _, l := range n.Links {
		if l == id {
			return true
		}
	}
	return false
}

// HasTag reports whether the note carries tag. Tags are stored normalized,
// so this is an exact comparison.
func (n Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate drafts without touching
// the repository's in-memory index.
func (n Note) Clone() Note {
	c := n
	c.Links = append([]string(nil), n.Links...)
	c.Tags = append([]string(nil), n.Tags...)
	return c
}

// NormalizeTag lower-cases and trims a tag name. An empty result means the
// input was not a usable tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
