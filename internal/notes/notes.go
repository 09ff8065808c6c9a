// Package notes persists curation notes that editors leave on catalog
// entities, e.g. "logo needs updating" or "confirm the partnership is still
// active". Notes are not part of the catalog YAML.
package notes

import (
	"time"
)

const (
	MaxAuthorLength = 100
	MaxTextLength   = 2000
)

// Note represents a single curation note left on an entity.
type Note struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Resolved  bool      `json:"resolved"`
}

// Store is the interface for persisting and retrieving notes.
type Store interface {
	// Notes returns all notes for the given entity reference.
	// entityRef is typically in the format kind:namespace/name.
	Notes(entityRef string) ([]Note, error)
	// OpenNotes returns only unresolved notes for the given entity reference.
	OpenNotes(entityRef string) ([]Note, error)
	// AddNote adds a new note for the given entity reference.
	AddNote(entityRef string, note Note) error
	// ResolveNote marks a specific note as resolved.
	ResolveNote(entityRef string, noteID string) error
}

// EmptyStore is a Store that does nothing and returns no notes.
type EmptyStore struct{}

func (s EmptyStore) Notes(entityRef string) ([]Note, error) {
	return []Note{}, nil
}

func (s EmptyStore) OpenNotes(entityRef string) ([]Note, error) {
	return []Note{}, nil
}

func (s EmptyStore) AddNote(entityRef string, note Note) error {
	return nil
}

func (s EmptyStore) ResolveNote(entityRef string, noteID string) error {
	return nil
}
