package notes

import (
	"sync"
)

// CachingStore is a write-through cache that wraps another Store.
type CachingStore struct {
	underlying Store
	mu         sync.RWMutex
	cache      map[string][]Note
}

// NewCachingStore creates a new CachingStore wrapping the given Store.
func NewCachingStore(underlying Store) *CachingStore {
	return &CachingStore{
		underlying: underlying,
		cache:      make(map[string][]Note),
	}
}

func (s *CachingStore) Notes(entityRef string) ([]Note, error) {
	s.mu.RLock()
	notes, ok := s.cache[entityRef]
	s.mu.RUnlock()
	if ok {
		return notes, nil
	}

	// Cache miss
	notes, err := s.underlying.Notes(entityRef)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[entityRef] = notes
	s.mu.Unlock()

	return notes, nil
}

func (s *CachingStore) OpenNotes(entityRef string) ([]Note, error) {
	allNotes, err := s.Notes(entityRef)
	if err != nil {
		return nil, err
	}
	var openNotes []Note
	for _, n := range allNotes {
		if !n.Resolved {
			openNotes = append(openNotes, n)
		}
	}
	return openNotes, nil
}

func (s *CachingStore) AddNote(entityRef string, note Note) error {
	// Write-through to underlying store first
	if err := s.underlying.AddNote(entityRef, note); err != nil {
		return err
	}

	// Update cache
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, ok := s.cache[entityRef]
	if !ok {
		// Not cached yet: seeding the cache with only the new note would hide
		// notes already persisted in the underlying store. Load them first.
		existing, err := s.underlying.Notes(entityRef)
		if err != nil {
			return err
		}
		// The underlying store has already appended the new note.
		s.cache[entityRef] = existing
		return nil
	}
	s.cache[entityRef] = append(notes, note)

	return nil
}

func (s *CachingStore) ResolveNote(entityRef string, noteID string) error {
	if err := s.underlying.ResolveNote(entityRef, noteID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	notes, ok := s.cache[entityRef]
	if ok {
		for i := range notes {
			if notes[i].ID == noteID {
				notes[i].Resolved = true
				break
			}
		}
	}

	return nil
}
