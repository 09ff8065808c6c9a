package notes

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore implements the Store interface using local JSON files.
type FileStore struct {
	rootDir string
	mu      sync.RWMutex
}

// NewFileStore creates a new FileStore that stores notes in rootDir.
func NewFileStore(rootDir string) (*FileStore, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create notes directory: %v", err)
	}
	return &FileStore{rootDir: rootDir}, nil
}

func (s *FileStore) entityPath(entityRef string) string {
	// Escape entityRef to be a safe filename.
	// entityRef is kind:namespace/name
	safeRef := strings.ReplaceAll(entityRef, ":", "_")
	safeRef = strings.ReplaceAll(safeRef, "/", "_")
	return filepath.Join(s.rootDir, safeRef+".json")
}

func (s *FileStore) Notes(entityRef string) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.entityPath(entityRef)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []Note{}, nil
	}
	if err != nil {
		return nil, err
	}

	var notes []Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, err
	}

	return notes, nil
}

func (s *FileStore) OpenNotes(entityRef string) ([]Note, error) {
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

func (s *FileStore) AddNote(entityRef string, note Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.entityPath(entityRef)
	var notes []Note
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &notes); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	notes = append(notes, note)

	newData, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, newData, 0644)
}

func (s *FileStore) ResolveNote(entityRef string, noteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.entityPath(entityRef)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var notes []Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return err
	}

	found := false
	for i := range notes {
		if notes[i].ID == noteID {
			notes[i].Resolved = true
			found = true
			break
		}
	}

	if !found {
		return fmt.Errorf("note %s not found", noteID)
	}

	newData, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, newData, 0644)
}
