package notes

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStore(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewFileStore(tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	entityRef := "partner:default/my-partner"
	note := Note{
		ID:        "n1",
		Author:    "Alice",
		Text:      "Logo needs updating",
		CreatedAt: time.Now().Round(time.Second), // Round to avoid small diffs in JSON
	}

	if err := store.AddNote(entityRef, note); err != nil {
		t.Fatalf("AddNote failed: %v", err)
	}

	notes, err := store.Notes(entityRef)
	if err != nil {
		t.Fatalf("Notes failed: %v", err)
	}

	if len(notes) != 1 {
		t.Fatalf("Expected 1 note, got %d", len(notes))
	}

	if notes[0].Author != note.Author || notes[0].Text != note.Text {
		t.Errorf("Note mismatch. Got %+v, want %+v", notes[0], note)
	}

	t.Run("resolve", func(t *testing.T) {
		if err := store.ResolveNote(entityRef, "n1"); err != nil {
			t.Fatalf("ResolveNote failed: %v", err)
		}
		open, err := store.OpenNotes(entityRef)
		if err != nil {
			t.Fatalf("OpenNotes failed: %v", err)
		}
		if len(open) != 0 {
			t.Errorf("Expected no open notes, got %d", len(open))
		}
	})

	t.Run("resolve unknown id", func(t *testing.T) {
		if err := store.ResolveNote(entityRef, "no-such-id"); err == nil {
			t.Error("ResolveNote() error = nil, want error")
		}
	})
}

func TestCachingStore(t *testing.T) {
	tmpDir := t.TempDir()

	fileStore, _ := NewFileStore(tmpDir)
	cacheStore := NewCachingStore(fileStore)

	entityRef := "partner:default/my-partner"
	note := Note{
		ID:        "n1",
		Author:    "Bob",
		Text:      "Cache test",
		CreatedAt: time.Now().Round(time.Second),
	}

	// Add to cache
	if err := cacheStore.AddNote(entityRef, note); err != nil {
		t.Fatal(err)
	}

	// Manually delete the file to verify it's served from cache
	safeRef := "partner_default_my-partner.json"
	if err := os.Remove(filepath.Join(tmpDir, safeRef)); err != nil {
		t.Fatal(err)
	}

	notes, err := cacheStore.Notes(entityRef)
	if err != nil {
		t.Fatal(err)
	}

	if len(notes) != 1 {
		t.Fatalf("Expected 1 note from cache, got %d", len(notes))
	}

	t.Run("resolve updates cache", func(t *testing.T) {
		// The backing file is gone, so ResolveNote on the file store fails.
		if err := cacheStore.ResolveNote(entityRef, "n1"); err == nil {
			t.Error("ResolveNote() error = nil, want error from underlying store")
		}
	})
}

func TestCachingStoreAddLoadsPersistedNotes(t *testing.T) {
	tmpDir := t.TempDir()
	entityRef := "partner:default/my-partner"

	// A note persisted by a previous run, before the cache existed.
	fileStore, _ := NewFileStore(tmpDir)
	old := Note{ID: "n1", Author: "Alice", Text: "Old note", CreatedAt: time.Now().Round(time.Second)}
	if err := fileStore.AddNote(entityRef, old); err != nil {
		t.Fatal(err)
	}

	// A fresh cache must not shadow the persisted note when the first
	// operation on the entity is a write.
	cacheStore := NewCachingStore(fileStore)
	if err := cacheStore.AddNote(entityRef, Note{ID: "n2", Author: "Bob", Text: "New note"}); err != nil {
		t.Fatal(err)
	}

	notes, err := cacheStore.Notes(entityRef)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 2 {
		t.Fatalf("Expected 2 notes, got %d", len(notes))
	}
	if notes[0].ID != "n1" || notes[1].ID != "n2" {
		t.Errorf("Note IDs = %q, %q, want n1, n2", notes[0].ID, notes[1].ID)
	}
}
