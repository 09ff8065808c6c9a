package store

import (
	"os"
	"path/filepath"
	"testing"

	"partnercat.dev/partnercat/internal/api"
)

func TestReadEntities(t *testing.T) {
	t.Run("valid entities", func(t *testing.T) {
		content := `
apiVersion: partnercat/v1
kind: Partner
metadata:
  name: my-partner
spec:
  category: industry
  section: my-section
  url: https://partner.example.com
  logo:
    asset: my-logo
    alt: My partner logo
---
apiVersion: partnercat/v1
kind: Program
metadata:
  name: my-program
spec:
  type: team
`
		st, tmpfile := writeTempFile(t, "entities.yml", content)
		defer os.Remove(tmpfile)

		entities, err := ReadEntities(st, filepath.Base(tmpfile))
		if err != nil {
			t.Fatalf("ReadEntities() error = %v, wantErr %v", err, false)
		}
		if len(entities) != 2 {
			t.Fatalf("len(entities) = %d, want %d", len(entities), 2)
		}

		partner, ok := entities[0].(*api.Partner)
		if !ok {
			t.Fatalf("entities[0] is not a *Partner")
		}
		if partner.Metadata.Name != "my-partner" {
			t.Errorf("partner.Metadata.Name = %s, want %s", partner.Metadata.Name, "my-partner")
		}

		program, ok := entities[1].(*api.Program)
		if !ok {
			t.Fatalf("entities[1] is not a *Program")
		}
		if program.Metadata.Name != "my-program" {
			t.Errorf("program.Metadata.Name = %s, want %s", program.Metadata.Name, "my-program")
		}
	})

	t.Run("empty file", func(t *testing.T) {
		st, tmpfile := writeTempFile(t, "empty.yml", "")
		defer os.Remove(tmpfile)

		entities, err := ReadEntities(st, filepath.Base(tmpfile))
		if err != nil {
			t.Fatalf("ReadEntities() error = %v, wantErr %v", err, false)
		}
		if len(entities) != 0 {
			t.Errorf("len(entities) = %d, want %d", len(entities), 0)
		}
	})

	t.Run("no kind", func(t *testing.T) {
		content := `
apiVersion: partnercat/v1
metadata:
  name: no-kind
`
		st, tmpfile := writeTempFile(t, "no-kind.yml", content)
		defer os.Remove(tmpfile)

		_, err := ReadEntities(st, filepath.Base(tmpfile))
		if err == nil {
			t.Errorf("ReadEntities() error = %v, wantErr %v", err, true)
		}
	})

	t.Run("invalid kind", func(t *testing.T) {
		content := `
apiVersion: partnercat/v1
kind: InvalidKind
metadata:
  name: invalid-kind
`
		st, tmpfile := writeTempFile(t, "invalid-kind.yml", content)
		defer os.Remove(tmpfile)

		_, err := ReadEntities(st, filepath.Base(tmpfile))
		if err == nil {
			t.Errorf("ReadEntities() error = %v, wantErr %v", err, true)
		}
	})

	t.Run("non-existent file", func(t *testing.T) {
		_, err := ReadEntities(NewDiskStore("."), "non-existent-file.yml")
		if err == nil {
			t.Errorf("ReadEntities() error = %v, wantErr %v", err, true)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		content := `
invalid: yaml: here
`
		st, tmpfile := writeTempFile(t, "invalid.yml", content)
		defer os.Remove(tmpfile)

		_, err := ReadEntities(st, filepath.Base(tmpfile))
		if err == nil {
			t.Errorf("ReadEntities() error = %v, wantErr %v", err, true)
		}
	})
}

func TestFileExists(t *testing.T) {
	st, tmpfile := writeTempFile(t, "logo.svg", "<svg></svg>")
	defer os.Remove(tmpfile)

	if !FileExists(st, "logo.svg") {
		t.Errorf("FileExists(logo.svg) = false, want true")
	}
	if FileExists(st, "missing.svg") {
		t.Errorf("FileExists(missing.svg) = true, want false")
	}
	// Paths escaping the store root must not resolve.
	if FileExists(st, "../outside.svg") {
		t.Errorf("FileExists() resolved a path outside the store root")
	}
}

func TestCatalogFiles(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0666); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}
	mustWrite("pages.yml", "")
	mustWrite("readme.md", "")
	mustWrite(filepath.Join("sub", "partners.YML"), "")

	st := NewDiskStore(dir)
	files, err := CatalogFiles(st, ".")
	if err != nil {
		t.Fatalf("CatalogFiles() error = %v", err)
	}
	want := map[string]bool{"pages.yml": true, "sub/partners.YML": true}
	if len(files) != len(want) {
		t.Fatalf("CatalogFiles() = %v, want keys %v", files, want)
	}
	for _, f := range files {
		if !want[f] {
			t.Errorf("CatalogFiles() returned unexpected file %q", f)
		}
	}
}

const twoPartnersYAML = `apiVersion: partnercat/v1
kind: Partner
metadata:
  name: partner-a
spec:
  category: industry
  section: my-section
  url: https://a.example.com
  logo:
    asset: logo-a
    alt: Logo A
---
apiVersion: partnercat/v1
kind: Partner
metadata:
  name: partner-b
spec:
  category: industry
  section: my-section
  url: https://b.example.com
  logo:
    asset: logo-b
    alt: Logo B
`

func TestInsertOrReplaceEntity(t *testing.T) {
	st, tmpfile := writeTempFile(t, "partners.yml", twoPartnersYAML)
	defer os.Remove(tmpfile)
	path := filepath.Base(tmpfile)

	t.Run("replace existing", func(t *testing.T) {
		updated, err := api.NewEntityFromString(`apiVersion: partnercat/v1
kind: Partner
metadata:
  name: partner-a
  title: Partner A
spec:
  category: academic
  section: my-section
  url: https://a.example.com
  logo:
    asset: logo-a
    alt: Logo A
`)
		if err != nil {
			t.Fatalf("NewEntityFromString: %v", err)
		}
		if err := InsertOrReplaceEntity(st, path, updated); err != nil {
			t.Fatalf("InsertOrReplaceEntity: %v", err)
		}

		entities, err := ReadEntities(st, path)
		if err != nil {
			t.Fatalf("ReadEntities: %v", err)
		}
		if len(entities) != 2 {
			t.Fatalf("len(entities) = %d, want 2", len(entities))
		}
		partner := entities[0].(*api.Partner)
		if partner.Spec.Category != "academic" {
			t.Errorf("partner.Spec.Category = %q, want %q", partner.Spec.Category, "academic")
		}
		if partner.Metadata.Title != "Partner A" {
			t.Errorf("partner.Metadata.Title = %q, want %q", partner.Metadata.Title, "Partner A")
		}
	})

	t.Run("insert new", func(t *testing.T) {
		added, err := api.NewEntityFromString(`apiVersion: partnercat/v1
kind: Partner
metadata:
  name: partner-c
spec:
  category: industry
  section: my-section
  url: https://c.example.com
  logo:
    asset: logo-c
    alt: Logo C
`)
		if err != nil {
			t.Fatalf("NewEntityFromString: %v", err)
		}
		if err := InsertOrReplaceEntity(st, path, added); err != nil {
			t.Fatalf("InsertOrReplaceEntity: %v", err)
		}

		entities, err := ReadEntities(st, path)
		if err != nil {
			t.Fatalf("ReadEntities: %v", err)
		}
		if len(entities) != 3 {
			t.Fatalf("len(entities) = %d, want 3", len(entities))
		}
		if got := entities[2].GetMetadata().Name; got != "partner-c" {
			t.Errorf("appended entity name = %q, want %q", got, "partner-c")
		}
	})
}

func TestDeleteEntity(t *testing.T) {
	st, tmpfile := writeTempFile(t, "partners.yml", twoPartnersYAML)
	defer os.Remove(tmpfile)
	path := filepath.Base(tmpfile)

	ref := &api.Ref{Kind: api.KindPartner, Namespace: api.DefaultNamespace, Name: "partner-a"}
	if err := DeleteEntity(st, path, ref); err != nil {
		t.Fatalf("DeleteEntity: %v", err)
	}

	entities, err := ReadEntities(st, path)
	if err != nil {
		t.Fatalf("ReadEntities: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("len(entities) = %d, want 1", len(entities))
	}
	if got := entities[0].GetMetadata().Name; got != "partner-b" {
		t.Errorf("remaining entity name = %q, want %q", got, "partner-b")
	}

	// Deleting a ref that is not in the file is an error.
	missing := &api.Ref{Kind: api.KindPartner, Name: "partner-x"}
	if err := DeleteEntity(st, path, missing); err == nil {
		t.Errorf("DeleteEntity(partner-x) = nil, want error")
	}
}

func writeTempFile(t *testing.T, name, content string) (Store, string) {
	t.Helper()
	dir := t.TempDir()
	tmpfile := filepath.Join(dir, name)
	err := os.WriteFile(tmpfile, []byte(content), 0666)
	if err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return NewDiskStore(dir), tmpfile
}
