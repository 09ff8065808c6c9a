package config

import (
	"os"
	"path/filepath"
	"testing"

	"partnercat.dev/partnercat/internal/store"
)

func TestLoad(t *testing.T) {
	content := `
catalog:
  validation:
    partner:
      category:
        values: ["open-source-program", "industry", "academic"]
  annotationBasedLinks:
    "example.com/foobar":
      url: "https://foobar.example.com/{{.Value}}"
      title: "Foobar"
ui:
  helpLink:
    title: "Help"
    url: "https://help.example.com"
check:
  concurrency: 4
  timeoutSeconds: 5
  skipHosts: ["blocked.example.com"]
`
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	st := store.NewDiskStore(dir)

	bundle, err := Load(st, "config.yml")
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if bundle.UI.HelpLink == nil || bundle.UI.HelpLink.Title != "Help" {
		t.Errorf("bundle.UI.HelpLink = %+v, want title %q", bundle.UI.HelpLink, "Help")
	}
	if bundle.Check.Concurrency != 4 {
		t.Errorf("bundle.Check.Concurrency = %d, want 4", bundle.Check.Concurrency)
	}
	rules := bundle.Catalog.Validation
	if rules == nil || rules.Partner == nil || rules.Partner.Category == nil {
		t.Fatalf("partner category rule not loaded: %+v", rules)
	}
	if !rules.Partner.Category.Accept("industry") {
		t.Errorf("Accept(industry) = false, want true")
	}
	if rules.Partner.Category.Accept("unknown") {
		t.Errorf("Accept(unknown) = true, want false")
	}
	if len(bundle.Catalog.AnnotationBasedLinks) != 1 {
		t.Errorf("len(AnnotationBasedLinks) = %d, want 1", len(bundle.Catalog.AnnotationBasedLinks))
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		st := store.NewDiskStore(t.TempDir())
		if _, err := Load(st, "config.yml"); err == nil {
			t.Error("Load() error = nil, want error")
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte("no-such-section: {}\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(store.NewDiskStore(dir), "config.yml"); err == nil {
			t.Error("Load() error = nil, want error")
		}
	})
}
