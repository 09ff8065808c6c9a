// Package docs renders the catalog back into its static markdown form:
// one listing file per page, with each section's partner logos linked to
// the partner URL.
package docs

import (
	"fmt"
	"html"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"partnercat.dev/partnercat/internal/api"
	"partnercat.dev/partnercat/internal/catalog"
	"partnercat.dev/partnercat/internal/repo"
)

// Generator builds the markdown listing pages.
type Generator struct {
	repo *repo.Repository
	// LogoBase is prepended to asset paths in image references,
	// e.g. "/logos" or a CDN prefix. Empty means asset paths are used as-is.
	LogoBase string
}

func NewGenerator(r *repo.Repository) *Generator {
	return &Generator{repo: r}
}

// shouldGenerate returns true unless the entity has the "partnercat/gen-docs" annotation set to "false".
func (g *Generator) shouldGenerate(e catalog.Entity) bool {
	if e == nil || e.GetMetadata() == nil {
		return false
	}
	val, ok := e.GetMetadata().Annotations[catalog.AnnotGenDocs]
	if ok && strings.ToLower(val) == "false" {
		return false
	}
	return true
}

// Generate builds the listing pages in the output directory.
func (g *Generator) Generate(outputDir string) error {
	allPages := g.repo.FindPages("")
	var pages []*catalog.Page
	for _, p := range allPages {
		if g.shouldGenerate(p) {
			pages = append(pages, p)
		}
	}
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].GetQName() < pages[j].GetQName()
	})

	if err := g.generateRootIndex(outputDir, pages); err != nil {
		return err
	}

	for _, page := range pages {
		if err := g.generatePage(outputDir, page); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) generateRootIndex(dir string, pages []*catalog.Page) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	f, err := os.Create(filepath.Join(dir, "index.md"))
	if err != nil {
		return fmt.Errorf("failed to create index.md in %s: %w", dir, err)
	}
	defer f.Close()

	data := struct {
		Title string
		Items []*catalog.Page
	}{
		Title: "Home",
		Items: pages,
	}

	if err := pagesTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("failed to execute pages template: %w", err)
	}
	return nil
}

type partnerEntry struct {
	Name string
	URL  string
	Img  string // The full <img> element for the partner's logo.
}

type sectionBlock struct {
	Title    string
	Partners []partnerEntry
}

func (g *Generator) generatePage(dir string, page *catalog.Page) error {
	var sections []sectionBlock
	for _, section := range g.repo.PageSections(page) {
		if !g.shouldGenerate(section) {
			continue
		}
		block := sectionBlock{Title: displayName(section)}
		for _, partner := range g.repo.SectionPartners(section) {
			if !g.shouldGenerate(partner) {
				continue
			}
			block.Partners = append(block.Partners, partnerEntry{
				Name: displayName(partner),
				URL:  partner.Spec.URL,
				Img:  g.logoImg(partner),
			})
		}
		sections = append(sections, block)
	}

	f, err := os.Create(filepath.Join(dir, page.GetRef().Name+".md"))
	if err != nil {
		return fmt.Errorf("failed to create page doc for %s: %w", page.GetRef(), err)
	}
	defer f.Close()

	data := struct {
		Title       string
		Description string
		Sections    []sectionBlock
	}{
		Title:       displayName(page),
		Description: page.Metadata.Description,
		Sections:    sections,
	}

	if err := pageTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("failed to execute page template: %w", err)
	}
	return nil
}

// logoImg renders the partner's logo as an <img> element with alt text
// and an optional width attribute.
func (g *Generator) logoImg(partner *catalog.Partner) string {
	logo := partner.Spec.Logo
	asset := g.repo.Asset(logo.Asset)
	src := asset.Spec.Path
	if g.LogoBase != "" {
		src = path.Join(g.LogoBase, src)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, `<img src="%s" alt="%s"`, html.EscapeString(src), html.EscapeString(logo.Alt))
	if attr := widthAttr(logo.Width); attr != "" {
		sb.WriteString(" " + attr)
	}
	sb.WriteString(" />")
	return sb.String()
}

// widthAttr translates a width hint into an HTML attribute.
// Pixel widths become a plain width attribute, other units a style attribute.
func widthAttr(d *api.Dimension) string {
	if !d.IsValid() {
		return ""
	}
	if d.Unit == "px" {
		return fmt.Sprintf(`width="%s"`, strconv.FormatFloat(d.Value, 'f', -1, 64))
	}
	return fmt.Sprintf(`style="width:%s"`, d.String())
}

func displayName(e catalog.Entity) string {
	if t := e.GetMetadata().Title; t != "" {
		return t
	}
	return e.GetRef().Name
}

// Templates

var pagesTemplate = template.Must(template.New("pages").Parse(`---
title: {{ .Title }}
---
<!-- Auto-generated by partnercat gen-docs. DO NOT EDIT. -->
# {{ .Title }}

## Pages

{{ range .Items -}}
* [{{ .GetRef.Name }}]({{ .GetRef.Name }}.md){{ if .GetMetadata.Title }} - *{{ .GetMetadata.Title }}*{{ end }}
{{ end }}
`))

var pageTemplate = template.Must(template.New("page").Parse(`---
title: {{ .Title }}
---
<!-- Auto-generated by partnercat gen-docs. DO NOT EDIT. -->
# {{ .Title }}

{{ if .Description }}{{ .Description }}
{{ end }}
{{- range .Sections }}
## {{ .Title }}

{{ range .Partners -}}
<a href="{{ .URL }}" title="{{ .Name }}">{{ .Img }}</a>
{{ end }}
{{- end }}
`))
