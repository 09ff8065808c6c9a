package repo

import (
	"cmp"
	"fmt"
	"log"
	"net/url"
	"path"
	"slices"
	"strings"
	"text/template"

	"partnercat.dev/partnercat/internal/catalog"
	"partnercat.dev/partnercat/internal/query"
	"partnercat.dev/partnercat/internal/store"
)

type Repository struct {
	// Maps containing the different kinds of entities in the repository.
	//
	// These maps are keyed by qnames without the kind: specifier: <namespace>/<name>
	pages    map[string]*catalog.Page
	sections map[string]*catalog.Section
	partners map[string]*catalog.Partner
	assets   map[string]*catalog.Asset
	programs map[string]*catalog.Program
	// Tracks all qualified names added to this repo
	// (for duplicate detection and type-independent lookups)
	//
	// This map uses entity references including the kind: prefix: <kind>:<namespace>/<name>
	allEntities map[string]catalog.Entity

	// Repository configuration
	config Config
}

// cloneEmpty returns a copy of r with all maps empty, but config etc. preserved.
func (r *Repository) cloneEmpty() *Repository {
	return NewRepositoryWithConfig(r.config)
}

func NewRepositoryWithConfig(config Config) *Repository {
	return &Repository{
		pages:       make(map[string]*catalog.Page),
		sections:    make(map[string]*catalog.Section),
		partners:    make(map[string]*catalog.Partner),
		assets:      make(map[string]*catalog.Asset),
		programs:    make(map[string]*catalog.Program),
		allEntities: make(map[string]catalog.Entity),
		config:      config,
	}
}

func NewRepository() *Repository {
	return NewRepositoryWithConfig(Config{})
}

func (r *Repository) Size() int {
	return len(r.allEntities)
}

func (r *Repository) setEntity(e catalog.Entity) error {
	qname := e.GetRef().QName()

	switch x := e.(type) {
	case *catalog.Page:
		r.pages[qname] = x
	case *catalog.Section:
		r.sections[qname] = x
	case *catalog.Partner:
		r.partners[qname] = x
	case *catalog.Asset:
		r.assets[qname] = x
	case *catalog.Program:
		r.programs[qname] = x
	default:
		return fmt.Errorf("invalid type: %T", e)
	}

	ref := e.GetRef().String()
	r.allEntities[ref] = e
	return nil
}

func (r *Repository) Exists(e catalog.Entity) bool {
	_, ok := r.allEntities[e.GetRef().String()]
	return ok
}

// InsertOrUpdateEntity inserts e into the repository or updates an existing version of e.
//
// This method uses a fairly heavyweight, but effective approach:
// Rebuild the repository from scratch (as a copy), and validate.
// It avoids having to deal with complex deletions and additions of relationships
// and their inverses. The repository r remains unchanged in any case.
func (r *Repository) InsertOrUpdateEntity(e catalog.Entity) (*Repository, error) {
	r2 := r.cloneEmpty()
	ref := e.GetRef()
	found := false
	for _, n := range r.allEntities {
		var toAdd catalog.Entity
		if n.GetRef().Equal(ref) {
			found = true
			toAdd = e // Replace old entity by the new one
		} else {
			toAdd = n.Reset() // Add a shallow copy with cleared computed fields
		}

		if err := r2.AddEntity(toAdd); err != nil {
			return nil, fmt.Errorf("failed to rebuild repository: %v", err)
		}
	}
	if !found {
		// e not found in repository => insert
		if err := r2.AddEntity(e); err != nil {
			return nil, fmt.Errorf("failed to insert new entity: %v", err)
		}
	}

	if err := r2.Validate(); err != nil {
		return nil, fmt.Errorf("repository validation failed: %v", err)
	}

	return r2, nil
}

// DeleteEntity removes the given entity from the repository.
// Deletions are only allowed if the given entity does not have remaining
// ingoing dependencies (i.e. references from other entities) of any kind.
// See InsertOrUpdateEntity for the procedure.
func (r *Repository) DeleteEntity(ref *catalog.Ref) (*Repository, error) {
	refList := func(refs []*catalog.Ref) []string {
		result := make([]string, len(refs))
		for i, ref := range refs {
			result[i] = ref.String()
		}
		return result
	}

	// Validate that there are no inbound dependencies left.
	e := r.Entity(ref)
	if e == nil {
		return nil, fmt.Errorf("entity %q does not exist", ref)
	}
	switch entity := e.(type) {
	case *catalog.Partner:
		// Partners are leaves, nothing references them.
	case *catalog.Asset:
		if len(entity.GetUsedBy()) != 0 {
			return nil, fmt.Errorf("asset is still used by partners: %v", refList(entity.GetUsedBy()))
		}
	case *catalog.Section:
		if len(entity.GetPartners()) != 0 {
			return nil, fmt.Errorf("section still lists partners: %v", refList(entity.GetPartners()))
		}
	case *catalog.Page:
		if len(entity.GetSections()) != 0 {
			return nil, fmt.Errorf("page still has sections: %v", refList(entity.GetSections()))
		}
	default:
		return nil, fmt.Errorf("deleting entities of type %T is currently not supported", e)
	}

	// Rebuild repo without entity
	r2 := r.cloneEmpty()
	for _, n := range r.allEntities {
		if n.GetRef().Equal(ref) {
			continue // Skip the entity to be deleted
		}
		toAdd := n.Reset()
		if err := r2.AddEntity(toAdd); err != nil {
			return nil, fmt.Errorf("failed to rebuild repository: %v", err)
		}
	}
	if err := r2.Validate(); err != nil {
		return nil, fmt.Errorf("repository validation failed: %v", err)
	}

	return r2, nil
}

// AddEntity adds an entity to the repository *during construction*.
// This method is intended to be used while a repository is constructed,
// but before it is validated and back-references etc. are built.
// See InsertOrUpdateEntity for operations on an "active" repository.
func (r *Repository) AddEntity(e catalog.Entity) error {
	if e.GetMetadata() == nil {
		return fmt.Errorf("entity metadata is nil")
	}
	if r.Exists(e) {
		return fmt.Errorf("entity %q already exists in the repository", e.GetRef())
	}
	return r.setEntity(e)
}

func getEntity[T any](m map[string]*T, ref *catalog.Ref, expectedKind catalog.Kind) *T {
	if ref.Kind != "" && ref.Kind != expectedKind {
		return nil
	}
	return m[ref.QName()]
}

func (r *Repository) Program(ref *catalog.Ref) *catalog.Program {
	return getEntity(r.programs, ref, catalog.KindProgram)
}

func (r *Repository) Section(ref *catalog.Ref) *catalog.Section {
	return getEntity(r.sections, ref, catalog.KindSection)
}

func (r *Repository) Page(ref *catalog.Ref) *catalog.Page {
	return getEntity(r.pages, ref, catalog.KindPage)
}

func (r *Repository) Partner(ref *catalog.Ref) *catalog.Partner {
	return getEntity(r.partners, ref, catalog.KindPartner)
}

func (r *Repository) Asset(ref *catalog.Ref) *catalog.Asset {
	return getEntity(r.assets, ref, catalog.KindAsset)
}

// Entity returns the entity identified by the entity reference ref, if it exists.
// If the entity does not exist, it returns the nil interface.
// The entity reference must be fully qualified, i.e. <kind>:[<namespace>/]<name>
func (r *Repository) Entity(ref *catalog.Ref) catalog.Entity {
	if ref.Kind == "" {
		return nil // Entity lookup requires kind specifier
	}
	switch ref.Kind {
	case catalog.KindPartner:
		if p := r.Partner(ref); p != nil {
			return p
		}
	case catalog.KindSection:
		if s := r.Section(ref); s != nil {
			return s
		}
	case catalog.KindPage:
		if p := r.Page(ref); p != nil {
			return p
		}
	case catalog.KindAsset:
		if a := r.Asset(ref); a != nil {
			return a
		}
	case catalog.KindProgram:
		if g := r.Program(ref); g != nil {
			return g
		}
	}
	return nil // invalid kind specifier
}

func findEntities[T catalog.Entity](q string, items map[string]T) []T {
	var result []T

	if strings.TrimSpace(q) == "" {
		// No filter, return all items
		result = make([]T, 0, len(items))
		for _, item := range items {
			result = append(result, item)
		}
	} else {
		expr, err := query.Parse(q)
		if err != nil {
			return nil // Invalid query => no results
		}
		ev := query.NewEvaluator(expr)
		for _, c := range items {
			ok, err := ev.Matches(c)
			if err != nil {
				return nil // Broken query (e.g. broken regex) => no results
			}
			if ok {
				result = append(result, c)
			}
		}
	}
	slices.SortFunc(result, func(c1, c2 T) int {
		return catalog.CompareEntityByRef(c1, c2)
	})
	return result
}

func (r *Repository) FindPartners(q string) []*catalog.Partner {
	return findEntities(q, r.partners)
}

func (r *Repository) FindSections(q string) []*catalog.Section {
	return findEntities(q, r.sections)
}

func (r *Repository) FindPages(q string) []*catalog.Page {
	return findEntities(q, r.pages)
}

func (r *Repository) FindAssets(q string) []*catalog.Asset {
	return findEntities(q, r.assets)
}

func (r *Repository) FindPrograms(q string) []*catalog.Program {
	return findEntities(q, r.programs)
}

func (r *Repository) FindEntities(q string) []catalog.Entity {
	return findEntities(q, r.allEntities)
}

// PageSections returns the sections of the given page, ordered by
// ascending rank with ties broken by name.
func (r *Repository) PageSections(p *catalog.Page) []*catalog.Section {
	var sections []*catalog.Section
	for _, ref := range p.GetSections() {
		if s := r.Section(ref); s != nil {
			sections = append(sections, s)
		}
	}
	slices.SortFunc(sections, catalog.CompareSectionByRank)
	return sections
}

// SectionPartners returns the partners listed in the given section, ordered by name.
func (r *Repository) SectionPartners(s *catalog.Section) []*catalog.Partner {
	var partners []*catalog.Partner
	for _, ref := range s.GetPartners() {
		if p := r.Partner(ref); p != nil {
			partners = append(partners, p)
		}
	}
	slices.SortFunc(partners, func(a, b *catalog.Partner) int {
		return catalog.CompareEntityByRef(a, b)
	})
	return partners
}

func labelKeys[T catalog.Entity](items map[string]T) []string {
	keySet := map[string]bool{}
	for _, item := range items {
		for k := range item.GetMetadata().Labels {
			keySet[k] = true
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	return keys
}

func annnotationKeys[T catalog.Entity](items map[string]T) []string {
	keySet := map[string]bool{}
	for _, item := range items {
		for k := range item.GetMetadata().Annotations {
			keySet[k] = true
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	return keys
}

func (r *Repository) AnnotationKeys(kind catalog.Kind) []string {
	switch kind {
	case catalog.KindPage:
		return annnotationKeys(r.pages)
	case catalog.KindSection:
		return annnotationKeys(r.sections)
	case catalog.KindPartner:
		return annnotationKeys(r.partners)
	case catalog.KindAsset:
		return annnotationKeys(r.assets)
	case catalog.KindProgram:
		return annnotationKeys(r.programs)
	}
	return nil
}

func (r *Repository) LabelKeys(kind catalog.Kind) []string {
	switch kind {
	case catalog.KindPage:
		return labelKeys(r.pages)
	case catalog.KindSection:
		return labelKeys(r.sections)
	case catalog.KindPartner:
		return labelKeys(r.partners)
	case catalog.KindAsset:
		return labelKeys(r.assets)
	case catalog.KindProgram:
		return labelKeys(r.programs)
	}
	return nil
}

func collectSpecValues[T any](items map[string]T, extractor func(T) string) []string {
	valueSet := map[string]bool{}
	for _, item := range items {
		if v := extractor(item); v != "" {
			valueSet[v] = true
		}
	}
	values := make([]string, 0, len(valueSet))
	for v := range valueSet {
		values = append(values, v)
	}
	return values
}

func (r *Repository) SpecFieldValues(kind catalog.Kind, field string) ([]string, error) {
	switch kind {
	case catalog.KindPartner:
		switch field {
		case "category":
			return collectSpecValues(r.partners, func(x *catalog.Partner) string { return x.Spec.Category }), nil
		}
	case catalog.KindAsset:
		switch field {
		case "format":
			return collectSpecValues(r.assets, func(x *catalog.Asset) string { return x.Spec.Format }), nil
		}
	case catalog.KindSection:
		switch field {
		case "type":
			return collectSpecValues(r.sections, func(x *catalog.Section) string { return x.Spec.Type }), nil
		}
	case catalog.KindPage:
		switch field {
		case "type":
			return collectSpecValues(r.pages, func(x *catalog.Page) string { return x.Spec.Type }), nil
		}
	case catalog.KindProgram:
		switch field {
		case "type":
			return collectSpecValues(r.programs, func(x *catalog.Program) string { return x.Spec.Type }), nil
		}
	}
	return nil, fmt.Errorf("field %q not supported for kind %q", field, kind)
}

func (r *Repository) validateMetadata(m *catalog.Metadata) error {
	if m == nil {
		return fmt.Errorf("metadata is null")
	}
	if !catalog.IsValidName(m.Name) {
		return fmt.Errorf("invalid name: %s", m.Name)
	}
	if m.Namespace != "" && !catalog.IsValidNamespace(m.Namespace) {
		return fmt.Errorf("invalid namespace: %s", m.Namespace)
	}
	for k, v := range m.Labels {
		if !catalog.IsValidLabel(k, v) {
			return fmt.Errorf("invalid label: \"%s: %s\"", k, v)
		}
	}
	for k, v := range m.Annotations {
		if !catalog.IsValidAnnotation(k, v) {
			return fmt.Errorf("invalid annotation: \"%s: %s\"", k, v)
		}
	}
	for _, tag := range m.Tags {
		if !catalog.IsValidTag(tag) {
			return fmt.Errorf("invalid tag: %q", tag)
		}
	}
	return nil
}

// isValidHTTPURL checks if a string is a valid, absolute http(s) URL
// with a scheme and a host.
func isValidHTTPURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// isValidAssetPath checks that p is a clean relative path that does
// not escape the catalog root.
func isValidAssetPath(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") {
		return false
	}
	clean := path.Clean(p)
	return clean == p && clean != ".." && !strings.HasPrefix(clean, "../")
}

// Validate validates the repository (cross references exist, etc.).
func (r *Repository) Validate() error {
	// Validate against configured rules, if present
	if v := r.config.Validation; v != nil {
		for _, e := range r.allEntities {
			if err := v.Accept(e); err != nil {
				return fmt.Errorf("entity %s failed validation of configured rules: %v", e.GetRef(), err)
			}
		}
	}

	// Programs
	for _, g := range r.programs {
		qn := g.GetRef().QName()
		if err := r.validateMetadata(g.Metadata); err != nil {
			return fmt.Errorf("program %s has invalid metadata: %v", qn, err)
		}
		if g.Spec == nil {
			return fmt.Errorf("program %s has no spec", qn)
		}
		if g.Spec.Type == "" {
			return fmt.Errorf("program %s has no spec.type", qn)
		}
		if g.Spec.Profile == nil {
			// Avoid nil checks elsewhere. Profile is optional in the schema.
			g.Spec.Profile = &catalog.ProgramSpecProfile{}
		}
	}

	// Pages
	for _, p := range r.pages {
		qn := p.GetRef().QName()
		if err := r.validateMetadata(p.Metadata); err != nil {
			return fmt.Errorf("page %s has invalid metadata: %v", qn, err)
		}
		s := p.Spec
		if s == nil {
			return fmt.Errorf("page %s has no spec", qn)
		}
		if s.Owner == nil {
			return fmt.Errorf("page %s has no owner", qn)
		}
		if g := r.Program(s.Owner); g == nil {
			return fmt.Errorf("owner %q for page %s is undefined", s.Owner, qn)
		}
		if s.SubpageOf != nil {
			if parent := r.Page(s.SubpageOf); parent == nil {
				return fmt.Errorf("subpageOf %q is undefined for page %q", s.SubpageOf, qn)
			}
		}
	}

	// Sections
	for _, sec := range r.sections {
		qn := sec.GetRef().QName()
		if err := r.validateMetadata(sec.Metadata); err != nil {
			return fmt.Errorf("section %s has invalid metadata: %v", qn, err)
		}
		s := sec.Spec
		if s == nil {
			return fmt.Errorf("section %s has no spec", qn)
		}
		if s.Owner == nil {
			return fmt.Errorf("section %s has no owner", qn)
		}
		if g := r.Program(s.Owner); g == nil {
			return fmt.Errorf("owner %q for section %s is undefined", s.Owner, qn)
		}
		if s.Page == nil {
			return fmt.Errorf("section %s has no page reference", qn)
		}
		if p := r.Page(s.Page); p == nil {
			return fmt.Errorf("page %q for section %s is undefined", s.Page, qn)
		}
		if s.Rank < 0 {
			return fmt.Errorf("section %s has a negative rank", qn)
		}
	}

	// Assets
	for _, a := range r.assets {
		qn := a.GetRef().QName()
		if err := r.validateMetadata(a.Metadata); err != nil {
			return fmt.Errorf("asset %s has invalid metadata: %v", qn, err)
		}
		s := a.Spec
		if s == nil {
			return fmt.Errorf("asset %s has no spec", qn)
		}
		if s.Path == "" {
			return fmt.Errorf("asset %s has no spec.path", qn)
		}
		if !isValidAssetPath(s.Path) {
			return fmt.Errorf("asset %s has an invalid spec.path %q", qn, s.Path)
		}
		if !catalog.IsSupportedAssetFormat(s.Format) {
			return fmt.Errorf("asset %s has an unsupported image format %q (path %q)", qn, s.Format, s.Path)
		}
		if s.Owner != nil {
			if g := r.Program(s.Owner); g == nil {
				return fmt.Errorf("owner %q for asset %s is undefined", s.Owner, qn)
			}
		}
	}

	// Partners
	for _, p := range r.partners {
		qn := p.GetRef().QName()
		if err := r.validateMetadata(p.Metadata); err != nil {
			return fmt.Errorf("partner %s has invalid metadata: %v", qn, err)
		}
		s := p.Spec
		if s == nil {
			return fmt.Errorf("partner %s has no spec", qn)
		}
		if s.Category == "" {
			return fmt.Errorf("partner %s has no spec.category", qn)
		}
		if s.Section == nil {
			return fmt.Errorf("partner %s has no section reference", qn)
		}
		if sec := r.Section(s.Section); sec == nil {
			return fmt.Errorf("section %q for partner %s is undefined", s.Section, qn)
		}
		if s.Owner != nil {
			if g := r.Program(s.Owner); g == nil {
				return fmt.Errorf("owner %q for partner %s is undefined", s.Owner, qn)
			}
		}
		if s.URL == "" {
			return fmt.Errorf("partner %s has no spec.url", qn)
		}
		if !isValidHTTPURL(s.URL) {
			return fmt.Errorf("partner %s has an invalid spec.url %q (must be an absolute http(s) URL)", qn, s.URL)
		}
		if s.Logo == nil {
			return fmt.Errorf("partner %s has no logo", qn)
		}
		if s.Logo.Asset == nil {
			return fmt.Errorf("partner %s has no logo asset reference", qn)
		}
		if a := r.Asset(s.Logo.Asset); a == nil {
			return fmt.Errorf("logo asset %q for partner %s is undefined", s.Logo.Asset, qn)
		}
		if strings.TrimSpace(s.Logo.Alt) == "" {
			return fmt.Errorf("partner %s has no alt text for its logo", qn)
		}
	}

	// Validation succeeded: postprocess entities.
	r.populateRelationships()
	r.sortReferences()

	if err := r.addGeneratedLinks(); err != nil {
		return fmt.Errorf("error generating annotation-based links: %w", err)
	}

	return nil
}

// populateRelationships populates the "inverse relationship" fields of entities.
// Assumes that the repository has been validated already.
func (r *Repository) populateRelationships() {
	// Partners
	for _, p := range r.partners {
		ref := p.GetRef()
		if s := p.Spec.Section; s != nil {
			section := r.Section(s)
			section.AddPartner(ref)
		}
		if l := p.Spec.Logo; l != nil && l.Asset != nil {
			asset := r.Asset(l.Asset)
			asset.AddUsedBy(ref)
		}
	}

	// Sections
	for _, s := range r.sections {
		ref := s.GetRef()
		if p := s.Spec.Page; p != nil {
			page := r.Page(p)
			page.AddSection(ref)
		}
	}
}

func (r *Repository) sortReferences() {
	// Pages
	for _, p := range r.pages {
		p.SortRefs()
	}

	// Sections
	for _, s := range r.sections {
		s.SortRefs()
	}

	// Assets
	for _, a := range r.assets {
		a.SortRefs()
	}
}

// linkTemplates
type linkTemplates struct {
	url   *template.Template
	title *template.Template
}

// defaultAnnotationLinks are built-in annotation-based links that apply
// without any configuration. A config entry for the same annotation wins.
var defaultAnnotationLinks = map[string]*AnnotationBasedLink{
	catalog.AnnotRepository: {
		URL:   "{{.Annotation.Value}}",
		Title: "Repository",
		Icon:  "git",
		Type:  "repository",
	},
}

// annotationLinks returns the effective annotation-based link definitions,
// built-in defaults merged with (and overridden by) the config.
func (r *Repository) annotationLinks() map[string]*AnnotationBasedLink {
	links := map[string]*AnnotationBasedLink{}
	for annot, abl := range defaultAnnotationLinks {
		links[annot] = abl
	}
	for annot, abl := range r.config.AnnotationBasedLinks {
		links[annot] = abl
	}
	return links
}

// prepareLinkTemplates compiles the url and title templates of all effective
// annotation-based link definitions.
func (r *Repository) prepareLinkTemplates(abls map[string]*AnnotationBasedLink) (map[string]linkTemplates, error) {
	tmpls := map[string]linkTemplates{}

	for annot, abl := range abls {
		if abl == nil {
			return nil, fmt.Errorf("annotation-based link for %q is nil", annot)
		}
		if strings.TrimSpace(abl.URL) == "" {
			return nil, fmt.Errorf("annotation-based link for %q has an empty URL", annot)
		}
		urlTmpl, err := template.New("url").Parse(abl.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid URL template for annotation %q: %v", annot, err)
		}
		urlTmpl.Option("missingkey=error")
		titleTmpl, err := template.New("title").Parse(abl.Title)
		if err != nil {
			return nil, fmt.Errorf("invalid title template for annotation %q: %v", annot, err)
		}
		titleTmpl.Option("missingkey=error")
		tmpls[annot] = linkTemplates{url: urlTmpl, title: titleTmpl}
	}

	return tmpls, nil
}

func (r *Repository) addGeneratedLinks() error {
	abls := r.annotationLinks()
	tmpls, err := r.prepareLinkTemplates(abls)
	if err != nil {
		return err
	}

	// Process entities
	for _, e := range r.allEntities {
		meta := e.GetMetadata()
		// Check that no generated links already exist (that would be a programming error)
		if slices.ContainsFunc(meta.Links, func(l *catalog.Link) bool {
			return l.IsGenerated
		}) {
			panic(fmt.Sprintf("addGeneratedLinks called on entity %s that already has generated links", e.GetRef()))
		}
		// Generate new links
		var links []*catalog.Link
		for annot, t := range tmpls {
			value, ok := meta.Annotations[annot]
			if !ok || value == "" {
				continue
			}
			data := map[string]any{
				"Annotation": map[string]string{
					"Key":   annot,
					"Value": value,
				},
				"Metadata": meta,
			}
			var urlSb strings.Builder
			if err := t.url.Execute(&urlSb, data); err != nil {
				return fmt.Errorf("failed to execute URL template for annotation %v in entity %v: %v", annot, e.GetRef(), err)
			}
			url := urlSb.String()
			if !isValidHTTPURL(url) {
				return fmt.Errorf("invalid url for annotation %v in entity %v: %q", annot, e.GetRef(), url)
			}
			var titleSb strings.Builder
			if err := t.title.Execute(&titleSb, data); err != nil {
				return fmt.Errorf("failed to execute title template for annotation %v in entity %v: %v", annot, e.GetRef(), err)
			}
			links = append(links, &catalog.Link{
				Title:       titleSb.String(),
				URL:         url,
				Type:        abls[annot].Type,
				Icon:        abls[annot].Icon,
				IsGenerated: true,
			})
		}
		meta.Links = append(meta.Links, links...)
		slices.SortFunc(meta.Links, func(a, b *catalog.Link) int {
			if c := cmp.Compare(a.Title, b.Title); c != 0 {
				return c
			}
			return cmp.Compare(a.URL, b.URL)
		})
	}
	return nil
}

// Load reads entities from the given catalog paths
// and returns a validated repository.
// Elements in catalogPaths must be .yml file paths.
func Load(st store.Store, config Config, catalogDir string) (*Repository, error) {
	repo := NewRepositoryWithConfig(config)
	err := repo.initialize(st, catalogDir)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *Repository) initialize(st store.Store, catalogDir string) error {
	if r.Size() != 0 {
		return fmt.Errorf("initialize called on a non-empty repo (size: %d)", r.Size())
	}
	catalogPaths, err := store.CatalogFiles(st, catalogDir)
	if err != nil {
		return fmt.Errorf("initialize: cannot retrieve catalog files :%v", err)
	}
	for _, catalogPath := range catalogPaths {
		log.Printf("Reading catalog file %s", catalogPath)
		entities, err := store.ReadEntities(st, catalogPath)
		if err != nil {
			return fmt.Errorf("failed to read entities from %s: %v", catalogPath, err)
		}
		for _, e := range entities {
			entity, err := catalog.NewEntityFromAPI(e)
			if err != nil {
				return fmt.Errorf("failed to convert api entity %s:%s/%s (source: %s:%d) to catalog entity: %v",
					e.GetKind(), e.GetMetadata().Namespace, e.GetMetadata().Name,
					e.GetSourceInfo().Path, e.GetSourceInfo().Line, err)
			}
			if err := r.AddEntity(entity); err != nil {
				return fmt.Errorf("failed to add entity %q to the repo: %v", entity.GetRef(), err)
			}
		}
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("repository validation failed: %v", err)
	}

	return nil
}
