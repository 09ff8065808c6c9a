// This file contains the API classes that define a partner catalog.
// Entities are declared in YAML files and describe the pages, sections,
// partner entries, logo assets, and programs that make up the published
// partner listings.
package api

import (
	"cmp"

	"gopkg.in/yaml.v3"
)

const (
	// The name of the (implicit) default namespace.
	// In partnercat, entity references typically omit the default namespace
	// even in fully qualified form (e.g., partner:my-partner).
	DefaultNamespace = "default"
)

// Entity is the interface implemented by all entity kinds (Partner, Section, etc.).
type Entity interface {
	GetKind() string
	GetMetadata() *Metadata
	// Returns the qualified entity name in the format
	// <namespace>/<name>
	// This form can presented to the user in cases where the entity kind is obvious or irrelevant.
	GetQName() string
	// Returns the fully qualified entity reference in the format
	// <kind>:<namespace>/<name>
	GetRef() string

	// GetSourceInfo returns internal bookkeeping data, e.g. for error logging
	// and reconstructing YAML files (retaining the exact structure including comments).
	GetSourceInfo() *SourceInfo
	SetSourceInfo(si *SourceInfo)

	// Reset creates a shallow copy of the entity with computed values (inv. relations) removed.
	Reset() Entity
}

// File and line information shared by all entities.
// Can be used in error messages and to reconstruct YAML
type SourceInfo struct {
	Node *yaml.Node // The raw YAML source code from which the entity was parsed.
	Path string     // The path from which the entity was read.
	Line int        // The first line number in Path where the entity was found.
}

// Metadata

type Link struct {
	// A url in a standard uri format.
	// [required]
	URL string `yaml:"url,omitempty"`
	// A user friendly display name for the link.
	// [optional]
	Title string `yaml:"title,omitempty"`
	// A key representing a visual icon to be displayed in the UI.
	// [optional]
	Icon string `yaml:"icon,omitempty"`
	// An optional value to categorize links into specific groups.
	// [optional]
	Type string `yaml:"type,omitempty"`
}

type Metadata struct {
	// The name of the entity. Must be unique within the catalog at any given point in time, for any given namespace + kind pair.
	// [required]
	Name string `yaml:"name,omitempty"`
	// The namespace that the entity belongs to. If empty, the entity is assume to live in the default namespace.
	// [optional]
	Namespace string `yaml:"namespace,omitempty"`
	// A display name of the entity, to be presented in user interfaces instead of the name property, when available.
	// [optional]
	Title string `yaml:"title,omitempty"`
	// A short (typically relatively few words, on one line) description of the entity.
	// [optional]
	Description string `yaml:"description,omitempty"`
	// Key/value pairs of identifying information attached to the entity.
	// [optional]
	Labels map[string]string `yaml:"labels,omitempty"`
	// Key/value pairs of non-identifying auxiliary information attached to the entity.
	// [optional]
	Annotations map[string]string `yaml:"annotations,omitempty"`
	// A list of single-valued strings, to for example classify catalog entities in various ways.
	// [optional]
	Tags []string `yaml:"tags,omitempty"`
	// A list of external hyperlinks related to the entity.
	// [optional]
	Links []*Link `yaml:"links,omitempty"`
}

// Page

type pageInvRel struct {
	sections []string
}

type PageSpec struct {
	// An entity reference to the owner of the page.
	// [required]
	Owner *Ref `yaml:"owner,omitempty"`
	// An entity reference to another page of which the page is a part.
	// [optional]
	SubpageOf *Ref `yaml:"subpageOf,omitempty"`
	// The type of page. There is currently no enforced set of values for this field,
	// so it is left up to the adopting organization to choose a nomenclature that matches
	// their site structure.
	// [optional]
	Type string `yaml:"type,omitempty"`

	// These fields are not part of the YAML schema.
	// They are populated on demand to make "reverse navigation" easier.
	inv pageInvRel
}

type Page struct {
	APIVersion string    `yaml:"apiVersion,omitempty"`
	Kind       string    `yaml:"kind,omitempty"`
	Metadata   *Metadata `yaml:"metadata,omitempty"`
	Spec       *PageSpec `yaml:"spec,omitempty"`

	// Internal data, not part of the API.
	*SourceInfo `yaml:"-"`
}

// Section

type sectionInvRel struct {
	partners []string
}

type SectionSpec struct {
	// An entity reference to the owner of the section.
	// [required]
	Owner *Ref `yaml:"owner,omitempty"`
	// An entity reference to the page that the section belongs to.
	// [required]
	Page *Ref `yaml:"page,omitempty"`
	// The position of the section on its page. Sections with a lower rank
	// are rendered first. Sections with equal rank are ordered by name.
	// [optional]
	Rank int `yaml:"rank,omitempty"`
	// The type of section. There is currently no enforced set of values for this field,
	// so it is left up to the adopting organization to choose a nomenclature that matches
	// their site structure.
	// [optional]
	Type string `yaml:"type,omitempty"`

	// These fields are not part of the YAML schema.
	// They are populated on demand to make "reverse navigation" easier.
	inv sectionInvRel
}

type Section struct {
	APIVersion string       `yaml:"apiVersion,omitempty"`
	Kind       string       `yaml:"kind,omitempty"`
	Metadata   *Metadata    `yaml:"metadata,omitempty"`
	Spec       *SectionSpec `yaml:"spec,omitempty"`

	// Internal bookkeeping data, not part of the API.
	*SourceInfo `yaml:"-"`
}

// Partner

type Logo struct {
	// An entity reference to the asset holding the logo image.
	// [required]
	Asset *Ref `yaml:"asset,omitempty"`
	// The alternative text shown in place of the image.
	// Must not be empty: every rendered logo needs a textual fallback.
	// [required]
	Alt string `yaml:"alt,omitempty"`
	// A display width hint for the logo, e.g. "240px", "55%" or a bare number
	// (interpreted as pixels).
	// [optional]
	Width *Dimension `yaml:"width,omitempty"`
}

type PartnerSpec struct {
	// The organization category of the partner.
	// Should ideally be one of a few well-known values that are used consistently.
	// For example, ["open-source-program", "industry", "academic"].
	// [required]
	Category string `yaml:"category,omitempty"`
	// An entity reference to the section that the partner is listed in.
	// [required]
	Section *Ref `yaml:"section,omitempty"`
	// An entity reference to the owner of the partner entry.
	// [optional]
	Owner *Ref `yaml:"owner,omitempty"`
	// The absolute http(s) URL that the partner's listing links to.
	// [required]
	URL string `yaml:"url,omitempty"`
	// The logo displayed for the partner.
	// [required]
	Logo *Logo `yaml:"logo,omitempty"`
}

type Partner struct {
	APIVersion string       `yaml:"apiVersion,omitempty"`
	Kind       string       `yaml:"kind,omitempty"`
	Metadata   *Metadata    `yaml:"metadata,omitempty"`
	Spec       *PartnerSpec `yaml:"spec,omitempty"`

	// Internal bookkeeping data, not part of the API.
	*SourceInfo `yaml:"-"`
}

// Asset

type assetInvRel struct {
	usedBy []string
}

type AssetSpec struct {
	// The path of the image file, relative to the catalog root.
	// [required]
	Path string `yaml:"path,omitempty"`
	// An entity reference to the owner of the asset.
	// [optional]
	Owner *Ref `yaml:"owner,omitempty"`

	// These fields are not part of the YAML schema.
	// They are populated on demand to make "reverse navigation" easier.
	inv assetInvRel
}

type Asset struct {
	APIVersion string     `yaml:"apiVersion,omitempty"`
	Kind       string     `yaml:"kind,omitempty"`
	Metadata   *Metadata  `yaml:"metadata,omitempty"`
	Spec       *AssetSpec `yaml:"spec,omitempty"`

	// Internal bookkeeping data, not part of the API.
	*SourceInfo `yaml:"-"`
}

// Program

type ProgramSpecProfile struct {
	// A simple display name to present to users. Should always be set.
	DisplayName string `yaml:"displayName,omitempty"`
	// An email where the program can be reached.
	Email string `yaml:"email,omitempty"`
	// Optional URL of an image that represents this entity.
	Picture string `yaml:"picture,omitempty"`
}

type ProgramSpec struct {
	// The type of program. There is currently no enforced set of values for this field,
	// so it is left up to the adopting organization to choose a nomenclature that matches their org structure.
	// [required]
	Type string `yaml:"type,omitempty"`
	// Optional profile information about the program, mainly for display purposes.
	// [optional]
	Profile *ProgramSpecProfile `yaml:"profile,omitempty"`
	// The immediate parent program in the hierarchy, if any.
	// [optional]
	Parent *Ref `yaml:"parent,omitempty"`
	// The immediate child programs of this program in the hierarchy (whose parent field points to this program).
	// [optional]
	Children []*Ref `yaml:"children"`
	// The users that are members of this program. The entries of this array are entity references.
	// [optional]
	Members []string `yaml:"members,omitempty"`
}

type Program struct {
	APIVersion string       `yaml:"apiVersion,omitempty"`
	Kind       string       `yaml:"kind,omitempty"`
	Metadata   *Metadata    `yaml:"metadata,omitempty"`
	Spec       *ProgramSpec `yaml:"spec,omitempty"`

	// Internal bookkeeping data, not part of the API.
	*SourceInfo `yaml:"-"`
}

//
// Interface implementations and helpers.
//

// GetQName returns the qualified name of the entity.
func (m *Metadata) GetQName() string {
	if m == nil {
		return ""
	}
	if m.Namespace == "" || m.Namespace == DefaultNamespace {
		return m.Name
	}
	return m.Namespace + "/" + m.Name
}

// CompareEntityByName compares two entities lexicographically by (namespace, name).
func CompareEntityByName(a, b Entity) int {
	if c := cmp.Compare(a.GetMetadata().Namespace, b.GetMetadata().Namespace); c != 0 {
		return c
	}
	return cmp.Compare(a.GetMetadata().Name, b.GetMetadata().Name)
}

func (p *Page) GetKind() string              { return p.Kind }
func (p *Page) GetMetadata() *Metadata       { return p.Metadata }
func (p *Page) GetQName() string             { return p.Metadata.GetQName() }
func (p *Page) GetRef() string               { return "page:" + p.GetQName() }
func (p *Page) GetSections() []string        { return p.Spec.inv.sections }
func (p *Page) AddSection(s string)          { p.Spec.inv.sections = append(p.Spec.inv.sections, s) }
func (p *Page) GetSourceInfo() *SourceInfo   { return p.SourceInfo }
func (p *Page) SetSourceInfo(si *SourceInfo) { p.SourceInfo = si }
func (p *Page) Reset() Entity {
	clone := *p
	spec := *p.Spec
	clone.Spec = &spec
	clone.Spec.inv = pageInvRel{}
	return &clone
}

func (s *Section) GetKind() string              { return s.Kind }
func (s *Section) GetMetadata() *Metadata       { return s.Metadata }
func (s *Section) GetQName() string             { return s.Metadata.GetQName() }
func (s *Section) GetRef() string               { return "section:" + s.GetQName() }
func (s *Section) GetPage() *Ref                { return s.Spec.Page }
func (s *Section) GetPartners() []string        { return s.Spec.inv.partners }
func (s *Section) AddPartner(p string)          { s.Spec.inv.partners = append(s.Spec.inv.partners, p) }
func (s *Section) GetSourceInfo() *SourceInfo   { return s.SourceInfo }
func (s *Section) SetSourceInfo(si *SourceInfo) { s.SourceInfo = si }
func (s *Section) Reset() Entity {
	clone := *s
	spec := *s.Spec
	clone.Spec = &spec
	clone.Spec.inv = sectionInvRel{}
	return &clone
}

func (p *Partner) GetKind() string              { return p.Kind }
func (p *Partner) GetMetadata() *Metadata       { return p.Metadata }
func (p *Partner) GetQName() string             { return p.Metadata.GetQName() }
func (p *Partner) GetRef() string               { return "partner:" + p.GetQName() }
func (p *Partner) GetOwner() *Ref               { return p.Spec.Owner }
func (p *Partner) GetCategory() string          { return p.Spec.Category }
func (p *Partner) GetSection() *Ref             { return p.Spec.Section }
func (p *Partner) GetSourceInfo() *SourceInfo   { return p.SourceInfo }
func (p *Partner) SetSourceInfo(si *SourceInfo) { p.SourceInfo = si }
func (p *Partner) Reset() Entity {
	clone := *p
	spec := *p.Spec
	clone.Spec = &spec
	return &clone
}

func (a *Asset) GetKind() string              { return a.Kind }
func (a *Asset) GetMetadata() *Metadata       { return a.Metadata }
func (a *Asset) GetQName() string             { return a.Metadata.GetQName() }
func (a *Asset) GetRef() string               { return "asset:" + a.GetQName() }
func (a *Asset) GetUsedBy() []string          { return a.Spec.inv.usedBy }
func (a *Asset) AddUsedBy(p string)           { a.Spec.inv.usedBy = append(a.Spec.inv.usedBy, p) }
func (a *Asset) GetSourceInfo() *SourceInfo   { return a.SourceInfo }
func (a *Asset) SetSourceInfo(si *SourceInfo) { a.SourceInfo = si }
func (a *Asset) Reset() Entity {
	clone := *a
	spec := *a.Spec
	clone.Spec = &spec
	clone.Spec.inv = assetInvRel{}
	return &clone
}

func (g *Program) GetKind() string              { return g.Kind }
func (g *Program) GetMetadata() *Metadata       { return g.Metadata }
func (g *Program) GetQName() string             { return g.Metadata.GetQName() }
func (g *Program) GetRef() string               { return "program:" + g.GetQName() }
func (g *Program) GetDisplayName() string       { return g.Spec.Profile.DisplayName }
func (g *Program) GetSourceInfo() *SourceInfo   { return g.SourceInfo }
func (g *Program) SetSourceInfo(si *SourceInfo) { g.SourceInfo = si }
func (g *Program) Reset() Entity {
	clone := *g
	spec := *g.Spec
	clone.Spec = &spec
	return &clone
}
