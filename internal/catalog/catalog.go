// Package catalog defines the model classes that form the partner catalog.
// See the api package for the types that are mashalled to / unmarshalled from YAML.
package catalog

import (
	"cmp"
	"slices"
	"strings"

	"partnercat.dev/partnercat/internal/api"
)

const (
	// The name of the (implicit) default namespace.
	// In partnercat, entity references typically omit the default namespace
	// even in fully qualified form (e.g., asset:my-logo).
	DefaultNamespace = api.DefaultNamespace
)

type Kind string

const (
	KindPage    Kind = api.KindPage
	KindSection Kind = api.KindSection
	KindPartner Kind = api.KindPartner
	KindAsset   Kind = api.KindAsset
	KindProgram Kind = api.KindProgram
)

// Well-known annotation and label names with defined interpretations.
const (
	AnnotRepository = "partnercat/repo"
	AnnotGenDocs    = "partnercat/gen-docs"
)

// Image formats that assets may use. Derived from the asset's file extension.
var supportedAssetFormats = map[string]bool{
	"svg":  true,
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
}

// IsSupportedAssetFormat reports whether format names a supported image format.
func IsSupportedAssetFormat(format string) bool {
	return supportedAssetFormats[format]
}

type Ref struct {
	Kind      Kind
	Namespace string
	Name      string
}

// Entity is the interface implemented by all entity kinds (Partner, Section, etc.).
type Entity interface {
	GetKind() Kind
	GetMetadata() *Metadata
	// Returns the fully qualified entity reference.
	GetRef() *Ref
	// Returns the namespace qualified name, e.g. "ns1/foo". The default namespace
	// is omitted, i.e. an entity "default/foo" is returned as "foo".
	GetQName() string

	// Returns the spec.type of the entity, if one exists and is set.
	GetType() string
	// Returns the spec.owner reference of the entity, if one exists and is set.
	GetOwner() *Ref

	// GetSourceInfo returns internal bookkeeping data, e.g. for error logging
	// and reconstructing YAML files (retaining the exact structure including comments).
	GetSourceInfo() *api.SourceInfo
	SetSourceInfo(si *api.SourceInfo)

	// Reset creates a shallow copy of the entity with computed values (inv. relations) removed.
	Reset() Entity
}

// SectionPart is the interface implemented by all entity kinds that appear as parts
// of a Section entity (Partners, Sections).
type SectionPart interface {
	Entity
	// Returns the entity reference of the Section that this entity is a part of.
	GetSection() *Ref
}

// Metadata

type Link struct {
	// A url in a standard uri format.
	// [required]
	URL string
	// A user friendly display name for the link.
	// [optional]
	Title string
	// A key representing a visual icon to be displayed in the UI.
	// [optional]
	Icon string
	// An optional value to categorize links into specific groups.
	// [optional]
	Type string

	// Whether the link was auto-generated. False for user-provided links.
	IsGenerated bool
}

type Metadata struct {
	// The name of the entity. Must be unique within the catalog at any given point in time, for any given namespace + kind pair.
	// [required]
	Name string
	// The namespace that the entity belongs to. If empty, the entity is assume to live in the default namespace.
	// [optional]
	Namespace string
	// A display name of the entity, to be presented in user interfaces instead of the name property, when available.
	// [optional]
	Title string
	// A short (typically relatively few words, on one line) description of the entity.
	// [optional]
	Description string
	// Key/value pairs of identifying information attached to the entity.
	// [optional]
	Labels map[string]string
	// Key/value pairs of non-identifying auxiliary information attached to the entity.
	// [optional]
	Annotations map[string]string
	// A list of single-valued strings, to for example classify catalog entities in various ways.
	// [optional]
	Tags []string
	// A list of external hyperlinks related to the entity.
	// [optional]
	Links []*Link
}

// Page

type pageInvRel struct {
	sections []*Ref
}

type PageSpec struct {
	// An entity reference to the owner of the page.
	// [required]
	Owner *Ref
	// An entity reference to another page of which the page is a part.
	// [optional]
	SubpageOf *Ref
	// The type of page. There is currently no enforced set of values for this field,
	// so it is left up to the adopting organization to choose a nomenclature that matches
	// their site structure.
	// [optional]
	Type string

	// These fields are not part of the YAML schema.
	// They are populated on demand to make "reverse navigation" easier.
	inv pageInvRel
}

type Page struct {
	Metadata *Metadata
	Spec     *PageSpec

	sourceInfo *api.SourceInfo
}

// Section

type sectionInvRel struct {
	partners []*Ref
}

type SectionSpec struct {
	// An entity reference to the owner of the section.
	// [required]
	Owner *Ref
	// An entity reference to the page that the section belongs to.
	// [required]
	Page *Ref
	// The position of the section on its page. Sections with a lower rank
	// are rendered first. Sections with equal rank are ordered by name.
	// [optional]
	Rank int
	// The type of section. There is currently no enforced set of values for this field,
	// so it is left up to the adopting organization to choose a nomenclature that matches
	// their site structure.
	// [optional]
	Type string

	// These fields are not part of the YAML schema.
	// They are populated on demand to make "reverse navigation" easier.
	inv sectionInvRel
}

type Section struct {
	Metadata *Metadata
	Spec     *SectionSpec

	sourceInfo *api.SourceInfo
}

// Partner

type Logo struct {
	// An entity reference to the asset holding the logo image.
	// [required]
	Asset *Ref
	// The alternative text shown in place of the image.
	// [required]
	Alt string
	// A display width hint for the logo.
	// [optional]
	Width *api.Dimension
}

type PartnerSpec struct {
	// The organization category of the partner.
	// [required]
	Category string
	// An entity reference to the section that the partner is listed in.
	// [required]
	Section *Ref
	// An entity reference to the owner of the partner entry.
	// [optional]
	Owner *Ref
	// The absolute http(s) URL that the partner's listing links to.
	// [required]
	URL string
	// The logo displayed for the partner.
	// [required]
	Logo *Logo
}

type Partner struct {
	Metadata *Metadata
	Spec     *PartnerSpec

	sourceInfo *api.SourceInfo
}

// Asset

type assetInvRel struct {
	usedBy []*Ref
}

type AssetSpec struct {
	// The path of the image file, relative to the catalog root.
	// [required]
	Path string
	// An entity reference to the owner of the asset.
	// [optional]
	Owner *Ref
	// The image format, derived from the file extension of Path (e.g. "svg").
	// Computed during conversion, not part of the YAML schema.
	Format string

	// These fields are not part of the YAML schema.
	// They are populated on demand to make "reverse navigation" easier.
	inv assetInvRel
}

type Asset struct {
	Metadata *Metadata
	Spec     *AssetSpec

	sourceInfo *api.SourceInfo
}

// Program

type ProgramSpecProfile struct {
	// A simple display name to present to users. Should always be set.
	DisplayName string
	// An email where the program can be reached.
	Email string
	// Optional URL of an image that represents this entity.
	Picture string
}

type ProgramSpec struct {
	// The type of program. There is currently no enforced set of values for this field,
	// so it is left up to the adopting organization to choose a nomenclature that matches their org structure.
	// [required]
	Type string
	// Optional profile information about the program, mainly for display purposes.
	// [optional]
	Profile *ProgramSpecProfile
	// The immediate parent program in the hierarchy, if any.
	// [optional]
	Parent *Ref
	// The immediate child programs of this program in the hierarchy (whose parent field points to this program).
	// [optional]
	Children []*Ref
	// The users that are members of this program. The entries of this array are uninterpreted strings.
	// [optional]
	Members []string
}

type Program struct {
	Metadata *Metadata
	Spec     *ProgramSpec

	sourceInfo *api.SourceInfo
}

// Interface implementations and helpers.
func (m *Metadata) QName() string {
	if m.Namespace != "" && m.Namespace != DefaultNamespace {
		return m.Namespace + "/" + m.Name
	}
	return m.Name
}

func (e *Ref) QName() string {
	if e.Namespace != "" && e.Namespace != DefaultNamespace {
		return e.Namespace + "/" + e.Name
	}
	return e.Name
}

func (e *Ref) Equal(other *Ref) bool {
	return e.Kind == other.Kind && e.Namespace == other.Namespace && e.Name == other.Name
}

func (e *Ref) String() string {
	var sb strings.Builder
	if e.Kind != "" {
		sb.WriteString(string(e.Kind) + ":")
	}
	if e.Namespace != "" && e.Namespace != DefaultNamespace {
		sb.WriteString(e.Namespace + "/")
	}
	sb.WriteString(e.Name)
	return sb.String()
}

func newRef(kind Kind, meta *Metadata) *Ref {
	namespace := meta.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Ref{
		Kind:      kind,
		Namespace: namespace,
		Name:      meta.Name,
	}
}

// Compare compares two Refs lexicographically by (kind, namespace, name).
func (r *Ref) Compare(s *Ref) int {
	// kind
	if c := cmp.Compare(r.Kind, s.Kind); c != 0 {
		return c
	}
	// namespace
	rDef := r.Namespace == DefaultNamespace
	sDef := s.Namespace == DefaultNamespace
	if rDef != sDef {
		if rDef {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(r.Namespace, s.Namespace); c != 0 {
		return c
	}
	// name
	return cmp.Compare(r.Name, s.Name)
}

// CompareEntityByRef compares two entities lexicographically by (kind, namespace, name).
func CompareEntityByRef(a, b Entity) int {
	return a.GetRef().Compare(b.GetRef())
}

func compareRef(a, b *Ref) int {
	return a.Compare(b)
}

func (p *Page) GetKind() Kind                    { return KindPage }
func (p *Page) GetMetadata() *Metadata           { return p.Metadata }
func (p *Page) GetRef() *Ref                     { return newRef(KindPage, p.Metadata) }
func (p *Page) GetQName() string                 { return p.Metadata.QName() }
func (p *Page) GetType() string                  { return p.Spec.Type }
func (p *Page) GetOwner() *Ref                   { return p.Spec.Owner }
func (p *Page) GetSections() []*Ref              { return p.Spec.inv.sections }
func (p *Page) AddSection(s *Ref)                { p.Spec.inv.sections = append(p.Spec.inv.sections, s) }
func (p *Page) GetSourceInfo() *api.SourceInfo   { return p.sourceInfo }
func (p *Page) SetSourceInfo(si *api.SourceInfo) { p.sourceInfo = si }
func (p *Page) Reset() Entity {
	clone := *p
	spec := *p.Spec
	clone.Spec = &spec
	clone.Spec.inv = pageInvRel{}
	return &clone
}
func (p *Page) SortRefs() {
	slices.SortFunc(p.Spec.inv.sections, compareRef)
}

func (s *Section) GetKind() Kind                    { return KindSection }
func (s *Section) GetMetadata() *Metadata           { return s.Metadata }
func (s *Section) GetRef() *Ref                     { return newRef(KindSection, s.Metadata) }
func (s *Section) GetQName() string                 { return s.Metadata.QName() }
func (s *Section) GetType() string                  { return s.Spec.Type }
func (s *Section) GetOwner() *Ref                   { return s.Spec.Owner }
func (s *Section) GetPage() *Ref                    { return s.Spec.Page }
func (s *Section) GetRank() int                     { return s.Spec.Rank }
func (s *Section) GetPartners() []*Ref              { return s.Spec.inv.partners }
func (s *Section) GetSection() *Ref                 { return s.GetRef() }
func (s *Section) AddPartner(p *Ref)                { s.Spec.inv.partners = append(s.Spec.inv.partners, p) }
func (s *Section) GetSourceInfo() *api.SourceInfo   { return s.sourceInfo }
func (s *Section) SetSourceInfo(si *api.SourceInfo) { s.sourceInfo = si }
func (s *Section) Reset() Entity {
	clone := *s
	spec := *s.Spec
	clone.Spec = &spec
	clone.Spec.inv = sectionInvRel{}
	return &clone
}
func (s *Section) SortRefs() {
	slices.SortFunc(s.Spec.inv.partners, compareRef)
}

// CompareSectionByRank orders sections by ascending rank, breaking ties by ref.
func CompareSectionByRank(a, b *Section) int {
	if c := cmp.Compare(a.Spec.Rank, b.Spec.Rank); c != 0 {
		return c
	}
	return CompareEntityByRef(a, b)
}

func (p *Partner) GetKind() Kind                    { return KindPartner }
func (p *Partner) GetMetadata() *Metadata           { return p.Metadata }
func (p *Partner) GetRef() *Ref                     { return newRef(KindPartner, p.Metadata) }
func (p *Partner) GetQName() string                 { return p.Metadata.QName() }
func (p *Partner) GetType() string                  { return p.Spec.Category }
func (p *Partner) GetCategory() string              { return p.Spec.Category }
func (p *Partner) GetOwner() *Ref                   { return p.Spec.Owner }
func (p *Partner) GetSection() *Ref                 { return p.Spec.Section }
func (p *Partner) GetURL() string                   { return p.Spec.URL }
func (p *Partner) GetLogo() *Logo                   { return p.Spec.Logo }
func (p *Partner) GetSourceInfo() *api.SourceInfo   { return p.sourceInfo }
func (p *Partner) SetSourceInfo(si *api.SourceInfo) { p.sourceInfo = si }
func (p *Partner) Reset() Entity {
	clone := *p
	spec := *p.Spec
	clone.Spec = &spec
	return &clone
}

func (a *Asset) GetKind() Kind                    { return KindAsset }
func (a *Asset) GetMetadata() *Metadata           { return a.Metadata }
func (a *Asset) GetRef() *Ref                     { return newRef(KindAsset, a.Metadata) }
func (a *Asset) GetQName() string                 { return a.Metadata.QName() }
func (a *Asset) GetType() string                  { return a.Spec.Format }
func (a *Asset) GetOwner() *Ref                   { return a.Spec.Owner }
func (a *Asset) GetPath() string                  { return a.Spec.Path }
func (a *Asset) GetFormat() string                { return a.Spec.Format }
func (a *Asset) GetUsedBy() []*Ref                { return a.Spec.inv.usedBy }
func (a *Asset) AddUsedBy(p *Ref)                 { a.Spec.inv.usedBy = append(a.Spec.inv.usedBy, p) }
func (a *Asset) GetSourceInfo() *api.SourceInfo   { return a.sourceInfo }
func (a *Asset) SetSourceInfo(si *api.SourceInfo) { a.sourceInfo = si }
func (a *Asset) Reset() Entity {
	clone := *a
	spec := *a.Spec
	clone.Spec = &spec
	clone.Spec.inv = assetInvRel{}
	return &clone
}
func (a *Asset) SortRefs() {
	slices.SortFunc(a.Spec.inv.usedBy, compareRef)
}

func (g *Program) GetKind() Kind                    { return KindProgram }
func (g *Program) GetOwner() *Ref                   { return nil }
func (g *Program) GetMetadata() *Metadata           { return g.Metadata }
func (g *Program) GetRef() *Ref                     { return newRef(KindProgram, g.Metadata) }
func (g *Program) GetQName() string                 { return g.Metadata.QName() }
func (g *Program) GetType() string                  { return g.Spec.Type }
func (g *Program) GetDisplayName() string           { return g.Spec.Profile.DisplayName }
func (g *Program) GetSourceInfo() *api.SourceInfo   { return g.sourceInfo }
func (g *Program) SetSourceInfo(si *api.SourceInfo) { g.sourceInfo = si }
func (g *Program) Reset() Entity {
	clone := *g
	spec := *g.Spec
	clone.Spec = &spec
	return &clone
}

func ParseRef(s string) (*Ref, error) {
	r, err := api.ParseRef(s)
	if err != nil {
		return nil, err
	}
	return NewRefFromAPI(r)
}

func ParseRefAs(kind Kind, s string) (*Ref, error) {
	r, err := api.ParseRef(s)
	if err != nil {
		return nil, err
	}
	return NewRefFromAPIWithKind(kind, r)
}
