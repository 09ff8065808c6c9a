package catalog

import (
	"fmt"
	"maps"
	"path"
	"strings"

	"partnercat.dev/partnercat/internal/api"
)

func APIRef(r *Ref) *api.Ref {
	return &api.Ref{
		Kind:      string(r.Kind),
		Namespace: r.Namespace,
		Name:      r.Name,
	}
}

// NewRefFromAPI creates a new catalog.Ref from the given api.Ref.
// All fields must be present and valid. In particular, an empty Kind
// field is not allowed.
func NewRefFromAPI(r *api.Ref) (*Ref, error) {
	if r == nil {
		return nil, fmt.Errorf("nil reference")
	}
	if !IsValidKind(r.Kind) {
		return nil, fmt.Errorf("invalid kind: %q", r.Kind)
	}
	return NewRefFromAPIWithKind(Kind(r.Kind), r)
}

// NewRefFromAPIWithKind creates a new catalog.Ref from the given api.Ref.
// It expects the Kind field of r either to be empty or to be equal to the given kind.
// If r.Kind is empty, kind is assigned to the returned Ref.
func NewRefFromAPIWithKind(kind Kind, r *api.Ref) (*Ref, error) {
	if r == nil {
		return nil, fmt.Errorf("nil reference for kind %q", kind)
	}
	if !IsValidKind(string(kind)) {
		return nil, fmt.Errorf("invalid kind: %q", kind)
	}
	if !IsValidName(r.Name) {
		return nil, fmt.Errorf("invalid name: %q", r.Name)
	}
	namespace := DefaultNamespace
	if r.Namespace != "" {
		namespace = r.Namespace
	}
	if !IsValidNamespace(namespace) {
		return nil, fmt.Errorf("invalid namespace: %q", namespace)
	}
	if r.Kind != "" && r.Kind != string(kind) {
		return nil, fmt.Errorf("kind mismatch in ref conversion: got %q, want %q", r.Kind, kind)
	}
	return &Ref{
		Kind:      kind,
		Namespace: namespace,
		Name:      r.Name,
	}, nil
}

func NewLinkFromAPI(l *api.Link) (*Link, error) {
	if l == nil {
		return nil, fmt.Errorf("Link is nil")
	}
	return &Link{
		URL:   l.URL,
		Title: l.Title,
		Icon:  l.Icon,
		Type:  l.Type,
	}, nil
}

func NewMetadataFromAPI(m *api.Metadata) (*Metadata, error) {
	if m == nil {
		return nil, fmt.Errorf("Metadata is nil")
	}
	if !IsValidName(m.Name) {
		return nil, fmt.Errorf("invalid name: %q", m.Name)
	}
	namespace := DefaultNamespace
	if m.Namespace != "" {
		namespace = m.Namespace
	}
	if !IsValidNamespace(namespace) {
		return nil, fmt.Errorf("invalid namespace: %q", namespace)
	}
	meta := &Metadata{
		Name:        m.Name,
		Namespace:   namespace,
		Title:       m.Title,
		Description: m.Description,
		Labels:      make(map[string]string),
		Annotations: make(map[string]string),
		Tags:        make([]string, len(m.Tags)),
		Links:       make([]*Link, len(m.Links)),
	}
	copy(meta.Tags, m.Tags)
	if m.Labels != nil {
		meta.Labels = maps.Clone(m.Labels)
	}
	if m.Annotations != nil {
		meta.Annotations = maps.Clone(m.Annotations)
	}
	for i, l := range m.Links {
		link, err := NewLinkFromAPI(l)
		if err != nil {
			return nil, err
		}
		meta.Links[i] = link
	}
	return meta, nil
}

func NewPageSpecFromAPI(p *api.PageSpec) (*PageSpec, error) {
	if p == nil {
		return nil, fmt.Errorf("PageSpec is nil")
	}
	owner, err := NewRefFromAPIWithKind(api.KindProgram, p.Owner)
	if err != nil {
		return nil, fmt.Errorf("invalid owner ref: %v", err)
	}
	spec := &PageSpec{
		Owner: owner,
		Type:  p.Type,
	}
	if p.SubpageOf != nil {
		parent, err := NewRefFromAPIWithKind(api.KindPage, p.SubpageOf)
		if err != nil {
			return nil, fmt.Errorf("invalid subpageof ref: %v", err)
		}
		spec.SubpageOf = parent
	}
	return spec, nil
}

func NewPageFromAPI(p *api.Page) (*Page, error) {
	if p == nil {
		return nil, fmt.Errorf("Page is nil")
	}
	meta, err := NewMetadataFromAPI(p.Metadata)
	if err != nil {
		return nil, err
	}
	spec, err := NewPageSpecFromAPI(p.Spec)
	if err != nil {
		return nil, err
	}

	return &Page{
		Metadata:   meta,
		Spec:       spec,
		sourceInfo: p.SourceInfo,
	}, nil
}

func NewSectionSpecFromAPI(s *api.SectionSpec) (*SectionSpec, error) {
	if s == nil {
		return nil, fmt.Errorf("SectionSpec is nil")
	}
	owner, err := NewRefFromAPIWithKind(api.KindProgram, s.Owner)
	if err != nil {
		return nil, fmt.Errorf("invalid owner ref: %v", err)
	}
	page, err := NewRefFromAPIWithKind(api.KindPage, s.Page)
	if err != nil {
		return nil, fmt.Errorf("invalid page ref: %v", err)
	}
	spec := &SectionSpec{
		Owner: owner,
		Page:  page,
		Rank:  s.Rank,
		Type:  s.Type,
	}
	return spec, nil
}

func NewSectionFromAPI(s *api.Section) (*Section, error) {
	if s == nil {
		return nil, fmt.Errorf("Section is nil")
	}
	meta, err := NewMetadataFromAPI(s.Metadata)
	if err != nil {
		return nil, err
	}
	spec, err := NewSectionSpecFromAPI(s.Spec)
	if err != nil {
		return nil, err
	}

	return &Section{
		Metadata:   meta,
		Spec:       spec,
		sourceInfo: s.SourceInfo,
	}, nil
}

func NewLogoFromAPI(l *api.Logo) (*Logo, error) {
	if l == nil {
		return nil, fmt.Errorf("Logo is nil")
	}
	asset, err := NewRefFromAPIWithKind(api.KindAsset, l.Asset)
	if err != nil {
		return nil, fmt.Errorf("invalid asset ref: %v", err)
	}
	logo := &Logo{
		Asset: asset,
		Alt:   l.Alt,
	}
	if l.Width != nil {
		width := *l.Width
		logo.Width = &width
	}
	return logo, nil
}

func NewPartnerSpecFromAPI(p *api.PartnerSpec) (*PartnerSpec, error) {
	if p == nil {
		return nil, fmt.Errorf("PartnerSpec is nil")
	}
	section, err := NewRefFromAPIWithKind(api.KindSection, p.Section)
	if err != nil {
		return nil, fmt.Errorf("invalid section ref: %v", err)
	}
	logo, err := NewLogoFromAPI(p.Logo)
	if err != nil {
		return nil, fmt.Errorf("invalid logo: %v", err)
	}
	spec := &PartnerSpec{
		Category: p.Category,
		Section:  section,
		URL:      p.URL,
		Logo:     logo,
	}
	if p.Owner != nil {
		owner, err := NewRefFromAPIWithKind(api.KindProgram, p.Owner)
		if err != nil {
			return nil, fmt.Errorf("invalid owner ref: %v", err)
		}
		spec.Owner = owner
	}
	return spec, nil
}

func NewPartnerFromAPI(p *api.Partner) (*Partner, error) {
	if p == nil {
		return nil, fmt.Errorf("Partner is nil")
	}
	meta, err := NewMetadataFromAPI(p.Metadata)
	if err != nil {
		return nil, err
	}
	spec, err := NewPartnerSpecFromAPI(p.Spec)
	if err != nil {
		return nil, err
	}

	return &Partner{
		Metadata:   meta,
		Spec:       spec,
		sourceInfo: p.SourceInfo,
	}, nil
}

// AssetFormat derives the image format from the file extension of p,
// e.g. "img/logo.svg" => "svg".
func AssetFormat(p string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}

func NewAssetSpecFromAPI(a *api.AssetSpec) (*AssetSpec, error) {
	if a == nil {
		return nil, fmt.Errorf("AssetSpec is nil")
	}
	spec := &AssetSpec{
		Path:   a.Path,
		Format: AssetFormat(a.Path),
	}
	if a.Owner != nil {
		owner, err := NewRefFromAPIWithKind(api.KindProgram, a.Owner)
		if err != nil {
			return nil, fmt.Errorf("invalid owner ref: %v", err)
		}
		spec.Owner = owner
	}
	return spec, nil
}

func NewAssetFromAPI(a *api.Asset) (*Asset, error) {
	if a == nil {
		return nil, fmt.Errorf("Asset is nil")
	}
	meta, err := NewMetadataFromAPI(a.Metadata)
	if err != nil {
		return nil, err
	}
	spec, err := NewAssetSpecFromAPI(a.Spec)
	if err != nil {
		return nil, err
	}

	return &Asset{
		Metadata:   meta,
		Spec:       spec,
		sourceInfo: a.SourceInfo,
	}, nil
}

func NewProgramSpecFromAPI(g *api.ProgramSpec) (*ProgramSpec, error) {
	if g == nil {
		return nil, fmt.Errorf("ProgramSpec is nil")
	}
	spec := &ProgramSpec{
		Type:    g.Type,
		Members: make([]string, len(g.Members)),
	}
	if g.Profile != nil {
		spec.Profile = &ProgramSpecProfile{
			DisplayName: g.Profile.DisplayName,
			Email:       g.Profile.Email,
			Picture:     g.Profile.Picture,
		}
	}
	copy(spec.Members, g.Members)

	if g.Parent != nil {
		parent, err := NewRefFromAPIWithKind(api.KindProgram, g.Parent)
		if err != nil {
			return nil, fmt.Errorf("invalid parent ref: %v", err)
		}
		spec.Parent = parent
	}
	for _, c := range g.Children {
		child, err := NewRefFromAPIWithKind(api.KindProgram, c)
		if err != nil {
			return nil, fmt.Errorf("invalid child ref: %v", err)
		}
		spec.Children = append(spec.Children, child)
	}
	return spec, nil
}

func NewProgramFromAPI(g *api.Program) (*Program, error) {
	if g == nil {
		return nil, fmt.Errorf("Program is nil")
	}
	meta, err := NewMetadataFromAPI(g.Metadata)
	if err != nil {
		return nil, err
	}
	spec, err := NewProgramSpecFromAPI(g.Spec)
	if err != nil {
		return nil, err
	}

	return &Program{
		Metadata:   meta,
		Spec:       spec,
		sourceInfo: g.SourceInfo,
	}, nil
}

// cloneEntityFromAPI creates a clone (deep copy) of an entity by re-decoding its api.Entity node.
// All computed fields of the catalog entity will be missing in the cloned result.
func cloneEntityFromAPI[T api.Entity](e Entity) (Entity, error) {
	var apiVal T
	si := e.GetSourceInfo()
	if si == nil {
		return nil, fmt.Errorf("missing source info")
	}
	err := e.GetSourceInfo().Node.Decode(&apiVal)
	if err != nil {
		return nil, fmt.Errorf("cloneEntityFromAPI(): Could not decode entity %s: %v", e.GetRef(), err)
	}
	// Copy over source info, which is not part of the decoded node.
	apiVal.SetSourceInfo(e.GetSourceInfo())
	cpy, err := NewEntityFromAPI(apiVal)
	if err != nil {
		return nil, fmt.Errorf("cloneEntityFromAPI(): Could not convert entity %s: %v", e.GetRef(), err)
	}
	return cpy, nil
}

func NewEntityFromAPI(e api.Entity) (Entity, error) {
	switch t := e.(type) {
	case *api.Page:
		return NewPageFromAPI(t)
	case *api.Section:
		return NewSectionFromAPI(t)
	case *api.Partner:
		return NewPartnerFromAPI(t)
	case *api.Asset:
		return NewAssetFromAPI(t)
	case *api.Program:
		return NewProgramFromAPI(t)
	}
	return nil, fmt.Errorf("unsupported entity type: %T", e)
}
