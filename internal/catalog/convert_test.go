package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"
	"partnercat.dev/partnercat/internal/api"
)

var commonOpts = []cmp.Option{
	cmp.AllowUnexported(
		Page{}, PageSpec{}, pageInvRel{},
		Section{}, SectionSpec{}, sectionInvRel{},
		Partner{}, PartnerSpec{},
		Asset{}, AssetSpec{}, assetInvRel{},
		Program{}, ProgramSpec{},
	),
	cmpopts.EquateEmpty(),
}

func TestCloneEntityFromAPI_Partner(t *testing.T) {
	input := `
kind: Partner
metadata:
  name: yankee
spec:
  category: industry
  section: main-sponsors
  url: https://yankee.example.com
  logo:
    asset: yankee-logo
    alt: Yankee Corp.
`
	var node yaml.Node
	err := yaml.Unmarshal([]byte(input), &node)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	var partner api.Partner
	if err := node.Decode(&partner); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	partner.SetSourceInfo(&api.SourceInfo{
		Node: &node,
	})
	p, err := NewEntityFromAPI(&partner)
	if err != nil {
		t.Fatalf("NewEntityFromAPI failed: %v", err)
	}
	cpy, err := cloneEntityFromAPI[*api.Partner](p)
	if err != nil {
		t.Fatalf("cloneEntityFromAPI failed: %v", err)
	}
	if !cpy.GetRef().Equal(p.GetRef()) {
		t.Errorf("Refs differ: got: %s want: %s", cpy.GetRef(), p.GetRef())
	}
	if cpy.GetSourceInfo() != p.GetSourceInfo() {
		t.Error("SourceInfo pointers differ")
	}
}

func TestNewPartnerFromAPI(t *testing.T) {
	si := &api.SourceInfo{Line: 1}
	apiPartner := &api.Partner{
		Kind: "Partner",
		Metadata: &api.Metadata{
			Name:        "partner",
			Namespace:   "ns",
			Title:       "Title",
			Description: "Desc",
			Labels:      map[string]string{"l": "v"},
			Annotations: map[string]string{"a": "v"},
			Tags:        []string{"t1"},
			Links: []*api.Link{
				{URL: "http://url", Title: "Link", Icon: "icon", Type: "type"},
			},
		},
		Spec: &api.PartnerSpec{
			Category: "industry",
			Section:  &api.Ref{Name: "sec", Kind: "section"},
			Owner:    &api.Ref{Name: "owner", Kind: "program"},
			URL:      "https://partner.example.com",
			Logo: &api.Logo{
				Asset: &api.Ref{Name: "logo", Kind: "asset"},
				Alt:   "Partner Inc.",
				Width: &api.Dimension{Raw: "240px", Value: 240, Unit: "px"},
			},
		},
		SourceInfo: si,
	}

	got, err := NewPartnerFromAPI(apiPartner)
	if err != nil {
		t.Fatalf("NewPartnerFromAPI() error = %v", err)
	}

	want := &Partner{
		Metadata: &Metadata{
			Name:        "partner",
			Namespace:   "ns",
			Title:       "Title",
			Description: "Desc",
			Labels:      map[string]string{"l": "v"},
			Annotations: map[string]string{"a": "v"},
			Tags:        []string{"t1"},
			Links: []*Link{
				{URL: "http://url", Title: "Link", Icon: "icon", Type: "type"},
			},
		},
		Spec: &PartnerSpec{
			Category: "industry",
			Section:  &Ref{Name: "sec", Namespace: "default", Kind: KindSection},
			Owner:    &Ref{Name: "owner", Namespace: "default", Kind: KindProgram},
			URL:      "https://partner.example.com",
			Logo: &Logo{
				Asset: &Ref{Name: "logo", Namespace: "default", Kind: KindAsset},
				Alt:   "Partner Inc.",
				Width: &api.Dimension{Raw: "240px", Value: 240, Unit: "px"},
			},
		},
		sourceInfo: si,
	}

	if diff := cmp.Diff(want, got, commonOpts...); diff != "" {
		t.Errorf("NewPartnerFromAPI() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewSectionFromAPI(t *testing.T) {
	si := &api.SourceInfo{Line: 3}
	apiSection := &api.Section{
		Kind: "Section",
		Metadata: &api.Metadata{
			Name: "my-section",
		},
		Spec: &api.SectionSpec{
			Type:  "sponsors",
			Rank:  2,
			Owner: &api.Ref{Name: "owner", Kind: "program"},
			Page:  &api.Ref{Name: "page", Kind: "page"},
		},
		SourceInfo: si,
	}

	got, err := NewSectionFromAPI(apiSection)
	if err != nil {
		t.Fatalf("NewSectionFromAPI() error = %v", err)
	}

	want := &Section{
		Metadata: &Metadata{
			Name:        "my-section",
			Namespace:   "default",
			Labels:      map[string]string{},
			Annotations: map[string]string{},
		},
		Spec: &SectionSpec{
			Type:  "sponsors",
			Rank:  2,
			Owner: &Ref{Name: "owner", Namespace: "default", Kind: KindProgram},
			Page:  &Ref{Name: "page", Namespace: "default", Kind: KindPage},
		},
		sourceInfo: si,
	}

	if diff := cmp.Diff(want, got, commonOpts...); diff != "" {
		t.Errorf("NewSectionFromAPI() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewPageFromAPI(t *testing.T) {
	si := &api.SourceInfo{Line: 4}
	apiPage := &api.Page{
		Kind: "Page",
		Metadata: &api.Metadata{
			Name: "my-page",
		},
		Spec: &api.PageSpec{
			Type:      "listing",
			Owner:     &api.Ref{Name: "owner", Kind: "program"},
			SubpageOf: &api.Ref{Name: "parent", Kind: "page"},
		},
		SourceInfo: si,
	}

	got, err := NewPageFromAPI(apiPage)
	if err != nil {
		t.Fatalf("NewPageFromAPI() error = %v", err)
	}

	want := &Page{
		Metadata: &Metadata{
			Name:        "my-page",
			Namespace:   "default",
			Labels:      map[string]string{},
			Annotations: map[string]string{},
		},
		Spec: &PageSpec{
			Type:      "listing",
			Owner:     &Ref{Name: "owner", Namespace: "default", Kind: KindProgram},
			SubpageOf: &Ref{Name: "parent", Namespace: "default", Kind: KindPage},
		},
		sourceInfo: si,
	}

	if diff := cmp.Diff(want, got, commonOpts...); diff != "" {
		t.Errorf("NewPageFromAPI() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewAssetFromAPI(t *testing.T) {
	si := &api.SourceInfo{Line: 5}
	apiAsset := &api.Asset{
		Kind: "Asset",
		Metadata: &api.Metadata{
			Name: "my-logo",
		},
		Spec: &api.AssetSpec{
			Path:  "logos/my-logo.SVG",
			Owner: &api.Ref{Name: "owner", Kind: "program"},
		},
		SourceInfo: si,
	}

	got, err := NewAssetFromAPI(apiAsset)
	if err != nil {
		t.Fatalf("NewAssetFromAPI() error = %v", err)
	}

	want := &Asset{
		Metadata: &Metadata{
			Name:        "my-logo",
			Namespace:   "default",
			Labels:      map[string]string{},
			Annotations: map[string]string{},
		},
		Spec: &AssetSpec{
			Path:   "logos/my-logo.SVG",
			Format: "svg",
			Owner:  &Ref{Name: "owner", Namespace: "default", Kind: KindProgram},
		},
		sourceInfo: si,
	}

	if diff := cmp.Diff(want, got, commonOpts...); diff != "" {
		t.Errorf("NewAssetFromAPI() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewProgramFromAPI(t *testing.T) {
	si := &api.SourceInfo{Line: 6}
	apiProgram := &api.Program{
		Kind: "Program",
		Metadata: &api.Metadata{
			Name: "my-program",
		},
		Spec: &api.ProgramSpec{
			Type: "outreach",
			Profile: &api.ProgramSpecProfile{
				DisplayName: "My Program",
				Email:       "g@example.com",
				Picture:     "pic.png",
			},
			Parent: &api.Ref{Name: "parent", Kind: "program"},
			Children: []*api.Ref{
				{Name: "child", Kind: "program"},
			},
			Members: []string{"user1", "user2"},
		},
		SourceInfo: si,
	}

	got, err := NewProgramFromAPI(apiProgram)
	if err != nil {
		t.Fatalf("NewProgramFromAPI() error = %v", err)
	}

	want := &Program{
		Metadata: &Metadata{
			Name:        "my-program",
			Namespace:   "default",
			Labels:      map[string]string{},
			Annotations: map[string]string{},
		},
		Spec: &ProgramSpec{
			Type: "outreach",
			Profile: &ProgramSpecProfile{
				DisplayName: "My Program",
				Email:       "g@example.com",
				Picture:     "pic.png",
			},
			Parent: &Ref{Name: "parent", Namespace: "default", Kind: KindProgram},
			Children: []*Ref{
				{Name: "child", Namespace: "default", Kind: KindProgram},
			},
			Members: []string{"user1", "user2"},
		},
		sourceInfo: si,
	}

	if diff := cmp.Diff(want, got, commonOpts...); diff != "" {
		t.Errorf("NewProgramFromAPI() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewProgramFromAPI_NoProfile(t *testing.T) {
	// profile is optional in the schema, conversion must not require it.
	apiProgram := &api.Program{
		Kind: "Program",
		Metadata: &api.Metadata{
			Name: "bare-program",
		},
		Spec: &api.ProgramSpec{
			Type: "team",
		},
	}

	got, err := NewProgramFromAPI(apiProgram)
	if err != nil {
		t.Fatalf("NewProgramFromAPI() error = %v", err)
	}
	if got.Spec.Profile != nil {
		t.Errorf("Spec.Profile = %v, want nil", got.Spec.Profile)
	}
}

func TestAssetFormat(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"logos/foo.svg", "svg"},
		{"logos/foo.PNG", "png"},
		{"foo.jpeg", "jpeg"},
		{"foo", ""},
		{"dir.with.dots/foo.webp", "webp"},
	}
	for _, tt := range tests {
		if got := AssetFormat(tt.path); got != tt.want {
			t.Errorf("AssetFormat(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
