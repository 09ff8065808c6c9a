package repo

import (
	"regexp"
	"testing"

	"partnercat.dev/partnercat/internal/catalog"
)

// Helper to create ValueRegexp for tests. It mimics the UnmarshalYAML logic
// by wrapping the pattern with anchors to enforce a full match.
func mustValueRegexp(s string) *ValueRegexp {
	re := regexp.MustCompile("^(?:" + s + ")$")
	return (*ValueRegexp)(re)
}

func TestCatalogValidationRules_Accept(t *testing.T) {
	testCases := []struct {
		name    string
		rules   *CatalogValidationRules
		entity  catalog.Entity
		wantErr bool
	}{
		// --- Partner Tests ---
		{
			name: "Partner: valid category (value)",
			rules: &CatalogValidationRules{
				Partner: &PartnerValidationRules{
					Category: &ValueRule{
						Values: []string{"open-source-program", "industry", "academic"},
					},
				},
			},
			entity: &catalog.Partner{
				Spec: &catalog.PartnerSpec{Category: "industry"},
			},
			wantErr: false,
		},
		{
			name: "Partner: valid category (regex)",
			rules: &CatalogValidationRules{
				Partner: &PartnerValidationRules{
					Category: &ValueRule{
						Matches: []*ValueRegexp{
							mustValueRegexp("industry"),
							mustValueRegexp("academic-.+"),
						},
					},
				},
			},
			entity: &catalog.Partner{
				Spec: &catalog.PartnerSpec{Category: "academic-emea"},
			},
			wantErr: false,
		},
		{
			name: "Partner: invalid category (partial match rejected)",
			rules: &CatalogValidationRules{
				Partner: &PartnerValidationRules{
					Category: &ValueRule{Matches: []*ValueRegexp{mustValueRegexp("industry")}},
				},
			},
			entity: &catalog.Partner{
				Spec: &catalog.PartnerSpec{Category: "my-industry-partner"},
			},
			wantErr: true,
		},
		{
			name: "Partner: invalid category (no match)",
			rules: &CatalogValidationRules{
				Partner: &PartnerValidationRules{
					Category: &ValueRule{Values: []string{"industry", "academic"}},
				},
			},
			entity: &catalog.Partner{
				Spec: &catalog.PartnerSpec{Category: "commercial"},
			},
			wantErr: true,
		},
		{
			name: "Partner: invalid empty category",
			rules: &CatalogValidationRules{
				Partner: &PartnerValidationRules{
					Category: &ValueRule{Matches: []*ValueRegexp{mustValueRegexp("industry")}},
				},
			},
			entity: &catalog.Partner{
				Spec: &catalog.PartnerSpec{Category: ""},
			},
			wantErr: true,
		},

		// --- Asset Tests ---
		{
			name: "Asset: valid format",
			rules: &CatalogValidationRules{
				Asset: &AssetValidationRules{
					Format: &ValueRule{Values: []string{"svg", "png"}},
				},
			},
			entity: &catalog.Asset{
				Spec: &catalog.AssetSpec{Path: "logos/a.svg", Format: "svg"},
			},
			wantErr: false,
		},
		{
			name: "Asset: invalid format",
			rules: &CatalogValidationRules{
				Asset: &AssetValidationRules{
					Format: &ValueRule{Values: []string{"svg"}},
				},
			},
			entity: &catalog.Asset{
				Spec: &catalog.AssetSpec{Path: "logos/a.gif", Format: "gif"},
			},
			wantErr: true,
		},

		// --- Section Tests ---
		{
			name: "Section: valid type and nil rule",
			rules: &CatalogValidationRules{
				Section: &SectionValidationRules{
					Type: nil, // Any type is accepted
				},
			},
			entity: &catalog.Section{
				Spec: &catalog.SectionSpec{Type: "grid"},
			},
			wantErr: false,
		},
		{
			name: "Section: invalid type",
			rules: &CatalogValidationRules{
				Section: &SectionValidationRules{
					Type: &ValueRule{Values: []string{"grid", "list"}},
				},
			},
			entity: &catalog.Section{
				Spec: &catalog.SectionSpec{Type: "carousel"},
			},
			wantErr: true,
		},

		// --- Tests for kinds with no rules ---
		{
			name:  "Page: valid because no rules are defined for it",
			rules: &CatalogValidationRules{
				// No page rules
			},
			entity: &catalog.Page{
				Spec: &catalog.PageSpec{Type: "acknowledgements"},
			},
			wantErr: false,
		},
		{
			name:  "Program: valid because no rules are defined for it",
			rules: &CatalogValidationRules{
				// No program rules
			},
			entity: &catalog.Program{
				Spec: &catalog.ProgramSpec{Type: "team"},
			},
			wantErr: false,
		},

		// --- Test with empty ruleset ---
		{
			name:  "Partner: valid because the top-level rules object is empty",
			rules: &CatalogValidationRules{},
			entity: &catalog.Partner{
				Spec: &catalog.PartnerSpec{Category: "any"},
			},
			wantErr: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.rules.Accept(tc.entity); (err != nil) != tc.wantErr {
				t.Errorf("Accept() error %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
