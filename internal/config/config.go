package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
	"partnercat.dev/partnercat/internal/check"
	"partnercat.dev/partnercat/internal/repo"
	"partnercat.dev/partnercat/internal/store"
)

// HelpLink is a custom link shown in the footer.
type HelpLink struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// UIConfig has configuration that only affects the UI.
// We cannot put it into the web package as that would generate
// a cyclic dependency.
type UIConfig struct {
	// An optional custom help link shown at the bottom of the UI.
	HelpLink *HelpLink `yaml:"helpLink"`
}

// Bundle is the umbrella struct for the serialized application configuration YAML.
// It bundles the package-specific configurations.
type Bundle struct {
	Catalog repo.Config  `yaml:"catalog"`
	UI      UIConfig     `yaml:"ui"`
	Check   check.Config `yaml:"check"`
}

func Load(st store.Store, configPath string) (*Bundle, error) {
	bs, err := st.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("could not read config %q: %v", configPath, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(bs))
	dec.KnownFields(true)
	var bundle Bundle
	if err := dec.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("invalid configuration YAML in %q: %v", configPath, err)
	}
	return &bundle, nil
}
