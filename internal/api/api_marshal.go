package api

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Uppercase kind names, as used in YAML (e.g, "kind: Partner")
	YAMLKindPage    = "Page"
	YAMLKindSection = "Section"
	YAMLKindPartner = "Partner"
	YAMLKindAsset   = "Asset"
	YAMLKindProgram = "Program"
	// Lowercase kind names, as used in entity references (e.g. "asset:ns1/foo")
	KindPage    = "page"
	KindSection = "section"
	KindPartner = "partner"
	KindAsset   = "asset"
	KindProgram = "program"
)

var (
	// Valid entity kinds for use in entity references
	validRefKinds = map[string]bool{
		KindPage:    true,
		KindSection: true,
		KindPartner: true,
		KindAsset:   true,
		KindProgram: true,
	}

	// Regexp defining valid entity names and namespaces
	// Alphanumeric characters and "-". Must start and end with an alphanumeric character.
	validNameRE = regexp.MustCompile("^[A-Za-z]([A-Za-z0-9-]*[A-Za-z0-9])?$")
)

// Ref is a parsed entity reference of the form <kind>:<namespace>/<name>.
// Kind and namespace may be omitted in the string form.
type Ref struct {
	Kind      string
	Namespace string
	Name      string
}

func IsValidRefKind(kind string) bool {
	_, ok := validRefKinds[kind]
	return ok
}

func IsValidName(s string) bool {
	return len(s) > 0 && len(s) <= 63 && validNameRE.MatchString(s)
}
func IsValidNamespace(s string) bool {
	return len(s) > 0 && len(s) <= 63 && validNameRE.MatchString(s)
}

func ParseRef(s string) (*Ref, error) {
	var ref Ref
	kind, qname, found := strings.Cut(s, ":")
	if found {
		if !IsValidRefKind(kind) {
			return nil, fmt.Errorf("invalid entity kind %q", kind)
		}
		ref.Kind = kind
	} else {
		// No kind: specified
		qname = s
	}

	ns, name, found := strings.Cut(qname, "/")
	if found {
		if !IsValidNamespace(ns) {
			return nil, fmt.Errorf("invalid namespace %q", ns)
		}
		if !IsValidName(name) {
			return nil, fmt.Errorf("invalid name %q", name)
		}
		ref.Namespace = ns
		ref.Name = name
	} else {
		if !IsValidName(qname) {
			return nil, fmt.Errorf("invalid name %q", qname)
		}
		ref.Namespace = DefaultNamespace
		ref.Name = qname
	}
	return &ref, nil
}

// QName returns the namespace qualified name, e.g. "ns1/foo".
// The default namespace is omitted.
func (er *Ref) QName() string {
	if er.Namespace == "" || er.Namespace == DefaultNamespace {
		return er.Name
	}
	return er.Namespace + "/" + er.Name
}

// String returns the reference in the format <kind>:<namespace>/<name>.
func (er *Ref) String() string {
	if er.Kind == "" {
		return er.QName()
	}
	return er.Kind + ":" + er.QName()
}

// MarshalYAML emits the reference in its string form.
func (er *Ref) MarshalYAML() (any, error) {
	return er.String(), nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Ref.
func (er *Ref) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("entity ref must be a string scalar, but got %s", value.Tag)
	}

	ref, err := ParseRef(value.Value)
	if err != nil {
		return err
	}

	*er = *ref
	return nil
}

// Dimension is a display size hint such as "240px", "55%" or "1.5em".
// A bare number is interpreted as pixels. Values that do not match a known
// format are retained verbatim in Raw so that YAML round-trips are loss-less.
type Dimension struct {
	// The literal string as it appeared in the YAML source.
	Raw string
	// The numeric portion of the dimension. Zero if Raw did not parse.
	Value float64
	// One of "px", "%", "em". Empty if Raw did not parse.
	Unit string
}

var (
	// Regex to deconstruct "240px", "55%", "1.5em", "240" dimension strings.
	// Groups:
	// 1: Value (\d+ with optional fraction)
	// 2: Unit (px|%|em) - optional
	dimensionRegex = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(px|%|em)?$`)
)

// UnmarshalYAML implements the gopkg.in/yaml.v3.Unmarshaler interface.
func (d *Dimension) UnmarshalYAML(node *yaml.Node) error {
	// Must be a plain scalar. Both "240px" (a string) and 240 (an int) are accepted.
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("width field must be a plain scalar, but got %v node", node.Tag)
	}

	// The whole input is the "raw" dimension.
	d.Raw = node.Value

	matches := dimensionRegex.FindStringSubmatch(strings.TrimSpace(node.Value))
	if matches == nil {
		// Input didn't match a known dimension format.
		// Leave the other fields as their zero value and return success.
		return nil
	}

	// We can ignore the error because the regex guarantees a valid number.
	d.Value, _ = strconv.ParseFloat(matches[1], 64)
	d.Unit = matches[2]
	if d.Unit == "" {
		d.Unit = "px"
	}
	return nil
}

// MarshalYAML emits the dimension in its original literal form.
func (d *Dimension) MarshalYAML() (any, error) {
	return d.Raw, nil
}

// IsValid reports whether the dimension parsed into a known unit.
func (d *Dimension) IsValid() bool {
	return d != nil && d.Unit != ""
}

// String returns the dimension in CSS notation, e.g. "240px".
// Unparsed dimensions are returned verbatim.
func (d *Dimension) String() string {
	if d == nil {
		return ""
	}
	if d.Unit == "" {
		return d.Raw
	}
	return strconv.FormatFloat(d.Value, 'f', -1, 64) + d.Unit
}
