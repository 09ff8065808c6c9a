package web

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"net/url"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"partnercat.dev/partnercat/internal/catalog"
)

func anyToRef(s any) (*catalog.Ref, error) {
	switch r := s.(type) {
	case string:
		e, err := catalog.ParseRef(r)
		if err != nil {
			return nil, fmt.Errorf("invalid entity reference string for entityURL: %v", err)
		}
		return e, nil
	case *catalog.Ref:
		return r, nil
	case catalog.Entity:
		return r.GetRef(), nil
	}
	return nil, fmt.Errorf("anyToRef: invalid argument type %T", s)
}

func refEncode(s any) (string, error) {
	entityRef, err := anyToRef(s)
	if err != nil {
		return "", err
	}
	return url.PathEscape(entityRef.String()), nil
}

func toURL(s any) (string, error) {
	entityRef, err := anyToRef(s)
	if err != nil {
		return "", err
	}

	if entityRef.Kind == "" {
		return "", fmt.Errorf("entity reference has no kind set: %v", entityRef)
	}
	var path string
	switch entityRef.Kind {
	case catalog.KindPage:
		path = "/ui/pages/"
	case catalog.KindSection:
		path = "/ui/sections/"
	case catalog.KindPartner:
		path = "/ui/partners/"
	case catalog.KindAsset:
		path = "/ui/assets/"
	case catalog.KindProgram:
		path = "/ui/programs/"
	default:
		return "", fmt.Errorf("unsupported kind %q in entityURL", entityRef.Kind)
	}
	return path + url.PathEscape(entityRef.QName()), nil
}

// logoSrc returns the URL under which the logo image of a partner is served.
// Returns an empty string for partners without a logo.
func logoSrc(p *catalog.Partner) (string, error) {
	if p.Spec.Logo == nil || p.Spec.Logo.Asset == nil {
		return "", nil
	}
	return "/logos/" + url.PathEscape(p.Spec.Logo.Asset.String()), nil
}

func urlencode(s string) (string, error) {
	return url.PathEscape(s), nil
}

// setQueryParam returns a copy of u with the given query parameter set.
func setQueryParam(u *url.URL, key, value string) *url.URL {
	v := *u
	q := v.Query()
	q.Set(key, value)
	v.RawQuery = q.Encode()
	return &v
}

// randomID returns a short random hex string, used as an ID for new notes.
func randomID() string {
	var b [8]byte
	rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// labelChip is the display form of a single metadata label.
type labelChip struct {
	Key   string
	Value string
}

// DisplayString renders a chip as "tail=value", where tail is the last path
// segment of a qualified label key (e.g. "example.com/tier" becomes "tier").
func (c labelChip) DisplayString() string {
	tail := c.Key
	if i := strings.LastIndex(tail, "/"); i >= 0 {
		tail = tail[i+1:]
	}
	if c.Value == "" {
		return tail
	}
	return tail + "=" + c.Value
}

// formatLabels returns the labels of an entity as chips sorted by key.
func formatLabels(labels map[string]string) []labelChip {
	chips := make([]labelChip, 0, len(labels))
	for k, v := range labels {
		chips = append(chips, labelChip{Key: k, Value: v})
	}
	slices.SortFunc(chips, func(a, b labelChip) int {
		return strings.Compare(a.Key, b.Key)
	})
	return chips
}

type NavBar []*NavBarItem

type NavBarItem struct {
	path        string
	queryParams map[string]string
	params      []string
	Title       string
	Active      bool
}

func (n *NavBarItem) URI() string {
	var u url.URL
	u.Path = n.path
	q := make(url.Values)
	for k, v := range n.queryParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (n *NavBarItem) Params(params ...string) *NavBarItem {
	n.params = params
	return n
}

func (n *NavBarItem) ParamsList() string {
	return strings.Join(n.params, ",")
}

func NavItem(path, title string) *NavBarItem {
	return &NavBarItem{
		path:        path,
		Title:       title,
		queryParams: make(map[string]string),
	}
}

func NewNavBar(items ...*NavBarItem) NavBar {
	return items
}

func (ns NavBar) SetActive(activePath string) NavBar {
	activePath = strings.TrimSuffix(activePath, "/")
	for _, n := range ns {
		if activePath == strings.TrimSuffix(n.path, "/") {
			n.Active = true
			break
		}
	}
	return ns
}

func (ns NavBar) SetParam(key, value string) NavBar {
	for _, n := range ns {
		if slices.Contains(n.params, key) {
			n.queryParams[key] = value
		}
	}
	return ns
}

func (ns NavBar) SetParams(q url.Values) NavBar {
	for k := range q {
		if v := q.Get(k); v != "" {
			ns = ns.SetParam(k, v)
		}
	}
	return ns
}

func markdown(input string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(input), &buf); err != nil {
		return "", fmt.Errorf("failed to process markdown: %v", err)
	}
	return template.HTML(buf.String()), nil
}
