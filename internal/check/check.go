// Package check validates a loaded catalog against the world outside the
// repository: logo asset files must exist in the content store and partner
// URLs must answer over HTTP.
package check

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"partnercat.dev/partnercat/internal/catalog"
	"partnercat.dev/partnercat/internal/repo"
	"partnercat.dev/partnercat/internal/store"
)

const (
	defaultConcurrency    = 8
	defaultTimeoutSeconds = 10
)

// Config holds the settings for the link check.
type Config struct {
	// Maximum number of concurrent HTTP requests.
	Concurrency int `yaml:"concurrency"`
	// Per-request timeout in seconds.
	TimeoutSeconds int `yaml:"timeoutSeconds"`
	// Hostnames for which the link check is skipped, e.g. hosts that
	// block automated requests.
	SkipHosts []string `yaml:"skipHosts"`
}

// Finding is a single problem detected by a check.
type Finding struct {
	// The reference of the entity the finding is about.
	Ref *catalog.Ref
	// The offending value, e.g. the URL or asset path that failed.
	Value string
	// A human-readable explanation.
	Reason string
}

func (f *Finding) String() string {
	return fmt.Sprintf("%s: %s: %s", f.Ref, f.Value, f.Reason)
}

// Checker runs asset and link checks over a repository.
type Checker struct {
	repo       *repo.Repository
	store      store.Store
	catalogDir string
	config     Config
	client     *http.Client
}

func NewChecker(r *repo.Repository, st store.Store, catalogDir string, config Config) *Checker {
	if config.Concurrency <= 0 {
		config.Concurrency = defaultConcurrency
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = defaultTimeoutSeconds
	}
	return &Checker{
		repo:       r,
		store:      st,
		catalogDir: catalogDir,
		config:     config,
		client: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}
}

// CheckAssets verifies that every asset's path points to an existing file in
// the content store and that the file has a supported image format.
func (c *Checker) CheckAssets() []Finding {
	var findings []Finding
	for _, a := range c.repo.FindAssets("") {
		p := path.Join(c.catalogDir, a.Spec.Path)
		if !store.FileExists(c.store, p) {
			findings = append(findings, Finding{
				Ref:    a.GetRef(),
				Value:  a.Spec.Path,
				Reason: "file does not exist in the content store",
			})
			continue
		}
		if !catalog.IsSupportedAssetFormat(a.Spec.Format) {
			findings = append(findings, Finding{
				Ref:    a.GetRef(),
				Value:  a.Spec.Path,
				Reason: fmt.Sprintf("unsupported image format %q", a.Spec.Format),
			})
		}
	}
	return findings
}

// CheckLinks verifies that every partner URL answers with a non-error HTTP
// status. Requests run with bounded parallelism and are cancelled when ctx is.
func (c *Checker) CheckLinks(ctx context.Context) ([]Finding, error) {
	// Deduplicate URLs; several partners may share one.
	urlRefs := map[string][]*catalog.Ref{}
	for _, p := range c.repo.FindPartners("") {
		u := p.Spec.URL
		if u == "" {
			continue
		}
		if c.skipURL(u) {
			continue
		}
		urlRefs[u] = append(urlRefs[u], p.GetRef())
	}

	var mut sync.Mutex
	var findings []Finding

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Concurrency)
	for u, refs := range urlRefs {
		g.Go(func() error {
			reason, err := c.probeURL(ctx, u)
			if err != nil {
				// Context cancellation aborts the whole check.
				return err
			}
			if reason == "" {
				return nil
			}
			mut.Lock()
			defer mut.Unlock()
			for _, ref := range refs {
				findings = append(findings, Finding{Ref: ref, Value: u, Reason: reason})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sortFindings(findings)
	return findings, nil
}

// Run executes all checks and returns the combined findings.
func (c *Checker) Run(ctx context.Context) ([]Finding, error) {
	findings := c.CheckAssets()
	linkFindings, err := c.CheckLinks(ctx)
	if err != nil {
		return nil, err
	}
	findings = append(findings, linkFindings...)
	sortFindings(findings)
	return findings, nil
}

func (c *Checker) skipURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		// Invalid URLs are caught by repo validation, not the link check.
		return true
	}
	return slices.Contains(c.config.SkipHosts, u.Hostname())
}

// probeURL requests u and returns a non-empty reason if the URL is broken.
// A non-nil error is only returned when the context was cancelled.
func (c *Checker) probeURL(ctx context.Context, u string) (string, error) {
	status, err := c.request(ctx, http.MethodHead, u)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return fmt.Sprintf("request failed: %v", err), nil
	}
	// Some servers reject HEAD; retry those with GET before reporting.
	if status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented || status >= 400 {
		status, err = c.request(ctx, http.MethodGet, u)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return fmt.Sprintf("request failed: %v", err), nil
		}
	}
	if status >= 400 {
		return fmt.Sprintf("got HTTP status %d", status), nil
	}
	return "", nil
}

func (c *Checker) request(ctx context.Context, method, u string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func sortFindings(findings []Finding) {
	slices.SortFunc(findings, func(a, b Finding) int {
		if c := a.Ref.Compare(b.Ref); c != 0 {
			return c
		}
		return strings.Compare(a.Value, b.Value)
	})
}
