// Package web implements the browser UI of partnercat: listing and detail
// pages for all catalog kinds, inline YAML editing, curation notes, and
// logo image serving.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"path"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"
	"partnercat.dev/partnercat"
	"partnercat.dev/partnercat/internal/api"
	"partnercat.dev/partnercat/internal/catalog"
	"partnercat.dev/partnercat/internal/config"
	"partnercat.dev/partnercat/internal/notes"
	"partnercat.dev/partnercat/internal/repo"
	"partnercat.dev/partnercat/internal/store"
)

const defaultLogoCacheSize = 128

type ServerOptions struct {
	Addr       string // E.g., "localhost:8080"
	BaseDir    string // Directory from which resources (templates etc.) are read. Empty means embedded.
	CatalogDir string // Directory containing the catalog YAML files, relative to the store root.
	ReadOnly   bool   // If true, entity editing is disabled.
	Version    string // Version string displayed in the footer.

	// Max. number of logo images to hold in the in-memory LRU cache.
	// Zero means the default size.
	LogoCacheSize int
}

type Server struct {
	opts       ServerOptions
	template   *template.Template
	uiConfig   config.UIConfig
	store      store.Store
	notesStore notes.Store
	logoCache  *lru.Cache[string, *logoEntry]

	// The repository is replaced as a whole on each entity update.
	mut  sync.RWMutex
	repo *repo.Repository
}

type logoEntry struct {
	data        []byte
	contentType string
}

func NewServer(opts ServerOptions, uiConfig config.UIConfig, st store.Store, rp *repo.Repository, notesStore notes.Store) (*Server, error) {
	cacheSize := opts.LogoCacheSize
	if cacheSize <= 0 {
		cacheSize = defaultLogoCacheSize
	}
	cache, err := lru.New[string, *logoEntry](cacheSize)
	if err != nil {
		return nil, err
	}
	if notesStore == nil {
		notesStore = notes.EmptyStore{}
	}
	s := &Server{
		opts:       opts,
		uiConfig:   uiConfig,
		store:      st,
		notesStore: notesStore,
		logoCache:  cache,
		repo:       rp,
	}
	if err := s.reloadTemplates(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) currentRepo() *repo.Repository {
	s.mut.RLock()
	defer s.mut.RUnlock()
	return s.repo
}

func (s *Server) setRepo(rp *repo.Repository) {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.repo = rp
}

func (s *Server) reloadTemplates() error {
	tmpl := template.New("root")
	tmpl = tmpl.Funcs(map[string]any{
		"toURL":        toURL,
		"refEncode":    refEncode,
		"urlencode":    urlencode,
		"markdown":     markdown,
		"logoSrc":      logoSrc,
		"formatLabels": formatLabels,
	})
	var err error
	if s.opts.BaseDir == "" {
		s.template, err = tmpl.ParseFS(partnercat.Files, "templates/*.html")
	} else {
		s.template, err = tmpl.ParseGlob(path.Join(s.opts.BaseDir, "templates/*.html"))
	}
	return err
}

func (s *Server) servePages(w http.ResponseWriter, r *http.Request) {
	params := map[string]any{}
	q := r.URL.Query()
	pages := s.currentRepo().FindPages(q.Get("q"))
	params["Pages"] = pages

	if s.isHX(r) {
		// htmx request: only render rows
		s.serveHTMLPage(w, r, "pages_rows.html", params)
		return
	}
	// full page
	s.serveHTMLPage(w, r, "pages.html", params)
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request, pageID string) {
	pageRef, err := catalog.ParseRefAs(catalog.KindPage, pageID)
	if err != nil {
		http.Error(w, "Invalid pageID", http.StatusBadRequest)
		return
	}
	rp := s.currentRepo()
	page := rp.Page(pageRef)
	if page == nil {
		http.Error(w, "Invalid page", http.StatusNotFound)
		return
	}
	params := map[string]any{}
	params["Page"] = page
	// Sections in rank order, with their partners for a full page preview.
	sections := rp.PageSections(page)
	type sectionView struct {
		Section  *catalog.Section
		Partners []*catalog.Partner
	}
	views := make([]sectionView, 0, len(sections))
	for _, sec := range sections {
		views = append(views, sectionView{Section: sec, Partners: rp.SectionPartners(sec)})
	}
	params["Sections"] = views

	s.serveHTMLPage(w, r, "page_detail.html", params)
}

func (s *Server) serveSections(w http.ResponseWriter, r *http.Request) {
	params := map[string]any{}
	q := r.URL.Query()
	sections := s.currentRepo().FindSections(q.Get("q"))
	params["Sections"] = sections

	if s.isHX(r) {
		s.serveHTMLPage(w, r, "sections_rows.html", params)
		return
	}
	s.serveHTMLPage(w, r, "sections.html", params)
}

func (s *Server) serveSection(w http.ResponseWriter, r *http.Request, sectionID string) {
	sectionRef, err := catalog.ParseRefAs(catalog.KindSection, sectionID)
	if err != nil {
		http.Error(w, "Invalid sectionID", http.StatusBadRequest)
		return
	}
	rp := s.currentRepo()
	section := rp.Section(sectionRef)
	if section == nil {
		http.Error(w, "Invalid section", http.StatusNotFound)
		return
	}
	params := map[string]any{}
	params["Section"] = section
	params["Page"] = rp.Page(section.Spec.Page)
	params["Partners"] = rp.SectionPartners(section)

	s.serveHTMLPage(w, r, "section_detail.html", params)
}

func (s *Server) servePartners(w http.ResponseWriter, r *http.Request) {
	params := map[string]any{}
	q := r.URL.Query()
	partners := s.currentRepo().FindPartners(q.Get("q"))
	params["Partners"] = partners

	if s.isHX(r) {
		s.serveHTMLPage(w, r, "partners_rows.html", params)
		return
	}
	s.serveHTMLPage(w, r, "partners.html", params)
}

func (s *Server) servePartner(w http.ResponseWriter, r *http.Request, partnerID string) {
	partnerRef, err := catalog.ParseRefAs(catalog.KindPartner, partnerID)
	if err != nil {
		http.Error(w, "Invalid partnerID", http.StatusBadRequest)
		return
	}
	rp := s.currentRepo()
	partner := rp.Partner(partnerRef)
	if partner == nil {
		http.Error(w, "Invalid partner", http.StatusNotFound)
		return
	}
	params := map[string]any{}
	params["Partner"] = partner
	params["Section"] = rp.Section(partner.Spec.Section)
	if partner.Spec.Logo != nil {
		params["Asset"] = rp.Asset(partner.Spec.Logo.Asset)
	}
	openNotes, err := s.notesStore.OpenNotes(partner.GetRef().String())
	if err != nil {
		log.Printf("Failed to load notes for %s: %v", partner.GetRef(), err)
	}
	params["OpenNotesCount"] = len(openNotes)

	s.serveHTMLPage(w, r, "partner_detail.html", params)
}

func (s *Server) serveAssets(w http.ResponseWriter, r *http.Request) {
	params := map[string]any{}
	q := r.URL.Query()
	assets := s.currentRepo().FindAssets(q.Get("q"))
	params["Assets"] = assets

	if s.isHX(r) {
		s.serveHTMLPage(w, r, "assets_rows.html", params)
		return
	}
	s.serveHTMLPage(w, r, "assets.html", params)
}

func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request, assetID string) {
	assetRef, err := catalog.ParseRefAs(catalog.KindAsset, assetID)
	if err != nil {
		http.Error(w, "Invalid assetID", http.StatusBadRequest)
		return
	}
	rp := s.currentRepo()
	asset := rp.Asset(assetRef)
	if asset == nil {
		http.Error(w, "Invalid asset", http.StatusNotFound)
		return
	}
	params := map[string]any{}
	params["Asset"] = asset
	var usedBy []*catalog.Partner
	for _, ref := range asset.GetUsedBy() {
		if p := rp.Partner(ref); p != nil {
			usedBy = append(usedBy, p)
		}
	}
	params["UsedBy"] = usedBy

	s.serveHTMLPage(w, r, "asset_detail.html", params)
}

func (s *Server) servePrograms(w http.ResponseWriter, r *http.Request) {
	params := map[string]any{}
	q := r.URL.Query()
	programs := s.currentRepo().FindPrograms(q.Get("q"))
	params["Programs"] = programs

	if s.isHX(r) {
		s.serveHTMLPage(w, r, "programs_rows.html", params)
		return
	}
	s.serveHTMLPage(w, r, "programs.html", params)
}

func (s *Server) serveProgram(w http.ResponseWriter, r *http.Request, programID string) {
	programRef, err := catalog.ParseRefAs(catalog.KindProgram, programID)
	if err != nil {
		http.Error(w, "Invalid programID", http.StatusBadRequest)
		return
	}
	program := s.currentRepo().Program(programRef)
	if program == nil {
		http.Error(w, "Invalid program", http.StatusNotFound)
		return
	}
	params := map[string]any{}
	params["Program"] = program
	s.serveHTMLPage(w, r, "program_detail.html", params)
}

// serveLogo serves the image file of an asset, with an LRU cache in front of
// the store. Cache entries are dropped whenever an entity is updated.
func (s *Server) serveLogo(w http.ResponseWriter, r *http.Request, assetID string) {
	assetRef, err := catalog.ParseRefAs(catalog.KindAsset, assetID)
	if err != nil {
		http.Error(w, "Invalid assetID", http.StatusBadRequest)
		return
	}
	cacheKey := assetRef.String()
	entry, ok := s.logoCache.Get(cacheKey)
	if !ok {
		asset := s.currentRepo().Asset(assetRef)
		if asset == nil {
			http.Error(w, "Invalid asset", http.StatusNotFound)
			return
		}
		data, err := s.store.ReadFile(path.Join(s.opts.CatalogDir, asset.Spec.Path))
		if err != nil {
			http.Error(w, "Failed to read asset file", http.StatusNotFound)
			log.Printf("Failed to read asset file %q: %v", asset.Spec.Path, err)
			return
		}
		entry = &logoEntry{data: data, contentType: contentTypeForFormat(asset.Spec.Format)}
		s.logoCache.Add(cacheKey, entry)
	}
	w.Header().Set("Content-Type", entry.contentType)
	w.Write(entry.data)
}

func contentTypeForFormat(format string) string {
	switch format {
	case "svg":
		return "image/svg+xml"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	}
	return "application/octet-stream"
}

func (s *Server) serveEntityEdit(w http.ResponseWriter, r *http.Request, entityRef string) {
	ref, err := catalog.ParseRef(entityRef)
	if err != nil {
		http.Error(w, "Invalid entity reference", http.StatusBadRequest)
		return
	}
	entity := s.currentRepo().Entity(ref)
	if entity == nil {
		http.Error(w, "Invalid entity", http.StatusNotFound)
		return
	}
	params := map[string]any{}
	params["Entity"] = entity

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(store.YAMLIndent)
	if err := enc.Encode(entity.GetSourceInfo().Node); err != nil {
		http.Error(w, "Failed to get YAML", http.StatusInternalServerError)
		log.Printf("Failed to encode YAML for %q: %v", entityRef, err)
		return
	}
	params["YAML"] = buf.String()

	s.serveHTMLPage(w, r, "entity_edit.html", params)
}

func (s *Server) isHX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func (s *Server) renderErrorSnippet(w http.ResponseWriter, errorMsg string) {
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	s.template.ExecuteTemplate(w, "_error.html", map[string]any{
		"Error": errorMsg,
	})
}

func (s *Server) updateEntity(w http.ResponseWriter, r *http.Request, entityRef string) {
	if !s.isHX(r) {
		http.Error(w, "Entity updates must be done via HTMX", http.StatusBadRequest)
		return
	}
	if s.opts.ReadOnly {
		http.Error(w, "Catalog is read-only", http.StatusForbidden)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	ref, err := catalog.ParseRef(entityRef)
	if err != nil {
		http.Error(w, "Invalid entity reference", http.StatusBadRequest)
		return
	}

	originalEntity := s.currentRepo().Entity(ref)
	if originalEntity == nil {
		http.Error(w, "Invalid entity", http.StatusNotFound)
		return
	}

	newYAML := r.FormValue("yaml")
	newAPIEntity, err := api.NewEntityFromString(newYAML)
	if err != nil {
		s.renderErrorSnippet(w, fmt.Sprintf("Failed to parse new YAML: %v", err))
		return
	}
	newEntity, err := catalog.NewEntityFromAPI(newAPIEntity)
	if err != nil {
		s.renderErrorSnippet(w, fmt.Sprintf("Invalid entity: %v", err))
		return
	}

	// Only update if the entity reference remains the same, i.e.:
	// - no changes of the kind, namespace, or name
	if !newEntity.GetRef().Equal(originalEntity.GetRef()) {
		errMsg := fmt.Sprintf("Updated entity ID does not match original (old: %q, new: %q)",
			originalEntity.GetRef(), newEntity.GetRef())
		s.renderErrorSnippet(w, errMsg)
		return
	}

	// Copy over path information for re-editing later.
	srcPath := originalEntity.GetSourceInfo().Path
	newEntity.GetSourceInfo().Path = srcPath

	// Rebuild and validate the repository with the updated entity.
	newRepo, err := s.currentRepo().InsertOrUpdateEntity(newEntity)
	if err != nil {
		s.renderErrorSnippet(w, fmt.Sprintf("Failed to update entity: %v", err))
		return
	}
	s.setRepo(newRepo)
	// Logos may have changed paths, drop all cached images.
	s.logoCache.Purge()

	// Update the YAML file.
	if err := store.InsertOrReplaceEntity(s.store, srcPath, newAPIEntity); err != nil {
		http.Error(w, "Failed to write updated entity file", http.StatusInternalServerError)
		log.Printf("Failed to write entities to %q: %v", srcPath, err)
		return
	}

	redirectURL, err := toURL(ref)
	if err != nil {
		// This must not happen: we must always be able to get a URL for our own entities.
		log.Fatalf("Failed to create entityURL for valid entity reference: %v", err)
	}

	w.Header().Set("HX-Redirect", redirectURL)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) serveNotes(w http.ResponseWriter, r *http.Request, entityRef string) {
	ref, err := catalog.ParseRef(entityRef)
	if err != nil {
		http.Error(w, "Invalid entity reference", http.StatusBadRequest)
		return
	}
	entityNotes, err := s.notesStore.Notes(ref.String())
	if err != nil {
		http.Error(w, "Failed to load notes", http.StatusInternalServerError)
		log.Printf("Failed to load notes for %q: %v", entityRef, err)
		return
	}
	s.renderNotesSnippet(w, ref, entityNotes)
}

func (s *Server) addNote(w http.ResponseWriter, r *http.Request, entityRef string) {
	if !s.isHX(r) {
		http.Error(w, "Notes must be added via HTMX", http.StatusBadRequest)
		return
	}
	ref, err := catalog.ParseRef(entityRef)
	if err != nil {
		http.Error(w, "Invalid entity reference", http.StatusBadRequest)
		return
	}
	if s.currentRepo().Entity(ref) == nil {
		http.Error(w, "Invalid entity", http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	author := r.FormValue("author")
	text := r.FormValue("text")
	if text == "" || len(text) > notes.MaxTextLength || len(author) > notes.MaxAuthorLength {
		s.renderErrorSnippet(w, "Invalid note: text must be non-empty and author/text within length limits")
		return
	}
	note := notes.Note{
		ID:        randomID(),
		Author:    author,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notesStore.AddNote(ref.String(), note); err != nil {
		http.Error(w, "Failed to save note", http.StatusInternalServerError)
		log.Printf("Failed to save note for %q: %v", entityRef, err)
		return
	}
	s.serveNotes(w, r, entityRef)
}

func (s *Server) resolveNote(w http.ResponseWriter, r *http.Request, entityRef, noteID string) {
	if !s.isHX(r) {
		http.Error(w, "Notes must be resolved via HTMX", http.StatusBadRequest)
		return
	}
	ref, err := catalog.ParseRef(entityRef)
	if err != nil {
		http.Error(w, "Invalid entity reference", http.StatusBadRequest)
		return
	}
	if err := s.notesStore.ResolveNote(ref.String(), noteID); err != nil {
		http.Error(w, "Failed to resolve note", http.StatusNotFound)
		log.Printf("Failed to resolve note %q for %q: %v", noteID, entityRef, err)
		return
	}
	s.serveNotes(w, r, entityRef)
}

func (s *Server) renderNotesSnippet(w http.ResponseWriter, ref *catalog.Ref, entityNotes []notes.Note) {
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	err := s.template.ExecuteTemplate(w, "_notes.html", map[string]any{
		"EntityRef": ref,
		"Notes":     entityNotes,
	})
	if err != nil {
		log.Printf("Failed to render notes snippet: %v", err)
	}
}

func (s *Server) serveHTMLPage(w http.ResponseWriter, r *http.Request, templateFile string, params map[string]any) {
	var output bytes.Buffer

	nav := NewNavBar(
		NavItem("/ui/pages", "Pages"),
		NavItem("/ui/sections", "Sections"),
		NavItem("/ui/partners", "Partners"),
		NavItem("/ui/assets", "Assets"),
		NavItem("/ui/programs", "Programs"),
	).SetActive(r.URL.Path).SetParams(r.URL.Query())

	templateParams := map[string]any{
		"Now":      time.Now().Format("2006-01-02 15:04:05"),
		"NavBar":   nav,
		"ReadOnly": s.opts.ReadOnly,
		"Version":  s.opts.Version,
		"HelpLink": s.uiConfig.HelpLink,
	}
	// Copy template params
	for k, v := range params {
		templateParams[k] = v
	}

	err := s.template.ExecuteTemplate(&output, templateFile, templateParams)
	if err != nil {
		log.Printf("Failed to render template %q: %v", templateFile, err)
		http.Error(w, "Template rendering error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	w.Write(output.Bytes())
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Pages / Sections / Partners / Assets / Programs pages
	mux.HandleFunc("GET /ui/pages", func(w http.ResponseWriter, r *http.Request) {
		s.servePages(w, r)
	})
	mux.HandleFunc("GET /ui/pages/{pageID}", func(w http.ResponseWriter, r *http.Request) {
		s.servePage(w, r, r.PathValue("pageID"))
	})
	mux.HandleFunc("GET /ui/sections", func(w http.ResponseWriter, r *http.Request) {
		s.serveSections(w, r)
	})
	mux.HandleFunc("GET /ui/sections/{sectionID}", func(w http.ResponseWriter, r *http.Request) {
		s.serveSection(w, r, r.PathValue("sectionID"))
	})
	mux.HandleFunc("GET /ui/partners", func(w http.ResponseWriter, r *http.Request) {
		s.servePartners(w, r)
	})
	mux.HandleFunc("GET /ui/partners/{partnerID}", func(w http.ResponseWriter, r *http.Request) {
		s.servePartner(w, r, r.PathValue("partnerID"))
	})
	mux.HandleFunc("GET /ui/assets", func(w http.ResponseWriter, r *http.Request) {
		s.serveAssets(w, r)
	})
	mux.HandleFunc("GET /ui/assets/{assetID}", func(w http.ResponseWriter, r *http.Request) {
		s.serveAsset(w, r, r.PathValue("assetID"))
	})
	mux.HandleFunc("GET /ui/programs", func(w http.ResponseWriter, r *http.Request) {
		s.servePrograms(w, r)
	})
	mux.HandleFunc("GET /ui/programs/{programID}", func(w http.ResponseWriter, r *http.Request) {
		s.serveProgram(w, r, r.PathValue("programID"))
	})

	mux.HandleFunc("GET /ui/entities/{entityRef}/edit", func(w http.ResponseWriter, r *http.Request) {
		s.serveEntityEdit(w, r, r.PathValue("entityRef"))
	})
	mux.HandleFunc("POST /ui/entities/{entityRef}/edit", func(w http.ResponseWriter, r *http.Request) {
		s.updateEntity(w, r, r.PathValue("entityRef"))
	})

	mux.HandleFunc("GET /ui/entities/{entityRef}/notes", func(w http.ResponseWriter, r *http.Request) {
		s.serveNotes(w, r, r.PathValue("entityRef"))
	})
	mux.HandleFunc("POST /ui/entities/{entityRef}/notes", func(w http.ResponseWriter, r *http.Request) {
		s.addNote(w, r, r.PathValue("entityRef"))
	})
	mux.HandleFunc("POST /ui/entities/{entityRef}/notes/{noteID}/resolve", func(w http.ResponseWriter, r *http.Request) {
		s.resolveNote(w, r, r.PathValue("entityRef"), r.PathValue("noteID"))
	})

	// Logo images referenced by partner entries.
	mux.HandleFunc("GET /logos/{assetID}", func(w http.ResponseWriter, r *http.Request) {
		s.serveLogo(w, r, r.PathValue("assetID"))
	})

	// Health check. Useful for cloud deployments.
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})

	// Static resources (JavaScript, CSS, etc.)
	if s.opts.BaseDir == "" {
		mux.Handle("GET /static/", http.FileServer(http.FS(partnercat.Files)))
	} else {
		staticFS := http.Dir(path.Join(s.opts.BaseDir, "static"))
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(staticFS)))
	}

	// Default route (all other paths): redirect to the UI home page
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "", http.StatusBadRequest)
			return
		}
		if r.Header.Get("Hx-Request") != "" {
			// Do not redirect htmx requests, those should only request valid paths.
			http.Error(w, "", http.StatusNotFound)
			return
		}
		refererURL, err := url.Parse(r.Header.Get("Referer"))
		if err == nil && refererURL.Host == r.Host {
			// Request is coming from our own domain: this indicates an internal broken link.
			http.Error(w, "Broken link", http.StatusNotFound)
			return
		}
		// Redirect GET to the UI home page.
		http.Redirect(w, r, "/ui/partners", http.StatusTemporaryRedirect)
	})

	return mux
}

// Serve starts the HTTP server on s.opts.Addr using the wrapped handler.
func (s *Server) Serve() error {
	handler := s.Handler()
	log.Printf("partnercat listening on http://%s", s.opts.Addr)
	return http.ListenAndServe(s.opts.Addr, handler)
}

func (s *Server) Handler() http.Handler {
	return s.withRequestLogging(s.routes())
}
