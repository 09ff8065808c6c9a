package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v3"
	"partnercat.dev/partnercat/internal/check"
	"partnercat.dev/partnercat/internal/config"
	"partnercat.dev/partnercat/internal/docs"
	"partnercat.dev/partnercat/internal/gitclient"
	"partnercat.dev/partnercat/internal/notes"
	"partnercat.dev/partnercat/internal/repo"
	"partnercat.dev/partnercat/internal/store"
	"partnercat.dev/partnercat/internal/web"
)

var (
	// Version is the application version.
	// It is set at build time via -ldflags "-X main.Version=...".
	Version = "dev"
)

// Options contains program options that can be set via command-line flags or environment variables.
type Options struct {
	Addr          string
	CatalogDir    string
	RootDir       string
	GitURL        string
	GitRef        string
	ConfigFile    string
	BaseDir       string
	NotesDir      string
	ReadOnly      bool
	LogoCacheSize int
}

func main() {
	if len(os.Args) < 2 {
		// Default to "serve"
		runServe(os.Args[1:])
		return
	}

	switch os.Args[1] {
	case "gen-docs":
		runGenDocs(os.Args[2:])
	case "check":
		runCheck(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	default:
		// Also default to serve if the argument looks like a flag
		if strings.HasPrefix(os.Args[1], "-") {
			runServe(os.Args[1:])
			return
		}
		fmt.Fprintf(os.Stderr, "Unknown command %q. Available commands: serve, gen-docs, check\n", os.Args[1])
		os.Exit(1)
	}
}

func addStoreFlags(fs *flag.FlagSet, opts *Options) {
	fs.StringVar(&opts.RootDir, "root-dir", ".", "Root directory of the local data store")
	fs.StringVar(&opts.CatalogDir, "catalog-dir", "catalog", "Path to the catalog directory containing YAML files (relative to git root or local -root-dir)")
	fs.StringVar(&opts.ConfigFile, "config", "partnercat.yml", "Path to the configuration YAML file (relative to git root or local -root-dir)")
	fs.StringVar(&opts.GitURL, "git-url", "", "URL of the git repository to use as the data store")
	fs.StringVar(&opts.GitRef, "git-ref", "", "Git ref (branch or tag) to use")
}

func runServe(args []string) {
	var opts Options
	fs := flag.NewFlagSet("partnercat serve", flag.ExitOnError)
	addStoreFlags(fs, &opts)
	fs.StringVar(&opts.Addr, "addr", "localhost:8080", "Address to listen on")
	fs.StringVar(&opts.BaseDir, "base-dir", "", "Base directory for resource files. If empty, uses embedded resources (recommended for production).")
	fs.StringVar(&opts.NotesDir, "notes-dir", ".partnercat/notes", "Directory for curation notes. Empty disables notes.")
	fs.BoolVar(&opts.ReadOnly, "read-only", false, "Start server in read-only mode (no entity editing).")
	fs.IntVar(&opts.LogoCacheSize, "logo-cache-size", 128, "Max. number of logo images to hold in the in-memory LRU cache")

	err := ff.Parse(fs, args, ff.WithEnvVarPrefix("PARTNERCAT"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		os.Exit(1)
	}
	log.Printf("Using config from flags/env vars: %+v", opts)

	st := createStore(&opts)
	bundle := loadConfig(st, opts.ConfigFile)

	rp, err := repo.Load(st, bundle.Catalog, opts.CatalogDir)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	log.Printf("Read %d entities from catalog", rp.Size())

	var notesStore notes.Store = notes.EmptyStore{}
	if opts.NotesDir != "" {
		fileStore, err := notes.NewFileStore(opts.NotesDir)
		if err != nil {
			log.Fatalf("Failed to create notes store: %v", err)
		}
		notesStore = notes.NewCachingStore(fileStore)
	}

	server, err := web.NewServer(
		web.ServerOptions{
			Addr:          opts.Addr,
			BaseDir:       opts.BaseDir,
			CatalogDir:    opts.CatalogDir,
			ReadOnly:      opts.ReadOnly,
			Version:       Version,
			LogoCacheSize: opts.LogoCacheSize,
		},
		bundle.UI,
		st,
		rp,
		notesStore,
	)
	if err != nil {
		log.Fatalf("Could not create server: %v", err)
	}

	log.Fatal(server.Serve()) // Never returns
}

func runGenDocs(args []string) {
	var opts Options
	fs := flag.NewFlagSet("partnercat gen-docs", flag.ExitOnError)
	addStoreFlags(fs, &opts)

	var outputDir string
	fs.StringVar(&outputDir, "out-dir", "docs", "Output directory for the documentation")
	var logoBase string
	fs.StringVar(&logoBase, "logo-base", "", "URL prefix for logo image paths in the generated pages")

	err := ff.Parse(fs, args, ff.WithEnvVarPrefix("PARTNERCAT"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		os.Exit(1)
	}

	st := createStore(&opts)
	bundle := loadConfig(st, opts.ConfigFile)

	rp, err := repo.Load(st, bundle.Catalog, opts.CatalogDir)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	gen := docs.NewGenerator(rp)
	gen.LogoBase = logoBase
	if err := gen.Generate(outputDir); err != nil {
		log.Fatalf("Failed to generate documentation: %v", err)
	}
	log.Printf("Documentation generated in %q", outputDir)
}

func runCheck(args []string) {
	var opts Options
	fs := flag.NewFlagSet("partnercat check", flag.ExitOnError)
	addStoreFlags(fs, &opts)
	var skipLinks bool
	fs.BoolVar(&skipLinks, "skip-links", false, "Only check assets, do not probe partner URLs")

	err := ff.Parse(fs, args, ff.WithEnvVarPrefix("PARTNERCAT"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		os.Exit(1)
	}

	st := createStore(&opts)
	bundle := loadConfig(st, opts.ConfigFile)

	rp, err := repo.Load(st, bundle.Catalog, opts.CatalogDir)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	checker := check.NewChecker(rp, st, opts.CatalogDir, bundle.Check)
	var findings []check.Finding
	if skipLinks {
		findings = checker.CheckAssets()
	} else {
		findings, err = checker.Run(context.Background())
		if err != nil {
			log.Fatalf("Check aborted: %v", err)
		}
	}

	for _, f := range findings {
		fmt.Println(f.String())
	}
	if len(findings) > 0 {
		log.Printf("Found %d problem(s) in the catalog", len(findings))
		os.Exit(1)
	}
	log.Printf("Catalog is clean")
}

func gitClientAuthFromEnv() *gitclient.Auth {
	user := os.Getenv("PARTNERCAT_GIT_USER")
	if user == "" {
		return nil
	}
	pass := os.Getenv("PARTNERCAT_GIT_PASSWORD")
	return &gitclient.Auth{
		Username: user,
		Password: pass,
	}
}

// loadConfig reads the configuration bundle from the store.
// A missing config file is not an error, defaults apply.
func loadConfig(st store.Store, configFile string) *config.Bundle {
	if !store.FileExists(st, configFile) {
		log.Printf("No config file %q found, using defaults", configFile)
		return &config.Bundle{}
	}
	bundle, err := config.Load(st, configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return bundle
}

func createStore(opts *Options) store.Store {
	if opts.GitURL != "" {
		auth := gitClientAuthFromEnv()
		log.Printf("Retrieving catalog from git URL %s", opts.GitURL)
		client, err := gitclient.New(opts.GitURL, auth)
		if err != nil {
			log.Fatalf("Failed to retrieve git repo: %v", err)
		}
		ref := opts.GitRef
		if ref == "" {
			ref, err = client.DefaultBranch()
			if err != nil {
				log.Fatalf("No git-ref specified and no default branch found: %v", err)
			}
			log.Printf("Using default git branch %q", ref)
		}
		// Git-backed catalogs are always read-only.
		opts.ReadOnly = true
		src := store.NewGitSource(client, ref)
		st, err := src.Store(ref)
		if err != nil {
			log.Fatalf("Failed to open git store at ref %q: %v", ref, err)
		}
		return st
	} else if opts.RootDir != "" {
		log.Printf("Using local store at %s", opts.RootDir)
		return store.NewDiskStore(opts.RootDir)
	}
	log.Fatalf("Neither -root-dir nor -git-url specified")
	return nil
}
