// Command gitclienttest is a small debugging tool to verify that a git
// repository can be used as a partnercat catalog source: it lists the
// available refs and the catalog files found at a given ref.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"partnercat.dev/partnercat/internal/gitclient"
	"partnercat.dev/partnercat/internal/store"
)

func main() {
	var (
		url        string
		username   string
		password   string
		ref        string
		catalogDir string
	)

	flag.StringVar(&url, "url", "", "Repository URL to list")
	flag.StringVar(&username, "user", "", "Username for authentication")
	flag.StringVar(&password, "pass", "", "Password or Token for authentication")
	flag.StringVar(&ref, "ref", "main", "Reference (branch or tag) to list files from")
	flag.StringVar(&catalogDir, "catalog-dir", "catalog", "Catalog directory to read entities from")
	flag.Parse()

	if url == "" {
		fmt.Println("Error: -url is required")
		flag.Usage()
		os.Exit(1)
	}

	var auth *gitclient.Auth
	if username != "" || password != "" {
		auth = &gitclient.Auth{
			Username: username,
			Password: password,
		}
	}

	client, err := gitclient.New(url, auth)
	if err != nil {
		log.Fatalf("Failed to create client for %q: %v", url, err)
	}

	// List branches and tags
	refs, err := client.ListReferences()
	if err != nil {
		log.Fatalf("Failed to list references: %v", err)
	}
	if len(refs) == 0 {
		log.Fatalf("No branches or tags found in %q", url)
	}

	fmt.Printf("Branches and tags in %s:\n", url)
	for _, v := range refs {
		fmt.Printf("  %s\n", v)
	}

	// List the catalog files at the specified revision and count entities.
	src := store.NewGitSource(client, ref)
	st, err := src.Store(ref)
	if err != nil {
		log.Fatalf("Failed to open store at revision %q: %v", ref, err)
	}
	files, err := store.CatalogFiles(st, catalogDir)
	if err != nil {
		log.Fatalf("Failed to list catalog files for revision %q: %v", ref, err)
	}

	fmt.Printf("\nCatalog files at revision %q:\n", ref)
	for _, f := range files {
		entities, err := store.ReadEntities(st, f)
		if err != nil {
			fmt.Printf("  %s (unreadable: %v)\n", f, err)
			continue
		}
		fmt.Printf("  %s (%d entities)\n", f, len(entities))
	}
}
