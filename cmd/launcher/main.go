// Package main implements a drop-in launcher and auto-updater for partnercat.
//
// The launcher keeps versioned installations side by side in its own
// directory ("partnercat-v1.2.3/..."). On startup it asks GitHub for the
// latest release, downloads and extracts it next to the existing versions if
// it is newer, and then executes the partnercat binary of the newest local
// version, passing all arguments through. Updates never require elevated
// privileges, and a failed update check never prevents the launch.
package main

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	defaultReleaseURL = "https://api.github.com/repos/partnercat/partnercat/releases/latest"
	installPrefix     = "partnercat-"
)

type release struct {
	TagName string         `json:"tag_name"` // e.g. "v1.2.3"
	Assets  []releaseAsset `json:"assets"`
}

type releaseAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// assetFor returns the download URL of the release asset built for the given
// OS and architecture. Assets are named like partnercat-v1.2.3-linux-amd64.zip.
func (r *release) assetFor(goos, goarch string) (string, bool) {
	for _, a := range r.Assets {
		name := strings.ToLower(a.Name)
		if strings.Contains(name, goos) && strings.Contains(name, goarch) {
			return a.BrowserDownloadURL, true
		}
	}
	return "", false
}

// updater checks for and installs partnercat releases in baseDir.
type updater struct {
	baseDir    string
	releaseURL string
	goos       string
	goarch     string
	client     *http.Client
}

func newUpdater(baseDir string) *updater {
	return &updater{
		baseDir:    baseDir,
		releaseURL: defaultReleaseURL,
		goos:       runtime.GOOS,
		goarch:     runtime.GOARCH,
		client:     http.DefaultClient,
	}
}

// latestRelease queries the release endpoint and returns the latest tag and
// the download URL for the updater's platform.
func (u *updater) latestRelease(ctx context.Context) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.releaseURL, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("release endpoint returned status %d", resp.StatusCode)
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return "", "", fmt.Errorf("invalid release JSON: %w", err)
	}
	url, ok := rel.assetFor(u.goos, u.goarch)
	if !ok {
		var names []string
		for _, a := range rel.Assets {
			names = append(names, a.Name)
		}
		return rel.TagName, "", fmt.Errorf("release %s has no asset for %s/%s (candidates: %v)",
			rel.TagName, u.goos, u.goarch, names)
	}
	return rel.TagName, url, nil
}

// install downloads the release zip and extracts it into baseDir. The zip is
// expected to contain a single top-level "partnercat-<version>/" folder.
func (u *updater) install(ctx context.Context, downloadURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return err
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: status %s", resp.Status)
	}

	tmp, err := os.CreateTemp("", "partnercat-update-*.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	_, err = io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to save download: %w", err)
	}

	return extractZip(tmp.Name(), u.baseDir)
}

// extractZip extracts src into dest, refusing entries that would escape dest.
func extractZip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	destRoot := filepath.Clean(dest) + string(os.PathSeparator)
	for _, f := range r.File {
		target := filepath.Join(dest, f.Name)
		if !strings.HasPrefix(target, destRoot) {
			return fmt.Errorf("zip entry %q escapes destination", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := extractZipFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractZipFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	_, err = io.Copy(out, rc)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

// newestInstalled scans dir for "partnercat-<version>" subdirectories and
// returns the highest semver version and its directory name. It returns
// version "v0.0.0" and an empty directory when nothing is installed.
func newestInstalled(dir string) (string, string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", dir, err)
	}

	maxVersion := "v0.0.0"
	maxDir := ""
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), installPrefix) {
			continue
		}
		v := strings.TrimPrefix(e.Name(), installPrefix)
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		if !semver.IsValid(v) {
			continue
		}
		if semver.Compare(v, maxVersion) > 0 {
			maxVersion = v
			maxDir = e.Name()
		}
	}
	return maxVersion, maxDir, nil
}

// run executes the partnercat binary inside dir, forwarding args and the
// standard streams. It returns the child's exit code.
func run(dir string, args []string) (int, error) {
	exe := "partnercat"
	if runtime.GOOS == "windows" {
		exe += ".exe"
	}
	exePath := filepath.Join(dir, exe)
	if _, err := os.Stat(exePath); err != nil {
		return 1, fmt.Errorf("executable not found at %s: %w", exePath, err)
	}

	cmd := exec.Command(exePath, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return 1, err
	}
	return 0, nil
}

func main() {
	baseDir, err := os.Getwd()
	if err != nil {
		fmt.Printf("Fatal: %v\n", err)
		os.Exit(1)
	}
	u := newUpdater(baseDir)

	currentVersion, _, err := newestInstalled(baseDir)
	if err != nil {
		fmt.Printf("Warning: failed to scan for local versions: %v\n", err)
		currentVersion = "v0.0.0"
	}

	fmt.Printf("Checking for updates (current: %s)...\n", currentVersion)
	// The timeout is short on purpose: an offline launcher must still launch.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	latestTag, downloadURL, err := u.latestRelease(ctx)
	cancel()
	switch {
	case err != nil:
		fmt.Printf("Update check failed (%v). Launching local version...\n", err)
	case semver.Compare(latestTag, currentVersion) > 0:
		fmt.Printf("New version %s found. Downloading...\n", latestTag)
		if err := u.install(context.Background(), downloadURL); err != nil {
			fmt.Printf("Update failed: %v. Launching local version...\n", err)
		} else {
			fmt.Println("Update installed successfully.")
		}
	default:
		fmt.Printf("Local version %s is up-to-date.\n", currentVersion)
	}

	_, latestDir, err := newestInstalled(baseDir)
	if err != nil || latestDir == "" {
		fmt.Println("Fatal: no local version of partnercat found to launch.")
		os.Exit(1)
	}
	code, err := run(filepath.Join(baseDir, latestDir), os.Args[1:])
	if err != nil {
		fmt.Printf("Fatal: failed to launch partnercat: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}
