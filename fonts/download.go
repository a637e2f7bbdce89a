package fonts

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const downloadUserAgent = "cryosnap/auto-font"

var httpClient = &http.Client{Timeout: 600 * time.Second}

// notofontsStateCopy is the process-wide copy of the state
// document, populated on the first successful non-forced load and
// reused by later non-forced loads; forced loads bypass it.
var (
	stateMu            sync.Mutex
	notofontsStateCopy NotofontsState
)

// GithubProxyCandidates returns the proxy prefixes to try after the
// direct URL: CRYOSNAP_GITHUB_PROXY when set, else the built-in
// list.
func GithubProxyCandidates() []string {
	if raw := readEnv().GithubProxy; raw != "" {
		var parts []string
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultGithubProxies
}

func applyGithubProxy(url, proxy string) string {
	base := strings.TrimSpace(proxy)
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url
}

// buildCandidates lists the target URLs in order: direct first, then
// each proxy.
func buildCandidates(url string) []string {
	seen := map[string]bool{}
	out := []string{url}
	for _, proxy := range GithubProxyCandidates() {
		if !seen[proxy] {
			seen[proxy] = true
			out = append(out, applyGithubProxy(url, proxy))
		}
	}
	return out
}

func looksLikeJSON(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b == '{' || b == '['
	}
	return false
}

func httpGet(target, etag string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", downloadUserAgent)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotModified {
		resp.Body.Close()
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return resp, nil
}

func readEtagSidecar(target string) string {
	data, err := os.ReadFile(target)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// fetchBytesWithCache fetches url into <cache-dir>/<cacheName> with
// ETag revalidation. A 304 against a corrupt cache purges it and
// retries on the next candidate; when every candidate fails, a valid
// cached copy still wins.
func fetchBytesWithCache(url, cacheName string, forceUpdate bool) ([]byte, error) {
	cacheDir, err := CacheDir()
	if err != nil {
		return nil, err
	}
	dataPath := filepath.Join(cacheDir, cacheName)
	etagPath := dataPath + ".etag"

	etag := ""
	if !forceUpdate {
		if _, statErr := os.Stat(dataPath); statErr == nil {
			etag = readEtagSidecar(etagPath)
		}
	}

	readCached := func() ([]byte, bool) {
		cached, readErr := os.ReadFile(dataPath)
		if readErr == nil && looksLikeJSON(cached) {
			return cached, true
		}
		os.Remove(dataPath)
		os.Remove(etagPath)
		return nil, false
	}

	var lastErr error
	for _, target := range buildCandidates(url) {
		logger.Debug("fetching", "url", url, "target", target)
		resp, reqErr := httpGet(target, etag)
		if reqErr != nil {
			lastErr = reqErr
			logger.Debug("fetch failed", "target", target, "err", reqErr)
			continue
		}
		if resp.StatusCode == http.StatusNotModified {
			resp.Body.Close()
			if cached, ok := readCached(); ok {
				return cached, nil
			}
			lastErr = errors.New("font state cache missing")
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		respEtag := resp.Header.Get("ETag")
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}
		if !looksLikeJSON(body) {
			lastErr = errors.New("invalid response")
			continue
		}
		if mkErr := os.MkdirAll(cacheDir, 0o755); mkErr != nil {
			return nil, mkErr
		}
		if writeErr := os.WriteFile(dataPath, body, 0o644); writeErr != nil {
			return nil, writeErr
		}
		if respEtag != "" {
			_ = os.WriteFile(etagPath, []byte(respEtag), 0o644)
		}
		return body, nil
	}
	if cached, ok := readCached(); ok {
		return cached, nil
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, fmt.Errorf("download failed: %w", lastErr)
}

// LoadNotofontsState returns the state document, from the in-memory
// copy when possible, else via the disk/HTTP cache.
func LoadNotofontsState(forceUpdate bool) (NotofontsState, error) {
	if !forceUpdate {
		stateMu.Lock()
		if notofontsStateCopy != nil {
			state := notofontsStateCopy
			stateMu.Unlock()
			return state, nil
		}
		stateMu.Unlock()
	}
	data, err := fetchBytesWithCache(notofontsStateURL, stateCacheName, forceUpdate)
	if err != nil {
		return nil, err
	}
	var state NotofontsState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("font state parse: %w", err)
	}
	if !forceUpdate {
		stateMu.Lock()
		notofontsStateCopy = state
		stateMu.Unlock()
	}
	return state, nil
}

// SetNotofontsState swaps the process-wide state copy, returning the
// previous one. Tests use it to pin fixtures.
func SetNotofontsState(state NotofontsState) NotofontsState {
	stateMu.Lock()
	defer stateMu.Unlock()
	prev := notofontsStateCopy
	notofontsStateCopy = state
	return prev
}

// downloadURLWithEtag fetches url into target with write-then-rename
// and an ETag sidecar. It reports whether new bytes were written.
func downloadURLWithEtag(url, target string, forceUpdate bool) (bool, error) {
	etagPath := target + ".etag"
	etag := ""
	if !forceUpdate {
		if _, statErr := os.Stat(target); statErr == nil {
			etag = readEtagSidecar(etagPath)
		}
	}

	var lastErr error
	for _, candidate := range buildCandidates(url) {
		logger.Debug("fetching", "url", url, "target", candidate)
		resp, reqErr := httpGet(candidate, etag)
		if reqErr != nil {
			lastErr = reqErr
			logger.Debug("fetch failed", "target", candidate, "err", reqErr)
			continue
		}
		if resp.StatusCode == http.StatusNotModified {
			resp.Body.Close()
			return false, nil
		}
		temp := target + ".download"
		file, createErr := os.Create(temp)
		if createErr != nil {
			resp.Body.Close()
			return false, createErr
		}
		_, copyErr := io.Copy(file, resp.Body)
		respEtag := resp.Header.Get("ETag")
		resp.Body.Close()
		if syncErr := file.Sync(); copyErr == nil {
			copyErr = syncErr
		}
		if closeErr := file.Close(); copyErr == nil {
			copyErr = closeErr
		}
		if copyErr != nil {
			os.Remove(temp)
			lastErr = copyErr
			continue
		}
		if renameErr := os.Rename(temp, target); renameErr != nil {
			os.Remove(temp)
			return false, renameErr
		}
		if respEtag != "" {
			_ = os.WriteFile(etagPath, []byte(respEtag), 0o644)
		}
		return true, nil
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return false, fmt.Errorf("download failed: %w", lastErr)
}

// downloadRawFont tries each URL in order until one succeeds.
func downloadRawFont(urls []string, dir, filename string, forceUpdate bool) (bool, error) {
	target := filepath.Join(dir, filename)
	var lastErr error
	for _, url := range urls {
		downloaded, err := downloadURLWithEtag(url, target, forceUpdate)
		if err == nil {
			return downloaded, nil
		}
		lastErr = err
		logger.Debug("download failed", "url", url, "err", err)
	}
	if lastErr == nil {
		lastErr = errors.New("no available urls")
	}
	return false, fmt.Errorf("font download failed: %w", lastErr)
}

// downloadNotofontsFile fetches one planned script font, trying the
// main and master branches before the recorded release tag.
func downloadNotofontsFile(download ScriptDownload, dir string, forceUpdate bool) (bool, error) {
	target := filepath.Join(dir, download.Filename)
	if !forceUpdate {
		if _, err := os.Stat(target); err == nil {
			return false, nil
		}
	}
	refs := []string{"main", "master"}
	if download.Tag != "" {
		refs = append(refs, download.Tag)
	}
	var lastErr error
	for _, ref := range refs {
		url := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s",
			download.Repo, ref, download.FilePath)
		downloaded, err := downloadURLWithEtag(url, target, forceUpdate)
		if err == nil {
			return downloaded, nil
		}
		lastErr = err
		logger.Debug("download failed", "url", url, "err", err)
	}
	if lastErr == nil {
		lastErr = errors.New("no available refs")
	}
	return false, fmt.Errorf("font download failed: %w", lastErr)
}

// fontPackage is a zipped font distribution pinned by checksum.
type fontPackage struct {
	id           string
	family       string
	filename     string
	url          string
	downloadSHA  string
	fileSHA      string
	archiveEntry string
}

// nerdFontPackage is the Symbols Nerd Font Mono release used for
// Private-Use-Area glyphs.
var nerdFontPackage = fontPackage{
	id:           "symbols-nerd-font-mono",
	family:       "Symbols Nerd Font Mono",
	filename:     "SymbolsNerdFontMono-Regular.ttf",
	url:          "https://github.com/ryanoasis/nerd-fonts/releases/download/v3.2.1/NerdFontsSymbolsOnly.zip",
	downloadSHA:  "bc59c2ea74d022a6262ff9e372fde5c36cd5ae3f82a567941489ecfab4f03d66",
	fileSHA:      "6f7e339af33bde250a4d7360a3176ab1ffe4e99c00eef0d71b4c322364c595f3",
	archiveEntry: "SymbolsNerdFontMono-Regular.ttf",
}

func downloadZip(url, target string) error {
	var lastErr error
	for _, candidate := range buildCandidates(url) {
		logger.Debug("fetching", "url", url, "target", candidate)
		resp, reqErr := httpGet(candidate, "")
		if reqErr != nil {
			lastErr = reqErr
			logger.Debug("fetch failed", "target", candidate, "err", reqErr)
			continue
		}
		temp := target + ".part"
		file, createErr := os.Create(temp)
		if createErr != nil {
			resp.Body.Close()
			return createErr
		}
		_, copyErr := io.Copy(file, resp.Body)
		resp.Body.Close()
		if closeErr := file.Close(); copyErr == nil {
			copyErr = closeErr
		}
		if copyErr != nil {
			os.Remove(temp)
			lastErr = copyErr
			continue
		}
		if zipErr := validateZipArchive(temp); zipErr != nil {
			os.Remove(temp)
			lastErr = zipErr
			continue
		}
		return os.Rename(temp, target)
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return fmt.Errorf("download failed: %w", lastErr)
}

func validateZipArchive(path string) error {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("zip read: %w", err)
	}
	return archive.Close()
}

func extractZipEntry(archivePath, entry, target string) error {
	archive, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("zip read: %w", err)
	}
	defer archive.Close()
	for _, file := range archive.File {
		if file.Name != entry {
			continue
		}
		reader, openErr := file.Open()
		if openErr != nil {
			return openErr
		}
		defer reader.Close()
		out, createErr := os.Create(target)
		if createErr != nil {
			return createErr
		}
		_, copyErr := io.Copy(out, reader)
		if syncErr := out.Sync(); copyErr == nil {
			copyErr = syncErr
		}
		if closeErr := out.Close(); copyErr == nil {
			copyErr = closeErr
		}
		return copyErr
	}
	return fmt.Errorf("zip entry %s: not found", entry)
}

func sha256Hex(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func verifySHA256(path, expected string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	if strings.TrimSpace(expected) == "" {
		return true
	}
	actual, err := sha256Hex(path)
	if err != nil {
		return false
	}
	return strings.EqualFold(actual, strings.TrimSpace(expected))
}

// downloadFontPackage fetches, verifies, and extracts a pinned font
// package. Checksum mismatches delete the download and fail.
func downloadFontPackage(pkg fontPackage, dir string) (bool, error) {
	target := filepath.Join(dir, pkg.filename)
	if verifySHA256(target, pkg.fileSHA) {
		return false, nil
	}
	temp := filepath.Join(dir, pkg.filename+".download")
	if pkg.archiveEntry != "" {
		if err := downloadZip(pkg.url, temp); err != nil {
			return false, err
		}
	} else if _, err := downloadURLWithEtag(pkg.url, temp, true); err != nil {
		return false, err
	}
	if !verifySHA256(temp, pkg.downloadSHA) {
		os.Remove(temp)
		return false, fmt.Errorf("font checksum mismatch for %s", pkg.id)
	}
	if pkg.archiveEntry != "" {
		if err := extractZipEntry(temp, pkg.archiveEntry, target); err != nil {
			os.Remove(temp)
			return false, err
		}
		os.Remove(temp)
	} else if err := os.Rename(temp, target); err != nil {
		return false, err
	}
	if !verifySHA256(target, pkg.fileSHA) {
		return false, fmt.Errorf("font checksum mismatch for %s", pkg.id)
	}
	return true, nil
}

// EnsureAvailable downloads whatever planned fonts are missing from
// the app font directory. Families the system already provides are
// skipped unless system fallback is disabled; existing files are
// kept unless force update is set. Every failure is logged and the
// next item proceeds.
func EnsureAvailable(opts Options, needs *Needs, plan ScriptPlan) error {
	if !AutoDownloadEnabled(opts) {
		logger.Debug("auto-download disabled")
		return nil
	}
	forceUpdate := ForceUpdateEnabled(opts)
	if !needs.NerdFont && !needs.CJK && !needs.Emoji && len(plan.Downloads) == 0 {
		logger.Debug("no font downloads required")
		return nil
	}
	fontDirs, err := ResolveFontDirs(opts)
	if err != nil {
		return err
	}
	if len(fontDirs) == 0 {
		return nil
	}
	primaryDir := fontDirs[0]
	appFamilies := AppFamilies(opts)
	allowSystem := opts.SystemFallback != FallbackNever

	if err := os.MkdirAll(primaryDir, 0o755); err != nil {
		return err
	}

	downloadedAny := false
	report := func(what string, downloaded bool, err error) {
		switch {
		case err != nil:
			logger.Warn("font download failed", "font", what, "err", err)
		case downloaded:
			downloadedAny = true
			logger.Info("downloaded font", "font", what)
		default:
			logger.Debug("font up-to-date", "font", what)
		}
	}

	for _, download := range plan.Downloads {
		appHas := appFamilies[FamilyKey(download.Family)]
		systemHas := allowSystem && SystemHasFamily(download.Family)
		if systemHas && !appHas {
			continue
		}
		if appHas {
			if !forceUpdate {
				continue
			}
			if _, statErr := os.Stat(filepath.Join(primaryDir, download.Filename)); statErr != nil {
				continue
			}
		}
		downloaded, dlErr := downloadNotofontsFile(download, primaryDir, forceUpdate)
		report(download.Family, downloaded, dlErr)
	}

	if needs.NerdFont &&
		!anyFamilyPresent([]string{nerdFontPackage.family}, appFamilies) &&
		!(allowSystem && anySystemFamily([]string{nerdFontPackage.family})) {
		downloaded, dlErr := downloadFontPackage(nerdFontPackage, primaryDir)
		report(nerdFontPackage.family, downloaded, dlErr)
	}

	if needs.CJK {
		for _, region := range CollectCJKRegions(opts, needs) {
			families := RegionFamilies(region)
			appHas := anyFamilyPresent(families, appFamilies)
			systemHas := allowSystem && anySystemFamily(families)
			if systemHas && !appHas {
				continue
			}
			filename := RegionFilename(region)
			if appHas {
				if !forceUpdate {
					continue
				}
				if _, statErr := os.Stat(filepath.Join(primaryDir, filename)); statErr != nil {
					continue
				}
			}
			downloaded, dlErr := downloadRawFont(RegionURLs(region), primaryDir, filename, forceUpdate)
			report(filename, downloaded, dlErr)
		}
	}

	if needs.Emoji {
		appHas := anyFamilyPresent(AutoFallbackEmoji, appFamilies)
		systemHas := allowSystem && anySystemFamily(AutoFallbackEmoji)
		if !systemHas || appHas {
			filename := "NotoColorEmoji.ttf"
			target := filepath.Join(primaryDir, filename)
			exists := false
			if _, statErr := os.Stat(target); statErr == nil {
				exists = true
			}
			if !appHas || (forceUpdate && exists) {
				downloaded, dlErr := downloadRawFont(notoEmojiURLs, primaryDir, filename, forceUpdate)
				report("Noto Color Emoji", downloaded, dlErr)
			}
		}
	}

	if downloadedAny {
		InvalidateCaches()
	}
	return nil
}

func anyFamilyPresent(families []string, set map[string]bool) bool {
	for _, name := range families {
		if set[FamilyKey(name)] {
			return true
		}
	}
	return false
}

func anySystemFamily(families []string) bool {
	for _, name := range families {
		if SystemHasFamily(name) {
			return true
		}
	}
	return false
}
