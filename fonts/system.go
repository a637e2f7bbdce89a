package fonts

import (
	"io"
	"io/fs"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/fontscan"
)

// FamilyKey normalises a family name for case-insensitive set
// membership.
func FamilyKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsGenericFamily reports whether name is a CSS generic family that
// only the system fallback can satisfy.
func IsGenericFamily(name string) bool {
	switch FamilyKey(name) {
	case "serif", "sans-serif", "sans", "monospace", "cursive", "fantasy":
		return true
	}
	return false
}

// pushFamily appends name unless a case-insensitive duplicate is
// already present.
func pushFamily(out []string, seen map[string]bool, name string) []string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return out
	}
	key := FamilyKey(trimmed)
	if seen[key] {
		return out
	}
	seen[key] = true
	return append(out, trimmed)
}

// BuildFamilies assembles the ordered, de-duplicated family list:
// primary, configured fallbacks, script-plan families, then the
// per-need fallback groups.
func BuildFamilies(opts Options, needs *Needs, scriptFamilies []string) []string {
	var families []string
	seen := make(map[string]bool)
	families = pushFamily(families, seen, opts.Family)
	for _, name := range opts.Fallbacks {
		families = pushFamily(families, seen, name)
	}
	for _, name := range scriptFamilies {
		families = pushFamily(families, seen, name)
	}
	if needs.NerdFont {
		for _, name := range AutoFallbackNF {
			families = pushFamily(families, seen, name)
		}
	}
	if needs.CJK {
		for _, name := range AutoFallbackCJK {
			families = pushFamily(families, seen, name)
		}
	}
	if needs.Unicode {
		for _, name := range AutoFallbackGlobal {
			families = pushFamily(families, seen, name)
		}
	}
	if needs.Emoji {
		for _, name := range AutoFallbackEmoji {
			families = pushFamily(families, seen, name)
		}
	}
	return families
}

func familyRequiresSystem(name string, appFamilies map[string]bool) bool {
	if IsGenericFamily(name) {
		return true
	}
	return !appFamilies[FamilyKey(name)]
}

// NeedsSystemFonts decides whether the rasteriser must load
// operating-system fonts: never/always short-circuit; auto requires
// them when the primary family or any listed fallback is generic or
// absent from the app-loaded families. A configured font file makes
// the primary family count as present.
func NeedsSystemFonts(opts Options, appFamilies map[string]bool, families []string) bool {
	switch opts.SystemFallback {
	case FallbackNever:
		return false
	case FallbackAlways:
		return true
	}
	if opts.File == "" && familyRequiresSystem(opts.Family, appFamilies) {
		return true
	}
	for _, name := range families {
		if opts.File != "" && strings.EqualFold(name, opts.Family) {
			continue
		}
		if familyRequiresSystem(name, appFamilies) {
			return true
		}
	}
	return false
}

// BuildPlan combines family assembly and system-fallback gating.
func BuildPlan(opts Options, needs *Needs, appFamilies map[string]bool, scriptFamilies []string) Plan {
	families := BuildFamilies(opts, needs, scriptFamilies)
	return Plan{
		FontFamily:       strings.Join(families, ", "),
		NeedsSystemFonts: NeedsSystemFonts(opts, appFamilies, families),
	}
}

var discardLogger = stdlog.New(io.Discard, "", 0)

func isFontFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttf", ".otf", ".ttc", ".otc":
		return true
	}
	return false
}

// listFontFiles walks dir recursively for loadable font files.
func listFontFiles(dir string) []string {
	var out []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && isFontFile(path) {
			out = append(out, path)
		}
		return nil
	})
	return out
}

// familiesOfFontFile parses a font file and returns the family names
// of its faces.
func familiesOfFontFile(path string) []string {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()
	var faces []*font.Face
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttc", ".otc":
		faces, err = font.ParseTTC(file)
	default:
		var face *font.Face
		face, err = font.ParseTTF(file)
		faces = []*font.Face{face}
	}
	if err != nil {
		return nil
	}
	var out []string
	for _, face := range faces {
		if face == nil {
			continue
		}
		if family := face.Describe().Family; family != "" {
			out = append(out, family)
		}
	}
	return out
}

var (
	familyCacheMu   sync.Mutex
	appFamilyCache  = make(map[string]map[string]bool)
	systemMapOnce   sync.Once
	systemMap       *fontscan.FontMap
	systemFontDirsC []string
)

// InvalidateCaches drops the app-family cache after a successful
// download so the next render sees the new files.
func InvalidateCaches() {
	familyCacheMu.Lock()
	appFamilyCache = make(map[string]map[string]bool)
	familyCacheMu.Unlock()
}

// AppFamilies returns the case-folded family names available from
// the configured font file and the app font directories.
func AppFamilies(opts Options) map[string]bool {
	dirs, err := ResolveFontDirs(opts)
	if err != nil {
		return map[string]bool{}
	}
	cacheKey := opts.File + "\x00" + strings.Join(dirs, "\x00")

	familyCacheMu.Lock()
	if cached, ok := appFamilyCache[cacheKey]; ok {
		familyCacheMu.Unlock()
		return cached
	}
	familyCacheMu.Unlock()

	families := make(map[string]bool)
	add := func(path string) {
		for _, family := range familiesOfFontFile(path) {
			families[FamilyKey(family)] = true
		}
	}
	if opts.File != "" {
		add(opts.File)
	}
	for _, dir := range dirs {
		for _, path := range listFontFiles(dir) {
			add(path)
		}
	}

	familyCacheMu.Lock()
	appFamilyCache[cacheKey] = families
	familyCacheMu.Unlock()
	return families
}

func systemFontMap() *fontscan.FontMap {
	systemMapOnce.Do(func() {
		fontMap := fontscan.NewFontMap(discardLogger)
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			cacheDir = os.TempDir()
		}
		if err := fontMap.UseSystemFonts(cacheDir); err != nil {
			logger.Debug("system font scan failed", "err", err)
			return
		}
		systemMap = fontMap
	})
	return systemMap
}

// SystemHasFamily reports whether the operating system provides the
// family.
func SystemHasFamily(family string) bool {
	fontMap := systemFontMap()
	if fontMap == nil {
		return false
	}
	_, ok := fontMap.FindSystemFont(family)
	return ok
}

// systemFontDirs lists the platform font directories, cached for the
// process lifetime.
func systemFontDirs() []string {
	familyCacheMu.Lock()
	defer familyCacheMu.Unlock()
	if systemFontDirsC == nil {
		dirs, err := fontscan.DefaultFontDirectories(discardLogger)
		if err != nil {
			logger.Debug("system font directories unavailable", "err", err)
			dirs = []string{}
		}
		systemFontDirsC = dirs
	}
	return systemFontDirsC
}

// CollectFontFiles lists every font file the rasteriser database
// should load, in priority order: the configured font file, the app
// font directories, and (when required) the system directories.
func CollectFontFiles(opts Options, needsSystem bool) ([]string, error) {
	var out []string
	if opts.File != "" {
		out = append(out, opts.File)
	}
	dirs, err := ResolveFontDirs(opts)
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		out = append(out, listFontFiles(dir)...)
	}
	if needsSystem {
		for _, dir := range systemFontDirs() {
			out = append(out, listFontFiles(dir)...)
		}
	}
	return out, nil
}
