// Package fonts plans, downloads, and assembles the fallback fonts a
// render needs: script coverage scanning, Notofonts planning, CJK
// region selection, best-effort downloading into the app font
// directory, and system-fallback gating.
package fonts

// Options is the typography slice of the render configuration the
// font machinery consumes.
type Options struct {
	Family         string
	File           string
	Fallbacks      []string
	Dirs           []string
	CJKRegion      Region
	AutoDownload   bool
	ForceUpdate    bool
	SystemFallback FallbackMode
}

// Region selects the CJK glyph variant.
type Region string

const (
	RegionAuto Region = "auto"
	RegionSC   Region = "sc"
	RegionTC   Region = "tc"
	RegionHK   Region = "hk"
	RegionJP   Region = "jp"
	RegionKR   Region = "kr"
)

// FallbackMode gates operating-system font loading.
type FallbackMode string

const (
	FallbackAuto   FallbackMode = "auto"
	FallbackAlways FallbackMode = "always"
	FallbackNever  FallbackMode = "never"
)

// Needs summarises what the rendered text requires from the font
// stack.
type Needs struct {
	Unicode  bool
	NerdFont bool
	CJK      bool
	Emoji    bool
	Scripts  map[string]bool
}

// ScriptDownload names one Notofonts file to fetch.
type ScriptDownload struct {
	Family   string
	Repo     string
	FilePath string
	Filename string
	Tag      string
}

// ScriptPlan is the outcome of Notofonts planning: fallback families
// to advertise and files to fetch.
type ScriptPlan struct {
	Families  []string
	Downloads []ScriptDownload
}

// Plan is the final font resolution for one render.
type Plan struct {
	// FontFamily is the ordered, de-duplicated display list.
	FontFamily string
	// NeedsSystemFonts reports whether the rasteriser must load
	// operating-system fonts.
	NeedsSystemFonts bool
}
