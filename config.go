package cryosnap

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// BoxValue is an ordered 1/2/4-element pixel box (CSS order
// top/right/bottom/left). It accepts numbers, "10,20"-style strings,
// or arrays when decoding JSON.
type BoxValue []float64

// LineWindow is a 0/1/2-element line selection (see cutText). The
// same lenient forms as BoxValue apply.
type LineWindow []int

// SystemFallback gates loading operating-system fonts into the
// rasteriser database.
type SystemFallback string

const (
	SystemFallbackAuto   SystemFallback = "auto"
	SystemFallbackAlways SystemFallback = "always"
	SystemFallbackNever  SystemFallback = "never"
)

// CJKRegion selects the CJK glyph variant.
type CJKRegion string

const (
	CJKAuto CJKRegion = "auto"
	CJKSC   CJKRegion = "sc"
	CJKTC   CJKRegion = "tc"
	CJKHK   CJKRegion = "hk"
	CJKJP   CJKRegion = "jp"
	CJKKR   CJKRegion = "kr"
)

// RasterBackend selects how SVG output is rasterised.
type RasterBackend string

const (
	BackendAuto  RasterBackend = "auto"
	BackendResvg RasterBackend = "resvg"
	BackendRsvg  RasterBackend = "rsvg"
)

// TitleAlign positions the title within the title bar.
type TitleAlign string

const (
	AlignLeft   TitleAlign = "left"
	AlignCenter TitleAlign = "center"
	AlignRight  TitleAlign = "right"
)

// TitlePathStyle controls how file paths become titles.
type TitlePathStyle string

const (
	PathAbsolute TitlePathStyle = "absolute"
	PathRelative TitlePathStyle = "relative"
	PathBasename TitlePathStyle = "basename"
)

// PNGStrip selects which metadata chunks survive optimisation.
type PNGStrip string

const (
	StripNone PNGStrip = "none"
	StripSafe PNGStrip = "safe"
	StripAll  PNGStrip = "all"
)

// QuantizePreset bundles quality/speed/dither choices.
type QuantizePreset string

const (
	QuantizeFast     QuantizePreset = "fast"
	QuantizeBalanced QuantizePreset = "balanced"
	QuantizeBest     QuantizePreset = "best"
)

// Config is the immutable record passed to every render call.
type Config struct {
	Theme            string        `json:"theme"`
	Background       string        `json:"background"`
	Padding          BoxValue      `json:"padding"`
	Margin           BoxValue      `json:"margin"`
	Width            float64       `json:"width"`
	Height           float64       `json:"height"`
	WindowControls   bool          `json:"window"`
	ShowLineNumbers  bool          `json:"show_line_numbers"`
	Language         string        `json:"language,omitempty"`
	ExecuteTimeoutMS uint64        `json:"execute_timeout_ms"`
	Wrap             int           `json:"wrap"`
	Lines            LineWindow    `json:"lines"`
	Border           Border        `json:"border"`
	Shadow           Shadow        `json:"shadow"`
	Font             Font          `json:"font"`
	LineHeight       float64       `json:"line_height"`
	Raster           RasterOptions `json:"raster"`
	PNG              PNGOptions    `json:"png"`
	Title            TitleOptions  `json:"title"`
}

// Border draws a stroked, optionally rounded terminal rectangle.
type Border struct {
	Radius float64 `json:"radius"`
	Width  float64 `json:"width"`
	Color  string  `json:"color"`
}

// Shadow configures the drop-shadow filter.
type Shadow struct {
	Blur float64 `json:"blur"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Font is the typography section of the configuration.
type Font struct {
	Family         string         `json:"family"`
	File           string         `json:"file,omitempty"`
	Size           float64        `json:"size"`
	Ligatures      bool           `json:"ligatures"`
	Fallbacks      []string       `json:"fallbacks"`
	SystemFallback SystemFallback `json:"system_fallback"`
	AutoDownload   bool           `json:"auto_download"`
	ForceUpdate    bool           `json:"force_update"`
	CJKRegion      CJKRegion      `json:"cjk_region"`
	Dirs           []string       `json:"dirs"`
}

// RasterOptions control the SVG-to-pixmap stage.
type RasterOptions struct {
	Scale     float64       `json:"scale"`
	MaxPixels uint64        `json:"max_pixels"`
	Backend   RasterBackend `json:"backend"`
}

// PNGOptions control quantisation and lossless optimisation.
type PNGOptions struct {
	Optimize        bool            `json:"optimize"`
	Level           int             `json:"level"`
	Strip           PNGStrip        `json:"strip"`
	Quantize        bool            `json:"quantize"`
	QuantizePreset  *QuantizePreset `json:"quantize_preset,omitempty"`
	QuantizeQuality int             `json:"quantize_quality"`
	QuantizeSpeed   int             `json:"quantize_speed"`
	QuantizeDither  float64         `json:"quantize_dither"`
}

// TitleOptions configure the title bar text.
type TitleOptions struct {
	Enabled    bool           `json:"enabled"`
	Text       string         `json:"text,omitempty"`
	PathStyle  TitlePathStyle `json:"path_style"`
	TmuxFormat string         `json:"tmux_format"`
	Align      TitleAlign     `json:"align"`
	Size       float64        `json:"size"`
	Color      string         `json:"color"`
	Opacity    float64        `json:"opacity"`
	MaxWidth   int            `json:"max_width"`
	Ellipsis   string         `json:"ellipsis"`
}

// DefaultConfig is the baseline configuration.
func DefaultConfig() Config {
	return Config{
		Theme:            "charm",
		Background:       "#171717",
		Padding:          BoxValue{20, 40, 20, 20},
		Margin:           BoxValue{0},
		WindowControls:   false,
		ShowLineNumbers:  false,
		ExecuteTimeoutMS: 10_000,
		Lines:            LineWindow{0, -1},
		Border:           Border{Color: "#515151"},
		Font: Font{
			Family:         "monospace",
			Size:           14,
			Ligatures:      true,
			SystemFallback: SystemFallbackAuto,
			AutoDownload:   true,
			CJKRegion:      CJKAuto,
		},
		LineHeight: 1.2,
		Raster: RasterOptions{
			Scale:     defaultRasterScale,
			MaxPixels: defaultRasterMaxPixels,
			Backend:   BackendAuto,
		},
		PNG: PNGOptions{
			Optimize:        true,
			Level:           defaultPNGOptLevel,
			Strip:           StripSafe,
			QuantizeQuality: defaultQuantizeQuality,
			QuantizeSpeed:   defaultQuantizeSpeed,
			QuantizeDither:  defaultQuantizeDither,
		},
		Title: TitleOptions{
			Enabled:    true,
			PathStyle:  PathAbsolute,
			TmuxFormat: "#{session_name}:#{window_index}.#{pane_index} #{pane_title}",
			Align:      AlignCenter,
			Size:       defaultTitleSize,
			Color:      "#C5C8C6",
			Opacity:    defaultTitleOpacity,
			MaxWidth:   defaultTitleMaxWidth,
			Ellipsis:   "…",
		},
	}
}

// ParseConfig decodes a JSON configuration over the defaults.
// Missing fields keep their default value; unknown fields are
// tolerated.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, invalidInputf("config parse: %v", err)
	}
	return cfg, nil
}

func (b *BoxValue) UnmarshalJSON(data []byte) error {
	values, err := parseLenientNumbers(data, parseBoxString)
	if err != nil {
		return err
	}
	if values == nil {
		*b = BoxValue{0}
		return nil
	}
	switch len(values) {
	case 1, 2, 4:
	default:
		return fmt.Errorf("expected 1, 2, or 4 values, got %d", len(values))
	}
	*b = values
	return nil
}

func (l *LineWindow) UnmarshalJSON(data []byte) error {
	values, err := parseLenientNumbers(data, parseBoxString)
	if err != nil {
		return err
	}
	if values == nil {
		*l = LineWindow{}
		return nil
	}
	switch len(values) {
	case 1, 2:
	default:
		return fmt.Errorf("expected 1 or 2 values, got %d", len(values))
	}
	out := make(LineWindow, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	*l = out
	return nil
}

// parseLenientNumbers accepts a number, a delimited string, or an
// array mixing both. A JSON null yields nil.
func parseLenientNumbers(data []byte, fromString func(string) ([]float64, error)) ([]float64, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case float64:
		return []float64{v}, nil
	case string:
		return fromString(v)
	case []any:
		var out []float64
		for _, item := range v {
			switch iv := item.(type) {
			case float64:
				out = append(out, iv)
			case string:
				parsed, err := fromString(iv)
				if err != nil {
					return nil, err
				}
				out = append(out, parsed...)
			default:
				return nil, fmt.Errorf("invalid array value")
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("invalid value")
	}
}

func parseBoxString(input string) ([]float64, error) {
	fields := strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return []float64{0}, nil
	}
	out := make([]float64, 0, len(fields))
	for _, field := range fields {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %s", field)
		}
		out = append(out, value)
	}
	return out, nil
}

func unmarshalEnum(data []byte, target *string, name string, allowed ...string) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	value := strings.ToLower(strings.TrimSpace(raw))
	for _, a := range allowed {
		if value == a {
			*target = value
			return nil
		}
	}
	return fmt.Errorf("invalid %s value %q", name, raw)
}

func (v *SystemFallback) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, (*string)(v), "system_fallback", "auto", "always", "never")
}

func (v *CJKRegion) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, (*string)(v), "cjk_region", "auto", "sc", "tc", "hk", "jp", "kr")
}

func (v *RasterBackend) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, (*string)(v), "backend", "auto", "resvg", "rsvg")
}

func (v *TitleAlign) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, (*string)(v), "align", "left", "center", "right")
}

func (v *TitlePathStyle) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, (*string)(v), "path_style", "absolute", "relative", "basename")
}

func (v *PNGStrip) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, (*string)(v), "strip", "none", "safe", "all")
}

func (v *QuantizePreset) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, (*string)(v), "quantize_preset", "fast", "balanced", "best")
}
