// Command cryosnap renders code or terminal output into a stylised
// terminal-window image.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/atotto/clipboard"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	cryosnap "github.com/Wangnov/cryosnap"
)

type cliFlags struct {
	configName string
	output     string
	language   string
	theme      string
	execute    string
	tmux       bool
	tmuxArgs   string
	copyToClip bool

	window          bool
	showLineNumbers bool
	background      string
	padding         string
	margin          string
	width           float64
	height          float64
	wrap            int
	lines           string
	fontFamily      string
	fontFile        string
	fontSize        float64
	lineHeight      float64
	borderRadius    float64
	borderWidth     float64
	borderColor     string
	shadowBlur      float64
	shadowX         float64
	shadowY         float64
	title           string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cryosnap:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags cliFlags
	cmd := &cobra.Command{
		Use:   "cryosnap [file]",
		Short: "Generate images of code and terminal output",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, &flags)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&flags.configName, "config", "c", "default", "named config (default, base, full, user) or a JSON file path")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output path; the extension picks svg, png, or webp")
	cmd.Flags().StringVarP(&flags.language, "language", "l", "", "language override (or \"ansi\")")
	cmd.Flags().StringVarP(&flags.theme, "theme", "t", "", "syntax theme")
	cmd.Flags().StringVarP(&flags.execute, "execute", "x", "", "run the command in a pseudo-terminal and capture its output")
	cmd.Flags().BoolVar(&flags.tmux, "tmux", false, "capture the current tmux pane")
	cmd.Flags().StringVar(&flags.tmuxArgs, "tmux-args", "", "extra arguments for tmux capture-pane (e.g. \"-t mysession\")")
	cmd.Flags().BoolVar(&flags.copyToClip, "copy", false, "copy SVG output to the clipboard")

	cmd.Flags().BoolVarP(&flags.window, "window", "w", false, "show window controls")
	cmd.Flags().BoolVarP(&flags.showLineNumbers, "show-line-numbers", "n", false, "show line numbers")
	cmd.Flags().StringVar(&flags.background, "background", "", "background color")
	cmd.Flags().StringVar(&flags.padding, "padding", "", "padding (1, 2, or 4 comma-separated values)")
	cmd.Flags().StringVar(&flags.margin, "margin", "", "margin (1, 2, or 4 comma-separated values)")
	cmd.Flags().Float64Var(&flags.width, "width", 0, "image width (0 = auto)")
	cmd.Flags().Float64Var(&flags.height, "height", 0, "image height (0 = auto)")
	cmd.Flags().IntVar(&flags.wrap, "wrap", -1, "wrap lines at the given cell count (0 = off)")
	cmd.Flags().StringVar(&flags.lines, "lines", "", "line window (e.g. \"10,20\")")
	cmd.Flags().StringVar(&flags.fontFamily, "font.family", "", "font family")
	cmd.Flags().StringVar(&flags.fontFile, "font.file", "", "font file to embed")
	cmd.Flags().Float64Var(&flags.fontSize, "font.size", 0, "font size")
	cmd.Flags().Float64Var(&flags.lineHeight, "line-height", 0, "line height multiplier")
	cmd.Flags().Float64Var(&flags.borderRadius, "border.radius", -1, "corner radius")
	cmd.Flags().Float64Var(&flags.borderWidth, "border.width", -1, "border width")
	cmd.Flags().StringVar(&flags.borderColor, "border.color", "", "border color")
	cmd.Flags().Float64Var(&flags.shadowBlur, "shadow.blur", -1, "shadow blur")
	cmd.Flags().Float64Var(&flags.shadowX, "shadow.x", 0, "shadow x offset")
	cmd.Flags().Float64Var(&flags.shadowY, "shadow.y", 0, "shadow y offset")
	cmd.Flags().StringVar(&flags.title, "title", "", "window title text")

	return cmd
}

func run(cmd *cobra.Command, args []string, flags *cliFlags) error {
	config, _, err := cryosnap.LoadConfig(flags.configName)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, flags, &config); err != nil {
		return err
	}

	input, err := resolveInput(cmd, args, flags, &config)
	if err != nil {
		return err
	}

	format := cryosnap.FormatSVG
	switch strings.ToLower(filepath.Ext(flags.output)) {
	case ".png":
		format = cryosnap.FormatPNG
	case ".webp":
		format = cryosnap.FormatWebP
	}

	result, err := cryosnap.Render(cryosnap.RenderRequest{
		Input:  input,
		Config: config,
		Format: format,
	})
	if err != nil {
		return err
	}

	if flags.copyToClip && format == cryosnap.FormatSVG {
		if err := clipboard.WriteAll(string(result.Bytes)); err != nil {
			fmt.Fprintln(os.Stderr, "cryosnap: clipboard:", err)
		}
	}

	if flags.output == "" {
		_, err = os.Stdout.Write(result.Bytes)
		return err
	}
	return os.WriteFile(flags.output, result.Bytes, 0o644)
}

// resolveInput picks the input source: --execute, --tmux, a file
// argument, or piped standard input.
func resolveInput(cmd *cobra.Command, args []string, flags *cliFlags, config *cryosnap.Config) (cryosnap.InputSource, error) {
	switch {
	case flags.execute != "":
		return cryosnap.CommandInput(flags.execute), nil
	case flags.tmux:
		text, err := captureTmuxOutput(flags.tmuxArgs)
		if err != nil {
			return cryosnap.InputSource{}, err
		}
		if config.Title.Text == "" {
			if title, ok := tmuxTitle(flags.tmuxArgs, config.Title.TmuxFormat); ok {
				config.Title.Text = title
			}
		}
		config.Language = "ansi"
		return cryosnap.TextInput(text), nil
	case len(args) == 1:
		return cryosnap.FileInput(args[0]), nil
	default:
		if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
			return cryosnap.InputSource{}, fmt.Errorf("no input: pass a file, --execute, --tmux, or pipe text on stdin")
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return cryosnap.InputSource{}, err
		}
		return cryosnap.TextInput(string(data)), nil
	}
}

func applyFlags(cmd *cobra.Command, flags *cliFlags, config *cryosnap.Config) error {
	if flags.language != "" {
		if err := checkLanguage(flags.language); err != nil {
			return err
		}
		config.Language = flags.language
	}
	if flags.theme != "" {
		if err := checkTheme(flags.theme); err != nil {
			return err
		}
		config.Theme = flags.theme
	}
	if cmd.Flags().Changed("window") {
		config.WindowControls = flags.window
	}
	if cmd.Flags().Changed("show-line-numbers") {
		config.ShowLineNumbers = flags.showLineNumbers
	}
	if flags.background != "" {
		config.Background = flags.background
	}
	if flags.padding != "" {
		if err := parseBoxFlag(flags.padding, &config.Padding); err != nil {
			return fmt.Errorf("invalid --padding: %w", err)
		}
	}
	if flags.margin != "" {
		if err := parseBoxFlag(flags.margin, &config.Margin); err != nil {
			return fmt.Errorf("invalid --margin: %w", err)
		}
	}
	if flags.width > 0 {
		config.Width = flags.width
	}
	if flags.height > 0 {
		config.Height = flags.height
	}
	if flags.wrap >= 0 {
		config.Wrap = flags.wrap
	}
	if flags.lines != "" {
		if err := parseLinesFlag(flags.lines, &config.Lines); err != nil {
			return fmt.Errorf("invalid --lines: %w", err)
		}
	}
	if flags.fontFamily != "" {
		config.Font.Family = flags.fontFamily
	}
	if flags.fontFile != "" {
		config.Font.File = flags.fontFile
	}
	if flags.fontSize > 0 {
		config.Font.Size = flags.fontSize
	}
	if flags.lineHeight > 0 {
		config.LineHeight = flags.lineHeight
	}
	if flags.borderRadius >= 0 {
		config.Border.Radius = flags.borderRadius
	}
	if flags.borderWidth >= 0 {
		config.Border.Width = flags.borderWidth
	}
	if flags.borderColor != "" {
		config.Border.Color = flags.borderColor
	}
	if flags.shadowBlur >= 0 {
		config.Shadow.Blur = flags.shadowBlur
	}
	if cmd.Flags().Changed("shadow.x") {
		config.Shadow.X = flags.shadowX
	}
	if cmd.Flags().Changed("shadow.y") {
		config.Shadow.Y = flags.shadowY
	}
	if flags.title != "" {
		config.Title.Text = flags.title
		config.Title.Enabled = true
	}
	return nil
}

func parseBoxFlag(value string, target *cryosnap.BoxValue) error {
	return target.UnmarshalJSON([]byte(fmt.Sprintf("%q", value)))
}

func parseLinesFlag(value string, target *cryosnap.LineWindow) error {
	return target.UnmarshalJSON([]byte(fmt.Sprintf("%q", value)))
}

// checkLanguage validates a language override, suggesting the
// closest known lexer on a miss.
func checkLanguage(language string) error {
	if strings.EqualFold(language, "ansi") {
		return nil
	}
	if lexers.Get(language) != nil || lexers.Match("file."+language) != nil {
		return nil
	}
	if suggestion := closest(language, lexers.Names(true)); suggestion != "" {
		return fmt.Errorf("unknown language %q (did you mean %q?)", language, suggestion)
	}
	return fmt.Errorf("unknown language %q", language)
}

func checkTheme(theme string) error {
	if strings.EqualFold(theme, "charm") {
		return nil
	}
	if _, ok := styles.Registry[theme]; ok {
		return nil
	}
	if suggestion := closest(theme, styles.Names()); suggestion != "" {
		return fmt.Errorf("unknown theme %q (did you mean %q?)", theme, suggestion)
	}
	return fmt.Errorf("unknown theme %q", theme)
}

// closest returns the candidate with the smallest edit distance, or
// "" when nothing is close enough to be a plausible typo.
func closest(input string, candidates []string) string {
	best := ""
	bestDist := 4
	lower := strings.ToLower(input)
	for _, candidate := range candidates {
		dist := levenshtein.ComputeDistance(lower, strings.ToLower(candidate))
		if dist < bestDist {
			best = candidate
			bestDist = dist
		}
	}
	return best
}
