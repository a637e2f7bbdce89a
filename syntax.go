package cryosnap

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// charmStyle is the built-in "charm" theme.
var charmStyle = chroma.MustNewStyle("charm", chroma.StyleEntries{
	chroma.Text:                "#C4C4C4",
	chroma.Background:          "bg:#171717",
	chroma.Comment:             "#676767",
	chroma.CommentPreproc:      "#FF875F",
	chroma.Keyword:             "#00AAFF",
	chroma.KeywordReserved:     "#FF48DD",
	chroma.KeywordNamespace:    "#FF5F87",
	chroma.KeywordType:         "#635ADF",
	chroma.Operator:            "#FF7F83",
	chroma.Punctuation:         "#E8E8A8",
	chroma.LiteralNumber:       "#6EEFC0",
	chroma.LiteralString:       "#E38356",
	chroma.LiteralStringEscape: "#AFFFD7",
	chroma.NameFunction:        "#00DC7F",
	chroma.NameTag:             "#B083EA",
	chroma.NameAttribute:       "#7A7AE6",
	chroma.NameClass:           "bold underline #F1F1F1",
	chroma.NameDecorator:       "#FFFF87",
})

// selectTheme resolves a theme name: "charm" is built in, unknown
// names degrade to base16-ocean.dark and finally to any registered
// style.
func selectTheme(name string) *chroma.Style {
	if strings.EqualFold(name, "charm") {
		return charmStyle
	}
	if style, ok := styles.Registry[name]; ok {
		return style
	}
	if style, ok := styles.Registry["base16-ocean.dark"]; ok {
		return style
	}
	return styles.Fallback
}

// selectLexer resolves a lexer: language override first (as a token,
// then as an extension), then the file path, then first-line
// sniffing, then plain text.
func selectLexer(text, path, language string) chroma.Lexer {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
		if lexer == nil {
			lexer = lexers.Match("file." + language)
		}
	}
	if lexer == nil && path != "" {
		lexer = lexers.Match(filepath.Base(path))
	}
	if lexer == nil {
		firstLine, _, _ := strings.Cut(text, "\n")
		lexer = lexers.Analyse(firstLine)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// highlightCode highlights text into styled lines and returns the
// theme's default foreground.
func highlightCode(text, path, language, themeName string) ([]Line, string, error) {
	theme := selectTheme(themeName)
	lexer := selectLexer(text, path, language)

	defaultFG := "#FFFFFF"
	if entry := theme.Get(chroma.Text); entry.Colour.IsSet() {
		defaultFG = entry.Colour.String()
	}

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return nil, "", renderErrf("highlight: %v", err)
	}

	lines := []Line{{}}
	for token := iterator(); token != chroma.EOF; token = iterator() {
		style := styleForToken(theme, token.Type)
		parts := strings.Split(token.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				lines = append(lines, Line{})
			}
			if i < len(parts)-1 {
				part = strings.TrimSuffix(part, "\r")
			}
			if part == "" {
				continue
			}
			line := &lines[len(lines)-1]
			line.Spans = appendSpan(line.Spans, part, style)
		}
	}
	return lines, defaultFG, nil
}

func styleForToken(theme *chroma.Style, ttype chroma.TokenType) Style {
	entry := theme.Get(ttype)
	var style Style
	if entry.Colour.IsSet() {
		style.FG = entry.Colour.String()
	}
	if entry.Background.IsSet() {
		style.BG = entry.Background.String()
	}
	if entry.Bold == chroma.Yes {
		style.Bold = true
	}
	if entry.Italic == chroma.Yes {
		style.Italic = true
	}
	if entry.Underline == chroma.Yes {
		style.Underline = true
	}
	return style
}
