// Package highlight colors JSON, YAML and shell text for terminal output.
package highlight

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

type Lang string

const (
	JSON  Lang = "json"
	YAML  Lang = "yaml"
	Shell Lang = "bash"
	Auto  Lang = ""
)

// Palette selects the ANSI formatter. The TUI is limited to the basic 8
// colors; a regular terminal gets 256.
type Palette string

const (
	Palette8   Palette = "terminal"
	Palette256 Palette = "terminal256"
)

var style = styles.Get("dracula")

func init() {
	if style == nil {
		style = styles.Fallback
	}
}

// Text returns input with ANSI colors, or input unchanged when no lexer
// applies or highlighting fails.
func Text(input string, lang Lang, palette Palette) string {
	if input == "" {
		return input
	}
	if lang == Auto {
		lang = Detect(input)
	}
	if lang == Auto {
		return input
	}

	lexer := lexers.Get(string(lang))
	if lexer == nil {
		return input
	}
	lexer = chroma.Coalesce(lexer)

	formatter := formatters.Get(string(palette))
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, input)
	if err != nil {
		return input
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return input
	}
	return buf.String()
}

// Detect guesses the language of s from its first characters.
func Detect(s string) Lang {
	trimmed := strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(trimmed, "{"), strings.HasPrefix(trimmed, "["):
		return JSON
	case strings.HasPrefix(trimmed, "curl "), strings.HasPrefix(trimmed, "# "):
		return Shell
	case looksLikeYAML(trimmed):
		return YAML
	}
	return Auto
}

// looksLikeYAML checks the first non-comment lines for "key:" pairs.
func looksLikeYAML(s string) bool {
	checked := 0
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "- ") {
			continue
		}
		idx := strings.Index(line, ":")
		if idx <= 0 || !isYAMLKey(line[:idx]) {
			return false
		}
		checked++
		if checked >= 2 {
			return true
		}
	}
	return checked > 0
}

func isYAMLKey(s string) bool {
	for i, r := range s {
		alpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		if i == 0 && !alpha {
			return false
		}
		if !alpha && !(r >= '0' && r <= '9') && r != '-' {
			return false
		}
	}
	return s != ""
}

// Strip removes ANSI escape sequences.
func Strip(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 0x40 || s[j] > 0x7e) {
				j++
			}
			i = j
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
