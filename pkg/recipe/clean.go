package recipe

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	urlPattern    = regexp.MustCompile(`https?://[^\s\x{0B}\p{Z}\x{85}\x{FEFF}<>]+`)
	handlePattern = regexp.MustCompile(`[@#][\w.\-]+`)
)

// bulletReplacer maps bullet and dash glyph variants to an ASCII hyphen.
var bulletReplacer = strings.NewReplacer(
	"•", "-", // bullet
	"‣", "-", // triangular bullet
	"◦", "-", // white bullet
	"⁃", "-", // hyphen bullet
	"‒", "-", // figure dash
	"–", "-", // en dash
	"—", "-", // em dash
	"―", "-", // horizontal bar
)

// Clean normalizes raw social-media text: URLs go first so that fragments
// containing '#' are not read as hashtags, then handles and hashtags, bullet
// glyphs, whitespace runs, and finally the surrounding whitespace.
// The empty string stands in for absent input.
func Clean(raw string) string {
	if raw == "" {
		return ""
	}
	s := urlPattern.ReplaceAllString(raw, "")
	s = handlePattern.ReplaceAllString(s, "")
	s = bulletReplacer.Replace(s)
	s = collapseSpace(s)
	return strings.TrimFunc(s, isSpace)
}

// collapseSpace replaces every run of two or more whitespace characters with
// a single space. A lone whitespace character, newlines included, is kept.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	run := 0
	var first rune
	flush := func() {
		switch {
		case run == 1:
			b.WriteRune(first)
		case run > 1:
			b.WriteByte(' ')
		}
		run = 0
	}

	for _, r := range s {
		if isSpace(r) {
			if run == 0 {
				first = r
			}
			run++
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()
	return b.String()
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
