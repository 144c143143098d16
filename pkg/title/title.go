// Package title picks a short human title for a captured post.
package title

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/elonfeng/reciperadar/pkg/recipe"
)

// DefaultMaxRunes caps extracted titles.
const DefaultMaxRunes = 80

// siteSuffixes are trailers social sites append to page titles.
var siteSuffixes = []string{
	" | instagram",
	" • instagram",
	" - instagram",
	" on instagram",
	" | tiktok",
	" on tiktok",
	" - youtube",
	" | youtube",
	" | facebook",
	" - facebook",
	" / x",
	" on x",
	" - reddit",
	" | pinterest",
}

const subredditMarker = " : r/"

// genericTitles are page titles that say nothing about the post.
var genericTitles = map[string]bool{
	"instagram": true,
	"tiktok":    true,
	"youtube":   true,
	"facebook":  true,
	"x":         true,
	"reddit":    true,
	"pinterest": true,
	"login":     true,
	"log in":    true,
	"":          true,
}

var (
	sentenceEnd = regexp.MustCompile(`[.!?\n]`)
	quoted      = regexp.MustCompile(`^.*?:\s*["“](.+?)["”]\s*$`)
)

// Heuristic implements recipe.TitleExtractor without any network access.
type Heuristic struct {
	MaxRunes int
}

// New creates a heuristic extractor with the default length cap.
func New() *Heuristic {
	return &Heuristic{MaxRunes: DefaultMaxRunes}
}

// ExtractTitle prefers a meaningful page title, then the first sentence of the
// caption, then of the on-screen text.
func (h *Heuristic) ExtractTitle(in recipe.TitleInput) string {
	if t := h.fromPageTitle(in.PageTitle); t != "" {
		return t
	}
	for _, s := range []string{in.Caption, in.Text, in.Description} {
		if t := h.fromBody(s); t != "" {
			return t
		}
	}
	return ""
}

func (h *Heuristic) fromPageTitle(s string) string {
	s = strings.TrimSpace(norm.NFC.String(s))
	if s == "" {
		return ""
	}
	// `Chef on Instagram: "Crispy tofu bowl"` carries the caption in quotes.
	if m := quoted.FindStringSubmatch(s); m != nil {
		return h.fromBody(m[1])
	}
	s = stripSiteSuffix(s)
	if genericTitles[strings.ToLower(strings.TrimSpace(s))] {
		return ""
	}
	return h.shorten(s)
}

func stripSiteSuffix(s string) string {
	// Reddit appends the subreddit after the marker.
	if i := strings.LastIndex(s, subredditMarker); i > 0 {
		s = s[:i]
	}
	for {
		trimmed := s
		for _, suffix := range siteSuffixes {
			if len(s) > len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix) {
				trimmed = s[:len(s)-len(suffix)]
				break
			}
		}
		if trimmed == s {
			return s
		}
		s = strings.TrimSpace(trimmed)
	}
}

func (h *Heuristic) fromBody(s string) string {
	s = strings.TrimSpace(norm.NFC.String(s))
	if s == "" {
		return ""
	}
	if loc := sentenceEnd.FindStringIndex(s); loc != nil && loc[0] > 0 {
		s = s[:loc[0]]
	}
	return h.shorten(s)
}

// shorten trims decoration and cuts s to the rune cap on a word boundary.
func (h *Heuristic) shorten(s string) string {
	s = strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	limit := h.MaxRunes
	if limit <= 0 {
		limit = DefaultMaxRunes
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)[:limit]
	cut := string(runes)
	if i := strings.LastIndexFunc(cut, unicode.IsSpace); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRightFunc(cut, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
}
