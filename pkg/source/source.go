package source

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/elonfeng/reciperadar/pkg/recipe"
)

// SourceType identifies which platform a post came from.
type SourceType string

const (
	SourceReddit  SourceType = "reddit"
	SourceYouTube SourceType = "youtube"
	SourceRSS     SourceType = "rss"
	SourcePage    SourceType = "page"
)

const userAgent = "reciperadar/1.0"

// Post is one collected social post with its raw text fields.
type Post struct {
	ID          string         `json:"id"`
	Source      SourceType     `json:"source"`
	ExternalID  string         `json:"external_id"`
	URL         string         `json:"url"`
	Author      string         `json:"author"`
	PublishedAt time.Time      `json:"published_at"`
	CollectedAt time.Time      `json:"collected_at"`
	Content     recipe.Sources `json:"content"`
}

// Source is the interface every collector must implement.
type Source interface {
	Name() SourceType
	Collect(ctx context.Context) ([]Post, error)
}

// AllSourceTypes returns all known source types.
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceReddit,
		SourceYouTube,
		SourceRSS,
		SourcePage,
	}
}

// nfc composes text so that accented words match the scorer's word lists.
func nfc(s string) string {
	return norm.NFC.String(s)
}

// htmlText flattens an HTML fragment to text, keeping line breaks and list
// items on their own lines so bullet and numbering signals survive.
func htmlText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n- ")
	})
	doc.Find("p, div, h1, h2, h3, h4, ol, ul").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return strings.TrimSpace(doc.Text())
}
