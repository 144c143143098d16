package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/elonfeng/reciperadar/pkg/recipe"
)

const maxPageBytes = 5 << 20

// Page captures a single shared web page, such as a post permalink.
type Page struct {
	client *http.Client
	urls   []string
}

// NewPage creates a collector for the given page URLs.
func NewPage(urls ...string) *Page {
	return &Page{
		client: &http.Client{Timeout: 30 * time.Second},
		urls:   urls,
	}
}

func (p *Page) Name() SourceType { return SourcePage }

// Collect fetches every page; a failing page fails the whole call since the
// caller asked for those pages explicitly.
func (p *Page) Collect(ctx context.Context) ([]Post, error) {
	posts := make([]Post, 0, len(p.urls))
	for _, u := range p.urls {
		post, err := p.Fetch(ctx, u)
		if err != nil {
			return posts, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// Fetch downloads pageURL and extracts its readable title and text.
func (p *Page) Fetch(ctx context.Context, pageURL string) (Post, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return Post{}, fmt.Errorf("parse page url %s: %w", pageURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Post{}, fmt.Errorf("create page request %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return Post{}, fmt.Errorf("fetch page %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Post{}, fmt.Errorf("page %s status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Post{}, fmt.Errorf("read page %s: %w", pageURL, err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return Post{}, fmt.Errorf("extract page %s: %w", pageURL, err)
	}

	now := time.Now().UTC()
	return Post{
		ID:          fmt.Sprintf("page:%s", pageURL),
		Source:      SourcePage,
		ExternalID:  pageURL,
		URL:         pageURL,
		PublishedAt: now,
		CollectedAt: now,
		Content: recipe.Sources{
			Caption:   nfc(metaDescription(body)),
			Text:      nfc(strings.TrimSpace(article.TextContent)),
			PageTitle: nfc(strings.TrimSpace(article.Title)),
		},
	}, nil
}

// metaDescription returns the caption social sites expose through Open Graph
// or plain description meta tags.
func metaDescription(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	for _, sel := range []string{
		`meta[property="og:description"]`,
		`meta[name="twitter:description"]`,
		`meta[name="description"]`,
	} {
		if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
