package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"

	"github.com/elonfeng/reciperadar/pkg/recipe"
)

// RSSFeed is a named RSS/Atom feed URL. Social accounts bridged to RSS
// (Nitter, RSS-Bridge, Bibliogram) work the same way as blogs.
type RSSFeed struct {
	Name string
	URL  string
}

// RSS collects posts from RSS/Atom feeds.
type RSS struct {
	client *http.Client
	parser *gofeed.Parser
	feeds  []RSSFeed
	filter *Filter
	maxAge time.Duration
}

// NewRSS creates a new RSS collector. A nil filter keeps every entry.
func NewRSS(feeds []RSSFeed, filter *Filter) *RSS {
	return &RSS{
		client: &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
		feeds:  feeds,
		filter: filter,
		maxAge: 72 * time.Hour,
	}
}

func (r *RSS) Name() SourceType { return SourceRSS }

func (r *RSS) Collect(ctx context.Context) ([]Post, error) {
	var allPosts []Post

	for _, feed := range r.feeds {
		posts, err := r.collectFeed(ctx, feed)
		if err != nil {
			log.Warn().Err(err).Str("feed", feed.Name).Msg("rss feed failed")
			continue
		}
		allPosts = append(allPosts, posts...)
	}

	return allPosts, nil
}

func (r *RSS) collectFeed(ctx context.Context, feed RSSFeed) ([]Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create rss request %s: %w", feed.Name, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rss %s: %w", feed.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rss %s status %d", feed.Name, resp.StatusCode)
	}

	parsed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse rss %s: %w", feed.Name, err)
	}

	var posts []Post
	now := time.Now().UTC()
	cutoff := now.Add(-r.maxAge)

	for _, entry := range parsed.Items {
		published := now
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			published = entry.UpdatedParsed.UTC()
		}
		if published.Before(cutoff) {
			continue
		}

		guid := entry.GUID
		if guid == "" {
			guid = entry.Link
		}
		if guid == "" {
			log.Debug().Str("feed", feed.Name).Str("title", entry.Title).Msg("rss entry without guid or link skipped")
			continue
		}
		// Mirrors of one account share guids, so the feed name is part of the identity.
		externalID := feed.Name + ":" + guid

		author := ""
		if entry.Author != nil {
			author = entry.Author.Name
		}

		post := Post{
			ID:          "rss:" + externalID,
			Source:      SourceRSS,
			ExternalID:  externalID,
			URL:         entry.Link,
			Author:      author,
			PublishedAt: published,
			CollectedAt: now,
			Content: recipe.Sources{
				Caption:   nfc(htmlText(entry.Description)),
				Text:      nfc(htmlText(entry.Content)),
				PageTitle: nfc(entry.Title),
			},
		}

		if r.filter != nil && !r.filter.MatchesPost(post) {
			continue
		}
		posts = append(posts, post)
	}

	return posts, nil
}
