package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/elonfeng/reciperadar/pkg/recipe"
)

// Reddit collects recipe posts and their top-level comments from subreddits.
type Reddit struct {
	client       *http.Client
	clientID     string
	clientSecret string
	subreddits   []string
	postLimit    int
	commentLimit int
	authURL      string
	apiURL       string
	mu           sync.Mutex
	token        string
	tokenExpiry  time.Time
}

// NewReddit creates a new Reddit collector.
func NewReddit(clientID, clientSecret string, subreddits []string) *Reddit {
	if len(subreddits) == 0 {
		subreddits = []string{"recipes", "Cooking", "EatCheapAndHealthy", "Baking"}
	}
	return &Reddit{
		client:       &http.Client{Timeout: 30 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
		subreddits:   subreddits,
		postLimit:    25,
		commentLimit: 20,
		authURL:      "https://www.reddit.com/api/v1/access_token",
		apiURL:       "https://oauth.reddit.com",
	}
}

func (r *Reddit) Name() SourceType { return SourceReddit }

func (r *Reddit) Collect(ctx context.Context) ([]Post, error) {
	if err := r.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("reddit auth: %w", err)
	}

	var allPosts []Post
	for _, sub := range r.subreddits {
		posts, err := r.fetchSubreddit(ctx, sub)
		if err != nil {
			log.Warn().Err(err).Str("subreddit", sub).Msg("reddit subreddit failed")
			continue
		}
		allPosts = append(allPosts, posts...)
	}

	return allPosts, nil
}

func (r *Reddit) authenticate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.token != "" && time.Now().Before(r.tokenExpiry) {
		return nil
	}

	data := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.authURL, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}

	req.SetBasicAuth(r.clientID, r.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("reddit token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reddit auth status %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return fmt.Errorf("decode reddit token: %w", err)
	}

	r.token = tokenResp.AccessToken
	r.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn-60) * time.Second)
	return nil
}

func (r *Reddit) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.apiURL+path, nil)
	if err != nil {
		return err
	}

	r.mu.Lock()
	token := r.token
	r.mu.Unlock()

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reddit %s status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (r *Reddit) fetchSubreddit(ctx context.Context, subreddit string) ([]Post, error) {
	var listing redditListing
	if err := r.get(ctx, fmt.Sprintf("/r/%s/hot.json?limit=%d", subreddit, r.postLimit), &listing); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var posts []Post
	for _, child := range listing.Data.Children {
		p := child.Data
		if p.Stickied {
			continue
		}

		comments, err := r.fetchComments(ctx, subreddit, p.ID)
		if err != nil {
			log.Debug().Err(err).Str("post", p.ID).Msg("reddit comments unavailable")
		}

		postURL := p.URL
		if postURL == "" || strings.HasPrefix(postURL, "/r/") || p.IsSelf {
			postURL = "https://www.reddit.com" + p.Permalink
		}

		posts = append(posts, Post{
			ID:          fmt.Sprintf("reddit:%s", p.ID),
			Source:      SourceReddit,
			ExternalID:  p.ID,
			URL:         postURL,
			Author:      p.Author,
			PublishedAt: time.Unix(int64(p.CreatedUTC), 0).UTC(),
			CollectedAt: now,
			Content: recipe.Sources{
				Caption:   nfc(p.Selftext),
				PageTitle: nfc(p.Title),
				Comments:  comments,
			},
		})
	}

	return posts, nil
}

// fetchComments returns the bodies of top-level comments, best first.
func (r *Reddit) fetchComments(ctx context.Context, subreddit, postID string) ([]string, error) {
	path := fmt.Sprintf("/r/%s/comments/%s.json?depth=1&sort=top&limit=%d", subreddit, postID, r.commentLimit)
	var listings []redditListing
	if err := r.get(ctx, path, &listings); err != nil {
		return nil, err
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var comments []string
	for _, child := range listings[1].Data.Children {
		if child.Kind != "t1" || child.Data.Body == "" {
			continue
		}
		comments = append(comments, nfc(child.Data.Body))
	}
	return comments, nil
}

type redditListing struct {
	Data struct {
		Children []struct {
			Kind string      `json:"kind"`
			Data redditThing `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// redditThing covers the fields used from both links (t3) and comments (t1).
type redditThing struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Permalink  string  `json:"permalink"`
	Selftext   string  `json:"selftext"`
	Body       string  `json:"body"`
	Author     string  `json:"author"`
	CreatedUTC float64 `json:"created_utc"`
	Stickied   bool    `json:"stickied"`
	IsSelf     bool    `json:"is_self"`
}
