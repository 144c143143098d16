package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/elonfeng/reciperadar/pkg/recipe"
)

// YouTube collects recipe videos, their full descriptions and top comments.
type YouTube struct {
	client       *http.Client
	apiKey       string
	queries      []string
	commentLimit int
	apiURL       string
}

// NewYouTube creates a new YouTube collector.
func NewYouTube(apiKey string, queries []string) *YouTube {
	if len(queries) == 0 {
		queries = []string{"easy recipe", "dinner recipe", "baking recipe"}
	}
	return &YouTube{
		client:       &http.Client{Timeout: 30 * time.Second},
		apiKey:       apiKey,
		queries:      queries,
		commentLimit: 20,
		apiURL:       "https://www.googleapis.com/youtube/v3",
	}
}

func (y *YouTube) Name() SourceType { return SourceYouTube }

func (y *YouTube) Collect(ctx context.Context) ([]Post, error) {
	if y.apiKey == "" {
		return nil, fmt.Errorf("youtube: API key required (set YOUTUBE_API_KEY)")
	}

	var ids []string
	seen := make(map[string]bool)
	for _, query := range y.queries {
		found, err := y.search(ctx, query)
		if err != nil {
			log.Warn().Err(err).Str("query", query).Msg("youtube search failed")
			continue
		}
		for _, id := range found {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	return y.videos(ctx, ids)
}

func (y *YouTube) call(ctx context.Context, endpoint string, params url.Values, v any) error {
	params.Set("key", y.apiKey)
	reqURL := y.apiURL + "/" + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create youtube %s request: %w", endpoint, err)
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch youtube %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("youtube %s status %d", endpoint, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode youtube %s: %w", endpoint, err)
	}
	return nil
}

func (y *YouTube) search(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("order", "relevance")
	params.Set("publishedAfter", time.Now().Add(-72*time.Hour).Format(time.RFC3339))
	params.Set("maxResults", "20")

	var result ytSearchResult
	if err := y.call(ctx, "search", params, &result); err != nil {
		return nil, err
	}

	var ids []string
	for _, item := range result.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	return ids, nil
}

// videos fetches full snippets in batches of 50, the API maximum.
func (y *YouTube) videos(ctx context.Context, ids []string) ([]Post, error) {
	now := time.Now().UTC()
	var posts []Post

	for start := 0; start < len(ids); start += 50 {
		end := min(start+50, len(ids))

		params := url.Values{}
		params.Set("part", "snippet")
		params.Set("id", strings.Join(ids[start:end], ","))

		var result ytVideoResult
		if err := y.call(ctx, "videos", params, &result); err != nil {
			return posts, err
		}

		for _, video := range result.Items {
			comments, err := y.comments(ctx, video.ID)
			if err != nil {
				log.Debug().Err(err).Str("video", video.ID).Msg("youtube comments unavailable")
			}

			published := video.Snippet.PublishedAt
			if published.IsZero() {
				published = now
			}

			posts = append(posts, Post{
				ID:          fmt.Sprintf("youtube:%s", video.ID),
				Source:      SourceYouTube,
				ExternalID:  video.ID,
				URL:         fmt.Sprintf("https://www.youtube.com/watch?v=%s", video.ID),
				Author:      video.Snippet.ChannelTitle,
				PublishedAt: published.UTC(),
				CollectedAt: now,
				Content: recipe.Sources{
					Caption:   nfc(video.Snippet.Description),
					PageTitle: nfc(video.Snippet.Title),
					Comments:  comments,
				},
			})
		}
	}

	return posts, nil
}

func (y *YouTube) comments(ctx context.Context, videoID string) ([]string, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("videoId", videoID)
	params.Set("order", "relevance")
	params.Set("textFormat", "plainText")
	params.Set("maxResults", strconv.Itoa(y.commentLimit))

	var result ytCommentThreads
	if err := y.call(ctx, "commentThreads", params, &result); err != nil {
		return nil, err
	}

	var comments []string
	for _, item := range result.Items {
		if text := item.Snippet.TopLevelComment.Snippet.TextOriginal; text != "" {
			comments = append(comments, nfc(text))
		}
	}
	return comments, nil
}

type ytSearchResult struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type ytSnippet struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ChannelTitle string    `json:"channelTitle"`
	ChannelID    string    `json:"channelId"`
	PublishedAt  time.Time `json:"publishedAt"`
}

type ytVideoResult struct {
	Items []struct {
		ID      string    `json:"id"`
		Snippet ytSnippet `json:"snippet"`
	} `json:"items"`
}

type ytCommentThreads struct {
	Items []struct {
		Snippet struct {
			TopLevelComment struct {
				Snippet struct {
					TextOriginal string `json:"textOriginal"`
				} `json:"snippet"`
			} `json:"topLevelComment"`
		} `json:"snippet"`
	} `json:"items"`
}
