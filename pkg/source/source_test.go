package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTMLText(t *testing.T) {
	in := `<p>Ingredients:</p><ul><li>2 cups flour</li><li>1 egg</li></ul>Salt &amp; pepper<br>Bake`
	got := htmlText(in)
	for _, want := range []string{"Ingredients:", "\n- 2 cups flour", "\n- 1 egg", "Salt & pepper\nBake"} {
		if !strings.Contains(got, want) {
			t.Errorf("htmlText = %q, missing %q", got, want)
		}
	}
	if got := htmlText("  plain caption "); got != "plain caption" {
		t.Errorf("htmlText(plain) = %q", got)
	}
}

func TestFilter(t *testing.T) {
	f := NewFilter([]string{"shakshuka"}, []string{"sponsored"})
	tests := []struct {
		text string
		want bool
	}{
		{"Weeknight pasta recipe", true},
		{"Best SHAKSHUKA in town", true},
		{"Sponsored: pasta recipe", false},
		{"Tour dates announced", false},
	}
	for _, tt := range tests {
		if got := f.MatchesFood(tt.text); got != tt.want {
			t.Errorf("MatchesFood(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestRSS_Collect(t *testing.T) {
	pub := time.Now().UTC().Add(-time.Hour).Format(time.RFC1123Z)
	old := time.Now().UTC().Add(-30 * 24 * time.Hour).Format(time.RFC1123Z)
	feed := fmt.Sprintf(`<?xml version="1.0"?>
<rss version="2.0"><channel><title>Kitchen</title>
<item><title>Garlic noodles</title><link>https://example.com/noodles</link><guid>n1</guid>
<description><![CDATA[<p>Homemade recipe</p><ul><li>200 g noodles</li></ul>]]></description>
<pubDate>%s</pubDate></item>
<item><title>Concert tour</title><link>https://example.com/tour</link><guid>t1</guid>
<description>tickets on sale</description><pubDate>%s</pubDate></item>
<item><title>Old soup recipe</title><link>https://example.com/soup</link><guid>s1</guid>
<description>soup</description><pubDate>%s</pubDate></item>
</channel></rss>`, pub, pub, old)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, feed)
	}))
	defer srv.Close()

	r := NewRSS([]RSSFeed{{Name: "kitchen", URL: srv.URL}}, NewFilter(nil, nil))
	posts, err := r.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1: %+v", len(posts), posts)
	}
	p := posts[0]
	if p.ID != "rss:kitchen:n1" || p.ExternalID != "kitchen:n1" || p.Source != SourceRSS {
		t.Errorf("unexpected identity %q %q %q", p.ID, p.ExternalID, p.Source)
	}
	if p.Content.PageTitle != "Garlic noodles" {
		t.Errorf("PageTitle = %q", p.Content.PageTitle)
	}
	if !strings.Contains(p.Content.Caption, "- 200 g noodles") {
		t.Errorf("Caption = %q", p.Content.Caption)
	}
}

func TestRSS_SharedGUIDAcrossFeeds(t *testing.T) {
	pub := time.Now().UTC().Add(-time.Hour).Format(time.RFC1123Z)
	feed := fmt.Sprintf(`<?xml version="1.0"?>
<rss version="2.0"><channel><title>Mirror</title>
<item><title>Miso soup recipe</title><link>https://example.com/miso</link><guid>m1</guid><pubDate>%s</pubDate></item>
<item><title>Untracked recipe</title><pubDate>%s</pubDate></item>
</channel></rss>`, pub, pub)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feed)
	}))
	defer srv.Close()

	r := NewRSS([]RSSFeed{{Name: "nitter", URL: srv.URL}, {Name: "bridge", URL: srv.URL}}, nil)
	posts, err := r.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("got %d posts, want 2: %+v", len(posts), posts)
	}
	seen := map[string]bool{}
	for _, p := range posts {
		if seen[p.ExternalID] {
			t.Errorf("duplicate external id %q", p.ExternalID)
		}
		seen[p.ExternalID] = true
	}
	if !seen["nitter:m1"] || !seen["bridge:m1"] {
		t.Errorf("external ids = %v", seen)
	}
}

func TestRSS_FeedErrorSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	posts, err := NewRSS([]RSSFeed{{Name: "down", URL: srv.URL}}, nil).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error %v, want per-feed skip", err)
	}
	if len(posts) != 0 {
		t.Fatalf("got %d posts", len(posts))
	}
}

func TestReddit_Collect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "id" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	})
	mux.HandleFunc("/r/recipes/hot.json", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"data":{"children":[
			{"kind":"t3","data":{"id":"abc","title":"Lemon bars","selftext":"Ingredients: 1 cup sugar","permalink":"/r/recipes/comments/abc/lemon_bars/","author":"baker","created_utc":1700000000,"is_self":true}},
			{"kind":"t3","data":{"id":"pin","title":"Rules","stickied":true}}
		]}}`)
	})
	mux.HandleFunc("/r/recipes/comments/abc.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"data":{"children":[{"kind":"t3","data":{"id":"abc"}}]}},
			{"data":{"children":[
				{"kind":"t1","data":{"body":"Recipe: mix flour with water"}},
				{"kind":"more","data":{}}
			]}}
		]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := NewReddit("id", "secret", []string{"recipes"})
	r.authURL = srv.URL + "/token"
	r.apiURL = srv.URL

	posts, err := r.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	p := posts[0]
	if p.ID != "reddit:abc" || p.URL != "https://www.reddit.com/r/recipes/comments/abc/lemon_bars/" {
		t.Errorf("unexpected post %q %q", p.ID, p.URL)
	}
	if p.Content.Caption != "Ingredients: 1 cup sugar" || p.Content.PageTitle != "Lemon bars" {
		t.Errorf("unexpected content %+v", p.Content)
	}
	if len(p.Content.Comments) != 1 || p.Content.Comments[0] != "Recipe: mix flour with water" {
		t.Errorf("Comments = %q", p.Content.Comments)
	}
}

func TestReddit_AuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	r := NewReddit("id", "bad", nil)
	r.authURL = srv.URL
	if _, err := r.Collect(context.Background()); err == nil {
		t.Fatal("expected auth error")
	}
}

func TestYouTube_Collect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "k" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `{"items":[{"id":{"videoId":"v1"}},{"id":{"videoId":"v1"}},{"id":{}}]}`)
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "v1" {
			t.Errorf("videos id = %q", r.URL.Query().Get("id"))
		}
		fmt.Fprint(w, `{"items":[{"id":"v1","snippet":{"title":"Pad thai","description":"Ingredients\n- 200 g noodles","channelTitle":"Wok","publishedAt":"2024-05-01T10:00:00Z"}}]}`)
	})
	mux.HandleFunc("/commentThreads", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[{"snippet":{"topLevelComment":{"snippet":{"textOriginal":"Needs more lime"}}}}]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	y := NewYouTube("k", []string{"pad thai"})
	y.apiURL = srv.URL

	posts, err := y.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	p := posts[0]
	if p.URL != "https://www.youtube.com/watch?v=v1" || p.Author != "Wok" {
		t.Errorf("unexpected post %+v", p)
	}
	if p.Content.PageTitle != "Pad thai" || !strings.HasPrefix(p.Content.Caption, "Ingredients") {
		t.Errorf("unexpected content %+v", p.Content)
	}
	if len(p.Content.Comments) != 1 {
		t.Errorf("Comments = %q", p.Content.Comments)
	}
}

func TestYouTube_RequiresKey(t *testing.T) {
	if _, err := NewYouTube("", nil).Collect(context.Background()); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestPage_Fetch(t *testing.T) {
	html := `<!DOCTYPE html><html><head><title>Chewy brownies</title>
<meta property="og:description" content="Homemade brownies 🍫 Ingredients: 2 eggs">
</head><body><article><h1>Chewy brownies</h1>
<p>These brownies are fudgy and rich. Ingredients: 2 eggs, 1 cup sugar, 100 g butter, 50 g cocoa.</p>
<p>Melt the butter, whisk in the sugar and eggs, fold in the cocoa and bake for 25 minutes until set.
The edges should pull away from the pan while the middle still looks slightly underdone, which keeps
the texture dense. Let them cool completely before slicing so the squares hold their shape.</p>
</article></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)
	}))
	defer srv.Close()

	post, err := NewPage().Fetch(context.Background(), srv.URL+"/brownies")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if post.Content.Caption != "Homemade brownies 🍫 Ingredients: 2 eggs" {
		t.Errorf("Caption = %q", post.Content.Caption)
	}
	if !strings.Contains(post.Content.Text, "fudgy") {
		t.Errorf("Text = %q", post.Content.Text)
	}
	if post.Source != SourcePage || post.ExternalID != srv.URL+"/brownies" {
		t.Errorf("unexpected identity %+v", post)
	}
}

func TestPage_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	if _, err := NewPage(srv.URL).Collect(context.Background()); err == nil {
		t.Fatal("expected error for 404 page")
	}
}
