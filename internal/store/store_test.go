package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/elonfeng/reciperadar/pkg/recipe"
	"github.com/elonfeng/reciperadar/pkg/source"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func capture(id string, src source.SourceType, detected bool) *Capture {
	now := time.Now().UTC().Truncate(time.Second)
	return &Capture{
		ID:          id,
		Source:      src,
		ExternalID:  id,
		URL:         "https://example.com/" + id,
		Title:       "title " + id,
		MainText:    "text " + id,
		Comments:    []string{"first", "second"},
		TopComments: []string{"first"},
		Detected:    detected,
		PublishedAt: now.Add(-time.Hour),
		CapturedAt:  now,
	}
}

func TestUpsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := capture("reddit:a", source.SourceReddit, true)
	c.Score = 652.5
	if err := s.UpsertCapture(ctx, c); err != nil {
		t.Fatalf("UpsertCapture: %v", err)
	}

	got, err := s.GetCapture(ctx, "reddit:a")
	if err != nil {
		t.Fatalf("GetCapture: %v", err)
	}
	if got.Score != 652.5 || got.Title != "title reddit:a" || !got.Detected || got.Notified {
		t.Errorf("unexpected capture %+v", got)
	}
	if !reflect.DeepEqual(got.Comments, c.Comments) || !reflect.DeepEqual(got.TopComments, c.TopComments) {
		t.Errorf("comments = %q / %q", got.Comments, got.TopComments)
	}
	if !got.PublishedAt.Equal(c.PublishedAt) {
		t.Errorf("PublishedAt = %v, want %v", got.PublishedAt, c.PublishedAt)
	}

	if _, err := s.GetCapture(ctx, "missing"); err == nil {
		t.Error("expected error for missing capture")
	}
}

func TestUpsertKeepsNotified(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := capture("rss:k:1", source.SourceRSS, true)
	if err := s.UpsertCapture(ctx, c); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkNotified(ctx, c.ID); err != nil {
		t.Fatal(err)
	}

	c.Title = "updated"
	c.Notified = false
	if err := s.UpsertCapture(ctx, c); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetCapture(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "updated" || !got.Notified {
		t.Errorf("got title %q notified %v", got.Title, got.Notified)
	}
}

func TestUpsertSharedExternalID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := capture("rss:nitter:m1", source.SourceRSS, true)
	b := capture("rss:bridge:m1", source.SourceRSS, true)
	a.ExternalID = "m1"
	b.ExternalID = "m1"
	for _, c := range []*Capture{a, b} {
		if err := s.UpsertCapture(ctx, c); err != nil {
			t.Fatalf("UpsertCapture %s: %v", c.ID, err)
		}
	}

	got, err := s.ListCaptures(ctx, ListOpts{Source: source.SourceRSS})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d captures, want 2", len(got))
	}
}

func TestNilCommentsStoredEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := capture("page:x", source.SourcePage, false)
	c.Comments = nil
	c.TopComments = nil
	if err := s.UpsertCapture(ctx, c); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetCapture(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Comments == nil || len(got.Comments) != 0 {
		t.Errorf("Comments = %#v, want empty slice", got.Comments)
	}
}

func TestCorruptCommentsReadEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := capture("reddit:bad", source.SourceReddit, false)
	if err := s.UpsertCapture(ctx, c); err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE captures SET comments = 'not json' WHERE id = ?", c.ID); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetCapture(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCapture: %v", err)
	}
	if got.Comments == nil || len(got.Comments) != 0 {
		t.Errorf("Comments = %#v, want empty slice", got.Comments)
	}
	if !reflect.DeepEqual(got.TopComments, c.TopComments) {
		t.Errorf("TopComments = %q", got.TopComments)
	}
}

func TestListCaptures(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fixtures := []struct {
		id       string
		src      source.SourceType
		score    float64
		detected bool
	}{
		{"reddit:1", source.SourceReddit, 900, true},
		{"reddit:2", source.SourceReddit, 100, false},
		{"youtube:1", source.SourceYouTube, 700, true},
		{"rss:f:1", source.SourceRSS, 300, false},
	}
	for _, f := range fixtures {
		c := capture(f.id, f.src, f.detected)
		c.Score = recipe.Score(f.score)
		if err := s.UpsertCapture(ctx, c); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.MarkNotified(ctx, "reddit:1"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		opts ListOpts
		want []string
	}{
		{"all by score", ListOpts{}, []string{"reddit:1", "youtube:1", "rss:f:1", "reddit:2"}},
		{"source", ListOpts{Source: source.SourceReddit}, []string{"reddit:1", "reddit:2"}},
		{"min score", ListOpts{MinScore: 300}, []string{"reddit:1", "youtube:1", "rss:f:1"}},
		{"detected", ListOpts{Detected: true}, []string{"reddit:1", "youtube:1"}},
		{"unnotified detected", ListOpts{Detected: true, Unnotified: true}, []string{"youtube:1"}},
		{"limit", ListOpts{Limit: 2}, []string{"reddit:1", "youtube:1"}},
		{"since future", ListOpts{Since: time.Now().Add(time.Hour)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListCaptures(ctx, tt.opts)
			if err != nil {
				t.Fatalf("ListCaptures: %v", err)
			}
			var ids []string
			for _, c := range got {
				ids = append(ids, c.ID)
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("ids = %q, want %q", ids, tt.want)
			}
		})
	}

	counts, err := s.CountBySource(ctx)
	if err != nil {
		t.Fatalf("CountBySource: %v", err)
	}
	want := map[source.SourceType]int{source.SourceReddit: 2, source.SourceYouTube: 1, source.SourceRSS: 1}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("counts = %v, want %v", counts, want)
	}
}
