package capture

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/elonfeng/reciperadar/internal/store"
	"github.com/elonfeng/reciperadar/pkg/recipe"
	"github.com/elonfeng/reciperadar/pkg/source"
	"github.com/elonfeng/reciperadar/pkg/title"
)

type fakeSaver struct {
	saved []string
	fail  map[string]bool
}

func (f *fakeSaver) UpsertCapture(_ context.Context, c *store.Capture) error {
	if f.fail[c.ID] {
		return errors.New("disk full")
	}
	f.saved = append(f.saved, c.ID)
	return nil
}

func post(id, caption string) source.Post {
	return source.Post{
		ID:          id,
		Source:      source.SourceReddit,
		ExternalID:  id,
		URL:         "https://example.com/" + id,
		PublishedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Content:     recipe.Sources{Caption: caption},
	}
}

func TestAnalyze(t *testing.T) {
	e := NewEngine(nil, Options{Titles: title.New()})
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	p := post("reddit:1", "Ingredients: 2 cups flour")
	p.Content.PageTitle = "Flour paste | Instagram"
	p.Content.Comments = []string{"Ingredients: 2 cups flour and 1 egg", "nice", "#yum"}

	c := e.Analyze(p)
	if c.Score != 652.5 || !c.Detected {
		t.Errorf("score %v detected %v", c.Score, c.Detected)
	}
	if c.Title != "Flour paste" {
		t.Errorf("Title = %q", c.Title)
	}
	if c.MainText != "Ingredients: 2 cups flour" {
		t.Errorf("MainText = %q", c.MainText)
	}
	if want := []string{"Ingredients: 2 cups flour and 1 egg", "nice"}; !reflect.DeepEqual(c.Comments, want) {
		t.Errorf("Comments = %q", c.Comments)
	}
	if want := []string{"Ingredients: 2 cups flour and 1 egg"}; !reflect.DeepEqual(c.TopComments, want) {
		t.Errorf("TopComments = %q", c.TopComments)
	}
	if !c.CapturedAt.Equal(fixed) || c.URL != p.URL {
		t.Errorf("unexpected metadata %+v", c)
	}
}

func threshold(s recipe.Score) *recipe.Score { return &s }

func TestAnalyze_Threshold(t *testing.T) {
	p := post("reddit:1", "Ingredients: 2 cups flour")
	if c := NewEngine(nil, Options{DetectThreshold: threshold(700)}).Analyze(p); c.Detected {
		t.Errorf("detected below custom threshold: %v", c.Score)
	}
	if c := NewEngine(nil, Options{DetectThreshold: threshold(652.5)}).Analyze(p); !c.Detected {
		t.Errorf("threshold should be inclusive: %v", c.Score)
	}
}

func TestAnalyze_ZeroThresholdHonored(t *testing.T) {
	p := post("reddit:1", "hello there")
	if c := NewEngine(nil, Options{}).Analyze(p); c.Detected {
		t.Errorf("detected at default threshold: %v", c.Score)
	}
	e := NewEngine(nil, Options{DetectThreshold: threshold(0)})
	if e.Threshold() != 0 {
		t.Fatalf("Threshold() = %v, want 0", e.Threshold())
	}
	if c := e.Analyze(p); !c.Detected {
		t.Errorf("not detected at zero threshold: %v", c.Score)
	}
}

func TestAnalyze_CustomScorer(t *testing.T) {
	scorer, err := recipe.DefaultScorer().Reweight(map[string]float64{"ingredients": 0})
	if err != nil {
		t.Fatal(err)
	}
	c := NewEngine(nil, Options{Scorer: scorer}).Analyze(post("r:1", "Ingredients: 2 cups flour"))
	if c.Score != 152.5 || c.Detected {
		t.Errorf("score %v detected %v", c.Score, c.Detected)
	}
}

func TestProcess(t *testing.T) {
	saver := &fakeSaver{fail: map[string]bool{"reddit:broken": true}}
	e := NewEngine(saver, Options{})

	posts := []source.Post{
		post("reddit:weak", "Tour dates announced"),
		post("reddit:mid", "Ingredients: 2 cups flour"),
		post("reddit:broken", "Ingredients: 2 cups flour and 1 egg"),
		post("reddit:strong", "Ingredients: 2 cups flour and 1 egg"),
	}
	detected := e.Process(context.Background(), posts)

	if want := []string{"reddit:weak", "reddit:mid", "reddit:strong"}; !reflect.DeepEqual(saver.saved, want) {
		t.Errorf("saved = %q, want %q", saver.saved, want)
	}
	var ids []string
	for _, c := range detected {
		ids = append(ids, c.ID)
	}
	if want := []string{"reddit:strong", "reddit:mid"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("detected = %q, want %q", ids, want)
	}
}

func TestProcess_Cancelled(t *testing.T) {
	saver := &fakeSaver{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := NewEngine(saver, Options{}).Process(ctx, []source.Post{post("a", "x")}); len(got) != 0 || len(saver.saved) != 0 {
		t.Errorf("processed after cancel: %v %v", got, saver.saved)
	}
}
