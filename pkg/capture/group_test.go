package capture

import (
	"testing"

	"github.com/elonfeng/reciperadar/internal/store"
)

func TestGroup(t *testing.T) {
	captures := []store.Capture{
		{ID: "a", Title: "Garlic butter noodles", Score: 600, URL: "https://a"},
		{ID: "b", Title: "Easy garlic butter noodles recipe", Score: 800, URL: "https://b"},
		{ID: "c", Title: "Lemon bars", Score: 700, URL: "https://c"},
		{ID: "d", Title: "Something else", Score: 550, URL: "https://c"},
		{ID: "e", Title: "", Score: 900, URL: "https://e"},
	}
	groups := Group(captures)

	var got [][]string
	for _, g := range groups {
		var ids []string
		for _, c := range g {
			ids = append(ids, c.ID)
		}
		got = append(got, ids)
	}
	want := [][]string{{"e"}, {"b", "a"}, {"c", "d"}}
	if len(got) != len(want) {
		t.Fatalf("groups = %q, want %q", got, want)
	}
	for i := range want {
		if len(got[i]) != len(want[i]) {
			t.Fatalf("groups = %q, want %q", got, want)
		}
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Fatalf("groups = %q, want %q", got, want)
			}
		}
	}

	if Group(nil) != nil {
		t.Error("Group(nil) should be nil")
	}
}

func TestJaccardSimilarity(t *testing.T) {
	a := significantTokens("The best chocolate chip cookies")
	b := significantTokens("Chocolate chip cookies!")
	if s := jaccardSimilarity(a, b); s != 1 {
		t.Errorf("similarity = %v, want 1", s)
	}
	if s := jaccardSimilarity(a, nil); s != 0 {
		t.Errorf("similarity with empty = %v", s)
	}
}
