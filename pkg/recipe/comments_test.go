package recipe

import (
	"fmt"
	"reflect"
	"testing"
)

func TestRankComments_OrderAndTies(t *testing.T) {
	tieA := "Recipe: mix flour with water"
	tieB := "Recipe: mix water with flour"
	strong := "Ingredients: 2 cups flour and 1 egg"
	weak := "I love this so much, thank you!"

	if ScoreText(tieA) != ScoreText(tieB) {
		t.Fatalf("tie fixtures differ: %v vs %v", ScoreText(tieA), ScoreText(tieB))
	}

	got := RankComments([]string{tieA, weak, strong, tieB})
	want := []string{strong, tieA, tieB}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RankComments = %q, want %q", got, want)
	}

	// Swapping the tied pair swaps their output order.
	got = RankComments([]string{tieB, strong, tieA})
	want = []string{strong, tieB, tieA}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RankComments = %q, want %q", got, want)
	}
}

func TestRankComments_ShortNeverReturned(t *testing.T) {
	short := "Ingredients 2 cups" // 18 runes, would score well above 300
	if ScoreText(short) < DefaultCommentMinScore {
		t.Fatalf("fixture too weak: %v", ScoreText(short))
	}
	if got := RankComments([]string{short}); len(got) != 0 {
		t.Fatalf("short comment returned: %q", got)
	}
}

func TestRankComments_Limit(t *testing.T) {
	var comments []string
	for i := 0; i < 8; i++ {
		comments = append(comments, fmt.Sprintf("Ingredients for batch %d: 2 cups flour", i))
	}
	got := RankComments(comments)
	if len(got) != DefaultCommentLimit {
		t.Fatalf("got %d comments, want %d", len(got), DefaultCommentLimit)
	}
	if got[0] != comments[0] {
		t.Fatalf("first = %q, want input order among ties", got[0])
	}
}

func TestRankComments_Empty(t *testing.T) {
	if got := RankComments(nil); len(got) != 0 {
		t.Fatalf("RankComments(nil) = %q", got)
	}
	if got := RankComments([]string{"", "", ""}); len(got) != 0 {
		t.Fatalf("RankComments(blank) = %q", got)
	}
}

func TestRankComments_ScoresRawText(t *testing.T) {
	// The raw comment is hashtag-dense; cleaning would hide that.
	c := "Homemade recipe #a#b#c#d#e"
	raw := ScoreText(c)
	cleaned := ScoreText(Clean(c))
	if raw >= cleaned {
		t.Fatalf("fixture: raw %v should score below cleaned %v", raw, cleaned)
	}
	r := CommentRanker{MinScore: raw + 0.05}
	if got := r.Rank([]string{c}); len(got) != 0 {
		t.Fatalf("comment ranked on cleaned score: %q", got)
	}
}

func TestCommentRanker_Thresholds(t *testing.T) {
	r := CommentRanker{MinLength: 5, MinScore: 1, Limit: 1}
	got := r.Rank([]string{"short", "a bit longer text", "tiny"})
	if len(got) != 1 || got[0] != "a bit longer text" {
		t.Fatalf("Rank = %q", got)
	}
}

func TestCommentRanker_ZeroMinScoreHonored(t *testing.T) {
	weak := "I love this so much, thank you!"
	if got := RankComments([]string{weak}); len(got) != 0 {
		t.Fatalf("default ranker kept weak comment: %q", got)
	}
	r := CommentRanker{MinLength: DefaultCommentMinLength, Limit: DefaultCommentLimit}
	if got := r.Rank([]string{weak}); len(got) != 1 {
		t.Fatalf("Rank with zero MinScore = %q, want the weak comment", got)
	}
}
