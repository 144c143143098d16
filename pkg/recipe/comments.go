package recipe

import (
	"sort"
	"unicode/utf8"
)

// Comment ranking defaults.
const (
	DefaultCommentMinLength = 20
	DefaultCommentMinScore  = 300
	DefaultCommentLimit     = 5
)

// CommentRanker surfaces the comments most likely to hold a recipe.
// MinScore is used as given, so zero keeps every non-negative comment.
// A non-positive MinLength or Limit falls back to its default.
type CommentRanker struct {
	MinLength int   // raw code points
	MinScore  Score // inclusive
	Limit     int
	Scorer    *Scorer
}

// DefaultCommentRanker returns a ranker with the default thresholds.
func DefaultCommentRanker() CommentRanker {
	return CommentRanker{
		MinLength: DefaultCommentMinLength,
		MinScore:  DefaultCommentMinScore,
		Limit:     DefaultCommentLimit,
	}
}

type scoredComment struct {
	text  string
	score Score
}

// Rank drops short and weak comments and returns the strongest few, highest
// score first. Comments are scored raw; equal scores keep input order.
func (r CommentRanker) Rank(comments []string) []string {
	minLength := r.MinLength
	if minLength <= 0 {
		minLength = DefaultCommentMinLength
	}
	limit := r.Limit
	if limit <= 0 {
		limit = DefaultCommentLimit
	}
	scorer := r.Scorer
	if scorer == nil {
		scorer = defaultScorer
	}

	var kept []scoredComment
	for _, c := range comments {
		if utf8.RuneCountInString(c) < minLength {
			continue
		}
		score := scorer.Score(c)
		if score < r.MinScore {
			continue
		}
		kept = append(kept, scoredComment{text: c, score: score})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score > kept[j].score
	})

	if len(kept) > limit {
		kept = kept[:limit]
	}
	out := make([]string, len(kept))
	for i, c := range kept {
		out[i] = c.text
	}
	return out
}

// RankComments ranks comments with the default thresholds and signal table.
func RankComments(comments []string) []string {
	return DefaultCommentRanker().Rank(comments)
}
