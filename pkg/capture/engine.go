// Package capture turns collected posts into scored, persisted captures.
package capture

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/elonfeng/reciperadar/internal/store"
	"github.com/elonfeng/reciperadar/pkg/recipe"
	"github.com/elonfeng/reciperadar/pkg/source"
)

// DefaultDetectThreshold is the score at which a capture counts as a recipe.
const DefaultDetectThreshold recipe.Score = 500

// Saver persists captures.
type Saver interface {
	UpsertCapture(ctx context.Context, c *store.Capture) error
}

// Options configure an Engine. A zero Comments ranker uses the default
// thresholds and a nil DetectThreshold uses DefaultDetectThreshold.
type Options struct {
	Scorer          *recipe.Scorer
	Titles          recipe.TitleExtractor
	Comments        recipe.CommentRanker
	DetectThreshold *recipe.Score
}

// Engine analyses posts and stores the results.
type Engine struct {
	saver     Saver
	selector  *recipe.Selector
	ranker    recipe.CommentRanker
	threshold recipe.Score
	now       func() time.Time
}

// NewEngine creates a capture engine. A nil saver makes Process analyse only.
func NewEngine(s Saver, opts Options) *Engine {
	threshold := DefaultDetectThreshold
	if opts.DetectThreshold != nil {
		threshold = *opts.DetectThreshold
	}
	ranker := opts.Comments
	if ranker == (recipe.CommentRanker{}) {
		ranker = recipe.DefaultCommentRanker()
	}
	if ranker.Scorer == nil {
		ranker.Scorer = opts.Scorer
	}
	return &Engine{
		saver:     s,
		selector:  recipe.NewSelector(opts.Scorer, opts.Titles),
		ranker:    ranker,
		threshold: threshold,
		now:       time.Now,
	}
}

// Threshold returns the detection threshold in use.
func (e *Engine) Threshold() recipe.Score {
	return e.threshold
}

// Scorer returns the signal table in use.
func (e *Engine) Scorer() *recipe.Scorer {
	return e.selector.Scorer
}

// Select runs content selection with the engine's scorer and title extractor.
func (e *Engine) Select(src recipe.Sources) recipe.ContentResult {
	return e.selector.Select(src)
}

// RankComments ranks raw comments with the engine's thresholds.
func (e *Engine) RankComments(comments []string) []string {
	return e.ranker.Rank(comments)
}

// Analyze selects, scores and ranks one post without touching the store.
func (e *Engine) Analyze(p source.Post) store.Capture {
	res := e.selector.Select(p.Content)
	return store.Capture{
		ID:          p.ID,
		Source:      p.Source,
		ExternalID:  p.ExternalID,
		URL:         p.URL,
		Author:      p.Author,
		Title:       res.Title,
		MainText:    res.MainText,
		Score:       res.Score,
		Comments:    res.Comments,
		TopComments: e.ranker.Rank(p.Content.Comments),
		Detected:    res.Score >= e.threshold,
		PublishedAt: p.PublishedAt,
		CapturedAt:  e.now().UTC(),
	}
}

// Process analyses and stores every post and returns the detected captures,
// highest score first. Store errors are logged and the post skipped.
func (e *Engine) Process(ctx context.Context, posts []source.Post) []store.Capture {
	var detected []store.Capture
	for _, p := range posts {
		if ctx.Err() != nil {
			break
		}
		c := e.Analyze(p)
		if e.saver != nil {
			if err := e.saver.UpsertCapture(ctx, &c); err != nil {
				log.Warn().Err(err).Str("post", p.ID).Msg("store capture")
				continue
			}
		}
		log.Debug().
			Str("post", c.ID).
			Str("source", string(c.Source)).
			Float64("score", float64(c.Score)).
			Bool("detected", c.Detected).
			Msg("captured")
		if c.Detected {
			detected = append(detected, c)
		}
	}

	sort.SliceStable(detected, func(i, j int) bool {
		return detected[i].Score > detected[j].Score
	})
	return detected
}
