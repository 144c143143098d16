package recipe

// Sources are the raw text fields scraped from one social post. An empty
// field means no data.
type Sources struct {
	Caption   string   `json:"caption" yaml:"caption"`
	Text      string   `json:"text" yaml:"text"`
	PageTitle string   `json:"pageTitle" yaml:"page_title"`
	Comments  []string `json:"comments" yaml:"comments"`
}

// ContentResult is the outcome of selecting the main text of a post.
type ContentResult struct {
	Title    string   `json:"title"`
	MainText string   `json:"mainText"`
	Comments []string `json:"comments"`
	Score    Score    `json:"score"`
}

// TitleInput is what a TitleExtractor gets to work with.
type TitleInput struct {
	Caption     string
	Text        string
	PageTitle   string
	Description string
}

// TitleExtractor picks a title for a post. It returns "" when it finds none.
type TitleExtractor interface {
	ExtractTitle(in TitleInput) string
}

// TitleFunc adapts a plain function to TitleExtractor.
type TitleFunc func(in TitleInput) string

func (f TitleFunc) ExtractTitle(in TitleInput) string { return f(in) }

// Selector chooses the main text block of a post and scores it.
type Selector struct {
	Scorer *Scorer
	Titles TitleExtractor
}

// NewSelector creates a selector. A nil scorer uses the default table and a
// nil extractor yields no title.
func NewSelector(scorer *Scorer, titles TitleExtractor) *Selector {
	if scorer == nil {
		scorer = defaultScorer
	}
	return &Selector{Scorer: scorer, Titles: titles}
}

// Select normalizes src, asks the title extractor for a title, and scores the
// caption, falling back to the on-screen text only when the caption is empty.
func (s *Selector) Select(src Sources) ContentResult {
	caption := Clean(src.Caption)
	text := Clean(src.Text)
	pageTitle := Clean(src.PageTitle)

	comments := make([]string, 0, len(src.Comments))
	for _, c := range src.Comments {
		if cleaned := Clean(c); cleaned != "" {
			comments = append(comments, cleaned)
		}
	}

	var title string
	if s.Titles != nil {
		title = s.Titles.ExtractTitle(TitleInput{
			Caption:   caption,
			Text:      text,
			PageTitle: pageTitle,
		})
	}

	mainText := caption
	if mainText == "" {
		mainText = text
	}

	scorer := s.Scorer
	if scorer == nil {
		scorer = defaultScorer
	}

	return ContentResult{
		Title:    title,
		MainText: mainText,
		Comments: comments,
		Score:    scorer.Score(mainText),
	}
}

// Select runs a default-table Selector with the given title extractor.
func Select(src Sources, titles TitleExtractor) ContentResult {
	return NewSelector(nil, titles).Select(src)
}
