package source

import "strings"

// DefaultFoodKeywords is the base set used to keep food posts from general feeds.
var DefaultFoodKeywords = []string{
	"recipe", "homemade", "ingredients", "cook", "cooking", "bake", "baking",
	"dinner", "lunch", "breakfast", "brunch", "dessert", "snack", "meal prep",
	"pasta", "noodles", "rice", "bread", "cake", "cookies", "soup", "salad",
	"curry", "stew", "sauce", "chicken", "beef", "pork", "tofu", "vegan",
	"vegetarian", "gluten free", "air fryer", "slow cooker", "instant pot",
	"oven", "skillet", "one pot", "sheet pan",
	"cup", "tbsp", "tsp", "grams",
}

// Filter holds keyword lists for food content matching.
type Filter struct {
	keywords []string
	exclude  []string
}

// NewFilter creates a filter with default food keywords plus extras.
func NewFilter(extraKeywords, excludeKeywords []string) *Filter {
	keywords := make([]string, len(DefaultFoodKeywords))
	copy(keywords, DefaultFoodKeywords)
	keywords = append(keywords, extraKeywords...)

	for i, kw := range keywords {
		keywords[i] = strings.ToLower(kw)
	}

	exclude := make([]string, len(excludeKeywords))
	for i, kw := range excludeKeywords {
		exclude[i] = strings.ToLower(kw)
	}

	return &Filter{keywords: keywords, exclude: exclude}
}

// MatchesFood returns true if text mentions food and no excluded keyword.
func (f *Filter) MatchesFood(text string) bool {
	lower := strings.ToLower(text)

	for _, ex := range f.exclude {
		if strings.Contains(lower, ex) {
			return false
		}
	}

	for _, kw := range f.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// MatchesPost checks every text field of a post.
func (f *Filter) MatchesPost(p Post) bool {
	c := p.Content
	return f.MatchesFood(strings.Join([]string{c.PageTitle, c.Caption, c.Text}, "\n"))
}
