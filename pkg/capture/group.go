package capture

import (
	"sort"
	"strings"
	"unicode"

	"github.com/elonfeng/reciperadar/internal/store"
)

// similarTitle is the Jaccard index above which two titles name the same dish.
const similarTitle = 0.5

// Group clusters captures whose titles describe the same recipe, such as one
// video reposted to several feeds. Each group is ordered by descending score
// and groups are ordered by their best score.
func Group(captures []store.Capture) [][]store.Capture {
	n := len(captures)
	if n == 0 {
		return nil
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}

	tokens := make([][]string, n)
	for i, c := range captures {
		tokens[i] = significantTokens(c.Title)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if captures[i].URL != "" && captures[i].URL == captures[j].URL ||
				jaccardSimilarity(tokens[i], tokens[j]) >= similarTitle {
				if pi, pj := find(i), find(j); pi != pj {
					parent[pj] = pi
				}
			}
		}
	}

	index := make(map[int]int)
	var groups [][]store.Capture
	for i, c := range captures {
		root := find(i)
		g, ok := index[root]
		if !ok {
			g = len(groups)
			index[root] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], c)
	}

	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].Score > g[j].Score })
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i][0].Score > groups[j][0].Score })
	return groups
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"in": true, "on": true, "at": true, "to": true, "for": true,
	"of": true, "with": true, "by": true, "from": true, "is": true,
	"my": true, "your": true, "our": true, "this": true, "how": true,
	"make": true, "best": true, "easy": true, "recipe": true, "recipes": true,
	"homemade": true, "ever": true, "quick": true, "simple": true,
}

// significantTokens extracts meaningful words from a title.
func significantTokens(title string) []string {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var tokens []string
	for _, w := range words {
		if len(w) >= 2 && !stopwords[w] {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// jaccardSimilarity returns the Jaccard index of two token sets.
func jaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]bool)
	for _, t := range a {
		setA[t] = true
	}
	setB := make(map[string]bool)
	for _, t := range b {
		setB[t] = true
	}

	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}
