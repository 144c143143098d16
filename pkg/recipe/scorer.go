// Package recipe finds and ranks recipe text in noisy social posts.
package recipe

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Score is the recipe-likelihood of a block of text. It may be negative and
// is unbounded above; the length bonus can make it fractional.
type Score float64

// Text is the view of an input that signals measure. Raw keeps the original
// case for emoji and character checks, Lower is used for word checks.
type Text struct {
	Raw    string
	Lower  string
	Length int // code points in Raw
}

// NewText prepares s for measurement.
func NewText(s string) Text {
	return Text{
		Raw:    s,
		Lower:  strings.ToLower(s),
		Length: utf8.RuneCountInString(s),
	}
}

// Signal is one weighted rule of the scorer. Measure reports 1 or 0 for flat
// rules, a match count for per-match rules, or a fractional amount.
type Signal struct {
	Name    string
	Weight  float64
	Measure func(t Text) float64
}

// Contribution is the share a single signal added to a score.
type Contribution struct {
	Signal  string  `json:"signal"`
	Weight  float64 `json:"weight"`
	Measure float64 `json:"measure"`
	Value   Score   `json:"value"`
}

var (
	ingredientsPattern = regexp.MustCompile(`\bingredients?\b`)
	stepsPattern       = regexp.MustCompile(`\b(?:steps?|directions?|method|instructions?)\b`)
	recipePattern      = regexp.MustCompile(`\b(?:recipe|homemade)\b`)
	unitsPattern       = wordsPattern(unitWords)
	bulletLinePattern  = regexp.MustCompile(`(?m)^\s*[-*•]`)
	numberedPattern    = regexp.MustCompile(`(?m)^\s*\d+[.)]`)
	instructionPattern = regexp.MustCompile(`^(?:` + alternation(instructionVerbs) + `)(?:[^\p{L}]|$)`)
)

const (
	maxLengthBonusRunes = 1000
	hashtagDensityLimit = 0.02
)

var defaultSignals = []Signal{
	{Name: "ingredients", Weight: 500, Measure: matches(ingredientsPattern)},
	{Name: "steps", Weight: 360, Measure: matches(stepsPattern)},
	{Name: "recipe", Weight: 400, Measure: matches(recipePattern)},
	{Name: "units", Weight: 70, Measure: countUnits},
	{Name: "quantities", Weight: 80, Measure: containsAnyRaw("0123456789" + VulgarFractions)},
	{Name: "bullets", Weight: 80, Measure: matchesRaw(bulletLinePattern)},
	{Name: "numbered", Weight: 90, Measure: matchesRaw(numberedPattern)},
	{Name: "food_emoji", Weight: 60, Measure: containsAnyRaw(FoodEmoji)},
	{Name: "kitchen_emoji", Weight: 40, Measure: containsAnyRaw(KitchenEmoji)},
	{Name: "hashtag_density", Weight: -60, Measure: hashtagDense},
	{Name: "promotional", Weight: -120, Measure: containsPhrase(promotionalPhrases)},
	{Name: "instruction_start", Weight: -100, Measure: matches(instructionPattern)},
	{Name: "length", Weight: 1, Measure: lengthBonus},
}

// DefaultSignals returns a copy of the default signal table in evaluation order.
func DefaultSignals() []Signal {
	out := make([]Signal, len(defaultSignals))
	copy(out, defaultSignals)
	return out
}

// Scorer sums an ordered table of signals. It holds no mutable state and is
// safe for concurrent use.
type Scorer struct {
	signals []Signal
}

// NewScorer creates a scorer over signals, or over the default table when
// none are given.
func NewScorer(signals ...Signal) *Scorer {
	if len(signals) == 0 {
		signals = defaultSignals
	}
	s := make([]Signal, len(signals))
	copy(s, signals)
	return &Scorer{signals: s}
}

var defaultScorer = NewScorer()

// DefaultScorer returns the scorer built from the default signal table.
func DefaultScorer() *Scorer { return defaultScorer }

// Signals returns a copy of the scorer's table.
func (s *Scorer) Signals() []Signal {
	out := make([]Signal, len(s.signals))
	copy(out, s.signals)
	return out
}

// Reweight returns a scorer whose weights are overridden by name.
// Unknown signal names are reported as an error.
func (s *Scorer) Reweight(weights map[string]float64) (*Scorer, error) {
	signals := s.Signals()
	index := make(map[string]int, len(signals))
	for i, sig := range signals {
		index[sig.Name] = i
	}

	var unknown []string
	for name, w := range weights {
		i, ok := index[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		signals[i].Weight = w
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown signals: %s", strings.Join(unknown, ", "))
	}
	return &Scorer{signals: signals}, nil
}

// Score computes the recipe-likelihood of text. Every signal is evaluated;
// there is no early exit and no clamping.
func (s *Scorer) Score(text string) Score {
	if text == "" {
		return 0
	}
	t := NewText(text)
	var total float64
	for _, sig := range s.signals {
		total += sig.Weight * sig.Measure(t)
	}
	return Score(total)
}

// Explain reports each signal's contribution in table order. The values sum
// to Score(text).
func (s *Scorer) Explain(text string) []Contribution {
	if text == "" {
		return nil
	}
	t := NewText(text)
	out := make([]Contribution, 0, len(s.signals))
	for _, sig := range s.signals {
		m := sig.Measure(t)
		out = append(out, Contribution{
			Signal:  sig.Name,
			Weight:  sig.Weight,
			Measure: m,
			Value:   Score(sig.Weight * m),
		})
	}
	return out
}

// ScoreText scores text with the default signal table.
func ScoreText(text string) Score { return defaultScorer.Score(text) }

// Explain explains text with the default signal table.
func Explain(text string) []Contribution { return defaultScorer.Explain(text) }

func matches(re *regexp.Regexp) func(Text) float64 {
	return func(t Text) float64 { return flag(re.MatchString(t.Lower)) }
}

func matchesRaw(re *regexp.Regexp) func(Text) float64 {
	return func(t Text) float64 { return flag(re.MatchString(t.Raw)) }
}

func containsAnyRaw(glyphs string) func(Text) float64 {
	return func(t Text) float64 { return flag(strings.ContainsAny(t.Raw, glyphs)) }
}

func containsPhrase(phrases []string) func(Text) float64 {
	return func(t Text) float64 {
		for _, p := range phrases {
			if strings.Contains(t.Lower, p) {
				return 1
			}
		}
		return 0
	}
}

func countUnits(t Text) float64 {
	return float64(len(unitsPattern.FindAllStringIndex(t.Lower, -1)))
}

func hashtagDense(t Text) float64 {
	if t.Length == 0 {
		return 0
	}
	density := float64(strings.Count(t.Raw, "#")) / float64(t.Length)
	return flag(density > hashtagDensityLimit)
}

func lengthBonus(t Text) float64 {
	return float64(min(t.Length, maxLengthBonusRunes)) / 10
}

func flag(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}

// wordsPattern matches any of words between word boundaries, preferring the
// longest alternative.
func wordsPattern(words []string) *regexp.Regexp {
	return regexp.MustCompile(`\b(?:` + alternation(words) + `)\b`)
}

func alternation(words []string) string {
	sorted := clone(words)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, len(sorted))
	for i, w := range sorted {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}
