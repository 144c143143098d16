package recipe

// Glyph sets are tested rune by rune against the original-case text.
const (
	// VulgarFractions holds the standard fraction glyphs seen in quantities.
	VulgarFractions = "¼½¾⅓⅔⅛⅜⅝⅞"

	// FoodEmoji covers prepared food, bread, wraps, bowls, noodle and rice
	// dishes, sushi and dumplings, meat, egg, cheese, utensils and the
	// stopwatch.
	FoodEmoji = "🍕🍔🍟🌭🥪" + // fast food
		"🍞🥐🥖🫓🥨🥯🥞🧇" + // bread family
		"🌮🌯🫔🥙🧆" + // tacos and wraps
		"🥘🍲🫕🥣🥗" + // bowls and pots
		"🍜🍝🍛🍚🍙🍘🍠" + // noodles and rice
		"🍣🍤🍥🍱🍢🍡🥟🥠🥡🥮" + // sushi and dumplings
		"🍖🍗🥩🥓" + // meat
		"🥚🍳🧀🧈🧂" + // egg, cheese, pantry
		"🍴🥄🔪🥢" + // utensils
		"⏱"

	// KitchenEmoji is the weaker set: shopping cart, memo, plate with
	// cutlery, alarm clock and right arrow.
	KitchenEmoji = "🛒📝🍽⏰➡"
)

var unitWords = []string{
	"cup", "cups",
	"tsp", "tbsp",
	"teaspoon", "tablespoon",
	"oz", "ounce", "ounces",
	"lb", "pound",
	"g", "gram", "kg",
	"ml", "l", "liter", "litre",
	"clove", "cloves",
	"egg", "eggs",
	"stick", "sticks",
}

var promotionalPhrases = []string{
	"tour",
	"tickets",
	"anniversary",
	"merch",
	"follow",
	"subscribe",
	"link in bio",
	"watch this",
	"check out",
	"new post",
}

var instructionVerbs = []string{
	"step",
	"preheat",
	"mix",
	"combine",
	"add",
	"stir",
	"whisk",
	"bake",
	"boil",
	"simmer",
	"cook",
	"fry",
	"sauté",
	"grill",
	"roast",
}

// UnitWords returns the measurement words counted by the units signal.
func UnitWords() []string { return clone(unitWords) }

// PromotionalPhrases returns the lower-case phrases that mark promotional text.
func PromotionalPhrases() []string { return clone(promotionalPhrases) }

// InstructionVerbs returns the verbs penalized when a text opens with one.
func InstructionVerbs() []string { return clone(instructionVerbs) }

func clone(words []string) []string {
	out := make([]string, len(words))
	copy(out, words)
	return out
}
