package grocery

import "strings"

const generalCategory = "General"

// Categorize guesses the category for an item name typed without one.
// Matching is case-insensitive: exact name first, then keyword substring.
// Unknown names land in General.
func Categorize(itemName string) string {
	name := strings.ToLower(strings.TrimSpace(itemName))
	if name == "" {
		return generalCategory
	}

	if cat, ok := exactMatch[name]; ok {
		return cat
	}

	// Longer, more specific keywords are listed first.
	for _, entry := range keywordMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.category
		}
	}

	return generalCategory
}

var exactMatch = map[string]string{
	// Fruit
	"apple":        "Fruit",
	"apples":       "Fruit",
	"banana":       "Fruit",
	"bananas":      "Fruit",
	"orange":       "Fruit",
	"oranges":      "Fruit",
	"lemon":        "Fruit",
	"lemons":       "Fruit",
	"grapes":       "Fruit",
	"strawberries": "Fruit",
	"watermelon":   "Fruit",
	"peach":        "Fruit",
	"peaches":      "Fruit",
	"cherries":     "Fruit",
	"figs":         "Fruit",
	"pomegranate":  "Fruit",

	// Vegetables
	"tomato":    "Vegetables",
	"tomatoes":  "Vegetables",
	"potato":    "Vegetables",
	"potatoes":  "Vegetables",
	"onion":     "Vegetables",
	"onions":    "Vegetables",
	"garlic":    "Vegetables",
	"cucumber":  "Vegetables",
	"cucumbers": "Vegetables",
	"lettuce":   "Vegetables",
	"spinach":   "Vegetables",
	"broccoli":  "Vegetables",
	"carrots":   "Vegetables",
	"peppers":   "Vegetables",
	"eggplant":  "Vegetables",
	"zucchini":  "Vegetables",
	"parsley":   "Vegetables",

	// Dairy
	"milk":   "Dairy",
	"cheese": "Dairy",
	"yogurt": "Dairy",
	"butter": "Dairy",
	"cream":  "Dairy",
	"kefir":  "Dairy",
	"labneh": "Dairy",

	// Breakfast
	"eggs":    "Breakfast",
	"honey":   "Breakfast",
	"jam":     "Breakfast",
	"olives":  "Breakfast",
	"granola": "Breakfast",
	"oats":    "Breakfast",
	"cereal":  "Breakfast",
	"halva":   "Breakfast",
	"tahini":  "Breakfast",

	// Meat & Poultry
	"chicken":  "Meat & Poultry",
	"beef":     "Meat & Poultry",
	"lamb":     "Meat & Poultry",
	"turkey":   "Meat & Poultry",
	"salami":   "Meat & Poultry",
	"sausage":  "Meat & Poultry",
	"sucuk":    "Meat & Poultry",
	"steak":    "Meat & Poultry",
	"pastirma": "Meat & Poultry",
	"fish":     "Meat & Poultry",
	"salmon":   "Meat & Poultry",
	"anchovy":  "Meat & Poultry",

	// Pantry
	"rice":          "Pantry",
	"pasta":         "Pantry",
	"flour":         "Pantry",
	"sugar":         "Pantry",
	"salt":          "Pantry",
	"lentils":       "Pantry",
	"chickpeas":     "Pantry",
	"beans":         "Pantry",
	"bulgur":        "Pantry",
	"couscous":      "Pantry",
	"vinegar":       "Pantry",
	"olive oil":     "Pantry",
	"sunflower oil": "Pantry",
	"tomato paste":  "Pantry",

	// Beverages
	"water":  "Beverages",
	"tea":    "Beverages",
	"coffee": "Beverages",
	"juice":  "Beverages",
	"soda":   "Beverages",
	"cola":   "Beverages",
	"ayran":  "Beverages",

	// Bakery
	"bread":     "Bakery",
	"simit":     "Bakery",
	"bagels":    "Bakery",
	"baguette":  "Bakery",
	"pita":      "Bakery",
	"lavash":    "Bakery",
	"tortilla":  "Bakery",
	"croissant": "Bakery",

	// Household
	"paper towels":  "Household",
	"toilet paper":  "Household",
	"dish soap":     "Household",
	"trash bags":    "Household",
	"sponges":       "Household",
	"bleach":        "Household",
	"detergent":     "Household",
	"aluminum foil": "Household",
	"napkins":       "Household",

	// Personal Care
	"shampoo":     "Personal Care",
	"soap":        "Personal Care",
	"toothpaste":  "Personal Care",
	"deodorant":   "Personal Care",
	"razors":      "Personal Care",
	"cotton pads": "Personal Care",
	"sunscreen":   "Personal Care",

	// Snacks
	"chips":     "Snacks",
	"crackers":  "Snacks",
	"chocolate": "Snacks",
	"cookies":   "Snacks",
	"popcorn":   "Snacks",
	"nuts":      "Snacks",
	"pretzels":  "Snacks",
	"wafers":    "Snacks",
	"lokum":     "Snacks",
	"baklava":   "Snacks",
}

type keywordMatch struct {
	keyword  string
	category string
}

var keywordMatches = []keywordMatch{
	{"toilet paper", "Household"},
	{"paper towel", "Household"},
	{"dish soap", "Household"},
	{"laundry", "Household"},
	{"cleaner", "Household"},
	{"detergent", "Household"},

	{"toothbrush", "Personal Care"},
	{"toothpaste", "Personal Care"},
	{"shampoo", "Personal Care"},
	{"conditioner", "Personal Care"},
	{"lotion", "Personal Care"},

	{"chicken", "Meat & Poultry"},
	{"beef", "Meat & Poultry"},
	{"lamb", "Meat & Poultry"},
	{"meatball", "Meat & Poultry"},
	{"fillet", "Meat & Poultry"},

	{"cheese", "Dairy"},
	{"yogurt", "Dairy"},
	{"milk", "Dairy"},

	{"bread", "Bakery"},
	{"roll", "Bakery"},
	{"bun", "Bakery"},

	{"juice", "Beverages"},
	{"water", "Beverages"},
	{"tea", "Beverages"},
	{"coffee", "Beverages"},

	{"oil", "Pantry"},
	{"sauce", "Pantry"},
	{"paste", "Pantry"},
	{"spice", "Pantry"},
	{"flour", "Pantry"},

	{"chip", "Snacks"},
	{"chocolate", "Snacks"},
	{"candy", "Snacks"},
	{"biscuit", "Snacks"},

	{"berry", "Fruit"},
	{"berries", "Fruit"},
	{"melon", "Fruit"},
	{"apple", "Fruit"},

	{"pepper", "Vegetables"},
	{"salad", "Vegetables"},
	{"greens", "Vegetables"},
}
