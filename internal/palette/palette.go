// Package palette holds the seed category set, the category color palette
// used by statistics, and the default suggestion catalog shown before the
// remote catalog has been fetched.
package palette

import "github.com/BarisSumer/bizim-market/internal/model"

const (
	// FallbackEmoji is used for items whose category has no known emoji.
	FallbackEmoji = "🛒"
	// FallbackColor is used for categories missing from the palette.
	FallbackColor = "#9CA3AF"
)

type categoryDef struct {
	Name  string
	Emoji string
	Color string
}

var defaults = []categoryDef{
	{"Fruit", "🍎", "#FB923C"},
	{"Vegetables", "🥦", "#4ADE80"},
	{"Dairy", "🥛", "#86EFAC"},
	{"Breakfast", "🍳", "#FCD34D"},
	{"Meat & Poultry", "🥩", "#F87171"},
	{"Pantry", "🌾", "#A78BFA"},
	{"Beverages", "🥤", "#38BDF8"},
	{"Bakery", "🍞", "#FBBF24"},
	{"Household", "🧴", "#D8B4FE"},
	{"Personal Care", "🧼", "#F9A8D4"},
	{"Snacks", "🍿", "#A5F3FC"},
	{"General", "🛒", "#9CA3AF"},
}

// DefaultCategories returns the categories seeded on first run. None of them
// carry a server id.
func DefaultCategories() []model.Category {
	cats := make([]model.Category, 0, len(defaults))
	for _, d := range defaults {
		cats = append(cats, model.Category{Name: d.Name, Emoji: d.Emoji})
	}
	return cats
}

// EmojiFor resolves the emoji for a seed category, falling back to the
// generic cart for unknown labels.
func EmojiFor(category string) string {
	for _, d := range defaults {
		if d.Name == category {
			return d.Emoji
		}
	}
	return FallbackEmoji
}

// ColorFor resolves the chart color for a category.
func ColorFor(category string) string {
	for _, d := range defaults {
		if d.Name == category {
			return d.Color
		}
	}
	return FallbackColor
}

// DefaultSuggestions is the built-in catalog used until the shared catalog
// has been fetched. Kept sorted by name.
func DefaultSuggestions() []model.Suggestion {
	return []model.Suggestion{
		{Name: "Apples", Emoji: "🍎", Category: "Fruit"},
		{Name: "Bananas", Emoji: "🍌", Category: "Fruit"},
		{Name: "Bread", Emoji: "🍞", Category: "Bakery"},
		{Name: "Butter", Emoji: "🧈", Category: "Dairy"},
		{Name: "Carrots", Emoji: "🥕", Category: "Vegetables"},
		{Name: "Cheese", Emoji: "🧀", Category: "Dairy"},
		{Name: "Coffee", Emoji: "☕", Category: "Beverages"},
		{Name: "Cucumbers", Emoji: "🥒", Category: "Vegetables"},
		{Name: "Eggs", Emoji: "🥚", Category: "Breakfast"},
		{Name: "Flour", Emoji: "🌾", Category: "Pantry"},
		{Name: "Honey", Emoji: "🍯", Category: "Breakfast"},
		{Name: "Lemons", Emoji: "🍋", Category: "Fruit"},
		{Name: "Milk", Emoji: "🥛", Category: "Dairy"},
		{Name: "Olives", Emoji: "🫒", Category: "Breakfast"},
		{Name: "Oranges", Emoji: "🍊", Category: "Fruit"},
		{Name: "Peppers", Emoji: "🫑", Category: "Vegetables"},
		{Name: "Potatoes", Emoji: "🥔", Category: "Vegetables"},
		{Name: "Rice", Emoji: "🍚", Category: "Pantry"},
		{Name: "Salt", Emoji: "🧂", Category: "Pantry"},
		{Name: "Sugar", Emoji: "🍬", Category: "Pantry"},
		{Name: "Tea", Emoji: "🍵", Category: "Beverages"},
		{Name: "Yogurt", Emoji: "🥛", Category: "Dairy"},
	}
}
