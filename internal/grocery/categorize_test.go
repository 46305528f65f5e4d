package grocery

import "testing"

func TestCategorizeExactMatch(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"milk", "Dairy"},
		{"chicken", "Meat & Poultry"},
		{"bread", "Bakery"},
		{"rice", "Pantry"},
		{"ayran", "Beverages"},
		{"chips", "Snacks"},
		{"paper towels", "Household"},
		{"shampoo", "Personal Care"},
		{"apple", "Fruit"},
		{"tomatoes", "Vegetables"},
		{"eggs", "Breakfast"},
	}
	for _, tt := range tests {
		if got := Categorize(tt.input); got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCategorizeKeywordMatch(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"goat cheese", "Dairy"},
		{"whole wheat bread", "Bakery"},
		{"chicken thighs", "Meat & Poultry"},
		{"sparkling water", "Beverages"},
		{"hot sauce", "Pantry"},
		{"dark chocolate bar", "Snacks"},
		{"blueberries", "Fruit"},
		{"all-purpose cleaner", "Household"},
	}
	for _, tt := range tests {
		if got := Categorize(tt.input); got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCategorizeCaseAndWhitespace(t *testing.T) {
	if got := Categorize("  MILK  "); got != "Dairy" {
		t.Errorf("Categorize with case/whitespace = %q, want Dairy", got)
	}
}

func TestCategorizeUnknown(t *testing.T) {
	for _, input := range []string{"", "   ", "flux capacitor"} {
		if got := Categorize(input); got != "General" {
			t.Errorf("Categorize(%q) = %q, want General", input, got)
		}
	}
}
