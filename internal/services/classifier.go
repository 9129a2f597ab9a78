package services

import (
	"strings"
)

// CategoryOther is returned when no keyword rule matches a product name
const CategoryOther = "Other"

// CategoryRule maps a keyword to a category label
type CategoryRule struct {
	Keyword  string
	Category string
}

// DefaultCategoryRules returns the built-in keyword table. The slice is
// ordered and earlier rules win: a name containing both "tea" and "meat"
// classifies as Beverages because "tea" appears first.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{"rice", "Grains"},
		{"sugar", "Baking"},
		{"milk", "Dairy"},
		{"bread", "Bakery"},
		{"coffee", "Beverages"},
		{"tea", "Beverages"},
		{"flour", "Baking"},
		{"oil", "Cooking"},
		{"spice", "Spices"},
		{"vegetable", "Produce"},
		{"fruit", "Produce"},
		{"meat", "Meat"},
		{"fish", "Seafood"},
		{"chicken", "Poultry"},
		{"soap", "Cleaning"},
		{"detergent", "Cleaning"},
	}
}

// CategoryClassifier assigns a category label to a product name by ordered
// keyword lookup
type CategoryClassifier struct {
	rules []CategoryRule
}

// NewCategoryClassifier creates a classifier over an ordered rule list
func NewCategoryClassifier(rules []CategoryRule) *CategoryClassifier {
	return &CategoryClassifier{rules: rules}
}

// Classify returns the category of the first rule whose keyword occurs in
// the lower-cased name, or CategoryOther when none matches
func (c *CategoryClassifier) Classify(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range c.rules {
		if strings.Contains(lower, rule.Keyword) {
			return rule.Category
		}
	}
	return CategoryOther
}
