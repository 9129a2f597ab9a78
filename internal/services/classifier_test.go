package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	classifier := NewCategoryClassifier(DefaultCategoryRules())

	tests := []struct {
		name string
		want string
	}{
		{"Basmati Rice", "Grains"},
		{"Granulated Sugar", "Baking"},
		{"Full Cream Milk", "Dairy"},
		{"BREAD", "Bakery"},
		{"Ground Coffee", "Beverages"},
		{"green tea", "Beverages"},
		{"Laundry Detergent", "Cleaning"},
		{"Chicken Breast", "Poultry"},
		{"Quantum Widget", "Other"},
		{"", "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.Classify(tt.name))
		})
	}
}

func TestClassify_FirstRuleWins(t *testing.T) {
	classifier := NewCategoryClassifier(DefaultCategoryRules())

	// "oil" precedes "vegetable" in the rule table
	assert.Equal(t, "Cooking", classifier.Classify("Vegetable Oil"))

	// "milk" precedes "bread"
	assert.Equal(t, "Dairy", classifier.Classify("Milk Bread"))
}

func TestClassify_CustomRules(t *testing.T) {
	classifier := NewCategoryClassifier([]CategoryRule{
		{"bolt", "Hardware"},
	})

	assert.Equal(t, "Hardware", classifier.Classify("Hex Bolt M8"))
	assert.Equal(t, CategoryOther, classifier.Classify("Rice"))
}
