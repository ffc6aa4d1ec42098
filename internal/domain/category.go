package domain

import "strings"

// Category classifies an intelligence item into a closed set of
// business-intelligence buckets shared by the normalizer and the formatter.
type Category int

const (
	CategoryFundRaise Category = iota
	CategoryHiring
	CategoryCustomerSuccess
	CategoryProduct
	CategoryPartnerships
	CategoryGoToMarket
	CategoryOther
)

// CategoryOrder is the fixed rendering order. Output must look the same run
// over run regardless of map iteration order.
var CategoryOrder = []Category{
	CategoryFundRaise,
	CategoryHiring,
	CategoryCustomerSuccess,
	CategoryProduct,
	CategoryPartnerships,
	CategoryGoToMarket,
	CategoryOther,
}

var categoryKeys = map[Category]string{
	CategoryFundRaise:       "fund_raise",
	CategoryHiring:          "hiring",
	CategoryCustomerSuccess: "customer_success",
	CategoryProduct:         "product",
	CategoryPartnerships:    "partnerships",
	CategoryGoToMarket:      "go_to_market",
	CategoryOther:           "other",
}

var categoryNames = map[Category]string{
	CategoryFundRaise:       "Fund Raise",
	CategoryHiring:          "Hiring",
	CategoryCustomerSuccess: "Customer Success",
	CategoryProduct:         "Product",
	CategoryPartnerships:    "Partnerships",
	CategoryGoToMarket:      "Go-to-Market",
	CategoryOther:           "Other",
}

var categoryEmoji = map[Category]string{
	CategoryFundRaise:       "💰",
	CategoryHiring:          "👥",
	CategoryCustomerSuccess: "🎯",
	CategoryProduct:         "🚀",
	CategoryPartnerships:    "🤝",
	CategoryGoToMarket:      "📈",
	CategoryOther:           "📰",
}

// Key returns the canonical snake_case identifier used in wire formats.
func (c Category) Key() string {
	return categoryKeys[c]
}

// Display returns the human-readable category name.
func (c Category) Display() string {
	return categoryNames[c]
}

// Emoji returns the fixed header emoji for the category.
func (c Category) Emoji() string {
	return categoryEmoji[c]
}

func (c Category) String() string {
	return c.Key()
}

// ParseCategory resolves the historical naming variants ("fund_raise",
// "Fund Raise", "GTM", "Go-to-Market") to one enum value.
func ParseCategory(s string) (Category, bool) {
	switch canonicalCategoryKey(s) {
	case "fund_raise", "fundraise", "funding":
		return CategoryFundRaise, true
	case "hiring":
		return CategoryHiring, true
	case "customer_success":
		return CategoryCustomerSuccess, true
	case "product":
		return CategoryProduct, true
	case "partnerships", "partnership":
		return CategoryPartnerships, true
	case "go_to_market", "gtm":
		return CategoryGoToMarket, true
	case "other":
		return CategoryOther, true
	}
	return CategoryOther, false
}

// canonicalCategoryKey lowercases and strips everything except letters and
// digits, collapsing word separators to single underscores. Leading emoji and
// trailing colons fall away with the rest of the punctuation.
func canonicalCategoryKey(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	return b.String()
}
