package vendorsetup

import (
	"strings"
)

// Category keys offered on the business step.
const (
	CategoryFashion        = "fashion"
	CategoryElectronics    = "electronics"
	CategoryBeauty         = "beauty"
	CategoryHomeGarden     = "home_garden"
	CategoryFoodBeverages  = "food_beverages"
	CategoryHealthWellness = "health_wellness"
	CategorySportsOutdoors = "sports_outdoors"
	CategoryBooksMedia     = "books_media"
	CategoryToysKids       = "toys_kids"
	CategoryAutomotive     = "automotive"
)

// Categories is the fixed, ordered list of selectable category keys.
var Categories = []string{
	CategoryFashion,
	CategoryElectronics,
	CategoryBeauty,
	CategoryHomeGarden,
	CategoryFoodBeverages,
	CategoryHealthWellness,
	CategorySportsOutdoors,
	CategoryBooksMedia,
	CategoryToysKids,
	CategoryAutomotive,
}

func IsCategory(key string) bool {
	for _, c := range Categories {
		if c == key {
			return true
		}
	}
	return false
}

// Translator resolves a category key to its display label.
type Translator interface {
	Translate(key string) string
}

// Labels is a static Translator. Unknown keys translate to themselves.
type Labels map[string]string

func (l Labels) Translate(key string) string {
	if v, ok := l[key]; ok {
		return v
	}
	return key
}

// EnglishLabels are the default category labels.
var EnglishLabels = Labels{
	CategoryFashion:        "Fashion & Apparel",
	CategoryElectronics:    "Electronics",
	CategoryBeauty:         "Beauty & Personal Care",
	CategoryHomeGarden:     "Home & Garden",
	CategoryFoodBeverages:  "Food & Beverages",
	CategoryHealthWellness: "Health & Wellness",
	CategorySportsOutdoors: "Sports & Outdoors",
	CategoryBooksMedia:     "Books & Media",
	CategoryToysKids:       "Toys & Kids",
	CategoryAutomotive:     "Automotive",
}

// FilterCategories returns the keys whose translated label contains query,
// case-insensitively. An empty query returns every category.
func FilterCategories(query string, tr Translator) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]string, 0, len(Categories))
	for _, key := range Categories {
		if q == "" || strings.Contains(strings.ToLower(tr.Translate(key)), q) {
			out = append(out, key)
		}
	}
	return out
}

// BusinessType joins the selected keys with commas, cut to max bytes.
func BusinessType(keys []string, max int) string {
	joined := strings.Join(keys, ",")
	if max > 0 && len(joined) > max {
		joined = joined[:max]
	}
	return joined
}
