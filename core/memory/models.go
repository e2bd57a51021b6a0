package memory

import "time"

// Categories
const (
	CategoryProfessional Category = "professional"
	CategoryPersonal     Category = "personal"
	CategoryPreference   Category = "preference"
)

// Categories lists the valid categories in display order.
var Categories = []Category{CategoryProfessional, CategoryPersonal, CategoryPreference}

type Category string

func (c Category) IsValid() bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

func (c Category) Label() string {
	switch c {
	case CategoryProfessional:
		return "Professional"
	case CategoryPersonal:
		return "Personal"
	case CategoryPreference:
		return "Preferences"
	}
	return string(c)
}

// ParseCategory maps free input to a Category; anything unknown is professional.
func ParseCategory(s string) Category {
	if c := Category(s); c.IsValid() {
		return c
	}
	return CategoryProfessional
}

// Item is a single remembered fact about the user.
// Its JSON shape is the durable slot format: keep the field names stable.
type Item struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Category    Category  `json:"category"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type placeholder struct {
	key, value string
}

// placeholders are sample facts shipped with early builds. They are stripped on load.
// Exact, case-sensitive match on both key and value.
var placeholders = []placeholder{
	{"Role", "Account Executive"},
	{"Company", "Acme Corp"},
	{"Goal", "Close more deals this quarter"},
	{"Industry", "SaaS"},
	{"Learning Style", "Visual learner"},
	{"Name", "John Doe"},
}

func isPlaceholder(it Item) bool {
	for _, p := range placeholders {
		if it.Key == p.key && it.Value == p.value {
			return true
		}
	}
	return false
}

// normalizeCategories maps unknown categories to professional in place and returns how many it changed.
func normalizeCategories(items []Item) int {
	var n int
	for i := range items {
		if !items[i].Category.IsValid() {
			items[i].Category = CategoryProfessional
			n++
		}
	}
	return n
}

// withoutPlaceholders returns the items that are not placeholders and how many were dropped.
func withoutPlaceholders(items []Item) ([]Item, int) {
	kept := make([]Item, 0, len(items))
	for _, it := range items {
		if !isPlaceholder(it) {
			kept = append(kept, it)
		}
	}
	return kept, len(items) - len(kept)
}
