// Package category holds the fixed service-category taxonomy offered on the
// chat screen and the mapping from its labels to backend category keys.
package category

import "strings"

// DefaultKey is used for any text that does not name a category.
const DefaultKey = "movers"

// PromptPrefix starts every quick-select message.
const PromptPrefix = "I need help with "

// Category is one quick-start entry.
type Category struct {
	Title    string
	Key      string
	Icon     string
	Examples []string
}

// All lists the categories in display order. Shortcut n selects All[n-1].
var All = []Category{
	{Title: "Moving & Relocation", Key: "movers", Icon: "🚚", Examples: []string{"Local moving", "Long distance", "Packing services", "Storage"}},
	{Title: "Telecom & Internet", Key: "telecom", Icon: "📞", Examples: []string{"Internet plans", "Mobile plans", "TV packages", "Bundle deals"}},
	{Title: "Insurance", Key: "insurance", Icon: "🛡", Examples: []string{"Auto insurance", "Home insurance", "Health insurance", "Life insurance"}},
	{Title: "Home Services", Key: "home_services", Icon: "🔧", Examples: []string{"Repairs", "Cleaning", "HVAC", "Plumbing"}},
	{Title: "Auto Services", Key: "auto_services", Icon: "🚗", Examples: []string{"Car repairs", "Oil changes", "Tire services", "Car rentals"}},
	{Title: "Healthcare", Key: "healthcare", Icon: "🩺", Examples: []string{"Medical bills", "Dental services", "Prescription costs", "Lab tests"}},
	{Title: "Education", Key: "education", Icon: "🎓", Examples: []string{"Tuition fees", "Training courses", "Certification programs", "Textbooks"}},
	{Title: "Pet Services", Key: "pet_services", Icon: "🐕", Examples: []string{"Veterinary care", "Pet grooming", "Pet training", "Pet boarding"}},
	// Utilities are grouped under finance by the backend.
	{Title: "Utilities", Key: "finance", Icon: "⚡", Examples: []string{"Electricity", "Gas", "Water", "Waste management"}},
}

// Prompt is the message sent when the category is picked.
func (c Category) Prompt() string {
	return PromptPrefix + strings.ToLower(c.Title)
}

// Teaser returns the first two examples joined for a compact card.
func (c Category) Teaser() string {
	n := len(c.Examples)
	if n > 2 {
		n = 2
	}
	return strings.Join(c.Examples[:n], " • ")
}

// KeyFor maps a category label, or a quick-select prompt built from one, to
// its key. Matching is case-insensitive. Unknown text maps to DefaultKey.
func KeyFor(text string) string {
	label := strings.ToLower(strings.TrimSpace(text))
	label = strings.TrimPrefix(label, strings.ToLower(PromptPrefix))
	for _, c := range All {
		if strings.ToLower(c.Title) == label {
			return c.Key
		}
	}
	return DefaultKey
}

// ByShortcut returns the category for a 1-based shortcut number.
func ByShortcut(n int) (Category, bool) {
	if n < 1 || n > len(All) {
		return Category{}, false
	}
	return All[n-1], true
}
