// Package details lays out the free-form customer info collected by the
// backend into labelled rows for the strategy screen.
package details

import (
	"fmt"
	"strings"
	"time"

	"github.com/servicesaver/servicesaver/internal/session"
)

// DateLayout is how move dates are shown.
const DateLayout = "Jan 02, 2006"

// Item is one labelled value.
type Item struct {
	Label string
	Value string
}

// Row is a line of at most two items.
type Row struct {
	Items []Item
}

type field struct {
	key   string
	label string
}

// genericFields is the fixed order used for non-moving services. Fields are
// paired by position, so an absent field leaves its partner alone on a row.
var genericFields = []field{
	{"service_type", "Service Type"},
	{"current_provider", "Current Provider"},
	{"budget", "Budget"},
	{"timeline", "Timeline"},
	{"location", "Location"},
	{"requirements", "Requirements"},
	{"current_plan", "Current Plan"},
	{"desired_features", "Desired Features"},
}

// IsMoving reports whether info describes a move: both addresses present.
func IsMoving(info map[string]any) bool {
	return Truthy(info["current_address"]) && Truthy(info["destination_address"])
}

// CustomerRows returns the rows to show for info. The Name/Phone row is
// always first.
func CustomerRows(info map[string]any) []Row {
	rows := []Row{{Items: []Item{
		{Label: "Name", Value: Display(info["name"])},
		{Label: "Phone", Value: Display(info["phone"])},
	}}}

	if IsMoving(info) {
		size := "Not specified"
		if Truthy(info["apartment_size"]) {
			size = Display(info["apartment_size"])
		}
		packing := "No"
		if Truthy(info["packing_assistance"]) {
			packing = "Yes"
		}
		return append(rows,
			Row{Items: []Item{
				{Label: "From", Value: Display(info["current_address"])},
				{Label: "To", Value: Display(info["destination_address"])},
			}},
			Row{Items: []Item{
				{Label: "Move Out", Value: Date(info["move_out_date"])},
				{Label: "Move In", Value: Date(info["move_in_date"])},
			}},
			Row{Items: []Item{
				{Label: "Home Size", Value: size},
				{Label: "Packing Help", Value: packing},
			}},
		)
	}

	for i := 0; i < len(genericFields); i += 2 {
		var items []Item
		for _, f := range genericFields[i:min(i+2, len(genericFields))] {
			if v, ok := info[f.key]; ok && Truthy(v) {
				items = append(items, Item{Label: f.label, Value: Display(v)})
			}
		}
		if len(items) > 0 {
			rows = append(rows, Row{Items: items})
		}
	}
	return rows
}

// Extras returns the inventory items shown as chips under the rows.
func Extras(info map[string]any) []string {
	var out []string
	switch v := info["inventory"].(type) {
	case []any:
		for _, item := range v {
			if Truthy(item) {
				out = append(out, Display(item))
			}
		}
	case []string:
		for _, item := range v {
			if item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// Specialties splits a provider's comma-separated specialties.
func Specialties(p session.Provider) []string {
	var out []string
	for _, s := range strings.Split(p.Specialties, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// Date formats a move date with DateLayout, or "TBD" when it is missing.
// Text that is not a recognised date is shown as-is.
func Date(v any) string {
	if !Truthy(v) {
		return "TBD"
	}
	switch d := v.(type) {
	case time.Time:
		return d.Format(DateLayout)
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(DateLayout)
			}
		}
		return s
	}
	return Display(v)
}

// Truthy reports whether a decoded document value counts as present:
// nil, false, zero numbers, empty strings and zero times do not.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	case time.Time:
		return !x.IsZero()
	}
	return true
}

// Display renders a decoded document value as text.
func Display(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	case float64:
		return fmt.Sprintf("%g", x)
	case time.Time:
		return x.Format(DateLayout)
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, Display(item))
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}
