// Package testutil provides test helper utilities for servicesaver tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/servicesaver/servicesaver/internal/session"
)

// TempHome creates a temporary config home with the given files and returns
// its path. Files is a map of relative path -> content. Directories are
// created as needed. The directory is cleaned up when the test finishes.
func TempHome(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}

	return dir
}

// MovingSession returns a strategizing session for a local move.
func MovingSession() *session.Session {
	return &session.Session{
		Status: session.StatusStrategizing,
		CustomerInfo: map[string]any{
			"name":                "Dana Reyes",
			"phone":               "555-0100",
			"current_address":     "12 Elm St, Austin",
			"destination_address": "400 Oak Ave, Dallas",
			"move_out_date":       "2025-03-01",
			"move_in_date":        "2025-03-03",
			"apartment_size":      "2 bedroom",
			"packing_assistance":  true,
			"inventory":           []any{"sofa", "piano", "bed"},
		},
		Movers: []session.Provider{
			{Name: "Swift Movers", Phone: "555-0111", Specialties: "local, pianos"},
			{Name: "Lone Star Hauling", Contact: "info@lonestar.test"},
		},
		MoverRationale: "Both movers cover Austin to Dallas routes.",
		Strategy:       "## Plan\n\nAsk for a **binding** quote.",
	}
}

// TelecomSession returns a strategizing session for an internet plan.
func TelecomSession() *session.Session {
	return &session.Session{
		Status: session.StatusStrategizing,
		CustomerInfo: map[string]any{
			"name":             "Sam Lee",
			"phone":            "555-0199",
			"service_type":     "Internet",
			"current_provider": "Acme Cable",
			"budget":           "$60/month",
			"location":         "Denver",
		},
		Movers: []session.Provider{
			{Name: "FiberCo", Phone: "555-0122"},
		},
	}
}

// Conversation returns a short user/assistant exchange.
func Conversation() []session.Message {
	base := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	return []session.Message{
		{ID: "m1", Role: session.RoleUser, Content: "I need help with moving & relocation", Category: "movers", CreatedAt: base},
		{ID: "m2", Role: session.RoleAssistant, Content: "Where are you moving from?", CreatedAt: base.Add(time.Second)},
	}
}
