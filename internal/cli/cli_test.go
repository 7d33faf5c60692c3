package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/servicesaver/servicesaver/internal/config"
	"github.com/servicesaver/servicesaver/internal/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCategoryKey(t *testing.T) {
	tests := []struct {
		flag, text, want string
	}{
		{"", "I need help with insurance", "insurance"},
		{"", "cheaper car insurance", "movers"},
		{"pet_services", "anything", "pet_services"},
		{"Utilities", "anything", "finance"},
		{"unknown", "Insurance", "movers"},
	}
	for _, tt := range tests {
		if got := categoryKey(tt.flag, tt.text); got != tt.want {
			t.Errorf("categoryKey(%q, %q) = %q, want %q", tt.flag, tt.text, got, tt.want)
		}
	}
}

func TestConfigInit(t *testing.T) {
	home := t.TempDir()

	out, err := execute(t, "config", "init", "--home", home, "--project", "demo", "--api-key", "key")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote") {
		t.Errorf("output = %q", out)
	}

	cfg, err := config.ReadConfig(home)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.Firebase.ProjectID != "demo" || cfg.Firebase.APIKey != "key" {
		t.Errorf("firebase = %+v", cfg.Firebase)
	}

	if _, err := execute(t, "config", "init", "--home", home); err == nil {
		t.Error("expected refusal to overwrite")
	}
}

func TestConfigInitWarnsWhenIncomplete(t *testing.T) {
	home := t.TempDir()
	projectFlag, apiKeyFlag = "", ""

	out, err := execute(t, "config", "init", "--home", home, "--project", "", "--api-key", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Warning") {
		t.Errorf("expected a validation warning, got %q", out)
	}
}

func TestStatusRequiresSignIn(t *testing.T) {
	home := testutil.TempHome(t, map[string]string{
		"config.yaml": "firebase:\n  project_id: demo\n  api_key: key\ncache:\n  driver: memory\n",
	})

	_, err := execute(t, "status", "--home", home)
	if !errors.Is(err, errNotSignedIn) {
		t.Fatalf("status error = %v, want errNotSignedIn", err)
	}
	if _, statErr := os.Stat(home + "/logs"); statErr != nil {
		t.Errorf("log directory not created: %v", statErr)
	}
}

func TestUnconfiguredHome(t *testing.T) {
	_, err := execute(t, "logout", "--home", t.TempDir())
	if !errors.Is(err, config.ErrNotConfigured) {
		t.Fatalf("logout error = %v, want ErrNotConfigured", err)
	}
}
