package commands

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicesaver/servicesaver/internal/auth"
	"github.com/servicesaver/servicesaver/internal/tui"
)

// writeExpired stores a sign-in whose ID token must be refreshed.
func writeExpired(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	data := `{"user_id":"uid-42","email":"a@b.test","id_token":"stale","refresh_token":"refresh-1","expiry":"` +
		time.Now().Add(-time.Hour).UTC().Format(time.RFC3339) + `"}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))
	return path
}

func TestRestoreCmdKeepsCredentialsWhenOffline(t *testing.T) {
	path := writeExpired(t)
	client := auth.NewClient("api-key",
		auth.WithEndpoints("http://127.0.0.1:1/v1", "http://127.0.0.1:1/token"),
		auth.WithCredentialsFile(path))

	msg := RestoreCmd(context.Background(), client)()
	assert.IsType(t, tui.AuthRequiredMsg{}, msg)

	_, err := os.Stat(path)
	assert.NoError(t, err, "stored sign-in should survive a network failure")
}

func TestRestoreCmdSignsOutRejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"INVALID_REFRESH_TOKEN"}}`))
	}))
	t.Cleanup(srv.Close)

	path := writeExpired(t)
	client := auth.NewClient("api-key",
		auth.WithHTTPClient(srv.Client()),
		auth.WithEndpoints(srv.URL+"/v1", srv.URL+"/token"),
		auth.WithCredentialsFile(path))

	msg := RestoreCmd(context.Background(), client)()
	assert.IsType(t, tui.AuthRequiredMsg{}, msg)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "rejected credentials should be removed")
}

func TestRestoreCmdNothingStored(t *testing.T) {
	client := auth.NewClient("api-key",
		auth.WithCredentialsFile(filepath.Join(t.TempDir(), "credentials.json")))
	assert.IsType(t, tui.AuthRequiredMsg{}, RestoreCmd(context.Background(), client)())
}
