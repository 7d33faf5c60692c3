package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idToken(uid string, exp time.Time) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uid,
		"email":   uid + "@example.test",
		"exp":     exp.Unix(),
	})
	s, _ := tok.SignedString([]byte("test-secret"))
	return s
}

type fakeIdentity struct {
	t        *testing.T
	srv      *httptest.Server
	calls    atomic.Int32
	refreshs atomic.Int32
	exp      time.Time

	mu       sync.Mutex
	failWith string
}

func (f *fakeIdentity) fail(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = msg
}

func (f *fakeIdentity) failure() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failWith
}

func newFakeIdentity(t *testing.T) *fakeIdentity {
	return newFakeIdentityTTL(t, time.Hour)
}

func newFakeIdentityTTL(t *testing.T, ttl time.Duration) *fakeIdentity {
	f := &fakeIdentity{t: t, exp: time.Now().Add(ttl)}
	mux := http.NewServeMux()
	handle := func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		if r.URL.Query().Get("key") != "api-key" {
			http.Error(w, "bad key", http.StatusForbidden)
			return
		}
		if msg := f.failure(); msg != "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": 400, "message": msg},
			})
			return
		}
		var req passwordRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(passwordResponse{
			LocalID:      "uid-42",
			Email:        req.Email,
			IDToken:      idToken("uid-42", f.exp),
			RefreshToken: "refresh-1",
			ExpiresIn:    "3600",
		})
	}
	mux.HandleFunc("/v1/accounts:signInWithPassword", handle)
	mux.HandleFunc("/v1/accounts:signUp", handle)
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.refreshs.Add(1)
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("refresh_token") == "revoked" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"TOKEN_EXPIRED"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(refreshResponse{
			UserID:       "uid-42",
			IDToken:      idToken("uid-42", time.Now().Add(time.Hour)),
			RefreshToken: "refresh-2",
			ExpiresIn:    "3600",
		})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeIdentity) client(opts ...Option) *Client {
	opts = append([]Option{
		WithHTTPClient(f.srv.Client()),
		WithEndpoints(f.srv.URL+"/v1", f.srv.URL+"/token"),
	}, opts...)
	return NewClient("api-key", opts...)
}

func TestSignIn(t *testing.T) {
	f := newFakeIdentity(t)
	c := f.client()

	creds, err := c.SignIn(context.Background(), " dana@example.test ", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "uid-42", creds.UserID)
	assert.Equal(t, "uid-42", c.CurrentUserID())
	assert.Equal(t, "refresh-1", creds.RefreshToken)
	assert.WithinDuration(t, f.exp, creds.Expiry, time.Second)

	tok, err := c.Token()
	require.NoError(t, err)
	assert.Equal(t, creds.IDToken, tok.AccessToken)
	assert.Equal(t, int32(0), f.refreshs.Load(), "fresh token needs no refresh")
}

func TestSignIn_ProviderErrors(t *testing.T) {
	tests := []struct {
		provider string
		code     Code
		message  string
	}{
		{"EMAIL_NOT_FOUND", CodeUserNotFound, "User was not found. Consider registering."},
		{"INVALID_PASSWORD", CodeWrongPassword, "Invalid password"},
		{"INVALID_LOGIN_CREDENTIALS", CodeWrongPassword, "Invalid password"},
		{"INVALID_EMAIL", CodeInvalidEmail, "Invalid email address"},
		{"USER_DISABLED : The user account has been disabled by an administrator.", CodeUserDisabled, "User has been disabled"},
		{"TOO_MANY_ATTEMPTS_TRY_LATER", CodeOther, GenericMessage},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			f := newFakeIdentity(t)
			f.fail(tt.provider)
			c := f.client()

			_, err := c.SignIn(context.Background(), "a@b.test", "pw")
			var aerr *Error
			require.ErrorAs(t, err, &aerr)
			assert.Equal(t, tt.code, aerr.Code)
			assert.Equal(t, tt.message, Message(err))
			assert.Empty(t, c.CurrentUserID())
		})
	}
}

func TestRegister(t *testing.T) {
	f := newFakeIdentity(t)
	c := f.client()

	_, err := c.Register(context.Background(), "a@b.test", "pw1", "pw2")
	assert.Equal(t, "Passwords do not match", Message(err))
	assert.Equal(t, int32(0), f.calls.Load(), "mismatch must fail before any request")

	f.fail("EMAIL_EXISTS")
	_, err = c.Register(context.Background(), "a@b.test", "pw1", "pw1")
	assert.Equal(t, "Email already in use", Message(err))

	f.fail("")
	creds, err := c.Register(context.Background(), "a@b.test", "pw1", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "uid-42", creds.UserID)
}

func TestMissingFields(t *testing.T) {
	f := newFakeIdentity(t)
	c := f.client()
	_, err := c.SignIn(context.Background(), "", "pw")
	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, CodeMissingFields, aerr.Code)
	assert.Equal(t, int32(0), f.calls.Load())
}

func TestRestoreAndSignOut(t *testing.T) {
	f := newFakeIdentity(t)
	path := filepath.Join(t.TempDir(), "credentials.json")

	first := f.client(WithCredentialsFile(path))
	_, err := first.SignIn(context.Background(), "a@b.test", "pw")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	second := f.client(WithCredentialsFile(path))
	creds, err := second.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "uid-42", creds.UserID)
	assert.Equal(t, "uid-42", second.CurrentUserID())

	require.NoError(t, second.SignOut())
	assert.Empty(t, second.CurrentUserID())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	_, err = f.client(WithCredentialsFile(path)).Restore(context.Background())
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestRestoreRefreshesExpiredToken(t *testing.T) {
	f := newFakeIdentity(t)
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, saveCredentials(path, &Credentials{
		UserID:       "uid-42",
		IDToken:      idToken("uid-42", time.Now().Add(-time.Hour)),
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	c := f.client(WithCredentialsFile(path))
	creds, err := c.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", creds.RefreshToken)
	assert.True(t, creds.Expiry.After(time.Now()))
	assert.Equal(t, int32(1), f.refreshs.Load())

	saved, err := loadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", saved.RefreshToken)
}

func TestRestoreRevoked(t *testing.T) {
	f := newFakeIdentity(t)
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, saveCredentials(path, &Credentials{
		UserID:       "uid-42",
		RefreshToken: "revoked",
	}))

	_, err := f.client(WithCredentialsFile(path)).Restore(context.Background())
	require.Error(t, err)
	assert.True(t, IsRevoked(err))
	assert.Equal(t, GenericMessage, Message(err))
}

func TestRestoreTokenServiceUnreachable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, saveCredentials(path, &Credentials{
		UserID:       "uid-42",
		IDToken:      idToken("uid-42", time.Now().Add(-time.Hour)),
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	c := NewClient("api-key",
		WithEndpoints("http://127.0.0.1:1/v1", "http://127.0.0.1:1/token"),
		WithCredentialsFile(path))
	_, err := c.Restore(context.Background())
	require.Error(t, err)
	assert.False(t, IsRevoked(err), "a transport failure is not a rejection")

	saved, err := loadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", saved.RefreshToken)
}

func TestIsRevoked(t *testing.T) {
	tests := []struct {
		provider string
		want     bool
	}{
		{"TOKEN_EXPIRED", true},
		{"INVALID_REFRESH_TOKEN", true},
		{"USER_NOT_FOUND", true},
		{"USER_DISABLED : The user account has been disabled by an administrator.", true},
		{"TOO_MANY_ATTEMPTS_TRY_LATER", false},
		{"INVALID_GRANT_TYPE", false},
	}
	for _, tt := range tests {
		err := &Error{Code: codeFor(tt.provider), Detail: tt.provider}
		if got := IsRevoked(err); got != tt.want {
			t.Errorf("IsRevoked(%s) = %v, want %v", tt.provider, got, tt.want)
		}
	}
	assert.False(t, IsRevoked(ErrNotSignedIn))
	assert.False(t, IsRevoked(nil))
}

func TestTokenRefreshesNearExpiry(t *testing.T) {
	f := newFakeIdentityTTL(t, 30*time.Second)
	c := f.client()

	_, err := c.SignIn(context.Background(), "a@b.test", "pw")
	require.NoError(t, err)

	tok, err := c.Token()
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.refreshs.Load())
	assert.True(t, tok.Expiry.After(time.Now().Add(time.Minute)))

	cur, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "refresh-2", cur.RefreshToken)
}

func TestTokenSignedOut(t *testing.T) {
	_, err := NewClient("k").Token()
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, GenericMessage, Message(nil))
	assert.Equal(t, GenericMessage, Message(os.ErrDeadlineExceeded))
	assert.Equal(t, "Passwords do not match", Message(ValidateRegistration("a", "x", "y")))
	assert.NoError(t, ValidateRegistration("a", "x", "x"))
}

func TestParseIDToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	claims, err := parseIDToken(idToken("abc", exp))
	require.NoError(t, err)
	assert.Equal(t, "abc", claims.UserID)
	assert.Equal(t, "abc@example.test", claims.Email)
	assert.True(t, exp.Equal(claims.Expiry))

	_, err = parseIDToken("not-a-jwt")
	assert.Error(t, err)
}
