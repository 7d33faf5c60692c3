// Package auth signs users in with Firebase email/password authentication
// over the Identity Toolkit REST API and keeps their ID token fresh.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/servicesaver/servicesaver/internal/log"
)

const (
	defaultAuthURL  = "https://identitytoolkit.googleapis.com/v1"
	defaultTokenURL = "https://securetoken.googleapis.com/v1/token"
)

// Client is the auth boundary. It implements oauth2.TokenSource so its ID
// token can authorise Firestore requests.
type Client struct {
	apiKey    string
	authURL   string
	tokenURL  string
	credsPath string
	http      *http.Client
	logger    *zap.Logger
	now       func() time.Time

	mu    sync.Mutex
	creds *Credentials
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for auth requests.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Client) { a.http = c }
}

// WithEndpoints overrides the Identity Toolkit and secure-token URLs.
func WithEndpoints(authURL, tokenURL string) Option {
	return func(a *Client) {
		if authURL != "" {
			a.authURL = strings.TrimRight(authURL, "/")
		}
		if tokenURL != "" {
			a.tokenURL = tokenURL
		}
	}
}

// WithCredentialsFile persists sign-ins to path so they survive restarts.
func WithCredentialsFile(path string) Option {
	return func(a *Client) { a.credsPath = path }
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Client) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewClient creates an auth client for the project's web API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		authURL:  defaultAuthURL,
		tokenURL: defaultTokenURL,
		http:     http.DefaultClient,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CurrentUserID returns the signed-in user's id, or "" when signed out.
func (c *Client) CurrentUserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.creds == nil {
		return ""
	}
	return c.creds.UserID
}

// Current returns a copy of the signed-in credentials.
func (c *Client) Current() (Credentials, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.creds == nil {
		return Credentials{}, false
	}
	return *c.creds, true
}

// SignIn authenticates with email and password.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Credentials, error) {
	if err := ValidateSignIn(email, password); err != nil {
		return nil, err
	}
	return c.passwordCall(ctx, "accounts:signInWithPassword", email, password)
}

// Register creates an account and signs it in. The confirmation must match
// before any request is made.
func (c *Client) Register(ctx context.Context, email, password, confirm string) (*Credentials, error) {
	if err := ValidateRegistration(email, password, confirm); err != nil {
		return nil, err
	}
	return c.passwordCall(ctx, "accounts:signUp", email, password)
}

// Restore loads persisted credentials, refreshing the ID token if needed.
// Returns ErrNotSignedIn when nothing is stored.
func (c *Client) Restore(ctx context.Context) (*Credentials, error) {
	if c.credsPath == "" {
		return nil, ErrNotSignedIn
	}
	creds, err := loadCredentials(c.credsPath)
	if err != nil {
		return nil, err
	}
	if creds.expired(c.now()) {
		if creds, err = c.refresh(ctx, creds); err != nil {
			return nil, err
		}
	}
	if err := c.setCredentials(creds); err != nil {
		return nil, err
	}
	return creds, nil
}

// SignOut forgets the current user and deletes persisted credentials.
func (c *Client) SignOut() error {
	c.mu.Lock()
	uid := ""
	if c.creds != nil {
		uid = c.creds.UserID
	}
	c.creds = nil
	c.mu.Unlock()

	if c.credsPath != "" {
		if err := removeCredentials(c.credsPath); err != nil {
			return err
		}
	}
	c.logger.Info("signed out", zap.String("event", log.EventSignedOut), zap.String("uid", uid))
	return nil
}

// Token implements oauth2.TokenSource. The ID token is refreshed when it
// is about to expire.
func (c *Client) Token() (*oauth2.Token, error) {
	c.mu.Lock()
	creds := c.creds
	c.mu.Unlock()
	if creds == nil {
		return nil, ErrNotSignedIn
	}

	if creds.expired(c.now()) {
		fresh, err := c.refresh(context.Background(), creds)
		if err != nil {
			return nil, err
		}
		if err := c.setCredentials(fresh); err != nil {
			c.logger.Warn("persist refreshed credentials", zap.Error(err))
		}
		creds = fresh
	}

	return &oauth2.Token{
		AccessToken: creds.IDToken,
		TokenType:   "Bearer",
		Expiry:      creds.Expiry,
	}, nil
}

func (c *Client) setCredentials(creds *Credentials) error {
	c.mu.Lock()
	c.creds = creds
	c.mu.Unlock()
	if c.credsPath == "" {
		return nil
	}
	return saveCredentials(c.credsPath, creds)
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type passwordResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type refreshResponse struct {
	UserID       string `json:"user_id"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) passwordCall(ctx context.Context, method, email, password string) (*Credentials, error) {
	body, err := json.Marshal(passwordRequest{
		Email:             strings.TrimSpace(email),
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}

	endpoint := c.authURL + "/" + method + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp passwordResponse
	if err := c.do(req, &resp); err != nil {
		c.logger.Warn("authentication failed",
			zap.String("event", log.EventAuthFailed),
			zap.String("method", method),
			zap.Error(err))
		return nil, err
	}

	creds := &Credentials{
		UserID:       resp.LocalID,
		Email:        resp.Email,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		Expiry:       c.expiry(resp.ExpiresIn),
	}
	c.applyClaims(creds)

	if err := c.setCredentials(creds); err != nil {
		c.logger.Warn("persist credentials", zap.Error(err))
	}
	c.logger.Info("signed in",
		zap.String("event", log.EventSignedIn),
		zap.String("uid", creds.UserID),
		zap.String("method", method))
	return creds, nil
}

func (c *Client) refresh(ctx context.Context, creds *Credentials) (*Credentials, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {creds.RefreshToken},
	}
	endpoint := c.tokenURL + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp refreshResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	fresh := &Credentials{
		UserID:       resp.UserID,
		Email:        creds.Email,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		Expiry:       c.expiry(resp.ExpiresIn),
	}
	if fresh.UserID == "" {
		fresh.UserID = creds.UserID
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = creds.RefreshToken
	}
	c.applyClaims(fresh)
	return fresh, nil
}

// applyClaims prefers the uid and expiry carried in the ID token itself.
func (c *Client) applyClaims(creds *Credentials) {
	claims, err := parseIDToken(creds.IDToken)
	if err != nil {
		c.logger.Debug("id token claims unavailable", zap.Error(err))
		return
	}
	creds.UserID = claims.UserID
	if claims.Email != "" {
		creds.Email = claims.Email
	}
	if !claims.Expiry.IsZero() {
		creds.Expiry = claims.Expiry
	}
}

func (c *Client) expiry(expiresIn string) time.Time {
	secs, err := strconv.Atoi(expiresIn)
	if err != nil || secs <= 0 {
		secs = 3600
	}
	return c.now().Add(time.Duration(secs) * time.Second)
}

func (c *Client) do(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return &Error{Code: CodeOther, Detail: err.Error()}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return &Error{Code: CodeOther, Detail: err.Error()}
	}

	if res.StatusCode != http.StatusOK {
		var e errorResponse
		if err := json.Unmarshal(data, &e); err != nil || e.Error.Message == "" {
			return &Error{Code: CodeOther, Detail: res.Status}
		}
		return &Error{Code: codeFor(e.Error.Message), Detail: e.Error.Message}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Code: CodeOther, Detail: "decode response: " + err.Error()}
	}
	return nil
}
