// Package auth obtains and refreshes OAuth2 tokens for the cloud providers.
package auth

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
	"google.golang.org/api/drive/v3"

	"github.com/Ning0612/cloudsync/internal/config"
	"github.com/Ning0612/cloudsync/internal/domain"
	"github.com/Ning0612/cloudsync/internal/logger"
)

// RedirectURL is registered for both providers. The browser lands on a page that
// does not load; the user copies the code from its address bar.
const RedirectURL = "http://localhost:8085/callback"

// ErrNotConfigured means the provider has no client ID
var ErrNotConfigured = errors.New("provider OAuth client is not configured")

// Authenticator handles OAuth2 for one provider
type Authenticator struct {
	provider domain.Provider
	config   *oauth2.Config
	store    TokenStore
}

// New creates an authenticator from the provider's configuration section
func New(provider domain.Provider, cfg config.OAuthConfig) (*Authenticator, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, provider)
	}

	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  RedirectURL,
	}

	switch provider {
	case domain.ProviderGoogle:
		oc.Endpoint = google.Endpoint
		oc.Scopes = []string{drive.DriveMetadataReadonlyScope}
	case domain.ProviderMicrosoft:
		tenant := cfg.Tenant
		if tenant == "" {
			tenant = "common"
		}
		oc.Endpoint = microsoft.AzureADEndpoint(tenant)
		oc.Scopes = []string{"Files.Read", "offline_access"}
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, provider)
	}

	var store TokenStore
	if cfg.Keyring {
		store = NewKeyringTokenStore(string(provider))
	} else {
		store = NewFileTokenStore(cfg.TokenPath)
	}

	return NewWithStore(provider, oc, store), nil
}

// NewWithStore builds an authenticator from explicit parts
func NewWithStore(provider domain.Provider, oc *oauth2.Config, store TokenStore) *Authenticator {
	return &Authenticator{provider: provider, config: oc, store: store}
}

func (a *Authenticator) Provider() domain.Provider { return a.provider }

// Config returns the OAuth2 config
func (a *Authenticator) Config() *oauth2.Config { return a.config }

// Store returns where tokens are kept
func (a *Authenticator) Store() TokenStore { return a.store }

func generateRandomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Authenticate runs the paste-the-code authorization flow on in/out and stores the token
func (a *Authenticator) Authenticate(ctx context.Context, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	state, err := generateRandomState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	authURL := a.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Fprintf(out, "\nTo authorize cloudsync to browse %s:\n\n", a.provider.DisplayName())
	fmt.Fprintf(out, "1. Visit this URL:\n   %s\n\n", authURL)
	fmt.Fprintf(out, "2. Sign in and allow access\n\n")
	fmt.Fprintf(out, "3. Paste the code (or the whole address you were redirected to) below\n\n")
	fmt.Fprintf(out, "Authorization code: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return nil, fmt.Errorf("failed to read authorization code: %w", err)
	}

	code, err := extractCode(line, state)
	if err != nil {
		return nil, err
	}

	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if err := a.store.Save(token); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	logger.Component("auth").Info("provider authorized", "provider", a.provider, "store", a.store.Name())
	fmt.Fprintln(out, "\nAuthentication successful! Token saved.")
	return token, nil
}

// extractCode accepts a bare code or the full redirect URL. A URL carrying a
// different state is rejected.
func extractCode(input, state string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("empty authorization code")
	}
	if !strings.Contains(input, "://") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("authorization denied: %s", e)
	}
	if got := q.Get("state"); got != "" && got != state {
		return "", errors.New("authorization state mismatch")
	}
	code := q.Get("code")
	if code == "" {
		return "", errors.New("redirect URL has no code parameter")
	}
	return code, nil
}

// TokenSource returns a source that refreshes the stored token when it expires
// and writes refreshed tokens back to the store
func (a *Authenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	token, err := a.store.Load()
	if errors.Is(err, ErrNoToken) {
		return nil, fmt.Errorf("%w for %s, please run 'cloudsync auth %s' first", ErrNoToken, a.provider.DisplayName(), a.provider)
	}
	if err != nil {
		return nil, err
	}

	return &persistingSource{
		base:  a.config.TokenSource(ctx, token),
		store: a.store,
		last:  token.AccessToken,
	}, nil
}

// Token returns a valid token, refreshing it if needed
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	ts, err := a.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	token, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("token expired and refresh failed, please run 'cloudsync auth %s' to re-authenticate: %w", a.provider, err)
	}
	return token, nil
}

// HTTPClient returns a client that authorizes every request
func (a *Authenticator) HTTPClient(ctx context.Context) (*http.Client, error) {
	ts, err := a.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

// Logout forgets the stored token
func (a *Authenticator) Logout() error {
	return a.store.Delete()
}

type persistingSource struct {
	base  oauth2.TokenSource
	store TokenStore

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken != s.last {
		if err := s.store.Save(token); err != nil {
			logger.Component("auth").Warn("failed to save refreshed token", "error", err)
		}
		s.last = token.AccessToken
	}
	return token, nil
}
