package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"

	"github.com/Ning0612/cloudsync/internal/fileutil"
)

// ErrNoToken means the provider was never authorized
var ErrNoToken = errors.New("no stored token")

// TokenStore persists one provider's OAuth2 token
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(token *oauth2.Token) error
	Delete() error
	Name() string
}

// storedToken is the on-disk form of an oauth2.Token
type storedToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
}

func (t storedToken) token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
}

func fromOAuth2Token(t *oauth2.Token) storedToken {
	return storedToken{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
}

func decodeToken(data []byte) (*oauth2.Token, error) {
	var t storedToken
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("invalid stored token: %w", err)
	}
	return t.token(), nil
}

// FileTokenStore keeps the token in a 0600 JSON file
type FileTokenStore struct {
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Name() string { return "file:" + s.path }

func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	return decodeToken(data)
}

// Save writes the token with temp file + rename
func (s *FileTokenStore) Save(token *oauth2.Token) error {
	data, err := json.MarshalIndent(fromOAuth2Token(token), "", "  ")
	if err != nil {
		return err
	}
	if err := fileutil.WriteAtomic(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func (s *FileTokenStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// KeyringService is the OS keyring service tokens are filed under
const KeyringService = "cloudsync"

// KeyringTokenStore keeps the token in the OS keyring, one entry per provider
type KeyringTokenStore struct {
	service string
	user    string
}

func NewKeyringTokenStore(user string) *KeyringTokenStore {
	return &KeyringTokenStore{service: KeyringService, user: user}
}

func (s *KeyringTokenStore) Name() string { return "keyring:" + s.user }

func (s *KeyringTokenStore) Load() (*oauth2.Token, error) {
	secret, err := keyring.Get(s.service, s.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}
	return decodeToken([]byte(secret))
}

func (s *KeyringTokenStore) Save(token *oauth2.Token) error {
	data, err := json.Marshal(fromOAuth2Token(token))
	if err != nil {
		return err
	}
	if err := keyring.Set(s.service, s.user, string(data)); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}

func (s *KeyringTokenStore) Delete() error {
	if err := keyring.Delete(s.service, s.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete keyring entry: %w", err)
	}
	return nil
}
