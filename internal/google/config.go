package google

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultRedirectURL is used when no redirect URI is configured anywhere.
// It matches the authorization listener's default address.
const DefaultRedirectURL = "http://localhost:3000/google/callback"

// ClientConfig is the application's own registered OAuth client. It is loaded
// once at startup and shared read-only by every credential record's client.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// clientSecretFile mirrors the JSON Google hands out for web application
// clients ("Download JSON" in the cloud console).
type clientSecretFile struct {
	Web struct {
		ClientID     string   `json:"client_id"`
		ClientSecret string   `json:"client_secret"`
		RedirectURIs []string `json:"redirect_uris"`
	} `json:"web"`
}

// LoadClientConfig resolves the application OAuth client credentials.
//
// Lookup order: a client secret JSON file (path from
// GOOGLE_CLIENT_SECRET_FILE, else the first client_secret*.json in the
// current directory), then GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET /
// GOOGLE_REDIRECT_URI environment variables. A .env file is honored when
// present.
func LoadClientConfig() (*ClientConfig, error) {
	// Best effort; absence of a .env file is the normal case.
	_ = godotenv.Load()

	if cfg, ok := loadFromSecretFile(); ok {
		return cfg, nil
	}

	cfg := &ClientConfig{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URI"),
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = DefaultRedirectURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromSecretFile() (*ClientConfig, bool) {
	path := os.Getenv("GOOGLE_CLIENT_SECRET_FILE")
	if path == "" {
		matches, _ := filepath.Glob("client_secret*.json")
		if len(matches) == 0 {
			return nil, false
		}
		path = matches[0]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var secret clientSecretFile
	if err := json.Unmarshal(data, &secret); err != nil {
		return nil, false
	}
	if secret.Web.ClientID == "" || secret.Web.ClientSecret == "" {
		return nil, false
	}

	cfg := &ClientConfig{
		ClientID:     secret.Web.ClientID,
		ClientSecret: secret.Web.ClientSecret,
		RedirectURL:  DefaultRedirectURL,
	}
	if len(secret.Web.RedirectURIs) > 0 {
		cfg.RedirectURL = secret.Web.RedirectURIs[0]
	}
	return cfg, true
}

// Validate checks that the configuration is usable for an authorization flow.
func (c *ClientConfig) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("missing Google OAuth client credentials: set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET, or provide a client secret JSON file")
	}
	return nil
}

// OAuthConfig builds the oauth2 configuration for this client.
func (c *ClientConfig) OAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       DefaultOAuthScopes,
	}
}
