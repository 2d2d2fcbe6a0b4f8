package auth

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// Credentials is one named endpoint profile: where to send scoring
// requests and the token that authorizes them.
type Credentials struct {
	Name      string    `json:"name"`
	Endpoint  string    `json:"endpoint"`
	Token     string    `json:"token"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
}

// Validate checks that the profile is usable for scoring.
func (c *Credentials) Validate() error {
	if c == nil {
		return ErrInvalidCredentials
	}
	if c.Name == "" {
		return errors.New("profile name is required")
	}
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if parsed, err := url.Parse(c.Endpoint); err != nil || parsed.Host == "" {
		return fmt.Errorf("endpoint is not a valid URL: %s", c.Endpoint)
	}
	if c.Token == "" {
		return errors.New("API token is required")
	}
	return nil
}

// CredentialStore is the interface for storing and retrieving endpoint
// profiles
type CredentialStore interface {
	// Store saves a profile
	Store(creds *Credentials) error

	// Retrieve gets the profile with the given name
	Retrieve(name string) (*Credentials, error)

	// List returns all stored profiles
	List() ([]*Credentials, error)

	// Delete removes the profile with the given name
	Delete(name string) error

	// Exists checks if a profile with the given name exists
	Exists(name string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a new credential manager with appropriate storage backends
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	// Try keyring first (system keychain)
	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	// Always add encrypted file store as fallback
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	// Add environment store as last resort
	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves a profile using the first available store. CreatedAt is
// stamped on first save and LastUsed on every save.
func (m *Manager) Store(creds *Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	now := time.Now()
	if creds.CreatedAt.IsZero() {
		creds.CreatedAt = now
	}
	creds.LastUsed = now

	// Try each store in order
	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(creds); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets the named profile from the first store that has it
func (m *Manager) Retrieve(name string) (*Credentials, error) {
	for _, store := range m.stores {
		if creds, err := store.Retrieve(name); err == nil && creds != nil {
			return creds, nil
		}
	}
	return nil, fmt.Errorf("credentials not found for profile: %s", name)
}

// RetrieveDefault gets the profile a run should use when none is named:
// environment credentials when set, otherwise the most recently used
// stored profile.
func (m *Manager) RetrieveDefault() (*Credentials, error) {
	// Environment wins so existing deployments keep working unchanged.
	if envStore, ok := m.stores[len(m.stores)-1].(*EnvironmentStore); ok {
		if creds, err := envStore.Retrieve(""); err == nil && creds != nil {
			return creds, nil
		}
	}

	profiles, err := m.List()
	if err == nil && len(profiles) > 0 {
		return profiles[0], nil
	}

	return nil, errors.New("no credentials found")
}

// Touch stamps the profile's last-used time. Called when a run starts
// with the profile's credentials.
func (m *Manager) Touch(name string) error {
	creds, err := m.Retrieve(name)
	if err != nil {
		return err
	}
	return m.Store(creds)
}

// List returns all stored profiles from all stores, most recently used
// first. When a profile exists in several stores the freshest copy wins.
func (m *Manager) List() ([]*Credentials, error) {
	profileMap := make(map[string]*Credentials)

	for _, store := range m.stores {
		profiles, err := store.List()
		if err != nil {
			continue
		}
		for _, creds := range profiles {
			if existing, ok := profileMap[creds.Name]; !ok || creds.LastUsed.After(existing.LastUsed) {
				profileMap[creds.Name] = creds
			}
		}
	}

	result := make([]*Credentials, 0, len(profileMap))
	for _, creds := range profileMap {
		result = append(result, creds)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastUsed.Equal(result[j].LastUsed) {
			return result[i].Name < result[j].Name
		}
		return result[i].LastUsed.After(result[j].LastUsed)
	})

	return result, nil
}

// Delete removes the named profile from all stores
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("credentials not found for profile: %s", name)
	}

	return nil
}

// DeleteAll removes all stored profiles
func (m *Manager) DeleteAll() error {
	profiles, err := m.List()
	if err != nil {
		return err
	}

	for _, creds := range profiles {
		_ = m.Delete(creds.Name) // Ignore individual errors
	}

	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "vlmscore")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "vlmscore")
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "vlmscore")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "vlmscore")
		}
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeCredentials creates a copy of the profile with the token masked
func SanitizeCredentials(creds *Credentials) *Credentials {
	if creds == nil {
		return nil
	}

	return &Credentials{
		Name:      creds.Name,
		Endpoint:  creds.Endpoint,
		Token:     MaskToken(creds.Token),
		Model:     creds.Model,
		CreatedAt: creds.CreatedAt,
		LastUsed:  creds.LastUsed,
	}
}

// MaskToken hides the middle of a token, keeping the first 8 and last 4
// characters so a profile can be told apart without exposing the secret.
// Short tokens are masked completely.
func MaskToken(token string) string {
	if len(token) <= 12 {
		return "***"
	}
	return token[:8] + strings.Repeat("*", len(token)-12) + token[len(token)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
