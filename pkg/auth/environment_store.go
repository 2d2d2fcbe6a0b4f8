package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment
// variables. It reads the same names the configuration layer honors, so
// deployments driven entirely by the environment need no stored profile.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(name string) (*Credentials, error) {
	endpoint := firstEnv("VLMSCORE_API_ENDPOINT", "VLM_BATCH_API_ENDPOINT")
	token := firstEnv("VLMSCORE_API_TOKEN", "VLM_API_TOKEN")
	model := firstEnv("VLMSCORE_MODEL", "VLM_BATCH_MODEL_NAME")

	if endpoint == "" || token == "" {
		return nil, ErrCredentialsNotFound
	}

	// Environment variables carry no profile name, so we use "default"
	// or the requested one
	if name == "" {
		name = "default"
	}

	return &Credentials{
		Name:     name,
		Endpoint: endpoint,
		Token:    token,
		Model:    model,
		LastUsed: time.Now(),
	}, nil
}

// List returns a single profile if environment variables are set
func (e *EnvironmentStore) List() ([]*Credentials, error) {
	creds, err := e.Retrieve("")
	if err != nil {
		return []*Credentials{}, nil
	}
	return []*Credentials{creds}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	endpoint := firstEnv("VLMSCORE_API_ENDPOINT", "VLM_BATCH_API_ENDPOINT")
	token := firstEnv("VLMSCORE_API_TOKEN", "VLM_API_TOKEN")
	return endpoint != "" && token != ""
}

// firstEnv returns the first non-empty value among the named variables.
func firstEnv(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}
