package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCredentialManager(t *testing.T) {
	// Use mock manager for reliable testing
	manager, mockStore := NewMockManager()

	// Test storing a profile
	creds := &Credentials{
		Name:     "production",
		Endpoint: "https://vision.example.com/api/v3/chat/completions",
		Token:    "sk-test-token-1234567890abcdef",
		Model:    "vision-scorer-lite",
	}

	err := manager.Store(creds)
	if err != nil {
		t.Errorf("Failed to store profile: %v", err)
	}
	if creds.CreatedAt.IsZero() {
		t.Error("CreatedAt should be stamped on first store")
	}
	if creds.LastUsed.IsZero() {
		t.Error("LastUsed should be stamped on store")
	}

	// Test retrieving the profile
	retrieved, err := manager.Retrieve("production")
	if err != nil {
		t.Errorf("Failed to retrieve profile: %v", err)
	}

	if retrieved.Name != creds.Name {
		t.Errorf("Name mismatch: got %s, want %s", retrieved.Name, creds.Name)
	}
	if retrieved.Endpoint != creds.Endpoint {
		t.Errorf("Endpoint mismatch: got %s, want %s", retrieved.Endpoint, creds.Endpoint)
	}
	if retrieved.Token != creds.Token {
		t.Errorf("Token mismatch: got %s, want %s", retrieved.Token, creds.Token)
	}

	// Test listing profiles
	profiles, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list profiles: %v", err)
	}
	if len(profiles) == 0 {
		t.Error("Expected at least one profile in list")
	}

	// Test sanitization
	sanitized := SanitizeCredentials(creds)
	if sanitized.Token == creds.Token {
		t.Error("Token should be masked")
	}
	if sanitized.Name != creds.Name {
		t.Error("Name should not be masked")
	}
	if sanitized.Endpoint != creds.Endpoint {
		t.Error("Endpoint should not be masked")
	}

	// Test deletion
	err = manager.Delete("production")
	if err != nil {
		t.Errorf("Failed to delete profile: %v", err)
	}

	// Verify deletion
	_, err = manager.Retrieve("production")
	if err == nil {
		t.Error("Expected error retrieving deleted profile")
	}

	// Verify mock store state
	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 profiles after deletion, got %d", mockStore.Count())
	}
}

func TestManagerValidation(t *testing.T) {
	manager, _ := NewMockManager()

	cases := []struct {
		name  string
		creds *Credentials
	}{
		{"missing name", &Credentials{Endpoint: "https://x.example.com", Token: "tok"}},
		{"missing endpoint", &Credentials{Name: "p", Token: "tok"}},
		{"bad endpoint", &Credentials{Name: "p", Endpoint: "not a url", Token: "tok"}},
		{"missing token", &Credentials{Name: "p", Endpoint: "https://x.example.com"}},
	}

	for _, tc := range cases {
		if err := manager.Store(tc.creds); err == nil {
			t.Errorf("%s: expected store to fail", tc.name)
		}
	}
}

func TestListOrdersByLastUsed(t *testing.T) {
	manager, mockStore := NewMockManager()

	old := &Credentials{
		Name:     "older",
		Endpoint: "https://a.example.com",
		Token:    "token-a",
		LastUsed: time.Now().Add(-2 * time.Hour),
	}
	recent := &Credentials{
		Name:     "recent",
		Endpoint: "https://b.example.com",
		Token:    "token-b",
		LastUsed: time.Now(),
	}

	// Bypass manager.Store so the LastUsed stamps stay fixed.
	if err := mockStore.Store(old); err != nil {
		t.Fatal(err)
	}
	if err := mockStore.Store(recent); err != nil {
		t.Fatal(err)
	}

	profiles, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list profiles: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("Expected 2 profiles, got %d", len(profiles))
	}
	if profiles[0].Name != "recent" {
		t.Errorf("Expected most recently used profile first, got %s", profiles[0].Name)
	}

	def, err := manager.RetrieveDefault()
	if err != nil {
		t.Fatalf("Failed to retrieve default profile: %v", err)
	}
	if def.Name != "recent" {
		t.Errorf("Expected default to be the most recently used profile, got %s", def.Name)
	}
}

func TestTouch(t *testing.T) {
	manager, mockStore := NewMockManager()

	creds := &Credentials{
		Name:     "production",
		Endpoint: "https://vision.example.com",
		Token:    "sk-test-token-1234567890",
		LastUsed: time.Now().Add(-time.Hour),
	}
	if err := mockStore.Store(creds); err != nil {
		t.Fatal(err)
	}

	if err := manager.Touch("production"); err != nil {
		t.Fatalf("Failed to touch profile: %v", err)
	}

	touched, err := mockStore.GetProfile("production")
	if err != nil {
		t.Fatal(err)
	}
	if !touched.LastUsed.After(creds.LastUsed) {
		t.Error("Touch should advance LastUsed")
	}
}

func TestMaskToken(t *testing.T) {
	cases := []struct {
		token string
		want  string
	}{
		{"", "***"},
		{"short", "***"},
		{"exactly12chr", "***"},
		{"sk-abcdefgh1234", "sk-abcde***1234"},
		{"sk-abcdefgh12345xyz9", "sk-abcde********xyz9"},
	}

	for _, tc := range cases {
		if got := MaskToken(tc.token); got != tc.want {
			t.Errorf("MaskToken(%q) = %q, want %q", tc.token, got, tc.want)
		}
	}
}

func TestEncryptedFileStore(t *testing.T) {
	// Create a temporary file
	tempFile := filepath.Join(t.TempDir(), "test_creds.enc")

	// Set test passphrase
	os.Setenv("VLMSCORE_PASSPHRASE", "test_passphrase_123")
	defer os.Unsetenv("VLMSCORE_PASSPHRASE")

	// Create store
	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	// Test operations
	creds := &Credentials{
		Name:     "encrypted_profile",
		Endpoint: "https://vision.example.com",
		Token:    "encrypted_secret_token",
	}

	// Store
	err = store.Store(creds)
	if err != nil {
		t.Errorf("Failed to store in encrypted file: %v", err)
	}

	// Retrieve
	retrieved, err := store.Retrieve("encrypted_profile")
	if err != nil {
		t.Errorf("Failed to retrieve from encrypted file: %v", err)
	}

	if retrieved.Token != creds.Token {
		t.Errorf("Token mismatch after encryption/decryption")
	}

	// Verify file is actually encrypted
	fileContent, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatal(err)
	}

	// File should not contain plaintext credentials
	if contains(fileContent, []byte("encrypted_secret_token")) {
		t.Error("File contains plaintext token")
	}
	if contains(fileContent, []byte("vision.example.com")) {
		t.Error("File contains plaintext endpoint")
	}
}

func TestEnvironmentStore(t *testing.T) {
	// Set environment variables
	os.Setenv("VLMSCORE_API_ENDPOINT", "https://env.example.com/api/v3/chat/completions")
	os.Setenv("VLMSCORE_API_TOKEN", "env_token")
	os.Setenv("VLMSCORE_MODEL", "env-model")
	defer os.Unsetenv("VLMSCORE_API_ENDPOINT")
	defer os.Unsetenv("VLMSCORE_API_TOKEN")
	defer os.Unsetenv("VLMSCORE_MODEL")

	store := NewEnvironmentStore()

	// Test retrieve
	creds, err := store.Retrieve("")
	if err != nil {
		t.Errorf("Failed to retrieve from environment: %v", err)
	}

	if creds.Name != "default" {
		t.Errorf("Name mismatch: got %s, want default", creds.Name)
	}
	if creds.Endpoint != "https://env.example.com/api/v3/chat/completions" {
		t.Errorf("Endpoint mismatch: got %s", creds.Endpoint)
	}
	if creds.Token != "env_token" {
		t.Errorf("Token mismatch: got %s, want env_token", creds.Token)
	}
	if creds.Model != "env-model" {
		t.Errorf("Model mismatch: got %s, want env-model", creds.Model)
	}

	// Test that store is not supported
	err = store.Store(&Credentials{})
	if err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}
}

func TestEnvironmentStoreLegacyNames(t *testing.T) {
	os.Setenv("VLM_BATCH_API_ENDPOINT", "https://legacy.example.com")
	os.Setenv("VLM_API_TOKEN", "legacy_token")
	defer os.Unsetenv("VLM_BATCH_API_ENDPOINT")
	defer os.Unsetenv("VLM_API_TOKEN")

	store := NewEnvironmentStore()

	creds, err := store.Retrieve("")
	if err != nil {
		t.Fatalf("Failed to retrieve legacy environment credentials: %v", err)
	}
	if creds.Endpoint != "https://legacy.example.com" {
		t.Errorf("Endpoint mismatch: got %s", creds.Endpoint)
	}
	if creds.Token != "legacy_token" {
		t.Errorf("Token mismatch: got %s", creds.Token)
	}
}

func TestRealManagerWithEncryptedStore(t *testing.T) {
	tempDir := t.TempDir()

	// Set passphrase for testing
	os.Setenv("VLMSCORE_PASSPHRASE", "test_passphrase_real_manager")
	defer os.Unsetenv("VLMSCORE_PASSPHRASE")

	// Create manager with only encrypted file store (most reliable for testing)
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(tempDir, "credentials.enc"))
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	manager := NewMockManagerWithStores(encryptedStore)

	// Test storing a profile
	creds := &Credentials{
		Name:     "real_profile",
		Endpoint: "https://vision.example.com/api/v3/chat/completions",
		Token:    "real_secret_token",
		Model:    "vision-scorer-lite",
	}

	err = manager.Store(creds)
	if err != nil {
		t.Fatalf("Failed to store profile: %v", err)
	}

	// Test listing profiles
	profiles, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list profiles: %v", err)
	}
	if len(profiles) != 1 {
		t.Errorf("Expected 1 profile in list, got %d", len(profiles))
	}

	// Test retrieving the profile
	retrieved, err := manager.Retrieve("real_profile")
	if err != nil {
		t.Fatalf("Failed to retrieve profile: %v", err)
	}

	if retrieved.Name != creds.Name {
		t.Errorf("Name mismatch: got %s, want %s", retrieved.Name, creds.Name)
	}
	if retrieved.Token != creds.Token {
		t.Errorf("Token mismatch: got %s, want %s", retrieved.Token, creds.Token)
	}
}

func TestMockStore(t *testing.T) {
	store := NewMockStore()

	// Test empty store
	profiles, err := store.List()
	if err != nil {
		t.Errorf("Failed to list empty store: %v", err)
	}
	if len(profiles) != 0 {
		t.Errorf("Expected 0 profiles, got %d", len(profiles))
	}

	// Test storing and retrieving
	creds := &Credentials{
		Name:     "mock_profile",
		Endpoint: "https://mock.example.com",
		Token:    "mock_token",
	}

	err = store.Store(creds)
	if err != nil {
		t.Errorf("Failed to store profile: %v", err)
	}

	// Verify count
	if store.Count() != 1 {
		t.Errorf("Expected 1 profile, got %d", store.Count())
	}

	// Test exists
	if !store.Exists("mock_profile") {
		t.Error("Profile should exist")
	}

	// Test error injection
	store.ListError = fmt.Errorf("injected error")
	_, err = store.List()
	if err == nil || err.Error() != "injected error" {
		t.Error("Expected injected error")
	}
}

func contains(data []byte, substr []byte) bool {
	for i := 0; i <= len(data)-len(substr); i++ {
		if string(data[i:i+len(substr)]) == string(substr) {
			return true
		}
	}
	return false
}
