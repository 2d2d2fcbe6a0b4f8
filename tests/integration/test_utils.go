package integration

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vlmscore/pkg/config"
	"vlmscore/pkg/logger"
	"vlmscore/pkg/results"
	"vlmscore/pkg/ui"
)

// TestHelper provides common test utilities
type TestHelper struct {
	t            *testing.T
	mockServer   *MockVLMServer
	tempDir      string
	cleanupFuncs []func()
}

// NewTestHelper creates a new test helper. Terminal output is silenced
// for the duration of the test so scorer runs don't spam the test log.
func NewTestHelper(t *testing.T) *TestHelper {
	ui.SetQuietMode(true)

	return &TestHelper{
		t:            t,
		tempDir:      t.TempDir(),
		cleanupFuncs: []func(){func() { ui.SetQuietMode(false) }},
	}
}

// SetupMockServer initializes the mock scoring endpoint
func (h *TestHelper) SetupMockServer() *MockVLMServer {
	h.mockServer = NewMockVLMServer()
	h.AddCleanup(h.mockServer.Close)
	return h.mockServer
}

// GetTempDir returns the temporary directory for test files
func (h *TestHelper) GetTempDir() string {
	return h.tempDir
}

// CreateTempSubDir creates a subdirectory in the temp directory
func (h *TestHelper) CreateTempSubDir(name string) string {
	dir := filepath.Join(h.tempDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		h.t.Fatalf("Failed to create temp subdir: %v", err)
	}
	return dir
}

// AddCleanup adds a cleanup function to be called when the test ends
func (h *TestHelper) AddCleanup(fn func()) {
	h.cleanupFuncs = append(h.cleanupFuncs, fn)
}

// Cleanup runs all cleanup functions
func (h *TestHelper) Cleanup() {
	for i := len(h.cleanupFuncs) - 1; i >= 0; i-- {
		h.cleanupFuncs[i]()
	}
}

// CreateTestLogger creates a test logger
func (h *TestHelper) CreateTestLogger() logger.Logger {
	return logger.NewTestLogger()
}

// CreateTestConfig creates a configuration pointing at the mock server,
// tuned for fast test runs. SetupMockServer must be called first.
func (h *TestHelper) CreateTestConfig() *config.Config {
	cfg := config.DefaultConfig()

	if h.mockServer != nil {
		cfg.API.Endpoint = h.mockServer.URL()
	}
	cfg.API.Token = "test-token-integration"
	cfg.API.Model = "mock-vlm-32k"
	cfg.API.MaxTokens = 512
	cfg.API.Temperature = 0.1
	cfg.API.Detail = "low"
	cfg.API.RequestTimeout = config.Duration(10 * time.Second)

	cfg.Pool.MaxConcurrent = 4
	cfg.Pool.TaskTimeout = config.Duration(30 * time.Second)
	cfg.Pool.WaitPollInterval = config.Duration(20 * time.Millisecond)

	// Save after every completion so interrupted runs keep their progress
	cfg.Checkpoint.AutoSaveInterval = 1

	cfg.RateLimit.RequestsPerMinute = 6000
	cfg.RateLimit.BurstSize = 100

	cfg.Retry.MaxAttempts = 3
	cfg.Retry.InitialDelay = config.Duration(50 * time.Millisecond)
	cfg.Retry.MaxDelay = config.Duration(500 * time.Millisecond)
	cfg.Retry.BackoffMultiplier = 2.0

	cfg.Output.BaseDirectory = h.CreateTempSubDir("output")

	cfg.Logging.Level = "error"

	cfg.UI.Mode = "none"
	cfg.UI.ProgressInterval = 0
	cfg.UI.Notifications = false

	return cfg
}

// NewStore creates a result store over the test configuration's output
// settings
func (h *TestHelper) NewStore(cfg *config.Config) *results.Store {
	return results.NewStore(&cfg.Output, logger.NewTestLogger())
}

// WriteTestImage writes a w-by-h gradient JPEG at path
func (h *TestHelper) WriteTestImage(path string, w, hgt int) {
	h.t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, hgt))
	for y := 0; y < hgt; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		h.t.Fatalf("Failed to encode test image: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		h.t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		h.t.Fatalf("Failed to write test image: %v", err)
	}
}

// CreateImageDir creates a directory holding count scoreable JPEGs and
// returns its path
func (h *TestHelper) CreateImageDir(name string, count int) string {
	dir := h.CreateTempSubDir(name)
	for i := 0; i < count; i++ {
		h.WriteTestImage(filepath.Join(dir, fmt.Sprintf("img_%03d.jpg", i)), 256, 256)
	}
	return dir
}

// AssertFileExists checks if a file exists
func (h *TestHelper) AssertFileExists(path string) {
	h.t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		h.t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does not exist
func (h *TestHelper) AssertFileNotExists(path string) {
	h.t.Helper()
	if _, err := os.Stat(path); err == nil {
		h.t.Errorf("Expected file to not exist: %s", path)
	}
}

// AssertNoError fails the test if err is not nil
func (h *TestHelper) AssertNoError(err error) {
	h.t.Helper()
	if err != nil {
		h.t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func (h *TestHelper) AssertError(err error) {
	h.t.Helper()
	if err == nil {
		h.t.Fatal("Expected error but got nil")
	}
}

// CountSidecars returns how many images under dir have a result sidecar
func (h *TestHelper) CountSidecars(cfg *config.Config, dir string) int {
	return len(h.NewStore(cfg).FindSidecars(dir))
}
