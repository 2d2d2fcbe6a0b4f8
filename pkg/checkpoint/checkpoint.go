package checkpoint

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"vlmscore/pkg/logger"
)

// DefaultAutoSaveInterval is how many newly recorded outcomes trigger an
// automatic save.
const DefaultAutoSaveInterval = 100

// Version is written into every checkpoint file for future compatibility
const Version = "1.0"

// Outcome is the recorded disposition of one identifier
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// Checkpoint is the on-disk state of a scoring run. Timestamps are epoch
// seconds so files written by older tooling stay loadable.
type Checkpoint struct {
	Completed  []string `json:"completed"`
	Failed     []string `json:"failed"`
	TotalFiles int      `json:"total_files"`
	StartTime  float64  `json:"start_time"`
	LastUpdate float64  `json:"last_update"`
	Version    string   `json:"version"`
}

// Manager tracks which identifiers have been processed and persists that
// state atomically. All methods are safe for concurrent use.
type Manager struct {
	checkpointPath   string
	autoSaveInterval int
	logger           logger.Logger

	mu            sync.Mutex
	completed     map[string]struct{}
	failed        map[string]struct{}
	totalFiles    int
	lastSaveCount int
	startTime     time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithAutoSaveInterval sets how many recorded outcomes accumulate before
// an automatic save
func WithAutoSaveInterval(n int) Option {
	return func(m *Manager) {
		m.autoSaveInterval = n
	}
}

// WithLogger sets the manager logger
func WithLogger(log logger.Logger) Option {
	return func(m *Manager) {
		m.logger = log
	}
}

// NewManager creates a checkpoint manager backed by the given file. The
// file lives next to the batch it describes, so a batch moved to another
// machine keeps its progress.
func NewManager(path string, opts ...Option) (*Manager, error) {
	if path == "" {
		return nil, fmt.Errorf("checkpoint file path must not be empty")
	}

	m := &Manager{
		checkpointPath:   path,
		autoSaveInterval: DefaultAutoSaveInterval,
		completed:        make(map[string]struct{}),
		failed:           make(map[string]struct{}),
		startTime:        time.Now(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.autoSaveInterval < 1 {
		m.autoSaveInterval = DefaultAutoSaveInterval
	}
	if m.logger == nil {
		m.logger = logger.GetLogger()
	}

	return m, nil
}

// Path returns the checkpoint file path
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// Load reads the checkpoint file and returns copies of the completed and
// failed sets. A missing file means a fresh start. A corrupt or
// unreadable file is logged and treated the same way; resumability is
// never worth failing the whole batch over.
func (m *Manager) Load() (completed, failed map[string]struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			m.logger.InfoWithFields("No checkpoint found, starting fresh", map[string]interface{}{
				"path": m.checkpointPath,
			})
		} else {
			m.logger.WarnWithFields("Failed to read checkpoint, starting fresh", map[string]interface{}{
				"path":  m.checkpointPath,
				"error": err.Error(),
			})
		}
		return copySet(m.completed), copySet(m.failed)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		m.logger.WarnWithFields("Checkpoint file is corrupt, starting fresh", map[string]interface{}{
			"path":  m.checkpointPath,
			"error": err.Error(),
		})
		return copySet(m.completed), copySet(m.failed)
	}

	m.completed = toSet(cp.Completed)
	m.failed = toSet(cp.Failed)
	m.totalFiles = cp.TotalFiles
	if cp.StartTime > 0 {
		m.startTime = time.UnixMilli(int64(math.Round(cp.StartTime * 1000)))
	}

	fields := map[string]interface{}{
		"path":      m.checkpointPath,
		"completed": len(m.completed),
		"failed":    len(m.failed),
	}
	if m.totalFiles > 0 {
		processed := len(m.completed) + len(m.failed)
		fields["progress"] = fmt.Sprintf("%.1f%%", float64(processed)/float64(m.totalFiles)*100)
	}
	m.logger.InfoWithFields("Checkpoint loaded", fields)

	return copySet(m.completed), copySet(m.failed)
}

// Save persists the current state to disk atomically
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

// saveLocked writes the state to a temporary file and renames it into
// place, so a crash mid-write leaves the previous checkpoint intact.
// Callers must hold m.mu.
func (m *Manager) saveLocked() error {
	cp := Checkpoint{
		Completed:  sortedKeys(m.completed),
		Failed:     sortedKeys(m.failed),
		TotalFiles: m.totalFiles,
		StartTime:  epochSeconds(m.startTime),
		LastUpdate: epochSeconds(time.Now()),
		Version:    Version,
	}

	if dir := filepath.Dir(m.checkpointPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}

	// Create temporary file
	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	// Write checkpoint data
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	// Ensure data is written to disk
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	// Atomically replace the old checkpoint file
	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"path":      m.checkpointPath,
		"completed": len(cp.Completed),
		"failed":    len(cp.Failed),
	})

	return nil
}

// Record notes the outcome for one identifier. A completed identifier is
// removed from the failed set and vice versa, so the two sets never
// overlap. With autoSave enabled, the state is persisted once enough new
// outcomes have accumulated since the last save.
func (m *Manager) Record(identifier string, outcome Outcome, autoSave bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch outcome {
	case OutcomeCompleted:
		m.completed[identifier] = struct{}{}
		delete(m.failed, identifier)
	case OutcomeFailed:
		m.failed[identifier] = struct{}{}
		delete(m.completed, identifier)
	default:
		return fmt.Errorf("unknown checkpoint outcome %q", outcome)
	}

	if !autoSave {
		return nil
	}

	processed := len(m.completed) + len(m.failed)
	if processed-m.lastSaveCount >= m.autoSaveInterval {
		if err := m.saveLocked(); err != nil {
			return err
		}
		m.lastSaveCount = processed
	}

	return nil
}

// ShouldSkip reports whether an identifier already completed in an
// earlier run. Failed identifiers are not skipped; they get retried.
func (m *Manager) ShouldSkip(identifier string, forceRerun bool) bool {
	if forceRerun {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.completed[identifier]
	return ok
}

// IsFailed reports whether an identifier failed in an earlier run
func (m *Manager) IsFailed(identifier string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.failed[identifier]
	return ok
}

// SetTotalFiles records the size of the batch for progress reporting
func (m *Manager) SetTotalFiles(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalFiles = n
}

// Clear removes the checkpoint file and resets all in-memory state
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.completed = make(map[string]struct{})
	m.failed = make(map[string]struct{})
	m.totalFiles = 0
	m.lastSaveCount = 0
	m.startTime = time.Now()

	m.logger.Info("Checkpoint cleared")
	return nil
}

func copySet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, item := range items {
		out[item] = struct{}{}
	}
	return out
}

func sortedKeys(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000.0
}
