package results

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"vlmscore/pkg/config"
	"vlmscore/pkg/errors"
	"vlmscore/pkg/imaging"
	"vlmscore/pkg/logger"
)

// Store reads and writes score sidecars. A sidecar lives next to its
// image with the image extension replaced by the configured suffix, so
// photo.jpg scores into photo.json and a later run can find and skip it.
// Existing result trees use this layout, which keeps resumes working
// over results produced by earlier versions.
//
// Store is safe for concurrent use; scoring workers save results in
// parallel.
type Store struct {
	suffix    string
	overwrite bool
	logger    logger.Logger

	// seen caches sidecar paths known to exist so the skip pass does
	// not stat the same file twice.
	mu   sync.RWMutex
	seen map[string]bool
}

// NewStore creates a sidecar store from output configuration. A nil
// config or logger falls back to defaults.
func NewStore(cfg *config.OutputConfig, log logger.Logger) *Store {
	if log == nil {
		log = logger.GetLogger()
	}

	suffix := ".json"
	overwrite := false
	if cfg != nil {
		if cfg.SidecarSuffix != "" {
			suffix = cfg.SidecarSuffix
		}
		overwrite = cfg.OverwriteExisting
	}

	return &Store{
		suffix:    suffix,
		overwrite: overwrite,
		logger:    log,
		seen:      make(map[string]bool),
	}
}

// SetOverwrite toggles replacing existing sidecars. A forced re-run
// enables it regardless of configuration.
func (s *Store) SetOverwrite(overwrite bool) {
	s.overwrite = overwrite
}

// SidecarPath returns the result path for an image: the image extension
// replaced by the sidecar suffix.
func (s *Store) SidecarPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + s.suffix
}

// Save writes the result next to its image. The write goes through a
// temporary file and a rename, so a crash mid-write never leaves a
// truncated sidecar. Unless overwrite is enabled, an existing sidecar
// is an error.
func (s *Store) Save(result *ScoreResult) error {
	if result == nil || result.Path == "" {
		return errors.New(errors.ErrorTypeValidation, "result has no image path")
	}
	path := s.SidecarPath(result.Path)

	if !s.overwrite && s.Exists(result.Path) {
		return errors.New(errors.ErrorTypePersistence,
			fmt.Sprintf("result already exists: %s", path))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrorTypePersistence, "failed to create result directory", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrorTypePersistence, "failed to marshal result", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return errors.Wrap(errors.ErrorTypePersistence, "failed to write result file", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath) // Clean up temp file
		return errors.Wrap(errors.ErrorTypePersistence, "failed to replace result file", err)
	}

	s.mu.Lock()
	s.seen[path] = true
	s.mu.Unlock()

	s.logger.DebugWithFields("result saved", map[string]interface{}{
		"image": result.Path,
		"path":  path,
		"score": result.Score,
	})

	return nil
}

// Load reads the sidecar for an image. Results written without a path
// field get it backfilled from the image location.
func (s *Store) Load(imagePath string) (*ScoreResult, error) {
	path := s.SidecarPath(imagePath)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypePersistence,
			fmt.Sprintf("failed to read result %s", path), err)
	}

	var result ScoreResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeParsing,
			fmt.Sprintf("failed to parse result %s", path), err)
	}

	if result.Path == "" {
		result.Path = imagePath
	}

	return &result, nil
}

// Exists reports whether the image already has a sidecar.
func (s *Store) Exists(imagePath string) bool {
	path := s.SidecarPath(imagePath)

	s.mu.RLock()
	known := s.seen[path]
	s.mu.RUnlock()
	if known {
		return true
	}

	if _, err := os.Stat(path); err != nil {
		return false
	}

	s.mu.Lock()
	s.seen[path] = true
	s.mu.Unlock()
	return true
}

// FindResults loads the sidecar of every already-scored image under
// root. Unreadable sidecars are skipped with a warning so one corrupt
// file does not sink a whole report.
func (s *Store) FindResults(root string) []*ScoreResult {
	var loaded []*ScoreResult

	for _, imagePath := range imaging.FindImages(root) {
		if !s.Exists(imagePath) {
			continue
		}
		result, err := s.Load(imagePath)
		if err != nil {
			s.logger.WarnWithFields("skipping unreadable result", map[string]interface{}{
				"image": imagePath,
				"error": err.Error(),
			})
			continue
		}
		loaded = append(loaded, result)
	}

	return loaded
}

// FindSidecars collects every sidecar file under root, sorted, whether
// or not it parses. Validation reports need the broken ones too.
func (s *Store) FindSidecars(root string) []string {
	var sidecars []string

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if strings.HasSuffix(d.Name(), s.suffix) {
			sidecars = append(sidecars, path)
		}
		return nil
	})

	sort.Strings(sidecars)
	return sidecars
}

// CleanOrphaned removes sidecars under root whose image is gone and
// returns how many were removed. Only files that look like score
// results are touched; other JSON sharing the tree is left alone, as
// are hidden files such as checkpoints.
func (s *Store) CleanOrphaned(root string) (int, error) {
	imageStems := make(map[string]bool)
	for _, imagePath := range imaging.FindImages(root) {
		imageStems[strings.TrimSuffix(imagePath, filepath.Ext(imagePath))] = true
	}

	removed := 0
	for _, sidecarPath := range s.FindSidecars(root) {
		stem := strings.TrimSuffix(sidecarPath, s.suffix)
		if imageStems[stem] {
			continue
		}

		data, err := os.ReadFile(sidecarPath)
		if err != nil || !looksLikeResult(data) {
			continue
		}

		if err := os.Remove(sidecarPath); err != nil {
			return removed, errors.Wrap(errors.ErrorTypePersistence,
				fmt.Sprintf("failed to remove orphaned result %s", sidecarPath), err)
		}

		s.mu.Lock()
		delete(s.seen, sidecarPath)
		s.mu.Unlock()

		removed++
		s.logger.InfoWithFields("removed orphaned result", map[string]interface{}{
			"path": sidecarPath,
		})
	}

	return removed, nil
}

// looksLikeResult guards orphan deletion: only JSON objects carrying
// the verdict's required keys are treated as sidecars.
func looksLikeResult(data []byte) bool {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return false
	}
	_, hasScore := raw["score"]
	_, hasFeedback := raw["feedback"]
	return hasScore && hasFeedback
}
