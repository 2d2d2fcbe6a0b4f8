package results

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"vlmscore/pkg/errors"
)

// DefaultErrorLogName is the failure log filename. It lands inside the
// scored directory so the backlog travels with the batch.
const DefaultErrorLogName = "scoring_errors.jsonl"

// ErrorEntry records one image that could not be scored, with enough
// context to retry it later.
type ErrorEntry struct {
	Path   string    `json:"path"`
	Error  string    `json:"error"`
	Type   string    `json:"type"`
	TaskID string    `json:"task_id,omitempty"`
	RunID  string    `json:"run_id,omitempty"`
	Time   time.Time `json:"time"`
}

// ErrorLog appends failure entries to a JSONL file, one object per
// line. Appending preserves earlier runs' failures so a retry pass can
// work through the whole backlog.
type ErrorLog struct {
	path string
}

// NewErrorLog returns a log backed by the given file. The file is only
// created once entries are appended.
func NewErrorLog(path string) *ErrorLog {
	return &ErrorLog{path: path}
}

// Path returns the log file location.
func (l *ErrorLog) Path() string {
	return l.path
}

// Append writes entries to the end of the log. Entries without a
// timestamp get stamped with the current time.
func (l *ErrorLog) Append(entries ...ErrorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(errors.ErrorTypePersistence, "failed to create error log directory", err)
		}
	}

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(errors.ErrorTypePersistence, "failed to open error log", err)
	}

	encoder := json.NewEncoder(file)
	for i := range entries {
		if entries[i].Time.IsZero() {
			entries[i].Time = time.Now().UTC()
		}
		if err := encoder.Encode(&entries[i]); err != nil {
			file.Close()
			return errors.Wrap(errors.ErrorTypePersistence, "failed to write error log entry", err)
		}
	}

	if err := file.Close(); err != nil {
		return errors.Wrap(errors.ErrorTypePersistence, "failed to close error log", err)
	}
	return nil
}

// Load reads all entries from the log. A missing file is an empty
// backlog, not an error. Lines that do not parse are skipped; a crash
// can tear the final line without losing the rest.
func (l *ErrorLog) Load() ([]ErrorEntry, error) {
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrorTypePersistence, "failed to open error log", err)
	}
	defer file.Close()

	var entries []ErrorEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry ErrorEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, errors.Wrap(errors.ErrorTypePersistence, "failed to read error log", err)
	}

	return entries, nil
}
