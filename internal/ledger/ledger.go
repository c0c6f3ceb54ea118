// Package ledger persists the set of conversation IDs that have already been
// deleted, so repeated runs skip them. The file is append-only JSON lines:
// one small object per deletion, written and synced before the loop moves on.
package ledger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Entry is one recorded deletion.
type Entry struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run,omitempty"`
	DeletedAt time.Time `json:"deletedAt"`
}

// Ledger owns the record file for the lifetime of a run. It is not safe for
// concurrent use; the deletion loop is single-threaded by design and
// concurrent processes against the same file are unsupported.
type Ledger struct {
	path string
	file *os.File
	ids  map[string]struct{}
}

// Open reads the record at path, creating it if absent, and leaves the file
// open for appending. A truncated final line (an interrupted earlier run) is
// tolerated and skipped. The legacy whole-file JSON array format written by
// the earlier script is detected and migrated to line format.
func Open(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	l := &Ledger{path: path, ids: make(map[string]struct{})}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := l.migrateLegacy(trimmed); err != nil {
			return nil, err
		}
	} else if len(trimmed) > 0 {
		l.loadLines(data)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger for append: %w", err)
	}
	l.file = f
	return l, nil
}

// loadLines parses one entry per line. Lines that do not parse are skipped
// rather than failing the load; the only expected cause is a write cut short
// by a crash, which can only affect the final line.
func (l *Ledger) loadLines(data []byte) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		if e.ID != "" {
			l.ids[e.ID] = struct{}{}
		}
	}
}

// migrateLegacy rewrites a legacy ["id", ...] array file in line format. The
// original file is replaced atomically via a rename.
func (l *Ledger) migrateLegacy(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("failed to parse legacy ledger: %w", err)
	}

	tmp := l.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create migration file: %w", err)
	}

	now := time.Now().UTC()
	for _, id := range ids {
		if id == "" {
			continue
		}
		l.ids[id] = struct{}{}
		line, err := json.Marshal(Entry{ID: id, DeletedAt: now})
		if err != nil {
			f.Close()
			return fmt.Errorf("failed to encode legacy entry: %w", err)
		}
		if _, err := f.Write(append(line, '\n')); err != nil {
			f.Close()
			return fmt.Errorf("failed to write migration file: %w", err)
		}
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync migration file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close migration file: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("failed to replace legacy ledger: %w", err)
	}
	return nil
}

// Contains reports whether id has already been recorded as deleted.
func (l *Ledger) Contains(id string) bool {
	_, ok := l.ids[id]
	return ok
}

// Record appends id to the file and syncs before returning, so a crash after
// Record never loses a confirmed deletion. Recording an id twice is a no-op.
func (l *Ledger) Record(id, runID string) error {
	if id == "" {
		return fmt.Errorf("conversation id must not be empty")
	}
	if l.Contains(id) {
		return nil
	}

	line, err := json.Marshal(Entry{ID: id, RunID: runID, DeletedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode ledger entry: %w", err)
	}
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync ledger: %w", err)
	}

	l.ids[id] = struct{}{}
	return nil
}

// Len returns the number of recorded deletions.
func (l *Ledger) Len() int {
	return len(l.ids)
}

// Close releases the underlying file. The ledger must not be used afterwards.
func (l *Ledger) Close() error {
	return l.file.Close()
}
