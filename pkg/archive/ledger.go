package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"ytcarchiver/pkg/errors"
	"ytcarchiver/pkg/logger"
)

// Ledger is the durable record of exported posts. Keys are zero-padded
// sequence numbers, values are post ids. A post id appearing anywhere
// among the values means the post was already exported.
type Ledger struct {
	path    string
	entries map[string]string
	dirty   bool
	mu      sync.Mutex
	logger  logger.Logger
}

// Load reads the ledger at path, creating an empty one if the file
// does not exist. An existing but unreadable ledger is an error: a
// corrupt record must never be silently replaced.
func Load(path string, log logger.Logger) (*Ledger, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	l := &Ledger{
		path:    path,
		entries: make(map[string]string),
		logger:  log,
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.DebugWithFields("no existing archive, starting fresh", map[string]interface{}{
				"path": path,
			})
			return l, nil
		}
		return nil, &errors.Error{
			Type:    errors.ErrorTypeLedger,
			Message: fmt.Sprintf("failed to read archive %s: %v", path, err),
		}
	}

	if err := json.Unmarshal(content, &l.entries); err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeLedger,
			Message: fmt.Sprintf("failed to parse archive %s: %v", path, err),
		}
	}

	log.InfoWithFields("archive loaded", map[string]interface{}{
		"path":    path,
		"entries": len(l.entries),
	})

	return l, nil
}

// Path returns the file the ledger persists to
func (l *Ledger) Path() string {
	return l.path
}

// Len returns the number of recorded posts
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Contains reports whether the post id was already exported
func (l *Ledger) Contains(postID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range l.entries {
		if id == postID {
			return true
		}
	}
	return false
}

// NextSequence returns one past the highest recorded sequence number,
// or 1 for an empty ledger. Gaps left by deleted entries are never
// reused.
func (l *Ledger) NextSequence() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	highest := 0
	for key := range l.entries {
		n, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest + 1
}

// Record registers a post id under the given sequence number
func (l *Ledger) Record(sequence int, postID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[SequenceKey(sequence)] = postID
	l.dirty = true
}

// Entries returns a copy of the ledger contents sorted by key
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]Entry, 0, len(l.entries))
	for key, id := range l.entries {
		result = append(result, Entry{Sequence: key, PostID: id})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Sequence < result[j].Sequence
	})
	return result
}

// Entry is one recorded export
type Entry struct {
	Sequence string
	PostID   string
}

// Persist writes the full ledger to disk atomically. The in-memory
// state is kept either way so a later Persist can succeed.
func (l *Ledger) Persist() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.dirty {
		return nil
	}

	content, err := json.MarshalIndent(l.entries, "", "    ")
	if err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeLedger,
			Message: fmt.Sprintf("failed to encode archive: %v", err),
		}
	}

	dir := filepath.Dir(l.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &errors.Error{
				Type:    errors.ErrorTypeLedger,
				Message: fmt.Sprintf("failed to create archive directory: %v", err),
			}
		}
	}

	tempFile := l.path + ".tmp"
	if err := os.WriteFile(tempFile, content, 0644); err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeLedger,
			Message: fmt.Sprintf("failed to write archive: %v", err),
		}
	}

	if err := os.Rename(tempFile, l.path); err != nil {
		os.Remove(tempFile)
		return &errors.Error{
			Type:    errors.ErrorTypeLedger,
			Message: fmt.Sprintf("failed to replace archive: %v", err),
		}
	}

	l.dirty = false

	l.logger.DebugWithFields("archive persisted", map[string]interface{}{
		"path":    l.path,
		"entries": len(l.entries),
	})

	return nil
}

// SequenceKey formats a sequence number as a zero-padded ledger key
func SequenceKey(sequence int) string {
	return fmt.Sprintf("%04d", sequence)
}
