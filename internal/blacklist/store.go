// Package blacklist persists banned identities in a single JSON document.
package blacklist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"versize/internal/models"
)

// rawLogLimit bounds how much of a corrupt file is copied into the error log.
const rawLogLimit = 4096

// Matcher selects entries for removal.
type Matcher func(models.BlacklistEntry) bool

// ByID matches the surrogate id exactly.
func ByID(id string) Matcher {
	return func(e models.BlacklistEntry) bool { return e.ID == id }
}

// ByStatic matches the static name case-insensitively.
func ByStatic(name string) Matcher {
	return func(e models.BlacklistEntry) bool { return e.MatchesStatic(name) }
}

// ByIDOrStatic matches either the surrogate id or the static name.
func ByIDOrStatic(key string) Matcher {
	key = strings.TrimSpace(key)
	return func(e models.BlacklistEntry) bool { return e.ID == key || e.MatchesStatic(key) }
}

// Store is a file-backed blacklist. Every operation reads the file, applies its
// change and writes the file back while holding the store mutex, so there is no
// in-memory copy that can drift from disk.
type Store struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used by ListActive.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns a store backed by the file at path. The file is created on first load.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted collection. A missing, empty or malformed file is
// replaced with an empty collection; Load never fails.
func (s *Store) Load() models.BlacklistDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save replaces the persisted collection.
func (s *Store) Save(doc models.BlacklistDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(doc)
}

// Add appends an entry. Duplicate static names are allowed.
func (s *Store) Add(entry models.BlacklistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	doc.Items = append(doc.Items, entry)
	return s.save(doc)
}

// Remove deletes every entry the matcher selects and reports whether any was removed.
func (s *Store) Remove(match Matcher) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	kept := doc.Items[:0]
	removed := false
	for _, e := range doc.Items {
		if match(e) {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if !removed {
		return false, nil
	}
	doc.Items = kept
	if err := s.save(doc); err != nil {
		return false, err
	}
	return true, nil
}

// ListActive returns entries that are permanent or not yet expired, in insertion order.
func (s *Store) ListActive() []models.BlacklistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	doc := s.load()
	active := make([]models.BlacklistEntry, 0, len(doc.Items))
	for _, e := range doc.Items {
		if !e.IsExpired(now) {
			active = append(active, e)
		}
	}
	return active
}

// FindActive returns the first active entry whose static name matches.
func (s *Store) FindActive(static string) (models.BlacklistEntry, bool) {
	for _, e := range s.ListActive() {
		if e.MatchesStatic(static) {
			return e, true
		}
	}
	return models.BlacklistEntry{}, false
}

// SweepExpired removes and returns entries whose expiry is at or before now.
// The file is rewritten only when something expired.
func (s *Store) SweepExpired(now time.Time) ([]models.BlacklistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	var expired []models.BlacklistEntry
	kept := make([]models.BlacklistEntry, 0, len(doc.Items))
	for _, e := range doc.Items {
		if e.IsExpired(now) {
			expired = append(expired, e)
			continue
		}
		kept = append(kept, e)
	}
	if len(expired) == 0 {
		return nil, nil
	}
	doc.Items = kept
	if err := s.save(doc); err != nil {
		return nil, err
	}
	return expired, nil
}

func (s *Store) load() models.BlacklistDocument {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Error("blacklist file unreadable, resetting", "path", s.path, "error", err)
		} else {
			slog.Info("blacklist file missing, creating", "path", s.path)
		}
		return s.reset()
	}
	if len(bytes.TrimSpace(data)) == 0 {
		slog.Info("blacklist file empty, initializing", "path", s.path)
		return s.reset()
	}

	doc, err := decode(data)
	if err != nil {
		slog.Error("blacklist file corrupt, resetting to empty",
			"path", s.path,
			"error", err,
			"raw", truncate(data, rawLogLimit),
		)
		return s.reset()
	}
	return doc
}

func decode(data []byte) (models.BlacklistDocument, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return models.BlacklistDocument{}, fmt.Errorf("not a JSON object: %w", err)
	}
	if root == nil {
		return models.BlacklistDocument{}, errors.New("document is null")
	}

	raw, ok := root["items"]
	if !ok {
		return models.BlacklistDocument{}, errors.New("items missing")
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return models.BlacklistDocument{}, errors.New("items is not an array")
	}

	var items []models.BlacklistEntry
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return models.BlacklistDocument{}, fmt.Errorf("malformed entry: %w", err)
	}
	for i := range items {
		if items[i].StaticName == "" {
			items[i].StaticName = items[i].ID
		}
	}
	if items == nil {
		items = []models.BlacklistEntry{}
	}
	return models.BlacklistDocument{Items: items}, nil
}

// reset persists and returns the empty collection.
func (s *Store) reset() models.BlacklistDocument {
	doc := models.BlacklistDocument{Items: []models.BlacklistEntry{}}
	if err := s.save(doc); err != nil {
		slog.Error("failed to write empty blacklist", "path", s.path, "error", err)
	}
	return doc
}

func (s *Store) save(doc models.BlacklistDocument) error {
	if doc.Items == nil {
		doc.Items = []models.BlacklistEntry{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling blacklist: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating blacklist directory: %w", err)
	}

	file, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary blacklist file: %w", err)
	}
	tmp := file.Name()

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing temporary blacklist file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("syncing temporary blacklist file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing temporary blacklist file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing blacklist file: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "…"
}
