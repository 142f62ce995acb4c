// internal/knowledge/store.go
package knowledge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"lubebot/internal/common/logger"
)

// Store loads named knowledge bundles from JSON files. Every rule vocabulary
// in the pipeline (intent keywords, brand/model lists, certification tables,
// templates) lives here as data so it can grow without code changes.
//
// Loads are soft-fail: a missing or corrupt bundle returns nil and the request
// degrades instead of aborting.
type Store struct {
	dir    string
	ttl    time.Duration
	logger logger.Logger

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	data      json.RawMessage
	expiresAt time.Time
}

func NewStore(dir string, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		dir:     dir,
		ttl:     ttl,
		logger:  log.WithFields(map[string]interface{}{"component": "knowledge"}),
		entries: make(map[string]cacheEntry),
	}
}

// LoadNamed returns the raw JSON content of a named bundle, or nil when the
// bundle is missing, unreadable, or not valid JSON. Names may use "/" for one
// level of grouping (e.g. "category_specs/coolant").
func (s *Store) LoadNamed(name string) json.RawMessage {
	if !validName(name) {
		s.logger.Warn("rejected knowledge bundle name", map[string]interface{}{"name": name})
		return nil
	}

	s.mu.RLock()
	entry, ok := s.entries[name]
	s.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.data
	}

	path := filepath.Join(s.dir, filepath.FromSlash(name)+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("knowledge bundle not loadable", map[string]interface{}{
			"name":  name,
			"error": err.Error(),
		})
		return nil
	}

	if !json.Valid(raw) {
		s.logger.Warn("knowledge bundle is not valid JSON", map[string]interface{}{"name": name})
		return nil
	}

	data := json.RawMessage(raw)
	s.mu.Lock()
	s.entries[name] = cacheEntry{data: data, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	return data
}

// DecodeNamed unmarshals a named bundle into v. Returns false when the bundle
// is absent or does not decode.
func (s *Store) DecodeNamed(name string, v interface{}) bool {
	raw := s.LoadNamed(name)
	if raw == nil {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.logger.Warn("knowledge bundle decode failed", map[string]interface{}{
			"name":  name,
			"error": err.Error(),
		})
		return false
	}
	return true
}

// Invalidate drops a cached bundle so the next load re-reads the file.
func (s *Store) Invalidate(name string) {
	s.mu.Lock()
	delete(s.entries, name)
	s.mu.Unlock()
}

func validName(name string) bool {
	if name == "" || strings.Contains(name, "..") || strings.HasPrefix(name, "/") {
		return false
	}
	for _, r := range name {
		if !(r == '/' || r == '_' || r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
