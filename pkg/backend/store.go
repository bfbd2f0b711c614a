package backend

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	// DefaultOrigin is the compiled-in fallback used when neither the store
	// file nor the environment provides a backend location.
	DefaultOrigin = "http://localhost:8080"

	// EnvBackendURL names the environment variable that overrides
	// DefaultOrigin when no persisted value exists. It is read once at
	// store construction.
	EnvBackendURL = "MERCURY_BACKEND_URL"
)

// Store resolves and updates the backend origin requests are forwarded to.
type Store interface {
	// Read returns the current backend origin. It never fails: when no
	// persisted value is available a fallback is returned instead.
	Read() string

	// Write validates and applies a new backend origin, persisting it for
	// future sessions where the implementation supports persistence.
	Write(url string) error
}

// locationDocument is the on-disk layout of the store file.
type locationDocument struct {
	BackendURL string `json:"backendUrl"`
}

// FileStore persists the backend origin as a JSON document on local disk.
//
// Reads hit the file on every call so that external edits take effect on the
// next request without coordination. Writers are serialized; readers take no
// lock and rely on atomic file replacement for consistency.
type FileStore struct {
	path     string
	fallback string
	logger   *slog.Logger

	// override holds a value that was accepted by Write but could not be
	// persisted. It serves reads for the rest of the session and clears on
	// the next successful persist.
	override atomic.Pointer[string]

	writeMu sync.Mutex
}

// NewFileStore creates a store backed by the JSON document at path. The
// fallback chain is fixed at construction: MERCURY_BACKEND_URL if set,
// otherwise DefaultOrigin.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}

	fallback := DefaultOrigin
	if env := strings.TrimSpace(os.Getenv(EnvBackendURL)); env != "" {
		fallback = env
	}

	return &FileStore{
		path:     path,
		fallback: fallback,
		logger:   logger.With("component", "backend_store"),
	}
}

// Read returns the current backend origin.
//
// Resolution order: session override (set only when a write could not be
// persisted), then the store file, then the fallback captured at
// construction. Storage trouble of any kind degrades to the fallback.
func (s *FileStore) Read() string {
	if v := s.override.Load(); v != nil {
		return *v
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Debug("Backend store file unreadable, using fallback",
				"path", s.path,
				"error", err,
			)
		}
		return s.fallback
	}

	var doc locationDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.logger.Debug("Backend store file malformed, using fallback",
			"path", s.path,
			"error", err,
		)
		return s.fallback
	}

	url := strings.TrimSpace(doc.BackendURL)
	if url == "" {
		return s.fallback
	}
	return url
}

// Write validates url, persists it, and makes it the value returned by
// subsequent reads.
//
// A missing, empty, or whitespace-only url is rejected with ErrEmptyURL and
// the stored value is left untouched. A validation pass that cannot be
// persisted still succeeds: the value is kept in memory for the rest of the
// session and the storage failure is logged, not returned.
func (s *FileStore) Write(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrEmptyURL
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.persist(url); err != nil {
		s.logger.Warn("Backend location not persisted, keeping value for this session",
			"path", s.path,
			"backend_url", url,
			"error", err,
		)
		s.override.Store(&url)
		return nil
	}

	s.override.Store(nil)
	s.logger.Info("Backend location updated",
		"path", s.path,
		"backend_url", url,
	)
	return nil
}

// persist replaces the store file atomically. The document is written to a
// temp file in the same directory and renamed into place, so a concurrent
// Read sees either the old document or the new one, never a prefix.
func (s *FileStore) persist(url string) error {
	raw, err := json.Marshal(locationDocument{BackendURL: url})
	if err != nil {
		return fmt.Errorf("failed to encode backend location: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

// Path returns the location of the store file, for change watching.
func (s *FileStore) Path() string {
	return s.path
}
