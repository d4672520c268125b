package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/MelParker66/flowerama-vd2026/internal/domain"
	"github.com/MelParker66/flowerama-vd2026/internal/metrics"
)

// OverrideStore keeps manual planned-quantity overrides in memory and
// persists them as one JSON document keyed by product name.
type OverrideStore struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]domain.PlannedEntry
}

// NewOverrideStore returns an empty store that saves to path.
func NewOverrideStore(path string, logger *slog.Logger) *OverrideStore {
	return &OverrideStore{
		path:    path,
		logger:  logger,
		entries: map[string]domain.PlannedEntry{},
	}
}

// LoadOverrideStore reads the document at path. A missing or malformed
// document yields an empty store; loading never fails.
func LoadOverrideStore(path string, logger *slog.Logger) *OverrideStore {
	s := NewOverrideStore(path, logger)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("no overrides file found, starting empty", "path", path)
		} else {
			logger.Error("read overrides failed, starting empty", "path", path, "err", err)
		}
		return s
	}

	entries, err := decodeOverrides(data, logger)
	if err != nil {
		logger.Error("malformed overrides file, starting empty", "path", path, "err", err)
		return s
	}
	s.entries = entries
	logger.Info("planned overrides loaded", "path", path, "count", len(entries))
	return s
}

type storedOverride struct {
	Planned *float64 `json:"planned"`
	Active  *bool    `json:"active"`
}

// decodeOverrides accepts both on-disk shapes: the legacy bare number and the
// current {planned, active} object. Entries in any other shape are dropped.
func decodeOverrides(data []byte, logger *slog.Logger) (map[string]domain.PlannedEntry, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make(map[string]domain.PlannedEntry, len(raw))
	for product, value := range raw {
		value = bytes.TrimSpace(value)
		if len(value) > 0 && value[0] == '{' {
			var so storedOverride
			if err := json.Unmarshal(value, &so); err != nil {
				logger.Warn("skipping unreadable override", "product", product, "err", err)
				continue
			}
			entry := domain.PlannedEntry{Active: true}
			if so.Planned != nil {
				entry.Planned = *so.Planned
			}
			if so.Active != nil {
				entry.Active = *so.Active
			}
			out[product] = entry
			continue
		}

		var legacy float64
		if err := json.Unmarshal(value, &legacy); err != nil {
			logger.Warn("skipping unreadable override", "product", product, "value", string(value))
			continue
		}
		out[product] = domain.PlannedEntry{Planned: legacy, Active: true}
	}
	return out, nil
}

func (s *OverrideStore) Path() string {
	return s.path
}

func (s *OverrideStore) Get(product string) (domain.PlannedEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[product]
	return e, ok
}

func (s *OverrideStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns a copy of every override.
func (s *OverrideStore) Snapshot() map[string]domain.PlannedEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.PlannedEntry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

func (s *OverrideStore) Put(product string, entry domain.PlannedEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[product] = entry
}

// Delete removes an override and reports whether one existed.
func (s *OverrideStore) Delete(product string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[product]; !ok {
		return false
	}
	delete(s.entries, product)
	return true
}

// ReplaceAll swaps the whole override set.
func (s *OverrideStore) ReplaceAll(entries map[string]domain.PlannedEntry) {
	next := make(map[string]domain.PlannedEntry, len(entries))
	for k, v := range entries {
		next[k] = v
	}
	s.mu.Lock()
	s.entries = next
	s.mu.Unlock()
}

// Save writes the whole document to a temp file next to the target and
// renames it into place, so a crash never leaves a truncated file.
func (s *OverrideStore) Save() (err error) {
	defer func() {
		if err != nil {
			metrics.OverrideSaves.WithLabelValues("error").Inc()
			s.logger.Error("save overrides failed", "path", s.path, "err", err)
			return
		}
		metrics.OverrideSaves.WithLabelValues("ok").Inc()
	}()

	s.mu.RLock()
	data, err := json.MarshalIndent(s.entries, "", "  ")
	count := len(s.entries)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode overrides: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write overrides: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync overrides: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close overrides: %w", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod overrides: %w", err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace overrides: %w", err)
	}

	s.logger.Info("planned overrides saved", "path", s.path, "count", count)
	return nil
}
