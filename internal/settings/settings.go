// Package settings manages the small runtime-editable settings file shared
// by the scheduler and the dashboard. Unlike process configuration, these
// values may change while the daemon runs; they are re-read on every access
// and take effect on the next schedule rebuild.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/darkmind/darkmind/pkg/logging"
)

const (
	// DefaultMaxVideosPerDay applies when no settings file exists.
	DefaultMaxVideosPerDay = 4
	minVideosPerDay        = 1
	maxVideosPerDay        = 20
)

// Settings are the user-editable knobs.
type Settings struct {
	MaxVideosPerDay int `json:"max_videos_per_day"`
}

// Clamp forces all values into their allowed ranges.
func (s *Settings) Clamp() {
	if s.MaxVideosPerDay < minVideosPerDay {
		s.MaxVideosPerDay = minVideosPerDay
	}
	if s.MaxVideosPerDay > maxVideosPerDay {
		s.MaxVideosPerDay = maxVideosPerDay
	}
}

// Store reads and writes the settings file.
type Store struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewStore creates a settings store over the given file path.
func NewStore(path string) *Store {
	return &Store{
		path:   path,
		logger: logging.WithComponent("settings"),
	}
}

// Load reads the settings file, falling back to defaults when the file is
// missing or unreadable. Never fails: scheduling must not block on a bad
// settings file.
func (s *Store) Load() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := Settings{MaxVideosPerDay: DefaultMaxVideosPerDay}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read settings file, using defaults",
				zap.String("path", s.path), zap.Error(err))
		}
		return settings
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		s.logger.Warn("Malformed settings file, using defaults",
			zap.String("path", s.path), zap.Error(err))
		return Settings{MaxVideosPerDay: DefaultMaxVideosPerDay}
	}

	settings.Clamp()
	return settings
}

// Save writes the settings file atomically (write temp, rename).
func (s *Store) Save(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings.Clamp()

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}

// MaxVideosPerDay is a convenience accessor for the daily cap.
func (s *Store) MaxVideosPerDay() int {
	return s.Load().MaxVideosPerDay
}
