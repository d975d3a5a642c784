package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Settings are the user-facing preferences persisted next to the database.
type Settings struct {
	LockEnabled    bool   `yaml:"lock_enabled" json:"lock_enabled"`
	Theme          string `yaml:"theme" json:"theme"`
	PresetsHours   []int  `yaml:"presets_hours" json:"presets_hours"`
	SliderMinHours int    `yaml:"slider_min_hours" json:"slider_min_hours"`
	SliderMaxHours int    `yaml:"slider_max_hours" json:"slider_max_hours"`
	DefaultHours   int    `yaml:"default_hours" json:"default_hours"`
	MaxTextLength  int    `yaml:"max_text_length" json:"max_text_length"`
}

var themes = []string{"system", "light", "dark"}

func DefaultSettings() Settings {
	return Settings{
		Theme:          "system",
		PresetsHours:   []int{1, 6, 24, 72, 168},
		SliderMinHours: 1,
		SliderMaxHours: 168,
		DefaultHours:   24,
		MaxTextLength:  10000,
	}
}

// Normalize fills unset fields from the defaults and repairs inverted slider bounds.
func (s Settings) Normalize() Settings {
	def := DefaultSettings()
	if !slices.Contains(themes, s.Theme) {
		s.Theme = def.Theme
	}
	if len(s.PresetsHours) == 0 {
		s.PresetsHours = def.PresetsHours
	}
	if s.SliderMinHours <= 0 {
		s.SliderMinHours = def.SliderMinHours
	}
	if s.SliderMaxHours <= 0 {
		s.SliderMaxHours = def.SliderMaxHours
	}
	if s.SliderMinHours > s.SliderMaxHours {
		s.SliderMinHours, s.SliderMaxHours = s.SliderMaxHours, s.SliderMinHours
	}
	if s.DefaultHours < s.SliderMinHours || s.DefaultHours > s.SliderMaxHours {
		s.DefaultHours = min(max(def.DefaultHours, s.SliderMinHours), s.SliderMaxHours)
	}
	if s.MaxTextLength <= 0 {
		s.MaxTextLength = def.MaxTextLength
	}
	return s
}

func (s Settings) MinDuration() time.Duration { return time.Duration(s.SliderMinHours) * time.Hour }

func (s Settings) MaxDuration() time.Duration { return time.Duration(s.SliderMaxHours) * time.Hour }

func (s Settings) DefaultDuration() time.Duration { return time.Duration(s.DefaultHours) * time.Hour }

func ParseSettings(data []byte) (Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return s.Normalize(), nil
}

// LoadSettings reads path; a missing file yields the defaults.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return ParseSettings(data)
}

// SettingsStore keeps the current settings and persists changes to a YAML file.
type SettingsStore struct {
	path   string
	logger *slog.Logger

	mu  sync.Mutex
	cur atomic.Pointer[Settings]
}

func NewSettingsStore(path string, logger *slog.Logger) (*SettingsStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SettingsStore{path: path, logger: logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SettingsStore) Current() Settings {
	return *s.cur.Load()
}

func (s *SettingsStore) Reload() error {
	next, err := LoadSettings(s.path)
	if err != nil {
		return err
	}
	s.cur.Store(&next)
	return nil
}

// Save writes next through a temp file and rename so readers never see a partial file.
func (s *SettingsStore) Save(next Settings) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next = next.Normalize()
	data, err := yaml.Marshal(next)
	if err != nil {
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}

	s.cur.Store(&next)
	return next, nil
}

// Watch reloads the settings whenever the file changes on disk until ctx is done.
// The parent directory is watched because Save replaces the file by rename.
func (s *SettingsStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch settings dir: %w", err)
	}

	name := filepath.Base(s.path)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(event.Name) != name {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := s.Reload(); err != nil {
					s.logger.Warn("settings reload failed", "path", s.path, "error", err)
					continue
				}
				s.logger.Debug("settings reloaded", "path", s.path)
			case wErr, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				s.logger.Error("settings watcher error", "error", wErr)
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("settings watcher panic", "error", err)
	}))
	return nil
}
