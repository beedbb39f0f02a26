package settings

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	ViewTable = "table"
	ViewGrid  = "grid"
)

// Settings are the user-facing UI preferences. They are loaded once at
// startup and saved through the injected store on every change; nothing
// reads ambient global state.
type Settings struct {
	Theme    string `yaml:"theme"`
	ViewMode string `yaml:"viewMode"`
}

func defaultSettings() Settings {
	return Settings{Theme: ThemeLight, ViewMode: ViewTable}
}

// Store is the persistence port for settings.
type Store interface {
	Load() (Settings, error)
	Save(Settings) error
}

// Service holds the current settings and writes through to the store on
// change. Safe for concurrent use by request handlers.
type Service struct {
	mu      sync.RWMutex
	current Settings
	store   Store
}

func NewService(store Store) (*Service, error) {
	current, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &Service{current: current, store: store}, nil
}

func (s *Service) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Service) SetTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("unknown theme: %s", theme)
	}
	return s.update(func(settings *Settings) { settings.Theme = theme })
}

func (s *Service) SetViewMode(viewMode string) error {
	if viewMode != ViewTable && viewMode != ViewGrid {
		return fmt.Errorf("unknown view mode: %s", viewMode)
	}
	return s.update(func(settings *Settings) { settings.ViewMode = viewMode })
}

func (s *Service) update(apply func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := s.current
	apply(&updated)
	if err := s.store.Save(updated); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	s.current = updated
	return nil
}

// FileStore persists settings as a YAML file. A missing file yields
// defaults on load.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load() (Settings, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return defaultSettings(), nil
	}
	if err != nil {
		return Settings{}, err
	}

	settings := defaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings file %s: %w", f.path, err)
	}
	return settings, nil
}

func (f *FileStore) Save(settings Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0644)
}
