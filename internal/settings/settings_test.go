package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	service, err := NewService(NewFileStore(path))
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	return service, path
}

func TestSettings_DefaultsWhenFileMissing(t *testing.T) {
	service, _ := newTestService(t)

	current := service.Current()
	if current.Theme != ThemeLight {
		t.Errorf("expected default theme %q, got %q", ThemeLight, current.Theme)
	}
	if current.ViewMode != ViewTable {
		t.Errorf("expected default view mode %q, got %q", ViewTable, current.ViewMode)
	}
}

func TestSettings_SaveOnChange(t *testing.T) {
	service, path := newTestService(t)

	if err := service.SetTheme(ThemeDark); err != nil {
		t.Fatalf("SetTheme error: %v", err)
	}
	if err := service.SetViewMode(ViewGrid); err != nil {
		t.Fatalf("SetViewMode error: %v", err)
	}

	// A fresh service over the same file sees the persisted values.
	reloaded, err := NewService(NewFileStore(path))
	if err != nil {
		t.Fatalf("NewService (reload) error: %v", err)
	}
	current := reloaded.Current()
	if current.Theme != ThemeDark {
		t.Errorf("expected persisted theme %q, got %q", ThemeDark, current.Theme)
	}
	if current.ViewMode != ViewGrid {
		t.Errorf("expected persisted view mode %q, got %q", ViewGrid, current.ViewMode)
	}
}

func TestSettings_RejectsUnknownValues(t *testing.T) {
	service, _ := newTestService(t)

	if err := service.SetTheme("solarized"); err == nil {
		t.Error("expected error for unknown theme")
	}
	if err := service.SetViewMode("carousel"); err == nil {
		t.Error("expected error for unknown view mode")
	}
	// Failed updates must not change the current settings.
	if got := service.Current(); got != defaultSettings() {
		t.Errorf("expected settings unchanged, got %+v", got)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("theme: [broken"), 0644); err != nil {
		t.Fatalf("seed error: %v", err)
	}

	if _, err := NewFileStore(path).Load(); err == nil {
		t.Error("expected error for corrupt settings file")
	}
}
