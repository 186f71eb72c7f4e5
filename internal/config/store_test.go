package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout is Linux-specific")
	}
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if want := filepath.Join(base, "bhkiosk"); configDir != want {
		t.Errorf("GetConfigDir() = %v, want %v", configDir, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	configDir, err = GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if !strings.Contains(configDir, ".config") {
		t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestDefaultLogPath(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout is Linux-specific")
	}
	base := t.TempDir()
	t.Setenv("XDG_STATE_HOME", base)

	logPath, err := DefaultLogPath()
	if err != nil {
		t.Fatalf("DefaultLogPath() error = %v", err)
	}
	if want := filepath.Join(base, "bhkiosk", "bhkiosk.log"); logPath != want {
		t.Errorf("DefaultLogPath() = %v, want %v", logPath, want)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("NewConfig().Version = %v, want %v", cfg.Version, CurrentVersion)
	}
	if cfg.Backend.TimeoutSeconds != 15 {
		t.Errorf("NewConfig().Backend.TimeoutSeconds = %v, want 15", cfg.Backend.TimeoutSeconds)
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("NewConfig().Validate() = %v, want no errors", errs)
	}
}

func TestDefaultsMatchNewConfig(t *testing.T) {
	d := Defaults()
	cfg := NewConfig()

	if d["backend.url"] != cfg.Backend.URL {
		t.Errorf("Defaults()[backend.url] = %v, want %v", d["backend.url"], cfg.Backend.URL)
	}
	if d["kiosk.boarding_house_id"] != cfg.Kiosk.BoardingHouseID {
		t.Errorf("Defaults()[kiosk.boarding_house_id] = %v, want %v", d["kiosk.boarding_house_id"], cfg.Kiosk.BoardingHouseID)
	}
	if d["keypad.listen"] != cfg.Keypad.Listen {
		t.Errorf("Defaults()[keypad.listen] = %v, want %v", d["keypad.listen"], cfg.Keypad.Listen)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad version", func(c *Config) { c.Version = 2 }, "version"},
		{"empty url without discovery", func(c *Config) { c.Backend.URL = "" }, "backend.url"},
		{"non-http url", func(c *Config) { c.Backend.URL = "ftp://files" }, "backend.url"},
		{"zero timeout", func(c *Config) { c.Backend.TimeoutSeconds = 0 }, "backend.timeout_seconds"},
		{"no boarding house", func(c *Config) { c.Kiosk.BoardingHouseID = 0 }, "kiosk.boarding_house_id"},
		{"no rooms", func(c *Config) { c.Kiosk.Rooms = 0 }, "kiosk.rooms"},
		{"keypad without listen", func(c *Config) { c.Keypad = KeypadConfig{Enabled: true} }, "keypad.listen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			errs := cfg.Validate()
			if len(errs) != 1 {
				t.Fatalf("Validate() returned %d errors, want 1: %v", len(errs), errs)
			}
			if !strings.HasPrefix(errs[0].Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want prefix %q", errs[0], tt.wantErr)
			}
		})
	}

	discover := NewConfig()
	discover.Backend.URL = ""
	discover.Backend.Discover = true
	if errs := discover.Validate(); len(errs) != 0 {
		t.Errorf("Validate() with discovery = %v, want no errors", errs)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := NewConfig()
	cfg.Backend.URL = "http://192.168.1.20:8000"
	cfg.Kiosk.Name = "Dela Cruz Boarding House"
	cfg.Kiosk.BoardingHouseID = 3
	cfg.Keypad.Enabled = true

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file should be renamed away, stat err = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "# Boarding House Kiosk Configuration File") {
		t.Error("saved config should start with the header comment")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Backend.URL != cfg.Backend.URL {
		t.Errorf("Loaded backend.url = %v, want %v", loaded.Backend.URL, cfg.Backend.URL)
	}
	if loaded.Kiosk.BoardingHouseID != 3 {
		t.Errorf("Loaded kiosk.boarding_house_id = %v, want 3", loaded.Kiosk.BoardingHouseID)
	}
	if !loaded.Keypad.Enabled {
		t.Error("Loaded keypad.enabled should be true")
	}
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.URL != NewConfig().Backend.URL {
		t.Errorf("Load() of missing file backend.url = %v, want default", cfg.Backend.URL)
	}
}

func TestParse_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("version: 1\nkiosk:\n  rooms: 9\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Kiosk.Rooms != 9 {
		t.Errorf("kiosk.rooms = %v, want 9", cfg.Kiosk.Rooms)
	}
	if cfg.Kiosk.BoardingHouseID != 1 {
		t.Errorf("kiosk.boarding_house_id = %v, want default 1", cfg.Kiosk.BoardingHouseID)
	}
	if cfg.Backend.TimeoutSeconds != 15 {
		t.Errorf("backend.timeout_seconds = %v, want default 15", cfg.Backend.TimeoutSeconds)
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse([]byte("version: 2\n")); err == nil {
		t.Error("Parse() of version 2 should fail")
	}
	if _, err := Parse([]byte("kiosk: [unclosed\n")); err == nil {
		t.Error("Parse() of malformed YAML should fail")
	}
}

func TestCreateDefaultConfig_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := CreateDefaultConfig(path); err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if err := CreateDefaultConfig(path); err == nil {
		t.Error("second CreateDefaultConfig() should refuse to overwrite")
	}
}

func BenchmarkGetConfigDir(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = GetConfigDir()
	}
}
