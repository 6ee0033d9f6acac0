// config.go - persistent terminal settings
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid settings")

const settingsHeader = "# tetherterm settings\n# Missing keys fall back to their defaults\n#\n# cursor_blink_ms: 0 disables blinking\n# log_file is only written when debug is true\n\n"

// Settings holds the terminal configuration
type Settings struct {
	// Geometry
	Columns         int `yaml:"columns"`          // Used when the controlling terminal size is unknown (default: 80)
	Rows            int `yaml:"rows"`             // (default: 24)
	ScrollbackLines int `yaml:"scrollback_lines"` // History rows above the viewport (default: 1000)

	// Behaviour
	NewlineMode   bool `yaml:"newline_mode"`    // LF also returns the carriage (default: false)
	CursorBlinkMs int  `yaml:"cursor_blink_ms"` // Blink half-period (default: 500)

	// Child process
	Shell string `yaml:"shell,omitempty"` // Empty means $SHELL, or cmd.exe on Windows

	// Logging
	Debug   bool   `yaml:"debug"`
	LogFile string `yaml:"log_file,omitempty"` // Defaults to ~/.tetherterm/logs/tetherterm.log
}

// DefaultSettings returns settings with sensible defaults
func DefaultSettings() *Settings {
	return &Settings{
		Columns:         80,
		Rows:            24,
		ScrollbackLines: 1000,
		NewlineMode:     false,
		CursorBlinkMs:   500,
		Debug:           false,
	}
}

// Validate reports the first out-of-range value.
func (s *Settings) Validate() error {
	switch {
	case s.Columns <= 0:
		return fmt.Errorf("%w: columns must be positive, got %d", ErrInvalid, s.Columns)
	case s.Rows <= 0:
		return fmt.Errorf("%w: rows must be positive, got %d", ErrInvalid, s.Rows)
	case s.ScrollbackLines < 0:
		return fmt.Errorf("%w: scrollback_lines must not be negative, got %d", ErrInvalid, s.ScrollbackLines)
	case s.CursorBlinkMs < 0:
		return fmt.Errorf("%w: cursor_blink_ms must not be negative, got %d", ErrInvalid, s.CursorBlinkMs)
	}
	return nil
}

// BlinkInterval is CursorBlinkMs as a duration.
func (s *Settings) BlinkInterval() time.Duration {
	return time.Duration(s.CursorBlinkMs) * time.Millisecond
}

// LogPath is where debug output goes.
func (s *Settings) LogPath() string {
	if s.LogFile != "" {
		return s.LogFile
	}
	return filepath.Join(GetLogsDir(), "tetherterm.log")
}

// Load reads settings from path, overlaying them on the defaults. A missing
// file is not an error: the defaults are returned and written out.
func Load(path string) (*Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("No settings file found, using defaults")
			return settings, Save(path, settings)
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings YAML: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	log.Printf("Loaded settings from %s", path)
	return settings, nil
}

// Save writes settings to path with a header comment.
func Save(path string, settings *Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	data = append([]byte(settingsHeader), data...)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	log.Printf("Saved settings to %s", path)
	return nil
}
