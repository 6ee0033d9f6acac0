// paths.go - application path management
// Config and log files live under ~/.tetherterm
package config

import (
	"log"
	"os"
	"path/filepath"
)

// AppHomeDir is the name of the application's home directory
const AppHomeDir = ".tetherterm"

// GetAppHome returns the application home directory (~/.tetherterm),
// creating it if needed. Falls back to the working directory.
func GetAppHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory: %v", err)
		return "."
	}

	appHome := filepath.Join(home, AppHomeDir)
	if err := os.MkdirAll(appHome, 0755); err != nil {
		log.Printf("Warning: Could not create app home directory %s: %v", appHome, err)
	}
	return appHome
}

// GetLogsDir returns the logs directory (~/.tetherterm/logs)
func GetLogsDir() string {
	return filepath.Join(GetAppHome(), "logs")
}

// GetSettingsPath returns the path to settings.yaml (~/.tetherterm/settings.yaml)
func GetSettingsPath() string {
	return filepath.Join(GetAppHome(), "settings.yaml")
}
