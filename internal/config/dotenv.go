package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// SettingsEnvVar names the variable that points at Settings.ini
const SettingsEnvVar = "KANJUDEN_SETTINGS"

// DefaultSettingsPath is used when neither a flag nor the environment names one
const DefaultSettingsPath = "Settings.ini"

// LoadDotEnv reads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// SettingsPath picks the INI path: explicit value, then the environment,
// then the default
func SettingsPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(SettingsEnvVar); p != "" {
		return p
	}
	return DefaultSettingsPath
}

// Load reads the INI at path, falling back to defaults when it does not exist
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return NewDefaultConfig(), nil
	}
	return LoadFromINI(path)
}
