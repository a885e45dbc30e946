package config

import (
	"path/filepath"

	"github.com/spf13/viper"
)

// SettingsDir returns the directory of the settings file in use, or "" when
// running on defaults and environment alone.
func SettingsDir() string {
	used := viper.ConfigFileUsed()
	if used == "" {
		return ""
	}
	return filepath.Dir(used)
}

// BuildSettingsPath places a file name next to the settings file.
func BuildSettingsPath(name string) string {
	return filepath.Join(SettingsDir(), name)
}

// ResolvePath makes a relative path from the settings file relative to the
// settings directory. Absolute paths, and any path when no settings file is
// in use, are returned unchanged.
func ResolvePath(path string) string {
	dir := SettingsDir()
	if path == "" || filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}
