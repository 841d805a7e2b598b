// Package appdir locates the per-user data directory shared by settings,
// the change journal and log files.
package appdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Name is the folder created under the local application data directory.
const Name = "PcPerformanceManager"

// Base returns the per-user local data root: LOCALAPPDATA, then the user
// config dir, then the home directory, then the working directory.
func Base() string {
	if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
		return dir
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// Dir returns the application data directory. It is not created.
func Dir() string {
	return filepath.Join(Base(), Name)
}

// File joins elem onto the application data directory.
func File(elem ...string) string {
	return filepath.Join(append([]string{Dir()}, elem...)...)
}

// Ensure creates the application data directory and returns it.
func Ensure() (string, error) {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// WriteFile replaces path with data via a temp file in the same directory,
// so readers never see a half-written file.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
