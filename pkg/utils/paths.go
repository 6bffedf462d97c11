package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appDirName = "giftjourney"

// GetDefaultDBPathOnly returns a system-appropriate default path for the registry database.
func GetDefaultDBPathOnly() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "giftjourney.db"
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(homeDir, "AppData", "Roaming", appDirName, "giftjourney.db")
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", appDirName, "giftjourney.db")
	default:
		return filepath.Join(homeDir, ".local", "share", appDirName, "giftjourney.db")
	}
}

// GetDefaultConfigPath returns ~/.config/giftjourney/config.yaml, or "" without a home directory.
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", appDirName, "config.yaml")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory to expand path '%s': %w", path, err)
	}
	return filepath.Join(homeDir, path[2:]), nil
}

// ResolveAndEnsureDBPath turns providedPath (or the default) into an absolute
// path and creates its directory. ":memory:" is passed through.
func ResolveAndEnsureDBPath(providedPath string) (string, error) {
	targetPath := providedPath
	if targetPath == "" {
		targetPath = GetDefaultDBPathOnly()
	}
	if targetPath == ":memory:" {
		return targetPath, nil
	}

	targetPath, err := ExpandHome(targetPath)
	if err != nil {
		return "", err
	}

	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", targetPath, err)
	}
	targetPath = absPath

	dbDir := filepath.Dir(targetPath)
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory '%s' for database: %w", dbDir, err)
		}
	} else if err != nil {
		return "", fmt.Errorf("failed to stat directory '%s' for database: %w", dbDir, err)
	}

	return targetPath, nil
}
