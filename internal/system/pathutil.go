package system

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ValidateKeyfilePath validates and resolves a key file path, checking for
// symlinks, incorrect file types, and insecure permissions.
// Returns the canonical absolute path if valid.
func ValidateKeyfilePath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("key file not found: %s", path)
		}
		return "", fmt.Errorf("failed to resolve key file path: %w", err)
	}
	resolved = filepath.Clean(resolved)

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("key file not accessible: %w", err)
	}

	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("key file must be a regular file, not a directory or device: %s", resolved)
	}

	return resolved, nil
}

// InsecurePermissions reports whether a file is readable by group or others
func InsecurePermissions(path string) (bool, os.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, 0, err
	}
	mode := info.Mode().Perm()
	return mode&0044 != 0, mode, nil
}

// EnsureDir creates path as a directory if it does not exist. It returns
// true if the directory was created.
func EnsureDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", path)
		}
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return false, fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return true, nil
}

// PathExists reports whether something exists at path
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ListDir returns the sorted names of the entries in a directory
func ListDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
