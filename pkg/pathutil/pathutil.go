// Package pathutil validates operator-supplied file paths.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotRegularFile is returned for directories, devices and other non-files.
var ErrNotRegularFile = errors.New("not a regular file")

// ValidateInputFile resolves path to an absolute path naming an existing
// regular file. When extensions are given, the file must carry one of them.
func ValidateInputFile(path string, extensions ...string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is empty")
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}

	if len(extensions) > 0 {
		ext := strings.ToLower(filepath.Ext(absPath))
		matched := false
		for _, want := range extensions {
			if ext == strings.ToLower(want) {
				matched = true
				break
			}
		}
		if !matched {
			return "", fmt.Errorf("%s must have one of the extensions %s, got %q", path, strings.Join(extensions, ", "), ext)
		}
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("checking %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}

	return absPath, nil
}

// ValidateConfigPath validates a YAML configuration file path.
func ValidateConfigPath(path string) (string, error) {
	return ValidateInputFile(path, ".yaml", ".yml")
}
