// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrFilenameEmpty         = errors.New("filename cannot be empty")
	ErrFilenamePathTraversal = errors.New("filename contains path separator, traversal or null byte")
)

// MaxFilenameLength caps names written into a workspace.
const MaxFilenameLength = 255

// ValidateFilename checks that name is a bare file name that cannot escape
// the directory it is written into.
func ValidateFilename(name string) error {
	if name == "" {
		return ErrFilenameEmpty
	}
	if len(name) > MaxFilenameLength {
		return fmt.Errorf("%w: %d chars (max %d)", ErrFilenamePathTraversal, len(name), MaxFilenameLength)
	}
	if strings.ContainsAny(name, "/\\\x00") || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrFilenamePathTraversal, name)
	}
	return nil
}

// WriteFileIn writes data to dir/name after validating name.
// Files are created with 0600 permissions.
func WriteFileIn(dir, name string, data []byte) (string, error) {
	if err := ValidateFilename(name); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return path, nil
}

// CopyFile copies src into dir, keeping its base name.
func CopyFile(src, dir string) (string, error) {
	in, err := os.Open(src) // #nosec G304 -- path comes from operator configuration
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	dst := filepath.Join(dir, filepath.Base(src))
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) // #nosec G304 -- dst is inside dir
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("copying %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", dst, err)
	}
	return dst, nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists returns true if the path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "production" -> false (name)
//   - "./docpress.yaml" -> true (relative path)
//   - "/etc/docpress/config.yaml" -> true (absolute)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}
