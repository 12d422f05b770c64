package util

import (
	"errors"
	"strings"
)

// ErrBadFileName rejects uploads whose name is empty or tries to escape the
// storage namespace.
var ErrBadFileName = errors.New("invalid file name")

// SanitizeFileName normalizes an uploaded file name for use as a storage
// key segment: traversal sequences are rejected, path separators replaced.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrBadFileName
	}
	cleaned := strings.TrimSpace(name)
	cleaned = strings.ReplaceAll(cleaned, "/", "_")
	cleaned = strings.ReplaceAll(cleaned, "\\", "_")
	if cleaned == "" {
		return "", ErrBadFileName
	}
	return cleaned, nil
}
