// Package validation checks user-supplied paths before the engine touches
// the filesystem: length and character limits, plus an import size cap so a
// runaway file cannot exhaust memory during parsing.
package validation

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"
)

const (
	// MaxImportSize is the largest document the engine will load (64 MB).
	MaxImportSize = 64 << 20
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Validation errors.
var (
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrFileTooLarge     = errors.New("file exceeds import size limit")
)

// ValidatePath checks that a path is usable without sanitizing it.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// ValidateImportSize rejects files larger than MaxImportSize. Missing files
// pass; the loader reports those with more context.
func ValidateImportSize(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if info.Size() > MaxImportSize {
		return fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrFileTooLarge, path, info.Size(), int64(MaxImportSize))
	}
	return nil
}
