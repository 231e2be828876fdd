package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrDirNotFound indicates the audiobook directory does not exist.
	ErrDirNotFound = errors.New("directory not found")

	// ErrNotDirectory indicates the audiobook path is a file.
	ErrNotDirectory = errors.New("not a directory")

	// ErrInvalidOutput indicates an output name with a directory component.
	ErrInvalidOutput = errors.New("invalid output name")

	// ErrInvalidFlag indicates a flag value rejected after parsing.
	ErrInvalidFlag = errors.New("invalid flag value")
)
