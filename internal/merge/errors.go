package merge

import (
	"errors"
	"fmt"
)

// Sentinel errors for the merge pipeline.
var (
	// ErrNoInput indicates the directory holds no file with an accepted extension.
	ErrNoInput = errors.New("no input audio files found")

	// ErrOutputExists indicates the final output is already present and overwriting is off.
	ErrOutputExists = errors.New("output file already exists")

	// ErrFilesystem indicates an artifact could not be read, written, or removed.
	ErrFilesystem = errors.New("filesystem error")

	// ErrLocked indicates another run holds the directory lock.
	ErrLocked = errors.New("directory is locked by another run")

	// ErrInvalidConfig indicates a Config rejected by Validate.
	ErrInvalidConfig = errors.New("invalid merge configuration")
)

// StageError records the stage at which a run failed and, when known, the
// file involved. errors.Is and errors.As see through it to the cause.
type StageError struct {
	Stage State
	Path  string
	Err   error
}

func (e *StageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
