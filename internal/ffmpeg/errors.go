package ffmpeg

import "errors"

// ErrNotFound indicates the ffmpeg binary cannot be resolved or executed.
var ErrNotFound = errors.New("ffmpeg not found")

// ErrProbeNotFound indicates no ffprobe binary is available.
var ErrProbeNotFound = errors.New("ffprobe not found")

// ErrExecution indicates ffmpeg ran but exited with a non-zero status.
var ErrExecution = errors.New("ffmpeg failed")

// ErrInvalidInvocation indicates an invocation rejected before execution.
var ErrInvalidInvocation = errors.New("invalid ffmpeg invocation")
