package probe

import "errors"

// ErrDecode indicates an audio file could not be probed for its duration.
var ErrDecode = errors.New("cannot decode audio")
