package merge

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// dirLock is an advisory lock serializing runs on one directory. The lock
// file is left in place after release: removing it would let two runs lock
// different inodes of the same path.
type dirLock struct {
	path string
	lock *flock.Flock
}

// acquireLock takes the lock without blocking. A lock held elsewhere yields
// ErrLocked.
func acquireLock(dir string) (*dirLock, error) {
	path := filepath.Join(dir, lockName)
	l := flock.New(path)
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: acquire lock %s: %v", ErrFilesystem, path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &dirLock{path: path, lock: l}, nil
}

func (d *dirLock) release() error {
	return d.lock.Unlock()
}
