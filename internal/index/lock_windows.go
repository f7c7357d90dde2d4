//go:build windows

package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const lockFile = "index.lock"

// Lock is held by the process writing the scan index.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock creates the lock file in stateDir. Windows has no flock, so
// the file is created exclusively and a stale file must be removed by hand.
func AcquireLock(stateDir string) (*Lock, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	path := filepath.Join(stateDir, lockFile)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("index is being written by another process (remove %s if it is stale): %w", path, err)
	}
	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("writing PID to lock file: %w", err)
	}
	return &Lock{path: path, file: file}, nil
}

// Release closes and removes the lock file. It is safe on a nil Lock.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = l.file.Close()
	_ = os.Remove(l.path)
	l.file = nil
}
