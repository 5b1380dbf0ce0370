//go:build !unix

package lock

import "errors"

// ErrUnsupported is returned by FlockLocker on platforms without
// flock(2) semantics (non-unix targets).
var ErrUnsupported = errors.New("lock: flock strategy unsupported on this platform")

type FlockLocker struct {
	state State
}

func NewFlockLocker(path string, opts Options) *FlockLocker {
	return &FlockLocker{}
}

func (l *FlockLocker) State() State       { return l.state }
func (l *FlockLocker) HasLock() bool      { return false }
func (l *FlockLocker) IsLocked() bool     { return false }
func (l *FlockLocker) Lock() (bool, error) { return false, ErrUnsupported }
func (l *FlockLocker) Unlock() error      { return nil }
