//go:build unix

package lock

import (
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/markov2/go-mailbox/exterrors"
	"github.com/markov2/go-mailbox/metrics"
)

// FlockLocker implements the flock strategy using flock(2) on a
// sidecar "folder.lock" file. Unlike dotlock, the OS releases the
// lock automatically if the holding process dies, so there is no
// staleness check.
type FlockLocker struct {
	path  string
	opts  Options
	f     *os.File
	state State
}

func NewFlockLocker(path string, opts Options) *FlockLocker {
	return &FlockLocker{path: path + ".lock", opts: opts}
}

func (l *FlockLocker) State() State  { return l.state }
func (l *FlockLocker) HasLock() bool { return l.state == Locked }

func (l *FlockLocker) IsLocked() bool {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return false
	}
	defer f.Close()
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return true
	}
	unix.Flock(int(f.Fd()), unix.LOCK_UN)
	return false
}

func (l *FlockLocker) Lock() (bool, error) {
	l.state = Acquiring
	start := time.Now()
	deadline := l.opts.deadline(start)

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		l.state = Unlocked
		return false, exterrors.IoError("lock.FlockLocker.Lock", l.path, err)
	}

	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			l.f = f
			l.state = Locked
			metrics.LockWaitSeconds.WithLabelValues("flock").Observe(time.Since(start).Seconds())
			return true, nil
		}
		if err != unix.EWOULDBLOCK {
			f.Close()
			l.state = Unlocked
			return false, exterrors.IoError("lock.FlockLocker.Lock", l.path, err)
		}

		now := time.Now()
		if expired(deadline, now) {
			f.Close()
			l.state = Unlocked
			metrics.LockFailures.WithLabelValues("flock").Inc()
			return false, nil
		}
		time.Sleep(1 * time.Second)
	}
}

func (l *FlockLocker) Unlock() error {
	if l.state != Locked {
		return nil
	}
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	l.f.Close()
	l.f = nil
	l.state = Unlocked
	if err != nil {
		return exterrors.IoError("lock.FlockLocker.Unlock", l.path, err)
	}
	return nil
}
