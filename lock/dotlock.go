package lock

import (
	"fmt"
	"os"
	"time"

	"github.com/markov2/go-mailbox/exterrors"
	"github.com/markov2/go-mailbox/metrics"
)

// DotLocker implements the dotlock strategy: an exclusive
// O_CREAT|O_EXCL file next to the folder. On contention it sleeps 1s
// between attempts; a lockfile older than StaleAge is considered
// abandoned and removed.
type DotLocker struct {
	path  string
	opts  Options
	state State
}

func NewDotLocker(path string, opts Options) *DotLocker {
	return &DotLocker{path: path + ".lock", opts: opts}
}

func (d *DotLocker) State() State  { return d.state }
func (d *DotLocker) HasLock() bool { return d.state == Locked }

func (d *DotLocker) IsLocked() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

func (d *DotLocker) Lock() (bool, error) {
	d.state = Acquiring
	start := time.Now()
	deadline := d.opts.deadline(start)

	for {
		f, err := os.OpenFile(d.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			d.state = Locked
			metrics.LockWaitSeconds.WithLabelValues("dotlock").Observe(time.Since(start).Seconds())
			return true, nil
		}
		if !os.IsExist(err) {
			d.state = Unlocked
			return false, exterrors.IoError("lock.DotLocker.Lock", d.path, err)
		}

		if d.removeIfStale() {
			continue
		}

		now := time.Now()
		if expired(deadline, now) {
			d.state = Unlocked
			metrics.LockFailures.WithLabelValues("dotlock").Inc()
			return false, nil
		}
		time.Sleep(1 * time.Second)
	}
}

func (d *DotLocker) removeIfStale() bool {
	info, err := os.Stat(d.path)
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) <= d.opts.staleAge() {
		return false
	}
	return os.Remove(d.path) == nil
}

func (d *DotLocker) Unlock() error {
	if d.state != Locked {
		return nil
	}
	err := os.Remove(d.path)
	d.state = Unlocked
	if err != nil && !os.IsNotExist(err) {
		return exterrors.IoError("lock.DotLocker.Unlock", d.path, err)
	}
	return nil
}
