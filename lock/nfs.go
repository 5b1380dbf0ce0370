package lock

import (
	"fmt"
	"os"
	"time"

	"github.com/markov2/go-mailbox/exterrors"
	"github.com/markov2/go-mailbox/metrics"
)

// NFSLocker implements the NFS-safe locking recipe: write a file
// unique to this host and process, hard-link it to the target lock
// name, and check the link count rose to 2. link(2) is atomic even
// on NFS servers that don't honour O_EXCL reliably; a bare create
// isn't.
type NFSLocker struct {
	path     string
	uniqPath string
	opts     Options
	state    State
}

func NewNFSLocker(path string, opts Options) *NFSLocker {
	return &NFSLocker{path: path + ".lock", opts: opts}
}

func (l *NFSLocker) State() State  { return l.state }
func (l *NFSLocker) HasLock() bool { return l.state == Locked }

func (l *NFSLocker) IsLocked() bool {
	_, err := os.Stat(l.path)
	return err == nil
}

func (l *NFSLocker) Lock() (bool, error) {
	l.state = Acquiring
	start := time.Now()
	deadline := l.opts.deadline(start)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	uniq := fmt.Sprintf("%s.%d.%s", l.path, os.Getpid(), hostname)

	f, err := os.OpenFile(uniq, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		l.state = Unlocked
		return false, exterrors.IoError("lock.NFSLocker.Lock", uniq, err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Close()
	l.uniqPath = uniq
	defer func() {
		if l.state != Locked {
			os.Remove(l.uniqPath)
		}
	}()

	for {
		err := os.Link(uniq, l.path)
		if err != nil && !os.IsExist(err) {
			l.state = Unlocked
			return false, exterrors.IoError("lock.NFSLocker.Lock", l.path, err)
		}

		info, statErr := os.Stat(uniq)
		if statErr == nil && l.nlink(info) == 2 {
			l.state = Locked
			metrics.LockWaitSeconds.WithLabelValues("nfs").Observe(time.Since(start).Seconds())
			return true, nil
		}

		now := time.Now()
		if expired(deadline, now) {
			l.state = Unlocked
			metrics.LockFailures.WithLabelValues("nfs").Inc()
			return false, nil
		}
		time.Sleep(1 * time.Second)
	}
}

func (l *NFSLocker) Unlock() error {
	if l.state != Locked {
		return nil
	}
	err1 := os.Remove(l.path)
	err2 := os.Remove(l.uniqPath)
	l.state = Unlocked
	if err1 != nil && !os.IsNotExist(err1) {
		return exterrors.IoError("lock.NFSLocker.Unlock", l.path, err1)
	}
	if err2 != nil && !os.IsNotExist(err2) {
		return exterrors.IoError("lock.NFSLocker.Unlock", l.uniqPath, err2)
	}
	return nil
}
