//go:build unix

package lock

import (
	"os"
	"syscall"
)

func (l *NFSLocker) nlink(info os.FileInfo) uint64 {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0
	}
	return uint64(st.Nlink)
}
