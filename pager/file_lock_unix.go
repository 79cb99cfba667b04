//go:build unix

package pager

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockFile takes an advisory lock: exclusive for writers, shared for readers.
func lockFile(f *os.File, exclusive bool) error {
	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	return unix.Flock(int(f.Fd()), how|unix.LOCK_NB)
}

func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
