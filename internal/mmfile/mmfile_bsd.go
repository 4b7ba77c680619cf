//go:build unix && !linux

package mmfile

import "golang.org/x/sys/unix"

func fdatasync(fd int) error {
	return unix.Fsync(fd)
}
