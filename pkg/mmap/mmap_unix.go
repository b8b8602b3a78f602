//go:build linux || darwin

package mmap

import (
	"golang.org/x/sys/unix"
)

func mmap(fd int, length int) ([]byte, error) {
	return unix.Mmap(fd, 0, length, unix.PROT_READ, unix.MAP_SHARED)
}

func munmap(b []byte) error {
	return unix.Munmap(b)
}

// advise hints the kernel about the access pattern. Failure is harmless.
func advise(b []byte, random bool) error {
	if random {
		return unix.Madvise(b, unix.MADV_RANDOM)
	}
	return unix.Madvise(b, unix.MADV_SEQUENTIAL)
}
