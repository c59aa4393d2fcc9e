//go:build linux

package engine

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	directSupported = true
	directFlag      = unix.O_DIRECT
)

// allocBuffer returns a buffer of size bytes. With direct set it is backed by
// an anonymous mapping, which is page aligned as O_DIRECT requires.
func allocBuffer(size int, direct bool) ([]byte, func(), error) {
	if !direct {
		return make([]byte, size), func() {}, nil
	}
	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to allocate aligned memory")
	}
	return buf, func() { _ = unix.Munmap(buf) }, nil
}
