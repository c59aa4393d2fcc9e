package engine

import (
	"io"
	"os"
)

// File is the handle a workload performs I/O through.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
}

// Opener opens handles onto the target. Tests substitute instrumented fakes.
type Opener interface {
	Open(path string, write, direct bool) (File, error)
}

// OSOpener opens the target with os.OpenFile.
type OSOpener struct{}

func (OSOpener) Open(path string, write, direct bool) (File, error) {
	return openFile(path, write, direct)
}

func openFile(path string, write, direct bool) (*os.File, error) {
	flags := os.O_RDONLY
	if write {
		flags = os.O_RDWR
	}
	if direct {
		flags |= directFlag
	}
	return os.OpenFile(path, flags, 0666)
}
