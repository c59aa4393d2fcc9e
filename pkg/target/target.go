// Package target provisions the backing file that workloads run against.
package target

import (
	"crypto/rand"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ChunkSize is the unit in which a new target is filled, bounding the memory
// used while provisioning.
const ChunkSize = 1024 * 1024

// DefaultPath is the file name used when none is configured.
const DefaultPath = "test_file.bin"

// Ensure makes sure a target file exists at path. A missing file is created
// with sizeMB MiB of random, incompressible content. An existing file is left
// untouched and is not checked against sizeMB.
//
// I/O errors are returned wrapped with the path; errors.Cause yields the
// underlying *os.PathError. Nothing is retried.
func Ensure(path string, sizeMB int) error {
	if sizeMB <= 0 {
		return errors.Errorf("invalid target size %d MiB", sizeMB)
	}
	_, err := os.Stat(path)
	if err == nil {
		log.Debugf("Reusing existing target %s", path)
		return nil
	}
	if !os.IsNotExist(err) {
		return errors.Wrapf(err, "stat target %s", path)
	}

	log.WithFields(log.Fields{"path": path, "size_mb": sizeMB}).Info("Creating test file")
	if err := create(path, sizeMB); err != nil {
		// A short file would silently shrink every later run.
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warnf("Failed to remove partial target %s: %v", path, rmErr)
		}
		return errors.Wrapf(err, "create target %s", path)
	}
	return nil
}

func create(path string, sizeMB int) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	chunk := make([]byte, ChunkSize)
	for i := 0; i < sizeMB; i++ {
		if _, err := rand.Read(chunk); err != nil {
			f.Close()
			return err
		}
		if _, err := f.Write(chunk); err != nil {
			f.Close()
			return err
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Size returns the current size of the target in bytes.
func Size(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, errors.Wrapf(err, "stat target %s", path)
	}
	if !fi.Mode().IsRegular() {
		return 0, errors.Errorf("target %s is not a regular file", path)
	}
	return fi.Size(), nil
}
