package medium

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/0xRadioAc7iv/go-flashdir/internal/lock"
	"github.com/0xRadioAc7iv/go-flashdir/internal/utils"
)

// File is a medium backed by an image file of fixed size. The image is
// locked for the lifetime of the File so only one process mutates it.
type File struct {
	mu       sync.Mutex
	f        *os.File
	lockFile *os.File
	size     uint32
}

// OpenFile opens the image at path, creating a zero-filled image of size
// bytes if it does not exist. An existing image must already be size bytes
// long.
func OpenFile(path string, size uint32) (*File, error) {
	lf, err := lock.LockImage(path)
	if err != nil {
		return nil, err
	}

	if !utils.PathExists(path) {
		logrus.WithField("image", path).Info("image does not exist, creating one")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		lock.UnlockImage(lf)
		return nil, errors.Wrapf(err, "open image %s", path)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		lock.UnlockImage(lf)
		return nil, errors.Wrapf(err, "stat image %s", path)
	}

	switch {
	case info.Size() == 0:
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			lock.UnlockImage(lf)
			return nil, errors.Wrapf(err, "size image %s", path)
		}
	case info.Size() != int64(size):
		f.Close()
		lock.UnlockImage(lf)
		return nil, errors.Errorf("image %s is %d bytes, expected %d", path, info.Size(), size)
	}

	return &File{f: f, lockFile: lf, size: size}, nil
}

func (m *File) Read(offset, length uint32) ([]byte, error) {
	if err := checkRange(m.size, offset, length); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, length)
	n, err := m.f.ReadAt(buf, int64(offset))
	if err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "read at offset %d", offset)
	}
	if n != int(length) {
		return nil, errors.Errorf("expected to read %d bytes, got %d", length, n)
	}

	return buf, nil
}

func (m *File) Write(offset uint32, data []byte) error {
	if err := checkRange(m.size, offset, uint32(len(data))); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.f.WriteAt(data, int64(offset)); err != nil {
		return errors.Wrapf(err, "write at offset %d", offset)
	}
	return nil
}

func (m *File) Size() uint32 {
	return m.size
}

func (m *File) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.f.Sync()
}

// Close syncs and closes the image and releases its lock.
func (m *File) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	syncErr := m.f.Sync()
	closeErr := m.f.Close()
	lock.UnlockImage(m.lockFile)

	if syncErr != nil {
		return errors.Wrap(syncErr, "sync image")
	}
	return closeErr
}
