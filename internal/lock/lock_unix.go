//go:build unix

package lock

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// LockImage attempts to acquire an exclusive, non-blocking advisory lock for
// the medium image at imagePath.
//
// On Unix systems, this uses flock(2) on a sibling file named
// "<image>.lock". If the lock cannot be acquired, ErrLocked is returned.
//
// The returned file handle must remain open for the duration of the lock.
func LockImage(imagePath string) (*os.File, error) {
	f, err := os.OpenFile(lockPath(imagePath), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open lock file")
	}

	err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		f.Close()
		return nil, ErrLocked
	}

	return f, nil
}

// UnlockImage releases a lock acquired via LockImage.
//
// On Unix systems, this releases the advisory flock and closes the file.
func UnlockImage(f *os.File) {
	syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	f.Close()
}
