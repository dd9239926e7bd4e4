//go:build windows

package lock

import (
	"os"
)

// LockImage attempts to acquire an exclusive lock for the medium image at
// imagePath.
//
// On Windows, this is implemented by atomically creating a file named
// "<image>.lock". If the file already exists, the image is assumed to be in
// use by another instance.
//
// The returned file handle must be kept open for the duration of the lock.
func LockImage(imagePath string) (*os.File, error) {
	f, err := os.OpenFile(lockPath(imagePath), os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, ErrLocked
	}

	return f, nil
}

// UnlockImage releases a lock acquired via LockImage.
//
// On Windows, this removes the lock file from disk. UnlockImage should
// be called exactly once for each successful LockImage call.
func UnlockImage(f *os.File) {
	name := f.Name()
	f.Close()
	os.Remove(name)
}
