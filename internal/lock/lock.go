// Package lock guards a medium image against concurrent writers in other
// processes. The engine serialises callers inside one process; this package
// covers the process boundary.
package lock

import "github.com/pkg/errors"

// LockSuffix is appended to the image path to form the lock file name.
const LockSuffix = ".lock"

var ErrLocked = errors.New("image already in use by another flashdir instance")

func lockPath(imagePath string) string {
	return imagePath + LockSuffix
}
