// Package medium provides the byte-addressable non-volatile store the
// directory lives on. Implementations make no atomicity promise beyond a
// single Write call and do no wear leveling.
package medium

import "github.com/pkg/errors"

// OneMegabyte is the size of the reader's external flash part.
const OneMegabyte = 1024 * 1024

var ErrOutOfRange = errors.New("medium: access out of range")

// Medium is a linear byte array of fixed size.
type Medium interface {
	// Read returns length bytes starting at offset.
	Read(offset, length uint32) ([]byte, error)
	// Write stores data starting at offset.
	Write(offset uint32, data []byte) error
	// Size is the capacity in bytes.
	Size() uint32
}

// Syncer is implemented by media that buffer writes.
type Syncer interface {
	Sync() error
}

func checkRange(size, offset, length uint32) error {
	if uint64(offset)+uint64(length) > uint64(size) {
		return errors.Wrapf(ErrOutOfRange, "offset+length (%d+%d) exceeds size (%d)", offset, length, size)
	}
	return nil
}
