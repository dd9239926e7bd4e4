// Package probe maps credentials to home slots and defines the linear probe
// order over a fixed slot array. Probing wraps from the last slot back to 0.
package probe

import (
	"encoding/binary"

	"github.com/0xRadioAc7iv/go-flashdir/internal/record"
)

type Planner struct {
	Slots uint32 // N, number of whole records that fit on the medium
}

// NewPlanner sizes a planner for a medium of capacityBytes bytes. A trailing
// partial record is left unused.
func NewPlanner(capacityBytes uint32) Planner {
	return Planner{Slots: capacityBytes / record.RecordSize}
}

// Home interprets the first four credential bytes as a little-endian
// integer and reduces it modulo the slot count.
func (p Planner) Home(c record.Credential) uint32 {
	return binary.LittleEndian.Uint32(c[0:4]) % p.Slots
}

// Advance returns the slot n steps after i in probe order.
func (p Planner) Advance(i, n uint32) uint32 {
	return uint32((uint64(i) + uint64(n)) % uint64(p.Slots))
}

// Distance is the number of forward probe steps from slot `from` to slot
// `to`.
func (p Planner) Distance(from, to uint32) uint32 {
	if to >= from {
		return to - from
	}
	return p.Slots - from + to
}

// Offset returns the byte offset of slot i on the medium.
func (p Planner) Offset(i uint32) uint32 {
	return i * record.RecordSize
}
