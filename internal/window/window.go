// Package window stages a bounded run of consecutive slots in RAM so a scan
// costs one or two medium reads instead of one per slot.
package window

import (
	"github.com/pkg/errors"

	"github.com/0xRadioAc7iv/go-flashdir/internal/medium"
	"github.com/0xRadioAc7iv/go-flashdir/internal/probe"
	"github.com/0xRadioAc7iv/go-flashdir/internal/record"
)

// DefaultSlots keeps the buffer at 3.6 KB for 36-byte records.
const DefaultSlots = 100

// Window holds Len() consecutive slots beginning at Start(), in probe order.
// Index 0 is the start slot; indices wrap past the last slot of the table.
type Window struct {
	m       medium.Medium
	planner probe.Planner
	start   uint32
	records []record.Record
}

// Load reads size slots starting at start. size is clamped to the slot
// count. A window that crosses the end of the table is read in two parts.
func Load(m medium.Medium, planner probe.Planner, start uint32, size int) (*Window, error) {
	if planner.Slots == 0 {
		return nil, errors.New("window: medium holds no slots")
	}
	if size <= 0 {
		return nil, errors.Errorf("window: invalid size %d", size)
	}
	if uint32(size) > planner.Slots {
		size = int(planner.Slots)
	}

	w := &Window{
		m:       m,
		planner: planner,
		start:   start,
		records: make([]record.Record, size),
	}

	head := uint32(size)
	if start+head > planner.Slots {
		head = planner.Slots - start
	}

	if err := w.fill(0, start, head); err != nil {
		return nil, err
	}
	if head < uint32(size) {
		if err := w.fill(int(head), 0, uint32(size)-head); err != nil {
			return nil, err
		}
	}

	return w, nil
}

// fill decodes count slots beginning at slot into w.records[at:].
func (w *Window) fill(at int, slot, count uint32) error {
	raw, err := w.m.Read(w.planner.Offset(slot), count*record.RecordSize)
	if err != nil {
		return errors.Wrapf(err, "read %d slots at %d", count, slot)
	}

	for i := uint32(0); i < count; i++ {
		off := i * record.RecordSize
		rec, err := record.DecodeRecordFromBytes(raw[off : off+record.RecordSize])
		if err != nil {
			return err
		}
		w.records[at+int(i)] = rec
	}

	return nil
}

func (w *Window) Len() int {
	return len(w.records)
}

func (w *Window) Start() uint32 {
	return w.start
}

// Slot maps a window index to its absolute slot index.
func (w *Window) Slot(i int) uint32 {
	return w.planner.Advance(w.start, uint32(i))
}

// Record returns the buffered copy of slot i.
func (w *Window) Record(i int) record.Record {
	return w.records[i]
}

// Store writes rec to window index i, as one whole-record medium write, and
// updates the buffer only if the write succeeded.
func (w *Window) Store(i int, rec record.Record) error {
	slot := w.Slot(i)
	if err := w.m.Write(w.planner.Offset(slot), record.EncodeRecordToBytes(&rec)); err != nil {
		return errors.Wrapf(err, "write slot %d", slot)
	}

	w.records[i] = rec
	return nil
}

// Clear stores the empty record at window index i.
func (w *Window) Clear(i int) error {
	return w.Store(i, record.Empty())
}
