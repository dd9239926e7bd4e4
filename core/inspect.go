package core

import (
	"github.com/pkg/errors"

	"github.com/0xRadioAc7iv/go-flashdir/internal/metrics"
	"github.com/0xRadioAc7iv/go-flashdir/internal/record"
	"github.com/0xRadioAc7iv/go-flashdir/internal/window"
)

// Stats counts slots by state at a point in time.
type Stats struct {
	Slots uint32
	Empty uint32
	Live  uint32
	Stale uint32
}

// scanTable visits every slot once, in slot order, one window at a time.
// Callers hold d.mu.
func (d *Directory) scanTable(fn func(slot uint32, rec record.Record) error) error {
	for start := uint32(0); start < d.planner.Slots; {
		size := d.windowSize
		if remaining := d.planner.Slots - start; uint32(size) > remaining {
			size = int(remaining)
		}

		w, err := window.Load(d.m, d.planner, start, size)
		if err != nil {
			return err
		}

		for i := 0; i < w.Len(); i++ {
			if err := fn(w.Slot(i), w.Record(i)); err != nil {
				return err
			}
		}

		start += uint32(w.Len())
	}

	return nil
}

func (d *Directory) Stats(now uint32) (Stats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := Stats{Slots: d.planner.Slots}

	err := d.scanTable(func(_ uint32, rec record.Record) error {
		switch rec.State(now) {
		case record.StateEmpty:
			s.Empty++
		case record.StateLive:
			s.Live++
		case record.StateStale:
			s.Stale++
		}
		return nil
	})
	if err != nil {
		return Stats{}, errors.Wrap(err, "stats")
	}

	return s, nil
}

// Walk calls fn for every occupied slot, live or stale, in slot order. The
// directory is locked for the duration, so fn must not call back into it.
func (d *Directory) Walk(fn func(slot uint32, rec record.Record) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.scanTable(func(slot uint32, rec record.Record) error {
		if rec.IsEmpty() {
			return nil
		}
		return fn(slot, rec)
	})
}

// Sweep compacts every stale record it can reach and returns how many were
// removed. It has the same effect as the lazy compaction done by Put and
// Check, applied to the whole table.
//
// Windows advance by half their size so every compaction sees at least that
// much of the run after it. A stale record whose run is longer than that
// may still be deferred.
func (d *Directory) Sweep(now uint32) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	step := d.windowSize / 2
	if step < 1 {
		step = 1
	}

	removed := 0

	for start := uint32(0); start < d.planner.Slots; start += uint32(step) {
		w, err := window.Load(d.m, d.planner, start, d.windowSize)
		if err != nil {
			return removed, errors.Wrap(err, "sweep")
		}

		limit := step
		if limit > w.Len() {
			limit = w.Len()
		}

		for i := 0; i < limit; {
			rec := w.Record(i)
			if rec.State(now) == record.StateStale {
				ok, err := d.compact(w, i)
				if err != nil {
					return removed, errors.Wrap(err, "sweep")
				}
				if ok {
					removed++
					continue
				}
			}
			i++
		}
	}

	metrics.Sweeps.Inc()
	d.log.WithField("removed", removed).Debug("sweep finished")

	return removed, nil
}
