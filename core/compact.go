package core

import (
	"github.com/sirupsen/logrus"

	"github.com/0xRadioAc7iv/go-flashdir/internal/metrics"
	"github.com/0xRadioAc7iv/go-flashdir/internal/window"
)

// compact removes the stale record at window index idx by backward-shift
// deletion and reports whether it did.
//
// The slot at idx becomes a hole. Each later record up to the end of the run
// moves into the hole when the hole lies on or after its home slot in probe
// order; it then leaves a new hole behind. A record whose home is past the
// hole stays where it is, but scanning continues past it, since a later
// record may still belong in the hole. The last hole is cleared.
//
// The run must end inside the window. Otherwise records beyond the window
// could depend on the slots being shifted, so nothing is written and the
// stale record is left for a scan that sees the end of its run.
//
// Records are copied before the hole they leave is cleared, so an
// interrupted compaction may duplicate a record but never loses one.
func (d *Directory) compact(w *window.Window, idx int) (bool, error) {
	end := -1
	for j := idx + 1; j < w.Len(); j++ {
		if w.Record(j).IsEmpty() {
			end = j
			break
		}
	}

	if end < 0 {
		metrics.Compactions.WithLabelValues("deferred").Inc()
		d.log.WithFields(logrus.Fields{
			"slot":   w.Slot(idx),
			"window": w.Len(),
		}).Debug("run does not end inside window, deferring compaction")
		return false, nil
	}

	free := idx
	shifted := 0

	for j := idx + 1; j < end; j++ {
		rec := w.Record(j)
		home := d.planner.Home(rec.Credential)

		if d.planner.Distance(home, w.Slot(free)) > d.planner.Distance(home, w.Slot(j)) {
			// hole is before this record's home
			continue
		}

		if err := w.Store(free, rec); err != nil {
			return false, err
		}
		free = j
		shifted++
	}

	if err := w.Clear(free); err != nil {
		return false, err
	}

	metrics.Compactions.WithLabelValues("removed").Inc()
	metrics.ShiftedRecords.Add(float64(shifted))
	d.log.WithFields(logrus.Fields{
		"slot":    w.Slot(idx),
		"shifted": shifted,
	}).Debug("compacted stale record")

	return true, nil
}
