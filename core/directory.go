package core

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/0xRadioAc7iv/go-flashdir/internal/medium"
	"github.com/0xRadioAc7iv/go-flashdir/internal/metrics"
	"github.com/0xRadioAc7iv/go-flashdir/internal/probe"
	"github.com/0xRadioAc7iv/go-flashdir/internal/record"
	"github.com/0xRadioAc7iv/go-flashdir/internal/window"
)

var (
	// ErrCapacityExceeded is returned by Put when the credential's chain
	// runs past the scan window. The directory is left logically unchanged.
	ErrCapacityExceeded = errors.New("directory: chain longer than scan window")
	// ErrInvalidExpiry is returned by Put for expiry 0, which marks an empty
	// slot on the medium.
	ErrInvalidExpiry = errors.New("directory: expiry 0 is reserved")
)

// Verdict is the outcome of a credential lookup.
type Verdict uint8

const (
	VerdictUnknown         Verdict = iota // chain ended without a match
	VerdictGranted                        // match, not yet expired
	VerdictExpired                        // match, expired
	VerdictWindowExhausted                // window ended before the chain did
	VerdictError                          // medium failure
)

func (v Verdict) String() string {
	switch v {
	case VerdictUnknown:
		return "unknown"
	case VerdictGranted:
		return "granted"
	case VerdictExpired:
		return "expired"
	case VerdictWindowExhausted:
		return "window_exhausted"
	case VerdictError:
		return "error"
	default:
		return "invalid"
	}
}

// Clock returns the current time in Unix seconds.
type Clock func() uint32

func SystemClock() uint32 {
	return uint32(time.Now().Unix())
}

// Directory is an open-addressed credential table stored on a medium.
//
// Every record lives on the medium; an operation reads one window of
// consecutive slots starting at the credential's home slot and works only
// inside it. Expired records are removed lazily, by backward-shift
// compaction, when a Put or Check scans past them.
//
// All exported methods are serialised by an internal mutex, since a
// read-modify-write spanning several medium calls is not atomic.
type Directory struct {
	mu sync.Mutex

	m          medium.Medium
	planner    probe.Planner
	windowSize int
	log        *logrus.Entry
}

func New(m medium.Medium, opts ...Option) (*Directory, error) {
	d := &Directory{
		m:          m,
		planner:    probe.NewPlanner(m.Size()),
		windowSize: DefaultWindowSize,
		log:        logrus.WithField("component", "directory"),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.planner.Slots == 0 {
		return nil, errors.Errorf("medium of %d bytes holds no %d-byte slot", m.Size(), record.RecordSize)
	}
	if d.windowSize < MinimumWindowSize {
		return nil, errors.Errorf("window size %d below minimum %d", d.windowSize, MinimumWindowSize)
	}
	if uint32(d.windowSize) > d.planner.Slots {
		d.windowSize = int(d.planner.Slots)
	}

	return d, nil
}

// Capacity is the number of slots in the table.
func (d *Directory) Capacity() uint32 {
	return d.planner.Slots
}

func (d *Directory) WindowSize() int {
	return d.windowSize
}

// Put stores credential with the given expiry, or raises the expiry of an
// existing record for it. An existing later expiry is kept. now decides
// which records met on the way are stale and may be compacted.
//
// When the window holds no empty slot and no stale record could be
// compacted, the first stale record is overwritten in place. The slot stays
// occupied, so no other chain loses its path.
func (d *Directory) Put(credential record.Credential, expiry, now uint32) error {
	if expiry == record.EmptyExpiry {
		metrics.Puts.WithLabelValues("invalid").Inc()
		return ErrInvalidExpiry
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	w, err := window.Load(d.m, d.planner, d.planner.Home(credential), d.windowSize)
	if err != nil {
		metrics.Puts.WithLabelValues("error").Inc()
		return errors.Wrap(err, "put")
	}

	reusable := -1

	for i := 0; i < w.Len(); {
		rec := w.Record(i)

		switch {
		case rec.IsEmpty():
			if err := w.Store(i, record.Record{Expiry: expiry, Credential: credential}); err != nil {
				metrics.Puts.WithLabelValues("error").Inc()
				return errors.Wrap(err, "put")
			}
			metrics.Puts.WithLabelValues("stored").Inc()
			return nil

		case rec.Matches(credential):
			if rec.Expiry >= expiry {
				metrics.Puts.WithLabelValues("unchanged").Inc()
				return nil
			}
			rec.Expiry = expiry
			if err := w.Store(i, rec); err != nil {
				metrics.Puts.WithLabelValues("error").Inc()
				return errors.Wrap(err, "put")
			}
			metrics.Puts.WithLabelValues("updated").Inc()
			return nil

		case rec.State(now) == record.StateStale:
			removed, err := d.compact(w, i)
			if err != nil {
				metrics.Puts.WithLabelValues("error").Inc()
				return errors.Wrap(err, "put")
			}
			if removed {
				// slot i now holds a shifted record or is empty
				continue
			}
			if reusable < 0 {
				reusable = i
			}
		}

		i++
	}

	if reusable >= 0 {
		if err := w.Store(reusable, record.Record{Expiry: expiry, Credential: credential}); err != nil {
			metrics.Puts.WithLabelValues("error").Inc()
			return errors.Wrap(err, "put")
		}
		metrics.Puts.WithLabelValues("reused").Inc()
		d.log.WithFields(logrus.Fields{
			"credential": credential.Short(),
			"slot":       w.Slot(reusable),
		}).Debug("overwrote stale record in place")
		return nil
	}

	metrics.Puts.WithLabelValues("capacity_exceeded").Inc()
	d.log.WithFields(logrus.Fields{
		"credential": credential.Short(),
		"home":       w.Start(),
		"window":     w.Len(),
	}).Warn("no free slot within scan window")

	return ErrCapacityExceeded
}

// Check reports whether credential is present and unexpired at now. It
// fails closed: a medium error denies access and is only logged.
//
// A chain longer than the window is reported as not authorized, the same
// as an unknown credential. Use Verify to tell the two apart.
func (d *Directory) Check(credential record.Credential, now uint32) bool {
	verdict, err := d.Verify(credential, now)
	if err != nil {
		d.log.WithError(err).WithField("credential", credential.Short()).Error("lookup failed, denying access")
		return false
	}
	return verdict == VerdictGranted
}

// Verify looks credential up and explains the outcome. Stale records met
// during the scan are compacted, including the credential's own.
func (d *Directory) Verify(credential record.Credential, now uint32) (verdict Verdict, err error) {
	defer func() {
		metrics.Checks.WithLabelValues(verdict.String()).Inc()
	}()

	d.mu.Lock()
	defer d.mu.Unlock()

	w, err := window.Load(d.m, d.planner, d.planner.Home(credential), d.windowSize)
	if err != nil {
		return VerdictError, errors.Wrap(err, "verify")
	}

	for i := 0; i < w.Len(); {
		rec := w.Record(i)

		switch {
		case rec.IsEmpty():
			return VerdictUnknown, nil

		case rec.Matches(credential):
			if rec.State(now) == record.StateLive {
				return VerdictGranted, nil
			}
			if _, err := d.compact(w, i); err != nil {
				return VerdictError, errors.Wrap(err, "verify")
			}
			return VerdictExpired, nil

		case rec.State(now) == record.StateStale:
			removed, err := d.compact(w, i)
			if err != nil {
				return VerdictError, errors.Wrap(err, "verify")
			}
			if removed {
				continue
			}
		}

		i++
	}

	return VerdictWindowExhausted, nil
}
