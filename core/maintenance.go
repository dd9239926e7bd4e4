package core

import (
	"context"
	"time"

	"github.com/0xRadioAc7iv/go-flashdir/internal/medium"
)

// SweepInterval runs Sweep every interval until ctx is done, and syncs the
// medium afterwards when it buffers writes. Lookups and inserts keep working
// meanwhile; they take turns with the sweep on the directory mutex.
func (d *Directory) SweepInterval(ctx context.Context, interval time.Duration, clock Clock) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := d.Sweep(clock())
			if err != nil {
				d.log.WithError(err).Error("maintenance sweep failed")
				continue
			}
			if removed > 0 {
				d.log.WithField("removed", removed).Info("maintenance sweep compacted stale records")
			}

			if s, ok := d.m.(medium.Syncer); ok {
				if err := s.Sync(); err != nil {
					d.log.WithError(err).Error("error syncing medium")
				}
			}

		case <-ctx.Done():
			return
		}
	}
}
