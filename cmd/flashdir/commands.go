package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/0xRadioAc7iv/go-flashdir/core"
	"github.com/0xRadioAc7iv/go-flashdir/internal/audit"
	"github.com/0xRadioAc7iv/go-flashdir/internal/record"
	"github.com/0xRadioAc7iv/go-flashdir/internal/update"
	"github.com/0xRadioAc7iv/go-flashdir/internal/utils"
)

// handler runs one directory command; the directory is already open.
type handler func(a *app, w io.Writer, args []string) error

// directoryCmd wraps h in a cobra command that opens the directory first.
func directoryCmd(a *app, use, short string, posArgs cobra.PositionalArgs, h handler) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  posArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDirectory(func() error {
				return h(a, cmd.OutOrStdout(), args)
			})
		},
	}
}

func newPutCmd(a *app) *cobra.Command {
	return directoryCmd(a, "put <credential> <expiry>", "Store a credential valid until expiry (Unix seconds)", cobra.ExactArgs(2), put)
}

func newCheckCmd(a *app) *cobra.Command {
	return directoryCmd(a, "check <credential>", "Check whether a credential is authorized now", cobra.ExactArgs(1), check)
}

func newReceiveCmd(a *app) *cobra.Command {
	return directoryCmd(a, "receive <packet>", "Apply a hex-encoded 40-byte update packet", cobra.ExactArgs(1), receive)
}

func newSweepCmd(a *app) *cobra.Command {
	return directoryCmd(a, "sweep", "Compact every expired record", cobra.NoArgs, sweep)
}

func newStatsCmd(a *app) *cobra.Command {
	return directoryCmd(a, "stats", "Count slots by state", cobra.NoArgs, stats)
}

func newDumpCmd(a *app) *cobra.Command {
	return directoryCmd(a, "dump", "List every occupied slot", cobra.NoArgs, dump)
}

func put(a *app, w io.Writer, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: put <credential> <expiry>")
	}

	c, err := record.ParseCredential(args[0])
	if err != nil {
		return err
	}

	expiry, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return errors.Wrapf(err, "invalid expiry %q", args[1])
	}

	if err := a.dir.Put(c, uint32(expiry), a.clock()); err != nil {
		return err
	}

	fmt.Fprintln(w, "OK")
	return nil
}

func check(a *app, w io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: check <credential>")
	}

	c, err := record.ParseCredential(args[0])
	if err != nil {
		return err
	}

	now := a.clock()
	verdict, verr := a.dir.Verify(c, now)

	if a.audit != nil {
		err := a.audit.Append(audit.Entry{
			Time:       time.Unix(int64(now), 0).UTC(),
			Door:       a.cfg.DoorID,
			Credential: c.String(),
			Verdict:    verdict.String(),
		})
		if err != nil {
			logrus.WithError(err).Warn("failed to record decision")
		}
	}

	if verdict == core.VerdictGranted {
		fmt.Fprintln(w, "granted")
	} else {
		fmt.Fprintf(w, "denied (%s)\n", verdict)
	}

	return verr
}

func receive(a *app, w io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: receive <packet>")
	}

	raw, err := hex.DecodeString(args[0])
	if err != nil {
		return errors.Wrap(err, "packet is not hex")
	}

	r := &update.Receiver{Store: a.dir, DoorID: a.cfg.DoorID}
	outcome, err := r.Receive(a.clock(), raw)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, outcome)
	return nil
}

func sweep(a *app, w io.Writer, _ []string) error {
	removed, err := a.dir.Sweep(a.clock())
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "removed %d\n", removed)
	return nil
}

func stats(a *app, w io.Writer, _ []string) error {
	s, err := a.dir.Stats(a.clock())
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "slots %d\nlive %d\nstale %d\nempty %d\nwindow %d\n", s.Slots, s.Live, s.Stale, s.Empty, a.dir.WindowSize())
	return nil
}

func dump(a *app, w io.Writer, _ []string) error {
	now := a.clock()

	return a.dir.Walk(func(slot uint32, rec record.Record) error {
		_, err := fmt.Fprintf(w, "%6d %10d %-5s %s\n", slot, rec.Expiry, rec.State(now), rec.Credential)
		return err
	})
}

func newAuditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Print the access decision log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Audit == "" {
				return errors.New("no audit log configured")
			}

			l, err := audit.Open(a.cfg.Audit)
			if err != nil {
				return err
			}
			defer l.Close()

			w := cmd.OutOrStdout()
			return l.Walk(func(seq uint64, e audit.Entry) error {
				_, err := fmt.Fprintf(w, "%d %s door=%d %s %s\n", seq, e.Time.Format(time.RFC3339), e.Door, e.Verdict, e.Credential)
				return err
			})
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return errors.Wrap(err, "marshal config")
			}

			w := cmd.OutOrStdout()
			if a.cfg.File != "" {
				fmt.Fprintf(w, "# %s\n", a.cfg.File)
			}
			_, err = w.Write(data)
			return err
		},
	}
}

// runMaintenance sweeps d every interval until a signal arrives or ctx is
// done, and waits for the sweeper to stop.
func runMaintenance(ctx context.Context, d *core.Directory, interval time.Duration, clock core.Clock) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.SweepInterval(ctx, interval, clock)
	}()

	utils.ListenForProcessInterruptOrKill(ctx)

	cancel()
	<-done

	return nil
}
