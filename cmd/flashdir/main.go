// Command flashdir operates on a credential directory stored in a medium
// image file: it stores and checks credentials, applies update packets and
// runs maintenance.
package main

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/0xRadioAc7iv/go-flashdir/core"
	"github.com/0xRadioAc7iv/go-flashdir/internal/audit"
	"github.com/0xRadioAc7iv/go-flashdir/internal/config"
	"github.com/0xRadioAc7iv/go-flashdir/internal/medium"
	"github.com/0xRadioAc7iv/go-flashdir/internal/metrics"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}

// app is the state shared by the commands of one invocation.
type app struct {
	cfgFile string
	now     int64

	cfg *config.Config

	image *medium.File
	dir   *core.Directory
	audit *audit.Log
}

// clock returns --now when given, the wall clock otherwise.
func (a *app) clock() uint32 {
	if a.now > 0 {
		return uint32(a.now)
	}
	return core.SystemClock()
}

// open maps the image and, when configured, the audit log.
func (a *app) open() error {
	image, err := medium.OpenFile(a.cfg.Image, a.cfg.Capacity)
	if err != nil {
		return err
	}

	dir, err := core.New(image, core.WithWindowSize(a.cfg.Window))
	if err != nil {
		image.Close()
		return err
	}

	if a.cfg.Audit != "" {
		l, err := audit.Open(a.cfg.Audit)
		if err != nil {
			image.Close()
			return err
		}
		a.audit = l
	}

	a.image, a.dir = image, dir
	return nil
}

func (a *app) close() {
	if a.cfg.Metrics != "" {
		if err := metrics.Export(a.cfg.Metrics); err != nil {
			logrus.WithError(err).Warn("failed to export metrics")
		}
	}

	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close audit log")
		}
		a.audit = nil
	}

	if a.image != nil {
		if err := a.image.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close image")
		}
		a.image, a.dir = nil, nil
	}
}

// withDirectory runs fn with the directory open and closes it afterwards,
// whether or not fn fails.
func (a *app) withDirectory(fn func() error) error {
	if err := a.open(); err != nil {
		return err
	}
	defer a.close()

	return fn()
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "flashdir",
		Short: "flashdir manages a flash-resident credential directory.",
		Long: `flashdir stores access credentials with an expiry in an open-addressed
hash table laid out on a fixed-size medium image. Expired credentials are
removed lazily whenever a lookup or insert passes over them.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			logrus.SetLevel(cfg.Level())
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is flashdir.yaml in the user config dir or .)")
	cmd.PersistentFlags().Int64Var(&a.now, "now", 0, "current time in Unix seconds (default is the wall clock)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newPutCmd(a),
		newCheckCmd(a),
		newReceiveCmd(a),
		newSweepCmd(a),
		newStatsCmd(a),
		newDumpCmd(a),
		newAuditCmd(a),
		newConfigCmd(a),
		newShellCmd(a),
		newRunCmd(a),
	)

	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Keep the directory open and sweep it periodically until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDirectory(func() error {
				interval := time.Duration(a.cfg.SweepInterval) * time.Second
				logrus.WithFields(logrus.Fields{
					"image":    a.cfg.Image,
					"slots":    a.dir.Capacity(),
					"interval": interval,
				}).Info("directory open")

				return runMaintenance(cmd.Context(), a.dir, interval, a.clock)
			})
		},
	}
}
