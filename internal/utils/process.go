package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

// ListenForProcessInterruptOrKill blocks until it receives an interrupt (Ctrl+C)
// or termination signal (SIGTERM), or until ctx is done, then returns. This is
// typically used to keep a program running until the user requests shutdown.
func ListenForProcessInterruptOrKill(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logrus.Info("press Ctrl+C to exit")

	select {
	case sig := <-sigChan:
		logrus.WithField("signal", sig.String()).Info("shutting down")
	case <-ctx.Done():
	}
}
